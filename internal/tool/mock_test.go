package tool_test

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-crm/internal/mailbox"
	"github.com/hal9000y/gmail-crm/internal/mimecodec"
	"github.com/hal9000y/gmail-crm/internal/tool"
)

type mailboxMock struct {
	InboxFunc      func(ctx context.Context) ([]mimecodec.EmailRecord, error)
	MessageFunc    func(ctx context.Context, msgID string) (mimecodec.EmailRecord, error)
	AttachmentFunc func(ctx context.Context, msgID, attachmentID string) ([]byte, error)
	SendFunc       func(ctx context.Context, d mailbox.Draft) (*gmail.Message, error)
}

func (m *mailboxMock) Inbox(ctx context.Context) ([]mimecodec.EmailRecord, error) {
	return m.InboxFunc(ctx)
}

func (m *mailboxMock) Message(ctx context.Context, msgID string) (mimecodec.EmailRecord, error) {
	return m.MessageFunc(ctx, msgID)
}

func (m *mailboxMock) Attachment(ctx context.Context, msgID, attachmentID string) ([]byte, error) {
	return m.AttachmentFunc(ctx, msgID, attachmentID)
}

func (m *mailboxMock) Send(ctx context.Context, d mailbox.Draft) (*gmail.Message, error) {
	return m.SendFunc(ctx, d)
}

func connectClient(t *testing.T, svc *mailboxMock) *mcp.ClientSession {
	t.Helper()

	server := tool.NewServer(svc)
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}
