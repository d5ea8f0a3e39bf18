package mailbox_test

import (
	"context"
	"sync"

	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-crm/internal/mimecodec"
)

type transportMock struct {
	mu sync.Mutex

	ListMessagesFunc  func(ctx context.Context, labelID, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error)
	GetMessageFunc    func(ctx context.Context, msgID string) (*gmail.Message, error)
	GetAttachmentFunc func(ctx context.Context, msgID, attachmentID string) (*gmail.MessagePartBody, error)
	SendRawFunc       func(ctx context.Context, raw mimecodec.EncodedMessage) (*gmail.Message, error)
	GetProfileFunc    func(ctx context.Context) (*gmail.Profile, error)

	sendCalls  int
	resetCalls int
}

func (m *transportMock) ListMessages(ctx context.Context, labelID, pageToken string, maxResults int64) (*gmail.ListMessagesResponse, error) {
	return m.ListMessagesFunc(ctx, labelID, pageToken, maxResults)
}

func (m *transportMock) GetMessage(ctx context.Context, msgID string) (*gmail.Message, error) {
	return m.GetMessageFunc(ctx, msgID)
}

func (m *transportMock) GetAttachment(ctx context.Context, msgID, attachmentID string) (*gmail.MessagePartBody, error) {
	return m.GetAttachmentFunc(ctx, msgID, attachmentID)
}

func (m *transportMock) SendRaw(ctx context.Context, raw mimecodec.EncodedMessage) (*gmail.Message, error) {
	m.mu.Lock()
	m.sendCalls++
	m.mu.Unlock()

	return m.SendRawFunc(ctx, raw)
}

func (m *transportMock) GetProfile(ctx context.Context) (*gmail.Profile, error) {
	return m.GetProfileFunc(ctx)
}

func (m *transportMock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetCalls++
}

type sessionMock struct {
	email    string
	clearErr error
	cleared  bool
}

func (m *sessionMock) SetAccount(email string) {
	m.email = email
}

func (m *sessionMock) Account() string {
	return m.email
}

func (m *sessionMock) Clear() error {
	m.cleared = true
	m.email = ""
	return m.clearErr
}
