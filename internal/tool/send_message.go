package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-crm/internal/mailbox"
)

// SendMessageRequest is a message to compose and send.
type SendMessageRequest struct {
	To              string   `json:"to" jsonschema:"recipient address"`
	Subject         string   `json:"subject" jsonschema:"message subject"`
	Body            string   `json:"body,omitempty" jsonschema:"plain text body"`
	AttachmentPaths []string `json:"attachment_paths,omitempty" jsonschema:"files to attach, relative to the configured attachment directory"`
}

// SendMessageResponse identifies the sent message.
type SendMessageResponse struct {
	ID       string `json:"id" jsonschema:"sent message ID"`
	ThreadID string `json:"thread_id" jsonschema:"thread ID"`
}

type sendMessageSvc interface {
	Send(ctx context.Context, d mailbox.Draft) (*gmail.Message, error)
}

// NewSendMessage creates a new SendMessage tool.
func NewSendMessage(svc sendMessageSvc) *SendMessage {
	return &SendMessage{
		svc: svc,
	}
}

// SendMessage sends composed messages.
type SendMessage struct {
	svc sendMessageSvc
}

// SendMessage encodes and sends a message.
func (t *SendMessage) SendMessage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SendMessageRequest,
) (*mcp.CallToolResult, SendMessageResponse, error) {
	sent, err := t.svc.Send(ctx, mailbox.Draft{
		To:      input.To,
		Subject: input.Subject,
		Body:    input.Body,
		Files:   input.AttachmentPaths,
	})
	if err != nil {
		return nil, SendMessageResponse{}, fmt.Errorf("send failed: %w", err)
	}

	return nil, SendMessageResponse{
		ID:       sent.Id,
		ThreadID: sent.ThreadId,
	}, nil
}
