package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-crm/internal/mimecodec"
)

// GetMessagesRequest contains message IDs to retrieve.
type GetMessagesRequest struct {
	MessageIDs []string `json:"message_ids" jsonschema:"array of message IDs to retrieve"`
}

// GetMessagesResponse contains full message contents.
type GetMessagesResponse struct {
	Messages []MessageContent `json:"messages" jsonschema:"array of full message contents"`
}

// MessageContent contains decoded message data with body and attachments.
type MessageContent struct {
	Summary      MessageSummary `json:"summary" jsonschema:"summary"`
	BodyText     string         `json:"body_text,omitempty" jsonschema:"text body, may contain HTML markup when the message has no plain text part"`
	ReplyAddress string         `json:"reply_address,omitempty" jsonschema:"address to use when replying"`
	Attachments  []Attachment   `json:"attachments,omitempty" jsonschema:"list of attachments"`
}

// Attachment represents email attachment metadata.
type Attachment struct {
	ID       string `json:"id" jsonschema:"attachment ID"`
	Filename string `json:"filename" jsonschema:"original filename"`
	MimeType string `json:"mime_type" jsonschema:"MIME type"`
}

type getMessagesSvc interface {
	Message(ctx context.Context, msgID string) (mimecodec.EmailRecord, error)
}

// NewGetMessages creates a new GetMessages tool.
func NewGetMessages(svc getMessagesSvc) *GetMessages {
	return &GetMessages{
		svc: svc,
	}
}

// GetMessages retrieves decoded messages.
type GetMessages struct {
	svc getMessagesSvc
}

// GetMessages retrieves complete messages by their IDs.
func (t *GetMessages) GetMessages(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetMessagesRequest,
) (*mcp.CallToolResult, GetMessagesResponse, error) {
	messages := make([]MessageContent, 0, len(input.MessageIDs))

	for _, msgID := range input.MessageIDs {
		rec, err := t.svc.Message(ctx, msgID)
		if err != nil {
			return nil, GetMessagesResponse{}, fmt.Errorf("get message %s failed: %w", msgID, err)
		}

		messages = append(messages, contentFromRecord(rec))
	}

	return nil, GetMessagesResponse{
		Messages: messages,
	}, nil
}

func contentFromRecord(rec mimecodec.EmailRecord) MessageContent {
	content := MessageContent{
		Summary:      summaryFromRecord(rec),
		BodyText:     rec.Body,
		ReplyAddress: rec.ReplyAddress(),
	}

	for _, a := range rec.Attachments {
		content.Attachments = append(content.Attachments, Attachment{
			ID:       a.AttachmentID,
			Filename: a.Name,
			MimeType: a.MimeType,
		})
	}

	return content
}
