package tool

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetAttachmentRequest identifies an attachment returned by get_messages.
type GetAttachmentRequest struct {
	MessageID    string `json:"message_id" jsonschema:"message ID containing the attachment"`
	AttachmentID string `json:"attachment_id" jsonschema:"attachment ID"`
	Filename     string `json:"filename,omitempty" jsonschema:"original filename, used to detect text files"`
	MimeType     string `json:"mime_type,omitempty" jsonschema:"MIME type, used to detect text files"`
}

// GetAttachmentResponse contains attachment content.
type GetAttachmentResponse struct {
	Filename      string `json:"filename,omitempty" jsonschema:"original filename"`
	MimeType      string `json:"mime_type,omitempty" jsonschema:"MIME type"`
	Size          int    `json:"size" jsonschema:"size in bytes"`
	Text          string `json:"text,omitempty" jsonschema:"content of text attachments"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"base64 content of binary attachments"`
}

type getAttachmentSvc interface {
	Attachment(ctx context.Context, msgID, attachmentID string) ([]byte, error)
}

// NewGetAttachment creates a new GetAttachment tool.
func NewGetAttachment(svc getAttachmentSvc) *GetAttachment {
	return &GetAttachment{
		svc: svc,
	}
}

// GetAttachment downloads attachment content.
type GetAttachment struct {
	svc getAttachmentSvc
}

// GetAttachment fetches one attachment by message and attachment ID.
func (t *GetAttachment) GetAttachment(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetAttachmentRequest,
) (*mcp.CallToolResult, GetAttachmentResponse, error) {
	if input.MessageID == "" || input.AttachmentID == "" {
		return nil, GetAttachmentResponse{}, fmt.Errorf("message_id and attachment_id are required")
	}

	data, err := t.svc.Attachment(ctx, input.MessageID, input.AttachmentID)
	if err != nil {
		return nil, GetAttachmentResponse{}, fmt.Errorf("svc.Attachment failed: %w", err)
	}

	resp := GetAttachmentResponse{
		Filename: input.Filename,
		MimeType: input.MimeType,
		Size:     len(data),
	}
	if isTextAttachment(input.MimeType, input.Filename) && utf8.Valid(data) {
		resp.Text = string(data)
	} else {
		resp.ContentBase64 = base64.StdEncoding.EncodeToString(data)
	}

	return nil, resp, nil
}

func isTextAttachment(mimeType, filename string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".csv":
		return true
	default:
		return false
	}
}
