package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-crm/internal/mimecodec"
)

// ListInboxRequest has no parameters; the label and batch size are configured.
type ListInboxRequest struct{}

// ListInboxResponse contains the latest inbox messages.
type ListInboxResponse struct {
	Messages     []MessageSummary `json:"messages" jsonschema:"array of message summaries"`
	TotalResults int              `json:"total_results" jsonschema:"number of messages returned"`
	UnreadCount  int              `json:"unread_count" jsonschema:"number of unread messages"`
}

type listInboxSvc interface {
	Inbox(ctx context.Context) ([]mimecodec.EmailRecord, error)
}

// NewListInbox creates a new ListInbox tool.
func NewListInbox(svc listInboxSvc) *ListInbox {
	return &ListInbox{
		svc: svc,
	}
}

// ListInbox lists the latest inbox messages.
type ListInbox struct {
	svc listInboxSvc
}

// ListInbox fetches and summarizes the inbox.
func (t *ListInbox) ListInbox(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListInboxRequest,
) (*mcp.CallToolResult, ListInboxResponse, error) {
	records, err := t.svc.Inbox(ctx)
	if err != nil {
		return nil, ListInboxResponse{}, fmt.Errorf("svc.Inbox failed: %w", err)
	}

	resp := ListInboxResponse{
		Messages:     make([]MessageSummary, 0, len(records)),
		TotalResults: len(records),
	}
	for _, rec := range records {
		if rec.Unread() {
			resp.UnreadCount++
		}
		resp.Messages = append(resp.Messages, summaryFromRecord(rec))
	}

	return nil, resp, nil
}
