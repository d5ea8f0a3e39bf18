package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"

	"github.com/hal9000y/gmail-crm/internal/mailbox"
	"github.com/hal9000y/gmail-crm/internal/mimecodec"
	"github.com/hal9000y/gmail-crm/internal/tool"
)

func TestSendMessage(t *testing.T) {
	var drafts []mailbox.Draft
	session := connectClient(t, &mailboxMock{
		SendFunc: func(_ context.Context, d mailbox.Draft) (*gmail.Message, error) {
			drafts = append(drafts, d)
			if err := (mimecodec.ComposeRequest{To: d.To, Subject: d.Subject}).Validate(); err != nil {
				return nil, err
			}
			if len(d.Files) > 0 && d.Files[0] == "/missing.pdf" {
				return nil, &mimecodec.AttachmentReadError{Filename: "missing.pdf", Err: assert.AnError}
			}
			return &gmail.Message{Id: "sent-1", ThreadId: "thread-1"}, nil
		},
	})
	ctx := context.Background()

	cases := []struct {
		name        string
		req         tool.SendMessageRequest
		expected    tool.SendMessageResponse
		expectedErr string
	}{
		{
			name: "success",
			req: tool.SendMessageRequest{
				To:              "lead@example.com",
				Subject:         "Proposal",
				Body:            "Hello",
				AttachmentPaths: []string{"/tmp/proposal.pdf"},
			},
			expected: tool.SendMessageResponse{ID: "sent-1", ThreadID: "thread-1"},
		},
		{
			name:        "invalid request",
			req:         tool.SendMessageRequest{Subject: "Proposal"},
			expectedErr: "invalid compose request: recipient is empty",
		},
		{
			name:        "attachment read error",
			req:         tool.SendMessageRequest{To: "a@b.com", Subject: "Hi", AttachmentPaths: []string{"/missing.pdf"}},
			expectedErr: `read attachment "missing.pdf"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "send_message",
				Arguments: tc.req,
			})
			require.NoError(t, err)
			require.NotNil(t, result)
			require.NotEmpty(t, result.Content)

			if tc.expectedErr != "" {
				require.True(t, result.IsError, "Result should indicate error")
				assert.Contains(t, result.Content[0].(*mcp.TextContent).Text, tc.expectedErr)
				return
			}

			var response tool.SendMessageResponse
			require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*mcp.TextContent).Text), &response))
			assert.Equal(t, tc.expected, response)
		})
	}

	require.NotEmpty(t, drafts)
	assert.Equal(t, mailbox.Draft{
		To:      "lead@example.com",
		Subject: "Proposal",
		Body:    "Hello",
		Files:   []string{"/tmp/proposal.pdf"},
	}, drafts[0])
}
