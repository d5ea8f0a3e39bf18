package tool_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-crm/internal/mimecodec"
	"github.com/hal9000y/gmail-crm/internal/tool"
)

func newGetMessagesMailbox() *mailboxMock {
	return &mailboxMock{
		MessageFunc: func(_ context.Context, msgID string) (mimecodec.EmailRecord, error) {
			if msgID == "error-msg" {
				return mimecodec.EmailRecord{}, fmt.Errorf("message not found: %s", msgID)
			}
			return mimecodec.EmailRecord{
				ID:       msgID,
				ThreadID: "t-" + msgID,
				Snippet:  "test snippet " + msgID,
				Subject:  "Test subject " + msgID,
				From:     fmt.Sprintf("Sender <%s@example.com>", msgID),
				To:       fmt.Sprintf("Receiver <receiver-%s@example.com>", msgID),
				Date:     "2025-01-01 10:00:00",
				Body:     "Test plain text body for " + msgID,
				Attachments: []mimecodec.Attachment{
					{Name: "report.pdf", AttachmentID: "att-" + msgID, MimeType: "application/pdf", MessageID: msgID},
				},
			}, nil
		},
	}
}

func TestGetMessages(t *testing.T) {
	cases := []struct {
		name        string
		req         tool.GetMessagesRequest
		expected    tool.GetMessagesResponse
		expectedErr error
	}{
		{
			name: "success with multiple messages",
			req: tool.GetMessagesRequest{
				MessageIDs: []string{"msg-001", "msg-002"},
			},
			expected: tool.GetMessagesResponse{
				Messages: []tool.MessageContent{
					{
						Summary: tool.MessageSummary{
							ID:             "msg-001",
							ThreadID:       "t-msg-001",
							Timestamp:      "2025-01-01 10:00:00",
							From:           tool.EmailAddress{Name: "Sender", Email: "msg-001@example.com"},
							To:             []tool.EmailAddress{{Name: "Receiver", Email: "receiver-msg-001@example.com"}},
							Subject:        "Test subject msg-001",
							Snippet:        "test snippet msg-001",
							HasAttachments: true,
						},
						BodyText:     "Test plain text body for msg-001",
						ReplyAddress: "msg-001@example.com",
						Attachments:  []tool.Attachment{{ID: "att-msg-001", Filename: "report.pdf", MimeType: "application/pdf"}},
					},
					{
						Summary: tool.MessageSummary{
							ID:             "msg-002",
							ThreadID:       "t-msg-002",
							Timestamp:      "2025-01-01 10:00:00",
							From:           tool.EmailAddress{Name: "Sender", Email: "msg-002@example.com"},
							To:             []tool.EmailAddress{{Name: "Receiver", Email: "receiver-msg-002@example.com"}},
							Subject:        "Test subject msg-002",
							Snippet:        "test snippet msg-002",
							HasAttachments: true,
						},
						BodyText:     "Test plain text body for msg-002",
						ReplyAddress: "msg-002@example.com",
						Attachments:  []tool.Attachment{{ID: "att-msg-002", Filename: "report.pdf", MimeType: "application/pdf"}},
					},
				},
			},
		},
		{
			name: "error case",
			req: tool.GetMessagesRequest{
				MessageIDs: []string{"error-msg"},
			},
			expectedErr: fmt.Errorf("message not found: error-msg"),
		},
	}

	session := connectClient(t, newGetMessagesMailbox())
	ctx := context.Background()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "get_messages",
				Arguments: tc.req,
			})
			require.NoError(t, err)
			require.NotNil(t, result)
			require.NotEmpty(t, result.Content)

			if tc.expectedErr != nil {
				require.True(t, result.IsError, "Result should indicate error")
				errorText := result.Content[0].(*mcp.TextContent).Text
				assert.Contains(t, errorText, tc.expectedErr.Error())
				return
			}

			var response tool.GetMessagesResponse
			require.NoError(t,
				json.Unmarshal(
					[]byte(result.Content[0].(*mcp.TextContent).Text),
					&response,
				),
			)
			assert.Equal(t, tc.expected, response)
		})
	}
}
