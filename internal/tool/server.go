package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mailboxSvc interface {
	listInboxSvc
	getMessagesSvc
	getAttachmentSvc
	sendMessageSvc
}

// NewServer creates an MCP server with mailbox tools.
func NewServer(svc mailboxSvc) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "gmail-crm", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_inbox",
		Description: "List the latest inbox messages with sender, subject, unread state and attachment marker",
	}, NewListInbox(svc).ListInbox)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_messages",
		Description: "Get decoded body text and attachment references for specified message IDs",
	}, NewGetMessages(svc).GetMessages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_attachment",
		Description: "Download attachment content; text files are returned as text, other files as base64",
	}, NewGetAttachment(svc).GetAttachment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_message",
		Description: "Send a plain text email with optional file attachments read from the attachment directory",
	}, NewSendMessage(svc).SendMessage)

	return server
}
