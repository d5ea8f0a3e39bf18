package tool

import (
	"github.com/hal9000y/gmail-crm/internal/mimecodec"
)

// EmailAddress represents an email address with optional display name.
type EmailAddress struct {
	Name  string `json:"name,omitempty" jsonschema:"the display name"`
	Email string `json:"email" jsonschema:"the email address"`
}

// MessageSummary contains essential message metadata.
type MessageSummary struct {
	ID             string         `json:"id" jsonschema:"message ID"`
	ThreadID       string         `json:"thread_id" jsonschema:"thread ID"`
	Timestamp      string         `json:"timestamp" jsonschema:"message timestamp"`
	From           EmailAddress   `json:"from" jsonschema:"sender information"`
	To             []EmailAddress `json:"to,omitempty" jsonschema:"recipients"`
	Subject        string         `json:"subject" jsonschema:"email subject"`
	Snippet        string         `json:"snippet" jsonschema:"message preview"`
	Unread         bool           `json:"unread,omitempty" jsonschema:"message is unread"`
	HasAttachments bool           `json:"has_attachments,omitempty" jsonschema:"message has attachments"`
}

func summaryFromRecord(rec mimecodec.EmailRecord) MessageSummary {
	return MessageSummary{
		ID:             rec.ID,
		ThreadID:       rec.ThreadID,
		Timestamp:      rec.Date,
		From:           toEmailAddress(mimecodec.ParseAddress(rec.From)),
		To:             toEmailAddresses(mimecodec.ParseAddressList(rec.To)),
		Subject:        rec.Subject,
		Snippet:        rec.Snippet,
		Unread:         rec.Unread(),
		HasAttachments: rec.HasAttachments(),
	}
}

func toEmailAddress(a mimecodec.Address) EmailAddress {
	return EmailAddress{Name: a.Name, Email: a.Email}
}

func toEmailAddresses(as []mimecodec.Address) []EmailAddress {
	if len(as) == 0 {
		return nil
	}

	result := make([]EmailAddress, 0, len(as))
	for _, a := range as {
		result = append(result, toEmailAddress(a))
	}

	return result
}
