// Package mimecodec converts Gmail message part trees into flat email records
// and builds raw multipart messages ready for the Gmail send endpoint.
package mimecodec

import (
	"errors"
	"strings"

	"google.golang.org/api/gmail/v1"
)

const (
	// NoSubject is reported when a message carries no Subject header.
	NoSubject = "(no subject)"

	// LabelUnread marks messages that have not been opened yet.
	LabelUnread = "UNREAD"

	// MaxPartDepth bounds the nesting of a part tree. Deeper trees report no
	// attachments and only the top-level body, if any.
	MaxPartDepth = 64

	maxParts = 10000
)

var errTreeTooLarge = errors.New("part tree exceeds traversal limits")

// EmailRecord is the normalized view of a provider message.
type EmailRecord struct {
	ID          string
	ThreadID    string
	Subject     string
	From        string
	To          string
	Date        string
	Body        string
	Attachments []Attachment
	Labels      []string
	Snippet     string
}

// Attachment references out-of-band attachment content of a message.
// The bytes are fetched separately by AttachmentID.
type Attachment struct {
	Name         string
	AttachmentID string
	MimeType     string
	MessageID    string
}

// Unread reports whether the message carries the unread label.
func (r EmailRecord) Unread() bool {
	for _, l := range r.Labels {
		if l == LabelUnread {
			return true
		}
	}

	return false
}

// HasAttachments reports whether any attachment was found.
func (r EmailRecord) HasAttachments() bool {
	return len(r.Attachments) > 0
}

// ReplyAddress returns the bare sender address, suitable for the To field of a reply.
func (r EmailRecord) ReplyAddress() string {
	if addr := ParseAddress(r.From); addr.Email != "" {
		return addr.Email
	}

	return r.From
}

// Decode builds an EmailRecord from a full-format Gmail message.
// Undecodable body data never fails the call: the body degrades to empty text.
func Decode(msg *gmail.Message) EmailRecord {
	if msg == nil {
		return EmailRecord{Subject: NoSubject}
	}

	rec := EmailRecord{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Subject:  NoSubject,
	}
	if len(msg.LabelIds) > 0 {
		rec.Labels = append([]string(nil), msg.LabelIds...)
	}

	payload := msg.Payload
	if payload == nil {
		return rec
	}

	if s := HeaderValue(payload.Headers, HeaderSubject); s != "" {
		rec.Subject = s
	}
	rec.From = HeaderValue(payload.Headers, HeaderFrom)
	rec.To = HeaderValue(payload.Headers, HeaderTo)
	rec.Date = HeaderValue(payload.Headers, HeaderDate)

	inline := payload.Body != nil && payload.Body.Data != ""
	if inline {
		rec.Body, _ = DecodeBase64URLString(payload.Body.Data)
	}

	attachments, err := collectAttachments(payload, msg.Id)
	if err != nil {
		return rec
	}
	rec.Attachments = attachments
	if !inline {
		rec.Body = findBody(payload)
	}

	return rec
}

func collectAttachments(root *gmail.MessagePart, msgID string) ([]Attachment, error) {
	var attachments []Attachment

	err := walkParts(root, func(p *gmail.MessagePart) bool {
		if p.Filename != "" && p.Body != nil && p.Body.AttachmentId != "" {
			attachments = append(attachments, Attachment{
				Name:         p.Filename,
				AttachmentID: p.Body.AttachmentId,
				MimeType:     p.MimeType,
				MessageID:    msgID,
			})
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	return attachments, nil
}

// findBody returns the first non-empty text part in pre-order.
func findBody(root *gmail.MessagePart) string {
	var body string
	_ = walkParts(root, func(p *gmail.MessagePart) bool {
		if !isTextPart(p.MimeType) || p.Body == nil || p.Body.Data == "" {
			return true
		}
		text, err := DecodeBase64URLString(p.Body.Data)
		if err != nil || text == "" {
			return true
		}
		body = text
		return false
	})

	return body
}

func isTextPart(mimeType string) bool {
	return strings.EqualFold(mimeType, "text/plain") || strings.EqualFold(mimeType, "text/html")
}

type partFrame struct {
	part  *gmail.MessagePart
	depth int
}

// walkParts visits the tree in depth-first pre-order, children left to right,
// until visit returns false.
func walkParts(root *gmail.MessagePart, visit func(*gmail.MessagePart) bool) error {
	stack := []partFrame{{part: root}}
	visited := 0

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.part == nil {
			continue
		}
		if f.depth > MaxPartDepth || visited >= maxParts {
			return errTreeTooLarge
		}
		visited++

		if !visit(f.part) {
			return nil
		}

		for i := len(f.part.Parts) - 1; i >= 0; i-- {
			stack = append(stack, partFrame{part: f.part.Parts[i], depth: f.depth + 1})
		}
	}

	return nil
}
