package mimecodec

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

const (
	boundaryPrefix     = "boundary_crm_"
	defaultContentType = "application/octet-stream"
	base64LineLen      = 76
	crlf               = "\r\n"
)

// ComposeRequest is a user-authored message.
type ComposeRequest struct {
	To          string
	Subject     string
	Body        string
	Attachments []OutgoingAttachment
}

// OutgoingAttachment is an attachment whose bytes are already in memory.
type OutgoingAttachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// EncodedMessage is a raw RFC 2822 message in unpadded base64url form,
// ready to be used as the raw field of a send call.
type EncodedMessage string

func (m EncodedMessage) String() string {
	return string(m)
}

// Raw returns the decoded envelope.
func (m EncodedMessage) Raw() []byte {
	return DecodeBase64URL(string(m))
}

// Validate checks the fields required to build a message.
func (r ComposeRequest) Validate() error {
	if strings.TrimSpace(r.To) == "" {
		return invalidRequest("recipient is empty")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return invalidRequest("subject is empty")
	}
	if strings.ContainsAny(r.To, crlf) {
		return invalidRequest("recipient contains a line break")
	}
	if strings.ContainsAny(r.Subject, crlf) {
		return invalidRequest("subject contains a line break")
	}
	for i, a := range r.Attachments {
		if strings.ContainsAny(a.Filename, crlf) || strings.ContainsAny(a.MimeType, crlf) {
			return invalidRequest("attachment %d contains a line break in its headers", i)
		}
	}

	return nil
}

// ReadAttachment reads r fully into an attachment. Failures are reported as
// *AttachmentReadError.
func ReadAttachment(r io.Reader, filename, mimeType string) (OutgoingAttachment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return OutgoingAttachment{}, &AttachmentReadError{Filename: filename, Err: err}
	}

	return OutgoingAttachment{
		Filename: filename,
		MimeType: mimeType,
		Data:     data,
	}, nil
}

// Encoder builds multipart/mixed messages.
type Encoder struct {
	boundary func() string
}

// NewEncoder creates an Encoder with random boundaries.
func NewEncoder() *Encoder {
	return &Encoder{boundary: randomBoundary}
}

// NewEncoderWithBoundary creates an Encoder that takes boundaries from fn.
func NewEncoderWithBoundary(fn func() string) *Encoder {
	return &Encoder{boundary: fn}
}

// Encode builds the raw message and wraps it in base64url.
func Encode(req ComposeRequest) (EncodedMessage, error) {
	return NewEncoder().Encode(req)
}

// Encode validates req, builds the raw message and wraps it in base64url.
func (e *Encoder) Encode(req ComposeRequest) (EncodedMessage, error) {
	raw, err := e.Build(req)
	if err != nil {
		return "", err
	}

	return EncodedMessage(EncodeBase64URL(raw)), nil
}

// Build validates req and returns the raw CRLF-terminated message.
func (e *Encoder) Build(req ComposeRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	boundary := e.boundary()

	var b strings.Builder
	writeHeader(&b, "To", req.To)
	writeHeader(&b, "Subject", req.Subject)
	writeHeader(&b, "MIME-Version", "1.0")
	writeHeader(&b, "Content-Type", "multipart/mixed; boundary=\""+boundary+"\"")
	b.WriteString(crlf)

	b.WriteString("--" + boundary + crlf)
	writeHeader(&b, "Content-Type", "text/plain; charset=UTF-8")
	b.WriteString(crlf)
	b.WriteString(req.Body)
	b.WriteString(crlf)

	for _, a := range req.Attachments {
		contentType := a.MimeType
		if contentType == "" {
			contentType = defaultContentType
		}

		b.WriteString("--" + boundary + crlf)
		writeHeader(&b, "Content-Type", contentType)
		writeHeader(&b, "Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", quoteFilename(a.Filename)))
		writeHeader(&b, "Content-Transfer-Encoding", "base64")
		b.WriteString(crlf)
		writeBase64Lines(&b, a.Data)
		b.WriteString(crlf)
	}

	b.WriteString("--" + boundary + "--")

	return []byte(b.String()), nil
}

func writeHeader(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString(crlf)
}

func writeBase64Lines(b *strings.Builder, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > base64LineLen {
		b.WriteString(encoded[:base64LineLen])
		b.WriteString(crlf)
		encoded = encoded[base64LineLen:]
	}
	b.WriteString(encoded)
}

func quoteFilename(name string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name)
}

func randomBoundary() string {
	return boundaryPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
