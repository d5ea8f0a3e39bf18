package mimecodec

import (
	"strings"

	"google.golang.org/api/gmail/v1"
)

// Header names read from the top-level message part.
const (
	HeaderSubject = "Subject"
	HeaderFrom    = "From"
	HeaderTo      = "To"
	HeaderDate    = "Date"
)

// HeaderValue returns the value of the first header matching name
// case-insensitively. Duplicates are not merged.
func HeaderValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h != nil && strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}

	return ""
}
