package mimecodec

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates missing or malformed compose fields.
	ErrInvalidRequest = errors.New("invalid compose request")

	// ErrAttachmentRead indicates attachment bytes could not be obtained.
	ErrAttachmentRead = errors.New("attachment read failed")
)

// AttachmentReadError reports which attachment could not be read.
type AttachmentReadError struct {
	Filename string
	Err      error
}

func (e *AttachmentReadError) Error() string {
	return fmt.Sprintf("read attachment %q: %v", e.Filename, e.Err)
}

func (e *AttachmentReadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAttachmentRead) hold for any AttachmentReadError.
func (e *AttachmentReadError) Is(target error) bool {
	return target == ErrAttachmentRead
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
