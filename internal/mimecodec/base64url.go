package mimecodec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned when decoded text data is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("decoded data is not valid UTF-8")

var toStdAlphabet = strings.NewReplacer("-", "+", "_", "/")

// DecodeBase64URL decodes provider body data. Padded and unpadded input is
// accepted, as are line breaks inside the data. Malformed input yields nil.
func DecodeBase64URL(s string) []byte {
	b, err := decodeBase64URL(s)
	if err != nil {
		return nil
	}

	return b
}

// DecodeBase64URLString decodes provider body data into UTF-8 text.
func DecodeBase64URLString(s string) (string, error) {
	b, err := decodeBase64URL(s)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}

	return string(b), nil
}

// EncodeBase64URL encodes b with the URL-safe alphabet and no padding.
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeBase64URL(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', '\t', ' ':
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(toStdAlphabet.Replace(s), "=")

	b, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64.RawStdEncoding.DecodeString failed: %w", err)
	}

	return b, nil
}
