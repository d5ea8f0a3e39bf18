package mimecodec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-crm/internal/mimecodec"
)

func TestDecodeBase64URL(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected []byte
	}{
		{name: "unpadded", input: "SGVsbG8", expected: []byte("Hello")},
		{name: "padded", input: "SGVsbG8=", expected: []byte("Hello")},
		{name: "url alphabet", input: "-_8", expected: []byte{0xfb, 0xff}},
		{name: "std alphabet", input: "+/8=", expected: []byte{0xfb, 0xff}},
		{name: "line breaks", input: "SGVs\r\nbG8", expected: []byte("Hello")},
		{name: "empty", input: "", expected: []byte{}},
		{name: "illegal character", input: "SGV*bG8", expected: nil},
		{name: "impossible length", input: "SGVsb", expected: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tc.expected, mimecodec.DecodeBase64URL(tc.input))
			})
		})
	}
}

func TestDecodeBase64URLString(t *testing.T) {
	text, err := mimecodec.DecodeBase64URLString(mimecodec.EncodeBase64URL([]byte("Grüße ✓")))
	require.NoError(t, err)
	assert.Equal(t, "Grüße ✓", text)

	text, err = mimecodec.DecodeBase64URLString(mimecodec.EncodeBase64URL([]byte{0xff, 0xfe, 0xfd}))
	require.ErrorIs(t, err, mimecodec.ErrInvalidUTF8)
	assert.Empty(t, text)

	text, err = mimecodec.DecodeBase64URLString("%%%")
	require.Error(t, err)
	assert.Empty(t, text)
}

func TestEncodeBase64URL(t *testing.T) {
	encoded := mimecodec.EncodeBase64URL([]byte{0xfb, 0xff, 0xfe, 'a'})
	assert.Equal(t, "-__-YQ", encoded)
	assert.NotContains(t, encoded, "=")

	assert.Equal(t, []byte("round trip?"), mimecodec.DecodeBase64URL(mimecodec.EncodeBase64URL([]byte("round trip?"))))
}
