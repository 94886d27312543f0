package dmr

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase64_EncodeKnownVectors(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"f", "Zg=="},
		{"fo", "Zm8="},
		{"foo", "Zm9v"},
		{"foob", "Zm9vYg=="},
		{"fooba", "Zm9vYmE="},
		{"foobar", "Zm9vYmFy"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewBase64Encoder(&buf)
			_, err := enc.Write([]byte(tt.in))
			require.NoError(t, err)
			require.NoError(t, enc.Close())
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestBase64_LineWrap(t *testing.T) {
	// 60 input bytes encode to 80 characters: one full 76-char line, a
	// CRLF, then the remainder.
	var buf bytes.Buffer
	enc := NewBase64Encoder(&buf)
	_, err := enc.Write(bytes.Repeat([]byte{0xAB}, 60))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	out := buf.String()
	lines := strings.Split(out, "\r\n")
	require.Len(t, lines, 2)
	assert.Len(t, lines[0], 76)
	assert.Len(t, lines[1], 4)
}

func TestBase64_DecodeRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x00},
		{0xFF, 0x00, 0x7F},
		bytes.Repeat([]byte{0x5A, 0xA5, 0x3C}, 100),
	}
	for _, p := range payloads {
		var buf bytes.Buffer
		enc := NewBase64Encoder(&buf)
		_, err := enc.Write(p)
		require.NoError(t, err)
		require.NoError(t, enc.Close())

		got, err := io.ReadAll(NewBase64Decoder(&buf))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestBase64_DecodePermissive(t *testing.T) {
	// Whitespace and padding are ignored wherever they appear.
	got, err := io.ReadAll(NewBase64Decoder(strings.NewReader("Zm 9v\r\nYm\tFy==")))
	require.NoError(t, err)
	assert.Equal(t, []byte("foobar"), got)

	// Unpadded input decodes too.
	got, err = io.ReadAll(NewBase64Decoder(strings.NewReader("Zm8")))
	require.NoError(t, err)
	assert.Equal(t, []byte("fo"), got)
}

func TestBase64_DecodeIncorrectData(t *testing.T) {
	_, err := io.ReadAll(NewBase64Decoder(strings.NewReader("Zm9*")))
	assert.ErrorIs(t, err, ErrIncorrectData)

	// A single trailing character cannot carry a full byte.
	_, err = io.ReadAll(NewBase64Decoder(strings.NewReader("Z")))
	assert.ErrorIs(t, err, ErrIncorrectData)
}

func TestBase64_NodeEnvelope(t *testing.T) {
	for name, node := range sampleNodes() {
		t.Run(name, func(t *testing.T) {
			encoded, err := node.ToBase64String()
			require.NoError(t, err)

			decoded, err := FromBase64String(encoded)
			require.NoError(t, err)
			assert.True(t, node.Equal(decoded))
		})
	}
}

func TestBase64_EmptyObjectEnvelope(t *testing.T) {
	node := New().SetEmptyObject()
	encoded, err := node.ToBase64String()
	require.NoError(t, err)
	// 'o' plus a four-byte zero count encodes to eight characters.
	assert.Equal(t, "bwAAAAA=", encoded)

	decoded, err := FromBase64String(encoded)
	require.NoError(t, err)
	assert.True(t, decoded.Equal(node))
	assert.Equal(t, 0, decoded.Len())
}
