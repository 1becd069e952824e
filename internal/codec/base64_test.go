package codec

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x00},
		{0xff},
		{0x01, 0x02},
		[]byte("hello, wallet"),
	}
	for n := 0; n < 64; n++ {
		b := make([]byte, n)
		_, _ = rand.Read(b)
		cases = append(cases, b)
	}

	for _, c := range cases {
		got, err := Base64ToBytes(BytesToBase64(c))
		require.NoError(t, err)
		if !bytes.Equal(got, c) {
			t.Fatalf("round trip mismatch: want %x, got %x", c, got)
		}
	}
}

func TestBytesToBase64_Padded(t *testing.T) {
	assert.Equal(t, "", BytesToBase64(nil))
	assert.Equal(t, "AA==", BytesToBase64([]byte{0}))
	assert.Equal(t, "AAE=", BytesToBase64([]byte{0, 1}))
	assert.Equal(t, "AAEC", BytesToBase64([]byte{0, 1, 2}))
}

func TestBase64ToBytes_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bad characters", "ab$d"},
		{"invalid length", "abc"},
		{"missing padding", "AA"},
		{"url alphabet", "-_-_"},
		{"whitespace", "AA ="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Base64ToBytes(tt.in)
			require.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestBase64ToBytes_Empty(t *testing.T) {
	b, err := Base64ToBytes("")
	require.NoError(t, err)
	assert.Empty(t, b)
}
