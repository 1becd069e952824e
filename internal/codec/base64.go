// Package codec converts raw bytes to and from the text form used wherever
// cryptographic output has to cross a text-only boundary (local store, JSON,
// wire payloads).
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrDecode is returned for malformed Base64 input.
var ErrDecode = errors.New("malformed base64 input")

// BytesToBase64 encodes b as standard, padded Base64.
func BytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64ToBytes decodes standard, padded Base64 produced by BytesToBase64.
// Non-alphabet characters and invalid lengths yield ErrDecode.
func Base64ToBytes(text string) ([]byte, error) {
	b, err := base64.StdEncoding.Strict().DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return b, nil
}
