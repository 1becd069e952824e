package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/cardkeeper/internal/codec"
)

// IVSize is the AES-GCM nonce size, in bytes.
const IVSize = 12

// EncryptedPayload is one AES-GCM ciphertext of the whole user data document.
// Both fields are Base64.
type EncryptedPayload struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
}

// Engine encrypts and decrypts JSON documents with AES-256-GCM.
// It is stateless apart from its random source and safe for concurrent use
// when the random source is.
type Engine struct {
	rnd RandomSource
}

// NewEngine returns an Engine drawing IVs from rnd (crypto/rand when nil).
func NewEngine(rnd RandomSource) *Engine {
	if rnd == nil {
		rnd = rand.Reader
	}
	return &Engine{rnd: rnd}
}

// Encrypt serializes v to JSON and seals it under key with a fresh random IV.
// Every call draws a new IV, including retries of a failed save.
func (e *Engine) Encrypt(v any, key Key) (EncryptedPayload, error) {
	if !key.Can(UsageEncrypt) {
		return EncryptedPayload{}, ErrKeyUsage
	}

	plaintext, err := json.Marshal(v)
	if err != nil {
		return EncryptedPayload{}, fmt.Errorf("failed to serialize document: %w", err)
	}
	defer wipe(plaintext)

	aead, err := newGCM(key)
	if err != nil {
		return EncryptedPayload{}, err
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(e.rnd, iv); err != nil {
		return EncryptedPayload{}, fmt.Errorf("failed to generate iv: %w", err)
	}

	ciphertext := aead.Seal(nil, iv, plaintext, nil)

	return EncryptedPayload{
		IV:         codec.BytesToBase64(iv),
		Ciphertext: codec.BytesToBase64(ciphertext),
	}, nil
}

// Decrypt opens the Base64 ciphertext with key and unmarshals the JSON into v.
// Any decoding, authentication or parse failure is reported as ErrDecryption.
func (e *Engine) Decrypt(ivBase64, ciphertextBase64 string, key Key, v any) error {
	if !key.Can(UsageDecrypt) {
		return ErrKeyUsage
	}

	iv, err := codec.Base64ToBytes(ivBase64)
	if err != nil || len(iv) != IVSize {
		return ErrDecryption
	}
	ciphertext, err := codec.Base64ToBytes(ciphertextBase64)
	if err != nil {
		return ErrDecryption
	}

	aead, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return ErrDecryption
	}
	defer wipe(plaintext)

	if err := json.Unmarshal(plaintext, v); err != nil {
		return ErrDecryption
	}
	return nil
}

// DecryptPayload is Decrypt over an EncryptedPayload.
func (e *Engine) DecryptPayload(p EncryptedPayload, key Key, v any) error {
	return e.Decrypt(p.IV, p.Ciphertext, key, v)
}

func newGCM(key Key) (cipher.AEAD, error) {
	if len(key.material) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key.material)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}
