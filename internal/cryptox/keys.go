// Package cryptox holds the client-side cryptography: password based key
// derivation, key (de)serialization and authenticated encryption of the
// user data document.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/dmitrijs2005/cardkeeper/internal/codec"
	"github.com/go-jose/go-jose/v4"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the size of a freshly generated account salt, in bytes.
	SaltSize = 16
	// KeySize is the AES-256 key size, in bytes.
	KeySize = 32
	// DefaultIterations is the PBKDF2 iteration count.
	DefaultIterations = 100_000

	jwkAlgorithm = "A256GCM"
	jwkUse       = "enc"
)

// RandomSource supplies random bytes. crypto/rand.Reader in production,
// a deterministic reader in tests.
type RandomSource interface {
	Read(p []byte) (n int, err error)
}

// Usage is an operation a Key may be used for.
type Usage string

const (
	UsageEncrypt Usage = "encrypt"
	UsageDecrypt Usage = "decrypt"
)

// Key is an AES-256-GCM key.
type Key struct {
	material    []byte
	extractable bool
	usages      []Usage
}

// NewKey wraps 32 bytes of key material. The slice is copied.
func NewKey(material []byte, extractable bool) (Key, error) {
	if len(material) != KeySize {
		return Key{}, ErrInvalidKeySize
	}
	return Key{
		material:    slices.Clone(material),
		extractable: extractable,
		usages:      []Usage{UsageEncrypt, UsageDecrypt},
	}, nil
}

// Material returns a copy of the raw key bytes.
func (k Key) Material() []byte { return slices.Clone(k.material) }

func (k Key) Extractable() bool { return k.extractable }

func (k Key) Usages() []Usage { return slices.Clone(k.usages) }

// Can reports whether the key may be used for u.
func (k Key) Can(u Usage) bool { return slices.Contains(k.usages, u) }

// IsZero reports whether k holds no key material.
func (k Key) IsZero() bool { return len(k.material) == 0 }

// Wipe zeroes the key material held by k.
func (k Key) Wipe() {
	for i := range k.material {
		k.material[i] = 0
	}
}

// KeyManager derives, generates and (de)serializes keys.
type KeyManager struct {
	rnd         RandomSource
	iterations  int
	extractable bool
}

type Option func(*KeyManager)

// WithIterations overrides the PBKDF2 iteration count. Intended for tests.
func WithIterations(n int) Option {
	return func(m *KeyManager) {
		if n > 0 {
			m.iterations = n
		}
	}
}

// WithExtractable controls whether derived keys may be exported. Exportable
// keys are what allows a session to survive a restart without re-entering
// the password; strict mode turns that off.
func WithExtractable(extractable bool) Option {
	return func(m *KeyManager) { m.extractable = extractable }
}

// NewKeyManager returns a KeyManager reading randomness from rnd
// (crypto/rand when nil). Derived keys are extractable by default.
func NewKeyManager(rnd RandomSource, opts ...Option) *KeyManager {
	if rnd == nil {
		rnd = rand.Reader
	}
	m := &KeyManager{rnd: rnd, iterations: DefaultIterations, extractable: true}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Iterations returns the configured PBKDF2 iteration count.
func (m *KeyManager) Iterations() int { return m.iterations }

// GenerateSalt returns SaltSize random bytes, Base64 encoded.
func (m *KeyManager) GenerateSalt() (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(m.rnd, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return codec.BytesToBase64(salt), nil
}

// DeriveKey runs PBKDF2-HMAC-SHA256 over (password, salt). The same inputs
// always produce the same key. The only failure is a malformed salt.
func (m *KeyManager) DeriveKey(password []byte, saltBase64 string) (Key, error) {
	salt, err := codec.Base64ToBytes(saltBase64)
	if err != nil {
		return Key{}, fmt.Errorf("salt: %w", err)
	}

	material := pbkdf2.Key(password, salt, m.iterations, KeySize, sha256.New)
	defer wipe(material)

	return NewKey(material, m.extractable)
}

// ExportKey serializes k as a JWK ("kty":"oct").
func (m *KeyManager) ExportKey(k Key) (string, error) {
	if !k.extractable {
		return "", ErrKeyNotExtractable
	}
	if len(k.material) != KeySize {
		return "", ErrInvalidKeySize
	}

	jwk := jose.JSONWebKey{Key: k.Material(), Algorithm: jwkAlgorithm, Use: jwkUse}
	b, err := json.Marshal(jwk)
	if err != nil {
		return "", fmt.Errorf("failed to serialize key: %w", err)
	}
	return string(b), nil
}

// ImportKey reconstructs a key produced by ExportKey, re-attaching the
// encrypt and decrypt usages.
func (m *KeyManager) ImportKey(serialized string) (Key, error) {
	var jwk jose.JSONWebKey
	if err := json.Unmarshal([]byte(serialized), &jwk); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}

	material, ok := jwk.Key.([]byte)
	if !ok {
		return Key{}, fmt.Errorf("%w: not a symmetric key", ErrKeyFormat)
	}
	if jwk.Algorithm != "" && jwk.Algorithm != jwkAlgorithm {
		return Key{}, fmt.Errorf("%w: unexpected algorithm %q", ErrKeyFormat, jwk.Algorithm)
	}

	k, err := NewKey(material, true)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}
	return k, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
