package cryptox

import "errors"

var (
	// ErrKeyFormat is returned by ImportKey for malformed serialized key material.
	ErrKeyFormat = errors.New("malformed serialized key")

	// ErrDecryption covers a wrong key, corrupted ciphertext and tampered data.
	// GCM's tag check makes these indistinguishable and callers must not try
	// to tell them apart.
	ErrDecryption = errors.New("invalid password or corrupted data")

	// ErrKeyNotExtractable is returned when exporting a key derived in strict mode.
	ErrKeyNotExtractable = errors.New("key is not extractable")

	// ErrKeyUsage is returned when a key is used for an operation it was not created for.
	ErrKeyUsage = errors.New("key usage not permitted")

	// ErrInvalidKeySize is returned when key material is not 32 bytes.
	ErrInvalidKeySize = errors.New("invalid key size")
)
