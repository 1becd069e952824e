package cryptox

import (
	"bytes"
	"testing"

	"github.com/dmitrijs2005/cardkeeper/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T, fill byte) Key {
	t.Helper()
	k, err := NewKey(bytes.Repeat([]byte{fill}, KeySize), true)
	require.NoError(t, err)
	return k
}

type wallet struct {
	Cards []struct {
		ID     string `json:"id"`
		Issuer string `json:"issuer"`
	} `json:"cards"`
	Settings map[string]any `json:"settings"`
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	e := NewEngine(nil)
	k := testKey(t, 1)

	docs := []any{
		map[string]any{"cards": []any{map[string]any{"id": "1", "issuer": "Chase"}}},
		map[string]any{},
		[]any{},
		"plain string",
		float64(42),
		true,
		nil,
	}

	for _, d := range docs {
		p, err := e.Encrypt(d, k)
		require.NoError(t, err)

		var out any
		require.NoError(t, e.Decrypt(p.IV, p.Ciphertext, k, &out))
		assert.Equal(t, d, out)
	}
}

func TestEncryptDecrypt_TypedDocument(t *testing.T) {
	e := NewEngine(nil)
	k := testKey(t, 2)

	in := wallet{Settings: map[string]any{"enabled": true}}
	in.Cards = append(in.Cards, struct {
		ID     string `json:"id"`
		Issuer string `json:"issuer"`
	}{ID: "1", Issuer: "Chase"})

	p, err := e.Encrypt(in, k)
	require.NoError(t, err)

	var out wallet
	require.NoError(t, e.DecryptPayload(p, k, &out))
	assert.Equal(t, in, out)
}

func TestEncrypt_PayloadShape(t *testing.T) {
	e := NewEngine(&counterReader{})
	k := testKey(t, 3)

	p, err := e.Encrypt(map[string]int{"x": 1}, k)
	require.NoError(t, err)

	iv, err := codec.Base64ToBytes(p.IV)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, iv)

	ct, err := codec.Base64ToBytes(p.Ciphertext)
	require.NoError(t, err)
	// {"x":1} plus 16 byte tag
	assert.Len(t, ct, len(`{"x":1}`)+16)
}

func TestEncrypt_FreshIVEveryCall(t *testing.T) {
	e := NewEngine(nil)
	k := testKey(t, 4)

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		p, err := e.Encrypt("same document", k)
		require.NoError(t, err)
		_, dup := seen[p.IV]
		require.False(t, dup, "iv repeated after %d calls", i)
		seen[p.IV] = struct{}{}
	}
}

func TestEncrypt_RandomFailure(t *testing.T) {
	e := NewEngine(failingReader{})
	_, err := e.Encrypt("x", testKey(t, 5))
	require.Error(t, err)
}

func TestDecrypt_WrongKey(t *testing.T) {
	e := NewEngine(nil)
	p, err := e.Encrypt(map[string]string{"issuer": "Chase"}, testKey(t, 6))
	require.NoError(t, err)

	var out map[string]string
	err = e.DecryptPayload(p, testKey(t, 7), &out)
	require.ErrorIs(t, err, ErrDecryption)
	assert.Nil(t, out)
}

func TestDecrypt_WrongPassword(t *testing.T) {
	m := NewKeyManager(nil, WithIterations(1000))
	salt, err := m.GenerateSalt()
	require.NoError(t, err)

	good, err := m.DeriveKey([]byte("secret123"), salt)
	require.NoError(t, err)
	bad, err := m.DeriveKey([]byte("secret124"), salt)
	require.NoError(t, err)

	e := NewEngine(nil)
	p, err := e.Encrypt(map[string]any{"cards": []any{}}, good)
	require.NoError(t, err)

	var out map[string]any
	require.ErrorIs(t, e.DecryptPayload(p, bad, &out), ErrDecryption)
}

func TestDecrypt_Tampered(t *testing.T) {
	e := NewEngine(nil)
	k := testKey(t, 8)
	p, err := e.Encrypt(map[string]string{"a": "b"}, k)
	require.NoError(t, err)

	ct, err := codec.Base64ToBytes(p.Ciphertext)
	require.NoError(t, err)
	ct[0] ^= 0x01
	tampered := EncryptedPayload{IV: p.IV, Ciphertext: codec.BytesToBase64(ct)}

	var out map[string]string
	require.ErrorIs(t, e.DecryptPayload(tampered, k, &out), ErrDecryption)

	iv, err := codec.Base64ToBytes(p.IV)
	require.NoError(t, err)
	iv[0] ^= 0x01
	require.ErrorIs(t, e.Decrypt(codec.BytesToBase64(iv), p.Ciphertext, k, &out), ErrDecryption)
}

func TestDecrypt_MalformedInput(t *testing.T) {
	e := NewEngine(nil)
	k := testKey(t, 9)
	var out any

	require.ErrorIs(t, e.Decrypt("%%%", "AAAA", k, &out), ErrDecryption)
	require.ErrorIs(t, e.Decrypt(codec.BytesToBase64(make([]byte, 12)), "%%%", k, &out), ErrDecryption)
	require.ErrorIs(t, e.Decrypt(codec.BytesToBase64(make([]byte, 8)), "AAAA", k, &out), ErrDecryption)
	require.ErrorIs(t, e.Decrypt(codec.BytesToBase64(make([]byte, 12)), "", k, &out), ErrDecryption)
}

func TestDecrypt_NonJSONPlaintext(t *testing.T) {
	e := NewEngine(nil)
	k := testKey(t, 10)

	aead, err := newGCM(k)
	require.NoError(t, err)
	iv := make([]byte, IVSize)
	ct := aead.Seal(nil, iv, []byte("not json"), nil)

	var out any
	err = e.Decrypt(codec.BytesToBase64(iv), codec.BytesToBase64(ct), k, &out)
	require.ErrorIs(t, err, ErrDecryption)
}

func TestEngine_KeyUsage(t *testing.T) {
	e := NewEngine(nil)
	var k Key
	_, err := e.Encrypt("x", k)
	require.ErrorIs(t, err, ErrKeyUsage)
	require.ErrorIs(t, e.Decrypt("", "", k, new(any)), ErrKeyUsage)
}
