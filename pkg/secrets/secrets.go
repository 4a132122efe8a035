// Package secrets encrypts provider tokens at rest.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const keySize = 32
const nonceSize = 24

// Codec encrypts and decrypts secret values with a symmetric key.
type Codec struct {
	key [keySize]byte
}

// NewCodec creates a Codec from a base64 encoded 32 byte key.
func NewCodec(encodedKey string) (*Codec, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode credential key: %w", err)
	}

	if len(raw) != keySize {
		return nil, fmt.Errorf("credential key must be %d bytes, got %d", keySize, len(raw))
	}

	c := &Codec{}
	copy(c.key[:], raw)
	return c, nil
}

// Encrypt seals the plaintext and returns a base64 encoded ciphertext.
// The random nonce is prepended to the sealed payload.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a base64 encoded ciphertext produced by Encrypt.
func (c *Codec) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	if len(sealed) < nonceSize {
		return "", fmt.Errorf("ciphertext too short: %d bytes", len(sealed))
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", fmt.Errorf("failed to decrypt ciphertext")
	}

	return string(plaintext), nil
}
