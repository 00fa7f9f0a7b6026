package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// TokenKeySize is the required byte length of the token encryption key.
const TokenKeySize = 32

// gcmTagSize is the byte length of the GCM integrity tag.
const gcmTagSize = 16

// ErrDecryption reports a malformed ciphertext blob or a failed integrity
// check. Callers translate it before anything reaches a client.
var ErrDecryption = errors.New("security: token decryption failed")

// GenerateToken returns a 256-bit random opaque token, hex encoded.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// TokenCipher encrypts bearer tokens for at-rest storage with AES-256-GCM.
// The key is process-wide configuration, fixed after construction.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher builds a TokenCipher from a 32-byte key.
func NewTokenCipher(key []byte) (*TokenCipher, error) {
	if len(key) != TokenKeySize {
		return nil, fmt.Errorf("security: token key must be %d bytes, got %d", TokenKeySize, len(key))
	}
	block, errCipher := aes.NewCipher(key)
	if errCipher != nil {
		return nil, fmt.Errorf("security: new cipher: %w", errCipher)
	}
	aead, errGCM := cipher.NewGCM(block)
	if errGCM != nil {
		return nil, fmt.Errorf("security: new gcm: %w", errGCM)
	}
	return &TokenCipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns the blob
// "<nonce_hex>:<tag_hex>:<ciphertext_hex>".
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("security: generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)

	// Seal appends the integrity tag after the ciphertext.
	split := len(sealed) - gcmTagSize
	ciphertext, tag := sealed[:split], sealed[split:]

	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt opens a blob produced by Encrypt. It returns ErrDecryption when
// the blob is malformed or the integrity tag does not verify.
func (c *TokenCipher) Decrypt(blob string) (string, error) {
	parts := strings.Split(blob, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", ErrDecryption
	}
	nonce, errNonce := hex.DecodeString(parts[0])
	tag, errTag := hex.DecodeString(parts[1])
	ciphertext, errCiphertext := hex.DecodeString(parts[2])
	if errNonce != nil || errTag != nil || errCiphertext != nil {
		return "", ErrDecryption
	}
	if len(nonce) != c.aead.NonceSize() || len(tag) != gcmTagSize {
		return "", ErrDecryption
	}

	plaintext, errOpen := c.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if errOpen != nil {
		return "", ErrDecryption
	}
	return string(plaintext), nil
}
