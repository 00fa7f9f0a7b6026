package security

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, TokenKeySize)
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	second, err := GenerateToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first == second {
		t.Fatalf("expected two tokens to differ")
	}
}

func TestNewTokenCipher_KeyLength(t *testing.T) {
	if _, err := NewTokenCipher([]byte("short")); err == nil {
		t.Fatalf("expected error for short key")
	}
	if _, err := NewTokenCipher(testKey(0x42)); err != nil {
		t.Fatalf("expected 32-byte key to be accepted, got %v", err)
	}
}

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher(testKey(0x01))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	blob, errEncrypt := c.Encrypt("alice:deadbeef")
	if errEncrypt != nil {
		t.Fatalf("encrypt: %v", errEncrypt)
	}
	parts := strings.Split(blob, ":")
	if len(parts) != 3 {
		t.Fatalf("expected 3 blob segments, got %d", len(parts))
	}
	for i, part := range parts {
		if part == "" {
			t.Fatalf("segment %d is empty", i)
		}
	}

	plaintext, errDecrypt := c.Decrypt(blob)
	if errDecrypt != nil {
		t.Fatalf("decrypt: %v", errDecrypt)
	}
	if plaintext != "alice:deadbeef" {
		t.Fatalf("expected round-trip plaintext, got %q", plaintext)
	}
}

func TestTokenCipher_FreshNonce(t *testing.T) {
	c, err := NewTokenCipher(testKey(0x01))
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	first, _ := c.Encrypt("token")
	second, _ := c.Encrypt("token")
	if first == second {
		t.Fatalf("expected distinct blobs for repeated encryption")
	}
}

func TestTokenCipher_WrongKey(t *testing.T) {
	c1, _ := NewTokenCipher(testKey(0x01))
	c2, _ := NewTokenCipher(testKey(0x02))

	blob, err := c1.Encrypt("secret-token")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, errDecrypt := c2.Decrypt(blob); !errors.Is(errDecrypt, ErrDecryption) {
		t.Fatalf("expected ErrDecryption for wrong key, got %v", errDecrypt)
	}
}

func TestTokenCipher_Tampered(t *testing.T) {
	c, _ := NewTokenCipher(testKey(0x01))
	blob, err := c.Encrypt("secret-token")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	flip := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'a' {
			b[i] = 'b'
		} else {
			b[i] = 'a'
		}
		return string(b)
	}

	parts := strings.Split(blob, ":")
	cases := map[string]string{
		"tampered tag":        strings.Join([]string{parts[0], flip(parts[1], 0), parts[2]}, ":"),
		"tampered ciphertext": strings.Join([]string{parts[0], parts[1], flip(parts[2], 0)}, ":"),
		"missing segment":     parts[0] + ":" + parts[1],
		"empty segment":       parts[0] + "::" + parts[2],
		"not hex":             "zz:" + parts[1] + ":" + parts[2],
		"garbage":             "not-a-blob",
	}
	for name, mutated := range cases {
		if _, errDecrypt := c.Decrypt(mutated); !errors.Is(errDecrypt, ErrDecryption) {
			t.Fatalf("%s: expected ErrDecryption, got %v", name, errDecrypt)
		}
	}
}
