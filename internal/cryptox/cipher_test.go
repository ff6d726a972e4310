package cryptox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/passguard/passguard/internal/common"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := DeriveMasterKey([]byte("master"), NewSalt())

	for _, plaintext := range []string{"", "abc123", "Tr0ub4dor&3", "пароль"} {
		b, err := Encrypt([]byte(plaintext), key)
		if err != nil {
			t.Fatalf("encrypt error: %v", err)
		}

		got, err := Decrypt(b, key)
		if err != nil {
			t.Fatalf("decrypt error: %v", err)
		}
		if string(got) != plaintext {
			t.Errorf("round trip mismatch: want %q got %q", plaintext, got)
		}
	}
}

func TestDecrypt_WrongKeyFailsClosed(t *testing.T) {
	key := DeriveMasterKey([]byte("master"), NewSalt())
	other := DeriveMasterKey([]byte("not-master"), NewSalt())

	b, err := Encrypt([]byte("hunter2"), key)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}

	got, err := Decrypt(b, other)
	if !errors.Is(err, common.ErrDecryptionFailure) {
		t.Errorf("expected ErrDecryptionFailure, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no plaintext on failure, got %q", got)
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	key := DeriveMasterKey([]byte("master"), NewSalt())

	b, err := Encrypt([]byte("hunter2"), key)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	b.Ciphertext[0] ^= 0xff

	if _, err := Decrypt(b, key); !errors.Is(err, common.ErrDecryptionFailure) {
		t.Errorf("expected ErrDecryptionFailure, got %v", err)
	}
}

func TestDecrypt_BadKeyLength(t *testing.T) {
	key := DeriveMasterKey([]byte("master"), NewSalt())
	b, err := Encrypt([]byte("x"), key)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}

	if _, err := Decrypt(b, []byte("short")); !errors.Is(err, common.ErrDecryptionFailure) {
		t.Errorf("expected ErrDecryptionFailure, got %v", err)
	}
}

func TestEncrypt_FreshNonce(t *testing.T) {
	key := DeriveMasterKey([]byte("master"), NewSalt())

	b1, err := Encrypt([]byte("same"), key)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	b2, err := Encrypt([]byte("same"), key)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}

	if bytes.Equal(b1.Nonce, b2.Nonce) {
		t.Errorf("expected distinct nonces for repeated encryption")
	}
	if bytes.Equal(b1.Ciphertext, b2.Ciphertext) {
		t.Errorf("expected distinct ciphertexts for identical plaintext")
	}
}
