package cryptox

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/passguard/passguard/internal/common"
)

// NonceSize is the AES-GCM nonce length in bytes.
const NonceSize = 12

// Bundle carries everything needed to decrypt one value: the ciphertext
// (with the GCM tag appended) and the nonce used to produce it.
type Bundle struct {
	Ciphertext []byte
	Nonce      []byte
}

// Encrypt seals plaintext under the given key with AES-256-GCM. A fresh
// random nonce is generated on every call, so encrypting identical plaintext
// twice yields distinct bundles.
func Encrypt(plaintext, key []byte) (*Bundle, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(NonceSize)
	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return &Bundle{Ciphertext: ciphertext, Nonce: nonce}, nil
}

// Decrypt opens a bundle with the given key. It fails closed: a wrong key,
// a tampered ciphertext, or a mangled nonce all yield
// common.ErrDecryptionFailure and no plaintext. The caller owns the returned
// slice and should wipe it once done.
func Decrypt(b *Bundle, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.ErrDecryptionFailure
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, common.ErrDecryptionFailure
	}

	plaintext, err := aesgcm.Open(nil, b.Nonce, b.Ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailure
	}

	return plaintext, nil
}
