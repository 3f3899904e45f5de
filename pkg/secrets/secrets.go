// Package secrets encrypts sensitive values at rest with AES-256-GCM.
// Ciphertext layout is nonce || sealed data, base64-encoded for storage in
// text columns.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

const keySize = 32

// EncryptString encrypts plaintext and returns base64 ciphertext.
func EncryptString(key []byte, plaintext string) (string, error) {
	ciphertext, err := EncryptBytes(key, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptString decrypts base64 ciphertext produced by EncryptString.
func DecryptString(key []byte, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}
	plaintext, err := DecryptBytes(key, raw)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// EncryptBytes seals data with a fresh random nonce.
func EncryptBytes(key, data []byte) ([]byte, error) {
	gcm, err := newGCM(key, ErrEncryptionFailed)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return gcm.Seal(nonce, nonce, data, nil), nil
}

// DecryptBytes opens ciphertext produced by EncryptBytes.
func DecryptBytes(key, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(key, ErrDecryptionFailed)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrInvalidCiphertext
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

func newGCM(key []byte, sentinel error) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(sentinel, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(sentinel, err)
	}
	return gcm, nil
}
