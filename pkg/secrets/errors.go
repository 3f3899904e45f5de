package secrets

import "errors"

var (
	ErrInvalidKeyLength  = errors.New("encryption key must be 32 bytes")
	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)
