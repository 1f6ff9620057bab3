package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	gcmMagic      = "GCM3NCR0"
	saltSize      = 16
	nonceSize     = 12
	pbkdf2Rounds  = 100000
	derivedKeyLen = 32
)

var ErrMissingPassword = errors.New("media is encrypted but no password is configured")

// seal encrypts data as magic | salt | nonce | ciphertext+tag.
func seal(data []byte, password string) ([]byte, error) {
	salt := make([]byte, saltSize)
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(gcmMagic)+saltSize+nonceSize+len(data)+gcm.Overhead())
	out = append(out, gcmMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, data, nil), nil
}

// open reverses seal. Data without the magic prefix is returned unchanged.
func open(data []byte, password string) ([]byte, error) {
	if !isSealed(data) {
		return data, nil
	}
	if password == "" {
		return nil, ErrMissingPassword
	}
	if len(data) < len(gcmMagic)+saltSize+nonceSize+16 {
		return nil, fmt.Errorf("GCM data too short: %d bytes", len(data))
	}

	salt := data[len(gcmMagic) : len(gcmMagic)+saltSize]
	nonce := data[len(gcmMagic)+saltSize : len(gcmMagic)+saltSize+nonceSize]
	sealed := data[len(gcmMagic)+saltSize+nonceSize:]

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("GCM decryption failed: %w", err)
	}
	return plaintext, nil
}

func isSealed(data []byte) bool { return bytes.HasPrefix(data, []byte(gcmMagic)) }

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Rounds, derivedKeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
