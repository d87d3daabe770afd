package pkg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Crypto seals short texts (interview answers) with AES-GCM.
type Crypto struct {
	aead cipher.AEAD
}

func NewCrypto(key string) (*Crypto, error) {
	k := []byte(key)
	switch len(k) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("invalid key size: must be 16, 24 or 32 bytes, got %d", len(k))
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Crypto{aead: aead}, nil
}

// Encrypt returns base64(nonce || ciphertext || tag).
func (c *Crypto) Encrypt(input string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(input), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt takes base64 input and returns plaintext
func (c *Crypto) Decrypt(input string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return "", err
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("invalid encrypted data")
	}

	plainText, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plainText), nil
}
