package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// SealedPrefix marks a config value produced by Seal.
const SealedPrefix = "aes:"

// Decode replaces a base64 encoded config value in place. Empty values are left as is.
func Decode(target *string) error {
	if target == nil || *target == "" {
		return nil
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(*target))
	if err != nil {
		return fmt.Errorf("failed to decode config value. %w", err)
	}
	*target = string(b)
	return nil
}

func Encode(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

func IsSealed(v string) bool {
	return strings.HasPrefix(strings.TrimSpace(v), SealedPrefix)
}

// Seal encrypts plain with AES-256-GCM under a key derived from passphrase.
// The result is "aes:" + base64(nonce | ciphertext).
func Seal(passphrase string, plain string) (string, error) {
	gcm, err := newGCM(passphrase)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce. %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return SealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. A wrong passphrase or a tampered value fails authentication.
func Open(passphrase string, sealed string) (string, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(sealed), SealedPrefix)
	if !ok {
		return "", errors.New("value is not sealed")
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("sealed value is not base64. %w", err)
	}

	gcm, err := newGCM(passphrase)
	if err != nil {
		return "", err
	}
	if len(b) < gcm.NonceSize() {
		return "", errors.New("sealed value too short")
	}

	plain, err := gcm.Open(nil, b[:gcm.NonceSize()], b[gcm.NonceSize():], nil)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed value. %w", err)
	}
	return string(plain), nil
}

func newGCM(passphrase string) (cipher.AEAD, error) {
	if passphrase == "" {
		return nil, errors.New("secret key 미설정")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), nil, []byte("fincal config")), key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
