// Package secretbox encrypts sector secrets at rest (host credentials,
// bearer tokens stashed in a sector's settings map) using age, adapted from
// tools/si/internal/vault's crypto_age.go.
package secretbox

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// EncryptedPrefix marks a settings-map value as an age ciphertext rather
// than plaintext.
const EncryptedPrefix = "encrypted:brain:v1:"

// IsEncrypted reports whether value carries the secretbox prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), EncryptedPrefix)
}

// Encrypt encrypts plaintext for every recipient (age public key strings),
// returning a value safe to store directly in World.Settings.
func Encrypt(plaintext string, recipients []string) (string, error) {
	parsed := make([]age.Recipient, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		rec, err := age.ParseX25519Recipient(r)
		if err != nil {
			return "", fmt.Errorf("invalid recipient %q: %w", r, err)
		}
		parsed = append(parsed, rec)
	}
	if len(parsed) == 0 {
		return "", fmt.Errorf("no recipients configured")
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, parsed...)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return EncryptedPrefix + base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decrypt reverses Encrypt given one of the recipients' matching identity.
func Decrypt(ciphertext string, identity *age.X25519Identity) (string, error) {
	if identity == nil {
		return "", fmt.Errorf("identity required")
	}
	trimmed := strings.TrimPrefix(strings.TrimSpace(ciphertext), EncryptedPrefix)
	raw, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return "", err
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// GenerateIdentity returns a freshly minted X25519 keypair for a new Brain
// instance's secrets-at-rest.
func GenerateIdentity() (*age.X25519Identity, error) {
	return age.GenerateX25519Identity()
}
