// Package crypto implements WireGuard key handling natively, without
// shelling out to wg(8). Keys are Curve25519 scalars/points carried as
// base64 strings, the same representation the config format uses.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// KeyPair holds a WireGuard private/public key pair.
type KeyPair struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// GenerateKeyPair produces a fresh key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv := make([]byte, 32)
	if _, err := rand.Read(priv); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	clamp(priv)

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: base64.StdEncoding.EncodeToString(priv),
		PublicKey:  base64.StdEncoding.EncodeToString(pub),
	}, nil
}

// DerivePublicKey computes the public key for a base64 private key.
func DerivePublicKey(privateKey string) (string, error) {
	priv, err := base64.StdEncoding.DecodeString(privateKey)
	if err != nil {
		return "", fmt.Errorf("private key is not valid base64: %w", err)
	}
	if len(priv) != 32 {
		return "", fmt.Errorf("private key must decode to 32 bytes, got %d", len(priv))
	}
	clamp(priv)

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return "", fmt.Errorf("failed to derive public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pub), nil
}

// ValidKey reports whether key has the shape of a WireGuard key: 44
// base64 characters decoding to exactly 32 bytes.
func ValidKey(key string) bool {
	if len(key) != 44 {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	return err == nil && len(raw) == 32
}

// clamp applies Curve25519 scalar clamping to a private key.
func clamp(key []byte) {
	key[0] &= 248
	key[31] &= 127
	key[31] |= 64
}
