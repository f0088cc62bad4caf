package crypto

import (
	"encoding/base64"
	"testing"
)

func TestGenerateKeyPair(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}
	if !ValidKey(kp.PrivateKey) {
		t.Fatalf("generated private key is invalid: %d chars", len(kp.PrivateKey))
	}
	if !ValidKey(kp.PublicKey) {
		t.Fatalf("generated public key is invalid: %d chars", len(kp.PublicKey))
	}

	derived, err := DerivePublicKey(kp.PrivateKey)
	if err != nil {
		t.Fatalf("DerivePublicKey error: %v", err)
	}
	if derived != kp.PublicKey {
		t.Fatalf("derived public key does not match generated one")
	}
}

func TestDerivePublicKeyRejectsBadInput(t *testing.T) {
	if _, err := DerivePublicKey("not base64 !!!"); err == nil {
		t.Fatal("expected error for non-base64 input")
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := DerivePublicKey(short); err == nil {
		t.Fatal("expected error for wrong-length key")
	}
}

func TestValidKey(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair error: %v", err)
	}

	cases := []struct {
		key  string
		want bool
	}{
		{kp.PublicKey, true},
		{"", false},
		{"too-short", false},
		{kp.PublicKey[:43] + "!", false},
	}
	for _, tc := range cases {
		if got := ValidKey(tc.key); got != tc.want {
			t.Errorf("ValidKey(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}
