package client

import (
	"crypto/ed25519"
	"encoding/base64"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateKeyPairRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")

	created, err := LoadOrCreateKeyPair(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	loaded, err := LoadOrCreateKeyPair(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if created.PublicKeyBase64() != loaded.PublicKeyBase64() {
		t.Fatalf("reloaded key differs from created one")
	}
}

func TestSignVerifies(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	sig, err := base64.StdEncoding.DecodeString(kp.Sign("challenge"))
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	pub, err := base64.StdEncoding.DecodeString(kp.PublicKeyBase64())
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), []byte("challenge"), sig) {
		t.Fatalf("signature does not verify")
	}
}
