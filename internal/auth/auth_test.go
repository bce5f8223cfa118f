package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
)

func newKeyPair(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return base64.StdEncoding.EncodeToString(pub), priv
}

func sign(priv ed25519.PrivateKey, message string) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(priv, []byte(message)))
}

func TestHandshake_HappyPath(t *testing.T) {
	pub, priv := newKeyPair(t)
	h := NewHandshake()

	challenge, err := h.SubmitKey(pub)
	if err != nil {
		t.Fatalf("submit key: %v", err)
	}
	if challenge == "" {
		t.Fatalf("challenge must not be empty")
	}

	if err := h.VerifySignature(Ed25519Verifier{}, sign(priv, challenge)); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !h.Validated() {
		t.Fatalf("handshake should be validated")
	}
}

func TestHandshake_SignatureWithoutKey(t *testing.T) {
	h := NewHandshake()
	err := h.VerifySignature(Ed25519Verifier{}, "anything")
	if !errors.Is(err, ErrNoKey) {
		t.Fatalf("want ErrNoKey, got %v", err)
	}
}

func TestHandshake_WrongSignature(t *testing.T) {
	pub, _ := newKeyPair(t)
	_, otherPriv := newKeyPair(t)
	h := NewHandshake()

	challenge, _ := h.SubmitKey(pub)
	err := h.VerifySignature(Ed25519Verifier{}, sign(otherPriv, challenge))
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("want ErrBadSignature, got %v", err)
	}
	if h.Validated() {
		t.Fatalf("failed verification must not validate")
	}
}

func TestHandshake_RejectsAfterValidation(t *testing.T) {
	pub, priv := newKeyPair(t)
	h := NewHandshake()
	challenge, _ := h.SubmitKey(pub)
	if err := h.VerifySignature(Ed25519Verifier{}, sign(priv, challenge)); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if _, err := h.SubmitKey(pub); !errors.Is(err, ErrAlreadyValidated) {
		t.Fatalf("re-submitting key: want ErrAlreadyValidated, got %v", err)
	}
	if err := h.VerifySignature(Ed25519Verifier{}, sign(priv, challenge)); !errors.Is(err, ErrAlreadyValidated) {
		t.Fatalf("re-verifying: want ErrAlreadyValidated, got %v", err)
	}
}

func TestEd25519Verifier_MalformedInputs(t *testing.T) {
	v := Ed25519Verifier{}

	if _, err := v.Verify("msg", "sig", "!!not-base64!!"); err == nil {
		t.Fatalf("malformed key should error")
	}
	if _, err := v.Verify("msg", "!!not-base64!!", base64.StdEncoding.EncodeToString(make([]byte, 32))); err == nil {
		t.Fatalf("malformed signature should error")
	}
	if _, err := v.Verify("msg", "sig", base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Fatalf("wrong-length key should error")
	}
}
