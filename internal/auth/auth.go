// Package auth implements the challenge/response gate a connection must pass
// before it may register: the client submits a public key, receives a random
// challenge, and proves possession of the matching private key by signing it.
package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrAlreadyValidated = errors.New("connection already validated")
	ErrNoKey            = errors.New("no public key on file")
	ErrBadSignature     = errors.New("signature verification failed")
)

// Verifier checks an asymmetric signature over a challenge string. The
// server treats it as a black box returning a boolean.
type Verifier interface {
	Verify(message, signature, publicKey string) (bool, error)
}

// Ed25519Verifier verifies base64-encoded ed25519 signatures, the scheme the
// clients use.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(message, signature, publicKey string) (bool, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return false, fmt.Errorf("invalid public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return false, fmt.Errorf("invalid public key: %d bytes", len(keyBytes))
	}
	sigBytes, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("invalid signature: %w", err)
	}
	return ed25519.Verify(ed25519.PublicKey(keyBytes), []byte(message), sigBytes), nil
}

// Handshake is the per-connection transient auth state. It lives from
// connection-open until the client validates or disconnects, and is only
// touched by that connection's receive loop.
type Handshake struct {
	challenge string
	key       string
	validated bool
}

func NewHandshake() *Handshake {
	return &Handshake{challenge: uuid.NewString()}
}

// SubmitKey stores the client's public key and returns the challenge to
// sign. Re-submitting after validation is rejected.
func (h *Handshake) SubmitKey(key string) (string, error) {
	if h.validated {
		return "", ErrAlreadyValidated
	}
	h.key = key
	return h.challenge, nil
}

// VerifySignature checks the signature over the challenge against the stored
// key and marks the connection validated on success.
func (h *Handshake) VerifySignature(v Verifier, signature string) error {
	if h.validated {
		return ErrAlreadyValidated
	}
	if h.key == "" {
		return ErrNoKey
	}
	ok, err := v.Verify(h.challenge, signature, h.key)
	if err != nil || !ok {
		return ErrBadSignature
	}
	h.validated = true
	return nil
}

func (h *Handshake) Validated() bool { return h.validated }

// Key returns the public key submitted during the handshake.
func (h *Handshake) Key() string { return h.key }
