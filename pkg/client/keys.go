package client

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
)

// KeyPair is the client's ed25519 identity. Keys travel base64-encoded on
// the wire and in the key file.
type KeyPair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

type keyFile struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate key pair: %w", err)
	}
	return KeyPair{pub: pub, priv: priv}, nil
}

// LoadOrCreateKeyPair reads the key file at path, generating and persisting
// a fresh pair when the file does not exist yet.
func LoadOrCreateKeyPair(path string) (KeyPair, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		kp, err := GenerateKeyPair()
		if err != nil {
			return KeyPair{}, err
		}
		return kp, kp.save(path)
	}
	if err != nil {
		return KeyPair{}, fmt.Errorf("read key file: %w", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return KeyPair{}, fmt.Errorf("parse key file: %w", err)
	}
	pub, err := base64.StdEncoding.DecodeString(kf.PublicKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("decode public key: %w", err)
	}
	priv, err := base64.StdEncoding.DecodeString(kf.PrivateKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("decode private key: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize || len(priv) != ed25519.PrivateKeySize {
		return KeyPair{}, fmt.Errorf("key file %s holds keys of wrong size", path)
	}
	return KeyPair{pub: pub, priv: priv}, nil
}

func (k KeyPair) save(path string) error {
	data, err := json.MarshalIndent(keyFile{
		PublicKey:  k.PublicKeyBase64(),
		PrivateKey: base64.StdEncoding.EncodeToString(k.priv),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

func (k KeyPair) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.pub)
}

// Sign signs the challenge and returns the base64 signature.
func (k KeyPair) Sign(message string) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(k.priv, []byte(message)))
}
