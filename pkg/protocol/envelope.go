// Package protocol defines the wire envelope and the closed set of typed
// payloads exchanged between the game server and its clients. Every frame
// on the socket is one JSON-encoded Envelope.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrMissingPayload = errors.New("missing payload")
	ErrWrongPayload   = errors.New("wrong payload")
)

// Payload is implemented exactly once per wire payload type; the returned
// string is the messageType tag the payload travels under.
type Payload interface {
	MessageType() string
}

// Envelope is the outer JSON wrapper carrying correlation id, message type
// and an opaque payload.
type Envelope struct {
	CorrelationID string          `json:"correlationId"`
	MessageType   string          `json:"messageType"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope wraps a payload into an envelope. An empty correlationID means
// "spontaneous": a fresh id is generated, matching the original wire behavior
// where every frame carries some correlation id.
func NewEnvelope(p Payload, correlationID string) (Envelope, error) {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", p.MessageType(), err)
	}
	return Envelope{
		CorrelationID: correlationID,
		MessageType:   p.MessageType(),
		Payload:       raw,
	}, nil
}

// MustEnvelope is NewEnvelope for payloads that cannot fail to marshal
// (all registered payload types are plain data).
func MustEnvelope(p Payload, correlationID string) Envelope {
	env, err := NewEnvelope(p, correlationID)
	if err != nil {
		panic(err)
	}
	return env
}

// Encode serializes the envelope to its wire form.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses a raw frame into an envelope. Payload shape is not
// validated here; that happens once the message type is known.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into the expected payload
// type. A nil payload yields ErrMissingPayload, a shape mismatch
// ErrWrongPayload.
func DecodePayload[T Payload](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return out, ErrMissingPayload
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrWrongPayload, err)
	}
	return out, nil
}
