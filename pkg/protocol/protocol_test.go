package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope_GeneratesCorrelationID(t *testing.T) {
	env, err := NewEnvelope(InReqSendChat{Message: "hi"}, "")
	require.NoError(t, err)

	assert.NotEmpty(t, env.CorrelationID)
	assert.Equal(t, TypeInReqSendChat, env.MessageType)
}

func TestNewEnvelope_KeepsGivenCorrelationID(t *testing.T) {
	env, err := NewEnvelope(OutRespStatus{Status: StatusSuccess}, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, "corr-1", env.CorrelationID)
}

func TestEnvelope_WireShape(t *testing.T) {
	env := MustEnvelope(InReqMakeAdmin{AdminPassword: "pw", ClientID: "c1"}, "corr-2")
	data, err := env.Encode()
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "correlationId")
	assert.Contains(t, raw, "messageType")
	assert.Contains(t, raw, "payload")
	assert.JSONEq(t, `{"adminPassword":"pw","clientId":"c1"}`, string(raw["payload"]))
}

func TestDecodeEnvelope_InvalidJSON(t *testing.T) {
	_, err := DecodeEnvelope([]byte("{not json"))
	assert.Error(t, err)
}

func TestDecodePayload_RoundTrip(t *testing.T) {
	settings := GameSettings{
		MinFrequency:  100,
		RoundDuration: 30,
		RoundsCount:   3,
		FontsCount:    1,
	}
	env := MustEnvelope(InReqStartGame{GameSettings: settings}, "")

	data, err := env.Encode()
	require.NoError(t, err)
	decoded, err := DecodeEnvelope(data)
	require.NoError(t, err)

	payload, err := DecodePayload[InReqStartGame](decoded)
	require.NoError(t, err)
	assert.Equal(t, settings, payload.GameSettings)
}

func TestDecodePayload_Missing(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage("null")} {
		env := Envelope{CorrelationID: "x", MessageType: TypeInReqSendChat, Payload: raw}
		_, err := DecodePayload[InReqSendChat](env)
		if !errors.Is(err, ErrMissingPayload) {
			t.Fatalf("payload %q: want ErrMissingPayload, got %v", raw, err)
		}
	}
}

func TestDecodePayload_WrongShape(t *testing.T) {
	env := Envelope{
		CorrelationID: "x",
		MessageType:   TypeInReqSendChat,
		Payload:       json.RawMessage(`{"message":42}`),
	}
	_, err := DecodePayload[InReqSendChat](env)
	if !errors.Is(err, ErrWrongPayload) {
		t.Fatalf("want ErrWrongPayload, got %v", err)
	}
}

func TestMessageTypeBindings_UniqueAndTagged(t *testing.T) {
	payloads := []Payload{
		InReqSendPublicKey{}, InReqVerifySignature{}, InReqRegisterClient{},
		InReqClientList{}, InReqSendChat{}, InReqMakeAdmin{}, InReqStartGame{},
		InReqStopGame{}, InReqSendAnswer{}, InReqSendGameSettings{},
		OutRespClientRegistered{}, OutRespStatus{}, OutRespClientList{},
		OutRespSignMessage{}, OutReqQuestion{}, InRespQuestion{},
		OutNotifClientRegistered{}, OutNotifClientDisconnected{},
		OutNotifChatSent{}, OutNotifAdminMade{}, OutNotifGameStarted{},
		OutNotifGameStopped{}, OutNotifQuestion{}, OutNotifClientAnswered{},
		OutNotifRoundEnded{}, OutNotifGameSettingsChanged{},
	}

	seen := make(map[string]bool, len(payloads))
	for _, p := range payloads {
		tag := p.MessageType()
		if tag == "" {
			t.Fatalf("payload %T has empty message type", p)
		}
		if seen[tag] {
			t.Fatalf("message type %q bound twice", tag)
		}
		seen[tag] = true
	}
}
