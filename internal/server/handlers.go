package server

import (
	"errors"

	"github.com/Androix777/kanjilab-server/internal/auth"
	"github.com/Androix777/kanjilab-server/internal/game"
	"github.com/Androix777/kanjilab-server/pkg/protocol"
)

// dispatch routes one inbound envelope by message type. Unknown types get a
// generic status; every handler answers on the same correlation id.
func (s *Server) dispatch(c *conn, env protocol.Envelope) {
	switch env.MessageType {
	case protocol.TypeInReqSendPublicKey:
		s.handleSendPublicKey(c, env)
	case protocol.TypeInReqVerifySignature:
		s.handleVerifySignature(c, env)
	case protocol.TypeInReqRegisterClient:
		s.handleRegisterClient(c, env)
	case protocol.TypeInReqClientList:
		s.handleClientList(c, env)
	case protocol.TypeInReqSendChat:
		s.handleSendChat(c, env)
	case protocol.TypeInReqMakeAdmin:
		s.handleMakeAdmin(c, env)
	case protocol.TypeInReqStartGame:
		s.handleStartGame(c, env)
	case protocol.TypeInReqStopGame:
		s.handleStopGame(c, env)
	case protocol.TypeInReqSendAnswer:
		s.handleSendAnswer(c, env)
	case protocol.TypeInReqSendGameSettings:
		s.handleSendGameSettings(c, env)
	default:
		s.sendStatus(c, env.CorrelationID, protocol.StatusUnknownMessage)
	}
}

// decode unwraps the payload or answers with the matching validation status.
func decode[T protocol.Payload](s *Server, c *conn, env protocol.Envelope) (T, bool) {
	payload, err := protocol.DecodePayload[T](env)
	if err != nil {
		status := protocol.StatusWrongPayload
		if errors.Is(err, protocol.ErrMissingPayload) {
			status = protocol.StatusMissingPayload
		}
		s.sendStatus(c, env.CorrelationID, status)
		var zero T
		return zero, false
	}
	return payload, true
}

// requireRegistered answers notRegisteredError unless the connection has
// completed registration.
func (s *Server) requireRegistered(c *conn, env protocol.Envelope) (protocol.ClientInfo, bool) {
	client, ok := s.registry.Get(c.id)
	if !ok {
		s.sendStatus(c, env.CorrelationID, protocol.StatusNotRegistered)
	}
	return client, ok
}

// requireAdmin answers noRightsError unless the client holds admin.
func (s *Server) requireAdmin(c *conn, env protocol.Envelope) bool {
	client, ok := s.registry.Get(c.id)
	if !ok || !client.IsAdmin {
		s.sendStatus(c, env.CorrelationID, protocol.StatusNoRights)
		return false
	}
	return true
}

func (s *Server) handleSendPublicKey(c *conn, env protocol.Envelope) {
	payload, ok := decode[protocol.InReqSendPublicKey](s, c, env)
	if !ok {
		return
	}
	challenge, err := c.handshake.SubmitKey(payload.Key)
	if err != nil {
		s.sendStatus(c, env.CorrelationID, protocol.StatusAlreadyValidated)
		return
	}
	s.sendPayload(c, protocol.OutRespSignMessage{Message: challenge}, env.CorrelationID)
}

func (s *Server) handleVerifySignature(c *conn, env protocol.Envelope) {
	payload, ok := decode[protocol.InReqVerifySignature](s, c, env)
	if !ok {
		return
	}
	switch err := c.handshake.VerifySignature(s.verifier, payload.Signature); {
	case err == nil:
		s.sendStatus(c, env.CorrelationID, protocol.StatusSuccess)
	case errors.Is(err, auth.ErrAlreadyValidated):
		s.sendStatus(c, env.CorrelationID, protocol.StatusAlreadyValidated)
	case errors.Is(err, auth.ErrNoKey):
		s.sendStatus(c, env.CorrelationID, protocol.StatusNoKey)
	default:
		s.sendStatus(c, env.CorrelationID, protocol.StatusWrongSignature)
	}
}

func (s *Server) handleRegisterClient(c *conn, env protocol.Envelope) {
	payload, ok := decode[protocol.InReqRegisterClient](s, c, env)
	if !ok {
		return
	}
	if !c.handshake.Validated() {
		s.sendStatus(c, env.CorrelationID, protocol.StatusNotValidated)
		return
	}
	if !s.registry.Add(c.id, payload.Name, c.handshake.Key()) {
		s.sendStatus(c, env.CorrelationID, protocol.StatusAlreadyRegistered)
		return
	}

	s.sendPayload(c, protocol.OutRespClientRegistered{
		ID:           c.id,
		GameSettings: s.game.Settings(),
	}, env.CorrelationID)

	client, _ := s.registry.Get(c.id)
	s.broadcast(protocol.OutNotifClientRegistered{Client: client})

	// auto-admin policy: first registrant is promoted silently, no status
	// response, bypassing the password check
	if s.autoAdmin {
		if _, taken := s.registry.AdminID(); !taken {
			s.promote(c.id)
		}
	}
}

// promote flips admin to the given client and broadcasts it once.
func (s *Server) promote(clientID string) bool {
	if !s.registry.MakeAdmin(clientID) {
		return false
	}
	s.broadcast(protocol.OutNotifAdminMade{ID: clientID})
	return true
}

func (s *Server) handleMakeAdmin(c *conn, env protocol.Envelope) {
	if _, ok := s.requireRegistered(c, env); !ok {
		return
	}
	payload, ok := decode[protocol.InReqMakeAdmin](s, c, env)
	if !ok {
		return
	}
	if payload.AdminPassword != s.adminPassword {
		s.sendStatus(c, env.CorrelationID, protocol.StatusWrongPassword)
		return
	}
	if !s.promote(payload.ClientID) {
		s.sendStatus(c, env.CorrelationID, protocol.StatusMissingClient)
		return
	}
	s.sendStatus(c, env.CorrelationID, protocol.StatusSuccess)
}

func (s *Server) handleClientList(c *conn, env protocol.Envelope) {
	if _, ok := s.requireRegistered(c, env); !ok {
		return
	}
	s.sendPayload(c, protocol.OutRespClientList{Clients: s.registry.List()}, env.CorrelationID)
}

func (s *Server) handleSendChat(c *conn, env protocol.Envelope) {
	if _, ok := s.requireRegistered(c, env); !ok {
		return
	}
	payload, ok := decode[protocol.InReqSendChat](s, c, env)
	if !ok {
		return
	}
	s.broadcast(protocol.OutNotifChatSent{ID: c.id, Message: payload.Message})
	s.sendStatus(c, env.CorrelationID, protocol.StatusSuccess)
}

func (s *Server) handleStartGame(c *conn, env protocol.Envelope) {
	if _, ok := s.requireRegistered(c, env); !ok {
		return
	}
	if !s.requireAdmin(c, env) {
		return
	}
	payload, ok := decode[protocol.InReqStartGame](s, c, env)
	if !ok {
		return
	}
	if !s.game.StartGame(payload.GameSettings) {
		s.sendStatus(c, env.CorrelationID, protocol.StatusAlreadyStarted)
		return
	}
	s.sendStatus(c, env.CorrelationID, protocol.StatusSuccess)
}

func (s *Server) handleStopGame(c *conn, env protocol.Envelope) {
	if _, ok := s.requireRegistered(c, env); !ok {
		return
	}
	if !s.requireAdmin(c, env) {
		return
	}
	if !s.game.StopGame() {
		s.sendStatus(c, env.CorrelationID, protocol.StatusAlreadyStopped)
		return
	}
	s.sendStatus(c, env.CorrelationID, protocol.StatusSuccess)
}

func (s *Server) handleSendAnswer(c *conn, env protocol.Envelope) {
	if _, ok := s.requireRegistered(c, env); !ok {
		return
	}
	payload, ok := decode[protocol.InReqSendAnswer](s, c, env)
	if !ok {
		return
	}

	switch _, err := s.game.RecordAnswer(c.id, payload.Answer); {
	case errors.Is(err, game.ErrNoCurrentQuestion):
		s.sendStatus(c, env.CorrelationID, protocol.StatusNoQuestion)
	case errors.Is(err, game.ErrAlreadyAnswered):
		s.sendStatus(c, env.CorrelationID, protocol.StatusAlreadyAnswered)
	default:
		s.sendStatus(c, env.CorrelationID, protocol.StatusSuccess)
		s.broadcast(protocol.OutNotifClientAnswered{ID: c.id})
		if s.game.AllAnswered(s.registry.Len()) {
			s.game.EndRoundEarly()
		}
	}
}

func (s *Server) handleSendGameSettings(c *conn, env protocol.Envelope) {
	if _, ok := s.requireRegistered(c, env); !ok {
		return
	}
	payload, ok := decode[protocol.InReqSendGameSettings](s, c, env)
	if !ok {
		return
	}
	s.game.SetSettings(payload.GameSettings)
	s.broadcast(protocol.OutNotifGameSettingsChanged{GameSettings: s.game.Settings()})
	s.sendStatus(c, env.CorrelationID, protocol.StatusSuccess)
}

// handleQuestion consumes the admin's IN_RESP_question once the correlation
// slot fires. A question for a round is set at most once.
func (s *Server) handleQuestion(c *conn, env protocol.Envelope) {
	payload, ok := decode[protocol.InRespQuestion](s, c, env)
	if !ok {
		return
	}
	opened, err := s.game.SetQuestion(payload.Question)
	if err != nil {
		s.sendStatus(c, env.CorrelationID, protocol.StatusAlreadyExist)
		return
	}
	if !opened {
		// deferred stop consumed the question; Lobby was published instead
		return
	}
	s.broadcast(protocol.OutNotifQuestion{QuestionSVG: payload.QuestionSVG})
}
