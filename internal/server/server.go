// Package server accepts websocket connections, runs a receive loop per
// connection, routes frames to handlers or to the correlation layer, and
// delivers broadcast/unicast messages. It owns all shared game state through
// an explicit Server object; there are no package-level singletons.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Androix777/kanjilab-server/internal/auth"
	"github.com/Androix777/kanjilab-server/internal/game"
	"github.com/Androix777/kanjilab-server/internal/registry"
	"github.com/Androix777/kanjilab-server/pkg/protocol"
)

// Options configures a Server. Zero values pick sane defaults.
type Options struct {
	// AutoAdmin silently promotes the first registered client to admin.
	AutoAdmin bool
	Logger    *zap.SugaredLogger
	Verifier  auth.Verifier
	// ShutdownTimeout bounds the graceful HTTP shutdown once the run
	// context is cancelled. Zero means 5s.
	ShutdownTimeout time.Duration
}

// Server is the context object owning the registry, the game machine and all
// live connections. It is constructed once and shared by reference.
type Server struct {
	log       *zap.SugaredLogger
	verifier  auth.Verifier
	autoAdmin bool

	registry *registry.Registry
	game     *game.Machine

	adminPassword   string
	shutdownTimeout time.Duration

	mu    sync.Mutex
	conns map[string]*conn

	jobs sync.WaitGroup
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	verifier := opts.Verifier
	if verifier == nil {
		verifier = auth.Ed25519Verifier{}
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	return &Server{
		log:             logger,
		verifier:        verifier,
		autoAdmin:       opts.AutoAdmin,
		registry:        registry.New(),
		game:            game.NewMachine(),
		adminPassword:   uuid.NewString(),
		shutdownTimeout: shutdownTimeout,
		conns:           make(map[string]*conn),
	}
}

// AdminPassword returns the password accepted by IN_REQ_makeAdmin. It is
// generated at construction and surfaced to the hosting process only.
func (s *Server) AdminPassword() string { return s.adminPassword }

// Game exposes the state machine for the hosting process and tests.
func (s *Server) Game() *game.Machine { return s.game }

// Routes builds the HTTP surface: the websocket endpoint and a health check.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/ws", s.handleWS)
	return r
}

// Run serves the protocol on addr until ctx is cancelled, then disconnects
// every client and waits for background jobs to settle.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{Addr: addr, Handler: s.Routes()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.watchGameState(ctx)
		return nil
	})
	g.Go(func() error {
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		s.disconnectAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	s.log.Infow("server listening", "addr", addr)
	err := g.Wait()
	s.jobs.Wait()
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sock, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Debugw("websocket accept failed", "err", err)
		return
	}

	c := newConn(uuid.NewString(), sock)
	s.addConn(c)
	s.logFrame(c, "connected", true)

	s.readLoop(r.Context(), c)
	s.teardown(c)
}

func (s *Server) addConn(c *conn) {
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
}

func (s *Server) connByID(id string) (*conn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[id]
	return c, ok
}

// readLoop processes frames from one connection strictly in arrival order.
// No parse failure is fatal; the only way out is transport closure.
func (s *Server) readLoop(ctx context.Context, c *conn) {
	for {
		typ, data, err := c.sock.Read(ctx)
		if err != nil {
			// read failures are fatal on this transport; on an abnormal
			// one the status reply is best-effort before the connection
			// goes away for good
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				s.sendStatus(c, "", protocol.StatusReceivingMessage)
			}
			return
		}
		if typ != websocket.MessageText {
			s.sendStatus(c, "", protocol.StatusInvalidText)
			continue
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			s.sendStatus(c, "", protocol.StatusInvalidJSON)
			continue
		}
		s.logFrame(c, env.MessageType, true)

		// responses to outstanding server requests short-circuit dispatch
		if c.pending.complete(env) {
			continue
		}
		s.dispatch(c, env)
	}
}

// teardown removes the connection, abandons its correlation slots and, when
// the client had registered, broadcasts the disconnect.
func (s *Server) teardown(c *conn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()

	c.pending.closeAll()
	c.close(websocket.StatusNormalClosure, "bye")

	client, registered := s.registry.Remove(c.id)
	if registered {
		s.logFrame(c, "disconnected", true)
		s.broadcast(protocol.OutNotifClientDisconnected{ID: client.ID})
	} else {
		s.logFrame(c, "disconnected", true)
	}
}

func (s *Server) disconnectAll() {
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.close(websocket.StatusGoingAway, "server shutdown")
	}
}

// watchGameState is the single observer of state publications; all
// per-transition side effects happen here exactly once, never per
// connection.
func (s *Server) watchGameState(ctx context.Context) {
	states := s.game.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-states:
			switch st {
			case game.StateGameStarting:
				s.broadcast(protocol.OutNotifGameStarted{GameSettings: s.game.Settings()})
				s.requestQuestion()
			case game.StateWaitingQuestion:
				round := s.game.CurrentRound()
				question, ok := s.game.QuestionForRound(round - 1)
				if !ok {
					s.log.Errorw("round ended without a question", "round", round-1)
				} else {
					s.broadcast(protocol.OutNotifRoundEnded{
						Question: question,
						Answers:  s.game.AnswersForRound(round - 1),
					})
				}
				s.requestQuestion()
			case game.StateLobby:
				round := s.game.CurrentRound()
				payload := protocol.OutNotifGameStopped{
					Answers: s.game.AnswersForRound(round),
				}
				if question, ok := s.game.QuestionForRound(round); ok {
					payload.Question = &question
				}
				s.broadcast(payload)
			}
		}
	}
}

// requestQuestion asks the current admin connection for the next round's
// question through the correlation layer. The await runs as a background job
// owned by the server; the slot is cleaned up on every path.
func (s *Server) requestQuestion() {
	adminID, ok := s.registry.AdminID()
	if !ok {
		s.log.Warnw("no admin to request a question from")
		return
	}
	c, ok := s.connByID(adminID)
	if !ok {
		s.log.Warnw("admin has no live connection", "admin", adminID)
		return
	}

	env := protocol.MustEnvelope(protocol.OutReqQuestion{}, "")
	replies := c.pending.insert(env.CorrelationID)

	if err := s.send(c, env); err != nil {
		c.pending.remove(env.CorrelationID)
		s.log.Errorw("question request failed", "admin", adminID, "err", err)
		return
	}

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		reply, ok := <-replies
		if !ok {
			s.log.Warnw("question request abandoned", "admin", adminID)
			return
		}
		s.handleQuestion(c, reply)
	}()
}

// send delivers one envelope to one connection and logs it.
func (s *Server) send(c *conn, env protocol.Envelope) error {
	s.logFrame(c, env.MessageType, false)
	return c.write(context.Background(), env)
}

func (s *Server) sendPayload(c *conn, p protocol.Payload, correlationID string) {
	env, err := protocol.NewEnvelope(p, correlationID)
	if err != nil {
		s.log.Errorw("encode payload", "type", p.MessageType(), "err", err)
		return
	}
	if err := s.send(c, env); err != nil {
		s.log.Debugw("send failed", "client", shortID(c.id), "type", env.MessageType, "err", err)
	}
}

func (s *Server) sendStatus(c *conn, correlationID, status string) {
	s.sendPayload(c, protocol.OutRespStatus{Status: status}, correlationID)
}

// broadcast delivers the payload to every registered client in snapshot
// order, tolerating per-client send failures.
func (s *Server) broadcast(p protocol.Payload) {
	env, err := protocol.NewEnvelope(p, "")
	if err != nil {
		s.log.Errorw("encode broadcast", "type", p.MessageType(), "err", err)
		return
	}
	for _, client := range s.registry.List() {
		c, ok := s.connByID(client.ID)
		if !ok {
			continue
		}
		if err := s.send(c, env); err != nil {
			s.log.Debugw("broadcast send failed", "client", shortID(client.ID), "err", err)
		}
	}
}

// logFrame mirrors the compact per-frame console log: short id, display
// name, message type, direction.
func (s *Server) logFrame(c *conn, action string, inbound bool) {
	name := "???"
	if client, ok := s.registry.Get(c.id); ok {
		name = client.Name
	}
	direction := "<-"
	if !inbound {
		direction = "->"
	}
	s.log.Infow(action, "client", shortID(c.id), "name", name, "dir", direction)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
