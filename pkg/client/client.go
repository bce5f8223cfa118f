// Package client is a protocol client for the game server: it dials the
// websocket endpoint, performs the key handshake, correlates its requests
// with their responses and exposes server notifications as a channel. The
// question bot and the integration tests are built on it; a GUI would sit on
// the same surface.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/Androix777/kanjilab-server/pkg/protocol"
)

const (
	requestTimeout     = 10 * time.Second
	notificationBuffer = 64
)

// ErrClosed is returned by requests once the connection is gone.
var ErrClosed = errors.New("connection closed")

// StatusError is a non-success OUT_RESP_status answer to a request.
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server status %q", e.Status)
}

// QuestionFunc produces the next round's question plus its rendered SVG when
// the server asks this client (the admin) for one.
type QuestionFunc func(settings protocol.GameSettings) (protocol.QuestionInfo, string, error)

// Options configures Dial.
type Options struct {
	Keys KeyPair
	// OnQuestion, when set, answers OUT_REQ_question requests.
	OnQuestion QuestionFunc
	Logger     *zap.SugaredLogger
}

// Client is one connection to the game server. Methods are safe for
// concurrent use; writes on the socket are serialized.
type Client struct {
	sock *websocket.Conn
	log  *zap.SugaredLogger
	keys KeyPair

	onQuestion QuestionFunc

	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[string]chan protocol.Envelope
	closed   bool
	id       string
	settings protocol.GameSettings

	notifs chan protocol.Envelope
	done   chan struct{}
}

// Dial connects to the server's websocket endpoint and starts the receive
// loop. It does not register; call Register next.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	sock, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	c := &Client{
		sock:       sock,
		log:        logger,
		keys:       opts.Keys,
		onQuestion: opts.OnQuestion,
		pending:    make(map[string]chan protocol.Envelope),
		notifs:     make(chan protocol.Envelope, notificationBuffer),
		done:       make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// ID returns the identity assigned at registration; empty before that.
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Settings returns the last game settings observed from the server.
func (c *Client) Settings() protocol.GameSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Notifications streams every broadcast the server sends to this client.
// The channel closes when the connection ends; slow consumers lose frames.
func (c *Client) Notifications() <-chan protocol.Envelope { return c.notifs }

// Done closes when the receive loop ends.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Close() error {
	return c.sock.Close(websocket.StatusNormalClosure, "bye")
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		for id, ch := range c.pending {
			delete(c.pending, id)
			close(ch)
		}
		c.mu.Unlock()
		close(c.notifs)
		close(c.done)
	}()

	for {
		_, data, err := c.sock.Read(context.Background())
		if err != nil {
			return
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			c.log.Debugw("bad frame", "err", err)
			continue
		}

		if c.complete(env) {
			continue
		}
		if env.MessageType == protocol.TypeOutReqQuestion {
			go c.answerQuestionRequest(env)
			continue
		}
		c.trackSettings(env)
		select {
		case c.notifs <- env:
		default:
			c.log.Warnw("notification dropped", "type", env.MessageType)
		}
	}
}

// trackSettings keeps the local settings copy in sync with the server so a
// question source always sees the active game parameters.
func (c *Client) trackSettings(env protocol.Envelope) {
	switch env.MessageType {
	case protocol.TypeOutNotifGameStarted:
		if p, err := protocol.DecodePayload[protocol.OutNotifGameStarted](env); err == nil {
			c.mu.Lock()
			c.settings = p.GameSettings
			c.mu.Unlock()
		}
	case protocol.TypeOutNotifGameSettingsChanged:
		if p, err := protocol.DecodePayload[protocol.OutNotifGameSettingsChanged](env); err == nil {
			c.mu.Lock()
			c.settings = p.GameSettings
			c.mu.Unlock()
		}
	}
}

func (c *Client) complete(env protocol.Envelope) bool {
	c.mu.Lock()
	ch, ok := c.pending[env.CorrelationID]
	if ok {
		delete(c.pending, env.CorrelationID)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	ch <- env
	close(ch)
	return true
}

// answerQuestionRequest serves OUT_REQ_question using the configured
// QuestionFunc, replying on the request's own correlation id.
func (c *Client) answerQuestionRequest(env protocol.Envelope) {
	if c.onQuestion == nil {
		c.log.Warnw("question requested but no question source configured")
		return
	}
	question, svg, err := c.onQuestion(c.Settings())
	if err != nil {
		c.log.Errorw("question source failed", "err", err)
		return
	}
	reply := protocol.MustEnvelope(protocol.InRespQuestion{
		Question:    question,
		QuestionSVG: svg,
	}, env.CorrelationID)
	if err := c.write(reply); err != nil {
		c.log.Errorw("question reply failed", "err", err)
	}
}

func (c *Client) write(env protocol.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sock.Write(ctx, websocket.MessageText, data)
}

// request sends a payload and awaits the response carrying the same
// correlation id.
func (c *Client) request(ctx context.Context, p protocol.Payload) (protocol.Envelope, error) {
	env, err := protocol.NewEnvelope(p, "")
	if err != nil {
		return protocol.Envelope{}, err
	}

	ch := make(chan protocol.Envelope, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return protocol.Envelope{}, ErrClosed
	}
	c.pending[env.CorrelationID] = ch
	c.mu.Unlock()

	if err := c.write(env); err != nil {
		c.mu.Lock()
		delete(c.pending, env.CorrelationID)
		c.mu.Unlock()
		return protocol.Envelope{}, err
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return protocol.Envelope{}, ErrClosed
		}
		return reply, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, env.CorrelationID)
		c.mu.Unlock()
		return protocol.Envelope{}, ctx.Err()
	}
}

// typedReply narrows a reply to the expected message type. Status replies in
// its place become *StatusError.
func typedReply[T protocol.Payload](reply protocol.Envelope) (T, error) {
	var zero T
	if reply.MessageType == protocol.TypeOutRespStatus && zero.MessageType() != protocol.TypeOutRespStatus {
		status, err := protocol.DecodePayload[protocol.OutRespStatus](reply)
		if err != nil {
			return zero, fmt.Errorf("decode status reply: %w", err)
		}
		return zero, &StatusError{Status: status.Status}
	}
	if reply.MessageType != zero.MessageType() {
		return zero, fmt.Errorf("unexpected reply %s", reply.MessageType)
	}
	return protocol.DecodePayload[T](reply)
}

// statusRequest sends a payload expecting an OUT_RESP_status answer and maps
// non-success statuses to *StatusError.
func (c *Client) statusRequest(ctx context.Context, p protocol.Payload) error {
	reply, err := c.request(ctx, p)
	if err != nil {
		return err
	}
	status, err := typedReply[protocol.OutRespStatus](reply)
	if err != nil {
		return err
	}
	if status.Status != protocol.StatusSuccess {
		return &StatusError{Status: status.Status}
	}
	return nil
}

// Register runs the whole gate: submit the public key, sign the returned
// challenge, verify, then claim the display name. On success the client id
// and the current game settings are retained.
func (c *Client) Register(ctx context.Context, name string) error {
	reply, err := c.request(ctx, protocol.InReqSendPublicKey{Key: c.keys.PublicKeyBase64()})
	if err != nil {
		return fmt.Errorf("send public key: %w", err)
	}
	challenge, err := typedReply[protocol.OutRespSignMessage](reply)
	if err != nil {
		return fmt.Errorf("expect challenge: %w", err)
	}

	if err := c.statusRequest(ctx, protocol.InReqVerifySignature{
		Signature: c.keys.Sign(challenge.Message),
	}); err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}

	reply, err = c.request(ctx, protocol.InReqRegisterClient{Name: name})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	registered, err := typedReply[protocol.OutRespClientRegistered](reply)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.id = registered.ID
	c.settings = registered.GameSettings
	c.mu.Unlock()
	return nil
}

func (c *Client) SendChat(ctx context.Context, message string) error {
	return c.statusRequest(ctx, protocol.InReqSendChat{Message: message})
}

func (c *Client) MakeAdmin(ctx context.Context, adminPassword, clientID string) error {
	return c.statusRequest(ctx, protocol.InReqMakeAdmin{
		AdminPassword: adminPassword,
		ClientID:      clientID,
	})
}

func (c *Client) ClientList(ctx context.Context) ([]protocol.ClientInfo, error) {
	reply, err := c.request(ctx, protocol.InReqClientList{})
	if err != nil {
		return nil, err
	}
	list, err := typedReply[protocol.OutRespClientList](reply)
	if err != nil {
		return nil, err
	}
	return list.Clients, nil
}

func (c *Client) StartGame(ctx context.Context, settings protocol.GameSettings) error {
	if err := c.statusRequest(ctx, protocol.InReqStartGame{GameSettings: settings}); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
	return nil
}

func (c *Client) StopGame(ctx context.Context) error {
	return c.statusRequest(ctx, protocol.InReqStopGame{})
}

func (c *Client) SendAnswer(ctx context.Context, answer string) error {
	return c.statusRequest(ctx, protocol.InReqSendAnswer{Answer: answer})
}

func (c *Client) SendGameSettings(ctx context.Context, settings protocol.GameSettings) error {
	if err := c.statusRequest(ctx, protocol.InReqSendGameSettings{GameSettings: settings}); err != nil {
		return err
	}
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
	return nil
}
