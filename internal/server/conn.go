package server

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Androix777/kanjilab-server/internal/auth"
	"github.com/Androix777/kanjilab-server/pkg/protocol"
)

const writeTimeout = 3 * time.Second

// conn is one accepted transport session. Its id doubles as the provisional
// client identity until registration. The write handle is serialized: two
// goroutines never interleave writes on the same socket.
type conn struct {
	id        string
	sock      *websocket.Conn
	writeMu   sync.Mutex
	pending   *pendingResponses
	handshake *auth.Handshake
}

func newConn(id string, sock *websocket.Conn) *conn {
	return &conn{
		id:        id,
		sock:      sock,
		pending:   newPendingResponses(),
		handshake: auth.NewHandshake(),
	}
}

// write sends one envelope, holding the per-connection write lock for the
// duration of the socket write.
func (c *conn) write(ctx context.Context, env protocol.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sock.Write(ctx, websocket.MessageText, data)
}

func (c *conn) close(code websocket.StatusCode, reason string) {
	_ = c.sock.Close(code, reason)
}
