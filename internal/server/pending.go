package server

import (
	"sync"

	"github.com/Androix777/kanjilab-server/pkg/protocol"
)

// pendingResponses matches asynchronous responses to outstanding requests
// sent to one client. Each slot is a one-shot channel keyed by correlation
// id; slots are removed on completion, on send failure and on connection
// teardown so they cannot leak.
type pendingResponses struct {
	mu     sync.Mutex
	closed bool
	slots  map[string]chan protocol.Envelope
}

func newPendingResponses() *pendingResponses {
	return &pendingResponses{slots: make(map[string]chan protocol.Envelope)}
}

// insert registers a slot for the correlation id and returns the channel the
// awaiting goroutine reads. A closed channel means the connection went away
// before the client answered.
func (p *pendingResponses) insert(correlationID string) <-chan protocol.Envelope {
	ch := make(chan protocol.Envelope, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		close(ch)
		return ch
	}
	p.slots[correlationID] = ch
	return ch
}

// complete fulfills the slot matching the envelope's correlation id. It
// reports whether the envelope was consumed; consumed envelopes skip the
// normal message-type dispatch.
func (p *pendingResponses) complete(env protocol.Envelope) bool {
	p.mu.Lock()
	ch, ok := p.slots[env.CorrelationID]
	if ok {
		delete(p.slots, env.CorrelationID)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	ch <- env
	close(ch)
	return true
}

// remove drops a slot without fulfilling it, closing the channel so the
// awaiting goroutine observes abandonment.
func (p *pendingResponses) remove(correlationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.slots[correlationID]; ok {
		delete(p.slots, correlationID)
		close(ch)
	}
}

// closeAll tears down every outstanding slot; called when the owning
// connection disconnects. Later inserts return an already-closed channel.
func (p *pendingResponses) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.slots {
		delete(p.slots, id)
		close(ch)
	}
}
