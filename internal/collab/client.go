package collab

import (
	"sync"

	"github.com/SudiptoSatpati/DocSync-Backend/pkg/logger"
)

// Client couples a session with an outbound event queue. The transport
// (websocket write pump, or a test harness) drains Outbox; the coordinator
// only ever talks to the queue, never to the socket.
type Client struct {
	Session *Session

	out  chan Envelope
	once sync.Once
}

func NewClient(session *Session, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{Session: session, out: make(chan Envelope, buffer)}
}

// Send enqueues an event for delivery. A client whose queue is full is a
// slow consumer; the event is dropped rather than stalling the room.
func (c *Client) Send(ev Envelope) {
	select {
	case c.out <- ev:
	default:
		logger.Warnf("client %s: outbound queue full, dropping %s", c.Session.ConnID, ev.Event)
	}
}

// Outbox is the delivery channel drained by the transport.
func (c *Client) Outbox() <-chan Envelope { return c.out }

// Close releases the outbox. Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.out) })
}
