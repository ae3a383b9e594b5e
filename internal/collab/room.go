package collab

import "sync"

// room is the broadcast fan-out for one document. Membership here is per
// client (connection); the Presence registry separately tracks per-user
// membership for the online roster.
type room struct {
	docID string

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func newRoom(docID string) *room {
	return &room{docID: docID, clients: make(map[*Client]struct{})}
}

func (r *room) add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

func (r *room) remove(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
}

func (r *room) empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) == 0
}

// broadcast delivers ev to every member except the given client.
func (r *room) broadcast(ev Envelope, except *Client) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.clients {
		if c == except {
			continue
		}
		c.Send(ev)
	}
}
