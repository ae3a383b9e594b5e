package collab

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/models"
)

// Session is the per-connection state created after a successful handshake.
// It ties one websocket connection to one authenticated user and tracks the
// set of document rooms the connection currently occupies. A connection can
// occupy several rooms at once; the same user can also hold several sessions
// (multiple tabs).
type Session struct {
	ConnID string
	User   models.PublicUser

	mu   sync.Mutex
	docs map[string]struct{}
}

func NewSession(user models.PublicUser) *Session {
	return &Session{
		ConnID: newConnID(),
		User:   user,
		docs:   make(map[string]struct{}),
	}
}

func newConnID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *Session) Join(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[docID] = struct{}{}
}

func (s *Session) Leave(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, docID)
}

func (s *Session) Has(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[docID]
	return ok
}

// Joined returns the occupied document IDs in stable order.
func (s *Session) Joined() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for id := range s.docs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
