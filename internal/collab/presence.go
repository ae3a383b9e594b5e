package collab

import (
	"context"
	"sort"
	"sync"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/document/repository"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/logger"
)

// Presence tracks which users are online in which document room. Membership
// is keyed by user identity, not by connection: a user with two tabs open on
// the same document counts once, and the first tab to disconnect removes
// them from the roster even though another tab is still attached.
//
// The in-memory set is authoritative for broadcasts; every mutation is also
// mirrored to the document record so list views can show who is online. The
// mirror is best effort.
type Presence struct {
	mu    sync.Mutex
	byDoc map[string]map[string]struct{}
	store repository.Store
}

func NewPresence(store repository.Store) *Presence {
	return &Presence{byDoc: make(map[string]map[string]struct{}), store: store}
}

// Add puts userID in the room's online set. Idempotent.
func (p *Presence) Add(ctx context.Context, docID, userID string) {
	p.mu.Lock()
	set, ok := p.byDoc[docID]
	if !ok {
		set = make(map[string]struct{})
		p.byDoc[docID] = set
	}
	set[userID] = struct{}{}
	p.mu.Unlock()

	if p.store != nil {
		if err := p.store.AddOnlineUser(ctx, docID, userID); err != nil {
			logger.Warnf("presence mirror add %s/%s: %v", docID, userID, err)
		}
	}
}

// Remove takes userID out of the room's online set. Idempotent.
func (p *Presence) Remove(ctx context.Context, docID, userID string) {
	p.mu.Lock()
	if set, ok := p.byDoc[docID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(p.byDoc, docID)
		}
	}
	p.mu.Unlock()

	if p.store != nil {
		if err := p.store.RemoveOnlineUser(ctx, docID, userID); err != nil {
			logger.Warnf("presence mirror remove %s/%s: %v", docID, userID, err)
		}
	}
}

// List returns the online user IDs for a room in stable order.
func (p *Presence) List(docID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.byDoc[docID]))
	for id := range p.byDoc[docID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of distinct users online in a room.
func (p *Presence) Count(docID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byDoc[docID])
}

// Has reports whether userID is currently online in the room.
func (p *Presence) Has(docID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byDoc[docID][userID]
	return ok
}
