package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/document"
)

// MemoryStore is an in-memory Store used for unit tests and local
// development without MongoDB. All methods return deep copies.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]*document.Document
	versions map[string][]*document.Version
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]*document.Document),
		versions: make(map[string][]*document.Version),
	}
}

func copyDoc(d *document.Document) *document.Document {
	out := *d
	out.Collaborators = append([]document.Collaborator(nil), d.Collaborators...)
	out.OnlineUsers = append([]string(nil), d.OnlineUsers...)
	return &out
}

func (m *MemoryStore) Create(ctx context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Collaborators == nil {
		d.Collaborators = []document.Collaborator{}
	}
	if d.OnlineUsers == nil {
		d.OnlineUsers = []string{}
	}
	m.docs[d.ID] = copyDoc(d)
	return nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDoc(d), nil
}

func (m *MemoryStore) ListForUser(ctx context.Context, userID string) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*document.Document{}
	for _, d := range m.docs {
		if document.Decide(d, userID).CanRead() {
			out = append(out, copyDoc(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryStore) SetContent(ctx context.Context, id, content, data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	d.Content = content
	d.Data = data
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) Rename(ctx context.Context, id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	d.Title = title
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) AdvanceVersion(ctx context.Context, id string, observed int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	if d.CurrentVersion != observed {
		return ErrVersionConflict
	}
	d.CurrentVersion = observed + 1
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) AddCollaborator(ctx context.Context, id string, c document.Collaborator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	for i := range d.Collaborators {
		if d.Collaborators[i].UserID == c.UserID {
			d.Collaborators[i].Permission = c.Permission
			d.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	d.Collaborators = append(d.Collaborators, c)
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) RemoveCollaborator(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	out := d.Collaborators[:0]
	for _, c := range d.Collaborators {
		if c.UserID != userID {
			out = append(out, c)
		}
	}
	d.Collaborators = out
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) AddOnlineUser(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	for _, u := range d.OnlineUsers {
		if u == userID {
			return nil
		}
	}
	d.OnlineUsers = append(d.OnlineUsers, userID)
	return nil
}

func (m *MemoryStore) RemoveOnlineUser(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	out := d.OnlineUsers[:0]
	for _, u := range d.OnlineUsers {
		if u != userID {
			out = append(out, u)
		}
	}
	d.OnlineUsers = out
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	delete(m.versions, id)
	return nil
}

func (m *MemoryStore) InsertVersion(ctx context.Context, v *document.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.versions[v.DocID] {
		if existing.Version == v.Version {
			return ErrDuplicateVersion
		}
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	cp := *v
	m.versions[v.DocID] = append(m.versions[v.DocID], &cp)
	return nil
}

func (m *MemoryStore) GetVersion(ctx context.Context, docID string, n int64) (*document.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.versions[docID] {
		if v.Version == n {
			cp := *v
			return &cp, nil
		}
	}
	return nil, ErrVersionNotFound
}

func (m *MemoryStore) ListVersions(ctx context.Context, docID string) ([]*document.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*document.Version, 0, len(m.versions[docID]))
	for _, v := range m.versions[docID] {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
