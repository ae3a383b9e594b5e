package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/cache"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document/repository"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/logger"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/metrics"
)

const defaultTitle = "Untitled Document"

// Coordinator routes realtime events between connected clients and the
// per-document rooms they occupy. Per-document state transitions (presence
// mutation, version advance) are serialized through a document-keyed mutex;
// events touching different documents proceed fully in parallel. A failure
// in one room never aborts processing of a connection's other rooms.
type Coordinator struct {
	store    repository.Store
	presence *Presence
	snaps    *Snapshotter
	inv      *cache.Invalidator

	mu    sync.Mutex
	rooms map[string]*room
	locks map[string]*docLock

	now func() time.Time
}

// docLock is a reference-counted per-document mutex. The count tracks
// holders and waiters so the entry can be evicted once the last one
// releases, keeping the lock table bounded by live documents the same way
// dropIfEmpty bounds the room table.
type docLock struct {
	mu   sync.Mutex
	refs int
}

func NewCoordinator(store repository.Store, presence *Presence, snaps *Snapshotter, inv *cache.Invalidator) *Coordinator {
	return &Coordinator{
		store:    store,
		presence: presence,
		snaps:    snaps,
		inv:      inv,
		rooms:    make(map[string]*room),
		locks:    make(map[string]*docLock),
		now:      time.Now,
	}
}

// lockDoc acquires the mutex for one document and returns its release func.
// The lock is never held across documents.
func (co *Coordinator) lockDoc(docID string) func() {
	co.mu.Lock()
	l, ok := co.locks[docID]
	if !ok {
		l = &docLock{}
		co.locks[docID] = l
	}
	l.refs++
	co.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		co.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(co.locks, docID)
		}
		co.mu.Unlock()
	}
}

func (co *Coordinator) room(docID string) *room {
	co.mu.Lock()
	defer co.mu.Unlock()
	r, ok := co.rooms[docID]
	if !ok {
		r = newRoom(docID)
		co.rooms[docID] = r
	}
	return r
}

func (co *Coordinator) lookupRoom(docID string) *room {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.rooms[docID]
}

func (co *Coordinator) dropIfEmpty(docID string) {
	co.mu.Lock()
	defer co.mu.Unlock()
	if r, ok := co.rooms[docID]; ok && r.empty() {
		delete(co.rooms, docID)
	}
}

// Register announces a freshly authenticated connection.
func (co *Coordinator) Register(c *Client) {
	metrics.ActiveConnections.Inc()
	logger.Debugf("connection %s registered for user %s", c.Session.ConnID, c.Session.User.ID)
}

// HandleEvent routes one inbound event for a connection. Errors are
// delivered to the originating client as scoped error events; they never
// terminate the connection.
func (co *Coordinator) HandleEvent(ctx context.Context, c *Client, env Envelope) {
	metrics.EventsTotal.WithLabelValues(env.Event).Inc()
	switch env.Event {
	case EventGetDocument:
		var p GetDocumentPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.DocumentID == "" {
			co.sendError(c, "", "malformed get-document payload")
			return
		}
		co.handleGetDocument(ctx, c, p)
	case EventSendChanges:
		var p SendChangesPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			co.sendError(c, "", "malformed send-changes payload")
			return
		}
		co.handleSendChanges(ctx, c, p.Delta)
	case EventCursorPosition:
		var p CursorPositionPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.DocumentID == "" {
			co.sendError(c, "", "malformed cursor-position payload")
			return
		}
		co.handleCursorPosition(c, p)
	case EventSaveDocument:
		var p SaveDocumentPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			co.sendError(c, "", "malformed save-document payload")
			return
		}
		co.handleSaveDocument(ctx, c, string(p.Data))
	default:
		co.sendError(c, "", "unknown event: "+env.Event)
	}
}

// handleGetDocument joins the client to a document room, creating the
// document on first access. The implicit create records no initial
// snapshot; only the explicit HTTP create does.
func (co *Coordinator) handleGetDocument(ctx context.Context, c *Client, p GetDocumentPayload) {
	docID := p.DocumentID
	uid := c.Session.User.ID

	if c.Session.Has(docID) {
		// already joined: re-send the current content, no state change.
		// Access is still re-evaluated so a revoked collaborator cannot
		// refetch content through a held session.
		d, err := co.store.FindByID(ctx, docID)
		if err != nil {
			logger.Errorf("get-document %s: %v", docID, err)
			co.sendError(c, docID, "document unavailable")
			return
		}
		if !document.Decide(d, uid).CanRead() {
			co.sendError(c, docID, ErrAccessDenied.Error())
			return
		}
		c.Send(NewEnvelope(EventLoadDocument, loadPayload(d)))
		return
	}

	unlock := co.lockDoc(docID)

	d, err := co.store.FindByID(ctx, docID)
	if errors.Is(err, repository.ErrNotFound) {
		title := p.Title
		if title == "" {
			title = defaultTitle
		}
		d = &document.Document{ID: docID, Title: title, Owner: uid}
		err = co.store.Create(ctx, d)
	}
	if err != nil {
		unlock()
		logger.Errorf("get-document %s: %v", docID, err)
		co.sendError(c, docID, "document unavailable")
		return
	}

	if !document.Decide(d, uid).CanRead() {
		unlock()
		co.sendError(c, docID, ErrAccessDenied.Error())
		return
	}

	co.presence.Add(ctx, docID, uid)
	r := co.room(docID)
	r.add(c)
	c.Session.Join(docID)
	members := co.presence.Count(docID)

	// checkpoint of pre-collaboration state when joining an occupied room
	if members > 1 {
		if _, serr := co.snaps.SnapshotRetry(ctx, docID, d.Content, uid, TriggerJoin); serr != nil {
			logger.Warnf("join snapshot %s: %v", docID, serr)
		}
	}
	unlock()

	c.Send(NewEnvelope(EventLoadDocument, loadPayload(d)))
	r.broadcast(NewEnvelope(EventUserJoined, PresencePayload{
		User:        c.Session.User,
		DocumentID:  docID,
		OnlineUsers: co.presence.List(docID),
	}), c)
}

// handleSendChanges relays an opaque delta to the peers of every room the
// connection occupies. No transformation, no merge; write permission is
// re-evaluated per room on every event.
func (co *Coordinator) handleSendChanges(ctx context.Context, c *Client, delta json.RawMessage) {
	uid := c.Session.User.ID
	for _, docID := range c.Session.Joined() {
		d, err := co.store.FindByID(ctx, docID)
		if err != nil {
			logger.Errorf("send-changes %s: %v", docID, err)
			co.sendError(c, docID, "document unavailable")
			continue
		}
		if !document.Decide(d, uid).CanWrite() {
			co.sendError(c, docID, "write permission denied")
			continue
		}
		if r := co.lookupRoom(docID); r != nil {
			r.broadcast(NewEnvelope(EventReceiveChanges, ReceiveChangesPayload{
				DocumentID: docID,
				Delta:      delta,
			}), c)
		}
	}
}

// handleCursorPosition relays a cursor update to room peers. Cursor
// visibility is not access-sensitive; no permission check is made.
func (co *Coordinator) handleCursorPosition(c *Client, p CursorPositionPayload) {
	if !c.Session.Has(p.DocumentID) {
		return
	}
	r := co.lookupRoom(p.DocumentID)
	if r == nil {
		return
	}
	r.broadcast(NewEnvelope(EventCursorMoved, CursorMovedPayload{
		DocumentID: p.DocumentID,
		UserID:     c.Session.User.ID,
		Username:   c.Session.User.Username,
		Position:   p.Position,
		Timestamp:  co.now().UTC(),
	}), c)
}

// handleSaveDocument persists the full content of every occupied room the
// user may write to, snapshots a new version, and invalidates cached reads
// for every participant.
func (co *Coordinator) handleSaveDocument(ctx context.Context, c *Client, content string) {
	uid := c.Session.User.ID
	for _, docID := range c.Session.Joined() {
		unlock := co.lockDoc(docID)

		d, err := co.store.FindByID(ctx, docID)
		if err != nil {
			unlock()
			logger.Errorf("save-document %s: %v", docID, err)
			co.sendError(c, docID, "document unavailable")
			continue
		}
		if !document.Decide(d, uid).CanWrite() {
			unlock()
			co.sendError(c, docID, "write permission denied")
			continue
		}
		if err := co.store.SetContent(ctx, docID, content, content); err != nil {
			unlock()
			logger.Errorf("save-document persist %s: %v", docID, err)
			co.sendError(c, docID, "save failed")
			continue
		}
		if _, err := co.snaps.SnapshotRetry(ctx, docID, content, uid, TriggerSave); err != nil {
			logger.Warnf("save snapshot %s: %v", docID, err)
		}
		unlock()

		co.inv.InvalidateForAll(ctx, docID, d.ParticipantIDs())
	}
}

// Disconnect runs the teardown for a closing connection: for every occupied
// room, remove presence, checkpoint on partial departure, and announce the
// leave. Abrupt transport closure takes exactly this path.
func (co *Coordinator) Disconnect(ctx context.Context, c *Client) {
	uid := c.Session.User.ID
	for _, docID := range c.Session.Joined() {
		unlock := co.lockDoc(docID)

		before := co.presence.Count(docID)
		co.presence.Remove(ctx, docID, uid)
		after := co.presence.Count(docID)

		if before > 1 && after > 0 {
			d, err := co.store.FindByID(ctx, docID)
			if err != nil {
				logger.Warnf("leave snapshot read %s: %v", docID, err)
			} else if _, serr := co.snaps.SnapshotRetry(ctx, docID, d.Content, uid, TriggerLeave); serr != nil {
				logger.Warnf("leave snapshot %s: %v", docID, serr)
			}
		}
		unlock()

		if r := co.lookupRoom(docID); r != nil {
			r.remove(c)
			r.broadcast(NewEnvelope(EventUserLeft, PresencePayload{
				User:        c.Session.User,
				DocumentID:  docID,
				OnlineUsers: co.presence.List(docID),
			}), c)
		}
		c.Session.Leave(docID)
		co.dropIfEmpty(docID)
	}
	c.Close()
	metrics.ActiveConnections.Dec()
	logger.Debugf("connection %s closed for user %s", c.Session.ConnID, uid)
}

func (co *Coordinator) sendError(c *Client, docID, msg string) {
	c.Send(NewEnvelope(EventError, ErrorPayload{Message: msg, DocumentID: docID}))
}

func loadPayload(d *document.Document) LoadDocumentPayload {
	return LoadDocumentPayload{
		DocumentID:     d.ID,
		Title:          d.Title,
		Content:        d.Content,
		Data:           d.Data,
		CurrentVersion: d.CurrentVersion,
	}
}
