package collab

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/cache"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document/repository"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/models"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	presence := NewPresence(store)
	snaps := NewSnapshotter(store, nil)
	inv := cache.NewInvalidator(cache.New(nil, ""))
	return NewCoordinator(store, presence, snaps, inv), store
}

func newTestClient(id, name string) *Client {
	u := models.PublicUser{ID: id, Username: name, Email: name + "@example.com"}
	return NewClient(NewSession(u), 64)
}

// drain collects everything currently queued for the client.
func drain(c *Client) []Envelope {
	var out []Envelope
	for {
		select {
		case ev := <-c.Outbox():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventsNamed(evs []Envelope, name string) []Envelope {
	var out []Envelope
	for _, ev := range evs {
		if ev.Event == name {
			out = append(out, ev)
		}
	}
	return out
}

func join(t *testing.T, co *Coordinator, c *Client, docID string) {
	t.Helper()
	co.HandleEvent(context.Background(), c, NewEnvelope(EventGetDocument, GetDocumentPayload{DocumentID: docID}))
}

func TestGetDocument_ImplicitCreate(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	a := newTestClient("u1", "alice")

	join(t, co, a, "d1")

	evs := drain(a)
	loads := eventsNamed(evs, EventLoadDocument)
	require.Len(t, loads, 1)
	var p LoadDocumentPayload
	require.NoError(t, json.Unmarshal(loads[0].Data, &p))
	require.Equal(t, "d1", p.DocumentID)
	require.Equal(t, "", p.Content)
	require.Equal(t, int64(0), p.CurrentVersion)

	d, err := store.FindByID(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, "u1", d.Owner)
	require.Equal(t, "Untitled Document", d.Title)

	// implicit creation records no initial snapshot
	list, _ := store.ListVersions(ctx, "d1")
	require.Empty(t, list)

	// and joining an empty room never snapshots either
	require.Equal(t, int64(0), d.CurrentVersion)
}

func TestGetDocument_AccessDenied(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{ID: "d1", Owner: "u1"}))

	b := newTestClient("u2", "bob")
	join(t, co, b, "d1")

	evs := drain(b)
	require.Empty(t, eventsNamed(evs, EventLoadDocument))
	errs := eventsNamed(evs, EventError)
	require.Len(t, errs, 1)
	var pe ErrorPayload
	require.NoError(t, json.Unmarshal(errs[0].Data, &pe))
	require.Equal(t, "d1", pe.DocumentID)

	// denial is not a state change
	require.False(t, b.Session.Has("d1"))
	require.Equal(t, 0, co.presence.Count("d1"))
}

func TestGetDocument_JoinSnapshotAndPresenceBroadcast(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{
		ID: "d1", Owner: "u1", Content: "draft",
		Collaborators: []document.Collaborator{{UserID: "u2", Permission: document.PermissionView}},
	}))

	a := newTestClient("u1", "alice")
	b := newTestClient("u2", "bob")

	join(t, co, a, "d1")
	drain(a)

	join(t, co, b, "d1")

	// joining an occupied room snapshots pre-collaboration state, by the joiner
	list, _ := store.ListVersions(ctx, "d1")
	require.Len(t, list, 1)
	require.Equal(t, int64(1), list[0].Version)
	require.Equal(t, "draft", list[0].Content)
	require.Equal(t, "u2", list[0].CreatedBy)

	// the peer gets user-joined with the post-mutation roster
	joined := eventsNamed(drain(a), EventUserJoined)
	require.Len(t, joined, 1)
	var pp PresencePayload
	require.NoError(t, json.Unmarshal(joined[0].Data, &pp))
	require.Equal(t, "u2", pp.User.ID)
	require.Equal(t, []string{"u1", "u2"}, pp.OnlineUsers)

	// the joiner does not see their own join
	require.Empty(t, eventsNamed(drain(b), EventUserJoined))
}

func TestSendChanges_RelayAndPermission(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{
		ID: "d1", Owner: "u1", Content: "x",
		Collaborators: []document.Collaborator{
			{UserID: "u2", Permission: document.PermissionEdit},
			{UserID: "u3", Permission: document.PermissionView},
		},
	}))

	a := newTestClient("u1", "alice")
	b := newTestClient("u2", "bob")
	v := newTestClient("u3", "viewer")
	for _, c := range []*Client{a, b, v} {
		join(t, co, c, "d1")
		drain(c)
	}
	drain(a)
	drain(b)

	delta := json.RawMessage(`{"ops":[{"insert":"hi"}]}`)
	co.HandleEvent(ctx, b, NewEnvelope(EventSendChanges, SendChangesPayload{Delta: delta}))

	// peers receive the delta verbatim, the sender does not
	got := eventsNamed(drain(a), EventReceiveChanges)
	require.Len(t, got, 1)
	var rp ReceiveChangesPayload
	require.NoError(t, json.Unmarshal(got[0].Data, &rp))
	require.Equal(t, "d1", rp.DocumentID)
	require.JSONEq(t, string(delta), string(rp.Delta))
	require.Empty(t, eventsNamed(drain(b), EventReceiveChanges))

	// a view-only sender gets a scoped error and nothing is broadcast
	drain(v)
	co.HandleEvent(ctx, v, NewEnvelope(EventSendChanges, SendChangesPayload{Delta: delta}))
	require.Len(t, eventsNamed(drain(v), EventError), 1)
	require.Empty(t, eventsNamed(drain(a), EventReceiveChanges))
	require.Empty(t, eventsNamed(drain(b), EventReceiveChanges))

	// content untouched either way
	d, _ := store.FindByID(ctx, "d1")
	require.Equal(t, "x", d.Content)
}

func TestCursorPosition_RelayWithIdentityAndTimestamp(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{
		ID: "d1", Owner: "u1",
		Collaborators: []document.Collaborator{{UserID: "u2", Permission: document.PermissionView}},
	}))

	a := newTestClient("u1", "alice")
	b := newTestClient("u2", "bob")
	join(t, co, a, "d1")
	join(t, co, b, "d1")
	drain(a)
	drain(b)

	// view-only users may broadcast cursors: not access-sensitive
	pos := json.RawMessage(`{"index":4}`)
	co.HandleEvent(ctx, b, NewEnvelope(EventCursorPosition, CursorPositionPayload{DocumentID: "d1", Position: pos}))

	moved := eventsNamed(drain(a), EventCursorMoved)
	require.Len(t, moved, 1)
	var cp CursorMovedPayload
	require.NoError(t, json.Unmarshal(moved[0].Data, &cp))
	require.Equal(t, "u2", cp.UserID)
	require.Equal(t, "bob", cp.Username)
	require.JSONEq(t, `{"index":4}`, string(cp.Position))
	require.False(t, cp.Timestamp.IsZero())

	require.Empty(t, eventsNamed(drain(b), EventCursorMoved))
}

func TestSaveDocument_PersistSnapshotPermission(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{
		ID: "d1", Owner: "u1",
		Collaborators: []document.Collaborator{{UserID: "u3", Permission: document.PermissionView}},
	}))

	a := newTestClient("u1", "alice")
	join(t, co, a, "d1")
	drain(a)

	co.HandleEvent(ctx, a, NewEnvelope(EventSaveDocument, SaveDocumentPayload{Data: json.RawMessage(`"hello"`)}))

	d, _ := store.FindByID(ctx, "d1")
	require.Equal(t, `"hello"`, d.Content)
	require.Equal(t, d.Content, d.Data)
	require.Equal(t, int64(1), d.CurrentVersion)

	v, err := store.GetVersion(ctx, "d1", 1)
	require.NoError(t, err)
	require.Equal(t, `"hello"`, v.Content)
	require.Equal(t, "u1", v.CreatedBy)

	// a view-only saver changes nothing and gets a scoped error
	viewer := newTestClient("u3", "viewer")
	join(t, co, viewer, "d1")
	drain(viewer)
	co.HandleEvent(ctx, viewer, NewEnvelope(EventSaveDocument, SaveDocumentPayload{Data: json.RawMessage(`"evil"`)}))
	require.Len(t, eventsNamed(drain(viewer), EventError), 1)
	d, _ = store.FindByID(ctx, "d1")
	require.Equal(t, `"hello"`, d.Content)
}

func TestSaveDocument_ConcurrentDistinctVersions(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{
		ID: "d1", Owner: "u1",
		Collaborators: []document.Collaborator{{UserID: "u2", Permission: document.PermissionEdit}},
	}))

	a := newTestClient("u1", "alice")
	b := newTestClient("u2", "bob")
	join(t, co, a, "d1")
	join(t, co, b, "d1")

	var wg sync.WaitGroup
	for _, c := range []*Client{a, b} {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			co.HandleEvent(ctx, c, NewEnvelope(EventSaveDocument, SaveDocumentPayload{Data: json.RawMessage(`"v"`)}))
		}(c)
	}
	wg.Wait()

	list, _ := store.ListVersions(ctx, "d1")
	d, _ := store.FindByID(ctx, "d1")

	// one join snapshot plus two save snapshots, all strictly increasing
	require.Equal(t, d.CurrentVersion, int64(len(list)))
	for i, v := range list {
		require.Equal(t, int64(i+1), v.Version)
	}
}

func TestDisconnect_LeaveSnapshotRules(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{
		ID: "d1", Owner: "u1", Content: "body",
		Collaborators: []document.Collaborator{{UserID: "u2", Permission: document.PermissionEdit}},
	}))

	a := newTestClient("u1", "alice")
	b := newTestClient("u2", "bob")
	join(t, co, a, "d1")
	join(t, co, b, "d1") // join snapshot -> v1
	drain(a)
	drain(b)

	// two present, one leaves: checkpoint attributed to the leaver
	co.Disconnect(ctx, b)
	list, _ := store.ListVersions(ctx, "d1")
	require.Len(t, list, 2)
	require.Equal(t, "u2", list[1].CreatedBy)
	require.Equal(t, "body", list[1].Content)

	// the peer sees user-left with the recomputed roster
	left := eventsNamed(drain(a), EventUserLeft)
	require.Len(t, left, 1)
	var pp PresencePayload
	require.NoError(t, json.Unmarshal(left[0].Data, &pp))
	require.Equal(t, "u2", pp.User.ID)
	require.Equal(t, []string{"u1"}, pp.OnlineUsers)

	// last member leaving produces no snapshot
	co.Disconnect(ctx, a)
	list, _ = store.ListVersions(ctx, "d1")
	require.Len(t, list, 2)
	require.Equal(t, 0, co.presence.Count("d1"))
}

func TestDisconnect_TwoTabsSameUser(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{ID: "d1", Owner: "u1", Content: "c"}))

	tab1 := newTestClient("u1", "alice")
	tab2 := newTestClient("u1", "alice")
	join(t, co, tab1, "d1")
	join(t, co, tab2, "d1")

	// presence is keyed by user identity: one entry, never two
	require.Equal(t, 1, co.presence.Count("d1"))

	// no join snapshot: the room never had more than one distinct user
	list, _ := store.ListVersions(ctx, "d1")
	require.Empty(t, list)

	// the first tab to close removes the user even though a tab remains
	co.Disconnect(ctx, tab1)
	require.Equal(t, 0, co.presence.Count("d1"))
}

func TestGetDocument_RejoinAfterRevocation(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{
		ID: "d1", Owner: "u1", Content: "secret",
		Collaborators: []document.Collaborator{{UserID: "u2", Permission: document.PermissionView}},
	}))

	b := newTestClient("u2", "bob")
	join(t, co, b, "d1")
	require.Len(t, eventsNamed(drain(b), EventLoadDocument), 1)

	// a repeated get-document on a held session re-reads access state
	require.NoError(t, store.RemoveCollaborator(ctx, "d1", "u2"))
	join(t, co, b, "d1")

	evs := drain(b)
	require.Empty(t, eventsNamed(evs, EventLoadDocument))
	errs := eventsNamed(evs, EventError)
	require.Len(t, errs, 1)
	var pe ErrorPayload
	require.NoError(t, json.Unmarshal(errs[0].Data, &pe))
	require.Equal(t, "d1", pe.DocumentID)
}

func TestDisconnect_EvictsRoomAndLockState(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{
		ID: "d1", Owner: "u1",
		Collaborators: []document.Collaborator{{UserID: "u2", Permission: document.PermissionEdit}},
	}))

	a := newTestClient("u1", "alice")
	b := newTestClient("u2", "bob")
	join(t, co, a, "d1")
	join(t, co, b, "d1")
	co.HandleEvent(ctx, a, NewEnvelope(EventSaveDocument, SaveDocumentPayload{Data: json.RawMessage(`"v"`)}))

	co.mu.Lock()
	require.Len(t, co.rooms, 1)
	co.mu.Unlock()

	co.Disconnect(ctx, b)
	co.Disconnect(ctx, a)

	// both tables drain with the last member: no per-document residue
	co.mu.Lock()
	defer co.mu.Unlock()
	require.Empty(t, co.rooms)
	require.Empty(t, co.locks)
}

func TestPerRoomIndependence(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &document.Document{
		ID: "owned", Owner: "u1",
		Collaborators: []document.Collaborator{{UserID: "u9", Permission: document.PermissionView}},
	}))
	require.NoError(t, store.Create(ctx, &document.Document{
		ID: "readonly", Owner: "u9",
		Collaborators: []document.Collaborator{{UserID: "u1", Permission: document.PermissionView}},
	}))

	a := newTestClient("u1", "alice")
	peer := newTestClient("u9", "nina")
	join(t, co, a, "owned")
	join(t, co, a, "readonly")
	join(t, co, peer, "owned")
	drain(a)
	drain(peer)

	// denial in one room must not abort the other
	co.HandleEvent(ctx, a, NewEnvelope(EventSendChanges, SendChangesPayload{Delta: json.RawMessage(`1`)}))

	errs := eventsNamed(drain(a), EventError)
	require.Len(t, errs, 1)
	var pe ErrorPayload
	require.NoError(t, json.Unmarshal(errs[0].Data, &pe))
	require.Equal(t, "readonly", pe.DocumentID)

	require.Len(t, eventsNamed(drain(peer), EventReceiveChanges), 1)
}

func TestScenario_OwnerSharesReadOnly(t *testing.T) {
	co, store := newTestCoordinator(t)
	ctx := context.Background()

	// owner creates explicitly (v1 snapshot) then saves "hello" (v2)
	require.NoError(t, store.Create(ctx, &document.Document{ID: "doc1", Owner: "uA", CurrentVersion: 1}))
	require.NoError(t, store.InsertVersion(ctx, &document.Version{DocID: "doc1", Version: 1, Content: "", CreatedBy: "uA"}))

	a := newTestClient("uA", "alice")
	join(t, co, a, "doc1")
	drain(a)
	co.HandleEvent(ctx, a, NewEnvelope(EventSaveDocument, SaveDocumentPayload{Data: json.RawMessage(`"hello"`)}))

	d, _ := store.FindByID(ctx, "doc1")
	require.Equal(t, int64(2), d.CurrentVersion)
	v2, err := store.GetVersion(ctx, "doc1", 2)
	require.NoError(t, err)
	require.Equal(t, `"hello"`, v2.Content)

	// B has no grant: denied
	b := newTestClient("uB", "bob")
	join(t, co, b, "doc1")
	require.Len(t, eventsNamed(drain(b), EventError), 1)

	// owner grants view; B's join now succeeds and sees "hello"
	require.NoError(t, store.AddCollaborator(ctx, "doc1", document.Collaborator{UserID: "uB", Permission: document.PermissionView}))
	join(t, co, b, "doc1")
	loads := eventsNamed(drain(b), EventLoadDocument)
	require.Len(t, loads, 1)
	var lp LoadDocumentPayload
	require.NoError(t, json.Unmarshal(loads[0].Data, &lp))
	require.Equal(t, `"hello"`, lp.Content)

	// B's send-changes is refused and not broadcast
	drain(a)
	co.HandleEvent(ctx, b, NewEnvelope(EventSendChanges, SendChangesPayload{Delta: json.RawMessage(`1`)}))
	require.Len(t, eventsNamed(drain(b), EventError), 1)
	require.Empty(t, eventsNamed(drain(a), EventReceiveChanges))
}

func TestUnknownEvent(t *testing.T) {
	co, _ := newTestCoordinator(t)
	c := newTestClient("u1", "alice")
	co.HandleEvent(context.Background(), c, Envelope{Event: "rewind-time"})
	require.Len(t, eventsNamed(drain(c), EventError), 1)
}
