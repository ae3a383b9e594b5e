// Package service implements the document CRUD business layer behind the
// HTTP handlers: permission-checked reads with cache-aside Redis caching,
// writes followed by cache invalidation, collaborator management with mail
// notification, and version history access.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/cache"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/collab"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document/repository"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/mail"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/users"
)

var (
	ErrForbidden         = errors.New("insufficient permission")
	ErrUserNotFound      = errors.New("no account with that email")
	ErrInvalidPermission = errors.New("permission must be view or edit")
	ErrOwnerCollaborator = errors.New("owner cannot be added as collaborator")
)

const (
	detailTTL = 5 * time.Minute
	listTTL   = time.Minute
)

type Service struct {
	store  repository.Store
	cache  *cache.Cache
	inv    *cache.Invalidator
	mailer *mail.Sender
	users  *users.Service
	snaps  *collab.Snapshotter
}

func New(store repository.Store, c *cache.Cache, inv *cache.Invalidator, mailer *mail.Sender, us *users.Service, snaps *collab.Snapshotter) *Service {
	return &Service{store: store, cache: c, inv: inv, mailer: mailer, users: us, snaps: snaps}
}

// Create makes a new document owned by ownerID and records the initial
// snapshot at version 1. This is the explicit creation path; documents
// materialized implicitly through the realtime channel start unversioned.
func (s *Service) Create(ctx context.Context, ownerID, title, content string) (*document.Document, error) {
	if title == "" {
		title = "Untitled Document"
	}
	d := &document.Document{
		ID:      primitive.NewObjectID().Hex(),
		Title:   title,
		Content: content,
		Data:    content,
		Owner:   ownerID,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	if _, err := s.snaps.SnapshotRetry(ctx, d.ID, content, ownerID, collab.TriggerCreate); err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}
	s.inv.Invalidate(ctx, d.ID, ownerID)
	return s.store.FindByID(ctx, d.ID)
}

// Get returns a document if userID may read it. Detail views are cached
// per (document, user) so a permission revocation invalidates precisely.
func (s *Service) Get(ctx context.Context, docID, userID string) (*document.Document, error) {
	key := cache.DetailKey(docID, userID)
	if b, ok := s.cache.Get(ctx, key); ok {
		var d document.Document
		if err := json.Unmarshal(b, &d); err == nil {
			return &d, nil
		}
	}
	d, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !document.Decide(d, userID).CanRead() {
		return nil, ErrForbidden
	}
	if b, err := json.Marshal(d); err == nil {
		s.cache.SetWithTTL(ctx, key, b, detailTTL)
	}
	return d, nil
}

// List returns every document userID owns or collaborates on.
func (s *Service) List(ctx context.Context, userID string) ([]*document.Document, error) {
	key := cache.ListKey(userID)
	if b, ok := s.cache.Get(ctx, key); ok {
		var list []*document.Document
		if err := json.Unmarshal(b, &list); err == nil {
			return list, nil
		}
	}
	list, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(list); err == nil {
		s.cache.SetWithTTL(ctx, key, b, listTTL)
	}
	return list, nil
}

// Rename changes the title. Requires write permission.
func (s *Service) Rename(ctx context.Context, docID, userID, title string) error {
	d, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return err
	}
	if !document.Decide(d, userID).CanWrite() {
		return ErrForbidden
	}
	if err := s.store.Rename(ctx, docID, title); err != nil {
		return err
	}
	s.inv.InvalidateForAll(ctx, docID, d.ParticipantIDs())
	return nil
}

// Delete removes a document and all of its versions. Owner only.
func (s *Service) Delete(ctx context.Context, docID, userID string) error {
	d, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return err
	}
	if document.Decide(d, userID) != document.LevelOwner {
		return ErrForbidden
	}
	if err := s.store.Delete(ctx, docID); err != nil {
		return err
	}
	s.inv.InvalidateForAll(ctx, docID, d.ParticipantIDs())
	return nil
}

// AddCollaboratorByEmail grants view or edit access to the account holding
// the given email address, notifying them by mail. Owner only; granting
// again updates the permission in place.
func (s *Service) AddCollaboratorByEmail(ctx context.Context, docID, ownerID, email string, perm document.Permission) (*document.Document, error) {
	if perm != document.PermissionView && perm != document.PermissionEdit {
		return nil, ErrInvalidPermission
	}
	d, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if document.Decide(d, ownerID) != document.LevelOwner {
		return nil, ErrForbidden
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.ID == d.Owner {
		return nil, ErrOwnerCollaborator
	}
	if err := s.store.AddCollaborator(ctx, docID, document.Collaborator{UserID: u.ID, Permission: perm}); err != nil {
		return nil, err
	}
	s.inv.InvalidateForAll(ctx, docID, append(d.ParticipantIDs(), u.ID))
	s.mailer.SendAsync(mail.Message{
		To:      []string{u.Email},
		Subject: fmt.Sprintf("You were added to %q", d.Title),
		Body:    fmt.Sprintf("You now have %s access to the document %q.", perm, d.Title),
	})
	return s.store.FindByID(ctx, docID)
}

// RemoveCollaborator revokes a grant. Owner only.
func (s *Service) RemoveCollaborator(ctx context.Context, docID, ownerID, userID string) error {
	d, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return err
	}
	if document.Decide(d, ownerID) != document.LevelOwner {
		return ErrForbidden
	}
	if err := s.store.RemoveCollaborator(ctx, docID, userID); err != nil {
		return err
	}
	// the revoked user's cached views must go too
	s.inv.InvalidateForAll(ctx, docID, d.ParticipantIDs())
	return nil
}

// ListVersions returns the snapshot history, oldest first.
func (s *Service) ListVersions(ctx context.Context, docID, userID string) ([]*document.Version, error) {
	d, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !document.Decide(d, userID).CanRead() {
		return nil, ErrForbidden
	}
	return s.store.ListVersions(ctx, docID)
}

// GetVersion returns one snapshot.
func (s *Service) GetVersion(ctx context.Context, docID, userID string, n int64) (*document.Version, error) {
	d, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !document.Decide(d, userID).CanRead() {
		return nil, ErrForbidden
	}
	return s.store.GetVersion(ctx, docID, n)
}

// RestoreVersion rolls the live content back to snapshot n. The rollback is
// itself recorded as a new version; history is never rewritten. Requires
// write permission.
func (s *Service) RestoreVersion(ctx context.Context, docID, userID string, n int64) (*document.Version, error) {
	d, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !document.Decide(d, userID).CanWrite() {
		return nil, ErrForbidden
	}
	old, err := s.store.GetVersion(ctx, docID, n)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetContent(ctx, docID, old.Content, old.Content); err != nil {
		return nil, err
	}
	v, err := s.snaps.SnapshotRetry(ctx, docID, old.Content, userID, collab.TriggerRestore)
	if err != nil {
		return nil, err
	}
	s.inv.InvalidateForAll(ctx, docID, d.ParticipantIDs())
	return v, nil
}
