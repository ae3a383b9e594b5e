package repository

import (
	"context"
	"errors"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrVersionConflict signals that a concurrent snapshot advanced
	// currentVersion past the observed value. Callers retry by re-reading.
	ErrVersionConflict  = errors.New("version conflict")
	ErrVersionNotFound  = errors.New("version not found")
	ErrDuplicateVersion = errors.New("duplicate version number")
)

// Store is the narrow persistence interface the rest of the service depends
// on. Partial updates mirror findByIdAndUpdate semantics: untouched fields
// are left as stored.
type Store interface {
	Create(ctx context.Context, d *document.Document) error
	FindByID(ctx context.Context, id string) (*document.Document, error)
	// ListForUser returns documents the user owns or collaborates on.
	ListForUser(ctx context.Context, userID string) ([]*document.Document, error)
	SetContent(ctx context.Context, id, content, data string) error
	Rename(ctx context.Context, id, title string) error
	// AdvanceVersion performs a compare-and-set increment: it sets
	// currentVersion to observed+1 only if it still equals observed,
	// returning ErrVersionConflict otherwise.
	AdvanceVersion(ctx context.Context, id string, observed int64) error
	// AddCollaborator inserts or updates the entry for c.UserID, keeping the
	// list unique per user.
	AddCollaborator(ctx context.Context, id string, c document.Collaborator) error
	RemoveCollaborator(ctx context.Context, id, userID string) error
	AddOnlineUser(ctx context.Context, id, userID string) error
	RemoveOnlineUser(ctx context.Context, id, userID string) error
	// Delete removes the document and cascades deletion of its versions.
	Delete(ctx context.Context, id string) error

	InsertVersion(ctx context.Context, v *document.Version) error
	GetVersion(ctx context.Context, docID string, n int64) (*document.Version, error)
	ListVersions(ctx context.Context, docID string) ([]*document.Version, error)
}
