package collab

import (
	"context"
	"errors"
	"time"

	"github.com/SudiptoSatpati/DocSync-Backend/internal/document"
	"github.com/SudiptoSatpati/DocSync-Backend/internal/document/repository"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/logger"
	"github.com/SudiptoSatpati/DocSync-Backend/pkg/metrics"
)

// Snapshot trigger labels, also used as the Prometheus label value.
const (
	TriggerCreate  = "create"
	TriggerJoin    = "join"
	TriggerSave    = "save"
	TriggerLeave   = "leave"
	TriggerRestore = "restore"
)

const snapshotRetries = 3

// Archiver receives a copy of every snapshot for long-term object storage.
// It is optional and strictly best effort.
type Archiver interface {
	Put(ctx context.Context, docID string, version int64, content string) error
}

// Snapshotter allocates version numbers and records immutable snapshots.
// The number is allocated with a compare-and-swap on the document's version
// counter, so two concurrent snapshots of the same document can never claim
// the same number.
type Snapshotter struct {
	store   repository.Store
	archive Archiver
}

func NewSnapshotter(store repository.Store, archive Archiver) *Snapshotter {
	return &Snapshotter{store: store, archive: archive}
}

// Snapshot performs one allocation attempt: read the current counter,
// advance it from the observed value, then record the version document.
// Returns repository.ErrVersionConflict when another writer advanced the
// counter first.
func (s *Snapshotter) Snapshot(ctx context.Context, docID, content, byUser, trigger string) (*document.Version, error) {
	d, err := s.store.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := s.store.AdvanceVersion(ctx, docID, d.CurrentVersion); err != nil {
		return nil, err
	}
	v := &document.Version{
		DocID:     docID,
		Version:   d.CurrentVersion + 1,
		Content:   content,
		CreatedBy: byUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertVersion(ctx, v); err != nil {
		return nil, err
	}
	metrics.SnapshotsTotal.WithLabelValues(trigger).Inc()
	if s.archive != nil {
		if aerr := s.archive.Put(ctx, docID, v.Version, content); aerr != nil {
			logger.Warnf("snapshot archive %s v%d: %v", docID, v.Version, aerr)
		}
	}
	return v, nil
}

// SnapshotRetry runs Snapshot and retries a bounded number of times when the
// counter CAS loses a race. Any other error aborts immediately.
func (s *Snapshotter) SnapshotRetry(ctx context.Context, docID, content, byUser, trigger string) (*document.Version, error) {
	var lastErr error
	for attempt := 0; attempt < snapshotRetries; attempt++ {
		v, err := s.Snapshot(ctx, docID, content, byUser, trigger)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) && !errors.Is(err, repository.ErrDuplicateVersion) {
			return nil, err
		}
		metrics.SnapshotConflicts.Inc()
		lastErr = err
	}
	return nil, lastErr
}
