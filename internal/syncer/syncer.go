// Package syncer reconciles entity stores with the persistence
// service: it decides when local edits are pushed, how remote
// snapshots fold back in, and which cached collections go stale after
// structural mutations. All methods run on the session's single
// logical thread; suspension happens only inside the resource calls.
package syncer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/seibert-lab/cura/internal/entity"
	"github.com/seibert-lab/cura/internal/notify"
)

// ErrEditConflict indicates a refresh attempted while local edits are
// pending. The working copy is left untouched; the caller must choose
// between discarding and keeping the edits.
var ErrEditConflict = errors.New("local edits pending, refresh would discard them")

// Resource is the persistence surface one coordinator drives. The
// remote package's EntityClient satisfies it; tests substitute fakes.
type Resource[T any] interface {
	Read(ctx context.Context, id string) (T, error)
	Update(ctx context.Context, id string, partial any) (T, error)
	Delete(ctx context.Context, id string) error
}

// Coordinator mediates between one entity kind's stores and its
// persistence resource.
type Coordinator[T any] struct {
	res        Resource[T]
	collection string
	inv        *Invalidations
	hub        *notify.Hub
	logger     *zap.Logger
}

// New builds a coordinator for one entity collection.
func New[T any](res Resource[T], collection string, inv *Invalidations, hub *notify.Hub, logger *zap.Logger) *Coordinator[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator[T]{
		res:        res,
		collection: collection,
		inv:        inv,
		hub:        hub,
		logger:     logger,
	}
}

// RequestSave pushes the store's working copy to the persistence
// service. A clean store is a successful no-op. The working copy is
// captured before the call suspends, so edits applied while the
// request is in flight are not sent by this save; they surface as
// still-edited once the response is folded in. Issuing a second save
// while one is pending is safe: each completion replaces the remote
// snapshot and the dirty flag is recomputed against it, so the
// later-completing response wins.
func (s *Coordinator[T]) RequestSave(ctx context.Context, store *entity.Store[T], id string) error {
	if !store.Edited() {
		return nil
	}
	local, ok := store.Local()
	if !ok {
		return entity.ErrNotLoaded
	}

	store.BeginOp()
	snapshot, err := s.res.Update(ctx, id, local)
	store.EndOp(err)
	if err != nil {
		s.logger.Warn("save failed", zap.String("collection", s.collection), zap.String("id", id), zap.Error(err))
		if s.hub != nil {
			s.hub.Error("save.failed", fmt.Sprintf("saving %s %s failed: %v", s.collection, id, err))
		}
		return fmt.Errorf("saving %s %s: %w", s.collection, id, err)
	}

	store.MarkSaved(snapshot)
	s.logger.Debug("save completed", zap.String("collection", s.collection), zap.String("id", id))
	if s.hub != nil {
		s.hub.Info("save.completed", fmt.Sprintf("%s %s saved", s.collection, id))
	}
	return nil
}

// RequestRefresh replaces the store with the latest remote snapshot.
// Pending local edits block the refresh with ErrEditConflict rather
// than being silently discarded; the caller resolves the conflict,
// typically by asking the user and then calling DiscardLocalEdits
// before retrying.
func (s *Coordinator[T]) RequestRefresh(ctx context.Context, store *entity.Store[T], id string) error {
	if store.Edited() {
		return fmt.Errorf("refreshing %s %s: %w", s.collection, id, ErrEditConflict)
	}

	store.BeginOp()
	snapshot, err := s.res.Read(ctx, id)
	store.EndOp(err)
	if err != nil {
		s.logger.Warn("refresh failed", zap.String("collection", s.collection), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("refreshing %s %s: %w", s.collection, id, err)
	}

	// The store may have picked up edits while the fetch was in
	// flight. Re-validate before overwriting.
	if store.Edited() {
		return fmt.Errorf("refreshing %s %s: %w", s.collection, id, ErrEditConflict)
	}
	store.Load(snapshot)
	return nil
}

// RequestDelete removes the entity and marks the owning collection
// stale so the next list read re-fetches.
func (s *Coordinator[T]) RequestDelete(ctx context.Context, id string) error {
	if err := s.res.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting %s %s: %w", s.collection, id, err)
	}
	if s.inv != nil {
		s.inv.MarkStale(s.collection)
	}
	s.logger.Debug("entity deleted", zap.String("collection", s.collection), zap.String("id", id))
	return nil
}

// Invalidate marks the coordinator's collection stale after any
// structural mutation performed outside RequestDelete.
func (s *Coordinator[T]) Invalidate() {
	if s.inv != nil {
		s.inv.MarkStale(s.collection)
	}
}
