package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	errs "bloodlink/internal/errors"
	"bloodlink/internal/remote"
	"bloodlink/internal/repository"
)

// entitySyncer reconciles one entity type between the local and remote
// stores. Upload must complete (or be attempted to completion) before
// Download, so a record uploaded this pass is not immediately re-downloaded
// with a stale pre-upload timestamp.
type entitySyncer interface {
	Name() string
	Upload(ctx context.Context) error
	Download(ctx context.Context) error
}

// Engine orchestrates bidirectional synchronization for all entity types.
// It is safe to invoke concurrently with itself: a sync already in flight
// for an entity type coalesces the new invocation for that type.
type Engine struct {
	syncers  []entitySyncer
	inFlight map[string]*sync.Mutex
	logger   *zap.Logger
}

// NewEngine wires the per-entity syncers over the given repositories and
// remote store.
func NewEngine(
	users repository.UserRepository,
	requests repository.RequestRepository,
	centers repository.CenterRepository,
	store remote.Store,
	logger *zap.Logger,
) *Engine {
	now := time.Now
	syncers := []entitySyncer{
		&userSyncer{repo: users, store: store, logger: logger, now: now},
		&requestSyncer{repo: requests, store: store, logger: logger, now: now},
		&centerSyncer{repo: centers, store: store, logger: logger, now: now},
	}
	inFlight := make(map[string]*sync.Mutex, len(syncers))
	for _, s := range syncers {
		inFlight[s.Name()] = &sync.Mutex{}
	}
	return &Engine{syncers: syncers, inFlight: inFlight, logger: logger}
}

// SyncAll reconciles every entity type, types running concurrently with
// each other. Per-record failures are logged and aggregated; the returned
// error is non-nil only when a whole phase failed (for example the remote
// listing call) or records failed partially, and never undoes the progress
// sibling records already made.
func (e *Engine) SyncAll(ctx context.Context) error {
	var g errgroup.Group
	errsCh := make(chan error, len(e.syncers))

	for _, s := range e.syncers {
		s := s
		g.Go(func() error {
			if err := e.syncOne(ctx, s); err != nil {
				errsCh <- err
			}
			return nil
		})
	}
	_ = g.Wait()
	close(errsCh)

	var all []error
	for err := range errsCh {
		all = append(all, err)
	}
	return errors.Join(all...)
}

// syncOne runs one entity type's upload then download phase under that
// type's in-flight guard. If another sync of the same type is already
// running the invocation is coalesced into it.
func (e *Engine) syncOne(ctx context.Context, s entitySyncer) error {
	guard := e.inFlight[s.Name()]
	if !guard.TryLock() {
		e.logger.Debug("sync already in flight, coalescing", zap.String("entity", s.Name()))
		return nil
	}
	defer guard.Unlock()

	var partial *errs.PartialSyncError

	if err := s.Upload(ctx); err != nil {
		// Upload failures never block the download phase: the failed
		// records stay dirty and retry next pass.
		var pse *errs.PartialSyncError
		if errors.As(err, &pse) {
			e.logger.Warn("upload completed with failures",
				zap.String("entity", s.Name()), zap.Int("failed", pse.Len()))
			partial = pse
		} else {
			e.logger.Error("upload phase failed", zap.String("entity", s.Name()), zap.Error(err))
			return err
		}
	}

	if err := s.Download(ctx); err != nil {
		var pse *errs.PartialSyncError
		if errors.As(err, &pse) {
			e.logger.Warn("download completed with failures",
				zap.String("entity", s.Name()), zap.Int("failed", pse.Len()))
			if partial == nil {
				partial = pse
			} else {
				partial.Failures = append(partial.Failures, pse.Failures...)
			}
		} else {
			e.logger.Error("download phase failed", zap.String("entity", s.Name()), zap.Error(err))
			return err
		}
	}

	if partial != nil {
		return partial
	}
	return nil
}
