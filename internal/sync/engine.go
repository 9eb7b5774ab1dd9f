// Package sync runs the staged synchronization cycle: drain the offline
// queue, push local highlight mutations, pull the incremental snapshot,
// and merge it into the store. Each stage commits independently; a
// failure stops later stages but never rolls back earlier ones.
package sync

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mlauter/inkwell/internal/api"
	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/logging"
	"github.com/mlauter/inkwell/internal/models"
	"github.com/mlauter/inkwell/internal/queue"
)

// Remote is the slice of the API client the engine drives.
type Remote interface {
	ListSince(ctx context.Context, have []int64) (*api.Snapshot, error)
	Highlights(ctx context.Context, bookmarkID int64) ([]api.Highlight, error)
	CreateHighlight(ctx context.Context, bookmarkID int64, text, note string, position int) (int64, error)
	DeleteHighlight(ctx context.Context, highlightID int64) error
}

// Storage is the slice of the local store the engine reads and merges into.
type Storage interface {
	KnownBookmarkIDs() ([]int64, error)
	UpsertArticle(a *models.Article) error
	DeleteArticles(ids []int64) error
	PendingHighlights() ([]models.Highlight, error)
	PendingDeletes() ([]models.Highlight, error)
	MarkHighlightSynced(localID, remoteID int64) error
	RemoveHighlight(localID int64) error
	ReconcileHighlights(bookmarkID int64, incoming []models.Highlight) error
}

// Drainer drains the offline request queue ahead of the cycle.
type Drainer interface {
	Drain(ctx context.Context) (int, []queue.ReplayError)
}

// Prober gates the cycle on connectivity.
type Prober interface {
	Online(ctx context.Context) bool
}

// Result summarizes one cycle.
type Result struct {
	Drained     int                 // queued requests replayed
	DrainErrors []queue.ReplayError // entries left queued
	Pushed      int                 // highlight creates confirmed
	Deleted     int                 // highlight deletes confirmed
	Pulled      int                 // articles upserted from the snapshot
	Removed     int                 // articles deleted per the snapshot
	Err         error               // first failure that stopped the cycle
}

// Engine coordinates sync cycles against one store.
type Engine struct {
	remote   Remote
	storage  Storage
	drainer  Drainer
	prober   Prober
	inFlight atomic.Bool
}

// New wires an Engine.
func New(remote Remote, storage Storage, drainer Drainer, prober Prober) *Engine {
	return &Engine{remote: remote, storage: storage, drainer: drainer, prober: prober}
}

// Syncing reports whether a cycle is currently running.
func (e *Engine) Syncing() bool {
	return e.inFlight.Load()
}

// Sync runs one full cycle. A second call while one is in flight fails
// fast; a started cycle always runs to completion or failure, since the
// push stages are idempotent and an interrupted pull could leave stale
// rows behind.
func (e *Engine) Sync(ctx context.Context) Result {
	if !e.inFlight.CompareAndSwap(false, true) {
		return Result{Err: apperrors.New(apperrors.ErrInternal, "sync already in progress")}
	}
	defer e.inFlight.Store(false)

	if !e.prober.Online(ctx) {
		return Result{Err: apperrors.New(apperrors.ErrNetworkUnavailable, "service unreachable, sync skipped")}
	}

	var res Result
	started := time.Now()

	// Stage 1: replay deferred mutations. Failures are collected, not
	// fatal; an entry stuck behind a server rejection must not block the
	// pull.
	res.Drained, res.DrainErrors = e.drainer.Drain(ctx)

	// Stage 2: push locally created highlights.
	res.Pushed = e.pushPending(ctx)

	// Stage 3: push locally deleted highlights.
	res.Deleted = e.pushDeletes(ctx)

	// Stage 4+5: pull the incremental snapshot and merge it.
	pulled, removed, err := e.pull(ctx)
	res.Pulled, res.Removed, res.Err = pulled, removed, err

	logging.Info("sync cycle finished", logging.Fields{
		"drained":      res.Drained,
		"drain_errors": len(res.DrainErrors),
		"pushed":       res.Pushed,
		"deleted":      res.Deleted,
		"pulled":       res.Pulled,
		"removed":      res.Removed,
		"elapsed":      time.Since(started).String(),
		"ok":           res.Err == nil,
	})
	return res
}

// pushPending creates pending highlights remotely, attaching the server
// id on success. A failed push leaves the row pending for the next cycle.
func (e *Engine) pushPending(ctx context.Context) int {
	pending, err := e.storage.PendingHighlights()
	if err != nil {
		logging.Error("listing pending highlights", err, nil)
		return 0
	}

	var pushed int
	for _, h := range pending {
		remoteID, err := e.remote.CreateHighlight(ctx, h.BookmarkID, h.Text, h.Note, h.Position)
		if err != nil {
			logging.Warn("highlight push failed", logging.Fields{
				"bookmark_id": h.BookmarkID,
				"error":       err.Error(),
			})
			continue
		}
		if err := e.storage.MarkHighlightSynced(h.ID, remoteID); err != nil {
			logging.Error("recording pushed highlight", err, logging.Fields{"highlight_id": remoteID})
			continue
		}
		pushed++
	}
	return pushed
}

// pushDeletes confirms pending_delete rows remotely and then removes
// them. A failed delete leaves the row for the next cycle.
func (e *Engine) pushDeletes(ctx context.Context) int {
	deletes, err := e.storage.PendingDeletes()
	if err != nil {
		logging.Error("listing pending highlight deletes", err, nil)
		return 0
	}

	var deleted int
	for _, h := range deletes {
		if err := e.remote.DeleteHighlight(ctx, h.RemoteID()); err != nil {
			logging.Warn("highlight delete failed", logging.Fields{
				"highlight_id": h.RemoteID(),
				"error":        err.Error(),
			})
			continue
		}
		if err := e.storage.RemoveHighlight(h.ID); err != nil {
			logging.Error("removing deleted highlight", err, logging.Fields{"highlight_id": h.RemoteID()})
			continue
		}
		deleted++
	}
	return deleted
}

// pull fetches the incremental snapshot and merges it: upsert each
// returned article, merge its highlights, then apply the deletion list.
func (e *Engine) pull(ctx context.Context) (pulled, removed int, err error) {
	have, err := e.storage.KnownBookmarkIDs()
	if err != nil {
		return 0, 0, err
	}

	snapshot, err := e.remote.ListSince(ctx, have)
	if err != nil {
		return 0, 0, err
	}

	now := time.Now().Unix()
	for _, b := range snapshot.Bookmarks {
		a := b.ToArticle()
		a.TimeSynced = now
		if err := e.storage.UpsertArticle(&a); err != nil {
			return pulled, removed, err
		}

		incoming, err := e.remote.Highlights(ctx, b.BookmarkID)
		if err != nil {
			// The article row landed; its highlights catch up next cycle.
			logging.Warn("highlight pull failed", logging.Fields{
				"bookmark_id": b.BookmarkID,
				"error":       err.Error(),
			})
			pulled++
			continue
		}
		merged := make([]models.Highlight, 0, len(incoming))
		for _, h := range incoming {
			merged = append(merged, h.ToModel())
		}
		if err := e.storage.ReconcileHighlights(b.BookmarkID, merged); err != nil {
			return pulled, removed, err
		}
		pulled++
	}

	if len(snapshot.DeleteIDs) > 0 {
		if err := e.storage.DeleteArticles(snapshot.DeleteIDs); err != nil {
			return pulled, removed, err
		}
		removed = len(snapshot.DeleteIDs)
	}
	return pulled, removed, nil
}

// RunPeriodic syncs every interval until ctx is cancelled. A tick that
// lands while a cycle is running is skipped, not queued.
func (e *Engine) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.Syncing() {
				continue
			}
			if res := e.Sync(ctx); res.Err != nil {
				logging.Warn("periodic sync failed", logging.Fields{"error": res.Err.Error()})
			}
		}
	}
}
