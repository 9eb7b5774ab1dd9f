// Package queue defers mutating calls made while the service is
// unreachable and replays them, in arrival order, when connectivity
// returns.
package queue

import (
	"context"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/logging"
	"github.com/mlauter/inkwell/internal/models"
)

// Sender replays one stored request. OAuth material is regenerated on
// every attempt, so an entry queued under an old token still replays
// correctly after a re-login.
type Sender interface {
	Send(ctx context.Context, url string, params map[string]string) error
}

// Storage is the durable tail the queue appends to and drains from.
type Storage interface {
	AppendRequest(url string, params map[string]string) (*models.QueuedRequest, error)
	PendingRequests() ([]models.QueuedRequest, error)
	RemoveRequest(id string) error
}

// Prober reports whether the service is reachable.
type Prober interface {
	Online(ctx context.Context) bool
}

// ReplayError records one entry that failed during a drain. The entry
// itself stays queued for the next attempt.
type ReplayError struct {
	URL    string
	Params map[string]string
	Err    error
}

// Queue routes mutations directly when online and into durable storage
// when not.
type Queue struct {
	sender  Sender
	storage Storage
	prober  Prober
}

// New wires a Queue from its three collaborators.
func New(sender Sender, storage Storage, prober Prober) *Queue {
	return &Queue{sender: sender, storage: storage, prober: prober}
}

// EnqueueOrSend sends the mutation immediately when the service is
// reachable, otherwise appends it to the durable queue. The returned
// bool reports whether the call was deferred.
func (q *Queue) EnqueueOrSend(ctx context.Context, url string, params map[string]string) (bool, error) {
	if q.prober.Online(ctx) {
		err := q.sender.Send(ctx, url, params)
		if err == nil {
			return false, nil
		}
		// A network failure mid-call still queues; anything else (auth,
		// rejection) surfaces, since retrying would repeat the refusal.
		if apperrors.CodeOf(err) != apperrors.ErrNetwork {
			return false, err
		}
		logging.Warn("send failed mid-call, queueing request", logging.Fields{"url": url})
	}

	if _, err := q.storage.AppendRequest(url, params); err != nil {
		return false, err
	}
	return true, nil
}

// Drain replays the queue in arrival order. A failed entry is reported
// and left in place, and the drain moves on to the next entry, so one
// rejected request cannot dam the queue.
func (q *Queue) Drain(ctx context.Context) (int, []ReplayError) {
	pending, err := q.storage.PendingRequests()
	if err != nil {
		return 0, []ReplayError{{Err: err}}
	}

	var drained int
	var failures []ReplayError
	for _, req := range pending {
		if ctx.Err() != nil {
			failures = append(failures, ReplayError{URL: req.URL, Params: req.Params, Err: ctx.Err()})
			break
		}
		if err := q.sender.Send(ctx, req.URL, req.Params); err != nil {
			logging.Warn("queued request replay failed", logging.Fields{
				"url":   req.URL,
				"error": err.Error(),
			})
			failures = append(failures, ReplayError{URL: req.URL, Params: req.Params, Err: err})
			continue
		}
		if err := q.storage.RemoveRequest(req.ID); err != nil {
			failures = append(failures, ReplayError{URL: req.URL, Params: req.Params, Err: err})
			continue
		}
		drained++
	}
	return drained, failures
}

// Size returns the number of deferred requests, when the storage
// supports counting.
func (q *Queue) Size() (int, error) {
	type counter interface {
		QueueSize() (int, error)
	}
	if c, ok := q.storage.(counter); ok {
		return c.QueueSize()
	}
	pending, err := q.storage.PendingRequests()
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}
