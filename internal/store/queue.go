package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/models"
)

// =====================================================
// Offline request queue
// =====================================================

// AppendRequest records one deferred mutation at the tail of the queue.
// The row is committed before return, so a request accepted while offline
// survives a crash.
func (s *Store) AppendRequest(rawurl string, params map[string]string) (*models.QueuedRequest, error) {
	req := &models.QueuedRequest{
		ID:        uuid.New().String(),
		URL:       rawurl,
		Params:    params,
		CreatedAt: time.Now().Unix(),
	}
	encoded, err := req.EncodeParams()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "encoding queued request", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO queued_requests (id, url, params, created_at)
		VALUES (?, ?, ?, ?)`,
		req.ID, req.URL, encoded, req.CreatedAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "appending queued request", err)
	}
	req.Seq, err = res.LastInsertId()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "reading queue sequence", err)
	}
	return req, nil
}

// PendingRequests returns the queue in arrival order.
func (s *Store) PendingRequests() ([]models.QueuedRequest, error) {
	rows, err := s.db.Query(`
		SELECT seq, id, url, params, created_at
		FROM queued_requests
		ORDER BY seq`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "listing queued requests", err)
	}
	defer rows.Close()

	var out []models.QueuedRequest
	for rows.Next() {
		var req models.QueuedRequest
		var encoded []byte
		if err := rows.Scan(&req.Seq, &req.ID, &req.URL, &encoded, &req.CreatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "scanning queued request", err)
		}
		if err := req.DecodeParams(encoded); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "decoding queued request", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "iterating queued requests", err)
	}
	return out, nil
}

// RemoveRequest drops one replayed entry.
func (s *Store) RemoveRequest(id string) error {
	res, err := s.db.Exec(`DELETE FROM queued_requests WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "removing queued request", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("queued request %s not found", id))
	}
	return nil
}

// QueueSize returns the number of deferred requests.
func (s *Store) QueueSize() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM queued_requests`).Scan(&n); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStorage, "counting queued requests", err)
	}
	return n, nil
}
