package store

import (
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/models"
)

// =====================================================
// Highlight operations
// =====================================================

const highlightColumns = `id, highlight_id, bookmark_id, text, note, position,
	time_created, time_updated, sync_status`

// SavePendingHighlight inserts a locally created highlight in pending
// state. The server id stays NULL until a sync pushes the row.
func (s *Store) SavePendingHighlight(h *models.Highlight) error {
	now := time.Now().Unix()
	h.HighlightID = nil
	h.SyncStatus = models.StatusPending
	if h.TimeCreated == 0 {
		h.TimeCreated = now
	}
	h.TimeUpdated = now

	res, err := s.db.Exec(`
		INSERT INTO highlights (highlight_id, bookmark_id, text, note, position, time_created, time_updated, sync_status)
		VALUES (NULL, ?, ?, ?, ?, ?, ?, ?)`,
		h.BookmarkID, h.Text, h.Note, h.Position, h.TimeCreated, h.TimeUpdated, h.SyncStatus)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "saving highlight", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "reading highlight id", err)
	}
	h.ID = id
	return nil
}

// StoredHighlights returns the highlights of a bookmark as the reader
// should see them: rows awaiting deletion are already gone.
func (s *Store) StoredHighlights(bookmarkID int64) ([]models.Highlight, error) {
	rows, err := s.db.Query(`
		SELECT `+highlightColumns+`
		FROM highlights
		WHERE bookmark_id = ? AND sync_status != ?
		ORDER BY position, id`,
		bookmarkID, models.StatusPendingDelete)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "listing highlights", err)
	}
	defer rows.Close()

	out, err := scanHighlightRows(rows)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "scanning highlights", err)
	}
	return out, nil
}

// PendingHighlights returns every highlight not yet pushed, oldest first.
func (s *Store) PendingHighlights() ([]models.Highlight, error) {
	return s.highlightsByStatus(models.StatusPending)
}

// PendingDeletes returns every highlight awaiting a remote delete. Only
// rows with a server id qualify; a pending row deleted locally never had
// one and is removed without a server call.
func (s *Store) PendingDeletes() ([]models.Highlight, error) {
	rows, err := s.db.Query(`
		SELECT `+highlightColumns+`
		FROM highlights
		WHERE sync_status = ? AND highlight_id IS NOT NULL
		ORDER BY id`,
		models.StatusPendingDelete)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "listing pending deletes", err)
	}
	defer rows.Close()

	out, err := scanHighlightRows(rows)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "scanning pending deletes", err)
	}
	return out, nil
}

func (s *Store) highlightsByStatus(status string) ([]models.Highlight, error) {
	rows, err := s.db.Query(`
		SELECT `+highlightColumns+`
		FROM highlights
		WHERE sync_status = ?
		ORDER BY id`, status)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "listing highlights by status", err)
	}
	defer rows.Close()

	out, err := scanHighlightRows(rows)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "scanning highlights by status", err)
	}
	return out, nil
}

// MarkHighlightSynced attaches the server-assigned id after a successful
// push, moving the row from pending to synced.
func (s *Store) MarkHighlightSynced(localID, remoteID int64) error {
	res, err := s.db.Exec(`
		UPDATE highlights
		SET highlight_id = ?, sync_status = ?, time_updated = ?
		WHERE id = ?`,
		remoteID, models.StatusSynced, time.Now().Unix(), localID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "marking highlight synced", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("highlight %d not stored locally", localID))
	}
	return nil
}

// MarkHighlightDeleted applies a local delete. A pending row never
// reached the server, so it is removed outright; a synced row moves to
// pending_delete and stays until a sync confirms the remote delete.
func (s *Store) MarkHighlightDeleted(localID int64) error {
	var status string
	err := s.db.QueryRow(`SELECT sync_status FROM highlights WHERE id = ?`, localID).Scan(&status)
	if err == sql.ErrNoRows {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("highlight %d not stored locally", localID))
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "reading highlight state", err)
	}

	switch status {
	case models.StatusPending:
		_, err = s.db.Exec(`DELETE FROM highlights WHERE id = ?`, localID)
	case models.StatusSynced:
		_, err = s.db.Exec(`UPDATE highlights SET sync_status = ?, time_updated = ? WHERE id = ?`,
			models.StatusPendingDelete, time.Now().Unix(), localID)
	default:
		// Already pending_delete; deleting twice is a no-op.
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "deleting highlight", err)
	}
	return nil
}

// RemoveHighlight physically drops a row once the server has confirmed
// its deletion.
func (s *Store) RemoveHighlight(localID int64) error {
	if _, err := s.db.Exec(`DELETE FROM highlights WHERE id = ?`, localID); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "removing highlight", err)
	}
	return nil
}

// ReconcileHighlights merges the server's highlight list for one bookmark
// into the local table, in one transaction:
//
//  1. local synced rows are dropped; the incoming list replaces them
//  2. incoming ids the user has locally marked for deletion are skipped,
//     so a pull cannot resurrect a highlight deleted offline
//  3. the rest insert as fresh synced rows
//
// pending and pending_delete rows are never touched. An empty incoming
// list is a valid merge and leaves only unsynced rows behind.
func (s *Store) ReconcileHighlights(bookmarkID int64, incoming []models.Highlight) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "beginning highlight merge", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM highlights WHERE bookmark_id = ? AND sync_status = ?`,
		bookmarkID, models.StatusSynced); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "clearing synced highlights", err)
	}

	rows, err := tx.Query(`
		SELECT highlight_id FROM highlights
		WHERE bookmark_id = ? AND sync_status = ? AND highlight_id IS NOT NULL`,
		bookmarkID, models.StatusPendingDelete)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "reading pending deletes", err)
	}
	locallyDeleted := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return apperrors.Wrap(apperrors.ErrStorage, "scanning pending delete id", err)
		}
		locallyDeleted[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "iterating pending deletes", err)
	}

	for i := range incoming {
		h := incoming[i]
		if h.HighlightID == nil || locallyDeleted[*h.HighlightID] {
			continue
		}
		h.BookmarkID = bookmarkID
		h.SyncStatus = models.StatusSynced
		if err := insertHighlightTx(tx, &h); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "committing highlight merge", err)
	}
	return nil
}

// insertHighlightTx inserts one highlight inside a transaction, keeping
// its nullable server id intact. Shared by the merge and the schema
// rebuild.
func insertHighlightTx(tx *sql.Tx, h *models.Highlight) error {
	var remoteID interface{}
	if h.HighlightID != nil {
		remoteID = *h.HighlightID
	}
	_, err := tx.Exec(`
		INSERT INTO highlights (highlight_id, bookmark_id, text, note, position, time_created, time_updated, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		remoteID, h.BookmarkID, h.Text, h.Note, h.Position, h.TimeCreated, h.TimeUpdated, h.SyncStatus)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "inserting highlight", err)
	}
	return nil
}

// scanHighlightRows reads highlight rows whose column list matches
// highlightColumns, except the rebuild path which omits the surrogate id.
func scanHighlightRows(rows *sql.Rows) ([]models.Highlight, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	withID := len(cols) == 9

	var out []models.Highlight
	for rows.Next() {
		var h models.Highlight
		var remoteID sql.NullInt64
		if withID {
			err = rows.Scan(&h.ID, &remoteID, &h.BookmarkID, &h.Text, &h.Note, &h.Position,
				&h.TimeCreated, &h.TimeUpdated, &h.SyncStatus)
		} else {
			err = rows.Scan(&remoteID, &h.BookmarkID, &h.Text, &h.Note, &h.Position,
				&h.TimeCreated, &h.TimeUpdated, &h.SyncStatus)
		}
		if err != nil {
			return nil, err
		}
		if remoteID.Valid {
			v := remoteID.Int64
			h.HighlightID = &v
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
