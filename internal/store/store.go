// Package store owns everything Inkwell persists: the article and
// highlight tables, the durable offline request queue, the credential row,
// and the cached content and thumbnail files under the data directory. No
// other component touches the database or those files directly.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/logging"
	"github.com/mlauter/inkwell/internal/models"
)

// Store is the local replica of the user's collection.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open opens (or creates) the store under dataDir.
//
// On a schema-version mismatch the store is dropped and recreated, since
// every synced row can be re-pulled. Highlights in pending or
// pending_delete state are the only rows the server cannot restore, so
// they are read out first and re-inserted into the fresh schema.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "creating data directory", err)
	}
	for _, sub := range []string{"content", "thumbs"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "creating cache directory", err)
		}
	}

	dbPath := filepath.Join(dataDir, "inkwell.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "opening database", err)
	}

	// SQLite allows one writer; the engine is single-writer by design.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.ErrStorage, "enabling WAL mode", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.ErrStorage, "enabling foreign keys", err)
	}

	s := &Store{db: db, dataDir: dataDir}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// ensureSchema creates or rebuilds the tables to match schemaVersion.
func (s *Store) ensureSchema() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "reading schema version", err)
	}

	if current != 0 && current != schemaVersion {
		logging.Warn("schema version mismatch, rebuilding store", logging.Fields{
			"have": current,
			"want": schemaVersion,
		})
		if err := s.rebuild(); err != nil {
			return err
		}
	} else if _, err := s.db.Exec(schema); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "creating schema", err)
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "writing schema version", err)
	}
	return nil
}

// rebuild drops and recreates every table, preserving highlights the
// server has never confirmed deleting or creating.
func (s *Store) rebuild() error {
	unsynced, err := s.unsyncedHighlights()
	if err != nil {
		// An unreadable old schema has nothing to salvage.
		logging.Warn("could not salvage unsynced highlights before rebuild", logging.Fields{"error": err.Error()})
		unsynced = nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "beginning rebuild", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(dropSchema); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "dropping old schema", err)
	}
	if _, err := tx.Exec(schema); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "recreating schema", err)
	}
	for _, h := range unsynced {
		if err := insertHighlightTx(tx, &h); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "committing rebuild", err)
	}

	if len(unsynced) > 0 {
		logging.Info("preserved unsynced highlights across rebuild", logging.Fields{"count": len(unsynced)})
	}
	return nil
}

// unsyncedHighlights reads the rows a rebuild must not lose.
func (s *Store) unsyncedHighlights() ([]models.Highlight, error) {
	rows, err := s.db.Query(`
		SELECT highlight_id, bookmark_id, text, note, position, time_created, time_updated, sync_status
		FROM highlights
		WHERE sync_status IN (?, ?)
		ORDER BY id`,
		models.StatusPending, models.StatusPendingDelete)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHighlightRows(rows)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the store's root directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// ContentPath returns the absolute path for a cached content filename.
func (s *Store) ContentPath(filename string) string {
	return filepath.Join(s.dataDir, "content", filename)
}

// ThumbnailPath returns the absolute path of a bookmark's thumbnail.
func (s *Store) ThumbnailPath(bookmarkID int64) string {
	return filepath.Join(s.dataDir, "thumbs", fmt.Sprintf("%d.jpg", bookmarkID))
}

// Purge wipes every table and cached file. Used on logout.
func (s *Store) Purge() error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "beginning purge", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"highlights", "articles", "queued_requests", "credentials"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return apperrors.Wrap(apperrors.ErrStorage, "purging "+table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "committing purge", err)
	}

	for _, sub := range []string{"content", "thumbs"} {
		dir := filepath.Join(s.dataDir, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			os.Remove(filepath.Join(dir, e.Name()))
		}
	}
	return nil
}
