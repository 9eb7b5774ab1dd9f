package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/models"
)

// =====================================================
// Article operations
// =====================================================

const articleColumns = `bookmark_id, title, url, content_file, content_size, progress,
	starred, is_archived, time_added, time_updated, time_synced, sync_status,
	word_count, reading_time`

// UpsertArticle inserts or replaces the row for a bookmark id. Every
// column comes from the server except content_file and content_size,
// which record what is cached on this device and survive the upsert.
func (s *Store) UpsertArticle(a *models.Article) error {
	query := `
	INSERT INTO articles (` + articleColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(bookmark_id) DO UPDATE SET
		title = excluded.title,
		url = excluded.url,
		progress = excluded.progress,
		starred = excluded.starred,
		is_archived = excluded.is_archived,
		time_added = excluded.time_added,
		time_updated = excluded.time_updated,
		time_synced = excluded.time_synced,
		sync_status = excluded.sync_status,
		word_count = excluded.word_count,
		reading_time = excluded.reading_time
	`
	_, err := s.db.Exec(query,
		a.BookmarkID, a.Title, a.URL, a.ContentFile, a.ContentSize, a.Progress,
		a.Starred, a.IsArchived, a.TimeAdded, a.TimeUpdated, a.TimeSynced,
		a.SyncStatus, a.WordCount, a.ReadingTime)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "upserting article", err)
	}
	return nil
}

// GetArticle retrieves one article by bookmark id.
func (s *Store) GetArticle(bookmarkID int64) (*models.Article, error) {
	row := s.db.QueryRow(`SELECT `+articleColumns+` FROM articles WHERE bookmark_id = ?`, bookmarkID)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("article %d not stored locally", bookmarkID))
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "reading article", err)
	}
	return a, nil
}

// ListArticles returns all stored articles, newest first.
func (s *Store) ListArticles() ([]models.Article, error) {
	rows, err := s.db.Query(`SELECT ` + articleColumns + ` FROM articles ORDER BY time_added DESC, bookmark_id DESC`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "listing articles", err)
	}
	defer rows.Close()

	var out []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "scanning article", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "iterating articles", err)
	}
	return out, nil
}

// KnownBookmarkIDs returns the ids of all non-archived articles, the
// "have" set sent with an incremental pull.
func (s *Store) KnownBookmarkIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT bookmark_id FROM articles WHERE is_archived = 0 ORDER BY bookmark_id`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "listing bookmark ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStorage, "scanning bookmark id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "iterating bookmark ids", err)
	}
	return ids, nil
}

// SetStarred flips the optimistic local favorite flag.
func (s *Store) SetStarred(bookmarkID int64, starred bool) error {
	return s.setArticleFlag(bookmarkID, "starred", starred)
}

// SetArchived flips the optimistic local archive flag.
func (s *Store) SetArchived(bookmarkID int64, archived bool) error {
	return s.setArticleFlag(bookmarkID, "is_archived", archived)
}

func (s *Store) setArticleFlag(bookmarkID int64, column string, value bool) error {
	res, err := s.db.Exec(`UPDATE articles SET `+column+` = ? WHERE bookmark_id = ?`, value, bookmarkID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "updating "+column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("article %d not stored locally", bookmarkID))
	}
	return nil
}

// SetProgress records the local reading position.
func (s *Store) SetProgress(bookmarkID int64, progress float64) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	res, err := s.db.Exec(`UPDATE articles SET progress = ? WHERE bookmark_id = ?`, progress, bookmarkID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "updating progress", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("article %d not stored locally", bookmarkID))
	}
	return nil
}

// SetArticleContent records the cached content file for an article.
func (s *Store) SetArticleContent(bookmarkID int64, filename string, size int64) error {
	res, err := s.db.Exec(`UPDATE articles SET content_file = ?, content_size = ? WHERE bookmark_id = ?`,
		filename, size, bookmarkID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "recording cached content", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("article %d not stored locally", bookmarkID))
	}
	return nil
}

// DeleteArticles removes the given bookmark ids together with all of
// their highlights, cached content files, and thumbnails. Row removal is
// one transaction; file removal follows the commit, since a leftover
// cache file is harmless while a half-deleted row set is not.
func (s *Store) DeleteArticles(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	// Collect cache filenames before the rows disappear.
	rows, err := s.db.Query(`SELECT bookmark_id, content_file FROM articles WHERE bookmark_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "reading articles before delete", err)
	}
	type cached struct {
		id   int64
		file string
	}
	var files []cached
	for rows.Next() {
		var c cached
		if err := rows.Scan(&c.id, &c.file); err != nil {
			rows.Close()
			return apperrors.Wrap(apperrors.ErrStorage, "scanning article before delete", err)
		}
		files = append(files, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "iterating articles before delete", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "beginning article delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM highlights WHERE bookmark_id IN (`+placeholders+`)`, args...); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "deleting highlights of removed articles", err)
	}
	if _, err := tx.Exec(`DELETE FROM articles WHERE bookmark_id IN (`+placeholders+`)`, args...); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "deleting articles", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "committing article delete", err)
	}

	for _, c := range files {
		if c.file != "" {
			os.Remove(s.ContentPath(c.file))
		}
		os.Remove(s.ThumbnailPath(c.id))
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(sc scanner) (*models.Article, error) {
	var a models.Article
	err := sc.Scan(
		&a.BookmarkID, &a.Title, &a.URL, &a.ContentFile, &a.ContentSize, &a.Progress,
		&a.Starred, &a.IsArchived, &a.TimeAdded, &a.TimeUpdated, &a.TimeSynced,
		&a.SyncStatus, &a.WordCount, &a.ReadingTime,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
