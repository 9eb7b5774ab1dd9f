// Package models provides data model definitions for the Inkwell engine.
package models

import "time"

// Sync status values for highlights. Articles carry the same column but it
// is informational only: article rows are server-authoritative apart from
// the optimistic local flags flipped by favorite/archive actions.
const (
	StatusSynced        = "synced"
	StatusPending       = "pending"
	StatusPendingDelete = "pending_delete"
)

// Article represents one remote bookmark mirrored locally.
type Article struct {
	BookmarkID  int64   `db:"bookmark_id" json:"bookmark_id"`
	Title       string  `db:"title" json:"title"`
	URL         string  `db:"url" json:"url"`
	ContentFile string  `db:"content_file" json:"content_file,omitempty"`
	ContentSize int64   `db:"content_size" json:"content_size,omitempty"`
	Progress    float64 `db:"progress" json:"progress"`
	Starred     bool    `db:"starred" json:"starred"`
	IsArchived  bool    `db:"is_archived" json:"is_archived"`
	TimeAdded   int64   `db:"time_added" json:"time_added"`
	TimeUpdated int64   `db:"time_updated" json:"time_updated"`
	TimeSynced  int64   `db:"time_synced" json:"time_synced"`
	SyncStatus  string  `db:"sync_status" json:"sync_status"`
	WordCount   int     `db:"word_count" json:"word_count"`
	ReadingTime int     `db:"reading_time" json:"reading_time"`
}

// TableName returns the table name for Article.
func (Article) TableName() string {
	return "articles"
}

// TimeAddedTime returns TimeAdded as time.Time.
func (a *Article) TimeAddedTime() time.Time {
	return time.Unix(a.TimeAdded, 0)
}

// TimeUpdatedTime returns TimeUpdated as time.Time.
func (a *Article) TimeUpdatedTime() time.Time {
	return time.Unix(a.TimeUpdated, 0)
}

// MarkSynced stamps the row with the time of the pull that delivered it.
func (a *Article) MarkSynced() {
	a.TimeSynced = time.Now().Unix()
	a.SyncStatus = StatusSynced
}
