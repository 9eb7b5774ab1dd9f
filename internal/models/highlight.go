package models

// Highlight represents a user-marked passage inside an article, optionally
// with a note. The local surrogate ID is stable for the row's lifetime;
// HighlightID is nil until the server has accepted the highlight.
//
// State machine:
//
//	pending        -> synced          (push-create succeeded, HighlightID set)
//	pending        -> (row removed)   (deleted locally before the server saw it)
//	synced         -> pending_delete  (user removed the highlight locally)
//	pending_delete -> (row removed)   (push-delete succeeded)
type Highlight struct {
	ID          int64  `db:"id" json:"id"`
	HighlightID *int64 `db:"highlight_id" json:"highlight_id,omitempty"`
	BookmarkID  int64  `db:"bookmark_id" json:"bookmark_id"`
	Text        string `db:"text" json:"text"`
	Note        string `db:"note" json:"note,omitempty"`
	// Position is the zero-based occurrence index of Text within the
	// article, not a character offset.
	Position    int    `db:"position" json:"position"`
	TimeCreated int64  `db:"time_created" json:"time_created"`
	TimeUpdated int64  `db:"time_updated" json:"time_updated"`
	SyncStatus  string `db:"sync_status" json:"sync_status"`
}

// TableName returns the table name for Highlight.
func (Highlight) TableName() string {
	return "highlights"
}

// Synced reports whether the server has confirmed this highlight.
func (h *Highlight) Synced() bool {
	return h.SyncStatus == StatusSynced
}

// RemoteID returns the server-assigned id, or 0 when the server has not
// accepted the highlight yet.
func (h *Highlight) RemoteID() int64 {
	if h.HighlightID == nil {
		return 0
	}
	return *h.HighlightID
}
