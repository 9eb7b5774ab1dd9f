package api

import (
	"encoding/json"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/models"
)

// The list endpoint returns one JSON array mixing object kinds, each
// tagged with a "type" field: "bookmark" rows, one "meta" row carrying
// delete_ids, and a "user" row the engine ignores.

// Bookmark is the wire form of one article.
type Bookmark struct {
	BookmarkID  int64       `json:"bookmark_id"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Progress    float64     `json:"progress"`
	Starred     models.Flag `json:"starred"`
	Archived    models.Flag `json:"archived"`
	Time        int64       `json:"time"`
	TimeUpdated int64       `json:"time_updated"`
	WordCount   int         `json:"word_count"`
	ReadingTime int         `json:"reading_time"`
}

// ToArticle converts the wire form to the local model. Cached-content
// columns are left zero; the store preserves its own values on upsert.
func (b Bookmark) ToArticle() models.Article {
	a := models.Article{
		BookmarkID:  b.BookmarkID,
		Title:       b.Title,
		URL:         b.URL,
		Progress:    b.Progress,
		Starred:     b.Starred.Bool(),
		IsArchived:  b.Archived.Bool(),
		TimeAdded:   b.Time,
		TimeUpdated: b.TimeUpdated,
		WordCount:   b.WordCount,
		ReadingTime: b.ReadingTime,
	}
	a.MarkSynced()
	return a
}

// Highlight is the wire form of one server-confirmed highlight.
type Highlight struct {
	HighlightID int64  `json:"highlight_id"`
	BookmarkID  int64  `json:"bookmark_id"`
	Text        string `json:"text"`
	Note        string `json:"note"`
	Position    int    `json:"position"`
	Time        int64  `json:"time"`
}

// ToModel converts the wire form to a local synced row.
func (h Highlight) ToModel() models.Highlight {
	remoteID := h.HighlightID
	return models.Highlight{
		HighlightID: &remoteID,
		BookmarkID:  h.BookmarkID,
		Text:        h.Text,
		Note:        h.Note,
		Position:    h.Position,
		TimeCreated: h.Time,
		TimeUpdated: h.Time,
		SyncStatus:  models.StatusSynced,
	}
}

// Snapshot is the normalized result of one incremental list call.
type Snapshot struct {
	Bookmarks []Bookmark
	DeleteIDs []int64
}

type envelope struct {
	Type string `json:"type"`
}

type meta struct {
	DeleteIDs models.IDList `json:"delete_ids"`
}

// parseSnapshot decodes the mixed-type list payload.
func parseSnapshot(body []byte) (*Snapshot, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemoteRejected, "malformed list response", err)
	}

	snap := &Snapshot{}
	for _, item := range raw {
		var env envelope
		if err := json.Unmarshal(item, &env); err != nil {
			continue
		}
		switch env.Type {
		case "bookmark":
			var b Bookmark
			if err := json.Unmarshal(item, &b); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrRemoteRejected, "malformed bookmark in list response", err)
			}
			snap.Bookmarks = append(snap.Bookmarks, b)
		case "meta":
			var m meta
			if err := json.Unmarshal(item, &m); err != nil {
				return nil, apperrors.Wrap(apperrors.ErrRemoteRejected, "malformed meta in list response", err)
			}
			snap.DeleteIDs = append(snap.DeleteIDs, m.DeleteIDs...)
		default:
			// "user" and anything unknown carry nothing the engine needs.
		}
	}
	return snap, nil
}

// parseHighlights decodes a highlight list payload.
func parseHighlights(body []byte) ([]Highlight, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemoteRejected, "malformed highlights response", err)
	}

	var out []Highlight
	for _, item := range raw {
		var env envelope
		if err := json.Unmarshal(item, &env); err != nil {
			continue
		}
		if env.Type != "" && env.Type != "highlight" {
			continue
		}
		var h Highlight
		if err := json.Unmarshal(item, &h); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrRemoteRejected, "malformed highlight in response", err)
		}
		if h.HighlightID == 0 {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}
