package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/models"
)

func TestHighlightRoundTrip(t *testing.T) {
	s, _ := newStore(t)

	incoming := []models.Highlight{
		remoteHighlight(1, 12345, "first passage", 0),
		remoteHighlight(2, 12345, "second passage", 1),
		remoteHighlight(3, 12345, "third passage", 2),
	}
	incoming[1].Note = "a note"
	require.NoError(t, s.ReconcileHighlights(12345, incoming))

	got, err := s.StoredHighlights(12345)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, h := range got {
		assert.Equal(t, incoming[i].Text, h.Text)
		assert.Equal(t, incoming[i].Note, h.Note)
		assert.Equal(t, incoming[i].Position, h.Position)
		assert.Equal(t, int64(12345), h.BookmarkID)
		assert.Equal(t, models.StatusSynced, h.SyncStatus)
		require.NotNil(t, h.HighlightID)
	}
}

func TestPendingDeleteSurvivesPull(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.ReconcileHighlights(12345, []models.Highlight{
		remoteHighlight(9001, 12345, "to be deleted", 0),
	}))
	got, err := s.StoredHighlights(12345)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, s.MarkHighlightDeleted(got[0].ID))

	// The server still includes the highlight on the next pull; it must
	// not come back.
	require.NoError(t, s.ReconcileHighlights(12345, []models.Highlight{
		remoteHighlight(9001, 12345, "to be deleted", 0),
	}))

	visible, err := s.StoredHighlights(12345)
	require.NoError(t, err)
	assert.Empty(t, visible)

	deletes, err := s.PendingDeletes()
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.Equal(t, int64(9001), deletes[0].RemoteID())
	assert.Equal(t, models.StatusPendingDelete, deletes[0].SyncStatus)
}

func TestPendingHighlightUntouchedByPull(t *testing.T) {
	s, _ := newStore(t)

	pending := &models.Highlight{BookmarkID: 12345, Text: "local only", Position: 3}
	require.NoError(t, s.SavePendingHighlight(pending))

	require.NoError(t, s.ReconcileHighlights(12345, []models.Highlight{
		remoteHighlight(1, 12345, "from server", 0),
	}))

	pendings, err := s.PendingHighlights()
	require.NoError(t, err)
	require.Len(t, pendings, 1)
	assert.Equal(t, pending.ID, pendings[0].ID)
	assert.Equal(t, "local only", pendings[0].Text)
	assert.Nil(t, pendings[0].HighlightID)

	all, err := s.StoredHighlights(12345)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSyncThenDeleteTransition(t *testing.T) {
	s, _ := newStore(t)

	h := &models.Highlight{BookmarkID: 12345, Text: "mark me", Position: 0}
	require.NoError(t, s.SavePendingHighlight(h))
	require.NoError(t, s.MarkHighlightSynced(h.ID, 9999))

	// Now that the server knows the row, deleting it must queue a remote
	// delete rather than dropping it.
	require.NoError(t, s.MarkHighlightDeleted(h.ID))

	deletes, err := s.PendingDeletes()
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.Equal(t, int64(9999), deletes[0].RemoteID())

	// Deleting again is a no-op.
	require.NoError(t, s.MarkHighlightDeleted(h.ID))

	// Once the server confirms, the row goes away for good.
	require.NoError(t, s.RemoveHighlight(h.ID))
	deletes, err = s.PendingDeletes()
	require.NoError(t, err)
	assert.Empty(t, deletes)
}

func TestDeletePendingHighlightRemovesRow(t *testing.T) {
	s, _ := newStore(t)

	h := &models.Highlight{BookmarkID: 12345, Text: "never pushed", Position: 0}
	require.NoError(t, s.SavePendingHighlight(h))
	require.NoError(t, s.MarkHighlightDeleted(h.ID))

	pendings, err := s.PendingHighlights()
	require.NoError(t, err)
	assert.Empty(t, pendings)
	deletes, err := s.PendingDeletes()
	require.NoError(t, err)
	assert.Empty(t, deletes)
}

func TestMarkHighlightDeletedNotFound(t *testing.T) {
	s, _ := newStore(t)
	err := s.MarkHighlightDeleted(404)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestReconcileEmptyIncoming(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.ReconcileHighlights(12345, []models.Highlight{
		remoteHighlight(1, 12345, "stale", 0),
	}))
	pending := &models.Highlight{BookmarkID: 12345, Text: "local only", Position: 1}
	require.NoError(t, s.SavePendingHighlight(pending))

	// An empty server list clears synced rows but never unsynced ones.
	require.NoError(t, s.ReconcileHighlights(12345, nil))

	got, err := s.StoredHighlights(12345)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.StatusPending, got[0].SyncStatus)

	require.NoError(t, s.ReconcileHighlights(12345, []models.Highlight{}))
	got, err = s.StoredHighlights(12345)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReconcileReplacesSyncedSet(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.ReconcileHighlights(12345, []models.Highlight{
		remoteHighlight(1, 12345, "old one", 0),
		remoteHighlight(2, 12345, "old two", 1),
	}))
	require.NoError(t, s.ReconcileHighlights(12345, []models.Highlight{
		remoteHighlight(2, 12345, "updated two", 1),
		remoteHighlight(3, 12345, "new three", 2),
	}))

	got, err := s.StoredHighlights(12345)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "updated two", got[0].Text)
	assert.Equal(t, "new three", got[1].Text)
}

func TestReconcileScopedToBookmark(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.ReconcileHighlights(111, []models.Highlight{
		remoteHighlight(1, 111, "article one", 0),
	}))
	require.NoError(t, s.ReconcileHighlights(222, []models.Highlight{
		remoteHighlight(2, 222, "article two", 0),
	}))

	// Merging article 111 again must not disturb article 222.
	require.NoError(t, s.ReconcileHighlights(111, nil))

	one, err := s.StoredHighlights(111)
	require.NoError(t, err)
	assert.Empty(t, one)
	two, err := s.StoredHighlights(222)
	require.NoError(t, err)
	assert.Len(t, two, 1)
}
