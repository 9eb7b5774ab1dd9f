package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mlauter/inkwell/internal/errors"
)

func TestQueueFIFOOrder(t *testing.T) {
	s, _ := newStore(t)

	a, err := s.AppendRequest("https://svc.example/add", map[string]string{"url": "https://a.example/1"})
	require.NoError(t, err)
	b, err := s.AppendRequest("https://svc.example/archive", map[string]string{"bookmark_id": "42"})
	require.NoError(t, err)
	assert.Less(t, a.Seq, b.Seq)
	assert.NotEqual(t, a.ID, b.ID)

	pending, err := s.PendingRequests()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, a.ID, pending[0].ID)
	assert.Equal(t, b.ID, pending[1].ID)
	assert.Equal(t, map[string]string{"url": "https://a.example/1"}, pending[0].Params)
}

func TestQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.AppendRequest("https://svc.example/add", map[string]string{"url": "https://a.example/1"})
	require.NoError(t, err)
	_, err = s.AppendRequest("https://svc.example/star", map[string]string{"bookmark_id": "7"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	pending, err := s.PendingRequests()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "https://svc.example/add", pending[0].URL)
	assert.Equal(t, "https://svc.example/star", pending[1].URL)
}

func TestRemoveRequest(t *testing.T) {
	s, _ := newStore(t)

	req, err := s.AppendRequest("https://svc.example/add", map[string]string{"url": "https://a.example/1"})
	require.NoError(t, err)
	require.NoError(t, s.RemoveRequest(req.ID))

	n, err := s.QueueSize()
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(s.RemoveRequest(req.ID)))
}
