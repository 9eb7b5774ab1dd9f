package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlauter/inkwell/internal/config"
	apperrors "github.com/mlauter/inkwell/internal/errors"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/1/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("oauth_token=tok&oauth_token_secret=sec"))
	})
	mux.HandleFunc("/api/1/bookmarks/add", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"type":"bookmark","bookmark_id":101}]`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return httptest.NewServer(mux)
}

func newService(t *testing.T, baseURL string) *Service {
	t.Helper()
	cfg := &config.Config{
		DataDir:        t.TempDir(),
		BaseURL:        baseURL,
		ConsumerKey:    "ckey",
		ConsumerSecret: "csecret",
		ConnectTimeout: time.Second,
		TotalTimeout:   2 * time.Second,
		ListLimit:      200,
		SyncInterval:   time.Minute,
		LogLevel:       "error",
	}
	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestAuthenticateStoresSealedCredential(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()
	svc := newService(t, srv.URL)

	assert.False(t, svc.SignedIn())
	require.NoError(t, svc.Authenticate(context.Background(), "reader", "hunter2"))
	assert.True(t, svc.SignedIn())

	// The secret round-trips through the sealed row.
	token, secret, err := svc.OAuthToken()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "sec", secret)
}

func TestOAuthTokenRequiresSignIn(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()
	svc := newService(t, srv.URL)

	_, _, err := svc.OAuthToken()
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrAuthRequired, apperrors.CodeOf(err))
}

func TestAddArticleOnline(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()
	svc := newService(t, srv.URL)

	require.NoError(t, svc.Authenticate(context.Background(), "reader", "hunter2"))
	require.NoError(t, svc.AddArticle(context.Background(), "https://a.example/1"))

	st, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.QueueSize)
	assert.True(t, st.Online)
}

func TestAddArticleOfflineQueues(t *testing.T) {
	srv := fakeServer(t)
	svc := newService(t, srv.URL)
	require.NoError(t, svc.Authenticate(context.Background(), "reader", "hunter2"))
	srv.Close() // go offline

	err := svc.AddArticle(context.Background(), "https://a.example/1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrQueued, apperrors.CodeOf(err))

	st, stErr := svc.Status(context.Background())
	require.NoError(t, stErr)
	assert.Equal(t, 1, st.QueueSize)
	assert.False(t, st.Online)
}

func TestLogoutPurges(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()
	svc := newService(t, srv.URL)

	require.NoError(t, svc.Authenticate(context.Background(), "reader", "hunter2"))
	require.NoError(t, svc.Logout())

	assert.False(t, svc.SignedIn())
	articles, err := svc.ListArticles()
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestDownloadArticleUnknownID(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()
	svc := newService(t, srv.URL)

	_, err := svc.DownloadArticle(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestSavePendingHighlightRejectsEmptyText(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()
	svc := newService(t, srv.URL)

	_, err := svc.SavePendingHighlight(101, "   ", "", 0)
	assert.Error(t, err)

	h, err := svc.SavePendingHighlight(101, "a passage", "with note", 2)
	require.NoError(t, err)
	assert.NotZero(t, h.ID)

	hs, err := svc.StoredHighlights(101)
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, "a passage", hs[0].Text)
}
