// Package service is the engine facade the host (the CLI, or an embedding
// application) talks to. It owns the wiring between the API client, the
// offline queue, the sync engine, and the store, and is the only place
// that handles credentials in the clear.
package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mlauter/inkwell/internal/api"
	"github.com/mlauter/inkwell/internal/config"
	"github.com/mlauter/inkwell/internal/crypto"
	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/logging"
	"github.com/mlauter/inkwell/internal/media"
	"github.com/mlauter/inkwell/internal/models"
	"github.com/mlauter/inkwell/internal/netcheck"
	"github.com/mlauter/inkwell/internal/oauth"
	"github.com/mlauter/inkwell/internal/queue"
	"github.com/mlauter/inkwell/internal/store"
	syncengine "github.com/mlauter/inkwell/internal/sync"
)

// Service is the assembled engine.
type Service struct {
	cfg     *config.Config
	store   *store.Store
	client  *api.Client
	queue   *queue.Queue
	engine  *syncengine.Engine
	checker *netcheck.Checker
	sealKey []byte
}

// New assembles the engine from configuration. The store is opened (and
// rebuilt if its schema version is stale) before anything else wires up.
func New(cfg *config.Config) (*Service, error) {
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	sealKey, err := crypto.LoadOrCreateKey(cfg.DataDir)
	if err != nil {
		st.Close()
		return nil, apperrors.Wrap(apperrors.ErrStorage, "loading sealing key", err)
	}

	s := &Service{cfg: cfg, store: st, sealKey: sealKey}

	signer := oauth.NewSigner(cfg.ConsumerKey, cfg.ConsumerSecret)
	transport := api.NewTransport(api.DefaultHTTPClient(cfg.ConnectTimeout, cfg.TotalTimeout))
	s.client = api.NewClient(cfg.BaseURL, signer, transport, s, cfg.ListLimit)
	s.checker = netcheck.New(cfg.BaseURL, netcheck.DefaultProbeTimeout)
	s.queue = queue.New(s.client, st, s.checker)
	s.engine = syncengine.New(s.client, st, s.queue, s.checker)
	return s, nil
}

// Close releases the store.
func (s *Service) Close() error {
	return s.store.Close()
}

// OAuthToken supplies the current token pair to the API client, unsealing
// the secret on every call so a queued request replayed after a re-login
// signs under the new material.
func (s *Service) OAuthToken() (token, secret string, err error) {
	cred, err := s.store.Credential()
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return "", "", apperrors.New(apperrors.ErrAuthRequired, "not signed in")
		}
		return "", "", err
	}
	plain, err := crypto.Open(cred.TokenSecretSealed, s.sealKey)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ErrAuthRequired, "stored credential unreadable, sign in again", err)
	}
	return cred.Token, string(plain), nil
}

// Authenticate exchanges username/password for a token pair and persists
// it with the secret sealed. Credentials never touch the store in clear.
func (s *Service) Authenticate(ctx context.Context, username, password string) error {
	token, tokenSecret, err := s.client.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}

	sealed, err := crypto.Seal([]byte(tokenSecret), s.sealKey)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "sealing token secret", err)
	}
	if err := s.store.SaveCredential(&models.Credential{
		Username:          username,
		Token:             token,
		TokenSecretSealed: sealed,
	}); err != nil {
		return err
	}

	logging.Info("signed in", logging.Fields{"username": username})
	return nil
}

// Logout removes the credential and wipes every local table and cached
// file. Pending local work is discarded with the account.
func (s *Service) Logout() error {
	if err := s.store.DeleteCredential(); err != nil {
		return err
	}
	if err := s.store.Purge(); err != nil {
		return err
	}
	logging.Info("signed out, local data purged", nil)
	return nil
}

// SignedIn reports whether a credential is stored.
func (s *Service) SignedIn() bool {
	_, err := s.store.Credential()
	return err == nil
}

// Sync runs one full cycle.
func (s *Service) Sync(ctx context.Context) syncengine.Result {
	return s.engine.Sync(ctx)
}

// RunPeriodic syncs on the configured interval until ctx is cancelled.
func (s *Service) RunPeriodic(ctx context.Context) {
	s.engine.RunPeriodic(ctx, s.cfg.SyncInterval)
}

// mutate routes one mutating call through the offline queue and returns
// the distinguished QUEUED marker when the call was deferred, so the
// host can tell the user their action will complete later.
func (s *Service) mutate(ctx context.Context, url string, params map[string]string) error {
	queued, err := s.queue.EnqueueOrSend(ctx, url, params)
	if err != nil {
		return err
	}
	if queued {
		return apperrors.New(apperrors.ErrQueued, "action queued, will complete when back online")
	}
	return nil
}

// AddArticle saves a URL to the reading list.
func (s *Service) AddArticle(ctx context.Context, articleURL string) error {
	u, p := s.client.AddMutation(articleURL)
	return s.mutate(ctx, u, p)
}

// ArchiveArticle moves an article to the archive, optimistically flagging
// the local row so list views update before the next pull.
func (s *Service) ArchiveArticle(ctx context.Context, bookmarkID int64) error {
	if err := s.store.SetArchived(bookmarkID, true); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	u, p := s.client.ArchiveMutation(bookmarkID)
	return s.mutate(ctx, u, p)
}

// FavoriteArticle stars an article.
func (s *Service) FavoriteArticle(ctx context.Context, bookmarkID int64) error {
	if err := s.store.SetStarred(bookmarkID, true); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	u, p := s.client.StarMutation(bookmarkID)
	return s.mutate(ctx, u, p)
}

// UnfavoriteArticle unstars an article.
func (s *Service) UnfavoriteArticle(ctx context.Context, bookmarkID int64) error {
	if err := s.store.SetStarred(bookmarkID, false); err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	u, p := s.client.UnstarMutation(bookmarkID)
	return s.mutate(ctx, u, p)
}

// DownloadArticle fetches the readable text of an article, caches it
// under the data directory with an extension chosen by content sniffing,
// and records the cache file on the article row. Image payloads also get
// a thumbnail.
func (s *Service) DownloadArticle(ctx context.Context, bookmarkID int64) (string, error) {
	if _, err := s.store.GetArticle(bookmarkID); err != nil {
		return "", err
	}

	payload, err := s.client.Text(ctx, bookmarkID)
	if err != nil {
		return "", err
	}

	mt := mimetype.Detect(payload)
	ext := mt.Extension()
	if ext == "" {
		ext = ".html"
	}
	filename := fmt.Sprintf("%d%s", bookmarkID, ext)
	path := s.store.ContentPath(filename)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", apperrors.Wrap(apperrors.ErrStorage, "writing cached content", err)
	}
	if err := s.store.SetArticleContent(bookmarkID, filename, int64(len(payload))); err != nil {
		return "", err
	}

	if strings.HasPrefix(mt.String(), "image/") {
		if err := media.Thumbnail(payload, s.store.ThumbnailPath(bookmarkID)); err != nil {
			logging.Warn("thumbnail generation failed", logging.Fields{
				"bookmark_id": bookmarkID,
				"error":       err.Error(),
			})
		}
	}

	logging.Debug("cached article content", logging.Fields{
		"bookmark_id": bookmarkID,
		"file":        filename,
		"bytes":       len(payload),
	})
	return path, nil
}

// SavePendingHighlight stores a locally created highlight; the next sync
// cycle pushes it.
func (s *Service) SavePendingHighlight(bookmarkID int64, text, note string, position int) (*models.Highlight, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.New(apperrors.ErrInternal, "highlight text is empty")
	}
	h := &models.Highlight{
		BookmarkID: bookmarkID,
		Text:       text,
		Note:       note,
		Position:   position,
	}
	if err := s.store.SavePendingHighlight(h); err != nil {
		return nil, err
	}
	return h, nil
}

// DeleteHighlight deletes a highlight by its local id. Rows the server
// never saw disappear immediately; synced rows wait for the next cycle
// to confirm the remote delete.
func (s *Service) DeleteHighlight(localID int64) error {
	return s.store.MarkHighlightDeleted(localID)
}

// StoredHighlights lists an article's highlights as the reader sees them.
func (s *Service) StoredHighlights(bookmarkID int64) ([]models.Highlight, error) {
	return s.store.StoredHighlights(bookmarkID)
}

// SetProgress records the local reading position for an article.
func (s *Service) SetProgress(bookmarkID int64, progress float64) error {
	return s.store.SetProgress(bookmarkID, progress)
}

// ListArticles returns the local reading list, newest first.
func (s *Service) ListArticles() ([]models.Article, error) {
	return s.store.ListArticles()
}

// Status summarizes the engine's current state for the host.
type Status struct {
	SignedIn    bool
	Username    string
	Online      bool
	QueueSize   int
	Syncing     bool
	Articles    int
	LastChecked time.Time
}

// Status reports sign-in, connectivity, and queue depth.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		Online:      s.checker.Online(ctx),
		Syncing:     s.engine.Syncing(),
		LastChecked: time.Now(),
	}
	if cred, err := s.store.Credential(); err == nil {
		st.SignedIn = true
		st.Username = cred.Username
	}
	n, err := s.store.QueueSize()
	if err != nil {
		return nil, err
	}
	st.QueueSize = n
	articles, err := s.store.ListArticles()
	if err != nil {
		return nil, err
	}
	st.Articles = len(articles)
	return st, nil
}
