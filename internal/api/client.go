package api

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/oauth"
)

// Endpoint paths, relative to the configured service base URL. Every call
// is a POST with all parameters in the signed form body.
const (
	pathAccessToken     = "/api/1/oauth/access_token"
	pathList            = "/api/1/bookmarks/list"
	pathAdd             = "/api/1/bookmarks/add"
	pathArchive         = "/api/1/bookmarks/archive"
	pathStar            = "/api/1/bookmarks/star"
	pathUnstar          = "/api/1/bookmarks/unstar"
	pathText            = "/api/1/bookmarks/get_text"
	pathHighlights      = "/api/1/highlights/list"
	pathHighlightAdd    = "/api/1/highlights/add"
	pathHighlightDelete = "/api/1/highlights/delete"
)

// DefaultListLimit bounds one incremental list call.
const DefaultListLimit = 200

// CredentialSource supplies the current token pair at call time, so a
// queued request replayed after a re-login signs under the new token.
type CredentialSource interface {
	OAuthToken() (token, secret string, err error)
}

// Client is the typed surface over the remote service.
type Client struct {
	base      string
	signer    *oauth.Signer
	transport *Transport
	creds     CredentialSource
	listLimit int
}

// NewClient creates a Client. listLimit <= 0 selects DefaultListLimit.
func NewClient(base string, signer *oauth.Signer, transport *Transport, creds CredentialSource, listLimit int) *Client {
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &Client{
		base:      strings.TrimRight(base, "/"),
		signer:    signer,
		transport: transport,
		creds:     creds,
		listLimit: listLimit,
	}
}

func (c *Client) endpoint(path string) string {
	return c.base + path
}

// signedCall signs params with the current token pair and executes.
func (c *Client) signedCall(ctx context.Context, rawurl string, params []oauth.Param) ([]byte, error) {
	token, secret, err := c.creds.OAuthToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, apperrors.New(apperrors.ErrAuthRequired, "not signed in")
	}
	sr := c.signer.Sign("POST", rawurl, params, token, secret)
	return c.transport.Do(ctx, sr)
}

// Authenticate performs the xAuth token exchange and returns the token
// pair. It is the only call signed without a user token.
func (c *Client) Authenticate(ctx context.Context, username, password string) (token, tokenSecret string, err error) {
	params := []oauth.Param{
		{Key: "oauth_callback", Value: "oob"},
		{Key: "x_auth_mode", Value: "client_auth"},
		{Key: "x_auth_username", Value: username},
		{Key: "x_auth_password", Value: password},
	}
	sr := c.signer.Sign("POST", c.endpoint(pathAccessToken), params, "", "")
	body, err := c.transport.Do(ctx, sr)
	if err != nil {
		return "", "", err
	}

	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ErrAuthFailed, "malformed token response", err)
	}
	token = values.Get("oauth_token")
	tokenSecret = values.Get("oauth_token_secret")
	if token == "" || tokenSecret == "" {
		return "", "", apperrors.New(apperrors.ErrAuthFailed, "token response missing oauth_token")
	}
	return token, tokenSecret, nil
}

// ListSince pulls the incremental snapshot: new/changed bookmarks relative
// to the have set, their owning user record, and the deletion list.
func (c *Client) ListSince(ctx context.Context, have []int64) (*Snapshot, error) {
	params := []oauth.Param{
		{Key: "limit", Value: strconv.Itoa(c.listLimit)},
		{Key: "have", Value: formatHave(have)},
	}
	body, err := c.signedCall(ctx, c.endpoint(pathList), params)
	if err != nil {
		return nil, err
	}
	return parseSnapshot(body)
}

// formatHave renders the comma-terminated id list the list endpoint
// expects; the empty set renders as the empty string.
func formatHave(have []int64) string {
	if len(have) == 0 {
		return ""
	}
	var b strings.Builder
	for _, id := range have {
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteByte(',')
	}
	return b.String()
}

// Send executes one mutating call given its endpoint URL and business
// parameters. The offline queue replays entries through this method so
// OAuth material is regenerated on every attempt.
func (c *Client) Send(ctx context.Context, rawurl string, params map[string]string) error {
	_, err := c.signedCall(ctx, rawurl, sortedParams(params))
	return err
}

func sortedParams(params map[string]string) []oauth.Param {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]oauth.Param, len(keys))
	for i, k := range keys {
		out[i] = oauth.Param{Key: k, Value: params[k]}
	}
	return out
}

// Mutation constructors. Each returns the endpoint URL plus the business
// parameters of the call, the durable form a queued request is stored in.
// All four endpoints are idempotent by design: re-adding a URL, archiving
// an archived bookmark, or starring a starred one leaves remote state
// unchanged, which is what makes at-least-once replay safe.

// AddMutation saves a URL as a new bookmark.
func (c *Client) AddMutation(articleURL string) (string, map[string]string) {
	return c.endpoint(pathAdd), map[string]string{"url": articleURL}
}

// ArchiveMutation moves a bookmark to the archive.
func (c *Client) ArchiveMutation(bookmarkID int64) (string, map[string]string) {
	return c.endpoint(pathArchive), map[string]string{"bookmark_id": strconv.FormatInt(bookmarkID, 10)}
}

// StarMutation favorites a bookmark.
func (c *Client) StarMutation(bookmarkID int64) (string, map[string]string) {
	return c.endpoint(pathStar), map[string]string{"bookmark_id": strconv.FormatInt(bookmarkID, 10)}
}

// UnstarMutation unfavorites a bookmark.
func (c *Client) UnstarMutation(bookmarkID int64) (string, map[string]string) {
	return c.endpoint(pathUnstar), map[string]string{"bookmark_id": strconv.FormatInt(bookmarkID, 10)}
}

// Text fetches the readable HTML body for a bookmark.
func (c *Client) Text(ctx context.Context, bookmarkID int64) ([]byte, error) {
	params := []oauth.Param{{Key: "bookmark_id", Value: strconv.FormatInt(bookmarkID, 10)}}
	return c.signedCall(ctx, c.endpoint(pathText), params)
}

// Highlights lists the server-confirmed highlights for a bookmark.
func (c *Client) Highlights(ctx context.Context, bookmarkID int64) ([]Highlight, error) {
	params := []oauth.Param{{Key: "bookmark_id", Value: strconv.FormatInt(bookmarkID, 10)}}
	body, err := c.signedCall(ctx, c.endpoint(pathHighlights), params)
	if err != nil {
		return nil, err
	}
	return parseHighlights(body)
}

// CreateHighlight pushes one locally created highlight and returns the
// server-assigned highlight id.
func (c *Client) CreateHighlight(ctx context.Context, bookmarkID int64, text, note string, position int) (int64, error) {
	params := []oauth.Param{
		{Key: "bookmark_id", Value: strconv.FormatInt(bookmarkID, 10)},
		{Key: "text", Value: text},
		{Key: "position", Value: strconv.Itoa(position)},
	}
	if note != "" {
		params = append(params, oauth.Param{Key: "note", Value: note})
	}
	body, err := c.signedCall(ctx, c.endpoint(pathHighlightAdd), params)
	if err != nil {
		return 0, err
	}

	// The service answers with either a one-element array or a bare object.
	if hs, err := parseHighlights(body); err == nil && len(hs) > 0 {
		return hs[0].HighlightID, nil
	}
	var h Highlight
	if err := json.Unmarshal(body, &h); err == nil && h.HighlightID != 0 {
		return h.HighlightID, nil
	}
	return 0, apperrors.New(apperrors.ErrRemoteRejected, "highlight create response missing highlight_id")
}

// DeleteHighlight removes one server-confirmed highlight.
func (c *Client) DeleteHighlight(ctx context.Context, highlightID int64) error {
	params := []oauth.Param{{Key: "highlight_id", Value: strconv.FormatInt(highlightID, 10)}}
	_, err := c.signedCall(ctx, c.endpoint(pathHighlightDelete), params)
	return err
}
