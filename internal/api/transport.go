// Package api talks to the remote bookmarking service: it executes signed
// requests, classifies outcomes, and exposes one method per endpoint.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/oauth"
)

// Doer executes one HTTP request. *http.Client satisfies it; tests
// substitute a fake.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Transport executes signed requests and classifies the outcome as
// success, auth error, remote rejection, or network error.
type Transport struct {
	client Doer
}

// NewTransport creates a Transport over the given Doer.
func NewTransport(client Doer) *Transport {
	return &Transport{client: client}
}

// DefaultHTTPClient builds the engine's HTTP client with independent
// connect and total timeout budgets.
func DefaultHTTPClient(connectTimeout, totalTimeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: totalTimeout,
		Transport: &http.Transport{
			DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout: connectTimeout,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

// Do executes one signed request and returns the response body on success.
// Classification:
//   - 2xx: success, body returned
//   - 401: AUTH_FAILED with a fixed message
//   - other >=400: REMOTE_REJECTED carrying the server's message when the
//     body is a JSON error array, a generic message otherwise
//   - connection-level failure: NETWORK_ERROR
func (t *Transport) Do(ctx context.Context, sr oauth.SignedRequest) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, sr.Method, sr.URL, strings.NewReader(sr.Body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, "building request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", sr.Authorization)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrNetwork, "reading response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperrors.New(apperrors.ErrAuthFailed, "the service rejected the request credentials")
	default:
		return nil, apperrors.New(apperrors.ErrRemoteRejected, serverMessage(body, resp.StatusCode))
	}
}

// serverMessage extracts the error message from a JSON error payload, or
// falls back to a generic message built from the HTTP status.
func serverMessage(body []byte, status int) string {
	var items []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &items); err == nil {
		for _, item := range items {
			if item.Type == "error" && item.Message != "" {
				return item.Message
			}
		}
	}
	return fmt.Sprintf("the service reported a problem (HTTP %d)", status)
}
