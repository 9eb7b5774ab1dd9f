package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mlauter/inkwell/internal/errors"
	"github.com/mlauter/inkwell/internal/oauth"
)

func testRequest(url string) oauth.SignedRequest {
	return oauth.SignedRequest{
		Method:        "POST",
		URL:           url,
		Authorization: `OAuth oauth_consumer_key="ckey"`,
		Body:          "bookmark_id=42",
	}
}

func TestTransportClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode apperrors.ErrorCode
		wantMsg  string
	}{
		{name: "ok", status: 200, body: `[]`},
		{name: "created", status: 201, body: `{}`},
		{name: "no content", status: 204, body: ``},
		{
			name:     "unauthorized",
			status:   401,
			body:     `[{"type":"error","error_code":1011,"message":"oauth_timestamp is too far away"}]`,
			wantCode: apperrors.ErrAuthFailed,
			wantMsg:  "the service rejected the request credentials",
		},
		{
			name:     "error payload",
			status:   400,
			body:     `[{"type":"error","error_code":1240,"message":"Invalid URL specified"}]`,
			wantCode: apperrors.ErrRemoteRejected,
			wantMsg:  "Invalid URL specified",
		},
		{
			name:     "unparseable error body",
			status:   400,
			body:     `<html>bad request</html>`,
			wantCode: apperrors.ErrRemoteRejected,
			wantMsg:  "the service reported a problem (HTTP 400)",
		},
		{
			name:     "server error",
			status:   500,
			body:     ``,
			wantCode: apperrors.ErrRemoteRejected,
			wantMsg:  "the service reported a problem (HTTP 500)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			tr := NewTransport(srv.Client())
			body, err := tr.Do(context.Background(), testRequest(srv.URL))

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.body, string(body))
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTransportNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // connection refused from here on

	tr := NewTransport(DefaultHTTPClient(time.Second, 2*time.Second))
	_, err := tr.Do(context.Background(), testRequest(url))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNetwork, apperrors.CodeOf(err))
}

func TestTransportSendsSignedForm(t *testing.T) {
	var gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tr := NewTransport(srv.Client())
	_, err := tr.Do(context.Background(), testRequest(srv.URL))
	require.NoError(t, err)

	assert.Equal(t, `OAuth oauth_consumer_key="ckey"`, gotAuth)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.Equal(t, "bookmark_id=42", gotBody)
}
