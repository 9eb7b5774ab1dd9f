package oauth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSigner() *Signer {
	return &Signer{
		ConsumerKey:    "ckey",
		ConsumerSecret: "csecret",
		Nonce:          func() string { return "abcdefghijklmnopqrstuvwxyz123456" },
		Now:            func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcXYZ012", "abcXYZ012"},
		{"-_.~", "-_.~"},
		{"", ""},
		{" ", "%20"},
		{"+", "%2B"},
		{"/", "%2F"},
		{"=", "%3D"},
		{"&", "%26"},
		{"a b", "a%20b"},
		{"https://example.com/a", "https%3A%2F%2Fexample.com%2Fa"},
		// multibyte runes encode byte-wise with uppercase hex
		{"é", "%C3%A9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentEncode(tt.in), "input %q", tt.in)
	}
}

func TestBaseStringSortsAndEncodes(t *testing.T) {
	got := BaseString("post", "https://example.com/api", []Param{
		{"b", "2"},
		{"a", "1"},
	})
	assert.Equal(t, "POST&https%3A%2F%2Fexample.com%2Fapi&a%3D1%26b%3D2", got)
}

func TestBaseStringDoubleEncodesValues(t *testing.T) {
	got := BaseString("POST", "https://example.com/api", []Param{
		{"q", "a b"},
	})
	// The pair is q=a%20b before the joined string is encoded again.
	assert.Equal(t, "POST&https%3A%2F%2Fexample.com%2Fapi&q%3Da%2520b", got)
}

func TestSignDeterministic(t *testing.T) {
	s := fixedSigner()
	params := []Param{{"url", "https://example.com/a b"}}

	first := s.Sign("POST", "https://example.com/api/1/bookmarks/add", params, "tkey", "tsecret")
	second := s.Sign("POST", "https://example.com/api/1/bookmarks/add", params, "tkey", "tsecret")
	assert.Equal(t, first, second)
}

func TestSignSignatureMatchesBaseString(t *testing.T) {
	s := fixedSigner()
	params := []Param{{"url", "https://example.com/a"}}
	sr := s.Sign("POST", "https://example.com/api/1/bookmarks/add", params, "tkey", "tsecret")

	all := []Param{
		{"url", "https://example.com/a"},
		{"oauth_consumer_key", "ckey"},
		{"oauth_nonce", "abcdefghijklmnopqrstuvwxyz123456"},
		{"oauth_signature_method", "HMAC-SHA1"},
		{"oauth_timestamp", "1700000000"},
		{"oauth_version", "1.0"},
		{"oauth_token", "tkey"},
	}
	base := BaseString("POST", "https://example.com/api/1/bookmarks/add", all)
	mac := hmac.New(sha1.New, []byte("csecret&tsecret"))
	mac.Write([]byte(base))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Contains(t, sr.Authorization, `oauth_signature="`+PercentEncode(want)+`"`)
}

func TestSignAuthorizationHeaderShape(t *testing.T) {
	s := fixedSigner()
	sr := s.Sign("post", "https://example.com/api", []Param{{"bookmark_id", "42"}}, "tkey", "tsecret")

	assert.Equal(t, "POST", sr.Method)
	require.True(t, strings.HasPrefix(sr.Authorization, "OAuth "))
	assert.Contains(t, sr.Authorization, `oauth_consumer_key="ckey"`)
	assert.Contains(t, sr.Authorization, `oauth_token="tkey"`)
	assert.Contains(t, sr.Authorization, `oauth_timestamp="1700000000"`)
	// Business parameters belong in the body, never in the header.
	assert.NotContains(t, sr.Authorization, "bookmark_id")
	assert.Contains(t, sr.Body, "bookmark_id=42")
	assert.Contains(t, sr.Body, "oauth_signature=")
}

func TestSignWithoutToken(t *testing.T) {
	s := fixedSigner()
	sr := s.Sign("POST", "https://example.com/api/1/oauth/access_token", []Param{
		{"x_auth_mode", "client_auth"},
	}, "", "")

	assert.NotContains(t, sr.Authorization, "oauth_token=")
	assert.NotContains(t, sr.Body, "oauth_token=")
	assert.Contains(t, sr.Body, "x_auth_mode=client_auth")
}

func TestNewNonce(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		n := NewNonce()
		require.Len(t, n, 32)
		for _, r := range n {
			assert.True(t, r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9',
				"nonce character %q", r)
		}
		assert.False(t, seen[n], "nonce repeated")
		seen[n] = true
	}
}
