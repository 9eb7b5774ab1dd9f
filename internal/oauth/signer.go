// Package oauth builds OAuth 1.0a signed request descriptors: signature
// base string, HMAC-SHA1 signature, and the Authorization header. The
// output must be bit-exact for the remote service to accept it, so every
// encoding step here follows RFC 5849 to the byte.
package oauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"sort"
	"strconv"
	"strings"
	"time"
)

const nonceLength = 32

const nonceAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Param is one request parameter. Parameters are carried as a slice, not a
// map, so signing order is explicit.
type Param struct {
	Key   string
	Value string
}

// SignedRequest describes one ready-to-send request. It carries no
// transport state; executing it is the transport's job.
type SignedRequest struct {
	Method        string
	URL           string
	Authorization string
	// Body is the x-www-form-urlencoded form containing every parameter,
	// oauth_* ones included, as the service expects.
	Body string
}

// Signer produces signed request descriptors for one consumer application.
// Nonce and Now are injectable so tests can pin the signature.
type Signer struct {
	ConsumerKey    string
	ConsumerSecret string

	Nonce func() string
	Now   func() time.Time
}

// NewSigner creates a Signer with the default nonce and clock sources.
func NewSigner(consumerKey, consumerSecret string) *Signer {
	return &Signer{
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		Nonce:          NewNonce,
		Now:            time.Now,
	}
}

// Sign builds a signed POST for url. params are the call's business
// parameters (bookmark_id, url, ...); token and tokenSecret are the
// per-user credentials, both empty during the xAuth exchange.
func (s *Signer) Sign(method, url string, params []Param, token, tokenSecret string) SignedRequest {
	all := make([]Param, 0, len(params)+5)
	all = append(all, params...)
	all = append(all,
		Param{"oauth_consumer_key", s.ConsumerKey},
		Param{"oauth_nonce", s.Nonce()},
		Param{"oauth_signature_method", "HMAC-SHA1"},
		Param{"oauth_timestamp", strconv.FormatInt(s.Now().Unix(), 10)},
		Param{"oauth_version", "1.0"},
	)
	if token != "" {
		all = append(all, Param{"oauth_token", token})
	}

	base := BaseString(method, url, all)
	signature := s.signature(base, tokenSecret)
	all = append(all, Param{"oauth_signature", signature})

	return SignedRequest{
		Method:        strings.ToUpper(method),
		URL:           url,
		Authorization: authorizationHeader(all),
		Body:          formBody(all),
	}
}

// BaseString builds the canonical signature base string from the method,
// the absolute URL (no query string), and every parameter including the
// oauth_* ones.
func BaseString(method, url string, params []Param) string {
	encoded := make([]Param, len(params))
	for i, p := range params {
		encoded[i] = Param{PercentEncode(p.Key), PercentEncode(p.Value)}
	}
	// Byte-wise ascending by encoded key; equal keys order by value.
	sort.Slice(encoded, func(i, j int) bool {
		if encoded[i].Key != encoded[j].Key {
			return encoded[i].Key < encoded[j].Key
		}
		return encoded[i].Value < encoded[j].Value
	})

	pairs := make([]string, len(encoded))
	for i, p := range encoded {
		pairs[i] = p.Key + "=" + p.Value
	}

	return strings.ToUpper(method) + "&" +
		PercentEncode(url) + "&" +
		PercentEncode(strings.Join(pairs, "&"))
}

// signature computes Base64(HMAC-SHA1(signing key, base string)). The
// signing key concatenates the encoded consumer secret and token secret;
// the token secret slot stays empty before authentication.
func (s *Signer) signature(base, tokenSecret string) string {
	key := PercentEncode(s.ConsumerSecret) + "&" + PercentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// PercentEncode encodes per RFC 5849 §3.6: unreserved characters
// A-Za-z0-9-_.~ pass through, every other byte becomes %XX uppercase hex.
func PercentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex(c >> 4))
		b.WriteByte(upperHex(c & 0x0f))
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return c >= 'A' && c <= 'Z' ||
		c >= 'a' && c <= 'z' ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

func upperHex(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + n - 10
}

// authorizationHeader renders only the oauth_* parameters, sorted, each as
// key="percent-encoded-value", prefixed "OAuth ".
func authorizationHeader(params []Param) string {
	var oauth []Param
	for _, p := range params {
		if strings.HasPrefix(p.Key, "oauth_") {
			oauth = append(oauth, p)
		}
	}
	sort.Slice(oauth, func(i, j int) bool { return oauth[i].Key < oauth[j].Key })

	pairs := make([]string, len(oauth))
	for i, p := range oauth {
		pairs[i] = p.Key + `="` + PercentEncode(p.Value) + `"`
	}
	return "OAuth " + strings.Join(pairs, ", ")
}

// formBody renders every parameter as an x-www-form-urlencoded body.
func formBody(params []Param) string {
	sorted := make([]Param, len(params))
	copy(sorted, params)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	pairs := make([]string, len(sorted))
	for i, p := range sorted {
		pairs[i] = PercentEncode(p.Key) + "=" + PercentEncode(p.Value)
	}
	return strings.Join(pairs, "&")
}

// NewNonce returns a fresh 32-character alphanumeric nonce. Together with
// the timestamp it guarantees distinct signatures for otherwise-identical
// retried requests.
func NewNonce() string {
	buf := make([]byte, nonceLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; a zeroed
		// buffer still yields a valid (if fixed) nonce.
		_ = err
	}
	for i, b := range buf {
		buf[i] = nonceAlphabet[int(b)%len(nonceAlphabet)]
	}
	return string(buf)
}
