// Package header provides typed request headers. A Decoder knows its header
// name and how to turn the raw value into T.
package header

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"
)

// ErrMalformed wraps every decode failure of the built-in headers.
var ErrMalformed = errors.New("header: malformed value")

// Decoder decodes one named header.
type Decoder[T any] interface {
	// Name is the canonical header name.
	Name() string
	Decode(raw string) (T, error)
}

// Codec is a Decoder that can also render T back into a header value.
type Codec[T any] interface {
	Decoder[T]
	Encode(v T) string
}

// Set writes v into h under c's name.
func Set[T any](h http.Header, c Codec[T], v T) { h.Set(c.Name(), c.Encode(v)) }

func malformed(name, raw string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrMalformed, name, raw, cause)
	}
	return fmt.Errorf("%w: %s %q", ErrMalformed, name, raw)
}

type contentLength struct{}

// ContentLength decodes Content-Length as a non-negative byte count.
func ContentLength() Codec[int64] { return contentLength{} }

func (contentLength) Name() string { return "Content-Length" }

func (c contentLength) Decode(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, malformed(c.Name(), raw, err)
	}
	if n < 0 {
		return 0, malformed(c.Name(), raw, nil)
	}
	return n, nil
}

func (contentLength) Encode(n int64) string { return strconv.FormatInt(n, 10) }

type contentType struct{}

// ContentType decodes Content-Type into a media type with parameters.
func ContentType() Codec[contenttype.MediaType] { return contentType{} }

func (contentType) Name() string { return "Content-Type" }

func (c contentType) Decode(raw string) (contenttype.MediaType, error) {
	mt, err := contenttype.ParseMediaType(raw)
	if err != nil {
		return contenttype.MediaType{}, malformed(c.Name(), raw, err)
	}
	return mt, nil
}

func (contentType) Encode(mt contenttype.MediaType) string { return mt.String() }

// text is a header whose value is any non-blank string.
type text struct{ name string }

// Named returns a string header called name. Blank values are malformed.
func Named(name string) Codec[string] { return text{name: http.CanonicalHeaderKey(name)} }

// Host decodes the Host header.
func Host() Codec[string] { return host{} }

// UserAgent decodes the User-Agent header.
func UserAgent() Codec[string] { return text{name: "User-Agent"} }

func (t text) Name() string { return t.name }

func (t text) Decode(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", malformed(t.name, raw, nil)
	}
	return v, nil
}

func (text) Encode(v string) string { return v }

type host struct{}

func (host) Name() string { return "Host" }

func (h host) Decode(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.ContainsAny(v, " \t/?#@") {
		return "", malformed(h.Name(), raw, nil)
	}
	return v, nil
}

func (host) Encode(v string) string { return v }

type bearer struct{}

// Bearer extracts the token of an "Authorization: Bearer <token>" header.
// The token is not verified.
func Bearer() Codec[string] { return bearer{} }

func (bearer) Name() string { return "Authorization" }

func (b bearer) Decode(raw string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(raw), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", malformed(b.Name(), raw, errors.New("expected Bearer scheme"))
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", malformed(b.Name(), raw, errors.New("empty token"))
	}
	return token, nil
}

func (bearer) Encode(token string) string { return "Bearer " + token }

type requestID struct{}

// RequestID decodes X-Request-Id as a UUID.
func RequestID() Codec[uuid.UUID] { return requestID{} }

func (requestID) Name() string { return "X-Request-Id" }

func (r requestID) Decode(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, malformed(r.Name(), raw, err)
	}
	return id, nil
}

func (requestID) Encode(id uuid.UUID) string { return id.String() }
