package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	j "github.com/goccy/go-json"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/extract"
	"github.com/reoring/oaschema/jsonvalue"
)

// ctxKeyValue is a typed context key for storing extracted values.
// Using a generic struct type ensures uniqueness per T.
type ctxKeyValue[T any] struct{}

// ContextWithValue attaches an extracted T to the context.
func ContextWithValue[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, ctxKeyValue[T]{}, v)
}

// ValueFromContext retrieves an extracted T from context.
func ValueFromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(ctxKeyValue[T]{}).(T)
	return v, ok
}

// DefaultParseOpt returns a recommended default for HTTP JSON boundaries.
// - Duplicate keys are errors
// - Bodies are capped at 1 MiB
func DefaultParseOpt() extract.ParseOpt {
	return extract.ParseOpt{
		OnDuplicateKey: jsonvalue.Error,
		MaxBytes:       1 << 20,
	}
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues []oaschema.Issue) map[string]any {
	return map[string]any{"issues": issues}
}

// Status returns the HTTP status and client-facing issues for err.
// Extraction errors carry their own status; anything else is a 400.
func Status(err error) (int, oaschema.Issues) {
	if ee, ok := extract.AsExtractionError(err); ok {
		return ee.StatusCode(), ee.Issues()
	}
	return http.StatusBadRequest, oaschema.AsIssues(err)
}

// WriteError renders err as {"issues":[...]} with its status code.
func WriteError(w http.ResponseWriter, err error) {
	status, issues := Status(err)
	body, merr := j.Marshal(ErrorPayload(issues))
	if merr != nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

type config struct {
	log *slog.Logger
}

// Option configures Extract and Handle.
type Option func(*config)

// WithLogger sets the logger failed extractions are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

func newConfig(opts []Option) config {
	c := config{log: slog.Default()}
	for _, o := range opts {
		o(&c)
	}
	return c
}

func (c config) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, issues := Status(err)
	code := ""
	if len(issues) > 0 {
		code = issues[0].Code
	}
	c.log.WarnContext(r.Context(), "extract.failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("code", code),
		slog.String("error", err.Error()),
	)
	WriteError(w, err)
}

// Extract runs ex for every request, stores the value with
// ContextWithValue and calls next. On failure it writes the error payload
// and next is not called.
func Extract[T any](ex extract.Extractor[T], opts ...Option) func(http.Handler) http.Handler {
	c := newConfig(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, err := extract.FromRequest(r, ex)
			if err != nil {
				c.fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithValue(r.Context(), v)))
		})
	}
}

// Handle returns a handler that extracts T and passes it to fn.
func Handle[T any](ex extract.Extractor[T], fn func(http.ResponseWriter, *http.Request, T), opts ...Option) http.Handler {
	c := newConfig(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := extract.FromRequest(r, ex)
		if err != nil {
			c.fail(w, r, err)
			return
		}
		fn(w, r, v)
	})
}

// WriteJSON serializes v with s and writes it with status.
func WriteJSON[T any](w http.ResponseWriter, status int, s oaschema.Serializer[T], v T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(oaschema.MarshalJSON(s, v))
}

// discard is used by tests and callers that want silence.
var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// Quiet disables logging of failed extractions.
func Quiet() Option { return func(c *config) { c.log = discard } }
