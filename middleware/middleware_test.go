package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	j "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/extract"
	"github.com/reoring/oaschema/header"
	"github.com/reoring/oaschema/middleware"
	"github.com/reoring/oaschema/types"
)

type point struct {
	X int64
	Y int64
}

func pointType() *types.ObjectType[point] {
	return types.Object[point]("Point").Field(
		types.Prop("x", types.Int64(), func(p *point) *int64 { return &p.X }),
		types.Prop("y", types.Int64(), func(p *point) *int64 { return &p.Y }),
	)
}

type errorBody struct {
	Issues []oaschema.Issue `json:"issues"`
}

func TestExtract_StoresValue(t *testing.T) {
	ex := extract.JSON[point](pointType(), middleware.DefaultParseOpt())
	var got point
	h := middleware.Extract(ex, middleware.Quiet())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := middleware.ValueFromContext[point](r.Context())
		if !ok {
			t.Fatalf("value missing from context")
		}
		got = v
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"x":1,"y":2}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
	}
	if got != (point{X: 1, Y: 2}) {
		t.Fatalf("got %+v", got)
	}
}

func TestExtract_WritesIssuesAndLogs(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	ex := extract.JSON[point](pointType(), middleware.DefaultParseOpt())
	called := false
	h := middleware.Extract(ex, middleware.WithLogger(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/points", strings.NewReader(`{"x":1}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Fatalf("next must not run on failure")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type: %q", ct)
	}
	var body errorBody
	if err := j.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Issues) != 1 || body.Issues[0].Code != oaschema.CodeRequired || body.Issues[0].Path != "/y" {
		t.Fatalf("issues: %+v", body.Issues)
	}
	if !strings.Contains(logs.String(), `"msg":"extract.failed"`) || !strings.Contains(logs.String(), `"code":"required"`) {
		t.Fatalf("log: %s", logs.String())
	}
}

func TestHandle_StatusFromExtraction(t *testing.T) {
	h := middleware.Handle(extract.Header(header.RequestID()), func(w http.ResponseWriter, _ *http.Request, _ uuid.UUID) {
		w.WriteHeader(http.StatusOK)
	}, middleware.Quiet())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
	var body errorBody
	if err := j.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Issues[0].Code != "header_required" {
		t.Fatalf("issues: %+v", body.Issues)
	}
}

func TestWriteError_UnsupportedMediaType(t *testing.T) {
	ex := extract.JSON[point](pointType(), middleware.DefaultParseOpt())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	_, err := extract.FromRequest(req, ex)
	if err == nil {
		t.Fatalf("want error")
	}
	rec := httptest.NewRecorder()
	middleware.WriteError(rec, err)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.WriteJSON(rec, http.StatusCreated, pointType(), point{X: 3, Y: 4})
	if rec.Code != http.StatusCreated || rec.Body.String() != `{"x":3,"y":4}` {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}
