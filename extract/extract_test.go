package extract_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/extract"
	"github.com/reoring/oaschema/header"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/types"
)

func mustExtractionError(t *testing.T, err error, kind extract.Kind) *extract.ExtractionError {
	t.Helper()
	ee, ok := extract.AsExtractionError(err)
	if !ok {
		t.Fatalf("want *ExtractionError, got %T: %v", err, err)
	}
	if ee.Kind != kind {
		t.Fatalf("kind = %v, want %v (err %v)", ee.Kind, kind, err)
	}
	return ee
}

func TestHeader_Required(t *testing.T) {
	ex := extract.Header(header.RequestID())
	_, err := ex.Extract(context.Background(), extract.Headers{}, nil)
	ee := mustExtractionError(t, err, extract.KindHeaderRequired)
	if ee.Header != "X-Request-Id" || ee.StatusCode() != http.StatusBadRequest {
		t.Fatalf("got header %q status %d", ee.Header, ee.StatusCode())
	}
	iss := ee.Issues()
	if len(iss) != 1 || iss[0].Code != "header_required" || iss[0].Params["header"] != "X-Request-Id" {
		t.Fatalf("issues = %+v", iss)
	}
	if !strings.Contains(err.Error(), "X-Request-Id") {
		t.Fatalf("message should name the header: %v", err)
	}
}

func TestHeader_Malformed(t *testing.T) {
	ex := extract.Header(header.RequestID())
	req := extract.Headers{"X-Request-Id": {"not-a-uuid"}}
	_, err := ex.Extract(context.Background(), req, nil)
	mustExtractionError(t, err, extract.KindHeaderMalformed)
	if !errors.Is(err, header.ErrMalformed) {
		t.Fatalf("decoder error should be wrapped: %v", err)
	}
}

func TestHeader_Repeatable(t *testing.T) {
	id := uuid.New()
	req := extract.Headers{"X-Request-Id": {id.String()}}
	ex := extract.Header(header.RequestID())
	for i := 0; i < 2; i++ {
		got, err := ex.Extract(context.Background(), req, nil)
		if err != nil || got != id {
			t.Fatalf("attempt %d: got %v, %v", i, got, err)
		}
	}
}

func TestOptionalHeader(t *testing.T) {
	ex := extract.OptionalHeader(header.UserAgent())
	got, err := ex.Extract(context.Background(), extract.Headers{}, nil)
	if err != nil || got != nil {
		t.Fatalf("absent: %v, %v", got, err)
	}
	got, err = ex.Extract(context.Background(), extract.Headers{"User-Agent": {"curl/8"}}, nil)
	if err != nil || got == nil || *got != "curl/8" {
		t.Fatalf("present: %v, %v", got, err)
	}
	_, err = ex.Extract(context.Background(), extract.Headers{"User-Agent": {"  "}}, nil)
	mustExtractionError(t, err, extract.KindHeaderMalformed)
}

func TestHeader_ContentLengthRequiredStatus(t *testing.T) {
	_, err := extract.Header(header.ContentLength()).Extract(context.Background(), extract.Headers{}, nil)
	ee := mustExtractionError(t, err, extract.KindHeaderRequired)
	if ee.StatusCode() != http.StatusLengthRequired {
		t.Fatalf("status = %d", ee.StatusCode())
	}
}

func TestHTTP_HostHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.com:8080/x", nil)
	got, err := extract.FromRequest(r, extract.Header(header.Host()))
	if err != nil || got != "example.com:8080" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func newJSONRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestJSON_FixedArray(t *testing.T) {
	ex := extract.JSON(types.FixedArray(types.Int32(), 3), extract.ParseOpt{})
	got, err := extract.FromRequest(newJSONRequest(`[1,2,3]`), ex)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestJSON_SecondBodyReadFails(t *testing.T) {
	r := newJSONRequest(`[1,2,3]`)
	ex := extract.JSON(types.FixedArray(types.Int32(), 3), extract.ParseOpt{})
	if _, err := extract.FromRequest(r, ex); err != nil {
		t.Fatalf("first read: %v", err)
	}
	_, err := extract.FromRequest(r, ex)
	mustExtractionError(t, err, extract.KindBodyConsumed)
	if !errors.Is(err, extract.ErrBodyConsumed) {
		t.Fatalf("want ErrBodyConsumed, got %v", err)
	}
	// a direct read of the taken body fails too
	if _, err := io.ReadAll(r.Body); !errors.Is(err, extract.ErrBodyConsumed) {
		t.Fatalf("direct read: %v", err)
	}
}

func TestJSON_ParseErrorKeepsPath(t *testing.T) {
	ex := extract.JSON(types.FixedArray(types.Int32(), 2), extract.ParseOpt{})
	_, err := extract.FromRequest(newJSONRequest(`[1,"x"]`), ex)
	ee := mustExtractionError(t, err, extract.KindParse)
	pe, ok := oaschema.AsParseError(err)
	if !ok || pe.Pointer() != "/1" || pe.Code != oaschema.CodeInvalidType {
		t.Fatalf("parse error = %v", pe)
	}
	iss := ee.Issues()
	if len(iss) != 1 || iss[0].Path != "/1" {
		t.Fatalf("issues = %+v", iss)
	}

	_, err = extract.FromRequest(newJSONRequest(`[1,2,3]`), ex)
	pe, _ = oaschema.AsParseError(err)
	if pe == nil || pe.Code != oaschema.CodeLengthMismatch || pe.Params["expected"] != 2 {
		t.Fatalf("want length mismatch, got %v", err)
	}
}

func TestJSON_Payload(t *testing.T) {
	ex := extract.JSON(types.Any(), extract.ParseOpt{})
	cases := []struct {
		body string
		code string
	}{
		{``, "empty"},
		{`{"a":`, "syntax"},
		{`[1] [2]`, "trailing_data"},
	}
	for _, tc := range cases {
		_, err := extract.FromRequest(newJSONRequest(tc.body), ex)
		ee := mustExtractionError(t, err, extract.KindPayload)
		if iss := ee.Issues(); iss[0].Code != tc.code {
			t.Errorf("%q: code = %s, want %s", tc.body, iss[0].Code, tc.code)
		}
	}
}

func TestJSON_DuplicateKeyOption(t *testing.T) {
	ex := extract.JSON(types.Any(), extract.ParseOpt{OnDuplicateKey: jsonvalue.Error})
	_, err := extract.FromRequest(newJSONRequest(`{"a":1,"a":2}`), ex)
	ee := mustExtractionError(t, err, extract.KindPayload)
	if iss := ee.Issues(); iss[0].Code != "duplicate_key" || iss[0].Path != "/a" {
		t.Fatalf("issues = %+v", iss)
	}
}

func TestJSON_MediaType(t *testing.T) {
	ex := extract.JSON(types.Any(), extract.ParseOpt{})

	r := newJSONRequest(`{}`)
	r.Header.Set("Content-Type", "text/plain")
	_, err := extract.FromRequest(r, ex)
	ee := mustExtractionError(t, err, extract.KindUnsupportedMediaType)
	if ee.StatusCode() != http.StatusUnsupportedMediaType || ee.ContentType != "text/plain" {
		t.Fatalf("status %d content type %q", ee.StatusCode(), ee.ContentType)
	}

	for _, ct := range []string{"application/json; charset=utf-8", "application/problem+json"} {
		r := newJSONRequest(`{}`)
		r.Header.Set("Content-Type", ct)
		if _, err := extract.FromRequest(r, ex); err != nil {
			t.Fatalf("%s: %v", ct, err)
		}
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	if _, err := extract.FromRequest(r, ex); err != nil {
		t.Fatalf("missing Content-Type should be accepted: %v", err)
	}
}

func TestJSON_MaxBytes(t *testing.T) {
	ex := extract.JSON(types.Any(), extract.ParseOpt{MaxBytes: 4})
	_, err := extract.FromRequest(newJSONRequest(`[1,2,3]`), ex)
	ee := mustExtractionError(t, err, extract.KindBodyTooLarge)
	if ee.StatusCode() != http.StatusRequestEntityTooLarge || !errors.Is(err, extract.ErrBodyTooLarge) {
		t.Fatalf("status %d err %v", ee.StatusCode(), err)
	}
	if _, err := extract.FromRequest(newJSONRequest(`[12]`), extract.JSON(types.Any(), extract.ParseOpt{MaxBytes: 4})); err != nil {
		t.Fatalf("exactly MaxBytes should pass: %v", err)
	}
}

func TestYAML(t *testing.T) {
	type point struct{ X, Y int32 }
	pt := types.Object[point]("Point").Field(
		types.Prop("x", types.Int32(), func(p *point) *int32 { return &p.X }),
		types.Prop("y", types.Int32(), func(p *point) *int32 { return &p.Y }),
	)
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x: 1\ny: 2\n"))
	r.Header.Set("Content-Type", "application/yaml")
	got, err := extract.FromRequest(r, extract.YAML[point](pt, extract.ParseOpt{}))
	if err != nil || got.X != 1 || got.Y != 2 {
		t.Fatalf("got %+v, %v", got, err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	r.Header.Set("Content-Type", "application/json")
	_, err = extract.FromRequest(r, extract.YAML[point](pt, extract.ParseOpt{}))
	mustExtractionError(t, err, extract.KindUnsupportedMediaType)
}

func TestRaw(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello"))
	got, err := extract.FromRequest(r, extract.Raw(extract.ParseOpt{}))
	if err != nil || string(got) != "hello" {
		t.Fatalf("got %q, %v", got, err)
	}
}

type trackingReader struct {
	io.Reader
	closed chan struct{}
}

func (t *trackingReader) Close() error {
	close(t.closed)
	if c, ok := t.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func TestBody_CancelReleasesSource(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	src := &trackingReader{Reader: pr, closed: make(chan struct{})}
	body := extract.NewBody(src)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := extract.JSON(types.Any(), extract.ParseOpt{}).Extract(ctx, extract.Headers{}, body)
		errc <- err
	}()
	if _, err := pw.Write([]byte(`[1,`)); err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case err := <-errc:
		ee := mustExtractionError(t, err, extract.KindBodyRead)
		if !errors.Is(ee, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("extraction did not return after cancel")
	}
	select {
	case <-src.closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("source not closed")
	}
	if !body.Consumed() {
		t.Fatalf("a cancelled read still consumes the body")
	}
	if _, err := body.ReadAll(context.Background(), 0); !errors.Is(err, extract.ErrBodyConsumed) {
		t.Fatalf("second read: %v", err)
	}
}

func TestBody_EmptyFirstReadSucceeds(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	b := extract.BodyOf(r)
	if extract.BodyOf(r) != b {
		t.Fatalf("BodyOf should return the same handle")
	}
	data, err := b.ReadAll(context.Background(), 0)
	if err != nil || len(data) != 0 {
		t.Fatalf("first read: %q, %v", data, err)
	}
	if _, err := b.ReadAll(context.Background(), 0); !errors.Is(err, extract.ErrBodyConsumed) {
		t.Fatalf("second read: %v", err)
	}
}

func TestFunc(t *testing.T) {
	both := extract.Func[string](func(ctx context.Context, req extract.Request, body *extract.Body) (string, error) {
		ua, err := extract.Header(header.UserAgent()).Extract(ctx, req, body)
		if err != nil {
			return "", err
		}
		raw, err := extract.Raw(extract.ParseOpt{}).Extract(ctx, req, body)
		if err != nil {
			return "", err
		}
		return ua + ":" + string(raw), nil
	})
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("b"))
	r.Header.Set("User-Agent", "ua")
	got, err := extract.FromRequest(r, both)
	if err != nil || got != "ua:b" {
		t.Fatalf("got %q, %v", got, err)
	}
}
