package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/elnormous/contenttype"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/jsonvalue"
)

// ParseOpt configures body extractors.
type ParseOpt struct {
	// MaxBytes caps the body size; zero means unlimited.
	MaxBytes int64
	// MaxDepth limits container nesting; zero means unlimited.
	MaxDepth int
	// OnDuplicateKey decides what a repeated object key does.
	OnDuplicateKey jsonvalue.Severity
	// MediaTypes overrides the accepted Content-Type values. A request
	// without Content-Type is always accepted.
	MediaTypes []contenttype.MediaType
}

func (o ParseOpt) decodeOptions() jsonvalue.DecodeOptions {
	return jsonvalue.DecodeOptions{OnDuplicateKey: o.OnDuplicateKey, MaxDepth: o.MaxDepth}
}

var (
	jsonMediaTypes = []contenttype.MediaType{contenttype.NewMediaType("application/json")}
	yamlMediaTypes = []contenttype.MediaType{
		contenttype.NewMediaType("application/yaml"),
		contenttype.NewMediaType("application/x-yaml"),
		contenttype.NewMediaType("text/yaml"),
	}
)

// JSON reads the body as JSON and parses it with p. Structured suffix
// types such as application/problem+json are accepted too.
func JSON[T any](p oaschema.Parser[T], opt ParseOpt) Extractor[T] {
	return bodyExtractor[T]{p: p, opt: opt, accept: jsonMediaTypes, suffix: "+json", decode: jsonvalue.Decode}
}

// YAML reads the body as YAML and parses it with p.
func YAML[T any](p oaschema.Parser[T], opt ParseOpt) Extractor[T] {
	return bodyExtractor[T]{p: p, opt: opt, accept: yamlMediaTypes, suffix: "+yaml", decode: jsonvalue.DecodeYAML}
}

// Raw reads the body bytes without interpreting them. Only MaxBytes of opt
// applies.
func Raw(opt ParseOpt) Extractor[[]byte] {
	return Func[[]byte](func(ctx context.Context, _ Request, body *Body) ([]byte, error) {
		return readBody(ctx, body, opt.MaxBytes)
	})
}

type bodyExtractor[T any] struct {
	p      oaschema.Parser[T]
	opt    ParseOpt
	accept []contenttype.MediaType
	suffix string
	decode func([]byte, ...jsonvalue.DecodeOptions) (jsonvalue.Value, error)
}

func (b bodyExtractor[T]) Extract(ctx context.Context, req Request, body *Body) (T, error) {
	var zero T
	if err := b.checkMediaType(req); err != nil {
		return zero, err
	}
	data, err := readBody(ctx, body, b.opt.MaxBytes)
	if err != nil {
		return zero, err
	}
	v, err := b.decode(data, b.opt.decodeOptions())
	if err != nil {
		return zero, &ExtractionError{Kind: KindPayload, Err: err}
	}
	out, err := b.p.ParseFromJSON(v)
	if err != nil {
		return zero, &ExtractionError{Kind: KindParse, Err: err}
	}
	return out, nil
}

func (b bodyExtractor[T]) checkMediaType(req Request) error {
	raw, ok := req.Header("Content-Type")
	if !ok {
		return nil
	}
	mt, err := contenttype.ParseMediaType(raw)
	if err != nil {
		return &ExtractionError{Kind: KindUnsupportedMediaType, ContentType: raw, Err: err}
	}
	accept := b.accept
	if len(b.opt.MediaTypes) > 0 {
		accept = b.opt.MediaTypes
	}
	for _, want := range accept {
		if mt.Matches(want) {
			return nil
		}
	}
	if len(b.opt.MediaTypes) == 0 && strings.HasSuffix(strings.ToLower(mt.Subtype), b.suffix) {
		return nil
	}
	return &ExtractionError{Kind: KindUnsupportedMediaType, ContentType: raw}
}

func readBody(ctx context.Context, body *Body, maxBytes int64) ([]byte, error) {
	if body == nil {
		return nil, &ExtractionError{Kind: KindBodyConsumed, Err: ErrBodyConsumed}
	}
	data, err := body.ReadAll(ctx, maxBytes)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, ErrBodyConsumed):
		return nil, &ExtractionError{Kind: KindBodyConsumed, Err: err}
	case errors.Is(err, ErrBodyTooLarge):
		return nil, &ExtractionError{Kind: KindBodyTooLarge, Err: err}
	default:
		return nil, &ExtractionError{Kind: KindBodyRead, Err: err}
	}
}
