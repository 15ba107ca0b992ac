// Package extract turns parts of an incoming request into typed values:
// single headers through header decoders, and the body through the
// describable-value contract.
//
// Header extraction has no side effects. Body extraction consumes the body,
// so at most one body extractor succeeds per request.
package extract

import (
	"context"
	"net/http"

	"github.com/reoring/oaschema/header"
)

// Extractor produces T from a request. Failures are *ExtractionError.
type Extractor[T any] interface {
	Extract(ctx context.Context, req Request, body *Body) (T, error)
}

// Func adapts a function to Extractor.
type Func[T any] func(ctx context.Context, req Request, body *Body) (T, error)

// Extract implements Extractor.
func (f Func[T]) Extract(ctx context.Context, req Request, body *Body) (T, error) {
	return f(ctx, req, body)
}

// FromRequest runs ex against r with r's context and shared body handle.
func FromRequest[T any](r *http.Request, ex Extractor[T]) (T, error) {
	return ex.Extract(r.Context(), HTTP(r), BodyOf(r))
}

// Header requires the header dec decodes. An absent header fails with
// KindHeaderRequired, a malformed one with KindHeaderMalformed wrapping the
// decoder's error.
func Header[T any](dec header.Decoder[T]) Extractor[T] {
	return Func[T](func(_ context.Context, req Request, _ *Body) (T, error) {
		raw, ok := req.Header(dec.Name())
		if !ok {
			var zero T
			return zero, &ExtractionError{Kind: KindHeaderRequired, Header: dec.Name()}
		}
		return decodeHeader(dec, raw)
	})
}

// OptionalHeader is Header yielding nil when the header is absent.
func OptionalHeader[T any](dec header.Decoder[T]) Extractor[*T] {
	return Func[*T](func(_ context.Context, req Request, _ *Body) (*T, error) {
		raw, ok := req.Header(dec.Name())
		if !ok {
			return nil, nil
		}
		v, err := decodeHeader(dec, raw)
		if err != nil {
			return nil, err
		}
		return &v, nil
	})
}

func decodeHeader[T any](dec header.Decoder[T], raw string) (T, error) {
	v, err := dec.Decode(raw)
	if err != nil {
		var zero T
		return zero, &ExtractionError{Kind: KindHeaderMalformed, Header: dec.Name(), Err: err}
	}
	return v, nil
}
