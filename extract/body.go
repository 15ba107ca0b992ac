package extract

import (
	"context"
	"io"
	"net/http"
	"sync"
)

// Body is the single-use handle on a request body. The first ReadAll drains
// and closes the source; every later ReadAll fails with ErrBodyConsumed.
// A Body is safe for concurrent use.
type Body struct {
	mu       sync.Mutex
	src      io.ReadCloser
	consumed bool
}

// NewBody wraps src. A nil src reads as an empty body.
func NewBody(src io.ReadCloser) *Body { return &Body{src: src} }

// Consumed reports whether the body has been read.
func (b *Body) Consumed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consumed
}

// take claims the source exactly once.
func (b *Body) take() (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumed {
		return nil, ErrBodyConsumed
	}
	b.consumed = true
	src := b.src
	b.src = nil
	return src, nil
}

// ReadAll drains the body. maxBytes > 0 caps the size; a larger body fails
// with ErrBodyTooLarge. When ctx ends first the source is closed, which
// unblocks the pending read, and ctx.Err() is returned. The source is closed
// on every path and the body counts as consumed even when reading fails.
func (b *Body) ReadAll(ctx context.Context, maxBytes int64) ([]byte, error) {
	src, err := b.take()
	if err != nil {
		return nil, err
	}
	if src == nil {
		return []byte{}, nil
	}
	if err := ctx.Err(); err != nil {
		_ = src.Close()
		return nil, err
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var r io.Reader = src
		if maxBytes > 0 {
			r = io.LimitReader(src, maxBytes+1)
		}
		data, err := io.ReadAll(r)
		done <- result{data: data, err: err}
	}()

	select {
	case res := <-done:
		_ = src.Close()
		if res.err != nil {
			return nil, res.err
		}
		if maxBytes > 0 && int64(len(res.data)) > maxBytes {
			return nil, ErrBodyTooLarge
		}
		return res.data, nil
	case <-ctx.Done():
		_ = src.Close()
		return nil, ctx.Err()
	}
}

// claimedBody replaces http.Request.Body once BodyOf has taken it, so later
// BodyOf calls share the same handle and direct reads fail loudly.
type claimedBody struct{ b *Body }

func (c *claimedBody) Read([]byte) (int, error) { return 0, ErrBodyConsumed }

func (c *claimedBody) Close() error { return nil }

// BodyOf returns the body handle of r. The first call takes ownership of
// r.Body; later calls return the same handle.
func BodyOf(r *http.Request) *Body {
	if cb, ok := r.Body.(*claimedBody); ok {
		return cb.b
	}
	var src io.ReadCloser
	if r.Body != nil && r.Body != http.NoBody {
		src = r.Body
	}
	b := NewBody(src)
	r.Body = &claimedBody{b: b}
	return b
}
