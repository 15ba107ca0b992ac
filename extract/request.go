package extract

import (
	"net/http"
	"net/textproto"
)

// Request is the metadata surface extractors read from.
type Request interface {
	// Header returns the first value of the named header.
	Header(name string) (string, bool)
}

// Headers adapts a plain header map.
type Headers http.Header

// Header implements Request.
func (h Headers) Header(name string) (string, bool) {
	vs := textproto.MIMEHeader(h).Values(name)
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

type httpRequest struct{ r *http.Request }

// HTTP adapts r. The Host header, which net/http moves out of r.Header, is
// served from r.Host.
func HTTP(r *http.Request) Request { return httpRequest{r: r} }

func (h httpRequest) Header(name string) (string, bool) {
	if http.CanonicalHeaderKey(name) == "Host" {
		if h.r.Host != "" {
			return h.r.Host, true
		}
	}
	return Headers(h.r.Header).Header(name)
}
