package extract

import (
	"context"
	"errors"
	"net/http"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/i18n"
	"github.com/reoring/oaschema/jsonvalue"
)

var (
	// ErrBodyConsumed is returned by a second read of the same request body.
	ErrBodyConsumed = errors.New("extract: request body already consumed")
	// ErrBodyTooLarge is returned when a body exceeds ParseOpt.MaxBytes.
	ErrBodyTooLarge = errors.New("extract: request body too large")
)

// Kind classifies extraction failures.
type Kind int

const (
	KindHeaderRequired Kind = iota + 1
	KindHeaderMalformed
	KindBodyConsumed
	KindBodyTooLarge
	KindBodyRead
	KindUnsupportedMediaType
	KindPayload
	KindParse
)

var kindCodes = map[Kind]string{
	KindHeaderRequired:       "header_required",
	KindHeaderMalformed:      "header_malformed",
	KindBodyConsumed:         "body_consumed",
	KindBodyTooLarge:         "body_too_large",
	KindBodyRead:             "body_read",
	KindUnsupportedMediaType: "unsupported_media_type",
	KindPayload:              "payload",
	KindParse:                oaschema.CodeParseError,
}

// String returns the stable error code of k.
func (k Kind) String() string {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return "unknown"
}

// ExtractionError is the terminal failure of an Extractor.
type ExtractionError struct {
	Kind Kind
	// Header names the header involved, if any.
	Header string
	// ContentType is the rejected media type for KindUnsupportedMediaType.
	ContentType string
	Err         error
}

func (e *ExtractionError) Error() string {
	msg := e.message()
	if e.Err != nil && e.Kind != KindBodyConsumed && e.Kind != KindBodyTooLarge {
		return "extract: " + msg + ": " + e.Err.Error()
	}
	return "extract: " + msg
}

func (e *ExtractionError) message() string {
	return i18n.T(e.Kind.String(), map[string]string{"header": e.Header, "content_type": e.ContentType})
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// StatusCode maps the failure to an HTTP status.
func (e *ExtractionError) StatusCode() int {
	switch e.Kind {
	case KindHeaderRequired:
		if http.CanonicalHeaderKey(e.Header) == "Content-Length" {
			return http.StatusLengthRequired
		}
		return http.StatusBadRequest
	case KindBodyTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case KindBodyRead:
		if errors.Is(e.Err, context.DeadlineExceeded) {
			return http.StatusRequestTimeout
		}
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

// Issues projects the failure onto client-facing issues. Parse failures keep
// their JSON Pointer; payload failures carry the decoder position.
func (e *ExtractionError) Issues() oaschema.Issues {
	switch e.Kind {
	case KindParse:
		return oaschema.AsIssues(e.Err)
	case KindPayload:
		var de *jsonvalue.DecodeError
		if errors.As(e.Err, &de) {
			path := de.Path
			if path == "" {
				path = "/"
			}
			return oaschema.Issues{{Path: path, Code: de.Code, Message: de.Message, Cause: e.Err}}
		}
	}
	iss := oaschema.Issue{Path: "/", Code: e.Kind.String(), Message: e.message(), Cause: e.Err}
	if e.Header != "" {
		iss.Params = map[string]any{"header": e.Header}
	} else if e.ContentType != "" {
		iss.Params = map[string]any{"content_type": e.ContentType}
	}
	return oaschema.Issues{iss}
}

// AsExtractionError extracts an *ExtractionError from err.
func AsExtractionError(err error) (*ExtractionError, bool) {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
