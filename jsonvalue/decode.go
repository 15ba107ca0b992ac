package jsonvalue

import (
	"errors"
	"fmt"
	"io"

	j "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	eng "github.com/reoring/oaschema/internal/engine"
)

// Severity controls how a decoding condition is handled.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Decode error codes.
const (
	CodeSyntax       = "syntax"
	CodeEmpty        = "empty"
	CodeTrailingData = "trailing_data"
	CodeDuplicateKey = eng.CodeDuplicateKey
	CodeMaxDepth     = eng.CodeMaxDepth
	CodeAliasBudget  = "alias_budget"
)

// DecodeOptions bundles decoding limits.
type DecodeOptions struct {
	// OnDuplicateKey decides what a repeated object key does. With Ignore the
	// last value wins.
	OnDuplicateKey Severity
	// MaxDepth limits container nesting; zero means unlimited.
	MaxDepth int
	// OnWarning receives duplicate keys when OnDuplicateKey is Warn.
	OnWarning func(DecodeError)
}

// DecodeError reports malformed or rejected input.
type DecodeError struct {
	Code    string
	Path    string // JSON Pointer, empty when unknown
	Offset  int64  // byte offset, -1 when unknown
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("jsonvalue: %s at %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("jsonvalue: %s: %s", e.Code, e.Message)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a single JSON document.
func Decode(data []byte, opts ...DecodeOptions) (Value, error) {
	var opt DecodeOptions
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	v, err := decodeTokens(eng.NewBytes(data), opt)
	if err != nil {
		return Value{}, err
	}
	// The token stream tolerates misplaced separators; reject those here.
	if !j.Valid(data) {
		return Value{}, syntaxError(data)
	}
	return v, nil
}

// DecodeFrom reads r to the end and parses it as one JSON document.
func DecodeFrom(r io.Reader, opts ...DecodeOptions) (Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Value{}, err
	}
	return Decode(data, opts...)
}

func decodeTokens(src eng.TokenSource, opt DecodeOptions) (Value, error) {
	src = eng.WrapWithEnforcement(src, eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		IssueSink:   warningSink(opt.OnWarning),
	})
	tok, err := src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, &DecodeError{Code: CodeEmpty, Offset: 0, Message: "empty input", Err: err}
		}
		return Value{}, wrapDecodeErr(src, err)
	}
	v, err := decodeValue(src, tok)
	if err != nil {
		return Value{}, wrapDecodeErr(src, err)
	}
	if err := eng.ExpectEOF(src); err != nil {
		if errors.Is(err, eng.ErrTrailingData) {
			return Value{}, &DecodeError{Code: CodeTrailingData, Offset: src.Location(), Message: "unexpected data after top-level value", Err: err}
		}
		return Value{}, wrapDecodeErr(src, err)
	}
	return v, nil
}

func syntaxError(data []byte) error {
	var probe any
	err := j.Unmarshal(data, &probe)
	if err == nil {
		err = errors.New("malformed JSON")
	}
	de := &DecodeError{Code: CodeSyntax, Offset: -1, Message: err.Error(), Err: err}
	var se *j.SyntaxError
	if errors.As(err, &se) {
		de.Offset = se.Offset
	}
	return de
}

func decodeValue(src eng.TokenSource, tok eng.Token) (Value, error) {
	switch tok.Kind {
	case eng.KindBeginObject:
		return decodeObject(src)
	case eng.KindBeginArray:
		return decodeArray(src)
	case eng.KindString:
		return String(tok.String), nil
	case eng.KindNumber:
		return Number(j.Number(tok.Number)), nil
	case eng.KindBool:
		return Bool(tok.Bool), nil
	case eng.KindNull:
		return Null(), nil
	default:
		return Value{}, io.ErrUnexpectedEOF
	}
}

func decodeObject(src eng.TokenSource) (Value, error) {
	m := orderedmap.New[string, Value]()
	for {
		tok, err := src.NextToken()
		if err != nil {
			return Value{}, eofAsUnexpected(err)
		}
		if tok.Kind == eng.KindEndObject {
			return Value{kind: KindObject, obj: m}, nil
		}
		if tok.Kind != eng.KindKey {
			return Value{}, io.ErrUnexpectedEOF
		}
		vt, err := src.NextToken()
		if err != nil {
			return Value{}, eofAsUnexpected(err)
		}
		v, err := decodeValue(src, vt)
		if err != nil {
			return Value{}, err
		}
		m.Set(tok.String, v)
	}
}

func decodeArray(src eng.TokenSource) (Value, error) {
	arr := []Value{}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return Value{}, eofAsUnexpected(err)
		}
		if tok.Kind == eng.KindEndArray {
			return Value{kind: KindArray, arr: arr}, nil
		}
		v, err := decodeValue(src, tok)
		if err != nil {
			return Value{}, err
		}
		arr = append(arr, v)
	}
}

func eofAsUnexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func wrapDecodeErr(src eng.TokenSource, err error) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return &DecodeError{Code: ie.Code, Path: ie.Path, Offset: ie.Offset, Message: ie.Message, Err: err}
	}
	return &DecodeError{Code: CodeSyntax, Offset: src.Location(), Message: err.Error(), Err: err}
}

func warningSink(fn func(DecodeError)) func(eng.SimpleIssue) {
	if fn == nil {
		return nil
	}
	return func(si eng.SimpleIssue) {
		fn(DecodeError{Code: si.Code, Path: si.Path, Offset: si.Offset, Message: si.Message})
	}
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	default:
		return eng.DupIgnore
	}
}

// MustParse decodes s and panics on error. It is meant for literals in tests
// and examples.
func MustParse(s string) Value {
	v, err := Decode([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}
