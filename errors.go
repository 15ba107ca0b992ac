package oaschema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/oaschema/i18n"
	"github.com/reoring/oaschema/jsonvalue"
)

// Parse error codes.
const (
	CodeInvalidType    = "invalid_type"
	CodeLengthMismatch = "length_mismatch"
	CodeTooShort       = "too_short"
	CodeTooLong        = "too_long"
	CodeRequired       = "required"
	CodeUnknownKey     = "unknown_key"
	CodeDuplicateItem  = "duplicate_item"
	CodeInvalidFormat  = "invalid_format"
	CodeOutOfRange     = "out_of_range"
	CodeUnionMismatch  = "union_mismatch"
	CodeInvalidEnum    = "invalid_enum"

	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"

	CodePattern    = "pattern"
	CodeCustom     = "custom"
	CodeParseError = "parse_error"
)

// PathElem is one step of an error path: an array index or an object key.
type PathElem struct {
	Key     string
	Index   int
	IsIndex bool
}

// Index returns an array index path element.
func Index(i int) PathElem { return PathElem{Index: i, IsIndex: true} }

// Key returns an object member path element.
func Key(name string) PathElem { return PathElem{Key: name} }

// String renders the element as an unescaped JSON Pointer token.
func (p PathElem) String() string {
	if p.IsIndex {
		return strconv.Itoa(p.Index)
	}
	return p.Key
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// ParseError is a typed conversion failure. Path is ordered outermost
// first; containers extend it through Propagate as the error travels up.
type ParseError struct {
	Code    string
	Path    []PathElem
	Message string
	Params  map[string]any
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Pointer(), e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Pointer renders Path as an RFC 6901 JSON Pointer. The root renders as "/",
// which is also the pointer of a member with the empty key; Path keeps the
// two apart (empty for the root, one Key("") element for the member).
func (e *ParseError) Pointer() string {
	if len(e.Path) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, p := range e.Path {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(p.String()))
	}
	return b.String()
}

// Propagate returns a copy of e with elem prepended to its path. The receiver
// is left untouched.
func (e *ParseError) Propagate(elem PathElem) *ParseError {
	out := *e
	out.Path = make([]PathElem, 0, len(e.Path)+1)
	out.Path = append(out.Path, elem)
	out.Path = append(out.Path, e.Path...)
	return &out
}

// Issue projects e onto the wire-facing Issue shape.
func (e *ParseError) Issue() Issue {
	return Issue{Path: e.Pointer(), Code: e.Code, Message: e.Message, Params: e.Params, Cause: e.Cause}
}

// Is matches another *ParseError by code, so errors.Is(err,
// &ParseError{Code: CodeRequired}) works regardless of path.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Code == e.Code && len(t.Path) == 0
}

// AsParseError extracts a *ParseError from err.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Propagate attaches elem to err. Errors that are not a *ParseError are
// wrapped as parse_error so the position is never lost.
func Propagate(err error, elem PathElem) *ParseError {
	if pe, ok := AsParseError(err); ok {
		return pe.Propagate(elem)
	}
	return (&ParseError{Code: CodeParseError, Message: err.Error(), Cause: err}).Propagate(elem)
}

func newError(code string, data map[string]string, params map[string]any) *ParseError {
	return &ParseError{Code: code, Message: i18n.T(code, data), Params: params}
}

// ExpectedType reports a value whose JSON kind does not match the expected
// shape.
func ExpectedType(expected string, got jsonvalue.Value) *ParseError {
	actual := got.Kind().String()
	return newError(CodeInvalidType,
		map[string]string{"expected": expected, "actual": actual},
		map[string]any{"expected": expected, "actual": actual})
}

// LengthMismatch reports an array whose length differs from a fixed length.
func LengthMismatch(expected, got int) *ParseError {
	return newError(CodeLengthMismatch,
		map[string]string{"expected": strconv.Itoa(expected), "actual": strconv.Itoa(got)},
		map[string]any{"expected": expected, "actual": got})
}

// TooShort reports fewer items than a minimum.
func TooShort(min, got int) *ParseError {
	return newError(CodeTooShort,
		map[string]string{"min": strconv.Itoa(min), "actual": strconv.Itoa(got)},
		map[string]any{"min": min, "actual": got})
}

// TooLong reports more items than a maximum.
func TooLong(max, got int) *ParseError {
	return newError(CodeTooLong,
		map[string]string{"max": strconv.Itoa(max), "actual": strconv.Itoa(got)},
		map[string]any{"max": max, "actual": got})
}

// Required reports a missing object member; the path points at the member.
func Required(key string) *ParseError {
	e := newError(CodeRequired, map[string]string{"key": key}, map[string]any{"key": key})
	e.Path = []PathElem{Key(key)}
	return e
}

// UnknownKey reports an object member no field accepts.
func UnknownKey(key string) *ParseError {
	e := newError(CodeUnknownKey, map[string]string{"key": key}, map[string]any{"key": key})
	e.Path = []PathElem{Key(key)}
	return e
}

// DuplicateItem reports an item equal to the one at index first.
func DuplicateItem(first int) *ParseError {
	return newError(CodeDuplicateItem, nil, map[string]any{"first": first})
}

// InvalidFormat reports a string that does not match format.
func InvalidFormat(format string, cause error) *ParseError {
	e := newError(CodeInvalidFormat, map[string]string{"format": format}, map[string]any{"format": format})
	e.Cause = cause
	return e
}

// OutOfRange reports a number that does not fit the target type.
func OutOfRange(typeName, got string) *ParseError {
	return newError(CodeOutOfRange,
		map[string]string{"type": typeName, "actual": got},
		map[string]any{"type": typeName, "actual": got})
}

// InvalidEnum reports a value outside an enumeration.
func InvalidEnum(got string, allowed []string) *ParseError {
	list := strings.Join(allowed, ", ")
	return newError(CodeInvalidEnum,
		map[string]string{"actual": got, "allowed": "[" + list + "]"},
		map[string]any{"actual": got, "allowed": allowed})
}

// PatternMismatch reports a string that does not match a pattern.
func PatternMismatch(pattern string) *ParseError {
	return newError(CodePattern, map[string]string{"pattern": pattern}, map[string]any{"pattern": pattern})
}

// UnionMismatch reports a value no variant of the union name accepts.
func UnionMismatch(name string, cause error) *ParseError {
	e := newError(CodeUnionMismatch, map[string]string{"name": name}, map[string]any{"name": name})
	e.Cause = cause
	return e
}

// DiscriminatorMissing reports a union value lacking its tag member.
func DiscriminatorMissing(prop string) *ParseError {
	e := newError(CodeDiscriminatorMissing, map[string]string{"key": prop}, map[string]any{"key": prop})
	e.Path = []PathElem{Key(prop)}
	return e
}

// DiscriminatorUnknown reports a tag no variant is mapped to.
func DiscriminatorUnknown(prop, tag string) *ParseError {
	e := newError(CodeDiscriminatorUnknown, map[string]string{"key": prop, "actual": tag}, map[string]any{"key": prop, "actual": tag})
	e.Path = []PathElem{Key(prop)}
	return e
}

// Custom returns a parse error with a caller-supplied message.
func Custom(msg string) *ParseError {
	return &ParseError{Code: CodeCustom, Message: msg}
}

// Customf is Custom with formatting.
func Customf(format string, args ...any) *ParseError {
	return Custom(fmt.Sprintf(format, args...))
}

// Issue is the client-facing projection of a failure.
type Issue struct {
	Path    string         `json:"path"` // JSON Pointer (for example: /items/2/price).
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
	Cause   error          `json:"-"`
}

// Issues is a collection of issues that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Code, iss[i].Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsIssues converts err into Issues: Issues pass through, a *ParseError
// becomes a single issue, anything else becomes a root parse_error.
func AsIssues(err error) Issues {
	if err == nil {
		return nil
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss
	}
	if pe, ok := AsParseError(err); ok {
		return Issues{pe.Issue()}
	}
	return Issues{{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err}}
}
