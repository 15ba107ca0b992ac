package types

import (
	"errors"
	"math"
	"regexp"
	"strconv"

	j "github.com/goccy/go-json"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
)

// Signed lists the signed integer kinds Integer accepts.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned lists the unsigned integer kinds UnsignedInteger accepts.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Float lists the floating point kinds FloatNumber accepts.
type Float interface {
	~float32 | ~float64
}

// primitive carries the inline schema shared by every scalar shape.
// Scalars are never registered: Register is a no-op.
type primitive struct {
	name   string
	typ    string
	format string
}

func (p primitive) Name() string { return p.name }

func (p primitive) SchemaRef() registry.SchemaRef {
	return registry.Inline(&registry.Schema{Type: p.typ, Format: p.format})
}

func (primitive) Register(*registry.Registry) error { return nil }

func scalarName(typ, format string) string {
	if format == "" {
		return typ
	}
	return typ + "(" + format + ")"
}

// ---- boolean ----

type boolType struct{ primitive }

// Bool returns the boolean shape.
func Bool() oaschema.Codec[bool] {
	return boolType{primitive{name: "boolean", typ: "boolean"}}
}

func (t boolType) ParseFromJSON(v jsonvalue.Value) (bool, error) {
	b, ok := v.AsBool()
	if !ok {
		return false, oaschema.ExpectedType(t.name, v)
	}
	return b, nil
}

func (boolType) ToJSON(b bool) jsonvalue.Value { return jsonvalue.Bool(b) }

// ---- integers ----

// IntegerType parses JSON integers into T, rejecting fractions and values
// outside T's range.
type IntegerType[T Signed] struct {
	primitive
	bits int
}

// Integer returns a signed integer shape whose schema carries format.
// bits bounds the accepted range.
func Integer[T Signed](format string, bits int) *IntegerType[T] {
	return &IntegerType[T]{primitive: primitive{name: scalarName("integer", format), typ: "integer", format: format}, bits: bits}
}

// Int32 returns the "integer(int32)" shape.
func Int32() *IntegerType[int32] { return Integer[int32]("int32", 32) }

// Int64 returns the "integer(int64)" shape.
func Int64() *IntegerType[int64] { return Integer[int64]("int64", 64) }

// Int returns the platform int shape, described as int64.
func Int() *IntegerType[int] { return Integer[int]("int64", strconv.IntSize) }

func (t *IntegerType[T]) ParseFromJSON(v jsonvalue.Value) (T, error) {
	n, ok := v.AsNumber()
	if !ok {
		return 0, oaschema.ExpectedType(t.name, v)
	}
	i, err := strconv.ParseInt(n.String(), 10, t.bits)
	if err == nil {
		return T(i), nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, oaschema.OutOfRange(t.name, n.String())
	}
	// Exponent forms such as 1e3 still denote integers.
	if f, ok := integral(n); ok {
		lim := math.Ldexp(1, t.bits-1)
		if f < -lim || f >= lim {
			return 0, oaschema.OutOfRange(t.name, n.String())
		}
		return T(f), nil
	}
	return 0, oaschema.ExpectedType(t.name, v)
}

func (t *IntegerType[T]) ToJSON(i T) jsonvalue.Value { return jsonvalue.Int(int64(i)) }

// UnsignedType parses non-negative JSON integers into T.
type UnsignedType[T Unsigned] struct {
	primitive
	bits int
}

// UnsignedInteger returns an unsigned integer shape.
func UnsignedInteger[T Unsigned](format string, bits int) *UnsignedType[T] {
	return &UnsignedType[T]{primitive: primitive{name: scalarName("integer", format), typ: "integer", format: format}, bits: bits}
}

// Uint32 returns the "integer(uint32)" shape.
func Uint32() *UnsignedType[uint32] { return UnsignedInteger[uint32]("uint32", 32) }

// Uint64 returns the "integer(uint64)" shape.
func Uint64() *UnsignedType[uint64] { return UnsignedInteger[uint64]("uint64", 64) }

func (t *UnsignedType[T]) ParseFromJSON(v jsonvalue.Value) (T, error) {
	n, ok := v.AsNumber()
	if !ok {
		return 0, oaschema.ExpectedType(t.name, v)
	}
	u, err := strconv.ParseUint(n.String(), 10, t.bits)
	if err == nil {
		return T(u), nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, oaschema.OutOfRange(t.name, n.String())
	}
	if f, ok := integral(n); ok {
		if f < 0 || f >= math.Ldexp(1, t.bits) {
			return 0, oaschema.OutOfRange(t.name, n.String())
		}
		return T(f), nil
	}
	return 0, oaschema.ExpectedType(t.name, v)
}

func (t *UnsignedType[T]) ToJSON(u T) jsonvalue.Value { return jsonvalue.Uint(uint64(u)) }

func integral(n j.Number) (float64, bool) {
	f, err := n.Float64()
	return f, err == nil && !math.IsInf(f, 0) && f == math.Trunc(f)
}

// ---- floats ----

// FloatType parses JSON numbers into T.
type FloatType[T Float] struct {
	primitive
	bits int
}

// FloatNumber returns a floating point shape.
func FloatNumber[T Float](format string, bits int) *FloatType[T] {
	return &FloatType[T]{primitive: primitive{name: scalarName("number", format), typ: "number", format: format}, bits: bits}
}

// Float32 returns the "number(float)" shape.
func Float32() *FloatType[float32] { return FloatNumber[float32]("float", 32) }

// Float64 returns the "number(double)" shape.
func Float64() *FloatType[float64] { return FloatNumber[float64]("double", 64) }

func (t *FloatType[T]) ParseFromJSON(v jsonvalue.Value) (T, error) {
	n, ok := v.AsNumber()
	if !ok {
		return 0, oaschema.ExpectedType(t.name, v)
	}
	f, err := strconv.ParseFloat(n.String(), t.bits)
	if err != nil {
		return 0, oaschema.OutOfRange(t.name, n.String())
	}
	return T(f), nil
}

func (t *FloatType[T]) ToJSON(f T) jsonvalue.Value {
	x := float64(f)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return jsonvalue.Null()
	}
	return jsonvalue.Number(j.Number(strconv.FormatFloat(x, 'g', -1, t.bits)))
}

// ---- strings ----

// StringType parses JSON strings with optional length and pattern bounds.
// Lengths count runes.
type StringType[T ~string] struct {
	format  string
	minLen  int
	maxLen  int
	pattern *regexp.Regexp
}

// String returns the plain string shape.
func String() *StringType[string] { return StringOf[string]() }

// StringOf returns a string shape projected onto the named string type T.
func StringOf[T ~string]() *StringType[T] { return &StringType[T]{minLen: -1, maxLen: -1} }

// Min sets the minimum length.
func (t *StringType[T]) Min(n int) *StringType[T] { c := *t; c.minLen = n; return &c }

// Max sets the maximum length.
func (t *StringType[T]) Max(n int) *StringType[T] { c := *t; c.maxLen = n; return &c }

// Format sets the schema format annotation. It does not affect parsing.
func (t *StringType[T]) Format(f string) *StringType[T] { c := *t; c.format = f; return &c }

// Pattern requires values to match expr. It panics if expr does not compile.
func (t *StringType[T]) Pattern(expr string) *StringType[T] {
	c := *t
	c.pattern = regexp.MustCompile(expr)
	return &c
}

func (t *StringType[T]) Name() string { return scalarName("string", t.format) }

func (t *StringType[T]) SchemaRef() registry.SchemaRef {
	s := &registry.Schema{Type: "string", Format: t.format}
	if t.minLen >= 0 {
		s.MinLength = ptr(t.minLen)
	}
	if t.maxLen >= 0 {
		s.MaxLength = ptr(t.maxLen)
	}
	if t.pattern != nil {
		s.Pattern = t.pattern.String()
	}
	return registry.Inline(s)
}

func (*StringType[T]) Register(*registry.Registry) error { return nil }

func (t *StringType[T]) ParseFromJSON(v jsonvalue.Value) (T, error) {
	s, ok := v.AsString()
	if !ok {
		return "", oaschema.ExpectedType(t.Name(), v)
	}
	if t.minLen >= 0 || t.maxLen >= 0 {
		n := len([]rune(s))
		if t.minLen >= 0 && n < t.minLen {
			return "", oaschema.TooShort(t.minLen, n)
		}
		if t.maxLen >= 0 && n > t.maxLen {
			return "", oaschema.TooLong(t.maxLen, n)
		}
	}
	if t.pattern != nil && !t.pattern.MatchString(s) {
		return "", oaschema.PatternMismatch(t.pattern.String())
	}
	return T(s), nil
}

func (*StringType[T]) ToJSON(s T) jsonvalue.Value { return jsonvalue.String(string(s)) }

func ptr[V any](v V) *V { return &v }
