package types

import (
	"strconv"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
)

// FixedArrayType is a sequence of exactly n elements of E. Values are []E
// holding n elements; Go generics cannot range over array lengths.
//
// The shape is anonymous: its name is "[" + element name + "]", its schema
// is always inline and Register only registers the element.
type FixedArrayType[E any] struct {
	elem oaschema.Codec[E]
	n    int
}

// FixedArray returns the shape of arrays of exactly n elements of elem.
// It panics if n is negative.
func FixedArray[E any](elem oaschema.Codec[E], n int) *FixedArrayType[E] {
	if n < 0 {
		panic("types: negative fixed array length " + strconv.Itoa(n))
	}
	return &FixedArrayType[E]{elem: elem, n: n}
}

// Len returns the fixed length.
func (a *FixedArrayType[E]) Len() int { return a.n }

func (a *FixedArrayType[E]) Name() string { return "[" + a.elem.Name() + "]" }

func (a *FixedArrayType[E]) SchemaRef() registry.SchemaRef {
	items := a.elem.SchemaRef()
	return registry.Inline(&registry.Schema{
		Type:     "array",
		Items:    &items,
		MinItems: ptr(a.n),
		MaxItems: ptr(a.n),
	})
}

func (a *FixedArrayType[E]) Register(r *registry.Registry) error { return a.elem.Register(r) }

func (a *FixedArrayType[E]) ParseFromJSON(v jsonvalue.Value) ([]E, error) {
	if v.Kind() != jsonvalue.KindArray {
		return nil, oaschema.ExpectedType("array", v)
	}
	items := v.Items()
	if len(items) != a.n {
		return nil, oaschema.LengthMismatch(a.n, len(items))
	}
	return parseItems(a.elem, items)
}

func (a *FixedArrayType[E]) ToJSON(vs []E) jsonvalue.Value { return itemsToJSON(a.elem, vs) }

// Validate checks a Go-side value before serialization.
func (a *FixedArrayType[E]) Validate(vs []E) error {
	if len(vs) != a.n {
		return oaschema.LengthMismatch(a.n, len(vs))
	}
	return nil
}

func parseItems[E any](elem oaschema.Parser[E], items []jsonvalue.Value) ([]E, error) {
	out := make([]E, len(items))
	for i, item := range items {
		x, err := elem.ParseFromJSON(item)
		if err != nil {
			return nil, oaschema.Propagate(err, oaschema.Index(i))
		}
		out[i] = x
	}
	return out, nil
}

func itemsToJSON[E any](elem oaschema.Serializer[E], vs []E) jsonvalue.Value {
	items := make([]jsonvalue.Value, len(vs))
	for i, x := range vs {
		items[i] = elem.ToJSON(x)
	}
	return jsonvalue.Array(items...)
}

// ListType is a variable-length sequence of E with optional bounds.
type ListType[E any] struct {
	elem   oaschema.Codec[E]
	minLen int
	maxLen int
}

// List returns the shape of arrays of elem.
func List[E any](elem oaschema.Codec[E]) *ListType[E] {
	return &ListType[E]{elem: elem, minLen: -1, maxLen: -1}
}

// Min sets the minimum number of items.
func (l *ListType[E]) Min(n int) *ListType[E] { c := *l; c.minLen = n; return &c }

// Max sets the maximum number of items.
func (l *ListType[E]) Max(n int) *ListType[E] { c := *l; c.maxLen = n; return &c }

func (l *ListType[E]) Name() string { return "[" + l.elem.Name() + "]" }

func (l *ListType[E]) SchemaRef() registry.SchemaRef {
	items := l.elem.SchemaRef()
	s := &registry.Schema{Type: "array", Items: &items}
	if l.minLen >= 0 {
		s.MinItems = ptr(l.minLen)
	}
	if l.maxLen >= 0 {
		s.MaxItems = ptr(l.maxLen)
	}
	return registry.Inline(s)
}

func (l *ListType[E]) Register(r *registry.Registry) error { return l.elem.Register(r) }

func (l *ListType[E]) ParseFromJSON(v jsonvalue.Value) ([]E, error) {
	if v.Kind() != jsonvalue.KindArray {
		return nil, oaschema.ExpectedType("array", v)
	}
	items := v.Items()
	if l.minLen >= 0 && len(items) < l.minLen {
		return nil, oaschema.TooShort(l.minLen, len(items))
	}
	if l.maxLen >= 0 && len(items) > l.maxLen {
		return nil, oaschema.TooLong(l.maxLen, len(items))
	}
	return parseItems(l.elem, items)
}

func (l *ListType[E]) ToJSON(vs []E) jsonvalue.Value { return itemsToJSON(l.elem, vs) }

// SetType is a sequence of distinct E. Order of the input is kept.
type SetType[E comparable] struct {
	elem oaschema.Codec[E]
}

// Set returns the shape of arrays of unique elem values.
func Set[E comparable](elem oaschema.Codec[E]) *SetType[E] { return &SetType[E]{elem: elem} }

func (s *SetType[E]) Name() string { return "[" + s.elem.Name() + "]" }

func (s *SetType[E]) SchemaRef() registry.SchemaRef {
	items := s.elem.SchemaRef()
	return registry.Inline(&registry.Schema{Type: "array", Items: &items, UniqueItems: true})
}

func (s *SetType[E]) Register(r *registry.Registry) error { return s.elem.Register(r) }

func (s *SetType[E]) ParseFromJSON(v jsonvalue.Value) ([]E, error) {
	if v.Kind() != jsonvalue.KindArray {
		return nil, oaschema.ExpectedType("array", v)
	}
	out, err := parseItems(s.elem, v.Items())
	if err != nil {
		return nil, err
	}
	seen := make(map[E]int, len(out))
	for i, x := range out {
		if first, dup := seen[x]; dup {
			return nil, oaschema.DuplicateItem(first).Propagate(oaschema.Index(i))
		}
		seen[x] = i
	}
	return out, nil
}

func (s *SetType[E]) ToJSON(vs []E) jsonvalue.Value { return itemsToJSON(s.elem, vs) }
