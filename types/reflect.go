package types

import (
	"bytes"
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	j "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/i18n"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
)

// ReflectedType is a record shape derived from the Go struct T and its json
// tags. Nested named structs are registered under their own names.
// Parsing checks the value against the reflected schema and then decodes
// through the struct's JSON encoding; serialization uses that encoding too.
type ReflectedType[T any] struct {
	name   string
	strict bool
	root   *jsonschema.Schema
}

// Reflect derives the shape of T, registered under T's Go type name. It
// panics if T is not a named struct type.
func Reflect[T any]() *ReflectedType[T] {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct || rt.Name() == "" {
		panic("types: Reflect needs a named struct type, got " + rt.String())
	}
	t := &ReflectedType[T]{name: rt.Name()}
	t.reflect()
	return t
}

func (t *ReflectedType[T]) reflect() {
	r := &jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: !t.strict,
	}
	t.root = r.Reflect(new(T))
}

// Named overrides the registry name.
func (t *ReflectedType[T]) Named(name string) *ReflectedType[T] {
	c := *t
	c.name = name
	return &c
}

// UnknownStrict rejects members the struct does not declare.
func (t *ReflectedType[T]) UnknownStrict() *ReflectedType[T] {
	c := *t
	c.strict = true
	c.reflect()
	return &c
}

func (t *ReflectedType[T]) Name() string { return t.name }

func (t *ReflectedType[T]) SchemaRef() registry.SchemaRef { return registry.Reference(t.name) }

func (t *ReflectedType[T]) Register(r *registry.Registry) error {
	root := convertSchema(t.root)
	root.Inline.Title = ""
	if _, err := r.Register(t.name, root.Inline); err != nil {
		return err
	}
	return r.Visit(t.name, func() error {
		names := make([]string, 0, len(t.root.Definitions))
		for name := range t.root.Definitions {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ref := convertSchema(t.root.Definitions[name])
			if ref.Inline == nil {
				continue
			}
			if _, err := r.Register(name, ref.Inline); err != nil {
				return err
			}
		}
		return nil
	})
}

// ParseFromJSON checks v against the reflected schema, then decodes it into
// T. The check runs at every nesting level, so failures carry the position
// of the offending member or item.
func (t *ReflectedType[T]) ParseFromJSON(v jsonvalue.Value) (T, error) {
	var out T
	if v.Kind() != jsonvalue.KindObject {
		return out, oaschema.ExpectedType("object", v)
	}
	if err := t.check(t.root, v); err != nil {
		return out, err
	}
	dec := j.NewDecoder(bytes.NewReader(v.AppendJSON(nil)))
	if err := dec.Decode(&out); err != nil {
		return out, unmarshalError(err)
	}
	return out, nil
}

func (t *ReflectedType[T]) resolve(s *jsonschema.Schema) *jsonschema.Schema {
	for s != nil && s.Ref != "" {
		def, ok := t.root.Definitions[strings.TrimPrefix(s.Ref, "#/$defs/")]
		if !ok {
			return nil
		}
		s = def
	}
	return s
}

func (t *ReflectedType[T]) check(s *jsonschema.Schema, v jsonvalue.Value) *oaschema.ParseError {
	s = t.resolve(s)
	if s == nil || len(s.OneOf) > 0 || len(s.AnyOf) > 0 {
		return nil
	}
	switch s.Type {
	case "object":
		return t.checkObject(s, v)
	case "array":
		if v.Kind() != jsonvalue.KindArray {
			return oaschema.ExpectedType("array", v)
		}
		for i, item := range v.Items() {
			if item.IsNull() {
				continue
			}
			if err := t.check(s.Items, item); err != nil {
				return err.Propagate(oaschema.Index(i))
			}
		}
	case "string":
		str, ok := v.AsString()
		if !ok {
			return oaschema.ExpectedType("string", v)
		}
		if s.Format == "date-time" {
			if _, err := time.Parse(time.RFC3339Nano, str); err != nil {
				return oaschema.InvalidFormat("date-time", err)
			}
		}
	case "integer":
		n, ok := v.AsNumber()
		if !ok {
			return oaschema.ExpectedType("integer", v)
		}
		if _, ok := integral(n); !ok {
			return oaschema.ExpectedType("integer", v)
		}
	case "number":
		if v.Kind() != jsonvalue.KindNumber {
			return oaschema.ExpectedType("number", v)
		}
	case "boolean":
		if v.Kind() != jsonvalue.KindBool {
			return oaschema.ExpectedType("boolean", v)
		}
	}
	return nil
}

// checkObject enforces required members, rejects undeclared members when
// additional properties are closed, and descends into every member. A null
// member is accepted when the member is optional.
func (t *ReflectedType[T]) checkObject(s *jsonschema.Schema, v jsonvalue.Value) *oaschema.ParseError {
	if v.Kind() != jsonvalue.KindObject {
		return oaschema.ExpectedType("object", v)
	}
	for _, key := range s.Required {
		if _, ok := v.Get(key); !ok {
			return oaschema.Required(key)
		}
	}
	required := make(map[string]bool, len(s.Required))
	for _, key := range s.Required {
		required[key] = true
	}
	var err *oaschema.ParseError
	v.Range(func(key string, member jsonvalue.Value) bool {
		var ms *jsonschema.Schema
		if s.Properties != nil {
			ms, _ = s.Properties.Get(key)
		}
		if ms == nil {
			switch ap := s.AdditionalProperties; {
			case ap == jsonschema.FalseSchema:
				err = oaschema.UnknownKey(key)
				return false
			case ap != nil && ap != jsonschema.TrueSchema:
				ms = ap
			default:
				return true
			}
		}
		if member.IsNull() && !required[key] {
			return true
		}
		if e := t.check(ms, member); e != nil {
			err = e.Propagate(oaschema.Key(key))
			return false
		}
		return true
	})
	return err
}

// ToJSON marshals v with its JSON encoding. A value that cannot be
// marshalled becomes null.
func (t *ReflectedType[T]) ToJSON(v T) jsonvalue.Value {
	b, err := j.Marshal(v)
	if err != nil {
		return jsonvalue.Null()
	}
	out, err := jsonvalue.Decode(b)
	if err != nil {
		return jsonvalue.Null()
	}
	return out
}

func unmarshalError(err error) *oaschema.ParseError {
	var te *j.UnmarshalTypeError
	if !errors.As(err, &te) {
		return &oaschema.ParseError{Code: oaschema.CodeParseError, Message: err.Error(), Cause: err}
	}
	var path []oaschema.PathElem
	if te.Field != "" {
		for _, k := range strings.Split(te.Field, ".") {
			path = append(path, oaschema.Key(k))
		}
	}
	expected := te.Type.String()
	actual, _, _ := strings.Cut(te.Value, " ")
	return &oaschema.ParseError{
		Code:    oaschema.CodeInvalidType,
		Path:    path,
		Message: i18n.T(oaschema.CodeInvalidType, map[string]string{"expected": expected, "actual": actual}),
		Params:  map[string]any{"expected": expected, "actual": actual},
		Cause:   err,
	}
}

// convertSchema maps a reflected JSON Schema onto the registry model.
// $defs references become registry references.
func convertSchema(s *jsonschema.Schema) registry.SchemaRef {
	if s == nil {
		return registry.Inline(&registry.Schema{})
	}
	if s.Ref != "" {
		return registry.Reference(strings.TrimPrefix(s.Ref, "#/$defs/"))
	}
	out := &registry.Schema{
		Type:        s.Type,
		Format:      s.Format,
		Title:       s.Title,
		Description: s.Description,
		Default:     s.Default,
		Enum:        s.Enum,
		Pattern:     s.Pattern,
		UniqueItems: s.UniqueItems,
		Required:    s.Required,
	}
	if f, err := s.Minimum.Float64(); err == nil && s.Minimum != "" {
		out.Minimum = &f
	}
	if f, err := s.Maximum.Float64(); err == nil && s.Maximum != "" {
		out.Maximum = &f
	}
	out.MinLength = intPtr(s.MinLength)
	out.MaxLength = intPtr(s.MaxLength)
	out.MinItems = intPtr(s.MinItems)
	out.MaxItems = intPtr(s.MaxItems)
	if s.Items != nil {
		items := convertSchema(s.Items)
		out.Items = &items
	}
	if s.Properties != nil {
		for p := s.Properties.Oldest(); p != nil; p = p.Next() {
			out.Properties = append(out.Properties, registry.Property{Name: p.Key, Schema: convertSchema(p.Value)})
		}
	}
	switch ap := s.AdditionalProperties; {
	case ap == jsonschema.FalseSchema:
		out.Closed = true
	case ap != nil && ap != jsonschema.TrueSchema:
		ref := convertSchema(ap)
		out.AdditionalProperties = &ref
	}
	for _, alt := range append(append([]*jsonschema.Schema(nil), s.OneOf...), s.AnyOf...) {
		out.OneOf = append(out.OneOf, convertSchema(alt))
	}
	return registry.Inline(out)
}

func intPtr(u *uint64) *int {
	if u == nil {
		return nil
	}
	n := int(*u)
	return &n
}
