package types

import (
	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
)

// ObjectType is a named record shape bound to the Go struct T. Its schema
// is registered under the record name and referenced everywhere else, so
// records may refer to themselves.
//
// Unlike the container shapes, the builder methods mutate the receiver:
// a recursive record must be able to refer to itself before its
// properties are declared.
type ObjectType[T any] struct {
	name        string
	description string
	strict      bool
	props       []Property[T]
	refines     []func(T) error
}

// Object starts a record shape registered as name.
func Object[T any](name string) *ObjectType[T] { return &ObjectType[T]{name: name} }

// Field appends properties in declaration order.
func (o *ObjectType[T]) Field(props ...Property[T]) *ObjectType[T] {
	o.props = append(o.props, props...)
	return o
}

// Description sets the record description.
func (o *ObjectType[T]) Description(d string) *ObjectType[T] { o.description = d; return o }

// UnknownStrict rejects members no property declares. By default they are
// ignored.
func (o *ObjectType[T]) UnknownStrict() *ObjectType[T] { o.strict = true; return o }

// Refine adds a check run on the parsed value. A *oaschema.ParseError is
// returned as is; other errors become custom errors at the record root.
func (o *ObjectType[T]) Refine(fn func(T) error) *ObjectType[T] {
	o.refines = append(o.refines, fn)
	return o
}

func (o *ObjectType[T]) Name() string { return o.name }

func (o *ObjectType[T]) SchemaRef() registry.SchemaRef { return registry.Reference(o.name) }

func (o *ObjectType[T]) schema() *registry.Schema {
	s := &registry.Schema{Type: "object", Description: o.description, Closed: o.strict}
	for _, p := range o.props {
		s.Properties = append(s.Properties, registry.Property{Name: p.name, Schema: p.schemaRef()})
		if p.required {
			s.Required = append(s.Required, p.name)
		}
	}
	return s
}

// Register adds the record, then every property shape. Cycles terminate
// through Registry.Visit.
func (o *ObjectType[T]) Register(r *registry.Registry) error {
	if _, err := r.Register(o.name, o.schema()); err != nil {
		return err
	}
	return r.Visit(o.name, func() error {
		for _, p := range o.props {
			if err := p.typ.Register(r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (o *ObjectType[T]) ParseFromJSON(v jsonvalue.Value) (T, error) {
	var out T
	if v.Kind() != jsonvalue.KindObject {
		return out, oaschema.ExpectedType("object", v)
	}
	for _, p := range o.props {
		raw, ok := v.Get(p.name)
		if !ok {
			if p.required {
				return out, oaschema.Required(p.name)
			}
			continue
		}
		if err := p.parse(raw, &out); err != nil {
			return out, oaschema.Propagate(err, oaschema.Key(p.name))
		}
	}
	if o.strict {
		for _, k := range v.Keys() {
			if !o.declares(k) {
				return out, oaschema.UnknownKey(k)
			}
		}
	}
	for _, fn := range o.refines {
		if err := fn(out); err != nil {
			if pe, ok := oaschema.AsParseError(err); ok {
				return out, pe
			}
			return out, oaschema.Custom(err.Error())
		}
	}
	return out, nil
}

func (o *ObjectType[T]) declares(key string) bool {
	for _, p := range o.props {
		if p.name == key {
			return true
		}
	}
	return false
}

// ToJSON emits properties in declaration order, omitting null values of
// properties that are not required.
func (o *ObjectType[T]) ToJSON(v T) jsonvalue.Value {
	pairs := make([]jsonvalue.Pair, 0, len(o.props))
	for _, p := range o.props {
		val := p.emit(&v)
		if val.IsNull() && !p.required {
			continue
		}
		pairs = append(pairs, jsonvalue.Pair{Key: p.name, Value: val})
	}
	return jsonvalue.Object(pairs...)
}

// Property is one member of a record of T.
type Property[T any] struct {
	name        string
	description string
	required    bool
	typ         oaschema.Type
	parse       func(jsonvalue.Value, *T) error
	emit        func(*T) jsonvalue.Value
}

// Prop declares the member name with shape typ, stored in the field at
// returns. Members are required unless typ is Optional.
func Prop[T, F any](name string, typ oaschema.Codec[F], at func(*T) *F) Property[T] {
	_, opt := typ.(omittable)
	return Property[T]{
		name:     name,
		required: !opt,
		typ:      typ,
		parse: func(raw jsonvalue.Value, dst *T) error {
			x, err := typ.ParseFromJSON(raw)
			if err != nil {
				return err
			}
			*at(dst) = x
			return nil
		},
		emit: func(src *T) jsonvalue.Value { return typ.ToJSON(*at(src)) },
	}
}

// Optional lets the member be absent; the field keeps its zero value.
func (p Property[T]) Optional() Property[T] { p.required = false; return p }

// Required makes the member mandatory.
func (p Property[T]) Required() Property[T] { p.required = true; return p }

// Description annotates the member. Referenced schemas cannot carry it.
func (p Property[T]) Description(d string) Property[T] { p.description = d; return p }

func (p Property[T]) schemaRef() registry.SchemaRef {
	ref := p.typ.SchemaRef()
	if p.description == "" || ref.IsReference() || ref.Inline == nil {
		return ref
	}
	s := *ref.Inline
	s.Description = p.description
	return registry.Inline(&s)
}
