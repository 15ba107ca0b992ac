package types

import (
	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
)

// EnumType is a named string enumeration.
type EnumType[T ~string] struct {
	name        string
	description string
	values      []T
}

// Enum returns a named enumeration over values. The schema is registered
// under name and referenced from other schemas.
func Enum[T ~string](name string, values ...T) *EnumType[T] {
	return &EnumType[T]{name: name, values: values}
}

// Description sets the schema description.
func (e *EnumType[T]) Description(d string) *EnumType[T] { c := *e; c.description = d; return &c }

// Values returns the allowed values in declaration order.
func (e *EnumType[T]) Values() []T { return append([]T(nil), e.values...) }

func (e *EnumType[T]) Name() string { return e.name }

func (e *EnumType[T]) SchemaRef() registry.SchemaRef { return registry.Reference(e.name) }

func (e *EnumType[T]) schema() *registry.Schema {
	s := &registry.Schema{Type: "string", Description: e.description, Enum: make([]any, len(e.values))}
	for i, v := range e.values {
		s.Enum[i] = string(v)
	}
	return s
}

func (e *EnumType[T]) Register(r *registry.Registry) error {
	_, err := r.Register(e.name, e.schema())
	return err
}

func (e *EnumType[T]) ParseFromJSON(v jsonvalue.Value) (T, error) {
	s, ok := v.AsString()
	if !ok {
		return "", oaschema.ExpectedType("string", v)
	}
	for _, x := range e.values {
		if string(x) == s {
			return x, nil
		}
	}
	allowed := make([]string, len(e.values))
	for i, x := range e.values {
		allowed[i] = string(x)
	}
	return "", oaschema.InvalidEnum(s, allowed)
}

func (e *EnumType[T]) ToJSON(x T) jsonvalue.Value { return jsonvalue.String(string(x)) }
