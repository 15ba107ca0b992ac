package oaschema

import (
	"fmt"

	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
)

// Type gives a shape a stable identity and a schema.
type Type interface {
	// Name is the canonical, deterministic name of the shape. It is the
	// registry key for named shapes.
	Name() string
	// SchemaRef returns the shape's schema inline, or a reference to its
	// registry entry.
	SchemaRef() registry.SchemaRef
	// Register ensures this shape's schema, and transitively every nested
	// shape's schema, is present in r. It is idempotent.
	Register(r *registry.Registry) error
}

// Parser converts a generic JSON value into T, validating structure.
type Parser[T any] interface {
	ParseFromJSON(v jsonvalue.Value) (T, error)
}

// Serializer converts T back into a generic JSON value. Serialization is
// total.
type Serializer[T any] interface {
	ToJSON(v T) jsonvalue.Value
}

// Codec is the full contract a describable value implements.
type Codec[T any] interface {
	Type
	Parser[T]
	Serializer[T]
}

// Register registers every type into r, stopping at the first failure.
func Register(r *registry.Registry, types ...Type) error {
	for _, t := range types {
		if err := t.Register(r); err != nil {
			return fmt.Errorf("register %s: %w", t.Name(), err)
		}
	}
	return nil
}

// MustRegister is Register for startup code: a conflicting registration is
// a programming error and panics.
func MustRegister(r *registry.Registry, types ...Type) {
	if err := Register(r, types...); err != nil {
		panic(err)
	}
}

// ParseJSON decodes data and parses it with p. Malformed JSON yields a
// *jsonvalue.DecodeError, shape failures a *ParseError.
func ParseJSON[T any](p Parser[T], data []byte, opts ...jsonvalue.DecodeOptions) (T, error) {
	v, err := jsonvalue.Decode(data, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return p.ParseFromJSON(v)
}

// ParseYAML is ParseJSON for YAML input.
func ParseYAML[T any](p Parser[T], data []byte, opts ...jsonvalue.DecodeOptions) (T, error) {
	v, err := jsonvalue.DecodeYAML(data, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return p.ParseFromJSON(v)
}

// MarshalJSON serializes v with s and renders compact JSON.
func MarshalJSON[T any](s Serializer[T], v T) []byte {
	return s.ToJSON(v).AppendJSON(nil)
}
