package registry

import (
	"bytes"

	j "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Schema describes the JSON encoding of a shape. It is the fragment a
// document assembler emits under components/schemas or inline at the point
// of use. A Schema is immutable once handed to a Registry or a SchemaRef.
type Schema struct {
	// Core
	Type        string
	Format      string
	Title       string
	Description string
	Default     any
	Nullable    bool
	Enum        []any

	// Number
	Minimum *float64
	Maximum *float64

	// String
	MinLength *int
	MaxLength *int
	Pattern   string

	// Array
	Items       *SchemaRef
	MinItems    *int
	MaxItems    *int
	UniqueItems bool

	// Object
	Properties           []Property
	Required             []string
	AdditionalProperties *SchemaRef
	// Closed renders additionalProperties: false.
	Closed bool

	// Union
	OneOf         []SchemaRef
	Discriminator *Discriminator
}

// Property is a named object member, kept in declaration order.
type Property struct {
	Name   string
	Schema SchemaRef
}

// Discriminator names the member that selects a union variant.
type Discriminator struct {
	PropertyName string            `json:"propertyName" yaml:"propertyName"`
	Mapping      map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty"`
}

// NewSchema returns a Schema of the given type ("array", "object", "string", ...).
func NewSchema(typ string) *Schema { return &Schema{Type: typ} }

// Property returns the named property schema.
func (s *Schema) Property(name string) (SchemaRef, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return SchemaRef{}, false
}

// Equal reports whether both schemas produce the same encoding.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	a, errA := j.Marshal(s)
	b, errB := j.Marshal(o)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// wireSchema is the serialized form; Properties become an ordered map.
type wireSchema struct {
	Type                 string                                    `json:"type,omitempty" yaml:"type,omitempty"`
	Format               string                                    `json:"format,omitempty" yaml:"format,omitempty"`
	Title                string                                    `json:"title,omitempty" yaml:"title,omitempty"`
	Description          string                                    `json:"description,omitempty" yaml:"description,omitempty"`
	Default              any                                       `json:"default,omitempty" yaml:"default,omitempty"`
	Nullable             bool                                      `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Enum                 []any                                     `json:"enum,omitempty" yaml:"enum,omitempty"`
	Minimum              *float64                                  `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum              *float64                                  `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MinLength            *int                                      `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength            *int                                      `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern              string                                    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Items                *SchemaRef                                `json:"items,omitempty" yaml:"items,omitempty"`
	MinItems             *int                                      `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems             *int                                      `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	UniqueItems          bool                                      `json:"uniqueItems,omitempty" yaml:"uniqueItems,omitempty"`
	Properties           *orderedmap.OrderedMap[string, SchemaRef] `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string                                  `json:"required,omitempty" yaml:"required,omitempty"`
	AdditionalProperties *additional                               `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
	OneOf                []SchemaRef                               `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
	Discriminator        *Discriminator                            `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
}

func (s *Schema) wire() wireSchema {
	w := wireSchema{
		Type: s.Type, Format: s.Format, Title: s.Title, Description: s.Description,
		Default: s.Default, Nullable: s.Nullable, Enum: s.Enum,
		Minimum: s.Minimum, Maximum: s.Maximum,
		MinLength: s.MinLength, MaxLength: s.MaxLength, Pattern: s.Pattern,
		Items: s.Items, MinItems: s.MinItems, MaxItems: s.MaxItems, UniqueItems: s.UniqueItems,
		Required: s.Required,
		OneOf:    s.OneOf, Discriminator: s.Discriminator,
	}
	switch {
	case s.Closed:
		w.AdditionalProperties = &additional{}
	case s.AdditionalProperties != nil:
		w.AdditionalProperties = &additional{ref: s.AdditionalProperties}
	}
	if len(s.Properties) > 0 {
		w.Properties = orderedmap.New[string, SchemaRef](len(s.Properties))
		for _, p := range s.Properties {
			w.Properties.Set(p.Name, p.Schema)
		}
	}
	return w
}

// additional renders additionalProperties: a schema, or false when ref is nil.
type additional struct{ ref *SchemaRef }

func (a *additional) MarshalJSON() ([]byte, error) {
	if a.ref == nil {
		return []byte("false"), nil
	}
	return a.ref.MarshalJSON()
}

func (a *additional) MarshalYAML() (any, error) {
	if a.ref == nil {
		return false, nil
	}
	return a.ref.MarshalYAML()
}

// MarshalJSON implements json.Marshaler.
func (s *Schema) MarshalJSON() ([]byte, error) { return j.Marshal(s.wire()) }

// MarshalYAML implements yaml.Marshaler.
func (s *Schema) MarshalYAML() (any, error) { return s.wire(), nil }

// SchemaRef points at a schema either inline or by registry name.
type SchemaRef struct {
	Inline *Schema
	Ref    string
}

// Inline wraps a self-contained schema.
func Inline(s *Schema) SchemaRef { return SchemaRef{Inline: s} }

// Reference points at the registry entry name.
func Reference(name string) SchemaRef { return SchemaRef{Ref: name} }

// IsReference reports whether r names a registry entry.
func (r SchemaRef) IsReference() bool { return r.Ref != "" }

// RefPath renders the document-level pointer for a reference.
func (r SchemaRef) RefPath() string { return "#/components/schemas/" + r.Ref }

type wireRef struct {
	Ref string `json:"$ref" yaml:"$ref"`
}

// MarshalJSON implements json.Marshaler.
func (r SchemaRef) MarshalJSON() ([]byte, error) {
	if r.IsReference() {
		return j.Marshal(wireRef{Ref: r.RefPath()})
	}
	if r.Inline == nil {
		return []byte("{}"), nil
	}
	return r.Inline.MarshalJSON()
}

// MarshalYAML implements yaml.Marshaler.
func (r SchemaRef) MarshalYAML() (any, error) {
	if r.IsReference() {
		return wireRef{Ref: r.RefPath()}, nil
	}
	if r.Inline == nil {
		return map[string]any{}, nil
	}
	return r.Inline.wire(), nil
}
