package types

import (
	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
)

// OptionalType maps JSON null (or an absent object member) to a nil
// pointer and anything else through the element shape.
type OptionalType[E any] struct {
	elem oaschema.Codec[E]
}

// Optional returns the nullable form of elem. Object properties declared
// with an Optional shape are not required.
func Optional[E any](elem oaschema.Codec[E]) *OptionalType[E] { return &OptionalType[E]{elem: elem} }

func (o *OptionalType[E]) Name() string { return o.elem.Name() }

// SchemaRef marks inline schemas nullable; references are returned as is.
func (o *OptionalType[E]) SchemaRef() registry.SchemaRef {
	ref := o.elem.SchemaRef()
	if ref.IsReference() || ref.Inline == nil {
		return ref
	}
	s := *ref.Inline
	s.Nullable = true
	return registry.Inline(&s)
}

func (o *OptionalType[E]) Register(r *registry.Registry) error { return o.elem.Register(r) }

func (o *OptionalType[E]) ParseFromJSON(v jsonvalue.Value) (*E, error) {
	if v.IsNull() {
		return nil, nil
	}
	x, err := o.elem.ParseFromJSON(v)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func (o *OptionalType[E]) ToJSON(p *E) jsonvalue.Value {
	if p == nil {
		return jsonvalue.Null()
	}
	return o.elem.ToJSON(*p)
}

func (*OptionalType[E]) omittable() {}

// omittable is implemented by shapes whose absence is a valid value.
type omittable interface{ omittable() }
