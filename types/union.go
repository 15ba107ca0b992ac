package types

import (
	"errors"
	"fmt"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
)

// UnionType is a named one-of shape over T, usually an interface type the
// variants implement. With a discriminator the tag member selects the
// variant; without one the first variant that parses wins.
type UnionType[T any] struct {
	name          string
	description   string
	discriminator string
	variants      []Variant[T]
}

// Union starts a union shape registered as name.
func Union[T any](name string) *UnionType[T] { return &UnionType[T]{name: name} }

// Discriminator selects variants by the string member prop. The member is
// removed before the variant parses the value and added back on output.
func (u *UnionType[T]) Discriminator(prop string) *UnionType[T] { u.discriminator = prop; return u }

// Description sets the union description.
func (u *UnionType[T]) Description(d string) *UnionType[T] { u.description = d; return u }

// Variant appends variants in priority order.
func (u *UnionType[T]) Variant(vs ...Variant[T]) *UnionType[T] {
	u.variants = append(u.variants, vs...)
	return u
}

// Variant is one alternative of a union of T.
type Variant[T any] struct {
	tag   string
	typ   oaschema.Type
	parse func(jsonvalue.Value) (T, error)
	emit  func(T) (jsonvalue.Value, bool)
}

// VariantOf declares the alternative V of T tagged tag. V must be
// assignable to T; VariantOf panics otherwise.
func VariantOf[T, V any](tag string, typ oaschema.Codec[V]) Variant[T] {
	var zero V
	if _, ok := any(zero).(T); !ok {
		panic(fmt.Sprintf("types: variant %s (%T) does not implement the union type", typ.Name(), zero))
	}
	return Variant[T]{
		tag: tag,
		typ: typ,
		parse: func(v jsonvalue.Value) (T, error) {
			x, err := typ.ParseFromJSON(v)
			if err != nil {
				var z T
				return z, err
			}
			return any(x).(T), nil
		},
		emit: func(t T) (jsonvalue.Value, bool) {
			x, ok := any(t).(V)
			if !ok {
				return jsonvalue.Value{}, false
			}
			return typ.ToJSON(x), true
		},
	}
}

func (u *UnionType[T]) Name() string { return u.name }

func (u *UnionType[T]) SchemaRef() registry.SchemaRef { return registry.Reference(u.name) }

func (u *UnionType[T]) schema() *registry.Schema {
	s := &registry.Schema{Description: u.description}
	var mapping map[string]string
	for _, v := range u.variants {
		ref := v.typ.SchemaRef()
		s.OneOf = append(s.OneOf, ref)
		if u.discriminator != "" && ref.IsReference() {
			if mapping == nil {
				mapping = make(map[string]string, len(u.variants))
			}
			mapping[v.tag] = ref.RefPath()
		}
	}
	if u.discriminator != "" {
		s.Type = "object"
		s.Discriminator = &registry.Discriminator{PropertyName: u.discriminator, Mapping: mapping}
	}
	return s
}

func (u *UnionType[T]) Register(r *registry.Registry) error {
	if _, err := r.Register(u.name, u.schema()); err != nil {
		return err
	}
	return r.Visit(u.name, func() error {
		for _, v := range u.variants {
			if err := v.typ.Register(r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (u *UnionType[T]) ParseFromJSON(v jsonvalue.Value) (T, error) {
	if u.discriminator != "" {
		return u.parseTagged(v)
	}
	var errs []error
	for _, variant := range u.variants {
		x, err := variant.parse(v)
		if err == nil {
			return x, nil
		}
		errs = append(errs, err)
	}
	var zero T
	return zero, oaschema.UnionMismatch(u.name, errors.Join(errs...))
}

func (u *UnionType[T]) parseTagged(v jsonvalue.Value) (T, error) {
	var zero T
	if v.Kind() != jsonvalue.KindObject {
		return zero, oaschema.ExpectedType("object", v)
	}
	raw, ok := v.Get(u.discriminator)
	if !ok {
		return zero, oaschema.DiscriminatorMissing(u.discriminator)
	}
	tag, ok := raw.AsString()
	if !ok {
		return zero, oaschema.ExpectedType("string", raw).Propagate(oaschema.Key(u.discriminator))
	}
	for _, variant := range u.variants {
		if variant.tag == tag {
			return variant.parse(v.Without(u.discriminator))
		}
	}
	return zero, oaschema.DiscriminatorUnknown(u.discriminator, tag)
}

// ToJSON serializes with the first variant whose Go type matches. With a
// discriminator the tag is emitted as the first member. A value no variant
// matches (such as a nil interface) becomes null.
func (u *UnionType[T]) ToJSON(t T) jsonvalue.Value {
	for _, variant := range u.variants {
		out, ok := variant.emit(t)
		if !ok {
			continue
		}
		if u.discriminator == "" || out.Kind() != jsonvalue.KindObject {
			return out
		}
		pairs := []jsonvalue.Pair{{Key: u.discriminator, Value: jsonvalue.String(variant.tag)}}
		out.Range(func(k string, val jsonvalue.Value) bool {
			if k != u.discriminator {
				pairs = append(pairs, jsonvalue.Pair{Key: k, Value: val})
			}
			return true
		})
		return jsonvalue.Object(pairs...)
	}
	return jsonvalue.Null()
}
