package types

import (
	"sort"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
)

// MapType is a JSON object with arbitrary keys and values of E.
type MapType[E any] struct {
	elem oaschema.Codec[E]
}

// Map returns the shape of string-keyed objects whose values are elem.
func Map[E any](elem oaschema.Codec[E]) *MapType[E] { return &MapType[E]{elem: elem} }

func (m *MapType[E]) Name() string { return "map<string, " + m.elem.Name() + ">" }

func (m *MapType[E]) SchemaRef() registry.SchemaRef {
	values := m.elem.SchemaRef()
	return registry.Inline(&registry.Schema{Type: "object", AdditionalProperties: &values})
}

func (m *MapType[E]) Register(r *registry.Registry) error { return m.elem.Register(r) }

func (m *MapType[E]) ParseFromJSON(v jsonvalue.Value) (map[string]E, error) {
	if v.Kind() != jsonvalue.KindObject {
		return nil, oaschema.ExpectedType("object", v)
	}
	out := make(map[string]E, v.Len())
	var err error
	v.Range(func(k string, item jsonvalue.Value) bool {
		x, perr := m.elem.ParseFromJSON(item)
		if perr != nil {
			err = oaschema.Propagate(perr, oaschema.Key(k))
			return false
		}
		out[k] = x
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToJSON renders keys in sorted order.
func (m *MapType[E]) ToJSON(vs map[string]E) jsonvalue.Value {
	keys := make([]string, 0, len(vs))
	for k := range vs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]jsonvalue.Pair, len(keys))
	for i, k := range keys {
		pairs[i] = jsonvalue.Pair{Key: k, Value: m.elem.ToJSON(vs[k])}
	}
	return jsonvalue.Object(pairs...)
}
