// Package oaschema defines the typed value contract shared by every
// describable shape:
//
//   - Type gives a shape a canonical name and a schema, and registers that
//     schema (and every nested one) into a registry.Registry exactly once.
//   - Parser and Serializer convert between a typed value and the generic
//     jsonvalue.Value. Parsing validates; serializing is total.
//   - ParseError reports failures with a JSON Pointer path that containers
//     extend through Propagate as the error travels outward.
//
// Shape implementations (primitives, fixed-size arrays, lists, maps,
// records, unions) live in types/. Request extraction built on this
// contract lives in extract/ and header/; HTTP bindings in middleware/.
//
// Typical usage:
//
//	coords := types.FixedArray(types.Int32(), 3)
//	reg := registry.New()
//	oaschema.MustRegister(reg, coords)
//	v, err := oaschema.ParseJSON(coords, []byte(`[1,2,3]`))
//	out := oaschema.MarshalJSON(coords, v) // [1,2,3]
package oaschema
