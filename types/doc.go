// Package types provides the built-in shapes: scalars, fixed and variable
// length arrays, sets, maps, optionals, enums, records, unions and records
// reflected from Go structs.
//
// Anonymous shapes (scalars and containers) describe themselves inline and
// register only what they contain. Named shapes (Object, Union, Enum,
// Reflect) register under their name and are referenced everywhere else.
//
//	point := types.Object[Point]("Point").Field(
//		types.Prop("xy", types.FixedArray(types.Float64(), 2), func(p *Point) *[]float64 { return &p.XY }),
//	)
package types
