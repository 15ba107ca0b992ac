package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
)

type dateTimeType struct{ primitive }

// DateTime returns the RFC 3339 "string(date-time)" shape.
func DateTime() oaschema.Codec[time.Time] {
	return dateTimeType{primitive{name: "string(date-time)", typ: "string", format: "date-time"}}
}

func (t dateTimeType) ParseFromJSON(v jsonvalue.Value) (time.Time, error) {
	s, ok := v.AsString()
	if !ok {
		return time.Time{}, oaschema.ExpectedType(t.name, v)
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, oaschema.InvalidFormat("date-time", err)
	}
	return ts, nil
}

// ToJSON renders UTC with only as many fractional digits as needed.
func (dateTimeType) ToJSON(ts time.Time) jsonvalue.Value {
	return jsonvalue.String(ts.UTC().Format(time.RFC3339Nano))
}

type uuidType struct{ primitive }

// UUID returns the "string(uuid)" shape.
func UUID() oaschema.Codec[uuid.UUID] {
	return uuidType{primitive{name: "string(uuid)", typ: "string", format: "uuid"}}
}

func (t uuidType) ParseFromJSON(v jsonvalue.Value) (uuid.UUID, error) {
	s, ok := v.AsString()
	if !ok {
		return uuid.Nil, oaschema.ExpectedType(t.name, v)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, oaschema.InvalidFormat("uuid", err)
	}
	return id, nil
}

func (uuidType) ToJSON(id uuid.UUID) jsonvalue.Value { return jsonvalue.String(id.String()) }

type anyType struct{}

// Any accepts every JSON value unchanged. Its schema is the empty schema.
func Any() oaschema.Codec[jsonvalue.Value] { return anyType{} }

func (anyType) Name() string { return "any" }

func (anyType) SchemaRef() registry.SchemaRef { return registry.Inline(&registry.Schema{}) }

func (anyType) Register(*registry.Registry) error { return nil }

func (anyType) ParseFromJSON(v jsonvalue.Value) (jsonvalue.Value, error) { return v, nil }

func (anyType) ToJSON(v jsonvalue.Value) jsonvalue.Value { return v }
