package types_test

import (
	"strings"
	"testing"

	"github.com/reoring/oaschema"
	"github.com/reoring/oaschema/jsonvalue"
	"github.com/reoring/oaschema/registry"
	"github.com/reoring/oaschema/types"
)

type Owner struct {
	Name string `json:"name"`
}

type Order struct {
	ID    int64    `json:"id"`
	Items []string `json:"items"`
	Owner Owner    `json:"owner"`
	Note  string   `json:"note,omitempty"`
}

func TestReflect_RegistersNestedStructs(t *testing.T) {
	o := types.Reflect[Order]()
	if o.Name() != "Order" || o.SchemaRef().Ref != "Order" {
		t.Fatalf("name = %q ref = %+v", o.Name(), o.SchemaRef())
	}
	reg := registry.New()
	if err := o.Register(reg); err != nil {
		t.Fatal(err)
	}
	s, ok := reg.Lookup("Order")
	if !ok {
		t.Fatalf("Order missing: %v", reg.Names())
	}
	owner, ok := s.Property("owner")
	if !ok || owner.Ref != "Owner" {
		t.Fatalf("owner should reference Owner: %+v", owner)
	}
	if _, ok := reg.Lookup("Owner"); !ok {
		t.Fatalf("Owner not registered: %v", reg.Names())
	}
	// omitempty members are optional
	for _, r := range s.Required {
		if r == "note" {
			t.Fatalf("note should not be required: %v", s.Required)
		}
	}
	if err := o.Register(reg); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}

func TestReflect_ParseAndToJSON(t *testing.T) {
	o := types.Reflect[Order]()
	got, err := o.ParseFromJSON(jsonvalue.MustParse(`{"id":1,"items":["a"],"owner":{"name":"kim"}}`))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ID != 1 || got.Owner.Name != "kim" {
		t.Fatalf("got %+v", got)
	}
	out := o.ToJSON(got)
	if out.String() != `{"id":1,"items":["a"],"owner":{"name":"kim"}}` {
		t.Fatalf("ToJSON = %s", out)
	}

	_, err = o.ParseFromJSON(jsonvalue.MustParse(`{"items":[],"owner":{"name":"x"}}`))
	if pe, ok := oaschema.AsParseError(err); !ok || pe.Code != oaschema.CodeRequired || pe.Pointer() != "/id" {
		t.Fatalf("want required at /id, got %v", err)
	}
	_, err = o.ParseFromJSON(jsonvalue.MustParse(`{"id":"x","items":[],"owner":{"name":"x"}}`))
	if pe, ok := oaschema.AsParseError(err); !ok || pe.Code != oaschema.CodeInvalidType {
		t.Fatalf("want invalid_type, got %v", err)
	}
}

func TestReflect_UnknownStrict(t *testing.T) {
	o := types.Reflect[Owner]().UnknownStrict()
	_, err := o.ParseFromJSON(jsonvalue.MustParse(`{"name":"a","age":3}`))
	if pe, ok := oaschema.AsParseError(err); !ok || pe.Code != oaschema.CodeUnknownKey || pe.Pointer() != "/age" {
		t.Fatalf("want unknown_key at /age, got %v", err)
	}
}

type Leaf struct {
	A int `json:"a"`
}

type Branch struct {
	Leaf Leaf `json:"leaf"`
}

type Tree struct {
	Name     string   `json:"name"`
	Branches []Branch `json:"branches"`
}

func TestReflect_NestedErrorPaths(t *testing.T) {
	cases := []struct {
		name    string
		strict  bool
		in      string
		code    string
		pointer string
	}{
		{"type at index", false, `{"name":"t","branches":[{"leaf":{"a":1}},{"leaf":{"a":"s"}}]}`, oaschema.CodeInvalidType, "/branches/1/leaf/a"},
		{"fraction for int", false, `{"name":"t","branches":[{"leaf":{"a":1.5}}]}`, oaschema.CodeInvalidType, "/branches/0/leaf/a"},
		{"nested required", false, `{"name":"t","branches":[{"leaf":{}}]}`, oaschema.CodeRequired, "/branches/0/leaf/a"},
		{"array expected", false, `{"name":"t","branches":{}}`, oaschema.CodeInvalidType, "/branches"},
		{"nested unknown strict", true, `{"name":"t","branches":[{"leaf":{"a":1,"zzz":2}}]}`, oaschema.CodeUnknownKey, "/branches/0/leaf/zzz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := types.Reflect[Tree]()
			if tc.strict {
				tr = tr.UnknownStrict()
			}
			_, err := tr.ParseFromJSON(jsonvalue.MustParse(tc.in))
			pe := mustParseError(t, err)
			if pe.Code != tc.code || pe.Pointer() != tc.pointer {
				t.Fatalf("got %s at %s, want %s at %s", pe.Code, pe.Pointer(), tc.code, tc.pointer)
			}
		})
	}

	got, err := types.Reflect[Tree]().ParseFromJSON(jsonvalue.MustParse(`{"name":"t","branches":[{"leaf":{"a":2,"extra":true}}]}`))
	if err != nil || got.Branches[0].Leaf.A != 2 {
		t.Fatalf("lenient parse: %+v %v", got, err)
	}
}

func TestReflect_StrictSchemaIsClosed(t *testing.T) {
	reg := registry.New()
	if err := types.Reflect[Tree]().UnknownStrict().Register(reg); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Tree", "Branch", "Leaf"} {
		s, ok := reg.Lookup(name)
		if !ok {
			t.Fatalf("%s missing: %v", name, reg.Names())
		}
		b, err := s.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(b), `"additionalProperties":false`) {
			t.Fatalf("%s should be closed: %s", name, b)
		}
	}
}

func TestReflect_PanicsOnNonStruct(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("want panic")
		}
	}()
	types.Reflect[int]()
}
