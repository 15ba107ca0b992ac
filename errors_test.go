package oaschema_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/reoring/oaschema"
)

func TestParseError_PropagatePrepends(t *testing.T) {
	base := oaschema.LengthMismatch(3, 2)
	inner := base.Propagate(oaschema.Index(1))
	outer := inner.Propagate(oaschema.Key("coords"))

	if got := outer.Pointer(); got != "/coords/1" {
		t.Fatalf("pointer: %s", got)
	}
	if got := inner.Pointer(); got != "/1" {
		t.Fatalf("inner mutated: %s", got)
	}
	if got := base.Pointer(); got != "/" {
		t.Fatalf("base mutated: %s", got)
	}
	if outer.Message != "the length of the list must be `3`" {
		t.Fatalf("message: %q", outer.Message)
	}
	if outer.Params["expected"] != 3 || outer.Params["actual"] != 2 {
		t.Fatalf("params: %v", outer.Params)
	}
}

func TestParseError_PointerEscapes(t *testing.T) {
	e := oaschema.Required("a/b").Propagate(oaschema.Key("m~n"))
	if got := e.Pointer(); got != "/m~0n/a~1b" {
		t.Fatalf("pointer: %s", got)
	}
}

func TestParseError_RootAndEmptyKey(t *testing.T) {
	root := oaschema.Custom("bad")
	member := oaschema.Custom("bad").Propagate(oaschema.Key(""))
	if root.Pointer() != "/" || member.Pointer() != "/" {
		t.Fatalf("pointers: %q %q", root.Pointer(), member.Pointer())
	}
	if len(root.Path) != 0 || len(member.Path) != 1 || member.Path[0].Key != "" || member.Path[0].IsIndex {
		t.Fatalf("paths must differ: %v %v", root.Path, member.Path)
	}
}

func TestPropagate_WrapsForeignErrors(t *testing.T) {
	cause := errors.New("boom")
	e := oaschema.Propagate(cause, oaschema.Index(4))
	if e.Code != oaschema.CodeParseError || e.Pointer() != "/4" {
		t.Fatalf("unexpected: %v", e)
	}
	if !errors.Is(e, cause) {
		t.Fatalf("cause lost")
	}
	wrapped := fmt.Errorf("ctx: %w", oaschema.Required("id"))
	if got := oaschema.Propagate(wrapped, oaschema.Key("owner")).Pointer(); got != "/owner/id" {
		t.Fatalf("wrapped pointer: %s", got)
	}
}

func TestParseError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("handler: %w", oaschema.Required("name").Propagate(oaschema.Index(0)))
	if !errors.Is(err, &oaschema.ParseError{Code: oaschema.CodeRequired}) {
		t.Fatalf("want match on code")
	}
	if errors.Is(err, &oaschema.ParseError{Code: oaschema.CodeUnknownKey}) {
		t.Fatalf("unexpected match")
	}
	if _, ok := oaschema.AsParseError(err); !ok {
		t.Fatalf("AsParseError failed")
	}
}

func TestAsIssues(t *testing.T) {
	if oaschema.AsIssues(nil) != nil {
		t.Fatalf("nil error must yield nil issues")
	}
	iss := oaschema.AsIssues(oaschema.TooShort(2, 1).Propagate(oaschema.Key("tags")))
	if len(iss) != 1 || iss[0].Path != "/tags" || iss[0].Code != oaschema.CodeTooShort {
		t.Fatalf("issues: %+v", iss)
	}
	passthrough := oaschema.Issues{{Path: "/a", Code: "x"}, {Path: "/b", Code: "y"}}
	if got := oaschema.AsIssues(fmt.Errorf("w: %w", passthrough)); len(got) != 2 {
		t.Fatalf("passthrough: %+v", got)
	}
	other := oaschema.AsIssues(errors.New("nope"))
	if other[0].Path != "/" || other[0].Code != oaschema.CodeParseError {
		t.Fatalf("fallback: %+v", other)
	}
}

func TestIssues_ErrorSummarizes(t *testing.T) {
	iss := oaschema.Issues{
		{Path: "/a", Code: "required"},
		{Path: "/b", Code: "too_long"},
		{Path: "/c", Code: "custom"},
		{Path: "/d", Code: "custom"},
	}
	msg := iss.Error()
	if !strings.HasPrefix(msg, "required at /a; too_long at /b; custom at /c") {
		t.Fatalf("msg: %s", msg)
	}
	if !strings.HasSuffix(msg, "(total 4)") {
		t.Fatalf("msg: %s", msg)
	}
	if (oaschema.Issues{}).Error() != "" {
		t.Fatalf("empty issues must render empty")
	}
}

func TestConstructors(t *testing.T) {
	cases := []struct {
		err  *oaschema.ParseError
		code string
		ptr  string
	}{
		{oaschema.UnknownKey("extra"), oaschema.CodeUnknownKey, "/extra"},
		{oaschema.DiscriminatorMissing("kind"), oaschema.CodeDiscriminatorMissing, "/kind"},
		{oaschema.DiscriminatorUnknown("kind", "hexagon"), oaschema.CodeDiscriminatorUnknown, "/kind"},
		{oaschema.InvalidEnum("x", []string{"a", "b"}), oaschema.CodeInvalidEnum, "/"},
		{oaschema.Customf("bad %d", 1), oaschema.CodeCustom, "/"},
	}
	for _, tc := range cases {
		if tc.err.Code != tc.code || tc.err.Pointer() != tc.ptr {
			t.Fatalf("%s: got %s at %s", tc.code, tc.err.Code, tc.err.Pointer())
		}
		if tc.err.Message == "" {
			t.Fatalf("%s: empty message", tc.code)
		}
	}
}
