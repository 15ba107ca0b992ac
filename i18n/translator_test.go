package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	t.Cleanup(func() { SetLanguage("en") })

	if msg := T("length_mismatch", map[string]string{"expected": "3"}); msg != "the length of the list must be `3`" {
		t.Fatalf("unexpected en message: %q", msg)
	}

	SetLanguage("ja")
	if msg := T("length_mismatch", map[string]string{"expected": "3"}); msg != "要素数は `3` でなければなりません" {
		t.Fatalf("unexpected ja message: %q", msg)
	}
}

func TestTranslator_UnknownLanguageFallsBack(t *testing.T) {
	t.Cleanup(func() { SetLanguage("en") })
	SetLanguage("xx")
	if msg := T("required", map[string]string{"key": "id"}); msg != "required property `id` missing" {
		t.Fatalf("got %q", msg)
	}
}

func TestTranslator_UnknownCode(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("got %q", msg)
	}
}

type fixed string

func (f fixed) Message(string, map[string]string) string { return string(f) }

func TestSetTranslator(t *testing.T) {
	t.Cleanup(func() { SetTranslator(nil) })
	SetTranslator(fixed("custom"))
	if msg := T("invalid_type", nil); msg != "custom" {
		t.Fatalf("got %q", msg)
	}
}
