// Package jsonvalue implements the generic JSON value that typed values are
// parsed from and serialized to. Arrays and objects keep their input order.
package jsonvalue

import (
	"math"
	"strconv"

	j "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the runtime kind of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON Schema name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Members is the ordered key/value storage of an object Value.
type Members = orderedmap.OrderedMap[string, Value]

// Value is a tagged JSON value. The zero Value is null.
//
// Arrays and objects share their backing storage when a Value is copied;
// Set and Append mutate that shared storage.
type Value struct {
	kind Kind
	b    bool
	s    string // string payload or number text
	arr  []Value
	obj  *Members
}

// Pair is a key/value entry used to build objects.
type Pair struct {
	Key   string
	Value Value
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Int(i int64) Value { return Value{kind: KindNumber, s: strconv.FormatInt(i, 10)} }

func Uint(u uint64) Value { return Value{kind: KindNumber, s: strconv.FormatUint(u, 10)} }

// Float returns a number Value. NaN and infinities have no JSON encoding and
// become null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Number returns a number Value holding n verbatim. The caller guarantees n
// is valid JSON number text.
func Number(n j.Number) Value { return Value{kind: KindNumber, s: string(n)} }

// Array returns an array Value holding items in order.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// Object returns an object Value holding pairs in order. A repeated key keeps
// its first position and its last value.
func Object(pairs ...Pair) Value {
	m := orderedmap.New[string, Value](len(pairs))
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return Value{kind: KindObject, obj: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsNumber returns the number text.
func (v Value) AsNumber() (j.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return j.Number(v.s), true
}

// Items returns the elements of an array Value, or nil for other kinds.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Len returns the element count of an array or the member count of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	}
	return 0
}

// Get looks up an object member.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.obj.Get(key)
}

// Keys returns object member names in order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, v.obj.Len())
	for p := v.obj.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Range calls fn for each object member in order until fn returns false.
func (v Value) Range(fn func(key string, val Value) bool) {
	if v.kind != KindObject {
		return
	}
	for p := v.obj.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}

// Set stores a member on an object Value. It panics on other kinds.
func (v Value) Set(key string, val Value) {
	if v.kind != KindObject {
		panic("jsonvalue: Set on " + v.kind.String())
	}
	v.obj.Set(key, val)
}

// Equal reports deep equality. Numbers compare by value when their text
// differs ("1" and "1.0" are equal); object member order is ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindNumber:
		if v.s == o.s {
			return true
		}
		a, err1 := strconv.ParseFloat(v.s, 64)
		b, err2 := strconv.ParseFloat(o.s, 64)
		return err1 == nil && err2 == nil && a == b
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != o.obj.Len() {
			return false
		}
		for p := v.obj.Oldest(); p != nil; p = p.Next() {
			ov, ok := o.obj.Get(p.Key)
			if !ok || !p.Value.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v as compact JSON.
func (v Value) String() string {
	return string(v.AppendJSON(nil))
}

// Without returns a copy of an object Value lacking key. Other kinds are
// returned unchanged.
func (v Value) Without(key string) Value {
	if v.kind != KindObject {
		return v
	}
	m := orderedmap.New[string, Value](v.obj.Len())
	for p := v.obj.Oldest(); p != nil; p = p.Next() {
		if p.Key != key {
			m.Set(p.Key, p.Value)
		}
	}
	return Value{kind: KindObject, obj: m}
}
