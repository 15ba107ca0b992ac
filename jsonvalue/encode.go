package jsonvalue

import (
	"strconv"

	j "github.com/goccy/go-json"
)

// AppendJSON appends the compact JSON encoding of v to dst.
func (v Value) AppendJSON(dst []byte) []byte {
	switch v.kind {
	case KindBool:
		return strconv.AppendBool(dst, v.b)
	case KindNumber:
		return append(dst, v.s...)
	case KindString:
		return appendString(dst, v.s)
	case KindArray:
		dst = append(dst, '[')
		for i, it := range v.arr {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = it.AppendJSON(dst)
		}
		return append(dst, ']')
	case KindObject:
		dst = append(dst, '{')
		first := true
		for p := v.obj.Oldest(); p != nil; p = p.Next() {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = appendString(dst, p.Key)
			dst = append(dst, ':')
			dst = p.Value.AppendJSON(dst)
		}
		return append(dst, '}')
	}
	return append(dst, "null"...)
}

func appendString(dst []byte, s string) []byte {
	b, err := j.Marshal(s)
	if err != nil {
		// strings always marshal; keep the output well-formed regardless
		return strconv.AppendQuote(dst, s)
	}
	return append(dst, b...)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) { return v.AppendJSON(nil), nil }

// UnmarshalJSON implements json.Unmarshaler with default DecodeOptions.
func (v *Value) UnmarshalJSON(data []byte) error {
	nv, err := Decode(data)
	if err != nil {
		return err
	}
	*v = nv
	return nil
}
