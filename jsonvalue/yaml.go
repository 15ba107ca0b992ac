package jsonvalue

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	eng "github.com/reoring/oaschema/internal/engine"
)

// DecodeYAML converts the first YAML document in data into a Value. Only the
// JSON-compatible subset is accepted: mapping keys must be scalars and
// floats must be finite.
func DecodeYAML(data []byte, opts ...DecodeOptions) (Value, error) {
	var opt DecodeOptions
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, &DecodeError{Code: CodeEmpty, Offset: -1, Message: "empty input", Err: err}
		}
		return Value{}, &DecodeError{Code: CodeSyntax, Offset: -1, Message: err.Error(), Err: err}
	}
	y := &yamlDecoder{opt: opt, budget: nodeBudget(len(data))}
	return y.node(&root, "", 0)
}

// Alias expansion can make a tiny document produce an enormous value. A
// document without aliases yields at most one node per input byte, so the
// budget only bites when aliases multiply the output.
const (
	nodeBudgetFloor  = 10000
	nodeBudgetFactor = 64
)

func nodeBudget(size int) int { return nodeBudgetFloor + nodeBudgetFactor*size }

type yamlDecoder struct {
	opt    DecodeOptions
	budget int
	nodes  int
}

func (y *yamlDecoder) node(n *yaml.Node, path string, depth int) (Value, error) {
	y.nodes++
	if y.nodes > y.budget {
		return Value{}, y.errAt(n, path, CodeAliasBudget, "document contains excessive aliasing")
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return y.node(n.Content[0], path, depth)
	case yaml.AliasNode:
		return y.node(n.Alias, path, depth)
	case yaml.SequenceNode:
		if err := y.checkDepth(n, path, depth+1); err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := y.node(c, eng.JoinPointer(path, strconv.Itoa(i)), depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Array(items...), nil
	case yaml.MappingNode:
		if err := y.checkDepth(n, path, depth+1); err != nil {
			return Value{}, err
		}
		m := orderedmap.New[string, Value](len(n.Content) / 2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, vn := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return Value{}, y.errAt(k, path, CodeSyntax, "mapping keys must be scalars")
			}
			kp := eng.JoinPointer(path, k.Value)
			if _, dup := m.Get(k.Value); dup {
				switch y.opt.OnDuplicateKey {
				case Error:
					return Value{}, y.errAt(k, kp, CodeDuplicateKey, "key '"+k.Value+"' duplicated")
				case Warn:
					if y.opt.OnWarning != nil {
						y.opt.OnWarning(DecodeError{Code: CodeDuplicateKey, Path: kp, Offset: -1, Message: "key '" + k.Value + "' duplicated"})
					}
				}
			}
			v, err := y.node(vn, kp, depth+1)
			if err != nil {
				return Value{}, err
			}
			m.Set(k.Value, v)
		}
		return Value{kind: KindObject, obj: m}, nil
	case yaml.ScalarNode:
		return y.scalar(n, path)
	}
	return Value{}, y.errAt(n, path, CodeSyntax, "unsupported YAML node")
}

func (y *yamlDecoder) scalar(n *yaml.Node, path string) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, y.errAt(n, path, CodeSyntax, err.Error())
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return Value{}, y.errAt(n, path, CodeSyntax, err.Error())
		}
		return Uint(u), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, y.errAt(n, path, CodeSyntax, err.Error())
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, y.errAt(n, path, CodeSyntax, "non-finite number")
		}
		return Float(f), nil
	default:
		return String(n.Value), nil
	}
}

func (y *yamlDecoder) checkDepth(n *yaml.Node, path string, depth int) error {
	if y.opt.MaxDepth > 0 && depth > y.opt.MaxDepth {
		return y.errAt(n, path, CodeMaxDepth, "max depth exceeded")
	}
	return nil
}

func (y *yamlDecoder) errAt(n *yaml.Node, path, code, msg string) error {
	if path == "" {
		path = "/"
	}
	return &DecodeError{Code: code, Path: path, Offset: -1, Message: fmt.Sprintf("line %d: %s", n.Line, msg)}
}

// MarshalYAML implements yaml.Marshaler, keeping object member order.
func (v Value) MarshalYAML() (any, error) {
	return v.yamlNode(), nil
}

func (v Value) yamlNode() *yaml.Node {
	switch v.kind {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindNumber:
		tag := "!!float"
		if _, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.s}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}
	case KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range v.arr {
			n.Content = append(n.Content, it.yamlNode())
		}
		return n
	case KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for p := v.obj.Oldest(); p != nil; p = p.Next() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key},
				p.Value.yamlNode())
		}
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
