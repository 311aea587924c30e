package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for an IR tree.
//
// Every node becomes an object with "kind" and "lineno" plus its fields
// under snake_case keys. Output is stable for identical trees:
//  1. Object keys sorted by UTF-16 code units (RFC 8785)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Floats use the shortest round-trip form and always carry '.' or an exponent
//  5. NaN and infinities are rejected
func MarshalCanonical(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, toCanonical(n)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type object map[string]any

func nodeObject(n Node, fields object) object {
	fields["kind"] = n.Kind()
	fields["lineno"] = int64(n.Line())
	return fields
}

func canonicalList[T Node](nodes []T) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = toCanonical(n)
	}
	return out
}

// toCanonical converts a node into plain maps, slices and scalars.
func toCanonical(n Node) any {
	switch n := n.(type) {
	case nil:
		return nil
	case *Template:
		return nodeObject(n, object{"body": canonicalList(n.Body)})
	case *Output:
		return nodeObject(n, object{"nodes": canonicalList(n.Nodes)})
	case *TemplateData:
		return nodeObject(n, object{"data": n.Data})
	case *Name:
		return nodeObject(n, object{"name": n.Name, "ctx": string(n.Ctx)})
	case *Const:
		return nodeObject(n, object{"value": constValue(n.Value)})
	case *Getattr:
		return nodeObject(n, object{"node": toCanonical(n.Node), "attr": n.Attr, "ctx": string(n.Ctx)})
	case *Getitem:
		return nodeObject(n, object{"node": toCanonical(n.Node), "arg": toCanonical(n.Arg), "ctx": string(n.Ctx)})
	case *Call:
		return nodeObject(n, object{
			"node":       toCanonical(n.Node),
			"args":       canonicalList(n.Args),
			"kwargs":     canonicalList(n.Kwargs),
			"dyn_args":   toCanonical(n.DynArgs),
			"dyn_kwargs": toCanonical(n.DynKwargs),
		})
	case *Keyword:
		return nodeObject(n, object{"key": n.Key, "value": toCanonical(n.Value)})
	case *Filter:
		if n == nil {
			return nil
		}
		return nodeObject(n, object{
			"node":       toCanonical(n.Node),
			"name":       n.Name,
			"args":       canonicalList(n.Args),
			"kwargs":     canonicalList(n.Kwargs),
			"dyn_args":   toCanonical(n.DynArgs),
			"dyn_kwargs": toCanonical(n.DynKwargs),
		})
	case *Test:
		return nodeObject(n, object{
			"node":       toCanonical(n.Node),
			"name":       n.Name,
			"args":       canonicalList(n.Args),
			"kwargs":     canonicalList(n.Kwargs),
			"dyn_args":   toCanonical(n.DynArgs),
			"dyn_kwargs": toCanonical(n.DynKwargs),
		})
	case *Compare:
		return nodeObject(n, object{"expr": toCanonical(n.Expr), "ops": canonicalList(n.Ops)})
	case *Operand:
		return nodeObject(n, object{"op": n.Op, "expr": toCanonical(n.Expr)})
	case *And:
		return nodeObject(n, object{"left": toCanonical(n.Left), "right": toCanonical(n.Right)})
	case *Or:
		return nodeObject(n, object{"left": toCanonical(n.Left), "right": toCanonical(n.Right)})
	case *Not:
		return nodeObject(n, object{"node": toCanonical(n.Node)})
	case *CondExpr:
		return nodeObject(n, object{"test": toCanonical(n.Test), "expr1": toCanonical(n.Expr1), "expr2": toCanonical(n.Expr2)})
	case *Concat:
		return nodeObject(n, object{"nodes": canonicalList(n.Nodes)})
	case *List:
		return nodeObject(n, object{"items": canonicalList(n.Items)})
	case *Tuple:
		return nodeObject(n, object{"items": canonicalList(n.Items), "ctx": string(n.Ctx)})
	case *Dict:
		return nodeObject(n, object{"items": canonicalList(n.Items)})
	case *Pair:
		return nodeObject(n, object{"key": toCanonical(n.Key), "value": toCanonical(n.Value)})
	case *For:
		return nodeObject(n, object{
			"target":    toCanonical(n.Target),
			"iter":      toCanonical(n.Iter),
			"body":      canonicalList(n.Body),
			"else":      canonicalList(n.Else),
			"test":      toCanonical(n.Test),
			"recursive": n.Recursive,
		})
	case *If:
		return nodeObject(n, object{
			"test": toCanonical(n.Test),
			"body": canonicalList(n.Body),
			"elif": canonicalList(n.Elif),
			"else": canonicalList(n.Else),
		})
	case *Block:
		return nodeObject(n, object{"name": n.Name, "body": canonicalList(n.Body), "scoped": n.Scoped})
	case *Extends:
		return nodeObject(n, object{"template": toCanonical(n.Template)})
	case *FromImport:
		names := make([]any, len(n.Names))
		for i, name := range n.Names {
			if name.Alias == "" {
				names[i] = name.Name
			} else {
				names[i] = []any{name.Name, name.Alias}
			}
		}
		return nodeObject(n, object{"template": toCanonical(n.Template), "names": names, "with_context": n.WithContext})
	case *Assign:
		return nodeObject(n, object{"target": toCanonical(n.Target), "node": toCanonical(n.Node)})
	case *AssignBlock:
		var filter any
		if n.Filter != nil {
			filter = toCanonical(n.Filter)
		}
		return nodeObject(n, object{"target": toCanonical(n.Target), "filter": filter, "body": canonicalList(n.Body)})
	case *With:
		return nodeObject(n, object{
			"targets": canonicalList(n.Targets),
			"values":  canonicalList(n.Values),
			"body":    canonicalList(n.Body),
		})
	case *Macro:
		return nodeObject(n, object{
			"name":     n.Name,
			"args":     canonicalList(n.Args),
			"defaults": canonicalList(n.Defaults),
			"body":     canonicalList(n.Body),
		})
	case *Scope:
		return nodeObject(n, object{"body": canonicalList(n.Body)})
	case *ScopedEvalContextModifier:
		return nodeObject(n, object{"options": canonicalList(n.Options), "body": canonicalList(n.Body)})
	default:
		return fmt.Sprintf("%T", n)
	}
}

// floatValue marks a Const float so the writer keeps it distinct from ints.
type floatValue float64

func constValue(v any) any {
	switch v := v.(type) {
	case float64:
		return floatValue(v)
	case int:
		return int64(v)
	default:
		return v
	}
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		return writeCanonicalString(buf, val)
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case floatValue:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("non-finite float is not representable in canonical JSON: %v", f)
		}
		buf.WriteString(formatFloat(f))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case object:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		// RFC 8785 orders keys by UTF-16 code units, not UTF-8 bytes.
		slices.SortFunc(keys, compareKeysRFC8785)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString writes s NFC-normalized, without HTML escaping, and
// with U+2028/U+2029 left literal as RFC 8785 requires.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the encoder's \u2028 and \u2029 escapes back
// into literal characters. An escape preceded by an odd number of
// backslashes is a literal "\\u2028" text and stays as is.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" &&
			(data[i+5] == '8' || data[i+5] == '9') && precedingBackslashes(out)%2 == 0 {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func precedingBackslashes(b []byte) int {
	n := 0
	for j := len(b) - 1; j >= 0 && b[j] == '\\'; j-- {
		n++
	}
	return n
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}
