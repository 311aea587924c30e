package cst

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// DecodeError reports a recognized construct missing a required key or
// holding a value of the wrong shape.
type DecodeError struct {
	Path    string // e.g. "$[2].start.parameters[0].value"
	Line    int    // zero-based parser line, -1 when unknown
	Message string
}

func (e *DecodeError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("cst: line %d: %s: %s", e.Line+1, e.Path, e.Message)
	}
	return fmt.Sprintf("cst: %s: %s", e.Path, e.Message)
}

// Decode converts a generic parser tree into typed CST nodes.
func Decode(v any) (Node, error) {
	return decodeNode(v, "$")
}

// DecodeExpr converts a generic expression-shaped tree into a typed Expr.
func DecodeExpr(v any) (Expr, error) {
	return decodeExpr(v, "$")
}

// decodeNode recognizes template-level shapes in precedence order:
// sequence, text, print, single tag, paired tag, raw, comment.
func decodeNode(v any, path string) (Node, error) {
	if list, ok := v.([]any); ok {
		return decodeSequence(list, path)
	}
	if s, ok := v.(string); ok {
		return Text(s), nil
	}

	m, ok := asMap(v)
	if !ok {
		return nil, &DecodeError{Path: path, Line: -1, Message: fmt.Sprintf("unsupported node of type %T", v)}
	}
	pos := Pos{Line: lineOf(m)}

	if t, ok := m["type"].(string); ok && t == "variable" {
		nameVal, ok := m["name"]
		if !ok {
			return nil, missing(path, pos, "name")
		}
		expr, err := decodeExpr(nameVal, path+".name")
		if err != nil {
			return nil, err
		}
		return &Print{Pos: pos, Expr: expr}, nil
	}

	if blockVal, ok := m["block"]; ok {
		name, err := tagName(blockVal, path+".block", pos)
		if err != nil {
			return nil, err
		}
		if !singleTags[name] {
			return &Tag{Pos: pos, Name: name}, nil
		}
		_, params, err := decodeTagHeader(blockVal, path+".block", pos)
		if err != nil {
			return nil, err
		}
		return &Tag{Pos: pos, Name: name, Params: params}, nil
	}

	startVal, hasStart := m["start"]
	endVal, hasEnd := m["end"]
	if hasStart && hasEnd {
		return decodePairedTag(m, startVal, endVal, path, pos)
	}

	if rawVal, ok := m["raw"]; ok {
		frags, err := decodeStrings(rawVal, path+".raw", pos)
		if err != nil {
			return nil, err
		}
		return &Raw{Pos: pos, Fragments: frags}, nil
	}

	if _, ok := m["comment"]; ok {
		return &Comment{Pos: pos}, nil
	}

	return &Unrecognized{Pos: pos, Keys: sortedKeys(m)}, nil
}

func decodeSequence(list []any, path string) (Sequence, error) {
	seq := make(Sequence, 0, len(list))
	for i, item := range list {
		n, err := decodeNode(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		seq = append(seq, n)
	}
	return seq, nil
}

func decodePairedTag(m map[string]any, startVal, endVal any, path string, pos Pos) (*PairedTag, error) {
	name, err := tagName(startVal, path+".start", pos)
	if err != nil {
		return nil, err
	}
	tag := &PairedTag{Pos: pos, Name: name, Body: Sequence{}}

	switch end := endVal.(type) {
	case string:
		tag.End = end
	default:
		if em, ok := asMap(end); ok {
			tag.End, _ = em["name"].(string)
		}
	}
	if !pairedTags[name] {
		return tag, nil
	}

	_, tag.Params, err = decodeTagHeader(startVal, path+".start", pos)
	if err != nil {
		return nil, err
	}

	contents, ok := m["contents"]
	if !ok {
		return nil, missing(path, pos, "contents")
	}
	if contents == nil {
		tag.Body = Sequence{}
		return tag, nil
	}
	body, err := decodeNode(contents, path+".contents")
	if err != nil {
		return nil, err
	}
	if seq, ok := body.(Sequence); ok {
		tag.Body = seq
	} else {
		tag.Body = Sequence{body}
	}
	return tag, nil
}

// Keywords whose parameters and body are lowered. Tags with any other
// keyword keep only their name, so shapes nothing reads never fail.
var (
	singleTags = map[string]bool{"extends": true, "from": true, "set": true}
	pairedTags = map[string]bool{
		"autoescape": true, "block": true, "for": true, "if": true,
		"macro": true, "set": true, "with": true,
	}
)

// tagName reads the keyword of a block or start marker.
func tagName(v any, path string, pos Pos) (string, error) {
	m, ok := asMap(v)
	if !ok {
		return "", &DecodeError{Path: path, Line: pos.Line, Message: fmt.Sprintf("expected a map, got %T", v)}
	}
	name, ok := m["name"].(string)
	if !ok {
		return "", missing(path, pos, "name")
	}
	return name, nil
}

// decodeTagHeader reads the {name, parameters} map of a block or start marker.
func decodeTagHeader(v any, path string, pos Pos) (string, []Param, error) {
	m, ok := asMap(v)
	if !ok {
		return "", nil, &DecodeError{Path: path, Line: pos.Line, Message: fmt.Sprintf("expected a map, got %T", v)}
	}
	name, ok := m["name"].(string)
	if !ok {
		return "", nil, missing(path, pos, "name")
	}
	params, err := decodeParams(m["parameters"], path+".parameters", pos)
	if err != nil {
		return "", nil, err
	}
	return name, params, nil
}

// decodeParams reads an optional parameter list; nil decodes to no params.
func decodeParams(v any, path string, pos Pos) ([]Param, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &DecodeError{Path: path, Line: pos.Line, Message: fmt.Sprintf("expected a list, got %T", v)}
	}
	params := make([]Param, 0, len(list))
	for i, item := range list {
		p, err := decodeParam(item, fmt.Sprintf("%s[%d]", path, i), pos)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func decodeParam(v any, path string, parent Pos) (Param, error) {
	m, ok := asMap(v)
	if !ok {
		return Param{}, &DecodeError{Path: path, Line: parent.Line, Message: fmt.Sprintf("expected a parameter map, got %T", v)}
	}
	p := Param{Pos: Pos{Line: lineOf(m)}}

	valueVal, ok := m["value"]
	if !ok {
		return Param{}, missing(path, p.Pos, "value")
	}
	value, err := decodeExpr(valueVal, path+".value")
	if err != nil {
		return Param{}, err
	}
	p.Value = value

	switch key := m["key"].(type) {
	case nil:
	case string:
		p.Key = key
	default:
		target, err := decodeExpr(key, path+".key")
		if err != nil {
			return Param{}, err
		}
		p.Target = target
	}
	return p, nil
}

// decodeExpr recognizes expression shapes in precedence order: tuple
// target, variable/literal chain, comparison, concatenation, ternary,
// logical operator, named test.
func decodeExpr(v any, path string) (Expr, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, &DecodeError{Path: path, Line: -1, Message: fmt.Sprintf("expected an expression map, got %T", v)}
	}
	pos := Pos{Line: lineOf(m)}

	if tupleVal, ok := m["tuple"]; ok {
		names, err := decodeStrings(tupleVal, path+".tuple", pos)
		if err != nil {
			return nil, err
		}
		return &TupleTarget{Pos: pos, Names: names}, nil
	}
	if _, ok := m["variable"]; ok {
		return decodeVariable(m, path, pos)
	}
	if op, ok := m["operator"]; ok {
		left, right, err := decodeOperands(m, path, pos)
		if err != nil {
			return nil, err
		}
		opText, ok := op.(string)
		if !ok {
			return nil, &DecodeError{Path: path + ".operator", Line: pos.Line, Message: fmt.Sprintf("expected a string, got %T", op)}
		}
		return &BinaryOp{Pos: pos, Op: opText, Left: left, Right: right}, nil
	}
	if concatVal, ok := m["concatenate"]; ok {
		list, ok := concatVal.([]any)
		if !ok {
			return nil, &DecodeError{Path: path + ".concatenate", Line: pos.Line, Message: fmt.Sprintf("expected a list, got %T", concatVal)}
		}
		operands := make([]Expr, 0, len(list))
		for i, item := range list {
			e, err := decodeExpr(item, fmt.Sprintf("%s.concatenate[%d]", path, i))
			if err != nil {
				return nil, err
			}
			operands = append(operands, e)
		}
		return &Concatenate{Pos: pos, Operands: operands}, nil
	}
	if testVal, ok := m["test_expression"]; ok {
		return decodeConditional(m, testVal, path, pos)
	}
	if op, ok := m["logical_operator"]; ok {
		opText, _ := op.(string)
		if opText != "and" && opText != "or" {
			return nil, &DecodeError{Path: path + ".logical_operator", Line: pos.Line, Message: fmt.Sprintf("unknown logical operator %v", op)}
		}
		left, right, err := decodeOperands(m, path, pos)
		if err != nil {
			return nil, err
		}
		return &Logical{Pos: pos, Op: opText, Left: left, Right: right}, nil
	}
	if _, ok := m["test_function"]; ok {
		return decodeTestCall(m, path, pos)
	}

	return &UnknownExpr{Pos: pos, Keys: sortedKeys(m)}, nil
}

func decodeOperands(m map[string]any, path string, pos Pos) (Expr, Expr, error) {
	leftVal, ok := m["left"]
	if !ok {
		return nil, nil, missing(path, pos, "left")
	}
	rightVal, ok := m["right"]
	if !ok {
		return nil, nil, missing(path, pos, "right")
	}
	left, err := decodeExpr(leftVal, path+".left")
	if err != nil {
		return nil, nil, err
	}
	right, err := decodeExpr(rightVal, path+".right")
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func decodeConditional(m map[string]any, testVal any, path string, pos Pos) (*Conditional, error) {
	test, err := decodeExpr(testVal, path+".test_expression")
	if err != nil {
		return nil, err
	}
	trueVal, ok := m["true_value"]
	if !ok {
		return nil, missing(path, pos, "true_value")
	}
	trueExpr, err := decodeExpr(trueVal, path+".true_value")
	if err != nil {
		return nil, err
	}
	cond := &Conditional{Pos: pos, Test: test, True: trueExpr}
	if falseVal := m["false_value"]; falseVal != nil {
		cond.False, err = decodeExpr(falseVal, path+".false_value")
		if err != nil {
			return nil, err
		}
	}
	return cond, nil
}

func decodeTestCall(m map[string]any, path string, pos Pos) (*TestCall, error) {
	subjectVal, ok := m["test_variable"]
	if !ok {
		return nil, missing(path, pos, "test_variable")
	}
	subject, err := decodeExpr(subjectVal, path+".test_variable")
	if err != nil {
		return nil, err
	}
	test, err := decodeExpr(m["test_function"], path+".test_function")
	if err != nil {
		return nil, err
	}
	call := &TestCall{Pos: pos, Subject: subject, Test: test, Negated: truthy(m["negated"])}
	if argVal := m["test_function_parameter"]; truthy(argVal) {
		call.Arg, err = decodeExpr(argVal, path+".test_function_parameter")
		if err != nil {
			return nil, err
		}
	}
	return call, nil
}

func decodeVariable(m map[string]any, path string, pos Pos) (*Variable, error) {
	v := &Variable{Pos: pos}

	switch name := m["variable"].(type) {
	case string:
		v.Name = name
	default:
		lm, ok := asMap(name)
		if !ok {
			return nil, &DecodeError{Path: path + ".variable", Line: pos.Line, Message: fmt.Sprintf("expected an identifier or literal, got %T", name)}
		}
		lit, err := decodeLiteralMap(lm, path+".variable")
		if err != nil {
			return nil, err
		}
		v.Literal = lit
	}

	if alias, ok := m["alias"].(string); ok {
		v.Alias = alias
	}

	if accVal := m["accessors"]; accVal != nil {
		list, ok := accVal.([]any)
		if !ok {
			return nil, &DecodeError{Path: path + ".accessors", Line: pos.Line, Message: fmt.Sprintf("expected a list, got %T", accVal)}
		}
		for i, item := range list {
			acc, err := decodeAccessor(item, fmt.Sprintf("%s.accessors[%d]", path, i), pos)
			if err != nil {
				return nil, err
			}
			v.Accessors = append(v.Accessors, acc)
		}
	}

	if filtersVal := m["filters"]; filtersVal != nil {
		list, ok := filtersVal.([]any)
		if !ok {
			return nil, &DecodeError{Path: path + ".filters", Line: pos.Line, Message: fmt.Sprintf("expected a list, got %T", filtersVal)}
		}
		for i, item := range list {
			f, err := decodeFilter(item, fmt.Sprintf("%s.filters[%d]", path, i), pos)
			if err != nil {
				return nil, err
			}
			v.Filters = append(v.Filters, f)
		}
	}

	return v, nil
}

func decodeAccessor(v any, path string, parent Pos) (Accessor, error) {
	m, ok := asMap(v)
	if !ok {
		return Accessor{}, &DecodeError{Path: path, Line: parent.Line, Message: fmt.Sprintf("expected an accessor map, got %T", v)}
	}
	acc := Accessor{Pos: Pos{Line: lineOf(m)}}

	kind, ok := m["accessor_type"].(string)
	if !ok {
		return Accessor{}, missing(path, acc.Pos, "accessor_type")
	}
	acc.Kind = AccessorKind(kind)

	switch acc.Kind {
	case AccessorDot:
		attr, ok := m["parameter"].(string)
		if !ok {
			return Accessor{}, missing(path, acc.Pos, "parameter")
		}
		acc.Attr = attr
	case AccessorBrackets:
		paramVal, ok := m["parameter"]
		if !ok {
			return Accessor{}, missing(path, acc.Pos, "parameter")
		}
		sub, err := decodeExpr(paramVal, path+".parameter")
		if err != nil {
			return Accessor{}, err
		}
		acc.Subscript = sub
	case AccessorCall:
		params, err := decodeParams(m["parameters"], path+".parameters", acc.Pos)
		if err != nil {
			return Accessor{}, err
		}
		acc.Params = params
	default:
		return Accessor{}, &DecodeError{Path: path + ".accessor_type", Line: acc.Line, Message: fmt.Sprintf("unknown accessor type %q", kind)}
	}
	return acc, nil
}

func decodeFilter(v any, path string, parent Pos) (FilterCall, error) {
	m, ok := asMap(v)
	if !ok {
		return FilterCall{}, &DecodeError{Path: path, Line: parent.Line, Message: fmt.Sprintf("expected a filter map, got %T", v)}
	}
	f := FilterCall{Pos: Pos{Line: lineOf(m)}}
	name, ok := m["name"].(string)
	if !ok {
		return FilterCall{}, missing(path, f.Pos, "name")
	}
	f.Name = name
	args, err := decodeParams(m["arguments"], path+".arguments", f.Pos)
	if err != nil {
		return FilterCall{}, err
	}
	f.Args = args
	return f, nil
}

// decodeLiteral reads a literal nested inside another literal.
func decodeLiteral(v any, path string) (*Literal, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, &DecodeError{Path: path, Line: -1, Message: fmt.Sprintf("expected a literal map, got %T", v)}
	}
	return decodeLiteralMap(m, path)
}

func decodeLiteralMap(m map[string]any, path string) (*Literal, error) {
	lit := &Literal{Pos: Pos{Line: lineOf(m)}}

	typeName, _ := m["literal_type"].(string)
	lit.TypeName = typeName

	switch LiteralKind(typeName) {
	case LiteralBoolean:
		lit.Kind = LiteralBoolean
		lit.Raw = m["value"]
	case LiteralNone:
		lit.Kind = LiteralNone
	case LiteralString:
		lit.Kind = LiteralString
		frags, err := decodeStrings(m["value"], path+".value", lit.Pos)
		if err != nil {
			return nil, err
		}
		lit.Fragments = frags
	case LiteralNumber:
		lit.Kind = LiteralNumber
		whole, ok := numberText(m["whole"])
		if !ok {
			return nil, missing(path, lit.Pos, "whole")
		}
		lit.Whole = whole
		if frac, present := m["fractional"]; present && frac != nil {
			if lit.Fractional, ok = numberText(frac); !ok {
				return nil, &DecodeError{Path: path + ".fractional", Line: lit.Pos.Line, Message: fmt.Sprintf("expected a digit run, got %T", frac)}
			}
			lit.HasFractional = true
		}
		if exp, present := m["exponent"]; present && exp != nil {
			if lit.Exponent, ok = numberText(exp); !ok {
				return nil, &DecodeError{Path: path + ".exponent", Line: lit.Pos.Line, Message: fmt.Sprintf("expected a digit run, got %T", exp)}
			}
			lit.HasExponent = true
		}
	case LiteralList, LiteralTuple:
		lit.Kind = LiteralKind(typeName)
		list, err := listOf(m["value"], path+".value", lit.Pos)
		if err != nil {
			return nil, err
		}
		for i, item := range list {
			elem, err := decodeLiteral(item, fmt.Sprintf("%s.value[%d]", path, i))
			if err != nil {
				return nil, err
			}
			lit.Items = append(lit.Items, elem)
		}
	case LiteralDictionary:
		lit.Kind = LiteralDictionary
		list, err := listOf(m["value"], path+".value", lit.Pos)
		if err != nil {
			return nil, err
		}
		for i, item := range list {
			entry, err := decodeDictEntry(item, fmt.Sprintf("%s.value[%d]", path, i), lit.Pos)
			if err != nil {
				return nil, err
			}
			lit.Entries = append(lit.Entries, entry)
		}
	default:
		lit.Kind = LiteralUnknown
	}
	return lit, nil
}

func decodeDictEntry(v any, path string, parent Pos) (DictEntry, error) {
	m, ok := asMap(v)
	if !ok {
		return DictEntry{}, &DecodeError{Path: path, Line: parent.Line, Message: fmt.Sprintf("expected a dictionary entry map, got %T", v)}
	}
	entry := DictEntry{Pos: Pos{Line: lineOf(m)}}
	keyVal, ok := m["key"]
	if !ok {
		return DictEntry{}, missing(path, entry.Pos, "key")
	}
	key, err := decodeLiteral(keyVal, path+".key")
	if err != nil {
		return DictEntry{}, err
	}
	valueVal, ok := m["value"]
	if !ok {
		return DictEntry{}, missing(path, entry.Pos, "value")
	}
	value, err := decodeExpr(valueVal, path+".value")
	if err != nil {
		return DictEntry{}, err
	}
	entry.Key = key
	entry.Value = value
	return entry, nil
}

func missing(path string, pos Pos, key string) *DecodeError {
	return &DecodeError{Path: path, Line: pos.Line, Message: fmt.Sprintf("missing required key %q", key)}
}

// asMap accepts both string-keyed maps and the map[any]any some YAML
// decoders produce.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func listOf(v any, path string, pos Pos) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &DecodeError{Path: path, Line: pos.Line, Message: fmt.Sprintf("expected a list, got %T", v)}
	}
	return list, nil
}

// decodeStrings reads a list of string fragments; a lone string is one fragment.
func decodeStrings(v any, path string, pos Pos) ([]string, error) {
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	list, err := listOf(v, path, pos)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, &DecodeError{Path: fmt.Sprintf("%s[%d]", path, i), Line: pos.Line, Message: fmt.Sprintf("expected a string, got %T", item)}
		}
		out = append(out, s)
	}
	return out, nil
}

// lineOf reads parseinfo as {line: n} or a bare integer; -1 when absent.
func lineOf(m map[string]any) int {
	info, ok := m["parseinfo"]
	if !ok || info == nil {
		return -1
	}
	if im, ok := asMap(info); ok {
		info = im["line"]
	}
	if n, ok := toInt(info); ok {
		return n
	}
	return -1
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

// numberText reads a digit run the parser may have emitted as text or,
// after a YAML round trip, as an integer.
func numberText(v any) (string, bool) {
	switch n := v.(type) {
	case string:
		return n, true
	case json.Number:
		return n.String(), true
	}
	if i, ok := toInt(v); ok {
		return strconv.Itoa(i), true
	}
	return "", false
}

// truthy mirrors how the grammar marks flags: a bool, or any non-empty token.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != ""
	case []any:
		return len(b) > 0
	}
	if n, ok := toInt(v); ok {
		return n != 0
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
