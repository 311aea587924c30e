package testutil

// M is one map-shaped parser node.
type M = map[string]any

// Builders for parser-shaped trees, the generic maps and lists cst.Decode
// consumes. Every map node is placed on zero-based line 0 unless moved
// with At.
//
//	tree := []any{"Hello, ", testutil.Print(testutil.Str("world")), "!"}

// At sets the zero-based parser line of a map node and returns it.
func At(line int, m M) M {
	m["parseinfo"] = M{"line": line}
	return m
}

func node(m M) M {
	if _, ok := m["parseinfo"]; !ok {
		m["parseinfo"] = M{"line": 0}
	}
	return m
}

// Ident is a bare identifier with no accessors or filters.
func Ident(name string) M {
	return node(M{"variable": name, "accessors": []any{}, "filters": []any{}})
}

// Lit wraps a literal in a variable chain.
func Lit(lit M) M {
	return node(M{"variable": lit, "accessors": []any{}, "filters": []any{}})
}

// StrLit is a string literal made of the given fragments.
func StrLit(fragments ...string) M {
	values := make([]any, len(fragments))
	for i, f := range fragments {
		values[i] = f
	}
	return node(M{"literal_type": "string", "value": values})
}

// IntLit is a number literal with only a whole part.
func IntLit(whole string) M {
	return node(M{"literal_type": "number", "whole": whole})
}

// NumberLit is a number literal; empty fractional or exponent parts are
// left out of the map entirely.
func NumberLit(whole, fractional, exponent string) M {
	m := M{"literal_type": "number", "whole": whole}
	if fractional != "" {
		m["fractional"] = fractional
	}
	if exponent != "" {
		m["exponent"] = exponent
	}
	return node(m)
}

// BoolLit is a boolean literal.
func BoolLit(b bool) M {
	return node(M{"literal_type": "boolean", "value": b})
}

// NoneLit is the none literal.
func NoneLit() M {
	return node(M{"literal_type": "none"})
}

// ListLit is a list literal.
func ListLit(items ...M) M {
	return node(M{"literal_type": "list", "value": anys(items)})
}

// TupleLit is a tuple literal.
func TupleLit(items ...M) M {
	return node(M{"literal_type": "tuple", "value": anys(items)})
}

// DictLit is a dictionary literal built from Entry values.
func DictLit(entries ...M) M {
	return node(M{"literal_type": "dictionary", "value": anys(entries)})
}

// Entry is one dictionary entry: a literal key and an expression value.
func Entry(key, value M) M {
	return node(M{"key": key, "value": value})
}

// Str is a string literal in expression position.
func Str(fragments ...string) M { return Lit(StrLit(fragments...)) }

// Int is an integer literal in expression position.
func Int(whole string) M { return Lit(IntLit(whole)) }

// Tuple is a bare tuple target.
func Tuple(names ...string) M {
	values := make([]any, len(names))
	for i, n := range names {
		values[i] = n
	}
	return node(M{"tuple": values})
}

// Alias sets the import alias of a variable.
func Alias(v M, alias string) M {
	v["alias"] = alias
	return v
}

// Dot is a `.attr` accessor.
func Dot(attr string) M {
	return node(M{"accessor_type": "dot", "parameter": attr})
}

// Index is a `[expr]` accessor.
func Index(sub M) M {
	return node(M{"accessor_type": "brackets", "parameter": sub})
}

// Call is a `(params)` accessor.
func Call(params ...M) M {
	return node(M{"accessor_type": "call", "parameters": anys(params)})
}

// Access appends accessors to a variable chain.
func Access(v M, accessors ...M) M {
	v["accessors"] = append(v["accessors"].([]any), anys(accessors)...)
	return v
}

// Filter is a `| name(args)` link; args are Param or KeyParam values.
func Filter(name string, args ...M) M {
	return node(M{"name": name, "arguments": anys(args)})
}

// Filtered appends filters to a variable chain.
func Filtered(v M, filters ...M) M {
	v["filters"] = append(v["filters"].([]any), anys(filters)...)
	return v
}

// Param is a positional parameter.
func Param(value M) M {
	return node(M{"value": value})
}

// KeyParam is a `key=value` parameter.
func KeyParam(key string, value M) M {
	return node(M{"key": key, "value": value})
}

// TargetParam is a parameter whose key is itself an expression.
func TargetParam(target, value M) M {
	return node(M{"key": target, "value": value})
}

// Compare is `left op right`.
func Compare(op string, left, right M) M {
	return node(M{"operator": op, "left": left, "right": right})
}

// Concat is `a ~ b ~ ...`.
func Concat(operands ...M) M {
	return node(M{"concatenate": anys(operands)})
}

// Cond is `trueValue if test else falseValue`; a nil falseValue is omitted.
func Cond(test, trueValue, falseValue M) M {
	m := M{"test_expression": test, "true_value": trueValue}
	if falseValue != nil {
		m["false_value"] = falseValue
	}
	return node(m)
}

// Logical is `left and right` or `left or right`.
func Logical(op string, left, right M) M {
	return node(M{"logical_operator": op, "left": left, "right": right})
}

// Is is `subject is [not] test [arg]`; a nil arg is omitted.
func Is(subject M, test string, arg M, negated bool) M {
	m := M{"test_variable": subject, "test_function": Ident(test), "test_function_parameter": nil}
	if arg != nil {
		m["test_function_parameter"] = arg
	}
	if negated {
		m["negated"] = true
	}
	return node(m)
}

// Print is `{{ expr }}`.
func Print(expr M) M {
	return node(M{"type": "variable", "name": expr})
}

// Tag is a single tag without a body.
func Tag(name string, params ...M) M {
	return node(M{"block": M{"name": name, "parameters": anys(params)}})
}

// Paired is a tag with a body.
func Paired(name string, params []M, contents ...any) M {
	body := contents
	if body == nil {
		body = []any{}
	}
	return node(M{
		"start":    M{"name": name, "parameters": anys(params)},
		"end":      M{"name": "end" + name},
		"contents": body,
	})
}

// Params groups tag parameters for Paired.
func Params(params ...M) []M { return params }

// Raw is a `{% raw %}` block.
func Raw(fragments ...string) M {
	values := make([]any, len(fragments))
	for i, f := range fragments {
		values[i] = f
	}
	return node(M{"raw": values})
}

// Comment is a `{# ... #}` node.
func Comment(text string) M {
	return node(M{"comment": text})
}

func anys(ms []M) []any {
	out := make([]any, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}
