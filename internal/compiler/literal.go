package compiler

import (
	"strconv"
	"strings"

	"github.com/roach88/tplir/internal/cst"
	"github.com/roach88/tplir/internal/ir"
)

// lowerLiteral lowers a literal by its kind tag.
func (l *lowerer) lowerLiteral(lit *cst.Literal) (ir.Node, error) {
	pos := ir.Pos{Lineno: lit.Lineno()}

	switch lit.Kind {
	case cst.LiteralBoolean:
		return &ir.Const{Pos: pos, Value: lit.Raw}, nil
	case cst.LiteralNone:
		return &ir.Const{Pos: pos, Value: nil}, nil
	case cst.LiteralString:
		return &ir.Const{Pos: pos, Value: strings.Join(lit.Fragments, "")}, nil
	case cst.LiteralNumber:
		value, err := numberValue(lit)
		if err != nil {
			return nil, err
		}
		return &ir.Const{Pos: pos, Value: value}, nil
	case cst.LiteralList:
		items, err := l.lowerLiterals(lit.Items)
		if err != nil {
			return nil, err
		}
		return &ir.List{Pos: pos, Items: items}, nil
	case cst.LiteralTuple:
		items, err := l.lowerLiterals(lit.Items)
		if err != nil {
			return nil, err
		}
		return &ir.Tuple{Pos: pos, Items: items, Ctx: ir.Load}, nil
	case cst.LiteralDictionary:
		pairs := make([]*ir.Pair, 0, len(lit.Entries))
		for _, entry := range lit.Entries {
			key, err := l.lowerLiteral(entry.Key)
			if err != nil {
				return nil, err
			}
			value, err := l.lowerExpr(entry.Value)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, &ir.Pair{Pos: ir.Pos{Lineno: entry.Lineno()}, Key: key, Value: value})
		}
		return &ir.Dict{Pos: pos, Items: pairs}, nil
	default:
		if lit.TypeName == "" {
			return nil, newError(KindMissingLiteralKind, "literal", pos.Lineno, "literal has no literal_type")
		}
		return nil, newError(KindMissingLiteralKind, "literal", pos.Lineno, "unknown literal_type %q", lit.TypeName)
	}
}

func (l *lowerer) lowerLiterals(lits []*cst.Literal) ([]ir.Node, error) {
	out := make([]ir.Node, 0, len(lits))
	for _, item := range lits {
		n, err := l.lowerLiteral(item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// numberValue yields an int64 when the literal has only a whole part and
// a float64 otherwise.
func numberValue(lit *cst.Literal) (any, error) {
	if !lit.HasFractional && !lit.HasExponent {
		n, err := strconv.ParseInt(lit.Whole, 10, 64)
		if err != nil {
			return nil, newError(KindMalformedNumber, "literal", lit.Lineno(), "integer %q: %v", lit.Whole, err)
		}
		return n, nil
	}

	text := NumberText(lit.Whole, lit.Fractional, lit.HasFractional, lit.Exponent, lit.HasExponent)
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, newError(KindMalformedNumber, "literal", lit.Lineno(), "float %q: %v", text, err)
	}
	return f, nil
}

// NumberText assembles `whole[.fractional][e exponent]`, leaving out the
// parts that are absent.
func NumberText(whole, fractional string, hasFractional bool, exponent string, hasExponent bool) string {
	var b strings.Builder
	b.WriteString(whole)
	if hasFractional {
		b.WriteByte('.')
		b.WriteString(fractional)
	}
	if hasExponent {
		b.WriteByte('e')
		b.WriteString(exponent)
	}
	return b.String()
}
