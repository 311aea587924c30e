package compiler

import (
	"github.com/roach88/tplir/internal/cst"
	"github.com/roach88/tplir/internal/ir"
)

// lowerVariable lowers an identifier or literal, then folds its accessor
// chain and its filters over it, left to right. ctx applies to the base
// Name only; accessor links always load.
func (l *lowerer) lowerVariable(v *cst.Variable, ctx ir.Ctx) (ir.Node, error) {
	var node ir.Node
	if v.Literal != nil {
		lit, err := l.lowerLiteral(v.Literal)
		if err != nil {
			return nil, err
		}
		node = lit
	} else {
		node = &ir.Name{Pos: ir.Pos{Lineno: v.Lineno()}, Name: v.Name, Ctx: ctx}
	}

	for _, acc := range v.Accessors {
		next, err := l.lowerAccessor(node, acc)
		if err != nil {
			return nil, err
		}
		node = next
	}

	for _, f := range v.Filters {
		args, kwargs, err := l.lowerArguments(f.Args)
		if err != nil {
			return nil, err
		}
		node = &ir.Filter{
			Pos:    ir.Pos{Lineno: f.Lineno()},
			Node:   node,
			Name:   f.Name,
			Args:   args,
			Kwargs: kwargs,
		}
	}
	return node, nil
}

func (l *lowerer) lowerAccessor(node ir.Node, acc cst.Accessor) (ir.Node, error) {
	pos := ir.Pos{Lineno: acc.Lineno()}

	switch acc.Kind {
	case cst.AccessorDot:
		return &ir.Getattr{Pos: pos, Node: node, Attr: acc.Attr, Ctx: ir.Load}, nil
	case cst.AccessorBrackets:
		arg, err := l.lowerExpr(acc.Subscript)
		if err != nil {
			return nil, err
		}
		return &ir.Getitem{Pos: pos, Node: node, Arg: arg, Ctx: ir.Load}, nil
	case cst.AccessorCall:
		args, kwargs, err := l.lowerArguments(acc.Params)
		if err != nil {
			return nil, err
		}
		return &ir.Call{Pos: pos, Node: node, Args: args, Kwargs: kwargs}, nil
	default:
		return nil, newError(KindUnsupportedExpression, "accessor", pos.Lineno, "unknown accessor type %q", acc.Kind)
	}
}

// lowerArguments splits a parameter list into positional arguments and
// keyword arguments, each in source order.
func (l *lowerer) lowerArguments(params []cst.Param) ([]ir.Node, []*ir.Keyword, error) {
	args := []ir.Node{}
	kwargs := []*ir.Keyword{}
	for _, p := range params {
		value, err := l.lowerExpr(p.Value)
		if err != nil {
			return nil, nil, err
		}
		if p.Key != "" {
			kwargs = append(kwargs, &ir.Keyword{Pos: ir.Pos{Lineno: p.Lineno()}, Key: p.Key, Value: value})
			continue
		}
		args = append(args, value)
	}
	return args, kwargs, nil
}
