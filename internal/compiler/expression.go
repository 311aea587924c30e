package compiler

import (
	"fmt"

	"github.com/roach88/tplir/internal/cst"
	"github.com/roach88/tplir/internal/ir"
)

// compareOps maps comparison tokens to IR operator names. Tokens missing
// from the table pass through unchanged.
var compareOps = map[string]string{
	">":  "gt",
	">=": "gteq",
	"==": "eq",
	"!=": "ne",
	"<":  "lt",
	"<=": "lteq",
}

// CompareOp returns the IR operator name for a comparison token.
func CompareOp(token string) string {
	if op, ok := compareOps[token]; ok {
		return op
	}
	return token
}

// lowerExpr lowers an expression in load context.
func (l *lowerer) lowerExpr(e cst.Expr) (ir.Node, error) {
	return l.lowerExprCtx(e, ir.Load)
}

// lowerExprCtx lowers an expression; ctx reaches the Name at the base of a
// variable chain and the names of a tuple target.
func (l *lowerer) lowerExprCtx(e cst.Expr, ctx ir.Ctx) (ir.Node, error) {
	switch e := e.(type) {
	case *cst.Variable:
		return l.lowerVariable(e, ctx)
	case *cst.TupleTarget:
		return tupleTarget(e, ctx), nil
	case *cst.BinaryOp:
		return l.lowerCompare(e)
	case *cst.Concatenate:
		return l.lowerConcat(e)
	case *cst.Conditional:
		return l.lowerConditional(e)
	case *cst.Logical:
		return l.lowerLogical(e)
	case *cst.TestCall:
		return l.lowerTestCall(e)
	case *cst.UnknownExpr:
		return nil, newError(KindUnsupportedExpression, "expression", e.Lineno(), "no recognized shape in keys %v", e.Keys)
	case nil:
		return nil, newError(KindUnsupportedExpression, "expression", 0, "missing expression")
	default:
		return nil, newError(KindUnsupportedExpression, "expression", e.Lineno(), "unsupported expression %T", e)
	}
}

func tupleTarget(t *cst.TupleTarget, ctx ir.Ctx) *ir.Tuple {
	pos := ir.Pos{Lineno: t.Lineno()}
	items := make([]ir.Node, 0, len(t.Names))
	for _, name := range t.Names {
		items = append(items, &ir.Name{Pos: pos, Name: name, Ctx: ctx})
	}
	return &ir.Tuple{Pos: pos, Items: items, Ctx: ctx}
}

func (l *lowerer) lowerCompare(op *cst.BinaryOp) (ir.Node, error) {
	left, err := l.lowerExpr(op.Left)
	if err != nil {
		return nil, err
	}
	right, err := l.lowerExpr(op.Right)
	if err != nil {
		return nil, err
	}
	return &ir.Compare{
		Pos:  ir.Pos{Lineno: op.Lineno()},
		Expr: left,
		Ops:  []*ir.Operand{{Pos: ir.Pos{Lineno: op.Lineno()}, Op: CompareOp(op.Op), Expr: right}},
	}, nil
}

func (l *lowerer) lowerConcat(c *cst.Concatenate) (ir.Node, error) {
	nodes := make([]ir.Node, 0, len(c.Operands))
	for _, operand := range c.Operands {
		n, err := l.lowerExpr(operand)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return &ir.Concat{Pos: ir.Pos{Lineno: c.Lineno()}, Nodes: nodes}, nil
}

func (l *lowerer) lowerConditional(c *cst.Conditional) (ir.Node, error) {
	test, err := l.lowerExpr(c.Test)
	if err != nil {
		return nil, err
	}
	expr1, err := l.lowerExpr(c.True)
	if err != nil {
		return nil, err
	}
	cond := &ir.CondExpr{Pos: ir.Pos{Lineno: c.Lineno()}, Test: test, Expr1: expr1}
	if c.False != nil {
		cond.Expr2, err = l.lowerExpr(c.False)
		if err != nil {
			return nil, err
		}
	}
	return cond, nil
}

func (l *lowerer) lowerLogical(lg *cst.Logical) (ir.Node, error) {
	left, err := l.lowerExpr(lg.Left)
	if err != nil {
		return nil, err
	}
	right, err := l.lowerExpr(lg.Right)
	if err != nil {
		return nil, err
	}
	pos := ir.Pos{Lineno: lg.Lineno()}
	switch lg.Op {
	case "and":
		return &ir.And{Pos: pos, Left: left, Right: right}, nil
	case "or":
		return &ir.Or{Pos: pos, Left: left, Right: right}, nil
	default:
		return nil, newError(KindUnsupportedExpression, "logical", pos.Lineno, "unknown logical operator %q", lg.Op)
	}
}

// lowerTestCall lowers `subject is [not] name [arg]`. The test name is the
// identifier the test function lowers to.
func (l *lowerer) lowerTestCall(tc *cst.TestCall) (ir.Node, error) {
	subject, err := l.lowerExpr(tc.Subject)
	if err != nil {
		return nil, err
	}
	fn, err := l.lowerExpr(tc.Test)
	if err != nil {
		return nil, err
	}
	name, ok := fn.(*ir.Name)
	if !ok {
		return nil, newError(KindUnsupportedExpression, "test", tc.Lineno(), "test function must be an identifier, got %s", describe(fn))
	}

	pos := ir.Pos{Lineno: tc.Lineno()}
	test := &ir.Test{Pos: pos, Node: subject, Name: name.Name, Args: []ir.Node{}, Kwargs: []*ir.Keyword{}}
	if tc.Arg != nil {
		arg, err := l.lowerExpr(tc.Arg)
		if err != nil {
			return nil, err
		}
		test.Args = []ir.Node{arg}
	}
	if tc.Negated {
		return &ir.Not{Pos: pos, Node: test}, nil
	}
	return test, nil
}

func describe(n ir.Node) string {
	if n == nil {
		return "nothing"
	}
	return fmt.Sprintf("%s at line %d", n.Kind(), n.Line())
}
