package compiler

import (
	"github.com/roach88/tplir/internal/cst"
	"github.com/roach88/tplir/internal/ir"
)

// param returns parameter i of a tag, or a malformed-tag error naming
// what the parameter should have held.
func param(tag string, line int, params []cst.Param, i int, what string) (cst.Param, error) {
	if i >= len(params) {
		return cst.Param{}, newError(KindMalformedTag, tag, line, "missing %s (parameter %d)", what, i)
	}
	return params[i], nil
}

func (l *lowerer) lowerExtends(t *cst.Tag) (ir.Node, error) {
	p, err := param("extends", t.Lineno(), t.Params, 0, "parent template")
	if err != nil {
		return nil, err
	}
	tmpl, err := l.lowerExpr(p.Value)
	if err != nil {
		return nil, err
	}
	return &ir.Extends{Pos: ir.Pos{Lineno: t.Lineno()}, Template: tmpl}, nil
}

// lowerFromImport lowers `from tmpl import a, b as c`. Parameter 1 is the
// `import` keyword; imported names start at parameter 2.
func (l *lowerer) lowerFromImport(t *cst.Tag) (ir.Node, error) {
	p, err := param("from", t.Lineno(), t.Params, 0, "template")
	if err != nil {
		return nil, err
	}
	tmpl, err := l.lowerExpr(p.Value)
	if err != nil {
		return nil, err
	}

	names := []ir.ImportName{}
	if len(t.Params) > 2 {
		for _, np := range t.Params[2:] {
			v, ok := np.Value.(*cst.Variable)
			if !ok || v.Literal != nil {
				return nil, newError(KindMalformedTag, "from", np.Lineno(), "imported name must be an identifier")
			}
			names = append(names, ir.ImportName{Name: v.Name, Alias: v.Alias})
		}
	}
	return &ir.FromImport{Pos: ir.Pos{Lineno: t.Lineno()}, Template: tmpl, Names: names}, nil
}

// lowerAssign lowers an inline `set`.
func (l *lowerer) lowerAssign(t *cst.Tag) (ir.Node, error) {
	p, err := param("set", t.Lineno(), t.Params, 0, "assignment")
	if err != nil {
		return nil, err
	}

	var target ir.Node
	switch {
	case p.Key != "":
		target = &ir.Name{Pos: ir.Pos{Lineno: p.Lineno()}, Name: p.Key, Ctx: ir.Store}
	case p.Target != nil:
		target, err = l.lowerExprCtx(p.Target, ir.Store)
		if err != nil {
			return nil, err
		}
	default:
		return nil, newError(KindMalformedTag, "set", p.Lineno(), "assignment has no target")
	}

	value, err := l.lowerExpr(p.Value)
	if err != nil {
		return nil, err
	}
	return &ir.Assign{Pos: ir.Pos{Lineno: t.Lineno()}, Target: target, Node: value}, nil
}

// lowerAssignBlock lowers a block `set`. A filtered target is split: the
// innermost Filter is detached from the bare target and carried apart.
func (l *lowerer) lowerAssignBlock(t *cst.PairedTag) (ir.Node, error) {
	p, err := param("set", t.Lineno(), t.Params, 0, "target")
	if err != nil {
		return nil, err
	}
	target, err := l.lowerExprCtx(p.Value, ir.Store)
	if err != nil {
		return nil, err
	}

	var filter *ir.Filter
	if outer, ok := target.(*ir.Filter); ok {
		inner := outer
		for {
			next, ok := inner.Node.(*ir.Filter)
			if !ok {
				break
			}
			inner = next
		}
		target = inner.Node
		inner.Node = nil
		filter = outer
	}

	body, err := l.lowerSequence(t.Body)
	if err != nil {
		return nil, err
	}
	return &ir.AssignBlock{Pos: ir.Pos{Lineno: t.Lineno()}, Target: target, Filter: filter, Body: body}, nil
}

func (l *lowerer) lowerAutoescape(t *cst.PairedTag) (ir.Node, error) {
	p, err := param("autoescape", t.Lineno(), t.Params, 0, "mode")
	if err != nil {
		return nil, err
	}
	value, err := l.lowerExpr(p.Value)
	if err != nil {
		return nil, err
	}
	body, err := l.lowerSequence(t.Body)
	if err != nil {
		return nil, err
	}

	pos := ir.Pos{Lineno: t.Lineno()}
	modifier := &ir.ScopedEvalContextModifier{
		Pos:     pos,
		Options: []*ir.Keyword{{Pos: ir.Pos{Lineno: p.Lineno()}, Key: "autoescape", Value: value}},
		Body:    body,
	}
	return &ir.Scope{Pos: pos, Body: []ir.Node{modifier}}, nil
}

func (l *lowerer) lowerBlock(t *cst.PairedTag) (ir.Node, error) {
	p, err := param("block", t.Lineno(), t.Params, 0, "block name")
	if err != nil {
		return nil, err
	}
	n, err := l.lowerExpr(p.Value)
	if err != nil {
		return nil, err
	}
	name, ok := n.(*ir.Name)
	if !ok {
		return nil, newError(KindMalformedTag, "block", p.Lineno(), "block name must be an identifier, got %s", describe(n))
	}
	body, err := l.lowerSequence(t.Body)
	if err != nil {
		return nil, err
	}
	return &ir.Block{Pos: ir.Pos{Lineno: t.Lineno()}, Name: name.Name, Body: body, Scoped: false}, nil
}

// loopHeader returns the header slots of a for tag. A lone `left in right`
// comparison is split into three new slots; params itself is never
// modified.
func loopHeader(params []cst.Param) []cst.Param {
	if len(params) == 0 {
		return params
	}
	op, ok := params[0].Value.(*cst.BinaryOp)
	if !ok || op.Op != "in" {
		return params
	}
	header := make([]cst.Param, 0, len(params)+2)
	header = append(header,
		cst.Param{Pos: params[0].Pos, Value: op.Left},
		cst.Param{Pos: params[0].Pos, Value: &cst.Variable{Pos: op.Pos, Name: "in"}},
		cst.Param{Pos: params[0].Pos, Value: op.Right},
	)
	return append(header, params[1:]...)
}

// isIdent reports whether e is the bare identifier name.
func isIdent(e cst.Expr, name string) bool {
	v, ok := e.(*cst.Variable)
	return ok && v.Literal == nil && v.Name == name && len(v.Accessors) == 0 && len(v.Filters) == 0
}

func (l *lowerer) lowerFor(t *cst.PairedTag) (ir.Node, error) {
	header := loopHeader(t.Params)
	if len(header) < 3 {
		return nil, newError(KindMalformedLoopHeader, "for", t.Lineno(), "expected `target in iterable`, got %d parameters", len(header))
	}
	if !isIdent(header[1].Value, "in") {
		return nil, newError(KindMalformedLoopHeader, "for", header[1].Lineno(), "second header slot must be `in`")
	}

	target, err := l.lowerExprCtx(header[0].Value, ir.Store)
	if err != nil {
		return nil, err
	}
	iter, err := l.lowerExpr(header[2].Value)
	if err != nil {
		return nil, err
	}
	recursive := len(header) > 1 && isIdent(header[len(header)-1].Value, "recursive")

	body, err := l.lowerSequence(t.Body)
	if err != nil {
		return nil, err
	}
	return &ir.For{
		Pos:       ir.Pos{Lineno: t.Lineno()},
		Target:    target,
		Iter:      iter,
		Body:      body,
		Else:      []ir.Node{},
		Recursive: recursive,
	}, nil
}

func (l *lowerer) lowerIf(t *cst.PairedTag) (ir.Node, error) {
	p, err := param("if", t.Lineno(), t.Params, 0, "condition")
	if err != nil {
		return nil, err
	}
	test, err := l.lowerExpr(p.Value)
	if err != nil {
		return nil, err
	}
	body, err := l.lowerSequence(t.Body)
	if err != nil {
		return nil, err
	}
	return &ir.If{
		Pos:  ir.Pos{Lineno: t.Lineno()},
		Test: test,
		Body: body,
		Elif: []*ir.If{},
		Else: []ir.Node{},
	}, nil
}

// lowerMacro lowers `macro name(a, b, c=3)`. The signature parses as a
// call: positional arguments become parameters, keyword arguments become
// trailing parameters whose values are the defaults.
func (l *lowerer) lowerMacro(t *cst.PairedTag) (ir.Node, error) {
	p, err := param("macro", t.Lineno(), t.Params, 0, "signature")
	if err != nil {
		return nil, err
	}
	sig, err := l.lowerExpr(p.Value)
	if err != nil {
		return nil, err
	}

	var (
		name     string
		args     = []*ir.Name{}
		defaults = []ir.Node{}
	)
	switch sig := sig.(type) {
	case *ir.Name:
		name = sig.Name
	case *ir.Call:
		callee, ok := sig.Node.(*ir.Name)
		if !ok {
			return nil, newError(KindMalformedTag, "macro", p.Lineno(), "macro name must be an identifier, got %s", describe(sig.Node))
		}
		name = callee.Name
		for _, arg := range sig.Args {
			n, ok := arg.(*ir.Name)
			if !ok {
				return nil, newError(KindMalformedTag, "macro", p.Lineno(), "macro parameter must be an identifier, got %s", describe(arg))
			}
			n.Ctx = ir.Param
			args = append(args, n)
		}
		for _, kw := range sig.Kwargs {
			args = append(args, &ir.Name{Pos: kw.Pos, Name: kw.Key, Ctx: ir.Param})
			defaults = append(defaults, kw.Value)
		}
	default:
		return nil, newError(KindMalformedTag, "macro", p.Lineno(), "macro signature must be a call, got %s", describe(sig))
	}

	body, err := l.lowerSequence(t.Body)
	if err != nil {
		return nil, err
	}
	return &ir.Macro{Pos: ir.Pos{Lineno: t.Lineno()}, Name: name, Args: args, Defaults: defaults, Body: body}, nil
}

// lowerWith lowers `with a=1, b=2`. Every parameter must bind a name.
func (l *lowerer) lowerWith(t *cst.PairedTag) (ir.Node, error) {
	targets := make([]ir.Node, 0, len(t.Params))
	values := make([]ir.Node, 0, len(t.Params))
	for i, p := range t.Params {
		if p.Key == "" {
			return nil, newError(KindMalformedWithBinding, "with", p.Lineno(), "parameter %d has no binding key", i)
		}
		value, err := l.lowerExpr(p.Value)
		if err != nil {
			return nil, err
		}
		targets = append(targets, &ir.Name{Pos: ir.Pos{Lineno: p.Lineno()}, Name: p.Key, Ctx: ir.Param})
		values = append(values, value)
	}

	body, err := l.lowerSequence(t.Body)
	if err != nil {
		return nil, err
	}
	return &ir.With{Pos: ir.Pos{Lineno: t.Lineno()}, Targets: targets, Values: values, Body: body}, nil
}
