package ir

// Children returns the direct child nodes of n in field order.
// Nil children (an absent CondExpr else branch, a detached filter
// target) are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	addKeywords := func(kws []*Keyword) {
		for _, kw := range kws {
			if kw != nil {
				out = append(out, kw)
			}
		}
	}

	switch n := n.(type) {
	case *Template:
		add(n.Body...)
	case *Output:
		add(n.Nodes...)
	case *TemplateData, *Name, *Const:
	case *Getattr:
		add(n.Node)
	case *Getitem:
		add(n.Node, n.Arg)
	case *Call:
		add(n.Node)
		add(n.Args...)
		addKeywords(n.Kwargs)
		add(n.DynArgs, n.DynKwargs)
	case *Keyword:
		add(n.Value)
	case *Filter:
		add(n.Node)
		add(n.Args...)
		addKeywords(n.Kwargs)
		add(n.DynArgs, n.DynKwargs)
	case *Test:
		add(n.Node)
		add(n.Args...)
		addKeywords(n.Kwargs)
		add(n.DynArgs, n.DynKwargs)
	case *Compare:
		add(n.Expr)
		for _, op := range n.Ops {
			if op != nil {
				out = append(out, op)
			}
		}
	case *Operand:
		add(n.Expr)
	case *And:
		add(n.Left, n.Right)
	case *Or:
		add(n.Left, n.Right)
	case *Not:
		add(n.Node)
	case *CondExpr:
		add(n.Test, n.Expr1, n.Expr2)
	case *Concat:
		add(n.Nodes...)
	case *List:
		add(n.Items...)
	case *Tuple:
		add(n.Items...)
	case *Dict:
		for _, p := range n.Items {
			if p != nil {
				out = append(out, p)
			}
		}
	case *Pair:
		add(n.Key, n.Value)
	case *For:
		add(n.Target, n.Iter)
		add(n.Body...)
		add(n.Else...)
		add(n.Test)
	case *If:
		add(n.Test)
		add(n.Body...)
		for _, e := range n.Elif {
			if e != nil {
				out = append(out, e)
			}
		}
		add(n.Else...)
	case *Block:
		add(n.Body...)
	case *Extends:
		add(n.Template)
	case *FromImport:
		add(n.Template)
	case *Assign:
		add(n.Target, n.Node)
	case *AssignBlock:
		add(n.Target)
		if n.Filter != nil {
			out = append(out, n.Filter)
		}
		add(n.Body...)
	case *With:
		add(n.Targets...)
		add(n.Values...)
		add(n.Body...)
	case *Macro:
		for _, a := range n.Args {
			if a != nil {
				out = append(out, a)
			}
		}
		add(n.Defaults...)
		add(n.Body...)
	case *Scope:
		add(n.Body...)
	case *ScopedEvalContextModifier:
		addKeywords(n.Options)
		add(n.Body...)
	}
	return out
}

// Walk visits n and its descendants in pre-order. If fn returns false
// the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Count returns the number of nodes of each kind reachable from n.
func Count(n Node) map[string]int {
	counts := make(map[string]int)
	Walk(n, func(c Node) bool {
		counts[c.Kind()]++
		return true
	})
	return counts
}
