package compiler

import (
	"fmt"
	"reflect"

	"github.com/roach88/tplir/internal/ir"
)

// Validation error codes (E200-E210)
const (
	ErrNilNode              = "E200" // nil entry where a node is required
	ErrAdjacentOutputs      = "E201" // two Output siblings in one body
	ErrAdjacentTemplateData = "E202" // two TemplateData siblings in one Output
	ErrUnwrappedNode        = "E203" // accessor, filter or test without a wrapped node
	ErrMacroArity           = "E204" // more defaults than parameters
	ErrWithArity            = "E205" // targets and values differ in length
	ErrInvalidContext       = "E206" // unknown access context or wrong context for a binding
	ErrEmptyOutput          = "E207" // Output with no content
	ErrRootLine             = "E208" // template root not on line 1
	ErrMissingChild         = "E209" // required child absent
	ErrSharedNode           = "E210" // node owned by more than one parent
)

// ValidationError is one broken IR invariant.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a lowered template against the IR invariants.
// Returns all errors found (does not fail-fast).
func Validate(t *ir.Template) []ValidationError {
	if t == nil {
		return []ValidationError{{Field: "template", Message: "template is nil", Code: ErrNilNode}}
	}

	var errs []ValidationError

	// E208: root line
	if t.Lineno != 1 {
		errs = append(errs, ValidationError{
			Field:   "template",
			Message: fmt.Sprintf("root must be on line 1, got %d", t.Lineno),
			Code:    ErrRootLine,
			Line:    t.Lineno,
		})
	}

	// The innermost filter of a block-set chain is detached from its
	// target and is the one filter allowed to wrap nothing.
	detached := make(map[*ir.Filter]bool)

	ir.Walk(t, func(n ir.Node) bool {
		if isNil(n) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%T", n),
				Message: "typed nil node",
				Code:    ErrNilNode,
			})
			return false
		}
		if ab, ok := n.(*ir.AssignBlock); ok && ab.Filter != nil {
			detached[innermostFilter(ab.Filter)] = true
		}
		if f, ok := n.(*ir.Filter); ok && detached[f] {
			return true
		}
		errs = append(errs, validateNode(n)...)
		return true
	})
	return errs
}

// namedList is one list-valued field of a node. Bodies are statement
// sequences and must be normalized.
type namedList struct {
	field string
	nodes []ir.Node
	body  bool
}

func listsOf(n ir.Node) []namedList {
	switch n := n.(type) {
	case *ir.Template:
		return []namedList{{"body", n.Body, true}}
	case *ir.Output:
		return []namedList{{"nodes", n.Nodes, false}}
	case *ir.Call:
		return []namedList{{"args", n.Args, false}}
	case *ir.Filter:
		return []namedList{{"args", n.Args, false}}
	case *ir.Test:
		return []namedList{{"args", n.Args, false}}
	case *ir.Concat:
		return []namedList{{"nodes", n.Nodes, false}}
	case *ir.List:
		return []namedList{{"items", n.Items, false}}
	case *ir.Tuple:
		return []namedList{{"items", n.Items, false}}
	case *ir.For:
		return []namedList{{"body", n.Body, true}, {"else", n.Else, true}}
	case *ir.If:
		return []namedList{{"body", n.Body, true}, {"else", n.Else, true}}
	case *ir.Block:
		return []namedList{{"body", n.Body, true}}
	case *ir.AssignBlock:
		return []namedList{{"body", n.Body, true}}
	case *ir.With:
		return []namedList{{"targets", n.Targets, false}, {"values", n.Values, false}, {"body", n.Body, true}}
	case *ir.Macro:
		return []namedList{{"defaults", n.Defaults, false}, {"body", n.Body, true}}
	case *ir.Scope:
		return []namedList{{"body", n.Body, true}}
	case *ir.ScopedEvalContextModifier:
		return []namedList{{"body", n.Body, true}}
	}
	return nil
}

func validateNode(n ir.Node) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   n.Kind() + "." + field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
			Line:    n.Line(),
		})
	}

	for _, l := range listsOf(n) {
		for i, c := range l.nodes {
			// E200: nil entries
			if c == nil {
				add(fmt.Sprintf("%s[%d]", l.field, i), ErrNilNode, "nil entry")
			}
		}
		if !l.body {
			continue
		}
		// E201: adjacent outputs
		for i := 1; i < len(l.nodes); i++ {
			_, prev := l.nodes[i-1].(*ir.Output)
			_, cur := l.nodes[i].(*ir.Output)
			if prev && cur {
				add(fmt.Sprintf("%s[%d]", l.field, i), ErrAdjacentOutputs, "Output follows another Output")
			}
		}
	}

	switch n := n.(type) {
	case *ir.Output:
		// E207: empty output
		if len(n.Nodes) == 0 {
			add("nodes", ErrEmptyOutput, "Output has no content")
		}
		// E202: adjacent text
		for i := 1; i < len(n.Nodes); i++ {
			_, prev := n.Nodes[i-1].(*ir.TemplateData)
			_, cur := n.Nodes[i].(*ir.TemplateData)
			if prev && cur {
				add(fmt.Sprintf("nodes[%d]", i), ErrAdjacentTemplateData, "TemplateData follows another TemplateData")
			}
		}
	case *ir.Name:
		checkCtx(n.Ctx, add)
	case *ir.Tuple:
		checkCtx(n.Ctx, add)
	case *ir.Getattr:
		checkWrapped(n.Node, add)
		checkCtx(n.Ctx, add)
	case *ir.Getitem:
		checkWrapped(n.Node, add)
		checkCtx(n.Ctx, add)
		if n.Arg == nil {
			add("arg", ErrMissingChild, "subscript is missing")
		}
	case *ir.Call:
		checkWrapped(n.Node, add)
		checkKeywords(n.Kwargs, add)
	case *ir.Filter:
		checkWrapped(n.Node, add)
		checkKeywords(n.Kwargs, add)
	case *ir.Test:
		checkWrapped(n.Node, add)
		checkKeywords(n.Kwargs, add)
	case *ir.Not:
		checkWrapped(n.Node, add)
	case *ir.Compare:
		if n.Expr == nil {
			add("expr", ErrMissingChild, "left operand is missing")
		}
		if len(n.Ops) == 0 {
			add("ops", ErrMissingChild, "comparison has no operands")
		}
		for i, op := range n.Ops {
			if op == nil || op.Expr == nil {
				add(fmt.Sprintf("ops[%d]", i), ErrMissingChild, "operand is missing")
			}
		}
	case *ir.And:
		checkBinary(n.Left, n.Right, add)
	case *ir.Or:
		checkBinary(n.Left, n.Right, add)
	case *ir.CondExpr:
		if n.Test == nil || n.Expr1 == nil {
			add("test", ErrMissingChild, "condition and true branch are required")
		}
	case *ir.Dict:
		for i, p := range n.Items {
			if p == nil || p.Key == nil || p.Value == nil {
				add(fmt.Sprintf("items[%d]", i), ErrMissingChild, "pair key and value are required")
			}
		}
	case *ir.For:
		if n.Target == nil || n.Iter == nil {
			add("target", ErrMissingChild, "loop target and iterable are required")
		}
	case *ir.If:
		if n.Test == nil {
			add("test", ErrMissingChild, "condition is required")
		}
	case *ir.Extends:
		if n.Template == nil {
			add("template", ErrMissingChild, "parent template is required")
		}
	case *ir.FromImport:
		if n.Template == nil {
			add("template", ErrMissingChild, "template is required")
		}
	case *ir.Assign:
		if n.Target == nil || n.Node == nil {
			add("target", ErrMissingChild, "target and value are required")
		}
	case *ir.AssignBlock:
		if n.Target == nil {
			add("target", ErrMissingChild, "target is required")
		}
		if n.Filter != nil && innermostFilter(n.Filter).Node != nil {
			add("filter", ErrUnwrappedNode, "detached filter still wraps a node")
		}
	case *ir.With:
		// E205: parallel lists
		if len(n.Targets) != len(n.Values) {
			add("targets", ErrWithArity, "%d targets for %d values", len(n.Targets), len(n.Values))
		}
	case *ir.Macro:
		// E204: defaults align to the trailing parameters
		if len(n.Defaults) > len(n.Args) {
			add("defaults", ErrMacroArity, "%d defaults for %d parameters", len(n.Defaults), len(n.Args))
		}
		for i, a := range n.Args {
			if a == nil {
				add(fmt.Sprintf("args[%d]", i), ErrNilNode, "nil entry")
			} else if a.Ctx != ir.Param {
				add(fmt.Sprintf("args[%d]", i), ErrInvalidContext, "macro parameter %q has context %q", a.Name, a.Ctx)
			}
		}
	case *ir.ScopedEvalContextModifier:
		checkKeywords(n.Options, add)
	}
	return errs
}

type addFunc func(field, code, format string, args ...any)

// checkWrapped enforces that accessor, filter and test nodes wrap a node.
func checkWrapped(node ir.Node, add addFunc) {
	// E203: unwrapped node
	if node == nil {
		add("node", ErrUnwrappedNode, "wrapped node is missing")
	}
}

func checkCtx(ctx ir.Ctx, add addFunc) {
	// E206: context
	switch ctx {
	case ir.Load, ir.Store, ir.Param:
	default:
		add("ctx", ErrInvalidContext, "unknown context %q", ctx)
	}
}

func checkKeywords(kws []*ir.Keyword, add addFunc) {
	for i, kw := range kws {
		if kw == nil || kw.Value == nil {
			add(fmt.Sprintf("kwargs[%d]", i), ErrMissingChild, "keyword value is missing")
		}
	}
}

func checkBinary(left, right ir.Node, add addFunc) {
	if left == nil || right == nil {
		add("left", ErrMissingChild, "both operands are required")
	}
}

func innermostFilter(f *ir.Filter) *ir.Filter {
	for {
		next, ok := f.Node.(*ir.Filter)
		if !ok {
			return f
		}
		f = next
	}
}

// isNil reports a nil pointer stored in a non-nil interface.
func isNil(n ir.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
