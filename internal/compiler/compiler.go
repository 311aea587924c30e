package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/tplir/internal/cst"
	"github.com/roach88/tplir/internal/ir"
)

// Option configures a lowering run.
type Option func(*lowerer)

// WithLogger sets the logger for debug output about dropped constructs.
// The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(l *lowerer) {
		if logger != nil {
			l.log = logger
		}
	}
}

// lowerer holds per-call state. A fresh one is built for every
// CompileTemplate call, so calls never share mutable state.
type lowerer struct {
	log *slog.Logger
}

func newLowerer(opts []Option) *lowerer {
	l := &lowerer{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CompileTemplate lowers a template CST into IR rooted at a Template on
// line 1. The first fatal error aborts lowering; no partial tree is
// returned.
//
//	root, err := cst.Decode(raw)
//	if err != nil { ... }
//	tmpl, err := compiler.CompileTemplate(root)
func CompileTemplate(root cst.Node, opts ...Option) (*ir.Template, error) {
	l := newLowerer(opts)
	body, err := l.lowerBody(root)
	if err != nil {
		return nil, err
	}
	return &ir.Template{Pos: ir.Pos{Lineno: 1}, Body: body}, nil
}

// CompileSequence lowers a sequence of constructs into a normalized list.
func CompileSequence(seq cst.Sequence, opts ...Option) ([]ir.Node, error) {
	return newLowerer(opts).lowerSequence(seq)
}

// lowerBody lowers a node that stands for a body. A lone construct is
// treated as a one-element sequence.
func (l *lowerer) lowerBody(n cst.Node) ([]ir.Node, error) {
	if seq, ok := n.(cst.Sequence); ok {
		return l.lowerSequence(seq)
	}
	return l.lowerSequence(cst.Sequence{n})
}

// lowerSequence lowers each element, drops absences, then merges adjacent
// outputs and adjacent text.
func (l *lowerer) lowerSequence(seq cst.Sequence) ([]ir.Node, error) {
	blocks := make([]ir.Node, 0, len(seq))
	for _, item := range seq {
		if nested, ok := item.(cst.Sequence); ok {
			inner, err := l.lowerSequence(nested)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, inner...)
			continue
		}
		node, err := l.lowerNode(item)
		if err != nil {
			return nil, err
		}
		if node != nil {
			blocks = append(blocks, node)
		}
	}
	return MergeTemplateData(MergeOutputs(blocks)), nil
}

// lowerNode dispatches a single construct. A nil node with a nil error is
// an absence: the construct lowers to nothing.
func (l *lowerer) lowerNode(n cst.Node) (ir.Node, error) {
	switch n := n.(type) {
	case cst.Text:
		return textOutput(string(n), 0), nil
	case *cst.Print:
		expr, err := l.lowerExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		return &ir.Output{Pos: ir.Pos{Lineno: n.Lineno()}, Nodes: []ir.Node{expr}}, nil
	case *cst.Tag:
		return l.lowerTag(n)
	case *cst.PairedTag:
		return l.lowerPairedTag(n)
	case *cst.Raw:
		return textOutput(strings.Join(n.Fragments, ""), n.Lineno()), nil
	case *cst.Comment:
		l.log.Debug("dropping comment", "line", n.Lineno())
		return nil, nil
	case *cst.Unrecognized:
		l.log.Debug("dropping unrecognized construct", "line", n.Lineno(), "keys", n.Keys)
		return nil, nil
	default:
		l.log.Debug("dropping unsupported construct", "type", fmt.Sprintf("%T", n))
		return nil, nil
	}
}

func textOutput(data string, line int) *ir.Output {
	return &ir.Output{
		Pos:   ir.Pos{Lineno: line},
		Nodes: []ir.Node{&ir.TemplateData{Pos: ir.Pos{Lineno: line}, Data: data}},
	}
}

// lowerTag handles single tags; unknown keywords lower to nothing.
func (l *lowerer) lowerTag(t *cst.Tag) (ir.Node, error) {
	switch t.Name {
	case "extends":
		return l.lowerExtends(t)
	case "from":
		return l.lowerFromImport(t)
	case "set":
		return l.lowerAssign(t)
	default:
		l.log.Debug("dropping unrecognized tag", "tag", t.Name, "line", t.Lineno())
		return nil, nil
	}
}

// lowerPairedTag handles tags with a body; unknown keywords lower to nothing.
func (l *lowerer) lowerPairedTag(t *cst.PairedTag) (ir.Node, error) {
	switch t.Name {
	case "autoescape":
		return l.lowerAutoescape(t)
	case "block":
		return l.lowerBlock(t)
	case "for":
		return l.lowerFor(t)
	case "if":
		return l.lowerIf(t)
	case "macro":
		return l.lowerMacro(t)
	case "set":
		return l.lowerAssignBlock(t)
	case "with":
		return l.lowerWith(t)
	default:
		l.log.Debug("dropping unrecognized tag", "tag", t.Name, "line", t.Lineno())
		return nil, nil
	}
}
