package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders n as a single deterministic line in constructor form,
// e.g. Output(nodes=[TemplateData(data="Hi")]). Line numbers are omitted;
// use MarshalCanonical when positions matter.
func Dump(n Node) string {
	var d dumper
	d.node(n)
	return d.sb.String()
}

type dumper struct {
	sb strings.Builder
}

type field struct {
	name  string
	write func()
}

func (d *dumper) call(kind string, fields ...field) {
	d.sb.WriteString(kind)
	d.sb.WriteByte('(')
	for i, f := range fields {
		if i > 0 {
			d.sb.WriteString(", ")
		}
		d.sb.WriteString(f.name)
		d.sb.WriteByte('=')
		f.write()
	}
	d.sb.WriteByte(')')
}

func (d *dumper) nodeField(name string, n Node) field {
	return field{name, func() { d.node(n) }}
}

func (d *dumper) listField(name string, nodes []Node) field {
	return field{name, func() { d.list(nodes) }}
}

func (d *dumper) keywordsField(name string, kws []*Keyword) field {
	nodes := make([]Node, len(kws))
	for i, kw := range kws {
		nodes[i] = kw
	}
	return d.listField(name, nodes)
}

func (d *dumper) strField(name, s string) field {
	return field{name, func() { d.sb.WriteString(strconv.Quote(s)) }}
}

func (d *dumper) boolField(name string, b bool) field {
	return field{name, func() { d.sb.WriteString(strconv.FormatBool(b)) }}
}

func (d *dumper) list(nodes []Node) {
	d.sb.WriteByte('[')
	for i, n := range nodes {
		if i > 0 {
			d.sb.WriteString(", ")
		}
		d.node(n)
	}
	d.sb.WriteByte(']')
}

func (d *dumper) node(n Node) {
	switch n := n.(type) {
	case nil:
		d.sb.WriteString("nil")
	case *Template:
		d.call("Template", d.listField("body", n.Body))
	case *Output:
		d.call("Output", d.listField("nodes", n.Nodes))
	case *TemplateData:
		d.call("TemplateData", d.strField("data", n.Data))
	case *Name:
		d.call("Name", d.strField("name", n.Name), d.strField("ctx", string(n.Ctx)))
	case *Const:
		d.call("Const", field{"value", func() { d.sb.WriteString(FormatValue(n.Value)) }})
	case *Getattr:
		d.call("Getattr", d.nodeField("node", n.Node), d.strField("attr", n.Attr), d.strField("ctx", string(n.Ctx)))
	case *Getitem:
		d.call("Getitem", d.nodeField("node", n.Node), d.nodeField("arg", n.Arg), d.strField("ctx", string(n.Ctx)))
	case *Call:
		d.call("Call", d.nodeField("node", n.Node), d.listField("args", n.Args), d.keywordsField("kwargs", n.Kwargs),
			d.nodeField("dyn_args", n.DynArgs), d.nodeField("dyn_kwargs", n.DynKwargs))
	case *Keyword:
		d.call("Keyword", d.strField("key", n.Key), d.nodeField("value", n.Value))
	case *Filter:
		if n == nil {
			d.sb.WriteString("nil")
			return
		}
		d.call("Filter", d.nodeField("node", n.Node), d.strField("name", n.Name), d.listField("args", n.Args),
			d.keywordsField("kwargs", n.Kwargs), d.nodeField("dyn_args", n.DynArgs), d.nodeField("dyn_kwargs", n.DynKwargs))
	case *Test:
		d.call("Test", d.nodeField("node", n.Node), d.strField("name", n.Name), d.listField("args", n.Args),
			d.keywordsField("kwargs", n.Kwargs), d.nodeField("dyn_args", n.DynArgs), d.nodeField("dyn_kwargs", n.DynKwargs))
	case *Compare:
		ops := make([]Node, len(n.Ops))
		for i, op := range n.Ops {
			ops[i] = op
		}
		d.call("Compare", d.nodeField("expr", n.Expr), d.listField("ops", ops))
	case *Operand:
		d.call("Operand", d.strField("op", n.Op), d.nodeField("expr", n.Expr))
	case *And:
		d.call("And", d.nodeField("left", n.Left), d.nodeField("right", n.Right))
	case *Or:
		d.call("Or", d.nodeField("left", n.Left), d.nodeField("right", n.Right))
	case *Not:
		d.call("Not", d.nodeField("node", n.Node))
	case *CondExpr:
		d.call("CondExpr", d.nodeField("test", n.Test), d.nodeField("expr1", n.Expr1), d.nodeField("expr2", n.Expr2))
	case *Concat:
		d.call("Concat", d.listField("nodes", n.Nodes))
	case *List:
		d.call("List", d.listField("items", n.Items))
	case *Tuple:
		d.call("Tuple", d.listField("items", n.Items), d.strField("ctx", string(n.Ctx)))
	case *Dict:
		items := make([]Node, len(n.Items))
		for i, p := range n.Items {
			items[i] = p
		}
		d.call("Dict", d.listField("items", items))
	case *Pair:
		d.call("Pair", d.nodeField("key", n.Key), d.nodeField("value", n.Value))
	case *For:
		d.call("For", d.nodeField("target", n.Target), d.nodeField("iter", n.Iter), d.listField("body", n.Body),
			d.listField("else_", n.Else), d.nodeField("test", n.Test), d.boolField("recursive", n.Recursive))
	case *If:
		elif := make([]Node, len(n.Elif))
		for i, e := range n.Elif {
			elif[i] = e
		}
		d.call("If", d.nodeField("test", n.Test), d.listField("body", n.Body), d.listField("elif_", elif), d.listField("else_", n.Else))
	case *Block:
		d.call("Block", d.strField("name", n.Name), d.listField("body", n.Body), d.boolField("scoped", n.Scoped))
	case *Extends:
		d.call("Extends", d.nodeField("template", n.Template))
	case *FromImport:
		d.call("FromImport", d.nodeField("template", n.Template), field{"names", func() { d.importNames(n.Names) }},
			d.boolField("with_context", n.WithContext))
	case *Assign:
		d.call("Assign", d.nodeField("target", n.Target), d.nodeField("node", n.Node))
	case *AssignBlock:
		var filter Node
		if n.Filter != nil {
			filter = n.Filter
		}
		d.call("AssignBlock", d.nodeField("target", n.Target), d.nodeField("filter", filter), d.listField("body", n.Body))
	case *With:
		d.call("With", d.listField("targets", n.Targets), d.listField("values", n.Values), d.listField("body", n.Body))
	case *Macro:
		args := make([]Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = a
		}
		d.call("Macro", d.strField("name", n.Name), d.listField("args", args), d.listField("defaults", n.Defaults), d.listField("body", n.Body))
	case *Scope:
		d.call("Scope", d.listField("body", n.Body))
	case *ScopedEvalContextModifier:
		d.call("ScopedEvalContextModifier", d.keywordsField("options", n.Options), d.listField("body", n.Body))
	default:
		fmt.Fprintf(&d.sb, "%T", n)
	}
}

func (d *dumper) importNames(names []ImportName) {
	d.sb.WriteByte('[')
	for i, name := range names {
		if i > 0 {
			d.sb.WriteString(", ")
		}
		if name.Alias == "" {
			d.sb.WriteString(strconv.Quote(name.Name))
			continue
		}
		fmt.Fprintf(&d.sb, "(%s, %s)", strconv.Quote(name.Name), strconv.Quote(name.Alias))
	}
	d.sb.WriteByte(']')
}

// FormatValue renders a Const value: nil, true/false, quoted strings,
// base-10 integers, and floats that always carry a '.' or exponent.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case string:
		return strconv.Quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return formatFloat(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}
