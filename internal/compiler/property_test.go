package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/roach88/tplir/internal/cst"
	"github.com/roach88/tplir/internal/ir"
	tu "github.com/roach88/tplir/internal/testutil"
)

func compileTree(tree any) (*ir.Template, error) {
	root, err := cst.Decode(tree)
	if err != nil {
		return nil, err
	}
	return CompileTemplate(root)
}

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	return parameters
}

// TestTextSiblingsMergeProperty: any run of text-producing siblings lowers
// to one Output whose single TemplateData holds the concatenated text.
func TestTextSiblingsMergeProperty(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("adjacent text merges into one TemplateData", prop.ForAll(
		func(texts []string, raw []bool) bool {
			tree := make([]any, len(texts))
			for i, s := range texts {
				if i < len(raw) && raw[i] {
					tree[i] = tu.Raw(s)
				} else {
					tree[i] = s
				}
			}

			tmpl, err := compileTree(tree)
			if err != nil {
				return false
			}
			if len(texts) == 0 {
				return len(tmpl.Body) == 0
			}
			if len(tmpl.Body) != 1 {
				return false
			}
			out, ok := tmpl.Body[0].(*ir.Output)
			if !ok || len(out.Nodes) != 1 {
				return false
			}
			data, ok := out.Nodes[0].(*ir.TemplateData)
			return ok && data.Data == strings.Join(texts, "")
		},
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

// TestNumberLiteralProperty: whole-only literals are base-10 integers; any
// fractional or exponent part yields the float of the assembled text.
func TestNumberLiteralProperty(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("number literal value", prop.ForAll(
		func(whole int64, frac uint32, exp int, hasFrac, hasExp bool) bool {
			wholeText := strconv.FormatInt(whole, 10)
			fracText, expText := "", ""
			if hasFrac {
				fracText = strconv.FormatUint(uint64(frac), 10)
			}
			if hasExp {
				expText = strconv.Itoa(exp)
			}

			tmpl, err := compileTree([]any{tu.Print(tu.Lit(tu.NumberLit(wholeText, fracText, expText)))})
			if err != nil {
				return false
			}
			c, ok := tmpl.Body[0].(*ir.Output).Nodes[0].(*ir.Const)
			if !ok {
				return false
			}

			if !hasFrac && !hasExp {
				return c.Value == whole
			}
			want, err := strconv.ParseFloat(NumberText(wholeText, fracText, hasFrac, expText, hasExp), 64)
			if err != nil {
				return false
			}
			return c.Value == want
		},
		gen.Int64Range(0, 1<<53),
		gen.UInt32(),
		gen.IntRange(-30, 30),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestDroppedEntriesProperty: comments and unrecognized constructs vanish
// and the valid statements keep their relative order.
func TestDroppedEntriesProperty(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("dropped entries leave no trace", prop.ForAll(
		func(kinds []int) bool {
			var (
				tree []any
				want []string
			)
			for i, k := range kinds {
				switch k {
				case 0:
					name := fmt.Sprintf("v%d", i)
					tree = append(tree, tu.Tag("set", tu.KeyParam(name, tu.Int(strconv.Itoa(i)))))
					want = append(want, name)
				case 1:
					tree = append(tree, tu.Comment("c"))
				case 2:
					tree = append(tree, tu.Tag("include", tu.Param(tu.Str("x.html"))))
				case 3:
					tree = append(tree, tu.Paired("call", tu.Params(tu.Param(tu.Ident("m"))), "body"))
				default:
					tree = append(tree, tu.M{"bogus": true})
				}
			}
			if tree == nil {
				tree = []any{}
			}

			tmpl, err := compileTree(tree)
			if err != nil || len(tmpl.Body) != len(want) {
				return false
			}
			for i, n := range tmpl.Body {
				assign, ok := n.(*ir.Assign)
				if !ok {
					return false
				}
				if assign.Target.(*ir.Name).Name != want[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.TestingRun(t)
}

// TestLoopHeaderFormsProperty: `target in iterable` written as three slots
// or as a single `in` comparison lowers to the same For node.
func TestLoopHeaderFormsProperty(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("both header forms agree", prop.ForAll(
		func(target, iterable string) bool {
			slots := tu.Paired("for", tu.Params(
				tu.Param(tu.Ident(target)), tu.Param(tu.Ident("in")), tu.Param(tu.Ident(iterable)),
			), tu.Print(tu.Ident(target)))
			spliced := tu.Paired("for", tu.Params(
				tu.Param(tu.Compare("in", tu.Ident(target), tu.Ident(iterable))),
			), tu.Print(tu.Ident(target)))

			a, err := compileTree([]any{slots})
			if err != nil {
				return false
			}
			b, err := compileTree([]any{spliced})
			if err != nil {
				return false
			}

			loop := a.Body[0].(*ir.For)
			name, ok := loop.Target.(*ir.Name)
			return ok && name.Name == target && name.Ctx == ir.Store &&
				loop.Iter.(*ir.Name).Name == iterable &&
				ir.Dump(a) == ir.Dump(b)
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
