package harness

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/tplir/internal/compiler"
	"github.com/roach88/tplir/internal/cst"
	"github.com/roach88/tplir/internal/ir"
)

// Run lowers a case and checks the result against its expectations.
//
// Execution flow:
//  1. Decode the raw CST (a decode failure is a harness error, not a case failure)
//  2. Lower it; a compile error is compared against expect.error
//  3. Hash and dump the template
//  4. Run the IR invariant and ownership checks
//  5. Compare body kinds and node counts
func Run(c *Case, opts ...compiler.Option) (*Result, error) {
	root, err := cst.Decode(c.CST)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cst: %w", err)
	}

	result := NewResult()
	expect := c.Expect
	if expect == nil {
		expect = &Expect{}
	}

	tmpl, err := compiler.CompileTemplate(root, opts...)
	if err != nil {
		var cerr *compiler.CompileError
		if !errors.As(err, &cerr) {
			return nil, fmt.Errorf("failed to compile: %w", err)
		}
		result.CompileError = cerr
		checkError(expect, cerr, result)
		return result, nil
	}

	result.Template = tmpl
	result.Dump = ir.Dump(tmpl)
	hash, err := ir.TemplateHash(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to hash template: %w", err)
	}
	result.Hash = hash

	if expect.Error != "" {
		result.AddError(fmt.Sprintf("expected %s error, template lowered", expect.Error))
	}

	for _, v := range compiler.Validate(tmpl) {
		result.AddError(v.Error())
	}
	for _, v := range compiler.CheckOwnership(tmpl) {
		result.AddError(v.Message)
	}

	checkBody(expect.Body, tmpl, result)
	checkCounts(expect.Counts, tmpl, result)

	return result, nil
}

func checkError(expect *Expect, cerr *compiler.CompileError, result *Result) {
	if expect.Error == "" {
		result.AddError(fmt.Sprintf("unexpected compile error: %v", cerr))
		return
	}
	if string(cerr.Kind) != expect.Error {
		result.AddError(fmt.Sprintf("error kind: expected %s, got %s (%v)", expect.Error, cerr.Kind, cerr))
	}
	if expect.Line != 0 && cerr.Line != expect.Line {
		result.AddError(fmt.Sprintf("error line: expected %d, got %d", expect.Line, cerr.Line))
	}
}

func checkBody(want []string, tmpl *ir.Template, result *Result) {
	if want == nil {
		return
	}
	got := make([]string, len(tmpl.Body))
	for i, n := range tmpl.Body {
		got[i] = n.Kind()
	}
	if !slices.Equal(want, got) {
		result.AddError(fmt.Sprintf("body: expected %v, got %v", want, got))
	}
}

func checkCounts(want map[string]int, tmpl *ir.Template, result *Result) {
	if len(want) == 0 {
		return
	}
	counts := ir.Count(tmpl)
	for _, kind := range slices.Sorted(maps.Keys(want)) {
		if counts[kind] != want[kind] {
			result.AddError(fmt.Sprintf("count of %s: expected %d, got %d", kind, want[kind], counts[kind]))
		}
	}
}
