package compiler

import (
	"slices"

	"github.com/roach88/tplir/internal/ir"
)

// MergeOutputs folds every Output that directly follows another Output
// into its predecessor, scanning from the end so runs of any length
// collapse into their first Output. The slice is modified in place and
// returned shortened.
func MergeOutputs(blocks []ir.Node) []ir.Node {
	for i := len(blocks) - 1; i > 0; i-- {
		cur, ok := blocks[i].(*ir.Output)
		if !ok {
			continue
		}
		prev, ok := blocks[i-1].(*ir.Output)
		if !ok {
			continue
		}
		prev.Nodes = append(prev.Nodes, cur.Nodes...)
		blocks = slices.Delete(blocks, i, i+1)
	}
	return blocks
}

// MergeTemplateData joins adjacent TemplateData nodes inside each Output,
// keeping the first node of every run and its line.
func MergeTemplateData(blocks []ir.Node) []ir.Node {
	for _, block := range blocks {
		out, ok := block.(*ir.Output)
		if !ok || len(out.Nodes) < 2 {
			continue
		}
		nodes := out.Nodes
		for i := len(nodes) - 1; i > 0; i-- {
			cur, ok := nodes[i].(*ir.TemplateData)
			if !ok {
				continue
			}
			prev, ok := nodes[i-1].(*ir.TemplateData)
			if !ok {
				continue
			}
			prev.Data += cur.Data
			nodes = slices.Delete(nodes, i, i+1)
		}
		out.Nodes = nodes
	}
	return blocks
}
