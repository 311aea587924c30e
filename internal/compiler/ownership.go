package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/tplir/internal/ir"
)

// OwnershipViolation is an IR node reachable from more than one parent.
// Every non-leaf node must own its children exclusively; a shared node
// makes an in-place rewrite of one parent visible through the other.
type OwnershipViolation struct {
	Kind    string   `json:"kind"`    // kind of the shared node
	Line    int      `json:"line"`    // line of the shared node
	Parents []string `json:"parents"` // kinds of every parent, in visit order: ["Output", "Concat"]
	Cycle   bool     `json:"cycle"`   // the node is its own ancestor
	Message string   `json:"message"`
}

// CheckOwnership walks t and reports every node that is reachable through
// more than one parent edge. The walk never descends into a node twice,
// so a cyclic tree terminates and its back edge is reported with Cycle set.
//
// A well-formed lowering result returns an empty list.
func CheckOwnership(t *ir.Template) []OwnershipViolation {
	if t == nil {
		return []OwnershipViolation{}
	}

	var (
		parents = make(map[ir.Node][]string)
		order   []ir.Node
		cyclic  = make(map[ir.Node]bool)
		onPath  = make(map[ir.Node]bool)
	)

	var visit func(parent, n ir.Node)
	visit = func(parent, n ir.Node) {
		if isNil(n) {
			return
		}
		if parent != nil {
			if _, seen := parents[n]; !seen {
				order = append(order, n)
			}
			parents[n] = append(parents[n], parent.Kind())
		}
		if onPath[n] {
			cyclic[n] = true
			return
		}
		if parent != nil && len(parents[n]) > 1 {
			return
		}
		onPath[n] = true
		for _, c := range ir.Children(n) {
			visit(n, c)
		}
		onPath[n] = false
	}
	visit(nil, t)

	violations := []OwnershipViolation{}
	for _, n := range order {
		ps := parents[n]
		if len(ps) < 2 && !cyclic[n] {
			continue
		}
		violations = append(violations, ownershipViolation(n, ps, cyclic[n]))
	}
	return violations
}

func ownershipViolation(n ir.Node, parents []string, cycle bool) OwnershipViolation {
	msg := fmt.Sprintf("%s shared by %d parents: %s", n.Kind(), len(parents), strings.Join(parents, ", "))
	if cycle {
		msg = fmt.Sprintf("%s is its own ancestor (parents: %s)", n.Kind(), strings.Join(parents, ", "))
	}
	return OwnershipViolation{
		Kind:    n.Kind(),
		Line:    n.Line(),
		Parents: parents,
		Cycle:   cycle,
		Message: msg,
	}
}

// AsValidationError reports the violation in the validator's format.
func (v OwnershipViolation) AsValidationError() ValidationError {
	return ValidationError{
		Field:   v.Kind,
		Message: v.Message,
		Code:    ErrSharedNode,
		Line:    v.Line,
	}
}
