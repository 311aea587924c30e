package harness

import (
	"github.com/roach88/tplir/internal/compiler"
	"github.com/roach88/tplir/internal/ir"
)

// Result is the outcome of running a case.
type Result struct {
	// Pass indicates that every expectation and IR check held.
	Pass bool `json:"pass"`

	// Dump is the ir.Dump of the lowered template; empty on compile error.
	Dump string `json:"dump,omitempty"`

	// Hash is the content hash of the lowered template.
	Hash string `json:"hash,omitempty"`

	// CompileError is set when lowering failed.
	CompileError *compiler.CompileError `json:"-"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Template is the lowered IR, nil on compile error.
	Template *ir.Template `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Snapshot is the golden file content for the result.
func (r *Result) Snapshot() []byte {
	if r.CompileError != nil {
		return []byte("error: " + r.CompileError.Error() + "\n")
	}
	return []byte(r.Dump + "\n")
}
