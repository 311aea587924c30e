package compiler

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fatal lowering failure.
type ErrorKind string

const (
	// KindMissingLiteralKind: a literal-shaped node without a recognized literal_type.
	KindMissingLiteralKind ErrorKind = "missing-literal-kind"
	// KindMalformedLoopHeader: a for header whose second slot is not `in`.
	KindMalformedLoopHeader ErrorKind = "malformed-loop-header"
	// KindMalformedWithBinding: a with parameter without a binding key.
	KindMalformedWithBinding ErrorKind = "malformed-with-binding"
	// KindMalformedTag: a tag missing a required parameter, or with a
	// parameter of the wrong shape (block name, macro signature).
	KindMalformedTag ErrorKind = "malformed-tag"
	// KindMalformedNumber: number literal text that does not parse.
	KindMalformedNumber ErrorKind = "malformed-number"
	// KindUnsupportedExpression: an expression of no recognized shape.
	KindUnsupportedExpression ErrorKind = "unsupported-expression"
)

// Sentinel errors for errors.Is checks against a *CompileError.
var (
	ErrMissingLiteralKind    = errors.New("missing literal kind")
	ErrMalformedLoopHeader   = errors.New("malformed loop header")
	ErrMalformedWithBinding  = errors.New("malformed with binding")
	ErrMalformedTag          = errors.New("malformed tag")
	ErrMalformedNumber       = errors.New("malformed number literal")
	ErrUnsupportedExpression = errors.New("unsupported expression")
)

var sentinels = map[ErrorKind]error{
	KindMissingLiteralKind:    ErrMissingLiteralKind,
	KindMalformedLoopHeader:   ErrMalformedLoopHeader,
	KindMalformedWithBinding:  ErrMalformedWithBinding,
	KindMalformedTag:          ErrMalformedTag,
	KindMalformedNumber:       ErrMalformedNumber,
	KindUnsupportedExpression: ErrUnsupportedExpression,
}

// CompileError is a fatal lowering failure with the source line of the
// offending CST node. Lowering stops at the first one.
type CompileError struct {
	Kind    ErrorKind
	Field   string // construct being lowered, e.g. "for", "literal", "with"
	Message string
	Line    int // 1-based, 0 when the node carried no position
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s: %s", e.Line, e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

// Unwrap exposes the sentinel for the error's kind.
func (e *CompileError) Unwrap() error {
	return sentinels[e.Kind]
}

func newError(kind ErrorKind, field string, line int, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
	}
}
