// Package cst defines the typed concrete syntax tree handed over by the
// external template grammar, and decodes it from the generic form
// (nested maps, lists and strings) that JSON, YAML and CUE decoders
// produce.
//
// Shapes are recognized once, here, so the compiler can switch over
// concrete types instead of probing map keys:
//
//	raw, _ := loadJSON(path) // []any / map[string]any / string
//	root, err := cst.Decode(raw)
//
// A map node that matches no known construct decodes to Unrecognized (or
// UnknownExpr in expression position) instead of failing. Decode fails
// only when a recognized construct lacks a key its shape requires.
package cst
