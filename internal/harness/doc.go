// Package harness runs lowering cases: a CST fragment plus expectations,
// lowered end to end and compared against golden IR dumps.
//
// # Case Format
//
// Cases are YAML files with the following structure:
//
//	name: for_loop
//	description: "What this case pins down"
//	cst:
//	  - start: { name: for, parameters: [...] }
//	    end: { name: endfor }
//	    contents: [...]
//	expect:
//	  body: [For]
//	  counts: { Name: 2 }
//
// A case that must fail names the error kind and, optionally, its line:
//
//	expect:
//	  error: malformed-loop-header
//	  line: 3
//
// # Checks
//
// Every successful case is also run through compiler.Validate and
// compiler.CheckOwnership; any finding fails the case.
//
// # Golden Files
//
// The snapshot of a case is its ir.Dump (or "error: ..." for failing
// cases). Golden files live in a golden/ directory next to the case
// files, named after the case file:
//
//	testdata/cases/for_loop.yaml
//	testdata/cases/golden/for_loop.golden
//
// Regenerate them with:
//
//	go test ./internal/harness -update
//
// or from the CLI with `tplir test <cases-dir> --update`.
package harness
