// tplir lowers the concrete syntax tree of a parsed template into a
// canonical intermediate representation.
//
// Usage:
//
//	# Lower a CST and print the IR, its hash and template ID
//	tplir compile page.json
//
//	# Write the canonical IR JSON to a file
//	tplir compile page.cue -o page.ir.json
//
//	# Check the IR invariants without writing anything
//	tplir validate page.yaml
//
//	# Run lowering cases against their golden dumps
//	tplir test ./cases --update
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tplir/internal/cli"
)

func main() {
	Execute()
}

// Execute runs the root command and exits with the command's exit code.
func Execute() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
