package ir

// Version constants for the IR schema and the lowering pass.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// CompilerVersion is the tplir lowering pass version.
	CompilerVersion = "0.1.0"
)
