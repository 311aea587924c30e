package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tplir/internal/compiler"
	"github.com/roach88/tplir/internal/cst"
)

// Input formats accepted for CST files.
const (
	InputJSON = "json"
	InputYAML = "yaml"
	InputCUE  = "cue"
)

// ValidInputs defines the allowed --input values.
var ValidInputs = []string{InputJSON, InputYAML, InputCUE}

// cueRootField is the optional field of a CUE file that holds the CST.
// Without it the whole file is the CST.
const cueRootField = "cst"

// LoadError represents an error that occurred while loading a CST file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DetectInput picks the input format for path. A non-empty override wins;
// otherwise the file extension decides.
func DetectInput(path, override string) (string, error) {
	if override != "" {
		if !slices.Contains(ValidInputs, override) {
			return "", &LoadError{Code: ErrCodeUnsupportedInput, Message: fmt.Sprintf("invalid input %q: must be one of %v", override, ValidInputs)}
		}
		return override, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return InputJSON, nil
	case ".yaml", ".yml":
		return InputYAML, nil
	case ".cue":
		return InputCUE, nil
	default:
		return "", &LoadError{Code: ErrCodeUnsupportedInput, Message: fmt.Sprintf("cannot infer input format of %s (use --input)", path)}
	}
}

// LoadCST reads a CST file and decodes it into a cst.Node.
func LoadCST(path, input string) (cst.Node, error) {
	format, err := DetectInput(path, input)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("CST file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading CST file: %v", err)}
	}

	raw, err := decodeRaw(data, path, format)
	if err != nil {
		return nil, err
	}

	root, err := cst.Decode(raw)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error()}
	}
	return root, nil
}

// decodeRaw parses file bytes into the generic map/list tree cst.Decode reads.
func decodeRaw(data []byte, path, format string) (any, error) {
	switch format {
	case InputJSON:
		return decodeJSON(data)
	case InputYAML:
		return decodeYAML(data)
	case InputCUE:
		return decodeCUE(data, path)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupportedInput, Message: fmt.Sprintf("unsupported input %q", format)}
	}
}

// decodeYAML goes through yaml.Node so digit runs such as a `05`
// fractional part keep their text.
func decodeYAML(data []byte) (any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	v, err := cst.FromYAML(&node)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	return v, nil
}

// decodeJSON keeps numbers as json.Number so digit runs survive intact.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("parsing JSON: %v", err)}
	}
	return v, nil
}

// decodeCUE evaluates a CUE file, selects the cst field when present and
// exports the concrete value through JSON.
func decodeCUE(data []byte, path string) (any, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueLoadError(err)
	}

	if sub := value.LookupPath(cue.ParsePath(cueRootField)); sub.Exists() {
		value = sub
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(err)
	}

	exported, err := value.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(err)
	}
	return decodeJSON(exported)
}

// cueLoadError converts a CUE error to a LoadError with position info.
func cueLoadError(err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error()}
	}

	first := errs[0]
	loadErr := &LoadError{Code: ErrCodeDecodeFailed, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeNotFound         = "E005" // Path not found
	ErrCodeWriteFailed      = "E007" // File write error
	ErrCodeDecodeFailed     = "E008" // CST file could not be parsed or decoded
	ErrCodeUnsupportedInput = "E009" // Unknown input format

	// Lowering errors, one per compile error kind
	ErrCodeMissingLiteralKind    = "E301"
	ErrCodeMalformedLoopHeader   = "E302"
	ErrCodeMalformedWithBinding  = "E303"
	ErrCodeMalformedTag          = "E304"
	ErrCodeMalformedNumber       = "E305"
	ErrCodeUnsupportedExpression = "E306"
)

// MapKindToErrorCode maps a compile error kind to an error code.
func MapKindToErrorCode(kind compiler.ErrorKind) string {
	switch kind {
	case compiler.KindMissingLiteralKind:
		return ErrCodeMissingLiteralKind
	case compiler.KindMalformedLoopHeader:
		return ErrCodeMalformedLoopHeader
	case compiler.KindMalformedWithBinding:
		return ErrCodeMalformedWithBinding
	case compiler.KindMalformedTag:
		return ErrCodeMalformedTag
	case compiler.KindMalformedNumber:
		return ErrCodeMalformedNumber
	case compiler.KindUnsupportedExpression:
		return ErrCodeUnsupportedExpression
	default:
		return ErrCodeGeneric
	}
}

// parseError extracts an error code and message from a load or lowering error.
func parseError(err error) (string, string) {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapKindToErrorCode(compileErr.Kind), compileErr.Error()
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Pos.IsValid() {
			return loadErr.Code, fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), loadErr.Message)
		}
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
