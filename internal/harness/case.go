package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tplir/internal/compiler"
	"github.com/roach88/tplir/internal/cst"
)

// Case is a single lowering test case.
type Case struct {
	// Name uniquely identifies this case.
	Name string `yaml:"name"`

	// Description explains what this case validates.
	Description string `yaml:"description"`

	// CST is the raw parser output to lower, in the generic map/list
	// form cst.Decode accepts.
	CST any `yaml:"-"`

	// Expect holds the expectations. Nil means "lowers and validates".
	Expect *Expect `yaml:"expect,omitempty"`

	// Path is the file the case was loaded from; empty for inline cases.
	Path string `yaml:"-"`
}

// Expect describes what lowering a case must produce.
type Expect struct {
	// Error is the compile error kind lowering must fail with.
	Error string `yaml:"error,omitempty"`

	// Line is the expected error line; 0 skips the check.
	Line int `yaml:"line,omitempty"`

	// Body lists the kinds of the root body nodes in order.
	Body []string `yaml:"body,omitempty"`

	// Counts maps node kinds to the exact number reachable from the root.
	Counts map[string]int `yaml:"counts,omitempty"`
}

// knownErrorKinds are the values accepted by Expect.Error.
var knownErrorKinds = []compiler.ErrorKind{
	compiler.KindMissingLiteralKind,
	compiler.KindMalformedLoopHeader,
	compiler.KindMalformedWithBinding,
	compiler.KindMalformedTag,
	compiler.KindMalformedNumber,
	compiler.KindUnsupportedExpression,
}

// LoadCase reads and parses a case YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	c, err := ParseCase(data)
	if err != nil {
		return nil, err
	}
	c.Path = path
	return c, nil
}

// caseFile is the on-disk form of a Case. The CST stays a yaml.Node
// until cst.FromYAML converts it, so number text survives.
type caseFile struct {
	Case `yaml:",inline"`
	CST  yaml.Node `yaml:"cst"`
}

// ParseCase parses case YAML with strict field validation.
func ParseCase(data []byte) (*Case, error) {
	var raw caseFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	c := raw.Case
	tree, err := cst.FromYAML(&raw.CST)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	c.CST = tree

	if err := validateCase(&c); err != nil {
		return nil, fmt.Errorf("invalid case: %w", err)
	}
	return &c, nil
}

// FindCases returns the YAML case files under dir in lexical order.
// A non-empty filter is a glob matched against the file name without
// its extension.
func FindCases(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// GoldenName is the golden file stem for the case: the case file name
// without extension, or the case name for inline cases.
func (c *Case) GoldenName() string {
	if c.Path == "" {
		return c.Name
	}
	base := filepath.Base(c.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GoldenPath is the golden file next to the case file.
func (c *Case) GoldenPath() string {
	return filepath.Join(filepath.Dir(c.Path), GoldenDir, c.GoldenName()+GoldenSuffix)
}

func validateCase(c *Case) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}

	if c.Description == "" {
		return fmt.Errorf("description is required")
	}

	if c.CST == nil {
		return fmt.Errorf("cst is required")
	}

	if c.Expect == nil {
		return nil
	}

	if c.Expect.Error != "" {
		if !slices.Contains(knownErrorKinds, compiler.ErrorKind(c.Expect.Error)) {
			return fmt.Errorf("expect.error: unknown error kind %q", c.Expect.Error)
		}
		if len(c.Expect.Body) > 0 || len(c.Expect.Counts) > 0 {
			return fmt.Errorf("expect: error cannot be combined with body or counts")
		}
	} else if c.Expect.Line != 0 {
		return fmt.Errorf("expect.line requires expect.error")
	}

	if c.Expect.Line < 0 {
		return fmt.Errorf("expect.line must be non-negative")
	}

	for kind, n := range c.Expect.Counts {
		if n < 0 {
			return fmt.Errorf("expect.counts[%s]: count must be non-negative", kind)
		}
	}

	return nil
}
