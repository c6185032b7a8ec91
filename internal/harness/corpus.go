// Package harness executes translation corpora: YAML files declaring
// seed tables and translation cases. Corpora drive three consumers: the
// golden snapshot tests, the SQLite differential runner, and the CLI
// check/run commands.
package harness

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed corpus_schema.cue
var corpusSchema string

// Corpus is one corpus file: optional seed tables plus translation cases.
type Corpus struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Tables      []Table `yaml:"tables,omitempty"`
	Cases       []Case  `yaml:"cases"`
}

// Table declares seed data. Columns use SQL-facing names; the harness
// applies the id→_id rename when seeding the document store.
type Table struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Rows    [][]any  `yaml:"rows,omitempty"`
}

// Case is one statement to translate, with its ordered parameters and
// the caller's expected field list for result mapping.
type Case struct {
	Name   string   `yaml:"name"`
	SQL    string   `yaml:"sql"`
	Params []any    `yaml:"params,omitempty"`
	Fields []string `yaml:"fields,omitempty"`
	Expect *Expect  `yaml:"expect,omitempty"`
}

// Expect declares the expected translation outcome. Query asserts the
// exact translated text; ErrorCode/ErrorContains assert a failure.
type Expect struct {
	Query         string `yaml:"query,omitempty"`
	ErrorCode     string `yaml:"error_code,omitempty"`
	ErrorContains string `yaml:"error_contains,omitempty"`
}

// LoadCorpus reads, schema-validates, and decodes one corpus file.
// Validation runs against the embedded CUE schema first so structural
// mistakes surface with CUE's field-level diagnostics instead of a
// misdecoded struct.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	if err := validateCorpus(path, data); err != nil {
		return nil, err
	}

	var corpus Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", path, err)
	}
	return &corpus, nil
}

// validateCorpus checks the YAML document against the #Corpus schema.
func validateCorpus(path string, data []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(corpusSchema)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("compile corpus schema: %w", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Corpus"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup #Corpus: %w", err)
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return fmt.Errorf("parse corpus %s: %w", path, err)
	}
	docVal := ctx.BuildFile(file)
	if err := docVal.Err(); err != nil {
		return fmt.Errorf("build corpus %s: %w", path, err)
	}

	unified := def.Unify(docVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("corpus %s does not match schema: %w", path, err)
	}
	return nil
}
