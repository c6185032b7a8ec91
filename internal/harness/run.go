package harness

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/docshift/dqlbridge/internal/dqlgen"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// CaseResult is the translation outcome of one corpus case.
type CaseResult struct {
	Name  string
	Query string
	Args  *sqlval.ArgumentMap
	Err   error
}

// RunTranslations translates every case in the corpus and checks each
// declared expectation. The returned results include failures; the
// returned error is non-nil only when a case violates its expectation.
func RunTranslations(corpus *Corpus) ([]CaseResult, error) {
	translator := dqlgen.NewTranslator()
	results := make([]CaseResult, 0, len(corpus.Cases))
	var violations []string

	for _, c := range corpus.Cases {
		result := CaseResult{Name: c.Name}

		params, err := sqlval.FromAnySlice(c.Params)
		if err != nil {
			result.Err = err
		} else {
			translated, err := translator.Translate(c.SQL, params)
			if err != nil {
				result.Err = err
			} else {
				result.Query = translated.Query
				result.Args = translated.Args
			}
		}
		results = append(results, result)

		if msg := checkExpectation(c, result); msg != "" {
			violations = append(violations, fmt.Sprintf("case %q: %s", c.Name, msg))
		}
	}

	if len(violations) > 0 {
		return results, errors.New(strings.Join(violations, "; "))
	}
	return results, nil
}

func checkExpectation(c Case, result CaseResult) string {
	if c.Expect == nil {
		return ""
	}
	expectErr := c.Expect.ErrorCode != "" || c.Expect.ErrorContains != ""

	if expectErr {
		if result.Err == nil {
			return fmt.Sprintf("expected error, got query %q", result.Query)
		}
		if c.Expect.ErrorCode != "" {
			var te *dqlgen.TranslateError
			if !errors.As(result.Err, &te) || string(te.Code) != c.Expect.ErrorCode {
				return fmt.Sprintf("expected error code %s, got %v", c.Expect.ErrorCode, result.Err)
			}
		}
		if c.Expect.ErrorContains != "" && !strings.Contains(result.Err.Error(), c.Expect.ErrorContains) {
			return fmt.Sprintf("expected error containing %q, got %v", c.Expect.ErrorContains, result.Err)
		}
		return ""
	}

	if result.Err != nil {
		return fmt.Sprintf("unexpected error: %v", result.Err)
	}
	if c.Expect.Query != "" && result.Query != c.Expect.Query {
		return fmt.Sprintf("expected query %q, got %q", c.Expect.Query, result.Query)
	}
	return ""
}

// FormatReport renders translation results as deterministic text for
// golden-file comparison.
func FormatReport(corpus *Corpus, results []CaseResult) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "corpus: %s\n", corpus.Name)

	for i, result := range results {
		fmt.Fprintf(&buf, "\ncase: %s\n", result.Name)
		fmt.Fprintf(&buf, "  sql: %s\n", corpus.Cases[i].SQL)
		if result.Err != nil {
			fmt.Fprintf(&buf, "  error: %v\n", result.Err)
			continue
		}
		fmt.Fprintf(&buf, "  query: %s\n", result.Query)
		if result.Args != nil {
			argsJSON, err := result.Args.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("case %q: marshal args: %w", result.Name, err)
			}
			fmt.Fprintf(&buf, "  args: %s\n", argsJSON)
		}
	}
	return buf.Bytes(), nil
}
