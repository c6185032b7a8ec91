package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// RunWithGolden loads a corpus, translates every case, verifies the
// per-case expectations, and compares the full report against the
// golden file testdata/golden/{corpus.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, corpusPath string) {
	t.Helper()

	corpus, err := LoadCorpus(corpusPath)
	require.NoError(t, err)

	results, err := RunTranslations(corpus)
	require.NoError(t, err)

	report, err := FormatReport(corpus, results)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, corpus.Name, report)
}
