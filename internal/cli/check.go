package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docshift/dqlbridge/internal/harness"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
}

// CheckSummary is the JSON shape of one checked corpus.
type CheckSummary struct {
	Corpus string `json:"corpus"`
	Cases  int    `json:"cases"`
	Errors int    `json:"errors"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <corpus.yaml>...",
		Short: "Translate a corpus and verify its expectations",
		Long: `Load one or more corpus files, translate every case, and verify the
declared expectations (exact query text or error diagnostics).`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args, cmd)
		},
	}

	return cmd
}

func runCheck(opts *CheckOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var summaries []CheckSummary
	failed := false
	for _, path := range paths {
		corpus, err := harness.LoadCorpus(path)
		if err != nil {
			_ = formatter.Error("CORPUS_LOAD", err.Error(), "")
			return commandErrorf("load corpus: %w", err)
		}
		formatter.VerboseLog("checking corpus %s (%d cases)", corpus.Name, len(corpus.Cases))

		results, runErr := harness.RunTranslations(corpus)
		summary := CheckSummary{Corpus: corpus.Name, Cases: len(results)}
		for _, r := range results {
			if r.Err != nil {
				summary.Errors++
			}
			formatter.VerboseLog("  %s: %s", r.Name, describeResult(r))
		}
		summaries = append(summaries, summary)

		if runErr != nil {
			failed = true
			_ = formatter.Error("EXPECTATION", runErr.Error(), "")
		}
	}

	if failed {
		return failedf("expectation violations")
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "✓ %s: %d case(s) translated as expected (%d diagnostic(s))\n",
			s.Corpus, s.Cases, s.Errors)
	}
	return nil
}

func describeResult(r harness.CaseResult) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Query
}
