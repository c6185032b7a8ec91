package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docshift/dqlbridge/internal/harness"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Diff bool // also run the SQLite differential comparison
}

// RunCaseResult is the JSON shape of one executed case.
type RunCaseResult struct {
	Name string            `json:"name"`
	Rows []json.RawMessage `json:"rows,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <corpus.yaml>",
		Short: "Execute a corpus against the reference document store",
		Long: `Seed the reference document store with the corpus tables, translate
and execute every case, and print the result documents mapped back to
SQL-facing field names. Cases run in file order against the one seeded
store, so writes made by an earlier case are visible to later ones.

With --diff, every case additionally runs against an in-memory SQLite
database through the original SQL, and any behavioral drift between the
two engines fails the command. Differential cases are isolated: each one
starts from a fresh seed on both engines.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "compare every case against SQLite")

	return cmd
}

func runRun(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := cmd.Context()

	corpus, err := harness.LoadCorpus(path)
	if err != nil {
		_ = formatter.Error("CORPUS_LOAD", err.Error(), "")
		return commandErrorf("load corpus: %w", err)
	}

	store, err := harness.SeedStore(corpus)
	if err != nil {
		_ = formatter.Error("CORPUS_SEED", err.Error(), "")
		return commandErrorf("seed store: %w", err)
	}
	formatter.VerboseLog("seeded %d table(s) for corpus %s", len(corpus.Tables), corpus.Name)

	var executed []RunCaseResult
	for _, c := range corpus.Cases {
		if c.Expect != nil && (c.Expect.ErrorCode != "" || c.Expect.ErrorContains != "") {
			formatter.VerboseLog("skipping %s: expects a diagnostic", c.Name)
			continue
		}
		docs, err := harness.ExecuteCase(ctx, store, corpus, c)
		if err != nil {
			_ = formatter.Error("CASE_FAILED", fmt.Sprintf("case %q: %v", c.Name, err), "")
			return failedf("case %q failed", c.Name)
		}
		result := RunCaseResult{Name: c.Name}
		for _, doc := range docs {
			row, err := sqlval.MarshalCanonical(doc)
			if err != nil {
				return commandErrorf("marshal result row: %w", err)
			}
			result.Rows = append(result.Rows, row)
		}
		executed = append(executed, result)
	}

	if opts.Diff {
		formatter.VerboseLog("running SQLite differential comparison")
		if err := harness.RunDifferential(ctx, corpus); err != nil {
			_ = formatter.Error("PARITY", err.Error(), "")
			return failedf("engines diverged")
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(executed)
	}
	for _, r := range executed {
		fmt.Fprintf(formatter.Writer, "%s: %d row(s)\n", r.Name, len(r.Rows))
		for _, row := range r.Rows {
			fmt.Fprintf(formatter.Writer, "  %s\n", row)
		}
	}
	if opts.Diff {
		fmt.Fprintln(formatter.Writer, "✓ SQLite parity holds")
	}
	return nil
}
