package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/docshift/dqlbridge/internal/dqlgen"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
}

// TranslationPayload is the JSON shape of one translation result.
type TranslationPayload struct {
	Query string          `json:"query"`
	Args  json.RawMessage `json:"args,omitempty"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <sql> [param...]",
		Short: "Translate one SQL statement into DQL",
		Long: `Translate one SQL statement into DQL text plus named arguments.

Positional parameters after the statement bind the ? placeholders in
order. Each parameter is decoded as null, true, false, an integer, a
float, or otherwise a string.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], args[1:], cmd)
		},
	}

	return cmd
}

func runTranslate(opts *TranslateOptions, sql string, rawParams []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	params := make([]sqlval.Value, len(rawParams))
	for i, raw := range rawParams {
		params[i] = decodeParam(raw)
	}
	formatter.VerboseLog("translating with %d parameter(s)", len(params))

	result, err := dqlgen.NewTranslator().Translate(sql, params)
	if err != nil {
		return outputTranslateError(formatter, err)
	}
	return outputTranslateSuccess(formatter, result)
}

// decodeParam interprets one command-line parameter as a typed value.
func decodeParam(raw string) sqlval.Value {
	switch raw {
	case "null":
		return sqlval.Null{}
	case "true":
		return sqlval.Bool(true)
	case "false":
		return sqlval.Bool(false)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return sqlval.Int(n)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return sqlval.Float(f)
	}
	return sqlval.String(raw)
}

func outputTranslateSuccess(formatter *OutputFormatter, result *dqlgen.Result) error {
	payload := TranslationPayload{Query: result.Query}
	if result.Args != nil {
		argsJSON, err := result.Args.MarshalJSON()
		if err != nil {
			return commandErrorf("marshal arguments: %w", err)
		}
		payload.Args = argsJSON
	}

	if formatter.Format == "json" {
		return formatter.Success(payload)
	}

	fmt.Fprintf(formatter.Writer, "query: %s\n", payload.Query)
	if payload.Args != nil {
		fmt.Fprintf(formatter.Writer, "args:  %s\n", payload.Args)
	}
	return nil
}

func outputTranslateError(formatter *OutputFormatter, err error) error {
	var te *dqlgen.TranslateError
	if errors.As(err, &te) {
		_ = formatter.Error(string(te.Code), te.Message, te.Hint)
		return failedf("%s", te.Message)
	}
	_ = formatter.Error("INTERNAL", err.Error(), "")
	return commandErrorf("translate: %w", err)
}
