package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Commands distinguish two failure classes through the process exit
// status: 1 for domain failures (a rejected statement, a violated corpus
// expectation, engine divergence) and 2 for usage or environment
// problems (unreadable corpus, bad flags).
const (
	statusFailure = 1
	statusUsage   = 2
)

// exitStatusError tags an error with the exit status it calls for. The
// type stays unexported; commands build one via failedf/commandErrorf
// and main reads it back through ExitStatus.
type exitStatusError struct {
	status int
	err    error
}

func (e *exitStatusError) Error() string { return e.err.Error() }

func (e *exitStatusError) Unwrap() error { return e.err }

// failedf builds a domain-failure error (exit status 1).
func failedf(format string, args ...any) error {
	return &exitStatusError{status: statusFailure, err: fmt.Errorf(format, args...)}
}

// commandErrorf builds a usage or environment error (exit status 2).
func commandErrorf(format string, args ...any) error {
	return &exitStatusError{status: statusUsage, err: fmt.Errorf(format, args...)}
}

// ExitStatus maps err to the process exit status: 0 for nil, the tagged
// status for errors the commands produced, 1 for anything else.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var se *exitStatusError
	if errors.As(err, &se) {
		return se.status
	}
	return statusFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output, defaults to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response envelope.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for JSON responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message, hint string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Hint: hint},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if hint != "" {
		fmt.Fprintf(f.Writer, "Hint: %s\n", hint)
	}
	return nil
}

// VerboseLog outputs a message only when verbose mode is enabled.
// Goes to ErrWriter so JSON output on Writer stays intact.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
