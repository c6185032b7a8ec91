package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and captures output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommandListsSubcommands(t *testing.T) {
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "translate")
	assert.Contains(t, out, "check")
	assert.Contains(t, out, "run")
}

func TestRootCommandRejectsInvalidFormat(t *testing.T) {
	_, err := executeCommand(t, "--format", "xml", "translate", "SELECT * FROM users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExitStatus(t *testing.T) {
	assert.Equal(t, 0, ExitStatus(nil))
	assert.Equal(t, statusUsage, ExitStatus(commandErrorf("no such corpus")))
	assert.Equal(t, statusFailure, ExitStatus(failedf("expectation violated")))
	assert.Equal(t, statusFailure, ExitStatus(assert.AnError))
}

func TestExitStatusUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("outer: %w", commandErrorf("inner"))
	assert.Equal(t, statusUsage, ExitStatus(err))
}
