package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestCheckPassingCorpus(t *testing.T) {
	path := writeCorpus(t, `
name: check-pass
cases:
  - name: by-id
    sql: SELECT name FROM users WHERE id = ?
    params: [u1]
    expect:
      query: SELECT name FROM users WHERE _id = :arg1
  - name: drop-index
    sql: DROP INDEX idx
    expect:
      error_code: UNSUPPORTED_OPERATION
`)

	out, err := executeCommand(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "check-pass")
	assert.Contains(t, out, "2 case(s)")
}

func TestCheckExpectationViolation(t *testing.T) {
	path := writeCorpus(t, `
name: check-fail
cases:
  - name: wrong
    sql: SELECT name FROM users
    expect:
      query: SELECT nothing FROM users
`)

	out, err := executeCommand(t, "check", path)
	require.Error(t, err)
	assert.Equal(t, statusFailure, ExitStatus(err))
	assert.Contains(t, out, "wrong")
}

func TestCheckMissingFile(t *testing.T) {
	_, err := executeCommand(t, "check", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, statusUsage, ExitStatus(err))
}
