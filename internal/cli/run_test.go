package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runCorpus = `
name: run-smoke
tables:
  - name: users
    columns: [id, name, age]
    rows:
      - [u1, Ada, 36]
      - [u2, Grace, 41]
cases:
  - name: adults
    sql: SELECT id, name FROM users WHERE age > ? ORDER BY age
    params: [40]
  - name: add-user
    sql: INSERT INTO users (id, name, age) VALUES (?, ?, ?)
    params: [u3, Alan, 29]
  - name: rejected
    sql: DROP INDEX idx
    expect:
      error_code: UNSUPPORTED_OPERATION
`

func TestRunExecutesCorpus(t *testing.T) {
	path := writeCorpus(t, runCorpus)

	out, err := executeCommand(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "adults: 1 row(s)")
	assert.Contains(t, out, `{"id":"u2","name":"Grace"}`)
	assert.Contains(t, out, "add-user: 0 row(s)")
	assert.NotContains(t, out, "rejected")
}

func TestRunJSON(t *testing.T) {
	path := writeCorpus(t, runCorpus)

	out, err := executeCommand(t, "--format", "json", "run", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRunCasesShareStoreState(t *testing.T) {
	path := writeCorpus(t, `
name: run-stateful
tables:
  - name: users
    columns: [id, name]
    rows:
      - [u1, Ada]
cases:
  - name: add-user
    sql: INSERT INTO users (id, name) VALUES (?, ?)
    params: [u2, Grace]
  - name: everyone
    sql: SELECT id FROM users ORDER BY id
`)

	// Writes from earlier cases are visible to later ones.
	out, err := executeCommand(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "everyone: 2 row(s)")
	assert.Contains(t, out, `{"id":"u2"}`)
}

func TestRunWithDiff(t *testing.T) {
	path := writeCorpus(t, runCorpus)

	out, err := executeCommand(t, "run", "--diff", path)
	require.NoError(t, err)
	assert.Contains(t, out, "SQLite parity holds")
}
