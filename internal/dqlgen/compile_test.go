package dqlgen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docshift/dqlbridge/internal/sqlval"
)

func translate(t *testing.T, sql string, params ...sqlval.Value) *Result {
	t.Helper()
	result, err := NewTranslator().Translate(sql, params)
	require.NoError(t, err)
	return result
}

func TestTranslateSelectRewritesIDAndPlaceholders(t *testing.T) {
	result := translate(t, "SELECT name FROM users WHERE id = ? AND age > ?",
		sqlval.String("u1"), sqlval.Int(30))

	assert.Equal(t, "SELECT name FROM users WHERE _id = :arg1 AND age > :arg2", result.Query)
	require.NotNil(t, result.Args)
	assert.Equal(t, []string{"arg1", "arg2"}, result.Args.Names())

	v, ok := result.Args.Get("arg1")
	require.True(t, ok)
	assert.Equal(t, sqlval.String("u1"), v)
}

func TestTranslateStripsIdentifierQuoting(t *testing.T) {
	result := translate(t, `SELECT "name" FROM "users" WHERE "id" = ?`, sqlval.String("u1"))
	assert.Equal(t, "SELECT name FROM users WHERE _id = :arg1", result.Query)

	// Translating the unquoted form produces identical output.
	again := translate(t, "SELECT name FROM users WHERE id = ?", sqlval.String("u1"))
	assert.Equal(t, result.Query, again.Query)
}

func TestTranslateArgsNilWithoutPlaceholders(t *testing.T) {
	result := translate(t, "SELECT * FROM users")
	assert.Nil(t, result.Args)
}

func TestTranslateLeavesNonReservedNamesAlone(t *testing.T) {
	result := translate(t, "SELECT identity, user_id, MID(name, 1, 3) FROM t WHERE id = ?",
		sqlval.String("x"))
	assert.Equal(t, "SELECT identity, user_id, MID(name, 1, 3) FROM t WHERE _id = :arg1", result.Query)
}

func TestTranslateQualifiedID(t *testing.T) {
	result := translate(t, "SELECT users.id FROM users")
	assert.Equal(t, "SELECT users._id FROM users", result.Query)
}

func TestTranslateInsertFoldsDocument(t *testing.T) {
	result := translate(t, "INSERT INTO users (id, name) VALUES (?, ?)",
		sqlval.String("x"), sqlval.String("y"))

	assert.Equal(t, "INSERT INTO users DOCUMENTS (:doc)", result.Query)
	require.NotNil(t, result.Args)

	v, ok := result.Args.Get("doc")
	require.True(t, ok)
	assert.Equal(t, sqlval.Object{"_id": sqlval.String("x"), "name": sqlval.String("y")}, v)
}

func TestTranslateInsertMultiRow(t *testing.T) {
	result := translate(t, "INSERT INTO users (id, name) VALUES (?, ?), (?, ?)",
		sqlval.String("u1"), sqlval.String("Ada"), sqlval.String("u2"), sqlval.String("Grace"))

	assert.Equal(t, "INSERT INTO users DOCUMENTS (:doc1), (:doc2)", result.Query)
	assert.Equal(t, []string{"doc1", "doc2"}, result.Args.Names())

	v, _ := result.Args.Get("doc2")
	assert.Equal(t, sqlval.Object{"_id": sqlval.String("u2"), "name": sqlval.String("Grace")}, v)
}

func TestTranslateInsertInlineLiterals(t *testing.T) {
	result := translate(t, "INSERT INTO users (id, note) VALUES ('u9', NULL)")

	v, ok := result.Args.Get("doc")
	require.True(t, ok)
	assert.Equal(t, sqlval.Object{"_id": sqlval.String("u9"), "note": sqlval.Null{}}, v)
}

func TestTranslateInsertArityPerRow(t *testing.T) {
	_, err := NewTranslator().Translate("INSERT INTO users (a, b) VALUES (?)", []sqlval.Value{sqlval.Int(1)})
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
	assert.Contains(t, err.Error(), "Unable to parse INSERT statement")
}

func TestTranslateUpdateKeepsSetTargets(t *testing.T) {
	result := translate(t, "UPDATE users SET name = ? WHERE id = ?",
		sqlval.String("Ada"), sqlval.String("u1"))
	assert.Equal(t, "UPDATE users SET name = :arg1 WHERE _id = :arg2", result.Query)
}

func TestTranslateDelete(t *testing.T) {
	result := translate(t, "DELETE FROM users WHERE age < ?", sqlval.Int(30))
	assert.Equal(t, "DELETE FROM users WHERE age < :arg1", result.Query)
}

func TestTranslateCreateIndex(t *testing.T) {
	result := translate(t, "CREATE INDEX idx_name ON users (name)")
	assert.Equal(t, "CREATE INDEX idx_name ON users (name)", result.Query)
	assert.Nil(t, result.Args)

	result = translate(t, "CREATE INDEX IF NOT EXISTS idx_id ON users (id)")
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS idx_id ON users (_id)", result.Query)
}

func TestTranslateIndexVariantDiagnostics(t *testing.T) {
	tests := []struct {
		sql       string
		construct string
	}{
		{"CREATE UNIQUE INDEX i ON t (a)", "UNIQUE INDEX"},
		{"CREATE INDEX i ON t (a, b)", "Composite INDEX"},
		{"CREATE INDEX i ON t (a) WHERE a > 1", "Partial INDEX"},
		{"DROP INDEX i", "DROP INDEX"},
	}
	for _, tt := range tests {
		t.Run(tt.construct, func(t *testing.T) {
			_, err := NewTranslator().Translate(tt.sql, nil)
			require.Error(t, err)
			assert.True(t, IsUnsupported(err))
			assert.Contains(t, err.Error(), "Unsupported SQL construct: "+tt.construct)
		})
	}
}

func TestTranslateUnsupportedOperations(t *testing.T) {
	tests := []struct {
		sql     string
		keyword string
	}{
		{"CREATE TABLE t (a TEXT)", "CREATE TABLE"},
		{"DROP TABLE t", "DROP TABLE"},
		{"ALTER TABLE t ADD COLUMN a", "ALTER TABLE"},
		{"TRUNCATE t", "TRUNCATE"},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			_, err := NewTranslator().Translate(tt.sql, nil)
			require.Error(t, err)
			assert.True(t, IsUnsupported(err))
			assert.Contains(t, err.Error(), "Unsupported SQL operation: "+tt.keyword)
		})
	}
}

func TestTranslateClauseDiagnosticsCarryHints(t *testing.T) {
	_, err := NewTranslator().Translate("SELECT * FROM a INNER JOIN b ON a.x = b.x", nil)
	var te *TranslateError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "JOIN", te.Construct)
	assert.NotEmpty(t, te.Hint)

	_, err = NewTranslator().Translate("SELECT a FROM t UNION SELECT a FROM u", nil)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "UNION", te.Construct)

	_, err = NewTranslator().Translate("SELECT * FROM t WHERE a IN (SELECT b FROM u)", nil)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "subquery", te.Construct)

	_, err = NewTranslator().Translate("SELECT * FROM t WHERE a BETWEEN 1 AND 2", nil)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "BETWEEN", te.Construct)
}

func TestTranslateArityMismatch(t *testing.T) {
	_, err := NewTranslator().Translate("SELECT * FROM t WHERE a = ?", nil)
	require.Error(t, err)
	assert.True(t, IsArityMismatch(err))

	_, err = NewTranslator().Translate("SELECT * FROM t", []sqlval.Value{sqlval.Int(1)})
	require.Error(t, err)
	assert.True(t, IsArityMismatch(err))
}

func TestTranslateRejectsNamedPlaceholderInput(t *testing.T) {
	_, err := NewTranslator().Translate("SELECT * FROM t WHERE a = :x", nil)
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
	assert.Contains(t, err.Error(), ":x")
}

func TestTranslateIsDeterministic(t *testing.T) {
	tr := NewTranslator()
	params := []sqlval.Value{sqlval.Int(1)}
	first, err := tr.Translate("SELECT * FROM t WHERE a = ?", params)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := tr.Translate("SELECT * FROM t WHERE a = ?", params)
		require.NoError(t, err)
		assert.Equal(t, first.Query, again.Query)
	}
}

func TestRenderLiterals(t *testing.T) {
	result := translate(t, "SELECT * FROM t WHERE a = TRUE AND b = 1.5 AND c = NULL AND d = 'x'")
	assert.Equal(t, "SELECT * FROM t WHERE a = TRUE AND b = 1.5 AND c = NULL AND d = 'x'", result.Query)
}

func TestRenderStringLiteralEscapesQuotes(t *testing.T) {
	r := &renderer{}
	require.NoError(t, r.renderLiteral(sqlval.String("it's")))
	assert.Equal(t, "'it''s'", r.b.String())
}

func TestRewriteColumnExactMatchOnly(t *testing.T) {
	assert.Equal(t, "_id", rewriteColumn("id"))
	for _, name := range []string{"Id", "ID", "identity", "user_id", "_id", "ids"} {
		assert.Equal(t, name, rewriteColumn(name), fmt.Sprintf("%q must not be rewritten", name))
	}
}
