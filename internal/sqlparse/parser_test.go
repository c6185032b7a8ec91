package sqlparse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docshift/dqlbridge/internal/sqlval"
)

func mustSelect(t *testing.T, sql string) *SelectStatement {
	t.Helper()
	stmt, err := Parse(sql)
	require.NoError(t, err)
	sel, ok := stmt.(*SelectStatement)
	require.True(t, ok, "expected SelectStatement, got %T", stmt)
	return sel
}

func TestParseSelectShape(t *testing.T) {
	sel := mustSelect(t, "SELECT name, age AS years FROM users WHERE id = ? ORDER BY age DESC LIMIT 10 OFFSET 2")

	require.Len(t, sel.Items, 2)
	assert.Equal(t, &ColumnRef{Name: "name"}, sel.Items[0].Expr)
	assert.Equal(t, "years", sel.Items[1].Alias)
	assert.Equal(t, "users", sel.From)

	where, ok := sel.Where.(*Binary)
	require.True(t, ok)
	assert.Equal(t, "=", where.Op)
	assert.Equal(t, &ColumnRef{Name: "id"}, where.Left)
	assert.Equal(t, &Placeholder{Ordinal: 1}, where.Right)

	require.Len(t, sel.OrderBy, 1)
	assert.True(t, sel.OrderBy[0].Desc)
	assert.Equal(t, &Literal{Val: sqlval.Int(10)}, sel.Limit)
	assert.Equal(t, &Literal{Val: sqlval.Int(2)}, sel.Offset)
}

func TestParseSelectStar(t *testing.T) {
	sel := mustSelect(t, "SELECT * FROM users")
	assert.True(t, sel.Star)
	assert.Empty(t, sel.Items)
}

func TestParseQuotedIdentifiers(t *testing.T) {
	sel := mustSelect(t, `SELECT "name" FROM "users" WHERE "id" = ?`)
	assert.Equal(t, &ColumnRef{Name: "name"}, sel.Items[0].Expr)
	assert.Equal(t, "users", sel.From)

	where := sel.Where.(*Binary)
	assert.Equal(t, &ColumnRef{Name: "id"}, where.Left)
}

func TestParseBracketIdentifiers(t *testing.T) {
	sel := mustSelect(t, "SELECT [name] FROM [users]")
	assert.Equal(t, &ColumnRef{Name: "name"}, sel.Items[0].Expr)
	assert.Equal(t, "users", sel.From)
}

func TestPlaceholderOrdinalsFollowLexicalOrder(t *testing.T) {
	sel := mustSelect(t, "SELECT * FROM t WHERE a = ? AND b IN (?, ?) LIMIT ?")

	var ordinals []int
	WalkExprs(sel, func(e Expr) {
		if ph, ok := e.(*Placeholder); ok {
			ordinals = append(ordinals, ph.Ordinal)
		}
	})
	assert.Equal(t, []int{1, 2, 3, 4}, ordinals)
	assert.Equal(t, 4, PlaceholderCount(sel))
}

func TestParseFuncCall(t *testing.T) {
	sel := mustSelect(t, "SELECT COUNT(*), SUM(DISTINCT age), MID(name, 1, 3) FROM t")

	count := sel.Items[0].Expr.(*FuncCall)
	assert.Equal(t, "COUNT", count.Name)
	assert.True(t, count.Star)

	sum := sel.Items[1].Expr.(*FuncCall)
	assert.True(t, sum.Distinct)
	require.Len(t, sum.Args, 1)

	mid := sel.Items[2].Expr.(*FuncCall)
	assert.Equal(t, "MID", mid.Name)
	require.Len(t, mid.Args, 3)
	assert.Equal(t, &ColumnRef{Name: "name"}, mid.Args[0])
}

func TestParseGroupByHaving(t *testing.T) {
	sel := mustSelect(t, "SELECT dept, COUNT(*) FROM t GROUP BY dept HAVING COUNT(*) > 1")
	require.Len(t, sel.GroupBy, 1)
	assert.Equal(t, &ColumnRef{Name: "dept"}, sel.GroupBy[0])
	require.NotNil(t, sel.Having)
}

func TestParsePredicateForms(t *testing.T) {
	sel := mustSelect(t, "SELECT * FROM t WHERE a IS NULL AND b IS NOT NULL AND c NOT IN (1, 2) AND d NOT LIKE 'x%'")

	and1 := sel.Where.(*Binary)
	assert.Equal(t, "AND", and1.Op)

	notLike, ok := and1.Right.(*Not)
	require.True(t, ok)
	like := notLike.Expr.(*Binary)
	assert.Equal(t, "LIKE", like.Op)
}

func TestParseInsertValues(t *testing.T) {
	stmt, err := Parse("INSERT INTO users (id, name) VALUES (?, ?), ('u2', 'Grace')")
	require.NoError(t, err)
	ins := stmt.(*InsertStatement)

	assert.Equal(t, "users", ins.Table)
	assert.Equal(t, []string{"id", "name"}, ins.Columns)
	require.Len(t, ins.Rows, 2)
	assert.Equal(t, &Placeholder{Ordinal: 1}, ins.Rows[0][0])
	assert.Equal(t, &Literal{Val: sqlval.String("u2")}, ins.Rows[1][0])
}

func TestParseInsertDocuments(t *testing.T) {
	stmt, err := Parse("INSERT INTO users DOCUMENTS (:doc1), (:doc2)")
	require.NoError(t, err)
	ins := stmt.(*InsertStatement)

	require.Len(t, ins.Docs, 2)
	assert.Equal(t, &NamedArg{Name: "doc1"}, ins.Docs[0])
}

func TestParseUpdate(t *testing.T) {
	stmt, err := Parse("UPDATE users SET name = ?, age = 30 WHERE id = ?")
	require.NoError(t, err)
	upd := stmt.(*UpdateStatement)

	require.Len(t, upd.Sets, 2)
	assert.Equal(t, "name", upd.Sets[0].Column)
	assert.Equal(t, &Placeholder{Ordinal: 1}, upd.Sets[0].Value)
	require.NotNil(t, upd.Where)
	assert.Equal(t, 2, PlaceholderCount(upd))
}

func TestParseDelete(t *testing.T) {
	stmt, err := Parse("DELETE FROM users WHERE age < ?")
	require.NoError(t, err)
	del := stmt.(*DeleteStatement)
	assert.Equal(t, "users", del.Table)
	require.NotNil(t, del.Where)
}

func TestParseCreateIndexVariants(t *testing.T) {
	stmt, err := Parse("CREATE UNIQUE INDEX IF NOT EXISTS i ON t (a.b, c)")
	require.NoError(t, err)
	idx := stmt.(*CreateIndexStatement)

	assert.True(t, idx.Unique)
	assert.True(t, idx.IfNotExists)
	assert.Equal(t, "i", idx.Name)
	assert.Equal(t, "t", idx.Table)
	assert.Equal(t, []string{"a.b", "c"}, idx.Columns)
	assert.False(t, idx.HasWhere)
}

func TestParseCreateIndexPartial(t *testing.T) {
	stmt, err := Parse("CREATE INDEX i ON t (a) WHERE a > 1")
	require.NoError(t, err)
	assert.True(t, stmt.(*CreateIndexStatement).HasWhere)
}

func TestParseCreateIndexRejectsFunctionColumn(t *testing.T) {
	_, err := Parse("CREATE INDEX i ON t (LOWER(a))")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, "function call")
}

func TestParseDropIndex(t *testing.T) {
	stmt, err := Parse("DROP INDEX IF EXISTS i")
	require.NoError(t, err)
	drop := stmt.(*DropIndexStatement)
	assert.True(t, drop.IfExists)
	assert.Equal(t, "i", drop.Name)
}

func TestParseUnsupportedConstructs(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		construct string
	}{
		{"inner join", "SELECT * FROM a INNER JOIN b ON a.x = b.x", "JOIN"},
		{"bare join", "SELECT * FROM a JOIN b ON a.x = b.x", "JOIN"},
		{"union", "SELECT a FROM t UNION SELECT a FROM u", "UNION"},
		{"subquery in from", "SELECT * FROM (SELECT a FROM t)", "subquery"},
		{"subquery in where", "SELECT * FROM t WHERE a = (SELECT b FROM u)", "subquery"},
		{"subquery in list", "SELECT * FROM t WHERE a IN (SELECT b FROM u)", "subquery"},
		{"between", "SELECT * FROM t WHERE a BETWEEN 1 AND 2", "BETWEEN"},
		{"create table", "CREATE TABLE t (a TEXT)", "CREATE TABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			var ue *UnsupportedError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.construct, ue.Construct)
		})
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		stmt string
	}{
		{"missing projection", "SELECT FROM users", "SELECT"},
		{"missing values", "INSERT INTO users (a)", "INSERT"},
		{"trailing garbage", "SELECT * FROM users extra", "SELECT"},
		{"empty", "  ", "SQL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.stmt, se.Stmt)
		})
	}
}

func TestParseTrailingSemicolon(t *testing.T) {
	_, err := Parse("SELECT * FROM users;")
	assert.NoError(t, err)
}

func TestLexStripsQuotes(t *testing.T) {
	toks, err := Lex(`SELECT "a", [b], 'c' FROM t`)
	require.NoError(t, err)

	var texts []string
	var types []TokenType
	for _, tok := range toks {
		if tok.Type == TokenEOF {
			break
		}
		texts = append(texts, tok.Text)
		types = append(types, tok.Type)
	}
	assert.Equal(t, []string{"SELECT", "a", ",", "b", ",", "c", "FROM", "t"}, texts)
	assert.Equal(t, TokenQuotedIdent, types[1])
	assert.Equal(t, TokenQuotedIdent, types[3])
	assert.Equal(t, TokenString, types[5])
}

func TestQualifiedColumnRef(t *testing.T) {
	sel := mustSelect(t, "SELECT u.name FROM u")
	ref := sel.Items[0].Expr.(*ColumnRef)
	assert.Equal(t, "u", ref.Qualifier)
	assert.Equal(t, "name", ref.Name)
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	sel := mustSelect(t, "select name from users where id = ? order by name")
	assert.Equal(t, "users", sel.From)
	require.Len(t, sel.OrderBy, 1)
}

func TestQuotedIdentifierIsNeverKeyword(t *testing.T) {
	// "where" in quotes is a column named where, not the WHERE clause.
	_, err := Parse(`SELECT "where" FROM t`)
	assert.NoError(t, err)
}

func TestErrorsImplementErrorInterface(t *testing.T) {
	_, err := Parse("CREATE TABLE t (a TEXT)")
	require.Error(t, err)
	var ue *UnsupportedError
	assert.True(t, errors.As(err, &ue))
	assert.NotEmpty(t, err.Error())
}
