package harness

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/docshift/dqlbridge/internal/docstore"
	"github.com/docshift/dqlbridge/internal/dqlgen"
	"github.com/docshift/dqlbridge/internal/rowmap"
	"github.com/docshift/dqlbridge/internal/sqlparse"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// RunDifferential executes every runnable corpus case twice, once
// against the in-memory document store through the translated query and
// once against SQLite through the original SQL, and reports any
// behavioral drift between the two. Cases expecting a translation error
// are skipped; they have nothing to execute.
//
// Each case runs on freshly seeded state so earlier writes cannot leak
// into later comparisons.
func RunDifferential(ctx context.Context, corpus *Corpus) error {
	translator := dqlgen.NewTranslator()
	for _, c := range corpus.Cases {
		if c.Expect != nil && (c.Expect.ErrorCode != "" || c.Expect.ErrorContains != "") {
			continue
		}
		if err := runDifferentialCase(ctx, translator, corpus, c); err != nil {
			return fmt.Errorf("case %q: %w", c.Name, err)
		}
	}
	return nil
}

func runDifferentialCase(ctx context.Context, translator *dqlgen.Translator, corpus *Corpus, c Case) error {
	stmt, err := sqlparse.Parse(c.SQL)
	if err != nil {
		return fmt.Errorf("parse source statement: %w", err)
	}
	params, err := sqlval.FromAnySlice(c.Params)
	if err != nil {
		return fmt.Errorf("convert params: %w", err)
	}
	translated, err := translator.Translate(c.SQL, params)
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}

	store, db, err := seedCase(corpus)
	if err != nil {
		return err
	}
	defer db.Close()

	sqlParams := make([]any, len(params))
	for i, p := range params {
		sqlParams[i] = sqlval.ToAny(p)
	}

	if sel, ok := stmt.(*sqlparse.SelectStatement); ok {
		return diffSelect(ctx, store, db, corpus, c, sel, translated, sqlParams)
	}
	return diffWrite(ctx, store, db, corpus, stmt, c, translated, sqlParams)
}

// diffSelect compares result rows. Both sides produce one value vector
// per row, positionally aligned with the case's field list; comparison
// is order-sensitive only when the statement carries an ORDER BY.
func diffSelect(ctx context.Context, store *docstore.Store, db *sql.DB, corpus *Corpus, c Case, sel *sqlparse.SelectStatement, translated *dqlgen.Result, sqlParams []any) error {
	fields, err := resultFields(corpus, c, sel)
	if err != nil {
		return err
	}

	results, err := store.Execute(ctx, translated.Query, translated.Args)
	if err != nil {
		return fmt.Errorf("document store: %w", err)
	}
	docs := make([]sqlval.Object, len(results))
	for i, r := range results {
		docs[i] = r.Value
	}
	mapped := rowmap.MapDocuments(docs, fields)
	storeRows := make([][]sqlval.Value, len(mapped))
	for i, doc := range mapped {
		row := make([]sqlval.Value, len(fields))
		for j, f := range fields {
			if v, ok := doc[f]; ok {
				row[j] = v
			} else {
				row[j] = sqlval.Null{}
			}
		}
		storeRows[i] = row
	}

	sqliteRows, err := querySQLite(ctx, db, c.SQL, sqlParams)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	return compareRows(storeRows, sqliteRows, len(sel.OrderBy) > 0)
}

// diffWrite executes the statement on both sides and compares the full
// state of the target table afterwards. CREATE INDEX has no observable
// table state to compare; executing without error on both sides is the
// whole check.
func diffWrite(ctx context.Context, store *docstore.Store, db *sql.DB, corpus *Corpus, stmt sqlparse.Statement, c Case, translated *dqlgen.Result, sqlParams []any) error {
	if _, err := store.Execute(ctx, translated.Query, translated.Args); err != nil {
		return fmt.Errorf("document store: %w", err)
	}
	if _, err := db.ExecContext(ctx, c.SQL, sqlParams...); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	var tableName string
	switch st := stmt.(type) {
	case *sqlparse.InsertStatement:
		tableName = st.Table
	case *sqlparse.UpdateStatement:
		tableName = st.Table
	case *sqlparse.DeleteStatement:
		tableName = st.Table
	case *sqlparse.CreateIndexStatement:
		return nil
	default:
		return fmt.Errorf("cannot diff statement %T", stmt)
	}

	table, err := findTable(corpus, tableName)
	if err != nil {
		return err
	}
	return compareTableState(ctx, store, db, table)
}

func compareTableState(ctx context.Context, store *docstore.Store, db *sql.DB, table Table) error {
	mapped := rowmap.MapDocuments(store.Collection(table.Name), table.Columns)
	storeRows := make([][]sqlval.Value, len(mapped))
	for i, doc := range mapped {
		row := make([]sqlval.Value, len(table.Columns))
		for j, col := range table.Columns {
			if v, ok := doc[col]; ok {
				row[j] = v
			} else {
				row[j] = sqlval.Null{}
			}
		}
		storeRows[i] = row
	}

	query := "SELECT " + strings.Join(table.Columns, ", ") + " FROM " + table.Name
	sqliteRows, err := querySQLite(ctx, db, query, nil)
	if err != nil {
		return fmt.Errorf("sqlite table state: %w", err)
	}
	if err := compareRows(storeRows, sqliteRows, false); err != nil {
		return fmt.Errorf("table %s diverged: %w", table.Name, err)
	}
	return nil
}

// resultFields resolves the positional field list a SELECT's rows map
// to: the case's explicit list, the table's columns for SELECT *, or
// the projection's column names and aliases.
func resultFields(corpus *Corpus, c Case, sel *sqlparse.SelectStatement) ([]string, error) {
	if len(c.Fields) > 0 {
		return c.Fields, nil
	}
	if sel.Star {
		table, err := findTable(corpus, sel.From)
		if err != nil {
			return nil, err
		}
		return table.Columns, nil
	}
	fields := make([]string, len(sel.Items))
	for i, item := range sel.Items {
		switch {
		case item.Alias != "":
			fields[i] = item.Alias
		default:
			col, ok := item.Expr.(*sqlparse.ColumnRef)
			if !ok {
				return nil, fmt.Errorf("projection item %d needs an explicit fields list", i+1)
			}
			fields[i] = col.Name
		}
	}
	return fields, nil
}

func findTable(corpus *Corpus, name string) (Table, error) {
	for _, table := range corpus.Tables {
		if table.Name == name {
			return table, nil
		}
	}
	return Table{}, fmt.Errorf("no seed table named %s", name)
}

// seedCase builds a fresh document store and a fresh in-memory SQLite
// database loaded with the corpus's seed tables. SQLite tables are
// created without column types; its flexible typing keeps seed values
// as inserted, matching the store's untyped documents.
func seedCase(corpus *Corpus) (*docstore.Store, *sql.DB, error) {
	store, err := SeedStore(corpus)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	for _, table := range corpus.Tables {
		create := "CREATE TABLE " + table.Name + " (" + strings.Join(table.Columns, ", ") + ")"
		if _, err := db.Exec(create); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("create sqlite table %s: %w", table.Name, err)
		}
		placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(table.Columns)), ", ") + ")"
		insert := "INSERT INTO " + table.Name + " (" + strings.Join(table.Columns, ", ") + ") VALUES " + placeholders
		for ri, row := range table.Rows {
			if _, err := db.Exec(insert, row...); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("seed sqlite table %s row %d: %w", table.Name, ri+1, err)
			}
		}
	}
	return store, db, nil
}

func querySQLite(ctx context.Context, db *sql.DB, query string, params []any) ([][]sqlval.Value, error) {
	rows, err := db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out [][]sqlval.Value
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]sqlval.Value, len(cols))
		for i, v := range raw {
			val, err := sqlval.FromAny(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", cols[i], err)
			}
			row[i] = val
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// compareRows checks that both sides produced the same rows. Booleans
// normalize to integers first; SQLite has no boolean storage class.
func compareRows(storeRows, sqliteRows [][]sqlval.Value, ordered bool) error {
	if len(storeRows) != len(sqliteRows) {
		return fmt.Errorf("row count: document store %d, sqlite %d", len(storeRows), len(sqliteRows))
	}
	if ordered {
		for i := range storeRows {
			if !rowsEqual(storeRows[i], sqliteRows[i]) {
				return fmt.Errorf("row %d: document store %v, sqlite %v", i, storeRows[i], sqliteRows[i])
			}
		}
		return nil
	}

	storeKeys, err := rowKeys(storeRows)
	if err != nil {
		return err
	}
	sqliteKeys, err := rowKeys(sqliteRows)
	if err != nil {
		return err
	}
	for i := range storeKeys {
		if storeKeys[i] != sqliteKeys[i] {
			return fmt.Errorf("result multisets differ: document store has %s, sqlite has %s", storeKeys[i], sqliteKeys[i])
		}
	}
	return nil
}

func rowsEqual(a, b []sqlval.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sqlval.Equal(normalizeValue(a[i]), normalizeValue(b[i])) {
			return false
		}
	}
	return true
}

func rowKeys(rows [][]sqlval.Value) ([]string, error) {
	keys := make([]string, len(rows))
	for i, row := range rows {
		normalized := make([]sqlval.Value, len(row))
		for j, v := range row {
			normalized[j] = normalizeValue(v)
		}
		key, err := sqlval.MarshalCanonical(normalized)
		if err != nil {
			return nil, err
		}
		keys[i] = string(key)
	}
	sort.Strings(keys)
	return keys, nil
}

func normalizeValue(v sqlval.Value) sqlval.Value {
	if b, ok := v.(sqlval.Bool); ok {
		if b {
			return sqlval.Int(1)
		}
		return sqlval.Int(0)
	}
	return v
}
