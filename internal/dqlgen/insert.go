package dqlgen

import (
	"fmt"
	"strconv"

	"github.com/docshift/dqlbridge/internal/sqlparse"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// buildInsert folds an INSERT's column list and VALUES tuples into
// document payloads and emits the DOCUMENTS form.
//
// One tuple produces INSERT INTO t DOCUMENTS (:doc) with args {doc: {...}}.
// N tuples produce (:doc1), ..., (:docN) with one document per name.
// The column named id becomes the store's _id field inside each document.
func buildInsert(s *sqlparse.InsertStatement, params []sqlval.Value) (*Result, error) {
	if len(s.Columns) == 0 || len(s.Rows) == 0 {
		return nil, newMalformed("Unable to parse INSERT statement: missing column or VALUES list")
	}

	docs := make([]sqlval.Object, 0, len(s.Rows))
	for rowIdx, row := range s.Rows {
		if len(row) != len(s.Columns) {
			return nil, newMalformed(fmt.Sprintf(
				"Unable to parse INSERT statement: VALUES tuple %d has %d values for %d columns",
				rowIdx+1, len(row), len(s.Columns)))
		}
		doc := make(sqlval.Object, len(row))
		for i, col := range s.Columns {
			val, err := insertValue(row[i], params)
			if err != nil {
				return nil, err
			}
			doc[rewriteColumn(col)] = val
		}
		docs = append(docs, doc)
	}

	args := sqlval.NewArgumentMap()
	r := &renderer{}
	r.writef("INSERT INTO %s DOCUMENTS ", s.Table)
	if len(docs) == 1 {
		r.b.WriteString("(:doc)")
		args.Set("doc", docs[0])
	} else {
		for i, doc := range docs {
			if i > 0 {
				r.b.WriteString(", ")
			}
			name := "doc" + strconv.Itoa(i+1)
			r.writef("(:%s)", name)
			args.Set(name, doc)
		}
	}

	return &Result{Query: r.b.String(), Args: args}, nil
}

// insertValue resolves one VALUES entry to a concrete value. Placeholders
// resolve through the parameter array; inline literals pass through as-is
// (null and undefined-equivalent values are accepted on the write side).
func insertValue(e sqlparse.Expr, params []sqlval.Value) (sqlval.Value, error) {
	switch x := e.(type) {
	case *sqlparse.Placeholder:
		// Arity was checked before dispatch; ordinals are 1-based.
		return params[x.Ordinal-1], nil
	case *sqlparse.Literal:
		return x.Val, nil
	default:
		return nil, newMalformed(fmt.Sprintf("Unable to parse INSERT statement: unsupported VALUES expression %T", e))
	}
}
