package harness

import (
	"context"
	"fmt"

	"github.com/docshift/dqlbridge/internal/docstore"
	"github.com/docshift/dqlbridge/internal/dqlgen"
	"github.com/docshift/dqlbridge/internal/rowmap"
	"github.com/docshift/dqlbridge/internal/sqlparse"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// SeedStore builds a document store loaded with the corpus's seed
// tables. The id column lands in _id; null cells become absent fields.
func SeedStore(corpus *Corpus) (*docstore.Store, error) {
	store := docstore.New()
	for _, table := range corpus.Tables {
		docs := make([]sqlval.Object, 0, len(table.Rows))
		for ri, row := range table.Rows {
			if len(row) != len(table.Columns) {
				return nil, fmt.Errorf("table %s row %d: %d values for %d columns", table.Name, ri+1, len(row), len(table.Columns))
			}
			doc := make(sqlval.Object, len(row))
			for i, col := range table.Columns {
				val, err := sqlval.FromAny(row[i])
				if err != nil {
					return nil, fmt.Errorf("table %s row %d column %s: %w", table.Name, ri+1, col, err)
				}
				if _, null := val.(sqlval.Null); null {
					continue
				}
				name := col
				if col == "id" {
					name = "_id"
				}
				doc[name] = val
			}
			docs = append(docs, doc)
		}
		if err := store.Seed(table.Name, docs); err != nil {
			return nil, fmt.Errorf("seed table %s: %w", table.Name, err)
		}
	}
	return store, nil
}

// ExecuteCase translates one case and runs it against store. SELECT
// statements return the result documents mapped back to SQL-facing
// field names; writes return nil documents.
func ExecuteCase(ctx context.Context, store *docstore.Store, corpus *Corpus, c Case) ([]sqlval.Object, error) {
	stmt, err := sqlparse.Parse(c.SQL)
	if err != nil {
		return nil, err
	}
	params, err := sqlval.FromAnySlice(c.Params)
	if err != nil {
		return nil, err
	}
	translated, err := dqlgen.NewTranslator().Translate(c.SQL, params)
	if err != nil {
		return nil, err
	}

	results, err := store.Execute(ctx, translated.Query, translated.Args)
	if err != nil {
		return nil, err
	}

	sel, ok := stmt.(*sqlparse.SelectStatement)
	if !ok {
		return nil, nil
	}
	fields, err := resultFields(corpus, c, sel)
	if err != nil {
		return nil, err
	}
	docs := make([]sqlval.Object, len(results))
	for i, r := range results {
		docs[i] = r.Value
	}
	return rowmap.MapDocuments(docs, fields), nil
}
