package dqlgen

import "github.com/docshift/dqlbridge/internal/sqlparse"

// renderCreateIndex vets an index definition against what the target
// store offers and renders the accepted single-column form.
//
// Rejected variants each get their own diagnostic so callers can tell a
// permanent limitation from a typo: UNIQUE INDEX, composite (multi
// column) INDEX, and partial (WHERE-qualified) INDEX. Functional indexes
// never reach this point; the parser rejects them.
func renderCreateIndex(s *sqlparse.CreateIndexStatement) (*Result, error) {
	if s.Unique {
		return nil, newUnsupportedConstruct("UNIQUE INDEX", "the target store enforces uniqueness on _id only")
	}
	if len(s.Columns) > 1 {
		return nil, newUnsupportedConstruct("Composite INDEX", "create separate single-column indexes")
	}
	if s.HasWhere {
		return nil, newUnsupportedConstruct("Partial INDEX", "index the full collection and filter at query time")
	}
	if len(s.Columns) == 0 {
		return nil, newMalformed("Unable to parse CREATE INDEX statement: empty column list")
	}

	r := &renderer{}
	r.b.WriteString("CREATE INDEX ")
	if s.IfNotExists {
		r.b.WriteString("IF NOT EXISTS ")
	}
	r.writef("%s ON %s (", s.Name, s.Table)
	// Dotted field paths pass through verbatim; only the bare reserved
	// column is renamed.
	r.b.WriteString(rewriteColumn(s.Columns[0]))
	r.b.WriteByte(')')

	return &Result{Query: r.b.String()}, nil
}
