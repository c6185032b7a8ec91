package dqlgen

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/docshift/dqlbridge/internal/sqlparse"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// Result is one successful translation: the DQL query text plus the
// named arguments it references. Args is nil iff the statement has zero
// placeholders and is not an INSERT.
type Result struct {
	Query string
	Args  *sqlval.ArgumentMap
}

// Translator translates the query builder's SQL into DQL. It holds no
// state and is safe for concurrent use from multiple goroutines.
type Translator struct{}

// NewTranslator creates a Translator.
func NewTranslator() *Translator {
	return &Translator{}
}

// Translate converts one SQL statement and its ordered parameter list
// into DQL text plus named arguments.
//
// The pipeline: classify by leading keywords, parse to a typed AST,
// verify placeholder/parameter arity, then render with the identifier
// and placeholder rewrites applied. Failures are *TranslateError values
// distinguishing unsupported constructs from malformed input.
func (t *Translator) Translate(text string, params []sqlval.Value) (*Result, error) {
	stmt, err := sqlparse.Parse(text)
	if err != nil {
		return nil, mapParseError(err)
	}

	if name, found := findNamedArg(stmt); found {
		return nil, newMalformed(fmt.Sprintf("named placeholder :%s in SQL input; the query builder binds positionally", name))
	}

	n := sqlparse.PlaceholderCount(stmt)
	if n != len(params) {
		return nil, newArityMismatch(n, len(params))
	}

	switch s := stmt.(type) {
	case *sqlparse.SelectStatement:
		return renderSelect(s, params)
	case *sqlparse.InsertStatement:
		return buildInsert(s, params)
	case *sqlparse.UpdateStatement:
		return renderUpdate(s, params)
	case *sqlparse.DeleteStatement:
		return renderDelete(s, params)
	case *sqlparse.CreateIndexStatement:
		return renderCreateIndex(s)
	case *sqlparse.DropIndexStatement:
		return nil, newUnsupportedConstruct("DROP INDEX", "the target store does not support removing indexes")
	default:
		return nil, newMalformed(fmt.Sprintf("unhandled statement type %T", stmt))
	}
}

// mapParseError converts sqlparse errors into the translation taxonomy.
func mapParseError(err error) error {
	var ue *sqlparse.UnsupportedError
	if errors.As(err, &ue) {
		switch ue.Construct {
		case "JOIN":
			return newUnsupportedConstruct("JOIN", "fetch both sides separately and combine in the caller")
		case "UNION":
			return newUnsupportedConstruct("UNION", "run the queries separately and merge the results")
		case "subquery":
			return newUnsupportedConstruct("subquery", "run the inner query first and bind its result as a parameter")
		case "BETWEEN":
			return newUnsupportedConstruct("BETWEEN", "use >= and <= comparisons")
		default:
			return newUnsupportedOperation(ue.Construct)
		}
	}
	var se *sqlparse.SyntaxError
	if errors.As(err, &se) {
		return newMalformed(fmt.Sprintf("Unable to parse %s statement: %s", se.Stmt, se.Message))
	}
	return newMalformed(err.Error())
}

// findNamedArg reports the first :name placeholder in stmt, if any.
// Named placeholders belong to the DQL output surface, never the input.
func findNamedArg(stmt sqlparse.Statement) (string, bool) {
	if ins, ok := stmt.(*sqlparse.InsertStatement); ok && len(ins.Docs) > 0 {
		if na, ok := ins.Docs[0].(*sqlparse.NamedArg); ok {
			return na.Name, true
		}
	}
	name, found := "", false
	sqlparse.WalkExprs(stmt, func(e sqlparse.Expr) {
		if na, ok := e.(*sqlparse.NamedArg); ok && !found {
			name, found = na.Name, true
		}
	})
	return name, found
}

// positionalArgs binds arg1..argN to the parameters in placeholder order.
func positionalArgs(n int, params []sqlval.Value) *sqlval.ArgumentMap {
	if n == 0 {
		return nil
	}
	args := sqlval.NewArgumentMap()
	for k := 1; k <= n; k++ {
		args.Set("arg"+strconv.Itoa(k), params[k-1])
	}
	return args
}

func renderSelect(s *sqlparse.SelectStatement, params []sqlval.Value) (*Result, error) {
	r := &renderer{}
	r.b.WriteString("SELECT ")
	if s.Star {
		r.b.WriteByte('*')
	} else {
		for i, item := range s.Items {
			if i > 0 {
				r.b.WriteString(", ")
			}
			if err := r.renderExpr(item.Expr); err != nil {
				return nil, err
			}
			if item.Alias != "" {
				r.b.WriteString(" AS ")
				r.b.WriteString(item.Alias)
			}
		}
	}
	r.b.WriteString(" FROM ")
	r.b.WriteString(s.From)

	if s.Where != nil {
		r.b.WriteString(" WHERE ")
		if err := r.renderExpr(s.Where); err != nil {
			return nil, err
		}
	}
	if len(s.GroupBy) > 0 {
		r.b.WriteString(" GROUP BY ")
		for i, g := range s.GroupBy {
			if i > 0 {
				r.b.WriteString(", ")
			}
			if err := r.renderExpr(g); err != nil {
				return nil, err
			}
		}
	}
	if s.Having != nil {
		r.b.WriteString(" HAVING ")
		if err := r.renderExpr(s.Having); err != nil {
			return nil, err
		}
	}
	if len(s.OrderBy) > 0 {
		r.b.WriteString(" ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				r.b.WriteString(", ")
			}
			if err := r.renderExpr(o.Expr); err != nil {
				return nil, err
			}
			if o.Desc {
				r.b.WriteString(" DESC")
			}
		}
	}
	if s.Limit != nil {
		r.b.WriteString(" LIMIT ")
		if err := r.renderExpr(s.Limit); err != nil {
			return nil, err
		}
	}
	if s.Offset != nil {
		r.b.WriteString(" OFFSET ")
		if err := r.renderExpr(s.Offset); err != nil {
			return nil, err
		}
	}

	return &Result{Query: r.b.String(), Args: positionalArgs(sqlparse.PlaceholderCount(s), params)}, nil
}

func renderUpdate(s *sqlparse.UpdateStatement, params []sqlval.Value) (*Result, error) {
	r := &renderer{}
	r.b.WriteString("UPDATE ")
	r.b.WriteString(s.Table)
	r.b.WriteString(" SET ")
	for i, set := range s.Sets {
		if i > 0 {
			r.b.WriteString(", ")
		}
		// SET targets are not column references in rewrite terms: a
		// primary key is never reassigned, so the left side keeps its
		// SQL-facing name.
		r.b.WriteString(set.Column)
		r.b.WriteString(" = ")
		if err := r.renderExpr(set.Value); err != nil {
			return nil, err
		}
	}
	if s.Where != nil {
		r.b.WriteString(" WHERE ")
		if err := r.renderExpr(s.Where); err != nil {
			return nil, err
		}
	}
	return &Result{Query: r.b.String(), Args: positionalArgs(sqlparse.PlaceholderCount(s), params)}, nil
}

func renderDelete(s *sqlparse.DeleteStatement, params []sqlval.Value) (*Result, error) {
	// The target store models deletion as a WHERE-qualified eviction
	// with identical surface syntax, so the DELETE FROM form is kept.
	r := &renderer{}
	r.b.WriteString("DELETE FROM ")
	r.b.WriteString(s.Table)
	if s.Where != nil {
		r.b.WriteString(" WHERE ")
		if err := r.renderExpr(s.Where); err != nil {
			return nil, err
		}
	}
	return &Result{Query: r.b.String(), Args: positionalArgs(sqlparse.PlaceholderCount(s), params)}, nil
}
