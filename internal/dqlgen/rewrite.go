package dqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docshift/dqlbridge/internal/sqlparse"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// reservedColumn is the SQL-side name of the store's primary key field.
// The store reserves the underscored form; the rewrite is bidirectional
// (the result mapper undoes it) and idempotent.
const (
	reservedColumn = "id"
	storeColumn    = "_id"
)

// rewriteColumn applies the reserved-name rewrite to one column name.
// It is the single place the id→_id decision lives: it runs only on
// column references, never on function names or longer identifiers,
// which makes false positives like MID(...) structurally impossible.
func rewriteColumn(name string) string {
	if name == reservedColumn {
		return storeColumn
	}
	return name
}

// renderer writes translated DQL text. It carries no state beyond the
// output buffer; placeholder values are bound by the caller, which knows
// the ordinal↔parameter correspondence.
type renderer struct {
	b strings.Builder
}

func (r *renderer) writef(format string, args ...any) {
	fmt.Fprintf(&r.b, format, args...)
}

func (r *renderer) renderExpr(e sqlparse.Expr) error {
	switch x := e.(type) {
	case *sqlparse.ColumnRef:
		if x.Qualifier != "" {
			r.b.WriteString(x.Qualifier)
			r.b.WriteByte('.')
		}
		r.b.WriteString(rewriteColumn(x.Name))
		return nil

	case *sqlparse.Placeholder:
		r.b.WriteString(":arg")
		r.b.WriteString(strconv.Itoa(x.Ordinal))
		return nil

	case *sqlparse.NamedArg:
		r.b.WriteByte(':')
		r.b.WriteString(x.Name)
		return nil

	case *sqlparse.Literal:
		return r.renderLiteral(x.Val)

	case *sqlparse.Binary:
		if err := r.renderExpr(x.Left); err != nil {
			return err
		}
		r.b.WriteByte(' ')
		r.b.WriteString(x.Op)
		r.b.WriteByte(' ')
		return r.renderExpr(x.Right)

	case *sqlparse.Not:
		r.b.WriteString("NOT ")
		return r.renderExpr(x.Expr)

	case *sqlparse.Paren:
		r.b.WriteByte('(')
		if err := r.renderExpr(x.Expr); err != nil {
			return err
		}
		r.b.WriteByte(')')
		return nil

	case *sqlparse.IsNull:
		if err := r.renderExpr(x.Expr); err != nil {
			return err
		}
		if x.Negate {
			r.b.WriteString(" IS NOT NULL")
		} else {
			r.b.WriteString(" IS NULL")
		}
		return nil

	case *sqlparse.In:
		if err := r.renderExpr(x.Expr); err != nil {
			return err
		}
		if x.Negate {
			r.b.WriteString(" NOT IN (")
		} else {
			r.b.WriteString(" IN (")
		}
		for i, elem := range x.List {
			if i > 0 {
				r.b.WriteString(", ")
			}
			if err := r.renderExpr(elem); err != nil {
				return err
			}
		}
		r.b.WriteByte(')')
		return nil

	case *sqlparse.FuncCall:
		// Function calls pass through verbatim: the name is never a
		// column reference, only its arguments are rewritten.
		r.b.WriteString(x.Name)
		r.b.WriteByte('(')
		if x.Distinct {
			r.b.WriteString("DISTINCT ")
		}
		if x.Star {
			r.b.WriteByte('*')
		}
		for i, arg := range x.Args {
			if i > 0 {
				r.b.WriteString(", ")
			}
			if err := r.renderExpr(arg); err != nil {
				return err
			}
		}
		r.b.WriteByte(')')
		return nil

	default:
		return newMalformed(fmt.Sprintf("cannot render expression of type %T", e))
	}
}

func (r *renderer) renderLiteral(v sqlval.Value) error {
	switch val := v.(type) {
	case sqlval.Null:
		r.b.WriteString("NULL")
	case sqlval.Bool:
		if val {
			r.b.WriteString("TRUE")
		} else {
			r.b.WriteString("FALSE")
		}
	case sqlval.Int:
		r.b.WriteString(strconv.FormatInt(int64(val), 10))
	case sqlval.Float:
		r.b.WriteString(strconv.FormatFloat(float64(val), 'g', -1, 64))
	case sqlval.String:
		r.b.WriteByte('\'')
		r.b.WriteString(strings.ReplaceAll(string(val), "'", "''"))
		r.b.WriteByte('\'')
	default:
		return newMalformed(fmt.Sprintf("cannot render literal of type %T", v))
	}
	return nil
}
