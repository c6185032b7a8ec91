package docstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/docshift/dqlbridge/internal/sqlparse"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// evalEnv resolves expressions against one document plus the statement's
// named arguments. For HAVING evaluation, group holds the documents of
// the current group so aggregate calls can resolve to values.
type evalEnv struct {
	args  *sqlval.ArgumentMap
	group []sqlval.Object
}

// resolve evaluates a scalar expression against doc.
// A missing document field resolves to null.
func (env *evalEnv) resolve(e sqlparse.Expr, doc sqlval.Object) (sqlval.Value, error) {
	switch x := e.(type) {
	case *sqlparse.ColumnRef:
		if val, ok := doc[x.Name]; ok {
			return val, nil
		}
		return sqlval.Null{}, nil
	case *sqlparse.NamedArg:
		if env.args != nil {
			if val, ok := env.args.Get(x.Name); ok {
				return val, nil
			}
		}
		return nil, &StoreError{Code: ErrCodeUnknownArgument, Message: "no binding for :" + x.Name}
	case *sqlparse.Literal:
		return x.Val, nil
	case *sqlparse.Paren:
		return env.resolve(x.Expr, doc)
	case *sqlparse.FuncCall:
		if env.group != nil && isAggregateFunc(x.Name) {
			return computeAggregate(env, x)
		}
		return nil, &StoreError{Code: ErrCodeBadQuery, Message: "unknown function " + x.Name}
	case *sqlparse.Placeholder:
		return nil, &StoreError{Code: ErrCodeBadQuery, Message: "positional placeholder reached the store untranslated"}
	default:
		return nil, &StoreError{Code: ErrCodeBadQuery, Message: fmt.Sprintf("cannot evaluate expression %T", e)}
	}
}

// matches evaluates a predicate expression against doc.
// A nil predicate matches everything.
func (env *evalEnv) matches(e sqlparse.Expr, doc sqlval.Object) (bool, error) {
	if e == nil {
		return true, nil
	}
	switch x := e.(type) {
	case *sqlparse.Binary:
		switch x.Op {
		case "AND":
			left, err := env.matches(x.Left, doc)
			if err != nil || !left {
				return false, err
			}
			return env.matches(x.Right, doc)
		case "OR":
			left, err := env.matches(x.Left, doc)
			if err != nil || left {
				return left, err
			}
			return env.matches(x.Right, doc)
		default:
			return env.compare(x, doc)
		}
	case *sqlparse.Not:
		inner, err := env.matches(x.Expr, doc)
		return !inner, err
	case *sqlparse.Paren:
		return env.matches(x.Expr, doc)
	case *sqlparse.IsNull:
		val, err := env.resolve(x.Expr, doc)
		if err != nil {
			return false, err
		}
		return isNull(val) != x.Negate, nil
	case *sqlparse.In:
		val, err := env.resolve(x.Expr, doc)
		if err != nil {
			return false, err
		}
		for _, elem := range x.List {
			ev, err := env.resolve(elem, doc)
			if err != nil {
				return false, err
			}
			if sqlval.Equal(val, ev) {
				return !x.Negate, nil
			}
		}
		return x.Negate, nil
	case *sqlparse.Literal:
		b, ok := x.Val.(sqlval.Bool)
		return ok && bool(b), nil
	default:
		return false, &StoreError{Code: ErrCodeBadQuery, Message: fmt.Sprintf("cannot evaluate predicate %T", e)}
	}
}

func (env *evalEnv) compare(b *sqlparse.Binary, doc sqlval.Object) (bool, error) {
	left, err := env.resolve(b.Left, doc)
	if err != nil {
		return false, err
	}
	right, err := env.resolve(b.Right, doc)
	if err != nil {
		return false, err
	}

	switch b.Op {
	case "=":
		return sqlval.Equal(left, right), nil
	case "<>", "!=":
		// NULL never equals and never differs; comparisons with NULL
		// are false either way.
		if isNull(left) || isNull(right) {
			return false, nil
		}
		return !sqlval.Equal(left, right), nil
	case "<", "<=", ">", ">=":
		c, ok := sqlval.Compare(left, right)
		if !ok {
			return false, nil
		}
		switch b.Op {
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case "LIKE":
		ls, lok := left.(sqlval.String)
		rs, rok := right.(sqlval.String)
		if !lok || !rok {
			return false, nil
		}
		return likeMatch(string(ls), string(rs)), nil
	default:
		return false, &StoreError{Code: ErrCodeBadQuery, Message: "unsupported operator " + b.Op}
	}
}

// likeMatch implements SQL LIKE: % matches any run, _ matches one
// character, everything else is literal. Matching is case-sensitive.
func likeMatch(s, pattern string) bool {
	var sb strings.Builder
	sb.WriteByte('^')
	for _, c := range pattern {
		switch c {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteByte('.')
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	sb.WriteByte('$')
	re, err := regexp.Compile("(?s)" + sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
