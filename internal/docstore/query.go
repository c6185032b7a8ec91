package docstore

import (
	"fmt"
	"sort"

	"github.com/docshift/dqlbridge/internal/sqlparse"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

func (s *Store) executeSelect(st *sqlparse.SelectStatement, env *evalEnv) ([]Result, error) {
	var matched []sqlval.Object
	for _, doc := range s.collections[st.From] {
		ok, err := env.matches(st.Where, doc)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, doc)
		}
	}

	if len(st.GroupBy) > 0 || projectionHasAggregate(st) {
		return executeAggregateSelect(st, env, matched)
	}

	if err := orderDocs(st.OrderBy, env, matched); err != nil {
		return nil, err
	}
	matched, err := applyLimitOffset(st, env, matched)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(matched))
	for _, doc := range matched {
		projected, err := projectDoc(st, env, doc)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{Value: projected})
	}
	return results, nil
}

func projectDoc(st *sqlparse.SelectStatement, env *evalEnv, doc sqlval.Object) (sqlval.Object, error) {
	if st.Star {
		return cloneDoc(doc), nil
	}
	out := make(sqlval.Object, len(st.Items))
	for _, item := range st.Items {
		ref, ok := item.Expr.(*sqlparse.ColumnRef)
		if !ok {
			return nil, &StoreError{Code: ErrCodeBadQuery, Message: fmt.Sprintf("non-column projection %T outside an aggregate query", item.Expr)}
		}
		key := ref.Name
		if item.Alias != "" {
			key = item.Alias
		}
		val, err := env.resolve(item.Expr, doc)
		if err != nil {
			return nil, err
		}
		if !isNull(val) {
			out[key] = val
		}
	}
	return out, nil
}

// orderDocs sorts matched in place by the ORDER BY items. Values that
// do not compare (null, cross-kind) sort before comparable ones, which
// keeps the ordering total and deterministic.
func orderDocs(orderBy []sqlparse.OrderItem, env *evalEnv, docs []sqlval.Object) error {
	if len(orderBy) == 0 {
		return nil
	}
	var sortErr error
	sort.SliceStable(docs, func(i, j int) bool {
		for _, item := range orderBy {
			vi, err := env.resolve(item.Expr, docs[i])
			if err != nil {
				sortErr = err
				return false
			}
			vj, err := env.resolve(item.Expr, docs[j])
			if err != nil {
				sortErr = err
				return false
			}
			c := orderedCompare(vi, vj)
			if c == 0 {
				continue
			}
			if item.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return sortErr
}

// orderedCompare extends sqlval.Compare to a total order for sorting:
// nulls first, then incomparable kinds by kind name.
func orderedCompare(a, b sqlval.Value) int {
	if c, ok := sqlval.Compare(a, b); ok {
		return c
	}
	ra, rb := orderRank(a), orderRank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

func orderRank(v sqlval.Value) int {
	switch v.(type) {
	case sqlval.Null:
		return 0
	case sqlval.Bool:
		return 1
	case sqlval.Int, sqlval.Float:
		return 2
	case sqlval.String:
		return 3
	default:
		return 4
	}
}

func applyLimitOffset(st *sqlparse.SelectStatement, env *evalEnv, docs []sqlval.Object) ([]sqlval.Object, error) {
	if st.Offset != nil {
		n, err := scalarInt(st.Offset, env, "OFFSET")
		if err != nil {
			return nil, err
		}
		if n >= len(docs) {
			docs = nil
		} else if n > 0 {
			docs = docs[n:]
		}
	}
	if st.Limit != nil {
		n, err := scalarInt(st.Limit, env, "LIMIT")
		if err != nil {
			return nil, err
		}
		if n < len(docs) {
			docs = docs[:n]
		}
	}
	return docs, nil
}

func scalarInt(e sqlparse.Expr, env *evalEnv, clause string) (int, error) {
	val, err := env.resolve(e, nil)
	if err != nil {
		return 0, err
	}
	n, ok := val.(sqlval.Int)
	if !ok || n < 0 {
		return 0, &StoreError{Code: ErrCodeBadQuery, Message: clause + " requires a non-negative integer"}
	}
	return int(n), nil
}
