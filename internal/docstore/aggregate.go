package docstore

import (
	"sort"
	"strconv"
	"strings"

	"github.com/docshift/dqlbridge/internal/sqlparse"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// aggregateFuncs are the computed projections the store supports.
var aggregateFuncs = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

func isAggregateFunc(name string) bool {
	return aggregateFuncs[strings.ToUpper(name)]
}

func projectionHasAggregate(st *sqlparse.SelectStatement) bool {
	for _, item := range st.Items {
		if call, ok := item.Expr.(*sqlparse.FuncCall); ok && isAggregateFunc(call.Name) {
			return true
		}
	}
	return false
}

// executeAggregateSelect handles GROUP BY queries and ungrouped
// aggregate projections (a single implicit group over all rows).
//
// Each output document carries GROUP BY passthrough columns under their
// stored field names and every computed projection under the synthetic
// key ($k), where k is the projection item's 1-based position.
func executeAggregateSelect(st *sqlparse.SelectStatement, env *evalEnv, matched []sqlval.Object) ([]Result, error) {
	if st.Star {
		return nil, &StoreError{Code: ErrCodeBadQuery, Message: "SELECT * cannot be combined with aggregates"}
	}

	groups, err := groupDocs(st.GroupBy, env, matched)
	if err != nil {
		return nil, err
	}

	rows := make([]sqlval.Object, 0, len(groups))
	for _, g := range groups {
		genv := &evalEnv{args: env.args, group: g.docs}

		if st.Having != nil {
			keep, err := genv.matches(st.Having, g.rep)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}

		out := make(sqlval.Object, len(st.Items))
		for i, item := range st.Items {
			switch x := item.Expr.(type) {
			case *sqlparse.FuncCall:
				if !isAggregateFunc(x.Name) {
					return nil, &StoreError{Code: ErrCodeBadQuery, Message: "unknown function " + x.Name}
				}
				val, err := computeAggregate(genv, x)
				if err != nil {
					return nil, err
				}
				out[aggregateResultKey(i+1)] = val
			case *sqlparse.ColumnRef:
				key := x.Name
				if item.Alias != "" {
					key = item.Alias
				}
				val, err := genv.resolve(x, g.rep)
				if err != nil {
					return nil, err
				}
				if !isNull(val) {
					out[key] = val
				}
			default:
				return nil, &StoreError{Code: ErrCodeBadQuery, Message: "unsupported projection in aggregate query"}
			}
		}
		rows = append(rows, out)
	}

	if err := orderAggregateRows(st, rows); err != nil {
		return nil, err
	}
	rows, err = applyLimitOffset(st, env, rows)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(rows))
	for i, row := range rows {
		results[i] = Result{Value: row}
	}
	return results, nil
}

// orderAggregateRows sorts grouped output rows in place. Groups are
// already reduced to one document each, so ORDER BY items resolve
// against the output keys: passthrough columns under their projected
// name, aggregates under the ($k) key of the matching projection item.
func orderAggregateRows(st *sqlparse.SelectStatement, rows []sqlval.Object) error {
	if len(st.OrderBy) == 0 {
		return nil
	}
	keys := make([]string, len(st.OrderBy))
	for i, item := range st.OrderBy {
		key, err := aggregateOrderKey(st, item.Expr)
		if err != nil {
			return err
		}
		keys[i] = key
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for k, item := range st.OrderBy {
			c := orderedCompare(rowValue(rows[i], keys[k]), rowValue(rows[j], keys[k]))
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
	return nil
}

// aggregateOrderKey resolves one ORDER BY expression to an output row
// key. Anything not present in the projection is rejected rather than
// silently sorting on nothing.
func aggregateOrderKey(st *sqlparse.SelectStatement, e sqlparse.Expr) (string, error) {
	switch x := e.(type) {
	case *sqlparse.ColumnRef:
		for _, item := range st.Items {
			ref, ok := item.Expr.(*sqlparse.ColumnRef)
			if !ok {
				continue
			}
			key := ref.Name
			if item.Alias != "" {
				key = item.Alias
			}
			if x.Name == key || x.Name == ref.Name {
				return key, nil
			}
		}
		return "", &StoreError{Code: ErrCodeBadQuery, Message: "ORDER BY column " + x.Name + " is not projected by the aggregate query"}
	case *sqlparse.FuncCall:
		for i, item := range st.Items {
			if call, ok := item.Expr.(*sqlparse.FuncCall); ok && sameAggregateCall(x, call) {
				return aggregateResultKey(i + 1), nil
			}
		}
		return "", &StoreError{Code: ErrCodeBadQuery, Message: "ORDER BY aggregate does not match a projected aggregate"}
	default:
		return "", &StoreError{Code: ErrCodeBadQuery, Message: "unsupported ORDER BY expression in aggregate query"}
	}
}

// sameAggregateCall reports whether two aggregate calls denote the same
// computation: same function, same star/distinct form, same column
// arguments.
func sameAggregateCall(a, b *sqlparse.FuncCall) bool {
	if !strings.EqualFold(a.Name, b.Name) || a.Star != b.Star || a.Distinct != b.Distinct || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		ra, ok := a.Args[i].(*sqlparse.ColumnRef)
		rb, ok2 := b.Args[i].(*sqlparse.ColumnRef)
		if !ok || !ok2 || ra.Qualifier != rb.Qualifier || ra.Name != rb.Name {
			return false
		}
	}
	return true
}

// rowValue reads key from row, treating an omitted passthrough field as
// null so the ordering stays total.
func rowValue(row sqlval.Object, key string) sqlval.Value {
	if v, ok := row[key]; ok {
		return v
	}
	return sqlval.Null{}
}

// aggregateResultKey builds the synthetic document key for the k-th
// projection item: ($k).
func aggregateResultKey(k int) string {
	return "($" + strconv.Itoa(k) + ")"
}

type docGroup struct {
	rep  sqlval.Object // representative document for passthrough fields
	docs []sqlval.Object
}

// groupDocs partitions matched by the GROUP BY key values, preserving
// first-seen order. With no GROUP BY the result is one implicit group,
// present even when no rows matched so COUNT(*) yields a zero row.
func groupDocs(groupBy []sqlparse.Expr, env *evalEnv, matched []sqlval.Object) ([]docGroup, error) {
	if len(groupBy) == 0 {
		g := docGroup{rep: sqlval.Object{}, docs: matched}
		if g.docs == nil {
			g.docs = []sqlval.Object{}
		}
		return []docGroup{g}, nil
	}

	index := make(map[string]int)
	var groups []docGroup
	for _, doc := range matched {
		keyVals := make([]sqlval.Value, len(groupBy))
		for i, g := range groupBy {
			val, err := env.resolve(g, doc)
			if err != nil {
				return nil, err
			}
			keyVals[i] = val
		}
		keyBytes, err := sqlval.MarshalCanonical(keyVals)
		if err != nil {
			return nil, &StoreError{Code: ErrCodeBadQuery, Message: "cannot group on value: " + err.Error()}
		}
		key := string(keyBytes)
		if idx, ok := index[key]; ok {
			groups[idx].docs = append(groups[idx].docs, doc)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, docGroup{rep: doc, docs: []sqlval.Object{doc}})
	}
	return groups, nil
}

// computeAggregate evaluates one aggregate call over env.group.
func computeAggregate(env *evalEnv, call *sqlparse.FuncCall) (sqlval.Value, error) {
	name := strings.ToUpper(call.Name)

	if name == "COUNT" && call.Star {
		return sqlval.Int(len(env.group)), nil
	}
	if len(call.Args) != 1 {
		return nil, &StoreError{Code: ErrCodeBadQuery, Message: name + " requires exactly one argument"}
	}

	var vals []sqlval.Value
	seen := make(map[string]bool)
	for _, doc := range env.group {
		val, err := env.resolve(call.Args[0], doc)
		if err != nil {
			return nil, err
		}
		if isNull(val) {
			continue
		}
		if call.Distinct {
			keyBytes, err := sqlval.MarshalCanonical(val)
			if err != nil {
				return nil, &StoreError{Code: ErrCodeBadQuery, Message: "cannot compare value: " + err.Error()}
			}
			if seen[string(keyBytes)] {
				continue
			}
			seen[string(keyBytes)] = true
		}
		vals = append(vals, val)
	}

	switch name {
	case "COUNT":
		return sqlval.Int(len(vals)), nil
	case "SUM":
		return sumValues(vals)
	case "AVG":
		sum, err := sumValues(vals)
		if err != nil || isNull(sum) {
			return sum, err
		}
		var total float64
		switch s := sum.(type) {
		case sqlval.Int:
			total = float64(s)
		case sqlval.Float:
			total = float64(s)
		}
		return sqlval.Float(total / float64(len(vals))), nil
	case "MIN", "MAX":
		if len(vals) == 0 {
			return sqlval.Null{}, nil
		}
		best := vals[0]
		for _, v := range vals[1:] {
			c, ok := sqlval.Compare(v, best)
			if !ok {
				return nil, &StoreError{Code: ErrCodeBadQuery, Message: name + " over incomparable values"}
			}
			if (name == "MIN" && c < 0) || (name == "MAX" && c > 0) {
				best = v
			}
		}
		return best, nil
	default:
		return nil, &StoreError{Code: ErrCodeBadQuery, Message: "unknown aggregate " + name}
	}
}

// sumValues adds numeric values, staying integral when every input is
// an integer. Empty input sums to null, matching SQL.
func sumValues(vals []sqlval.Value) (sqlval.Value, error) {
	if len(vals) == 0 {
		return sqlval.Null{}, nil
	}
	allInt := true
	var intSum int64
	var floatSum float64
	for _, v := range vals {
		switch n := v.(type) {
		case sqlval.Int:
			intSum += int64(n)
			floatSum += float64(n)
		case sqlval.Float:
			allInt = false
			floatSum += float64(n)
		default:
			return nil, &StoreError{Code: ErrCodeBadQuery, Message: "SUM over non-numeric value"}
		}
	}
	if allInt {
		return sqlval.Int(intSum), nil
	}
	return sqlval.Float(floatSum), nil
}
