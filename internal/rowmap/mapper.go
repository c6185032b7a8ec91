// Package rowmap maps result documents returned by the store back into
// SQL-shaped rows, undoing the identifier and aggregate-key rewrites the
// translator applied on the way in.
package rowmap

import (
	"strconv"
	"strings"

	"github.com/docshift/dqlbridge/internal/sqlval"
)

// MapDocument converts one result document into a row keyed by the
// caller's expected SQL field names.
//
// fields is the caller's ordered field list; it may be nil when
// the query had no explicit projection (SELECT *).
//
// Plain documents are copied field for field, renaming _id back to id
// unless the caller explicitly selected _id. Documents carrying synthetic
// aggregate keys of the form ($k) are un-mapped positionally: each
// requested field not present as a plain key binds to ($k) where k is the
// field's 1-based position in fields. A requested field absent from the
// document is simply omitted from the row rather than failing, mirroring
// the permissive policy on the write side.
func MapDocument(doc sqlval.Object, fields []string) sqlval.Object {
	if doc == nil {
		return nil
	}
	if !hasAggregateKeys(doc) {
		return mapPlain(doc, fields)
	}
	return mapAggregate(doc, fields)
}

// MapDocuments maps a result list, preserving the store's order.
func MapDocuments(docs []sqlval.Object, fields []string) []sqlval.Object {
	rows := make([]sqlval.Object, len(docs))
	for i, doc := range docs {
		rows[i] = MapDocument(doc, fields)
	}
	return rows
}

func mapPlain(doc sqlval.Object, fields []string) sqlval.Object {
	row := make(sqlval.Object, len(doc))
	for key, val := range doc {
		if key == "_id" && !explicitlySelected(fields, "_id") {
			row["id"] = val
			continue
		}
		row[key] = val
	}
	return row
}

func mapAggregate(doc sqlval.Object, fields []string) sqlval.Object {
	row := make(sqlval.Object, len(fields))
	for i, field := range fields {
		// GROUP BY passthrough columns are present under their own name.
		if val, ok := doc[field]; ok {
			row[field] = val
			continue
		}
		if field == "id" {
			if val, ok := doc["_id"]; ok {
				row[field] = val
				continue
			}
		}
		// Aggregate positions resolve by requested-field ordinal, not by
		// document key order.
		if val, ok := doc[aggregateKey(i+1)]; ok {
			row[field] = val
		}
	}
	return row
}

// aggregateKey builds the store's synthetic key for the k-th requested
// field (1-based): ($k).
func aggregateKey(k int) string {
	return "($" + strconv.Itoa(k) + ")"
}

// hasAggregateKeys reports whether the document carries any synthetic
// aggregate key.
func hasAggregateKeys(doc sqlval.Object) bool {
	for key := range doc {
		if isAggregateKey(key) {
			return true
		}
	}
	return false
}

func isAggregateKey(key string) bool {
	if !strings.HasPrefix(key, "($") || !strings.HasSuffix(key, ")") {
		return false
	}
	digits := key[2 : len(key)-1]
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func explicitlySelected(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
