// Package docstore is an in-memory reference implementation of the
// document store the translator targets. It executes the DQL subset the
// translator emits - SELECT with grouping and aggregates, INSERT with the
// DOCUMENTS clause, UPDATE, DELETE-as-eviction, and single-column
// CREATE INDEX - so the translate→execute→map round trip can be
// exercised end to end without a live store.
//
// Result documents reproduce the real store's conventions: the primary
// key lives in _id, and computed projections surface under synthetic
// ($k) aggregate keys.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/docshift/dqlbridge/internal/sqlparse"
	"github.com/docshift/dqlbridge/internal/sqlval"
)

// ErrorCode categorizes store failures.
type ErrorCode string

const (
	// ErrCodeDuplicateKey indicates an insert collided on _id.
	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"

	// ErrCodeBadQuery indicates query text the store cannot execute.
	ErrCodeBadQuery ErrorCode = "BAD_QUERY"

	// ErrCodeUnknownArgument indicates a :name reference with no binding.
	ErrCodeUnknownArgument ErrorCode = "UNKNOWN_ARGUMENT"
)

// StoreError is a failure raised by the store itself. The translator
// never interprets or swallows these; they propagate to the caller.
type StoreError struct {
	Code    ErrorCode
	Message string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDuplicateKey reports whether err is an _id conflict.
func IsDuplicateKey(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Code == ErrCodeDuplicateKey
}

// Result wraps one result document, matching the store wire shape of
// a list of {value: document} items.
type Result struct {
	Value sqlval.Object
}

type indexDef struct {
	Collection string
	Field      string
}

// Store holds collections of documents. All access is guarded by a
// single lock; the reference store favors simplicity over throughput.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]sqlval.Object
	indexes     map[string]indexDef
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		collections: make(map[string][]sqlval.Object),
		indexes:     make(map[string]indexDef),
	}
}

// Seed inserts documents into a collection without going through DQL.
// Documents missing an _id get one generated. Intended for test setup.
func (s *Store) Seed(collection string, docs []sqlval.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		if err := s.insertLocked(collection, doc); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs one DQL statement. The query text is parsed with the
// same grammar the translator uses; named arguments resolve through
// args. SELECT returns the matching documents; writes return nil.
func (s *Store) Execute(ctx context.Context, query string, args *sqlval.ArgumentMap) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stmt, err := sqlparse.Parse(query)
	if err != nil {
		return nil, &StoreError{Code: ErrCodeBadQuery, Message: err.Error()}
	}

	env := &evalEnv{args: args}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch st := stmt.(type) {
	case *sqlparse.SelectStatement:
		return s.executeSelect(st, env)
	case *sqlparse.InsertStatement:
		return nil, s.executeInsert(st, env)
	case *sqlparse.UpdateStatement:
		return nil, s.executeUpdate(st, env)
	case *sqlparse.DeleteStatement:
		return nil, s.executeDelete(st, env)
	case *sqlparse.CreateIndexStatement:
		return nil, s.executeCreateIndex(st)
	default:
		return nil, &StoreError{Code: ErrCodeBadQuery, Message: fmt.Sprintf("statement type %T not executable", stmt)}
	}
}

// Collection returns a copy of the named collection's documents, in
// insertion order. Intended for test assertions.
func (s *Store) Collection(name string) []sqlval.Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.collections[name]
	out := make([]sqlval.Object, len(docs))
	for i, doc := range docs {
		out[i] = cloneDoc(doc)
	}
	return out
}

func (s *Store) executeInsert(st *sqlparse.InsertStatement, env *evalEnv) error {
	if len(st.Docs) == 0 {
		return &StoreError{Code: ErrCodeBadQuery, Message: "INSERT requires a DOCUMENTS clause"}
	}
	for _, docExpr := range st.Docs {
		na, ok := docExpr.(*sqlparse.NamedArg)
		if !ok {
			return &StoreError{Code: ErrCodeBadQuery, Message: "DOCUMENTS entries must be named placeholders"}
		}
		if env.args == nil {
			return &StoreError{Code: ErrCodeUnknownArgument, Message: "no binding for :" + na.Name}
		}
		val, ok := env.args.Get(na.Name)
		if !ok {
			return &StoreError{Code: ErrCodeUnknownArgument, Message: "no binding for :" + na.Name}
		}
		doc, ok := val.(sqlval.Object)
		if !ok {
			return &StoreError{Code: ErrCodeBadQuery, Message: "document payload :" + na.Name + " is not an object"}
		}
		if err := s.insertLocked(st.Table, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertLocked(collection string, doc sqlval.Object) error {
	stored := cloneDoc(doc)
	id, ok := stored["_id"]
	if !ok || isNull(id) {
		stored["_id"] = sqlval.String(uuid.NewString())
	} else {
		for _, existing := range s.collections[collection] {
			if sqlval.Equal(existing["_id"], stored["_id"]) {
				return &StoreError{
					Code:    ErrCodeDuplicateKey,
					Message: fmt.Sprintf("document with _id %s already exists in %s", sqlval.GoString(stored["_id"]), collection),
				}
			}
		}
	}
	s.collections[collection] = append(s.collections[collection], stored)
	return nil
}

func (s *Store) executeUpdate(st *sqlparse.UpdateStatement, env *evalEnv) error {
	docs := s.collections[st.Table]
	for _, doc := range docs {
		match, err := env.matches(st.Where, doc)
		if err != nil {
			return err
		}
		if !match {
			continue
		}
		for _, set := range st.Sets {
			val, err := env.resolve(set.Value, doc)
			if err != nil {
				return err
			}
			doc[set.Column] = val
		}
	}
	return nil
}

func (s *Store) executeDelete(st *sqlparse.DeleteStatement, env *evalEnv) error {
	docs := s.collections[st.Table]
	kept := docs[:0]
	for _, doc := range docs {
		match, err := env.matches(st.Where, doc)
		if err != nil {
			return err
		}
		if !match {
			kept = append(kept, doc)
		}
	}
	s.collections[st.Table] = kept
	return nil
}

func (s *Store) executeCreateIndex(st *sqlparse.CreateIndexStatement) error {
	if len(st.Columns) != 1 {
		return &StoreError{Code: ErrCodeBadQuery, Message: "only single-column indexes are supported"}
	}
	if _, exists := s.indexes[st.Name]; exists {
		if st.IfNotExists {
			return nil
		}
		return &StoreError{Code: ErrCodeBadQuery, Message: "index " + st.Name + " already exists"}
	}
	s.indexes[st.Name] = indexDef{Collection: st.Table, Field: st.Columns[0]}
	return nil
}

func cloneDoc(doc sqlval.Object) sqlval.Object {
	out := make(sqlval.Object, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func isNull(v sqlval.Value) bool {
	_, ok := v.(sqlval.Null)
	return ok
}
