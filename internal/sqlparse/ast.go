package sqlparse

import "github.com/docshift/dqlbridge/internal/sqlval"

// Statement is a sealed interface over the parsed statement shapes.
// Only types in this package implement it; the marker method enables
// exhaustive type switches in the translator and the reference store.
type Statement interface {
	stmtNode()
}

// Expr is a sealed interface over expression nodes.
type Expr interface {
	exprNode()
}

// SelectStatement represents SELECT ... FROM ... with the optional
// WHERE / GROUP BY / HAVING / ORDER BY / LIMIT / OFFSET tail.
type SelectStatement struct {
	Star    bool         // SELECT *
	Items   []SelectItem // projection list when Star is false
	From    string
	Where   Expr // nil when absent
	GroupBy []Expr
	Having  Expr
	OrderBy []OrderItem
	Limit   Expr // number literal or placeholder, nil when absent
	Offset  Expr
}

func (*SelectStatement) stmtNode() {}

// SelectItem is one projection entry, optionally aliased.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// OrderItem is one ORDER BY entry.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// InsertStatement represents both accepted insert surfaces:
// the SQL form INSERT INTO t (cols...) VALUES (...), (...) and the
// DQL form INSERT INTO t DOCUMENTS (:doc1), (:doc2).
type InsertStatement struct {
	Table   string
	Columns []string // VALUES form only
	Rows    [][]Expr // one slice per VALUES tuple
	Docs    []Expr   // DOCUMENTS form only, one named placeholder per tuple
}

func (*InsertStatement) stmtNode() {}

// UpdateStatement represents UPDATE t SET col = expr [, ...] [WHERE ...].
type UpdateStatement struct {
	Table string
	Sets  []Assignment
	Where Expr
}

func (*UpdateStatement) stmtNode() {}

// Assignment is one SET column = value pair.
type Assignment struct {
	Column string
	Value  Expr
}

// DeleteStatement represents DELETE FROM t [WHERE ...].
type DeleteStatement struct {
	Table string
	Where Expr
}

func (*DeleteStatement) stmtNode() {}

// CreateIndexStatement represents CREATE [UNIQUE] INDEX [IF NOT EXISTS]
// name ON table (columns...) [WHERE ...]. Vetting of unsupported index
// variants (unique, composite, partial) happens in the translator so each
// gets its own diagnostic; the parser records what it saw.
//
// Index columns are dotted field paths preserved verbatim. A function
// call in the column list is a parse error, not a recorded shape.
type CreateIndexStatement struct {
	Name        string
	Table       string
	Unique      bool
	IfNotExists bool
	Columns     []string
	HasWhere    bool
}

func (*CreateIndexStatement) stmtNode() {}

// DropIndexStatement represents DROP INDEX [IF EXISTS] name.
type DropIndexStatement struct {
	Name     string
	IfExists bool
}

func (*DropIndexStatement) stmtNode() {}

// ColumnRef is a bare or qualified column reference. Quoting in the
// source is already stripped by the lexer; the reference carries only
// identifier text.
type ColumnRef struct {
	Qualifier string // optional table qualifier, "" when bare
	Name      string
}

func (*ColumnRef) exprNode() {}

// Placeholder is one ? positional placeholder. Ordinals are 1-based and
// assigned in textual left-to-right order during parsing.
type Placeholder struct {
	Ordinal int
}

func (*Placeholder) exprNode() {}

// NamedArg is one :name placeholder (DQL surface only).
type NamedArg struct {
	Name string
}

func (*NamedArg) exprNode() {}

// Literal is an inline literal value. The query builder parameterizes
// data values, so literals normally appear only in LIMIT/OFFSET and in
// hand-written DQL fed to the reference store.
type Literal struct {
	Val sqlval.Value
}

func (*Literal) exprNode() {}

// Binary is a binary operation. Op is normalized to upper case:
// comparison operators, LIKE, AND, OR.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// Not is a NOT-prefixed expression.
type Not struct {
	Expr Expr
}

func (*Not) exprNode() {}

// Paren preserves explicit grouping parentheses from the source so the
// translated text keeps the caller's structure.
type Paren struct {
	Expr Expr
}

func (*Paren) exprNode() {}

// IsNull represents expr IS [NOT] NULL.
type IsNull struct {
	Expr   Expr
	Negate bool
}

func (*IsNull) exprNode() {}

// In represents expr [NOT] IN (list...).
type In struct {
	Expr   Expr
	List   []Expr
	Negate bool
}

func (*In) exprNode() {}

// FuncCall is a function invocation such as COUNT(*) or MID(name, 1, 3).
// The function name is not a column reference and is never subject to
// identifier rewriting.
type FuncCall struct {
	Name     string
	Distinct bool
	Star     bool // COUNT(*)
	Args     []Expr
}

func (*FuncCall) exprNode() {}
