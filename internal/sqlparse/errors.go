package sqlparse

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// SyntaxError reports a statement that matched a supported kind's leading
// keywords but failed structural parsing. Stmt names the statement shape
// being parsed ("SELECT", "INSERT", ...) so the translator can produce a
// clause-specific diagnostic.
type SyntaxError struct {
	Stmt    string
	Message string
	Pos     lexer.Position
}

func (e *SyntaxError) Error() string {
	if e.Pos.Column > 0 {
		return fmt.Sprintf("%s: %s (column %d)", e.Stmt, e.Message, e.Pos.Column)
	}
	return fmt.Sprintf("%s: %s", e.Stmt, e.Message)
}

// UnsupportedError reports a construct that is permanently outside the
// accepted fragment: JOIN, UNION, subqueries, and statement kinds the
// classifier rejects. These are usage errors, never parse bugs.
type UnsupportedError struct {
	Construct string
}

func (e *UnsupportedError) Error() string {
	return "unsupported SQL construct: " + e.Construct
}
