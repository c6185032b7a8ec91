package sqlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docshift/dqlbridge/internal/sqlval"
)

// joinKeywords mark the start of a join clause after the FROM table.
// All joins are outside the accepted fragment.
var joinKeywords = map[string]bool{
	"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true,
	"FULL": true, "CROSS": true, "OUTER": true, "NATURAL": true,
}

// reservedWords cannot start a primary expression. Keeping this list
// explicit means a clause keyword in expression position is a syntax
// error instead of a bogus column reference.
var reservedWords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "BY": true,
	"HAVING": true, "ORDER": true, "LIMIT": true, "OFFSET": true,
	"AND": true, "OR": true, "AS": true, "ASC": true, "DESC": true,
	"SET": true, "VALUES": true, "DOCUMENTS": true, "INTO": true,
	"ON": true, "UNION": true, "IS": true, "IN": true, "LIKE": true,
	"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true, "FULL": true,
	"CROSS": true, "OUTER": true, "NATURAL": true, "BETWEEN": true,
}

// Parse lexes text and parses it into a typed Statement.
//
// The statement kind is decided by Classify before any structural parsing,
// so unsupported operations (CREATE TABLE, TRUNCATE, ...) surface as
// *UnsupportedError rather than a generic syntax error. Supported kinds
// that fail structural parsing surface as *SyntaxError.
func Parse(text string) (Statement, error) {
	cls := Classify(text)
	if cls.Kind == KindUnsupported {
		if cls.Keyword == "" {
			return nil, &SyntaxError{Stmt: "SQL", Message: "empty statement"}
		}
		return nil, &UnsupportedError{Construct: cls.Keyword}
	}

	toks, err := Lex(text)
	if err != nil {
		return nil, &SyntaxError{Stmt: cls.Kind.String(), Message: err.Error()}
	}
	p := &parser{toks: toks, stmt: cls.Kind.String()}

	var stmt Statement
	switch cls.Kind {
	case KindSelect:
		stmt, err = p.parseSelect()
	case KindInsert:
		stmt, err = p.parseInsert()
	case KindUpdate:
		stmt, err = p.parseUpdate()
	case KindDelete:
		stmt, err = p.parseDelete()
	case KindCreateIndex:
		stmt, err = p.parseCreateIndex()
	case KindDropIndex:
		stmt, err = p.parseDropIndex()
	}
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// PlaceholderCount returns the number of ? placeholders assigned during
// parsing of stmt. Ordinals are dense, so the count equals the highest
// ordinal handed out.
func PlaceholderCount(stmt Statement) int {
	n := 0
	walkStatement(stmt, func(e Expr) {
		if ph, ok := e.(*Placeholder); ok && ph.Ordinal > n {
			n = ph.Ordinal
		}
	})
	return n
}

type parser struct {
	toks        []Token
	pos         int
	stmt        string
	nextOrdinal int
}

func (p *parser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Type: TokenEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) peek() Token {
	if p.pos+1 >= len(p.toks) {
		return Token{Type: TokenEOF}
	}
	return p.toks[p.pos+1]
}

func (p *parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) errf(format string, args ...any) error {
	return &SyntaxError{Stmt: p.stmt, Message: fmt.Sprintf(format, args...), Pos: p.cur().Pos}
}

func (p *parser) expectKeyword(kw string) error {
	if !p.cur().isKeyword(kw) {
		return p.errf("expected %s, found %s", kw, p.cur())
	}
	p.advance()
	return nil
}

func (p *parser) expectPunct(punct string) error {
	if !p.cur().isPunct(punct) {
		return p.errf("expected %q, found %s", punct, p.cur())
	}
	p.advance()
	return nil
}

// acceptKeyword consumes kw if present and reports whether it did.
func (p *parser) acceptKeyword(kw string) bool {
	if p.cur().isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

// expectEnd consumes an optional trailing semicolon and requires EOF.
// A trailing UNION gets its own unsupported-construct error.
func (p *parser) expectEnd() error {
	if p.cur().isPunct(";") {
		p.advance()
	}
	if p.cur().isKeyword("UNION") {
		return &UnsupportedError{Construct: "UNION"}
	}
	if p.cur().Type != TokenEOF {
		return p.errf("unexpected trailing token %s", p.cur())
	}
	return nil
}

// identifier consumes a bare or quoted identifier.
func (p *parser) identifier(what string) (string, error) {
	t := p.cur()
	switch {
	case t.Type == TokenQuotedIdent:
		p.advance()
		return t.Text, nil
	case t.Type == TokenIdent && !reservedWords[strings.ToUpper(t.Text)]:
		p.advance()
		return t.Text, nil
	default:
		return "", p.errf("expected %s, found %s", what, t)
	}
}

// tableName consumes the target table, rejecting subqueries in FROM.
func (p *parser) tableName() (string, error) {
	if p.cur().isPunct("(") {
		return "", &UnsupportedError{Construct: "subquery"}
	}
	return p.identifier("table name")
}

func (p *parser) parseSelect() (Statement, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	stmt := &SelectStatement{}

	if p.cur().isPunct("*") {
		p.advance()
		stmt.Star = true
	} else {
		for {
			item, err := p.parseSelectItem()
			if err != nil {
				return nil, err
			}
			stmt.Items = append(stmt.Items, item)
			if !p.cur().isPunct(",") {
				break
			}
			p.advance()
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.tableName()
	if err != nil {
		return nil, err
	}
	stmt.From = table

	if t := p.cur(); t.Type == TokenIdent && joinKeywords[strings.ToUpper(t.Text)] {
		return nil, &UnsupportedError{Construct: "JOIN"}
	}

	if p.acceptKeyword("WHERE") {
		stmt.Where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if p.cur().isKeyword("GROUP") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, e)
			if !p.cur().isPunct(",") {
				break
			}
			p.advance()
		}
	}
	if p.acceptKeyword("HAVING") {
		stmt.Having, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if p.cur().isKeyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			item := OrderItem{Expr: e}
			if p.acceptKeyword("DESC") {
				item.Desc = true
			} else {
				p.acceptKeyword("ASC")
			}
			stmt.OrderBy = append(stmt.OrderBy, item)
			if !p.cur().isPunct(",") {
				break
			}
			p.advance()
		}
	}
	if p.acceptKeyword("LIMIT") {
		stmt.Limit, err = p.parseScalar("LIMIT")
		if err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("OFFSET") {
		stmt.Offset, err = p.parseScalar("OFFSET")
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *parser) parseSelectItem() (SelectItem, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: e}
	if p.acceptKeyword("AS") {
		alias, err := p.identifier("alias")
		if err != nil {
			return SelectItem{}, err
		}
		item.Alias = alias
	}
	return item, nil
}

// parseScalar parses a LIMIT/OFFSET operand: a number or a placeholder.
func (p *parser) parseScalar(clause string) (Expr, error) {
	t := p.cur()
	switch t.Type {
	case TokenNumber:
		p.advance()
		return numberLiteral(t.Text)
	case TokenPlaceholder:
		p.advance()
		p.nextOrdinal++
		return &Placeholder{Ordinal: p.nextOrdinal}, nil
	case TokenNamed:
		p.advance()
		return &NamedArg{Name: t.Text}, nil
	default:
		return nil, p.errf("expected %s operand, found %s", clause, t)
	}
}

func (p *parser) parseInsert() (Statement, error) {
	if err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.tableName()
	if err != nil {
		return nil, err
	}
	stmt := &InsertStatement{Table: table}

	if p.acceptKeyword("DOCUMENTS") {
		for {
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			t := p.cur()
			if t.Type != TokenNamed {
				return nil, p.errf("expected named document placeholder, found %s", t)
			}
			p.advance()
			stmt.Docs = append(stmt.Docs, &NamedArg{Name: t.Text})
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			if !p.cur().isPunct(",") {
				break
			}
			p.advance()
		}
		return stmt, nil
	}

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for {
		col, err := p.identifier("column name")
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if !p.cur().isPunct(",") {
			break
		}
		p.advance()
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	for {
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var row []Expr
		for {
			e, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			row = append(row, e)
			if !p.cur().isPunct(",") {
				break
			}
			p.advance()
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, row)
		if !p.cur().isPunct(",") {
			break
		}
		p.advance()
	}
	return stmt, nil
}

func (p *parser) parseUpdate() (Statement, error) {
	if err := p.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}
	table, err := p.tableName()
	if err != nil {
		return nil, err
	}
	stmt := &UpdateStatement{Table: table}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	for {
		col, err := p.identifier("column name")
		if err != nil {
			return nil, err
		}
		t := p.cur()
		if t.Type != TokenOperator || t.Text != "=" {
			return nil, p.errf("expected = after column %s, found %s", col, t)
		}
		p.advance()
		val, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		stmt.Sets = append(stmt.Sets, Assignment{Column: col, Value: val})
		if !p.cur().isPunct(",") {
			break
		}
		p.advance()
	}
	if p.acceptKeyword("WHERE") {
		stmt.Where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *parser) parseDelete() (Statement, error) {
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.tableName()
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStatement{Table: table}
	if p.acceptKeyword("WHERE") {
		stmt.Where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *parser) parseCreateIndex() (Statement, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	stmt := &CreateIndexStatement{}
	if p.acceptKeyword("UNIQUE") {
		stmt.Unique = true
	}
	if err := p.expectKeyword("INDEX"); err != nil {
		return nil, err
	}
	if p.cur().isKeyword("IF") {
		p.advance()
		if err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}
	name, err := p.identifier("index name")
	if err != nil {
		return nil, err
	}
	stmt.Name = name
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	stmt.Table, err = p.tableName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for {
		path, err := p.fieldPath()
		if err != nil {
			return nil, err
		}
		// A parenthesis after the path means a function call: functional
		// indexes are rejected as a parse failure, not a dedicated kind.
		if p.cur().isPunct("(") {
			return nil, p.errf("function call in index column list")
		}
		stmt.Columns = append(stmt.Columns, path)
		if !p.cur().isPunct(",") {
			break
		}
		p.advance()
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if p.cur().isKeyword("WHERE") {
		stmt.HasWhere = true
		// The predicate itself is never used: partial indexes are
		// rejected by the vetting step. Skip to end of statement.
		for p.cur().Type != TokenEOF {
			p.advance()
		}
	}
	return stmt, nil
}

// fieldPath consumes a dotted field path (a, a.b, a.b.c) verbatim.
func (p *parser) fieldPath() (string, error) {
	part, err := p.identifier("field path")
	if err != nil {
		return "", err
	}
	path := part
	for p.cur().isPunct(".") && (p.peek().Type == TokenIdent || p.peek().Type == TokenQuotedIdent) {
		p.advance()
		next, err := p.identifier("field path segment")
		if err != nil {
			return "", err
		}
		path += "." + next
	}
	return path, nil
}

func (p *parser) parseDropIndex() (Statement, error) {
	if err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("INDEX"); err != nil {
		return nil, err
	}
	stmt := &DropIndexStatement{}
	if p.cur().isKeyword("IF") {
		p.advance()
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfExists = true
	}
	name, err := p.identifier("index name")
	if err != nil {
		return nil, err
	}
	stmt.Name = name
	return stmt, nil
}

// Expression parsing: OR < AND < NOT < comparison < primary.

func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().isKeyword("OR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur().isKeyword("AND") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.cur().isKeyword("NOT") {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{Expr: inner}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	t := p.cur()
	switch {
	case t.Type == TokenOperator:
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: t.Text, Left: left, Right: right}, nil

	case t.isKeyword("LIKE"):
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: "LIKE", Left: left, Right: right}, nil

	case t.isKeyword("NOT") && p.peek().isKeyword("LIKE"):
		p.advance()
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &Not{Expr: &Binary{Op: "LIKE", Left: left, Right: right}}, nil

	case t.isKeyword("NOT") && p.peek().isKeyword("IN"):
		p.advance()
		p.advance()
		list, err := p.parseInList()
		if err != nil {
			return nil, err
		}
		return &In{Expr: left, List: list, Negate: true}, nil

	case t.isKeyword("IN"):
		p.advance()
		list, err := p.parseInList()
		if err != nil {
			return nil, err
		}
		return &In{Expr: left, List: list}, nil

	case t.isKeyword("IS"):
		p.advance()
		negate := p.acceptKeyword("NOT")
		if !p.cur().isKeyword("NULL") {
			return nil, p.errf("expected NULL after IS, found %s", p.cur())
		}
		p.advance()
		return &IsNull{Expr: left, Negate: negate}, nil

	case t.isKeyword("BETWEEN"):
		return nil, &UnsupportedError{Construct: "BETWEEN"}

	default:
		return left, nil
	}
}

func (p *parser) parseInList() ([]Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	if p.cur().isKeyword("SELECT") {
		return nil, &UnsupportedError{Construct: "subquery"}
	}
	var list []Expr
	for {
		e, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if !p.cur().isPunct(",") {
			break
		}
		p.advance()
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.cur()
	switch {
	case t.isPunct("("):
		p.advance()
		if p.cur().isKeyword("SELECT") {
			return nil, &UnsupportedError{Construct: "subquery"}
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &Paren{Expr: inner}, nil

	case t.Type == TokenPlaceholder:
		p.advance()
		p.nextOrdinal++
		return &Placeholder{Ordinal: p.nextOrdinal}, nil

	case t.Type == TokenNamed:
		p.advance()
		return &NamedArg{Name: t.Text}, nil

	case t.Type == TokenNumber:
		p.advance()
		return numberLiteral(t.Text)

	case t.Type == TokenString:
		p.advance()
		return &Literal{Val: sqlval.String(t.Text)}, nil

	case t.isKeyword("TRUE"):
		p.advance()
		return &Literal{Val: sqlval.Bool(true)}, nil

	case t.isKeyword("FALSE"):
		p.advance()
		return &Literal{Val: sqlval.Bool(false)}, nil

	case t.isKeyword("NULL"):
		p.advance()
		return &Literal{Val: sqlval.Null{}}, nil

	case t.Type == TokenIdent && p.peek().isPunct("(") && !reservedWords[strings.ToUpper(t.Text)]:
		return p.parseFuncCall()

	case t.Type == TokenIdent || t.Type == TokenQuotedIdent:
		return p.parseColumnRef()

	default:
		return nil, p.errf("unexpected token %s in expression", t)
	}
}

func (p *parser) parseFuncCall() (Expr, error) {
	name := p.advance().Text
	p.advance() // consume "("
	call := &FuncCall{Name: name}

	if p.acceptKeyword("DISTINCT") {
		call.Distinct = true
	}
	if p.cur().isPunct("*") {
		p.advance()
		call.Star = true
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return call, nil
	}
	if p.cur().isPunct(")") {
		p.advance()
		return call, nil
	}
	for {
		arg, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if !p.cur().isPunct(",") {
			break
		}
		p.advance()
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) parseColumnRef() (Expr, error) {
	first, err := p.identifier("column reference")
	if err != nil {
		return nil, err
	}
	ref := &ColumnRef{Name: first}
	if p.cur().isPunct(".") && (p.peek().Type == TokenIdent || p.peek().Type == TokenQuotedIdent) {
		p.advance()
		second, err := p.identifier("column name")
		if err != nil {
			return nil, err
		}
		ref.Qualifier = first
		ref.Name = second
	}
	return ref, nil
}

func numberLiteral(text string) (Expr, error) {
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number literal %q: %w", text, err)
		}
		return &Literal{Val: sqlval.Float(f)}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number literal %q: %w", text, err)
	}
	return &Literal{Val: sqlval.Int(n)}, nil
}
