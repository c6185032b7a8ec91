// Package sqlparse lexes and parses the constrained SQL dialect emitted by
// the producing query builder, plus the DQL surface the translator emits
// (named :arg placeholders and the DOCUMENTS insert clause).
//
// The grammar is deliberately small: only the statement shapes the builder
// is known to produce are accepted. Everything else fails with a parse
// error or an explicit unsupported-construct error so that no statement is
// ever silently mistranslated.
package sqlparse

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenQuotedIdent  // "name" or [name], quotes stripped
	TokenNumber       // integer or float literal
	TokenString       // '...' literal, quotes stripped
	TokenNamed        // :name named placeholder
	TokenPlaceholder  // ? positional placeholder
	TokenOperator     // = <> != < <= > >=
	TokenPunct        // ( ) , . * ;
)

// Token is one lexical unit with its source position.
type Token struct {
	Type TokenType
	Text string
	Pos  lexer.Position
}

// sqlLexer tokenizes the dialect. Rule order matters: quoted forms and
// multi-character operators must match before their single-character
// prefixes.
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "QuotedIdent", Pattern: `"[^"]*"`},
	{Name: "BracketIdent", Pattern: `\[[^\]]*\]`},
	{Name: "String", Pattern: `'[^']*'`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Named", Pattern: `:[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Placeholder", Pattern: `\?`},
	{Name: "Operator", Pattern: `<>|!=|<=|>=|[=<>]`},
	{Name: "Punct", Pattern: `[(),.*;]`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Lex tokenizes input, dropping whitespace. The returned slice always ends
// with a TokenEOF sentinel.
func Lex(input string) ([]Token, error) {
	lx, err := sqlLexer.LexString("", input)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	raw, err := lexer.ConsumeAll(lx)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}

	symbols := sqlLexer.Symbols()
	byType := make(map[lexer.TokenType]string, len(symbols))
	for name, t := range symbols {
		byType[t] = name
	}

	tokens := make([]Token, 0, len(raw))
	for _, rt := range raw {
		name := byType[rt.Type]
		switch {
		case rt.EOF():
			tokens = append(tokens, Token{Type: TokenEOF, Pos: rt.Pos})
		case name == "Whitespace":
			continue
		case name == "QuotedIdent":
			tokens = append(tokens, Token{Type: TokenQuotedIdent, Text: strings.Trim(rt.Value, `"`), Pos: rt.Pos})
		case name == "BracketIdent":
			tokens = append(tokens, Token{Type: TokenQuotedIdent, Text: strings.TrimSuffix(strings.TrimPrefix(rt.Value, "["), "]"), Pos: rt.Pos})
		case name == "String":
			tokens = append(tokens, Token{Type: TokenString, Text: strings.Trim(rt.Value, `'`), Pos: rt.Pos})
		case name == "Number":
			tokens = append(tokens, Token{Type: TokenNumber, Text: rt.Value, Pos: rt.Pos})
		case name == "Named":
			tokens = append(tokens, Token{Type: TokenNamed, Text: strings.TrimPrefix(rt.Value, ":"), Pos: rt.Pos})
		case name == "Placeholder":
			tokens = append(tokens, Token{Type: TokenPlaceholder, Text: "?", Pos: rt.Pos})
		case name == "Operator":
			tokens = append(tokens, Token{Type: TokenOperator, Text: rt.Value, Pos: rt.Pos})
		case name == "Punct":
			tokens = append(tokens, Token{Type: TokenPunct, Text: rt.Value, Pos: rt.Pos})
		default:
			tokens = append(tokens, Token{Type: TokenIdent, Text: rt.Value, Pos: rt.Pos})
		}
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEOF {
		tokens = append(tokens, Token{Type: TokenEOF})
	}
	return tokens, nil
}

// isKeyword reports whether the token is the given bare keyword,
// case-insensitively. Quoted identifiers are never keywords.
func (t Token) isKeyword(kw string) bool {
	return t.Type == TokenIdent && strings.EqualFold(t.Text, kw)
}

// isPunct reports whether the token is the given punctuation character.
func (t Token) isPunct(p string) bool {
	return t.Type == TokenPunct && t.Text == p
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "end of statement"
	case TokenString:
		return fmt.Sprintf("'%s'", t.Text)
	case TokenNamed:
		return ":" + t.Text
	default:
		return t.Text
	}
}
