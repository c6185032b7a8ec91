package sqlparse

import "strings"

// StatementKind is the coarse statement classification derived from the
// leading keyword sequence. Classification is total: every input string
// maps to exactly one kind.
type StatementKind int

const (
	KindUnsupported StatementKind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindCreateIndex
	KindDropIndex
)

func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindCreateIndex:
		return "CREATE INDEX"
	case KindDropIndex:
		return "DROP INDEX"
	default:
		return "UNSUPPORTED"
	}
}

// Classification is the result of leading-keyword inspection.
// For KindUnsupported, Keyword holds the normalized offending keyword
// sequence (e.g. "CREATE TABLE"), or "" for an empty statement.
type Classification struct {
	Kind    StatementKind
	Keyword string
}

// Classify derives the statement kind from the leading keywords of text.
// Leading whitespace is skipped and matching is case-insensitive. This
// runs before any parsing so malformed-but-classifiable statements still
// get a kind-specific diagnostic instead of a generic parse error.
func Classify(text string) Classification {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Classification{Kind: KindUnsupported, Keyword: ""}
	}

	first := keywordAt(fields, 0)
	second := keywordAt(fields, 1)
	third := keywordAt(fields, 2)

	switch first {
	case "SELECT":
		return Classification{Kind: KindSelect}
	case "INSERT":
		if second == "INTO" {
			return Classification{Kind: KindInsert}
		}
		return Classification{Kind: KindUnsupported, Keyword: "INSERT"}
	case "UPDATE":
		return Classification{Kind: KindUpdate}
	case "DELETE":
		if second == "FROM" {
			return Classification{Kind: KindDelete}
		}
		return Classification{Kind: KindUnsupported, Keyword: "DELETE"}
	case "CREATE":
		switch {
		case second == "INDEX":
			return Classification{Kind: KindCreateIndex}
		case second == "UNIQUE" && third == "INDEX":
			// Classified as CreateIndex so the index vetting step can
			// reject it with a UNIQUE INDEX specific diagnostic.
			return Classification{Kind: KindCreateIndex}
		case second != "":
			return Classification{Kind: KindUnsupported, Keyword: "CREATE " + second}
		default:
			return Classification{Kind: KindUnsupported, Keyword: "CREATE"}
		}
	case "DROP":
		switch {
		case second == "INDEX":
			return Classification{Kind: KindDropIndex}
		case second != "":
			return Classification{Kind: KindUnsupported, Keyword: "DROP " + second}
		default:
			return Classification{Kind: KindUnsupported, Keyword: "DROP"}
		}
	case "ALTER":
		if second != "" {
			return Classification{Kind: KindUnsupported, Keyword: "ALTER " + second}
		}
		return Classification{Kind: KindUnsupported, Keyword: "ALTER"}
	default:
		return Classification{Kind: KindUnsupported, Keyword: first}
	}
}

// keywordAt returns the i-th whitespace-separated word normalized to upper
// case, trimmed of any attached punctuation that the lexer would split off
// (a statement like "DELETE FROM(users)" still classifies as DELETE FROM).
func keywordAt(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	word := fields[i]
	if idx := strings.IndexAny(word, "(\"[;"); idx >= 0 {
		word = word[:idx]
	}
	return strings.ToUpper(word)
}
