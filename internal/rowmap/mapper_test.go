package rowmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docshift/dqlbridge/internal/sqlval"
)

func TestMapDocumentRenamesStoreID(t *testing.T) {
	doc := sqlval.Object{"_id": sqlval.String("u1"), "name": sqlval.String("Ada")}

	row := MapDocument(doc, []string{"id", "name"})
	assert.Equal(t, sqlval.Object{"id": sqlval.String("u1"), "name": sqlval.String("Ada")}, row)
}

func TestMapDocumentKeepsExplicitStoreID(t *testing.T) {
	doc := sqlval.Object{"_id": sqlval.String("u1")}

	row := MapDocument(doc, []string{"_id"})
	assert.Equal(t, sqlval.Object{"_id": sqlval.String("u1")}, row)
}

func TestMapDocumentNilFieldsMapsEverything(t *testing.T) {
	doc := sqlval.Object{"_id": sqlval.String("u1"), "age": sqlval.Int(36)}

	row := MapDocument(doc, nil)
	assert.Equal(t, sqlval.Object{"id": sqlval.String("u1"), "age": sqlval.Int(36)}, row)
}

func TestMapDocumentAggregatePositions(t *testing.T) {
	// SELECT dept, COUNT(*), SUM(age) → passthrough + ($2) + ($3).
	doc := sqlval.Object{
		"dept": sqlval.String("eng"),
		"($2)": sqlval.Int(4),
		"($3)": sqlval.Int(150),
	}

	row := MapDocument(doc, []string{"dept", "n", "total"})
	assert.Equal(t, sqlval.Object{
		"dept":  sqlval.String("eng"),
		"n":     sqlval.Int(4),
		"total": sqlval.Int(150),
	}, row)
}

func TestMapDocumentAggregateIDFallback(t *testing.T) {
	doc := sqlval.Object{"_id": sqlval.String("u1"), "($2)": sqlval.Int(3)}

	row := MapDocument(doc, []string{"id", "n"})
	assert.Equal(t, sqlval.Object{"id": sqlval.String("u1"), "n": sqlval.Int(3)}, row)
}

func TestMapDocumentOmitsMissingFields(t *testing.T) {
	doc := sqlval.Object{"($1)": sqlval.Int(9)}

	row := MapDocument(doc, []string{"n", "absent"})
	require.Len(t, row, 1)
	assert.Equal(t, sqlval.Int(9), row["n"])
}

func TestMapDocumentsPreservesOrder(t *testing.T) {
	docs := []sqlval.Object{
		{"_id": sqlval.String("u1")},
		{"_id": sqlval.String("u2")},
	}

	rows := MapDocuments(docs, []string{"id"})
	require.Len(t, rows, 2)
	assert.Equal(t, sqlval.String("u1"), rows[0]["id"])
	assert.Equal(t, sqlval.String("u2"), rows[1]["id"])
}

func TestIsAggregateKey(t *testing.T) {
	assert.True(t, isAggregateKey("($1)"))
	assert.True(t, isAggregateKey("($12)"))
	assert.False(t, isAggregateKey("($)"))
	assert.False(t, isAggregateKey("($a)"))
	assert.False(t, isAggregateKey("(1)"))
	assert.False(t, isAggregateKey("name"))
}
