package sqlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		kind    StatementKind
		keyword string
	}{
		{"select", "SELECT * FROM t", KindSelect, ""},
		{"select lowercase", "select * from t", KindSelect, ""},
		{"select leading space", "   SELECT 1", KindSelect, ""},
		{"insert", "INSERT INTO t (a) VALUES (1)", KindInsert, ""},
		{"insert without into", "INSERT t VALUES (1)", KindUnsupported, "INSERT"},
		{"update", "UPDATE t SET a = 1", KindUpdate, ""},
		{"delete", "DELETE FROM t", KindDelete, ""},
		{"delete without from", "DELETE t", KindUnsupported, "DELETE"},
		{"create index", "CREATE INDEX i ON t (a)", KindCreateIndex, ""},
		{"create unique index", "CREATE UNIQUE INDEX i ON t (a)", KindCreateIndex, ""},
		{"create table", "CREATE TABLE t (a TEXT)", KindUnsupported, "CREATE TABLE"},
		{"create view", "CREATE VIEW v AS SELECT 1", KindUnsupported, "CREATE VIEW"},
		{"drop index", "DROP INDEX i", KindDropIndex, ""},
		{"drop table", "DROP TABLE t", KindUnsupported, "DROP TABLE"},
		{"alter table", "ALTER TABLE t ADD COLUMN a", KindUnsupported, "ALTER TABLE"},
		{"truncate", "TRUNCATE t", KindUnsupported, "TRUNCATE"},
		{"punctuation attached", "DELETE FROM(users)", KindDelete, ""},
		{"empty", "   ", KindUnsupported, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := Classify(tt.sql)
			assert.Equal(t, tt.kind, cls.Kind)
			assert.Equal(t, tt.keyword, cls.Keyword)
		})
	}
}
