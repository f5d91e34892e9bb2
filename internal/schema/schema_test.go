package schema

import (
	"strings"
	"testing"

	"chartfold/internal/records"
)

// testDialect is a minimal SQLite-flavored dialect for DDL assertions.
type testDialect struct{}

func (testDialect) Name() string            { return "test" }
func (testDialect) Placeholder(int) string  { return "?" }
func (testDialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
func (testDialect) ColumnType(kind string) string {
	switch kind {
	case "text":
		return "TEXT"
	case "int", "bigint":
		return "INTEGER"
	case "real":
		return "REAL"
	case "bool":
		return "INTEGER"
	default:
		return ""
	}
}
func (testDialect) SurrogateKey() string { return `"id" INTEGER PRIMARY KEY AUTOINCREMENT` }

/*
TestCreateTableSQL verifies the emitted DDL: surrogate id first, declared
columns in order, NOT NULL plus zero default on non-nullable columns and
neither on nullable ones.
*/
func TestCreateTableSQL(t *testing.T) {
	def := FromSpec(records.TableByName("lab_results"))
	sql, err := CreateTableSQL(testDialect{}, def)
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}

	if !strings.HasPrefix(sql, `CREATE TABLE IF NOT EXISTS "lab_results" (`) {
		t.Fatalf("DDL prefix wrong:\n%s", sql)
	}
	idIdx := strings.Index(sql, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`)
	srcIdx := strings.Index(sql, `"source" TEXT NOT NULL DEFAULT ''`)
	if idIdx < 0 || srcIdx < 0 || idIdx > srcIdx {
		t.Fatalf("surrogate id must precede declared columns:\n%s", sql)
	}
	if !strings.Contains(sql, `"value_numeric" REAL,`) {
		t.Fatalf("nullable column must carry no NOT NULL:\n%s", sql)
	}
	if strings.Contains(sql, `"value_numeric" REAL NOT NULL`) {
		t.Fatalf("nullable column emitted NOT NULL:\n%s", sql)
	}
}

/*
TestCreateTableSQL_BoolDefault verifies a non-nullable bool column defaults
to FALSE, which both backends accept, rather than a numeric literal.
*/
func TestCreateTableSQL_BoolDefault(t *testing.T) {
	def := TableDef{
		Name: "t",
		Columns: []records.Column{
			{Name: "source", Kind: "text"},
			{Name: "flag", Kind: "bool"},
		},
	}
	sql, err := CreateTableSQL(testDialect{}, def)
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	if !strings.Contains(sql, `"flag" INTEGER NOT NULL DEFAULT FALSE`) {
		t.Fatalf("bool default wrong:\n%s", sql)
	}
}

/*
TestCreateTableSQL_Errors covers the invalid-definition paths.
*/
func TestCreateTableSQL_Errors(t *testing.T) {
	if _, err := CreateTableSQL(testDialect{}, TableDef{Name: ""}); err == nil {
		t.Fatalf("empty name accepted")
	}
	if _, err := CreateTableSQL(testDialect{}, TableDef{Name: "t"}); err == nil {
		t.Fatalf("zero columns accepted")
	}
	def := TableDef{Name: "t", Columns: []records.Column{{Name: "c", Kind: "blob"}}}
	if _, err := CreateTableSQL(testDialect{}, def); err == nil {
		t.Fatalf("unknown kind accepted")
	}
}

/*
TestKeyIndexSQL verifies the uniqueness index covers exactly the natural-key
columns in key order.
*/
func TestKeyIndexSQL(t *testing.T) {
	def := FromSpec(records.TableByName("allergies"))
	sql, err := KeyIndexSQL(testDialect{}, def)
	if err != nil {
		t.Fatalf("KeyIndexSQL: %v", err)
	}
	want := `CREATE UNIQUE INDEX IF NOT EXISTS "allergies_natural_key" ON "allergies" ("source", "allergen");`
	if sql != want {
		t.Fatalf("index DDL = %s; want %s", sql, want)
	}

	if _, err := KeyIndexSQL(testDialect{}, TableDef{Name: "t"}); err == nil {
		t.Fatalf("missing key accepted")
	}
}

/*
TestEveryRegistryTableBuilds confirms DDL generation succeeds for the whole
registry under the test dialect; a new table with a bad column kind should
fail here, not at store open.
*/
func TestEveryRegistryTableBuilds(t *testing.T) {
	for i := range records.Tables {
		def := FromSpec(&records.Tables[i])
		if _, err := CreateTableSQL(testDialect{}, def); err != nil {
			t.Fatalf("table %s: %v", def.Name, err)
		}
		if _, err := KeyIndexSQL(testDialect{}, def); err != nil {
			t.Fatalf("table %s index: %v", def.Name, err)
		}
	}
}
