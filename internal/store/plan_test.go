package store

import (
	"fmt"
	"strings"
	"testing"

	"chartfold/internal/records"
)

// planDialect is a Postgres-flavored dialect so placeholder numbering is
// visible in assertions.
type planDialect struct{}

func (planDialect) Name() string               { return "plan-test" }
func (planDialect) Placeholder(n int) string   { return fmt.Sprintf("$%d", n) }
func (planDialect) QuoteIdent(id string) string { return `"` + id + `"` }
func (planDialect) ColumnType(kind string) string {
	if kind == "text" {
		return "TEXT"
	}
	return "BIGINT"
}
func (planDialect) SurrogateKey() string { return `"id" BIGINT PRIMARY KEY` }

/*
TestPlanTable_Upsert verifies the generated statement: every declared column
bound in order, conflict target equal to the natural key, and the SET clause
rewriting only non-key columns from excluded.
*/
func TestPlanTable_Upsert(t *testing.T) {
	spec := records.TableByName("allergies")
	plan, err := planTable(planDialect{}, spec)
	if err != nil {
		t.Fatalf("planTable: %v", err)
	}

	if !strings.HasPrefix(plan.upsert, `INSERT INTO "allergies" ("source", "source_doc_id", "allergen",`) {
		t.Fatalf("upsert prefix wrong:\n%s", plan.upsert)
	}
	if !strings.Contains(plan.upsert, `ON CONFLICT ("source", "allergen") DO UPDATE SET`) {
		t.Fatalf("conflict clause wrong:\n%s", plan.upsert)
	}
	for _, keyCol := range spec.Key {
		frag := fmt.Sprintf(`"%s" = excluded."%s"`, keyCol, keyCol)
		if strings.Contains(plan.upsert, frag) {
			t.Fatalf("key column %s must not be rewritten:\n%s", keyCol, plan.upsert)
		}
	}
	if !strings.Contains(plan.upsert, `"reaction" = excluded."reaction"`) {
		t.Fatalf("non-key column missing from SET clause:\n%s", plan.upsert)
	}

	// One placeholder per declared column, numbered from 1.
	n := len(spec.Columns())
	if !strings.Contains(plan.upsert, fmt.Sprintf("$%d)", n)) {
		t.Fatalf("want %d placeholders:\n%s", n, plan.upsert)
	}
}

/*
TestPlanTable_SnapshotAndDelete checks the read-side statements a load uses
for diff classification and pruning.
*/
func TestPlanTable_SnapshotAndDelete(t *testing.T) {
	plan, err := planTable(planDialect{}, records.TableByName("allergies"))
	if err != nil {
		t.Fatalf("planTable: %v", err)
	}
	wantSnap := `SELECT "id", "source", "allergen" FROM "allergies" WHERE "source" = $1`
	if plan.snapshot != wantSnap {
		t.Fatalf("snapshot = %s; want %s", plan.snapshot, wantSnap)
	}
	wantDel := `DELETE FROM "allergies" WHERE "id" = $1`
	if plan.deleteByID != wantDel {
		t.Fatalf("deleteByID = %s; want %s", plan.deleteByID, wantDel)
	}
}

/*
TestPlanTable_WholeRegistry confirms every registry table plans cleanly.
*/
func TestPlanTable_WholeRegistry(t *testing.T) {
	for i := range records.Tables {
		if _, err := planTable(planDialect{}, &records.Tables[i]); err != nil {
			t.Fatalf("table %s: %v", records.Tables[i].Name, err)
		}
	}
}

/*
TestParseMode covers the accepted modes and the rejection message.
*/
func TestParseMode(t *testing.T) {
	if m, err := ParseMode("additive"); err != nil || m != ModeAdditive {
		t.Fatalf("ParseMode(additive) = %v, %v", m, err)
	}
	if m, err := ParseMode("replace"); err != nil || m != ModeReplace {
		t.Fatalf("ParseMode(replace) = %v, %v", m, err)
	}
	if _, err := ParseMode("merge"); err == nil {
		t.Fatalf("ParseMode(merge) accepted")
	}
}
