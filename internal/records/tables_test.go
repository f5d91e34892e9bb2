package records

import (
	"testing"
)

/*
TestCheckRegistry verifies the shipped registry satisfies its own structural
invariants: unique names, source-led natural keys, SourceWipe only on
source-only keys, and non-nullable key columns.
*/
func TestCheckRegistry(t *testing.T) {
	if err := CheckRegistry(); err != nil {
		t.Fatalf("CheckRegistry() = %v; want nil", err)
	}
}

/*
TestTableByName covers both the hit and the miss path.
*/
func TestTableByName(t *testing.T) {
	if tb := TableByName("lab_results"); tb == nil || tb.Name != "lab_results" {
		t.Fatalf("TableByName(lab_results) = %v; want lab_results spec", tb)
	}
	if tb := TableByName("no_such_table"); tb != nil {
		t.Fatalf("TableByName(no_such_table) = %v; want nil", tb)
	}
}

/*
TestKeyString checks that KeyString renders the natural-key tuple in key
order with the unit-separator framing, and that KeyStringFrom produces the
identical encoding from scanned column text.
*/
func TestKeyString(t *testing.T) {
	tb := TableByName("lab_results")
	row := LabResult{
		Source:     "epic_anderson",
		TestName:   "CEA",
		ResultDate: "2024-03-01",
		Value:      "2.5",
		Unit:       "ng/mL",
	}
	got := tb.KeyString(row)
	want := "epic_anderson\x1fCEA\x1f2024-03-01\x1f2.5"
	if got != want {
		t.Fatalf("KeyString = %q; want %q", got, want)
	}
	if from := KeyStringFrom([]string{"epic_anderson", "CEA", "2024-03-01", "2.5"}); from != got {
		t.Fatalf("KeyStringFrom = %q; want %q", from, got)
	}
}

/*
TestValues_NullableBinding checks Values ordering against the declared
columns and the nil-pointer-to-NULL conversion.
*/
func TestValues_NullableBinding(t *testing.T) {
	tb := TableByName("lab_results")
	v := 2.5
	row := LabResult{
		Source:       "epic_anderson",
		TestName:     "CEA",
		Value:        "2.5",
		ValueNumeric: &v,
		ResultDate:   "2024-03-01",
	}
	values := tb.Values(row)
	names := tb.ColumnNames()
	if len(values) != len(names) {
		t.Fatalf("len(values)=%d; want %d", len(values), len(names))
	}
	byName := map[string]any{}
	for i, n := range names {
		byName[n] = values[i]
	}
	if byName["value_numeric"] != 2.5 {
		t.Fatalf("value_numeric = %v; want 2.5", byName["value_numeric"])
	}

	row.ValueNumeric = nil
	values = tb.Values(row)
	for i, n := range names {
		if n == "value_numeric" && values[i] != nil {
			t.Fatalf("nil pointer bound as %v; want nil", values[i])
		}
	}
}

/*
TestRows_PatientSingleton verifies the patients table yields zero rows for a
batch without demographics and exactly one otherwise.
*/
func TestRows_PatientSingleton(t *testing.T) {
	tb := TableByName("patients")
	b := &Batch{Source: "s"}
	if rows := tb.Rows(b); len(rows) != 0 {
		t.Fatalf("rows without patient = %d; want 0", len(rows))
	}
	b.Patient = &Patient{Source: "s", Name: "Jane Doe"}
	rows := tb.Rows(b)
	if len(rows) != 1 {
		t.Fatalf("rows with patient = %d; want 1", len(rows))
	}
	if got, ok := rows[0].(Patient); !ok || got.Name != "Jane Doe" {
		t.Fatalf("row = %#v; want the patient value", rows[0])
	}
}

/*
TestCounts checks the per-table incoming counts a batch reports.
*/
func TestCounts(t *testing.T) {
	b := &Batch{
		Source:  "s",
		Patient: &Patient{Source: "s"},
		LabResults: []LabResult{
			{Source: "s", TestName: "CEA", ResultDate: "2024-03-01", Value: "2.5"},
			{Source: "s", TestName: "CA 19-9", ResultDate: "2024-03-01", Value: "10"},
		},
	}
	counts := b.Counts()
	want := map[string]int{"patients": 1, "lab_results": 2, "documents": 0}
	for table, n := range want {
		if counts[table] != n {
			t.Fatalf("counts[%s] = %d; want %d", table, counts[table], n)
		}
	}
	if len(counts) != len(Tables) {
		t.Fatalf("counts has %d tables; want %d", len(counts), len(Tables))
	}
}
