package records

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Column describes one declared column of a table: its name (the `db` tag)
// and a logical kind that storage dialects map onto concrete SQL types.
type Column struct {
	Name     string
	Kind     string // "text" | "int" | "bigint" | "real" | "bool"
	Nullable bool
}

// TableSpec binds a table name to its record type, its static column list
// (resolved once from struct tags, never from row contents), and its
// natural key. The natural key always starts with "source".
type TableSpec struct {
	// Name is the store table name, e.g. "lab_results".
	Name string

	// Key lists the natural-key columns in index order. Within one source
	// and table no two rows may share a key tuple.
	Key []string

	// SourceWipe must be set for tables whose natural key is exactly
	// ["source"]: replace-mode pruning on such a table degrades to "delete
	// everything this source stored here", and that has to be a deliberate
	// per-table decision rather than a silent default.
	SourceWipe bool

	rowType reflect.Type
	columns []Column
	fields  []int // struct field index per column
	keyIdx  []int // struct field index per key column
	rows    func(b *Batch) []any
}

// Columns returns the declared column list, surrogate id excluded.
func (t *TableSpec) Columns() []Column { return t.columns }

// ColumnNames returns just the column names, in declaration order.
func (t *TableSpec) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Rows extracts this table's rows from a batch as opaque values suitable
// for Values/KeyString. The singleton patient table yields zero or one row.
func (t *TableSpec) Rows(b *Batch) []any { return t.rows(b) }

// Values returns the row's column values in Columns() order, ready for
// statement binding. Nil pointers become SQL NULLs.
func (t *TableSpec) Values(row any) []any {
	rv := reflect.ValueOf(row)
	out := make([]any, len(t.fields))
	for i, fi := range t.fields {
		out[i] = bindValue(rv.Field(fi))
	}
	return out
}

// KeyString renders the row's natural-key tuple as a single comparable
// string. The same encoding is used for store snapshots, incoming-key
// classification, and fingerprint sorting.
func (t *TableSpec) KeyString(row any) string {
	rv := reflect.ValueOf(row)
	parts := make([]string, len(t.keyIdx))
	for i, fi := range t.keyIdx {
		parts[i] = fieldString(rv.Field(fi))
	}
	return strings.Join(parts, "\x1f")
}

// KeyStringFrom builds the same encoding from already-scanned column text,
// as produced by a snapshot query over the key columns.
func KeyStringFrom(parts []string) string { return strings.Join(parts, "\x1f") }

// sortKey is KeyString without the leading source column; upstream row
// order must never affect the fingerprint, only content may.
func (t *TableSpec) sortKey(row any) string {
	rv := reflect.ValueOf(row)
	parts := make([]string, 0, len(t.keyIdx))
	for _, fi := range t.keyIdx[1:] {
		parts = append(parts, fieldString(rv.Field(fi)))
	}
	return strings.Join(parts, "\x1f")
}

// payload renders every column value of the row, key and non-key alike,
// for fingerprinting.
func (t *TableSpec) payload(row any) string {
	rv := reflect.ValueOf(row)
	parts := make([]string, len(t.fields))
	for i, fi := range t.fields {
		parts[i] = fieldString(rv.Field(fi))
	}
	return strings.Join(parts, "\x1f")
}

// mustTable builds a TableSpec from a prototype record struct. It panics on
// malformed declarations; the registry is fixed at compile time and any
// problem here is a programming error, caught by CheckRegistry in tests and
// again at store open.
func mustTable(name string, prototype any, key []string, sourceWipe bool, rows func(b *Batch) []any) TableSpec {
	rt := reflect.TypeOf(prototype)
	if rt.Kind() != reflect.Struct {
		panic(fmt.Sprintf("records: table %s: prototype must be a struct", name))
	}
	t := TableSpec{Name: name, Key: key, SourceWipe: sourceWipe, rowType: rt, rows: rows}
	byName := map[string]int{}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		kind, nullable, err := columnKind(f.Type)
		if err != nil {
			panic(fmt.Sprintf("records: table %s column %s: %v", name, tag, err))
		}
		byName[tag] = len(t.columns)
		t.columns = append(t.columns, Column{Name: tag, Kind: kind, Nullable: nullable})
		t.fields = append(t.fields, i)
	}
	for _, k := range key {
		ci, ok := byName[k]
		if !ok {
			panic(fmt.Sprintf("records: table %s: natural-key column %q not declared", name, k))
		}
		t.keyIdx = append(t.keyIdx, t.fields[ci])
	}
	return t
}

func columnKind(rt reflect.Type) (kind string, nullable bool, err error) {
	if rt.Kind() == reflect.Pointer {
		nullable = true
		rt = rt.Elem()
	}
	switch rt.Kind() {
	case reflect.String:
		return "text", nullable, nil
	case reflect.Int64, reflect.Int:
		if nullable {
			return "bigint", true, nil
		}
		return "int", false, nil
	case reflect.Float64:
		return "real", nullable, nil
	case reflect.Bool:
		return "bool", nullable, nil
	default:
		return "", false, fmt.Errorf("unsupported field type %s", rt)
	}
}

// bindValue converts a struct field into a driver-bindable value.
func bindValue(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

// fieldString renders a field deterministically for key and fingerprint
// encoding. Nil pointers become "\x00" so NULL and "" stay distinct.
func fieldString(v reflect.Value) string {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "\x00"
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Bool:
		if v.Bool() {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v.Interface())
	}
}

func rowsOf[T any](s []T) []any {
	if len(s) == 0 {
		return nil
	}
	out := make([]any, len(s))
	for i := range s {
		out[i] = s[i]
	}
	return out
}

// Tables is the full registry, in load order. Order matters for two
// reasons: the fingerprint walks it deterministically, and referenced
// tables (procedures, imaging_reports) load before the tables that carry
// soft references to them.
var Tables = []TableSpec{
	mustTable("patients", Patient{}, []string{"source"}, true,
		func(b *Batch) []any {
			if b.Patient == nil {
				return nil
			}
			return []any{*b.Patient}
		}),
	mustTable("documents", Document{}, []string{"source", "doc_id"}, false,
		func(b *Batch) []any { return rowsOf(b.Documents) }),
	mustTable("encounters", Encounter{}, []string{"source", "source_doc_id", "encounter_date", "encounter_type"}, false,
		func(b *Batch) []any { return rowsOf(b.Encounters) }),
	mustTable("lab_results", LabResult{}, []string{"source", "test_name", "result_date", "value"}, false,
		func(b *Batch) []any { return rowsOf(b.LabResults) }),
	mustTable("vitals", Vital{}, []string{"source", "vital_type", "recorded_date", "value_text"}, false,
		func(b *Batch) []any { return rowsOf(b.Vitals) }),
	mustTable("medications", Medication{}, []string{"source", "name", "start_date"}, false,
		func(b *Batch) []any { return rowsOf(b.Medications) }),
	mustTable("conditions", Condition{}, []string{"source", "condition_name", "onset_date"}, false,
		func(b *Batch) []any { return rowsOf(b.Conditions) }),
	mustTable("procedures", Procedure{}, []string{"source", "name", "procedure_date"}, false,
		func(b *Batch) []any { return rowsOf(b.Procedures) }),
	mustTable("pathology_reports", PathologyReport{}, []string{"source", "report_date", "specimen"}, false,
		func(b *Batch) []any { return rowsOf(b.PathologyReports) }),
	mustTable("imaging_reports", ImagingReport{}, []string{"source", "study_name", "study_date"}, false,
		func(b *Batch) []any { return rowsOf(b.ImagingReports) }),
	mustTable("clinical_notes", ClinicalNote{}, []string{"source", "note_type", "note_date", "author"}, false,
		func(b *Batch) []any { return rowsOf(b.ClinicalNotes) }),
	mustTable("immunizations", Immunization{}, []string{"source", "vaccine_name", "admin_date"}, false,
		func(b *Batch) []any { return rowsOf(b.Immunizations) }),
	mustTable("allergies", Allergy{}, []string{"source", "allergen"}, false,
		func(b *Batch) []any { return rowsOf(b.Allergies) }),
	mustTable("social_history", SocialHistory{}, []string{"source", "category", "recorded_date"}, false,
		func(b *Batch) []any { return rowsOf(b.SocialHistory) }),
	mustTable("family_history", FamilyHistory{}, []string{"source", "relation", "condition"}, false,
		func(b *Batch) []any { return rowsOf(b.FamilyHistory) }),
	mustTable("mental_status", MentalStatus{}, []string{"source", "instrument", "question", "recorded_date"}, false,
		func(b *Batch) []any { return rowsOf(b.MentalStatus) }),
	mustTable("source_assets", SourceAsset{}, []string{"source", "file_path"}, false,
		func(b *Batch) []any { return rowsOf(b.SourceAssets) }),
	mustTable("genetic_variants", GeneticVariant{}, []string{"source", "gene", "dna_change"}, false,
		func(b *Batch) []any { return rowsOf(b.GeneticVariants) }),
}

// TableByName returns the registry entry for a table name, or nil if unknown.
func TableByName(name string) *TableSpec {
	for i := range Tables {
		if Tables[i].Name == name {
			return &Tables[i]
		}
	}
	return nil
}

// CheckRegistry verifies the structural invariants of the table registry.
// It runs in tests and again when a store opens, so a misdeclared table is
// caught before any load, never mid-transaction.
func CheckRegistry() error {
	seen := map[string]bool{}
	for i := range Tables {
		t := &Tables[i]
		if t.Name == "" {
			return fmt.Errorf("records: table %d has no name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("records: duplicate table %q", t.Name)
		}
		seen[t.Name] = true
		if len(t.Key) == 0 {
			return fmt.Errorf("records: table %q has no natural key", t.Name)
		}
		if t.Key[0] != "source" {
			return fmt.Errorf("records: table %q: natural key must start with source", t.Name)
		}
		if len(t.Key) == 1 && !t.SourceWipe {
			return fmt.Errorf("records: table %q: source-only natural key requires SourceWipe", t.Name)
		}
		if len(t.Key) > 1 && t.SourceWipe {
			return fmt.Errorf("records: table %q: SourceWipe is only valid for source-only keys", t.Name)
		}
		for _, k := range t.Key {
			col := false
			for _, c := range t.columns {
				if c.Name == k {
					if c.Nullable {
						return fmt.Errorf("records: table %q: natural-key column %q is nullable", t.Name, k)
					}
					col = true
					break
				}
			}
			if !col {
				return fmt.Errorf("records: table %q: natural-key column %q not declared", t.Name, k)
			}
		}
	}
	return nil
}
