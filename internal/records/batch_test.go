package records

import (
	"bytes"
	"strings"
	"testing"
)

/*
TestValidate_Table exercises the batch contract checks:
  - empty batch source short-circuits,
  - a row whose source disagrees with the batch is flagged with its path,
  - empty natural-key fields beyond source are flagged,
  - a clean batch yields no issues.
*/
func TestValidate_Table(t *testing.T) {
	empty := &Batch{}
	issues := empty.Validate()
	if len(issues) != 1 || issues[0].Path != "source" {
		t.Fatalf("empty-source issues = %v; want single source issue", issues)
	}

	b := &Batch{
		Source: "epic_anderson",
		LabResults: []LabResult{
			{Source: "epic_anderson", TestName: "CEA", ResultDate: "2024-03-01", Value: "2.5"},
			{Source: "meditech_anderson", TestName: "CEA", ResultDate: "2024-03-01", Value: "2.5"},
			{Source: "epic_anderson", TestName: "", ResultDate: "2024-03-01", Value: "2.5"},
		},
	}
	issues = b.Validate()
	if len(issues) != 2 {
		t.Fatalf("issues = %v; want 2", issues)
	}
	if issues[0].Path != "lab_results[1].source" {
		t.Fatalf("issues[0].Path = %q; want lab_results[1].source", issues[0].Path)
	}
	if issues[1].Path != "lab_results[2].test_name" {
		t.Fatalf("issues[1].Path = %q; want lab_results[2].test_name", issues[1].Path)
	}

	clean := &Batch{
		Source: "epic_anderson",
		LabResults: []LabResult{
			{Source: "epic_anderson", TestName: "CEA", ResultDate: "2024-03-01", Value: "2.5"},
		},
	}
	if issues := clean.Validate(); len(issues) != 0 {
		t.Fatalf("clean batch issues = %v; want none", issues)
	}
}

/*
TestValidationError_Message checks the one-issue and many-issue renderings.
*/
func TestValidationError_Message(t *testing.T) {
	one := &ValidationError{Source: "s", Issues: []Issue{{Path: "p", Message: "m"}}}
	if got := one.Error(); !strings.Contains(got, "p: m") || strings.Contains(got, "more") {
		t.Fatalf("Error() = %q", got)
	}
	many := &ValidationError{Source: "s", Issues: []Issue{{Path: "a", Message: "m"}, {Path: "b", Message: "m"}}}
	if got := many.Error(); !strings.Contains(got, "and 1 more") {
		t.Fatalf("Error() = %q; want 'and 1 more'", got)
	}
}

/*
TestDecodeBatch verifies round-tripping through the codec and that unknown
fields are rejected rather than dropped.
*/
func TestDecodeBatch(t *testing.T) {
	in := &Batch{
		Source: "epic_anderson",
		Allergies: []Allergy{
			{Source: "epic_anderson", Allergen: "penicillin", Severity: "severe"},
		},
	}
	var buf bytes.Buffer
	if err := EncodeBatch(&buf, in); err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	out, err := DecodeBatch(&buf)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if out.Source != in.Source || len(out.Allergies) != 1 || out.Allergies[0].Allergen != "penicillin" {
		t.Fatalf("round trip = %#v", out)
	}

	bad := `{"source":"s","lab_results":[{"source":"s","test_name":"CEA","bogus_column":"x"}]}`
	if _, err := DecodeBatch(strings.NewReader(bad)); err == nil {
		t.Fatalf("DecodeBatch accepted unknown field")
	}

	mistyped := `{"source":"s","documents":[{"source":"s","doc_id":"d1","file_size_kb":"big"}]}`
	if _, err := DecodeBatch(strings.NewReader(mistyped)); err == nil {
		t.Fatalf("DecodeBatch accepted string in int column")
	}
}
