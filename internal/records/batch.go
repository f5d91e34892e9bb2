package records

import (
	"fmt"
)

// Batch holds everything one extraction run produced for a single source.
// It is created once upstream and consumed exactly once by the load engine.
type Batch struct {
	// Source tags every row in the batch, e.g. "epic_anderson".
	Source string `json:"source"`

	Patient          *Patient         `json:"patient,omitempty"`
	Documents        []Document       `json:"documents,omitempty"`
	Encounters       []Encounter      `json:"encounters,omitempty"`
	LabResults       []LabResult      `json:"lab_results,omitempty"`
	Vitals           []Vital          `json:"vitals,omitempty"`
	Medications      []Medication     `json:"medications,omitempty"`
	Conditions       []Condition      `json:"conditions,omitempty"`
	Procedures       []Procedure      `json:"procedures,omitempty"`
	PathologyReports []PathologyReport `json:"pathology_reports,omitempty"`
	ImagingReports   []ImagingReport  `json:"imaging_reports,omitempty"`
	ClinicalNotes    []ClinicalNote   `json:"clinical_notes,omitempty"`
	Immunizations    []Immunization   `json:"immunizations,omitempty"`
	Allergies        []Allergy        `json:"allergies,omitempty"`
	SocialHistory    []SocialHistory  `json:"social_history,omitempty"`
	FamilyHistory    []FamilyHistory  `json:"family_history,omitempty"`
	MentalStatus     []MentalStatus   `json:"mental_status,omitempty"`
	SourceAssets     []SourceAsset    `json:"source_assets,omitempty"`
	GeneticVariants  []GeneticVariant `json:"genetic_variants,omitempty"`
}

// Counts returns the incoming row count per table, the batch-side view of
// what a load will write.
func (b *Batch) Counts() map[string]int {
	out := make(map[string]int, len(Tables))
	for i := range Tables {
		t := &Tables[i]
		out[t.Name] = len(t.Rows(b))
	}
	return out
}

// Issue is one validation finding, addressed by table and row index.
type Issue struct {
	Path    string // e.g. "lab_results[3].test_name"
	Message string
}

func (i Issue) String() string { return i.Path + ": " + i.Message }

// Validate checks the batch against the declared contracts: the batch must
// name a source, every row's source must match it, and every natural-key
// column beyond source must be non-empty. Violations are malformed-batch
// errors; the load engine refuses the whole batch rather than applying it
// partially.
func (b *Batch) Validate() []Issue {
	var issues []Issue
	if b.Source == "" {
		return []Issue{{Path: "source", Message: "batch source must not be empty"}}
	}
	for i := range Tables {
		t := &Tables[i]
		for n, row := range t.Rows(b) {
			values := t.Values(row)
			cols := t.columns
			for ci, col := range cols {
				inKey := false
				for _, k := range t.Key {
					if k == col.Name {
						inKey = true
						break
					}
				}
				if !inKey {
					continue
				}
				s, _ := values[ci].(string)
				if col.Name == "source" {
					if s != b.Source {
						issues = append(issues, Issue{
							Path:    fmt.Sprintf("%s[%d].source", t.Name, n),
							Message: fmt.Sprintf("row source %q does not match batch source %q", s, b.Source),
						})
					}
					continue
				}
				if s == "" {
					issues = append(issues, Issue{
						Path:    fmt.Sprintf("%s[%d].%s", t.Name, n, col.Name),
						Message: "natural-key field must not be empty",
					})
				}
			}
		}
	}
	return issues
}

// ValidationError wraps the issues found in a malformed batch.
type ValidationError struct {
	Source string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("records: batch %q invalid: %s", e.Source, e.Issues[0])
	}
	return fmt.Sprintf("records: batch %q invalid: %s (and %d more)", e.Source, e.Issues[0], len(e.Issues)-1)
}
