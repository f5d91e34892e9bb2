package records

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// sourceFold decomposes to NFD, strips combining marks, and recomposes, so
// "Nemocnice Motol" and its diacritic-free form normalize identically.
var sourceFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeSource canonicalizes a source tag: diacritics folded, lowercased,
// runs of non-alphanumerics collapsed to single underscores. Two spellings
// of the same portal name must not split one source's identity across
// loads, because source participates in every natural key.
//
//	NormalizeSource("Epic — Anderson")  == "epic_anderson"
//	NormalizeSource("MEDITECH/Anderson") == "meditech_anderson"
func NormalizeSource(name string) string {
	folded, _, err := transform.String(sourceFold, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}

// Normalize rewrites the batch's source tag and every row's source field to
// the canonical form. Callers that accept operator-supplied source names
// (the CLI does) run this before validation so that tag spelling can never
// produce a mismatch or a second identity.
func (b *Batch) Normalize() {
	src := NormalizeSource(b.Source)
	b.Source = src
	if b.Patient != nil {
		b.Patient.Source = src
	}
	for i := range b.Documents {
		b.Documents[i].Source = src
	}
	for i := range b.Encounters {
		b.Encounters[i].Source = src
	}
	for i := range b.LabResults {
		b.LabResults[i].Source = src
	}
	for i := range b.Vitals {
		b.Vitals[i].Source = src
	}
	for i := range b.Medications {
		b.Medications[i].Source = src
	}
	for i := range b.Conditions {
		b.Conditions[i].Source = src
	}
	for i := range b.Procedures {
		b.Procedures[i].Source = src
	}
	for i := range b.PathologyReports {
		b.PathologyReports[i].Source = src
	}
	for i := range b.ImagingReports {
		b.ImagingReports[i].Source = src
	}
	for i := range b.ClinicalNotes {
		b.ClinicalNotes[i].Source = src
	}
	for i := range b.Immunizations {
		b.Immunizations[i].Source = src
	}
	for i := range b.Allergies {
		b.Allergies[i].Source = src
	}
	for i := range b.SocialHistory {
		b.SocialHistory[i].Source = src
	}
	for i := range b.FamilyHistory {
		b.FamilyHistory[i].Source = src
	}
	for i := range b.MentalStatus {
		b.MentalStatus[i].Source = src
	}
	for i := range b.SourceAssets {
		b.SourceAssets[i].Source = src
	}
	for i := range b.GeneticVariants {
		b.GeneticVariants[i].Source = src
	}
}
