// Package records defines the canonical clinical data model shared by every
// source adapter and by the storage engine.
//
// Each record type maps 1:1 to a store table. Field sets are fixed and
// declared here; upstream parsers may carry whatever loose intermediate
// shapes they like, but by the time data reaches a Batch it is typed, and a
// row missing part of its declared identity is a validation failure rather
// than a silently-propagated partial value.
//
// Conventions:
//
//   - All dates are ISO "YYYY-MM-DD" strings; sources that only know a year
//     or a month keep whatever prefix they have.
//   - String attributes default to "" (never NULL) so that natural-key
//     uniqueness indexes never meet SQL NULL semantics.
//   - Nullable numerics are pointer fields and map to nullable columns.
//   - Every type carries a free-form Metadata payload (JSON text by
//     convention) for additive evolution without schema rewrites.
package records

// Patient holds demographics. At most one row per source.
type Patient struct {
	Source      string `db:"source" json:"source"`
	Name        string `db:"name" json:"name"`
	DateOfBirth string `db:"date_of_birth" json:"date_of_birth"`
	Gender      string `db:"gender" json:"gender"`
	MRN         string `db:"mrn" json:"mrn"`
	Address     string `db:"address" json:"address"`
	Phone       string `db:"phone" json:"phone"`
	Metadata    string `db:"metadata" json:"metadata"`
}

// Document is the source-file inventory: one row per parsed document.
type Document struct {
	Source        string `db:"source" json:"source"`
	DocID         string `db:"doc_id" json:"doc_id"` // unique within source (filename, UUID, ...)
	DocType       string `db:"doc_type" json:"doc_type"`
	Title         string `db:"title" json:"title"`
	EncounterDate string `db:"encounter_date" json:"encounter_date"`
	FilePath      string `db:"file_path" json:"file_path"`
	FileSizeKB    int64  `db:"file_size_kb" json:"file_size_kb"`
	Metadata      string `db:"metadata" json:"metadata"`
}

// Encounter is a clinical encounter (visit, admission, ED stay, ...).
type Encounter struct {
	Source               string `db:"source" json:"source"`
	SourceDocID          string `db:"source_doc_id" json:"source_doc_id"`
	EncounterDate        string `db:"encounter_date" json:"encounter_date"`
	EncounterEnd         string `db:"encounter_end" json:"encounter_end"`
	EncounterType        string `db:"encounter_type" json:"encounter_type"`
	Facility             string `db:"facility" json:"facility"`
	Provider             string `db:"provider" json:"provider"`
	Reason               string `db:"reason" json:"reason"`
	DischargeDisposition string `db:"discharge_disposition" json:"discharge_disposition"`
	Metadata             string `db:"metadata" json:"metadata"`
}

// LabResult is a single lab test result. Value keeps the original text so
// forms like "<0.5" or "positive" survive; ValueNumeric is the parsed number
// when one exists.
type LabResult struct {
	Source         string   `db:"source" json:"source"`
	SourceDocID    string   `db:"source_doc_id" json:"source_doc_id"`
	TestName       string   `db:"test_name" json:"test_name"`
	TestLOINC      string   `db:"test_loinc" json:"test_loinc"`
	PanelName      string   `db:"panel_name" json:"panel_name"`
	Value          string   `db:"value" json:"value"`
	ValueNumeric   *float64 `db:"value_numeric" json:"value_numeric"`
	Unit           string   `db:"unit" json:"unit"`
	RefRange       string   `db:"ref_range" json:"ref_range"`
	Interpretation string   `db:"interpretation" json:"interpretation"` // H, L, N, A, ...
	ResultDate     string   `db:"result_date" json:"result_date"`
	Status         string   `db:"status" json:"status"`
	Metadata       string   `db:"metadata" json:"metadata"`
}

// Vital is a single vital-sign reading.
type Vital struct {
	Source       string   `db:"source" json:"source"`
	SourceDocID  string   `db:"source_doc_id" json:"source_doc_id"`
	VitalType    string   `db:"vital_type" json:"vital_type"` // bp_systolic, weight, temp, hr, spo2, ...
	Value        *float64 `db:"value" json:"value"`
	ValueText    string   `db:"value_text" json:"value_text"` // original text for non-numeric readings
	Unit         string   `db:"unit" json:"unit"`
	RecordedDate string   `db:"recorded_date" json:"recorded_date"`
	Metadata     string   `db:"metadata" json:"metadata"`
}

// Medication is a medication entry (active, historical, or discharge).
type Medication struct {
	Source      string `db:"source" json:"source"`
	SourceDocID string `db:"source_doc_id" json:"source_doc_id"`
	Name        string `db:"name" json:"name"`
	RxNormCode  string `db:"rxnorm_code" json:"rxnorm_code"`
	Status      string `db:"status" json:"status"`
	Sig         string `db:"sig" json:"sig"` // dosage instructions
	Route       string `db:"route" json:"route"`
	StartDate   string `db:"start_date" json:"start_date"`
	StopDate    string `db:"stop_date" json:"stop_date"`
	Prescriber  string `db:"prescriber" json:"prescriber"`
	Metadata    string `db:"metadata" json:"metadata"`
}

// Condition is a clinical condition / diagnosis.
type Condition struct {
	Source         string `db:"source" json:"source"`
	SourceDocID    string `db:"source_doc_id" json:"source_doc_id"`
	ConditionName  string `db:"condition_name" json:"condition_name"`
	ICD10Code      string `db:"icd10_code" json:"icd10_code"`
	SnomedCode     string `db:"snomed_code" json:"snomed_code"`
	ClinicalStatus string `db:"clinical_status" json:"clinical_status"` // active, resolved, inactive
	OnsetDate      string `db:"onset_date" json:"onset_date"`
	ResolvedDate   string `db:"resolved_date" json:"resolved_date"`
	Category       string `db:"category" json:"category"` // problem-list-item, encounter-diagnosis
	Metadata       string `db:"metadata" json:"metadata"`
}

// Procedure is a clinical procedure.
type Procedure struct {
	Source        string `db:"source" json:"source"`
	SourceDocID   string `db:"source_doc_id" json:"source_doc_id"`
	Name          string `db:"name" json:"name"`
	SnomedCode    string `db:"snomed_code" json:"snomed_code"`
	CPTCode       string `db:"cpt_code" json:"cpt_code"`
	ProcedureDate string `db:"procedure_date" json:"procedure_date"`
	Provider      string `db:"provider" json:"provider"`
	Facility      string `db:"facility" json:"facility"`
	OperativeNote string `db:"operative_note" json:"operative_note"`
	Status        string `db:"status" json:"status"`
	Metadata      string `db:"metadata" json:"metadata"`
}

// PathologyReport is a pathology report, optionally linked to the procedure
// it resulted from. ProcedureID is a soft reference to procedures.id; it
// stays valid across reimports because surrogate ids are stable for
// unchanged natural keys.
type PathologyReport struct {
	Source                 string `db:"source" json:"source"`
	SourceDocID            string `db:"source_doc_id" json:"source_doc_id"`
	ProcedureID            *int64 `db:"procedure_id" json:"procedure_id"`
	ReportDate             string `db:"report_date" json:"report_date"`
	Specimen               string `db:"specimen" json:"specimen"`
	Diagnosis              string `db:"diagnosis" json:"diagnosis"`
	GrossDescription       string `db:"gross_description" json:"gross_description"`
	MicroscopicDescription string `db:"microscopic_description" json:"microscopic_description"`
	Staging                string `db:"staging" json:"staging"`
	Margins                string `db:"margins" json:"margins"`
	LymphNodes             string `db:"lymph_nodes" json:"lymph_nodes"`
	FullText               string `db:"full_text" json:"full_text"`
	Metadata               string `db:"metadata" json:"metadata"`
}

// ImagingReport is an imaging study report.
type ImagingReport struct {
	Source           string `db:"source" json:"source"`
	SourceDocID      string `db:"source_doc_id" json:"source_doc_id"`
	StudyName        string `db:"study_name" json:"study_name"`
	Modality         string `db:"modality" json:"modality"` // CT, MRI, US, XR, PET, ...
	StudyDate        string `db:"study_date" json:"study_date"`
	OrderingProvider string `db:"ordering_provider" json:"ordering_provider"`
	Findings         string `db:"findings" json:"findings"`
	Impression       string `db:"impression" json:"impression"`
	FullText         string `db:"full_text" json:"full_text"`
	Metadata         string `db:"metadata" json:"metadata"`
}

// ClinicalNote is a clinical note (progress note, H&P, discharge summary, ...).
type ClinicalNote struct {
	Source        string `db:"source" json:"source"`
	SourceDocID   string `db:"source_doc_id" json:"source_doc_id"`
	NoteType      string `db:"note_type" json:"note_type"`
	Author        string `db:"author" json:"author"`
	NoteDate      string `db:"note_date" json:"note_date"`
	Content       string `db:"content" json:"content"`
	ContentFormat string `db:"content_format" json:"content_format"` // text, html
	Metadata      string `db:"metadata" json:"metadata"`
}

// Immunization is a vaccination record.
type Immunization struct {
	Source      string `db:"source" json:"source"`
	SourceDocID string `db:"source_doc_id" json:"source_doc_id"`
	VaccineName string `db:"vaccine_name" json:"vaccine_name"`
	CVXCode     string `db:"cvx_code" json:"cvx_code"`
	AdminDate   string `db:"admin_date" json:"admin_date"`
	LotNumber   string `db:"lot_number" json:"lot_number"`
	Site        string `db:"site" json:"site"`
	Status      string `db:"status" json:"status"`
	Metadata    string `db:"metadata" json:"metadata"`
}

// Allergy is an allergy or adverse reaction.
type Allergy struct {
	Source      string `db:"source" json:"source"`
	SourceDocID string `db:"source_doc_id" json:"source_doc_id"`
	Allergen    string `db:"allergen" json:"allergen"`
	Reaction    string `db:"reaction" json:"reaction"`
	Severity    string `db:"severity" json:"severity"` // mild, moderate, severe
	Status      string `db:"status" json:"status"`
	OnsetDate   string `db:"onset_date" json:"onset_date"`
	Metadata    string `db:"metadata" json:"metadata"`
}

// SocialHistory is a social-history entry (smoking, alcohol, occupation, ...).
type SocialHistory struct {
	Source       string `db:"source" json:"source"`
	SourceDocID  string `db:"source_doc_id" json:"source_doc_id"`
	Category     string `db:"category" json:"category"`
	Value        string `db:"value" json:"value"`
	RecordedDate string `db:"recorded_date" json:"recorded_date"`
	Metadata     string `db:"metadata" json:"metadata"`
}

// FamilyHistory is a family-history entry.
type FamilyHistory struct {
	Source      string `db:"source" json:"source"`
	SourceDocID string `db:"source_doc_id" json:"source_doc_id"`
	Relation    string `db:"relation" json:"relation"` // mother, father, sibling, ...
	Condition   string `db:"condition" json:"condition"`
	AgeAtOnset  string `db:"age_at_onset" json:"age_at_onset"`
	Deceased    *bool  `db:"deceased" json:"deceased"`
	Metadata    string `db:"metadata" json:"metadata"`
}

// MentalStatus is a mental-health screening result (PHQ-9, PHQ-2, GAD-7, ...).
type MentalStatus struct {
	Source       string `db:"source" json:"source"`
	SourceDocID  string `db:"source_doc_id" json:"source_doc_id"`
	Instrument   string `db:"instrument" json:"instrument"`
	Question     string `db:"question" json:"question"`
	Answer       string `db:"answer" json:"answer"`
	Score        *int64 `db:"score" json:"score"`
	TotalScore   *int64 `db:"total_score" json:"total_score"`
	RecordedDate string `db:"recorded_date" json:"recorded_date"`
	Metadata     string `db:"metadata" json:"metadata"`
}

// SourceAsset is a non-parsed source file (PDF, DICOM export, image)
// discovered next to the structured documents. ImagingReportID is a soft
// reference to imaging_reports.id for assets that belong to a study.
type SourceAsset struct {
	Source          string `db:"source" json:"source"`
	AssetType       string `db:"asset_type" json:"asset_type"`
	FilePath        string `db:"file_path" json:"file_path"`
	FileName        string `db:"file_name" json:"file_name"`
	FileSizeKB      int64  `db:"file_size_kb" json:"file_size_kb"`
	ContentType     string `db:"content_type" json:"content_type"`
	Title           string `db:"title" json:"title"`
	EncounterDate   string `db:"encounter_date" json:"encounter_date"`
	EncounterID     string `db:"encounter_id" json:"encounter_id"`
	ImagingReportID *int64 `db:"imaging_report_id" json:"imaging_report_id"`
	Metadata        string `db:"metadata" json:"metadata"`
}

// GeneticVariant is a somatic or germline variant from a molecular report.
type GeneticVariant struct {
	Source         string   `db:"source" json:"source"`
	SourceDocID    string   `db:"source_doc_id" json:"source_doc_id"`
	Gene           string   `db:"gene" json:"gene"`
	DNAChange      string   `db:"dna_change" json:"dna_change"`
	ProteinChange  string   `db:"protein_change" json:"protein_change"`
	VAF            *float64 `db:"vaf" json:"vaf"` // variant allele frequency, 0..1
	Classification string   `db:"classification" json:"classification"`
	TestDate       string   `db:"test_date" json:"test_date"`
	Metadata       string   `db:"metadata" json:"metadata"`
}
