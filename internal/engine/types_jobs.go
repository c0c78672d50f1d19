package engine

import (
	"strings"
	"time"
)

// PayloadKind tells the extractor how to read a raw payload.
type PayloadKind string

const (
	KindMarkup PayloadKind = "markup"
	KindJSON   PayloadKind = "json"
)

// RawPayload is one scraped document as handed over by the record source.
type RawPayload struct {
	Data        []byte
	OriginSite  string
	RetrievedAt time.Time
	Kind        PayloadKind
	SourcePath  string
}

// CandidateRecord is the extractor's flat, best-effort view of one listing.
// All text fields are raw strings; empty means absent.
type CandidateRecord struct {
	Title              string   `json:"title,omitempty"`
	Organization       string   `json:"organization,omitempty"`
	LocationText       string   `json:"location_text,omitempty"`
	SummaryText        string   `json:"summary_text,omitempty"`
	RequirementsText   string   `json:"requirements_text,omitempty"`
	BenefitsText       string   `json:"benefits_text,omitempty"`
	CompensationText   string   `json:"compensation_text,omitempty"`
	ListingURL         string   `json:"listing_url,omitempty"`
	PostingDateText    string   `json:"posting_date_text,omitempty"`
	EmploymentTypeText string   `json:"employment_type_text,omitempty"`
	ExperienceText     string   `json:"experience_text,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`

	OriginSite  string    `json:"origin_site,omitempty"`
	RetrievedAt time.Time `json:"retrieved_at,omitzero"`
	SourceFile  string    `json:"source_file,omitempty"`

	IsMerged      bool     `json:"is_merged,omitempty"`
	MergeCount    int      `json:"merge_count,omitempty"`
	MergedSources []string `json:"merged_sources,omitempty"`
}

// NonEmptyFieldCount counts populated text fields (keywords count as one field).
func (r CandidateRecord) NonEmptyFieldCount() int {
	n := 0
	for _, v := range []string{
		r.Title, r.Organization, r.LocationText, r.SummaryText, r.RequirementsText,
		r.BenefitsText, r.CompensationText, r.ListingURL, r.PostingDateText,
		r.EmploymentTypeText, r.ExperienceText,
	} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	if len(r.Keywords) > 0 {
		n++
	}
	return n
}

// Clone returns a deep copy so merge steps never alias their inputs.
func (r CandidateRecord) Clone() CandidateRecord {
	out := r
	if r.Keywords != nil {
		out.Keywords = append([]string(nil), r.Keywords...)
	}
	if r.MergedSources != nil {
		out.MergedSources = append([]string(nil), r.MergedSources...)
	}
	return out
}

// EmploymentType is the closed set of job types.
type EmploymentType string

const (
	FullTime   EmploymentType = "full_time"
	PartTime   EmploymentType = "part_time"
	Contract   EmploymentType = "contract"
	Internship EmploymentType = "internship"
	Temporary  EmploymentType = "temporary"
)

// ExperienceLevel is the closed set of seniority buckets.
type ExperienceLevel string

const (
	LevelEntry       ExperienceLevel = "entry"
	LevelMid         ExperienceLevel = "mid"
	LevelSenior      ExperienceLevel = "senior"
	LevelUnspecified ExperienceLevel = "unspecified"
)

// IndustryNotSpecified is used when no industry keyword matches.
const IndustryNotSpecified = "Not specified"

// DateLayout is the ISO calendar date layout used for posting dates.
const DateLayout = "2006-01-02"

// NormalizedRecord is a database-ready listing.
type NormalizedRecord struct {
	Title              string          `json:"title"`
	Organization       string          `json:"organization"`
	LocationText       string          `json:"location_text"`
	SummaryText        string          `json:"summary_text"`
	RequirementsText   string          `json:"requirements_text"`
	BenefitsText       string          `json:"benefits_text"`
	CompensationText   string          `json:"compensation_text"`
	ListingURL         string          `json:"listing_url"`
	PostingDateText    string          `json:"posting_date_text"`
	EmploymentTypeText string          `json:"employment_type_text"`
	ExperienceText     string          `json:"experience_text"`
	Keywords           []string        `json:"keywords"`
	CompensationMin    *int            `json:"compensation_min"`
	CompensationMax    *int            `json:"compensation_max"`
	LocationCity       string          `json:"location_city"`
	LocationRegion     string          `json:"location_region"`
	IsRemote           bool            `json:"is_remote"`
	EmploymentType     EmploymentType  `json:"employment_type"`
	ExperienceLevel    ExperienceLevel `json:"experience_level"`
	PostingDate        string          `json:"posting_date"` // YYYY-MM-DD, empty when absent
	Industry           string          `json:"industry"`
	Fingerprint        string          `json:"fingerprint"`
	OriginSite         string          `json:"origin_site"`
	SourceFile         string          `json:"source_file"`
	IsMerged           bool            `json:"is_merged"`
	MergeCount         int             `json:"merge_count"`
	MergedSources      []string        `json:"merged_sources"`
	NormalizedAt       time.Time       `json:"normalized_at"`
}

// Source returns the text-only candidate a normalized record was built from.
// Normalizing it again must reproduce the same typed values.
func (n NormalizedRecord) Source() CandidateRecord {
	return CandidateRecord{
		Title:              n.Title,
		Organization:       n.Organization,
		LocationText:       n.LocationText,
		SummaryText:        n.SummaryText,
		RequirementsText:   n.RequirementsText,
		BenefitsText:       n.BenefitsText,
		CompensationText:   n.CompensationText,
		ListingURL:         n.ListingURL,
		PostingDateText:    n.PostingDateText,
		EmploymentTypeText: n.EmploymentTypeText,
		ExperienceText:     n.ExperienceText,
		Keywords:           append([]string(nil), n.Keywords...),
		OriginSite:         n.OriginSite,
		SourceFile:         n.SourceFile,
		IsMerged:           n.IsMerged,
		MergeCount:         n.MergeCount,
		MergedSources:      append([]string(nil), n.MergedSources...),
	}
}

// Error categories used in run reports.
const (
	CategoryFileProcessing = "file_processing_error"
	CategoryExtraction     = "data_extraction_error"
	CategoryNormalization  = "normalization_error"
	CategoryValidation     = "validation_error"
)

// FileError is one problem recorded during a batch run.
type FileError struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Message  string `json:"message"`
}

// SourceFile identifies one raw input by name and content digest.
type SourceFile struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
}

// Artifact is the clean batch written under processed/.
type Artifact struct {
	BatchName      string             `json:"batch_name"`
	ProcessingDate time.Time          `json:"processing_date"`
	TotalJobs      int                `json:"total_jobs"`
	Jobs           []NormalizedRecord `json:"jobs"`
	SourceFiles    []SourceFile       `json:"source_files"`
}
