// Package extract turns raw scraped payloads into flat candidate records.
//
// Markup payloads are scanned for repeated listing containers; JSON payloads
// are mapped through an alias table. Records that fail the viability check are
// reported as skips, never as errors. Only a payload that cannot be read at all
// (unknown kind, undecodable JSON) yields an error.
package extract

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// Minimum lengths, measured after whitespace collapse.
const (
	minTitleLen        = 3
	minOrganizationLen = 2
	minLocationLen     = 2
)

// Canonical field names. They match the CandidateRecord JSON tags.
const (
	fieldTitle          = "title"
	fieldOrganization   = "organization"
	fieldLocation       = "location_text"
	fieldSummary        = "summary_text"
	fieldRequirements   = "requirements_text"
	fieldBenefits       = "benefits_text"
	fieldCompensation   = "compensation_text"
	fieldURL            = "listing_url"
	fieldPostingDate    = "posting_date_text"
	fieldEmploymentType = "employment_type_text"
	fieldExperience     = "experience_text"
	fieldKeywords       = "keywords"
)

// textFields lists the string-valued canonical fields in record order.
var textFields = []string{
	fieldTitle, fieldOrganization, fieldLocation, fieldSummary, fieldRequirements,
	fieldBenefits, fieldCompensation, fieldURL, fieldPostingDate, fieldEmploymentType,
	fieldExperience,
}

// Skip explains why one listing inside a payload produced no record.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Result is everything one payload yielded: viable records plus the skipped ones.
type Result struct {
	Records []engine.CandidateRecord
	Skipped []Skip
}

// Extract parses one payload. The payload is never modified.
func Extract(p engine.RawPayload, t *engine.Tables) (Result, error) {
	kind := p.Kind
	if kind == "" {
		kind = DetectKind(p.SourcePath, p.Data)
	}
	switch kind {
	case engine.KindMarkup:
		return extractMarkup(p, t)
	case engine.KindJSON:
		return extractJSON(p, t)
	default:
		return Result{}, errors.Wrapf(engine.ErrUnsupportedPayload, "%s: kind %q", p.SourcePath, kind)
	}
}

// DetectKind picks the ingestion path by file extension, then by sniffing the
// first non-space byte. Returns "" when neither gives an answer.
func DetectKind(path string, data []byte) engine.PayloadKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl":
		return engine.KindJSON
	case ".html", ".htm", ".xhtml":
		return engine.KindMarkup
	}
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '{', '[':
		return engine.KindJSON
	case '<':
		return engine.KindMarkup
	}
	return ""
}

// builder accumulates the fields of one listing before the viability check.
type builder struct {
	fields   map[string]string
	keywords []string
}

func newBuilder() *builder {
	return &builder{fields: make(map[string]string, len(textFields))}
}

// set stores v under field unless the field already has a value.
func (b *builder) set(field, v string) {
	v = strings.TrimSpace(v)
	if v == "" || b.fields[field] != "" {
		return
	}
	b.fields[field] = v
}

func (b *builder) addKeywords(vals ...string) {
	seen := make(map[string]bool, len(b.keywords))
	for _, k := range b.keywords {
		seen[strings.ToLower(k)] = true
	}
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			part = engine.CollapseSpace(part)
			if part == "" || seen[strings.ToLower(part)] {
				continue
			}
			seen[strings.ToLower(part)] = true
			b.keywords = append(b.keywords, part)
		}
	}
}

// record validates the collected fields and builds the candidate.
// The returned reason is non-empty when the listing is not viable.
func (b *builder) record(p engine.RawPayload) (engine.CandidateRecord, string) {
	f := b.fields
	title := engine.CollapseSpace(f[fieldTitle])
	org := engine.CollapseSpace(f[fieldOrganization])
	loc := engine.CollapseSpace(f[fieldLocation])

	switch {
	case utf8.RuneCountInString(title) < minTitleLen:
		return engine.CandidateRecord{}, "missing or short title"
	case utf8.RuneCountInString(org) < minOrganizationLen:
		return engine.CandidateRecord{}, "missing or short organization"
	case utf8.RuneCountInString(loc) < minLocationLen:
		return engine.CandidateRecord{}, "missing or short location"
	}

	return engine.CandidateRecord{
		Title:              title,
		Organization:       org,
		LocationText:       loc,
		SummaryText:        f[fieldSummary],
		RequirementsText:   f[fieldRequirements],
		BenefitsText:       f[fieldBenefits],
		CompensationText:   engine.CollapseSpace(f[fieldCompensation]),
		ListingURL:         strings.TrimSpace(f[fieldURL]),
		PostingDateText:    engine.CollapseSpace(f[fieldPostingDate]),
		EmploymentTypeText: engine.CollapseSpace(f[fieldEmploymentType]),
		ExperienceText:     engine.CollapseSpace(f[fieldExperience]),
		Keywords:           b.keywords,
		OriginSite:         p.OriginSite,
		RetrievedAt:        p.RetrievedAt,
		SourceFile:         sourceName(p.SourcePath),
	}, ""
}

// collect appends a built record or skip to res.
func (res *Result) collect(b *builder, idx int, p engine.RawPayload) {
	rec, reason := b.record(p)
	if reason != "" {
		res.Skipped = append(res.Skipped, Skip{Index: idx, Reason: reason})
		return
	}
	res.Records = append(res.Records, rec)
}

func sourceName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
