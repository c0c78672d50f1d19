// Package normalize converts candidate records into typed, database-ready records.
//
// Every parser degrades to an absent or unspecified value instead of failing,
// so Normalize is total. Safe additionally turns an unexpected panic into a skip.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// Normalizer holds the static tables and the clock used for relative dates.
type Normalizer struct {
	Tables *engine.Tables
	Now    func() time.Time
}

// New returns a Normalizer over t using the wall clock.
func New(t *engine.Tables) *Normalizer {
	return &Normalizer{Tables: t, Now: time.Now}
}

// Outcome is either a normalized record or the reason it was skipped.
type Outcome struct {
	Record  *engine.NormalizedRecord
	Skipped string
}

// OK reports whether the outcome carries a record.
func (o Outcome) OK() bool { return o.Record != nil }

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

// Normalize is deterministic for a fixed clock. Text fields are carried over
// verbatim so normalizing rec.Source() again reproduces the same typed values.
func (n *Normalizer) Normalize(r engine.CandidateRecord) engine.NormalizedRecord {
	t := n.Tables
	now := n.now()

	lo, hi := ParseCompensation(r.CompensationText, t)
	loc := ParseLocation(r.LocationText, t)

	inferred := strings.TrimSpace(r.SummaryText + " " + r.RequirementsText)

	employmentText := r.EmploymentTypeText
	if strings.TrimSpace(employmentText) == "" {
		employmentText = inferred
	}
	experienceText, dedicated := r.ExperienceText, true
	if strings.TrimSpace(experienceText) == "" {
		experienceText, dedicated = inferred, false
	}

	mergeCount := r.MergeCount
	if mergeCount < 1 {
		mergeCount = 1
	}
	sources := append([]string(nil), r.MergedSources...)
	if len(sources) == 0 && r.ListingURL != "" {
		sources = []string{r.ListingURL}
	}

	return engine.NormalizedRecord{
		Title:              r.Title,
		Organization:       r.Organization,
		LocationText:       r.LocationText,
		SummaryText:        r.SummaryText,
		RequirementsText:   r.RequirementsText,
		BenefitsText:       r.BenefitsText,
		CompensationText:   r.CompensationText,
		ListingURL:         r.ListingURL,
		PostingDateText:    r.PostingDateText,
		EmploymentTypeText: r.EmploymentTypeText,
		ExperienceText:     r.ExperienceText,
		Keywords:           append([]string(nil), r.Keywords...),
		CompensationMin:    lo,
		CompensationMax:    hi,
		LocationCity:       loc.City,
		LocationRegion:     loc.Region,
		IsRemote:           loc.IsRemote,
		EmploymentType:     ClassifyEmployment(employmentText, t),
		ExperienceLevel:    ClassifyExperience(experienceText, dedicated, t),
		PostingDate:        ParsePostingDate(r.PostingDateText, now),
		Industry:           ClassifyIndustry(r.Title+" "+r.Organization+" "+r.SummaryText, t),
		Fingerprint:        t.Fingerprint(r.Organization, r.Title, r.LocationText),
		OriginSite:         r.OriginSite,
		SourceFile:         r.SourceFile,
		IsMerged:           r.IsMerged && mergeCount > 1,
		MergeCount:         mergeCount,
		MergedSources:      sources,
		NormalizedAt:       now.UTC(),
	}
}

// Safe runs Normalize and converts a panic into a skipped outcome.
func (n *Normalizer) Safe(r engine.CandidateRecord) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = Outcome{Skipped: fmt.Sprintf("normalize %q: %v", r.Title, p)}
		}
	}()
	rec := n.Normalize(r)
	return Outcome{Record: &rec}
}
