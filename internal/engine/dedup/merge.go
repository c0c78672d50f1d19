package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// completenessScore ranks group members when choosing the merge base.
func completenessScore(r *engine.CandidateRecord) int {
	score := r.NonEmptyFieldCount()
	if strings.TrimSpace(r.CompensationText) != "" {
		score += 10
	}
	if utf8.RuneCountInString(r.SummaryText) > 50 {
		score += 5
	}
	if strings.TrimSpace(r.RequirementsText) != "" {
		score += 3
	}
	if strings.TrimSpace(r.PostingDateText) != "" {
		score += 2
	}
	return score
}

// mergeableFields exposes the text fields a merge may overwrite.
func mergeableFields(r *engine.CandidateRecord) []*string {
	return []*string{
		&r.SummaryText,
		&r.RequirementsText,
		&r.BenefitsText,
		&r.CompensationText,
		&r.EmploymentTypeText,
		&r.ExperienceText,
	}
}

// merge folds a duplicate group into one new record. The member with the best
// completeness score is the base (first one on ties); every other member
// donates a mergeable value when the base lacks it or when the donor's value
// is more than factor times longer. Inputs are not modified.
func merge(group []*engine.CandidateRecord, factor float64) engine.CandidateRecord {
	baseIdx, best := 0, -1
	for i, r := range group {
		if s := completenessScore(r); s > best {
			baseIdx, best = i, s
		}
	}

	out := group[baseIdx].Clone()
	dst := mergeableFields(&out)
	for i, r := range group {
		if i == baseIdx {
			continue
		}
		src := mergeableFields(r)
		for f := range dst {
			if prefer(*dst[f], *src[f], factor) {
				*dst[f] = *src[f]
			}
		}
		if prefer(strings.Join(out.Keywords, ", "), strings.Join(r.Keywords, ", "), factor) {
			out.Keywords = append([]string(nil), r.Keywords...)
		}
	}

	count := 0
	var sources []string
	for _, r := range group {
		count += max(r.MergeCount, 1)
		if len(r.MergedSources) > 0 {
			sources = append(sources, r.MergedSources...)
		} else if r.ListingURL != "" {
			sources = append(sources, r.ListingURL)
		}
	}
	out.IsMerged = true
	out.MergeCount = count
	out.MergedSources = sources
	return out
}

// prefer reports whether candidate should replace current.
func prefer(current, candidate string, factor float64) bool {
	candLen := utf8.RuneCountInString(strings.TrimSpace(candidate))
	if candLen == 0 {
		return false
	}
	curLen := utf8.RuneCountInString(strings.TrimSpace(current))
	if curLen == 0 {
		return true
	}
	return float64(candLen) > factor*float64(curLen)
}
