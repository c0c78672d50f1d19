package quality

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/engine/normalize"
)

// Anomaly types and subtypes.
const (
	TypeSalary   = "salary_anomaly"
	TypeTitle    = "title_anomaly"
	TypeDate     = "date_anomaly"
	TypeCompany  = "company_anomaly"
	TypeLocation = "location_anomaly"

	SubBelowMinimum         = "below_minimum"
	SubAboveMaximum         = "above_maximum"
	SubMinExceedsMax        = "min_exceeds_max"
	SubWordCount            = "word_count"
	SubAllCaps              = "all_caps"
	SubTooOld               = "too_old"
	SubFutureDate           = "future_date"
	SubUnparseable          = "unparseable"
	SubExcessivePostings    = "excessive_job_postings"
	SubLocationConcentrated = "location_concentration"
)

const (
	minTitleWords  = 1
	maxTitleWords  = 15
	allCapsMinLen  = 10
	titlePreviewLn = 60
)

func (m *Monitor) anomalies(records []engine.NormalizedRecord, now time.Time) []Anomaly {
	var out []Anomaly
	for i := range records {
		r := &records[i]
		out = append(out, m.salaryAnomalies(i, r)...)
		out = append(out, titleAnomalies(i, r)...)
		out = append(out, m.dateAnomalies(i, r, now)...)
	}
	out = append(out, shareAnomalies(records, TypeCompany, SubExcessivePostings, "organization", m.Config.CompanyShareLimit, companyKey)...)
	out = append(out, shareAnomalies(records, TypeLocation, SubLocationConcentrated, "location", m.Config.LocationShareLimit, locationKey)...)
	return out
}

func (m *Monitor) salaryAnomalies(i int, r *engine.NormalizedRecord) []Anomaly {
	lo, hi := r.CompensationMin, r.CompensationMax
	if lo == nil {
		lo = hi
	}
	if hi == nil {
		hi = lo
	}
	if lo == nil {
		return nil
	}

	var out []Anomaly
	if *lo < m.Config.SalaryFloor {
		out = append(out, recordAnomaly(TypeSalary, SubBelowMinimum, i, map[string]any{
			"value": *lo, "threshold": m.Config.SalaryFloor,
		}))
	}
	if *hi > m.Config.SalaryCeiling {
		out = append(out, recordAnomaly(TypeSalary, SubAboveMaximum, i, map[string]any{
			"value": *hi, "threshold": m.Config.SalaryCeiling,
		}))
	}
	if r.CompensationMin != nil && r.CompensationMax != nil && *r.CompensationMin > *r.CompensationMax {
		out = append(out, recordAnomaly(TypeSalary, SubMinExceedsMax, i, map[string]any{
			"min": *r.CompensationMin, "max": *r.CompensationMax,
		}))
	}
	return out
}

func titleAnomalies(i int, r *engine.NormalizedRecord) []Anomaly {
	var out []Anomaly
	preview := engine.TruncateAtWord(r.Title, titlePreviewLn)
	words := len(strings.Fields(r.Title))
	if words < minTitleWords || words > maxTitleWords {
		out = append(out, recordAnomaly(TypeTitle, SubWordCount, i, map[string]any{
			"title": preview, "word_count": words,
		}))
	}
	if len([]rune(strings.TrimSpace(r.Title))) > allCapsMinLen && isAllCaps(r.Title) {
		out = append(out, recordAnomaly(TypeTitle, SubAllCaps, i, map[string]any{
			"title": preview,
		}))
	}
	return out
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, c := range s {
		if unicode.IsLetter(c) {
			hasLetter = true
			if unicode.IsLower(c) {
				return false
			}
		}
	}
	return hasLetter
}

// dateAnomalies classifies the posting date. A blank PostingDate whose text is
// still a readable calendar date was rejected by the normalizer for its age,
// so it is judged by that date rather than reported as unparseable.
func (m *Monitor) dateAnomalies(i int, r *engine.NormalizedRecord, now time.Time) []Anomaly {
	var d time.Time
	if r.PostingDate == "" {
		if strings.TrimSpace(r.PostingDateText) == "" {
			return nil
		}
		parsed, ok := normalize.ParseAbsoluteDate(r.PostingDateText, now.Location())
		if !ok {
			return []Anomaly{recordAnomaly(TypeDate, SubUnparseable, i, map[string]any{
				"posting_date_text": engine.TruncateAtWord(r.PostingDateText, titlePreviewLn),
			})}
		}
		d = parsed
	} else {
		parsed, err := time.ParseInLocation(engine.DateLayout, r.PostingDate, now.Location())
		if err != nil {
			return []Anomaly{recordAnomaly(TypeDate, SubUnparseable, i, map[string]any{
				"posting_date": r.PostingDate,
			})}
		}
		d = parsed
	}

	posted := d.Format(engine.DateLayout)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case d.After(today):
		return []Anomaly{recordAnomaly(TypeDate, SubFutureDate, i, map[string]any{
			"posting_date": posted,
		})}
	case m.Config.MaxAgeDays > 0 && d.Before(today.AddDate(0, 0, -m.Config.MaxAgeDays)):
		return []Anomaly{recordAnomaly(TypeDate, SubTooOld, i, map[string]any{
			"posting_date": posted,
			"age_days":     int(today.Sub(d).Hours() / 24),
			"max_age_days": m.Config.MaxAgeDays,
		})}
	}
	return nil
}

func companyKey(r *engine.NormalizedRecord) (string, string) {
	name := engine.CollapseSpace(r.Organization)
	return strings.ToLower(name), name
}

func locationKey(r *engine.NormalizedRecord) (string, string) {
	if r.IsRemote {
		return "remote", "Remote"
	}
	label := engine.CollapseSpace(r.LocationCity)
	if r.LocationRegion != "" {
		label += ", " + r.LocationRegion
	}
	return strings.ToLower(label), label
}

// shareAnomalies flags every key whose share of the batch exceeds limit percent.
func shareAnomalies(records []engine.NormalizedRecord, typ, subtype, label string, limit float64,
	key func(*engine.NormalizedRecord) (string, string)) []Anomaly {
	if len(records) == 0 || limit <= 0 {
		return nil
	}
	counts := map[string]int{}
	labels := map[string]string{}
	var order []string
	for i := range records {
		k, l := key(&records[i])
		if k == "" {
			continue
		}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
			labels[k] = l
		}
		counts[k]++
	}
	slices.SortStableFunc(order, func(a, b string) int { return counts[b] - counts[a] })

	var out []Anomaly
	for _, k := range order {
		pct := round2(float64(counts[k]) / float64(len(records)) * 100)
		if pct <= limit {
			continue
		}
		out = append(out, Anomaly{Type: typ, Subtype: subtype, Details: map[string]any{
			label:        labels[k],
			"count":      counts[k],
			"percentage": pct,
			"threshold":  limit,
		}})
	}
	return out
}

func recordAnomaly(typ, subtype string, i int, details map[string]any) Anomaly {
	idx := i
	return Anomaly{Type: typ, Subtype: subtype, RecordIndex: &idx, Details: details}
}
