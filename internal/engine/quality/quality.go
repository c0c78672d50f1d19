// Package quality computes completeness and anomaly statistics over a finished batch.
package quality

import (
	"encoding/json"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/toolutil"
)

// Field requirement levels.
const (
	Required    = "required"
	Recommended = "recommended"
	Optional    = "optional"
)

var (
	requiredFields    = []string{"title", "organization", "location_city"}
	recommendedFields = []string{"summary_text", "listing_url", "compensation_min"}
)

// Config holds the thresholds used by the anomaly checks.
type Config struct {
	SalaryFloor        int
	SalaryCeiling      int
	MaxAgeDays         int
	CompanyShareLimit  float64 // percent
	LocationShareLimit float64 // percent
	Now                func() time.Time
}

// ConfigFrom derives a monitor configuration from the pipeline config.
func ConfigFrom(c *engine.Config) Config {
	return Config{
		SalaryFloor:        c.SalaryFloor,
		SalaryCeiling:      c.SalaryCeiling,
		MaxAgeDays:         c.QualityMaxAgeDays,
		CompanyShareLimit:  c.CompanyShareLimit,
		LocationShareLimit: c.LocationShareLimit,
		Now:                time.Now,
	}
}

// Monitor analyzes record sets. It never modifies its input.
type Monitor struct {
	Config Config
}

// FieldCompleteness is the share of records with a non-empty value for one field.
type FieldCompleteness struct {
	Field       string  `json:"field"`
	Present     int     `json:"present"`
	Percentage  float64 `json:"percentage"`
	Requirement string  `json:"requirement"`
}

// Anomaly is one advisory finding. RecordIndex is nil for batch-level findings.
type Anomaly struct {
	Type        string         `json:"type"`
	Subtype     string         `json:"subtype"`
	RecordIndex *int           `json:"record_index,omitempty"`
	Details     map[string]any `json:"details"`
}

// Report is the read-only quality summary of one batch.
type Report struct {
	TotalRecords        int                 `json:"total_records"`
	Completeness        []FieldCompleteness `json:"completeness"`
	OverallCompleteness float64             `json:"overall_completeness"`
	Anomalies           []Anomaly           `json:"anomalies"`
	AnomalyCounts       map[string]int      `json:"anomaly_counts"`
	AnomalyRate         float64             `json:"anomaly_rate"`
	Recommendations     []string            `json:"recommendations"`
	GeneratedAt         time.Time           `json:"generated_at"`
}

// Analyze computes completeness, anomalies and recommendations for records.
func (m *Monitor) Analyze(records []engine.NormalizedRecord) Report {
	now := time.Now()
	if m.Config.Now != nil {
		now = m.Config.Now()
	}

	rep := Report{
		TotalRecords:  len(records),
		AnomalyCounts: map[string]int{},
		GeneratedAt:   now.UTC(),
	}
	rep.Completeness = completeness(records)
	rep.OverallCompleteness = overallScore(rep.Completeness)
	rep.Anomalies = m.anomalies(records, now)
	for _, a := range rep.Anomalies {
		rep.AnomalyCounts[a.Type]++
	}
	if len(records) > 0 {
		rep.AnomalyRate = round2(float64(len(rep.Anomalies)) / float64(len(records)) * 100)
	}
	rep.Recommendations = recommend(&rep)
	return rep
}

// Field returns the completeness entry for name, if the field was observed.
func (r *Report) Field(name string) (FieldCompleteness, bool) {
	for _, f := range r.Completeness {
		if f.Field == name {
			return f, true
		}
	}
	return FieldCompleteness{}, false
}

// LoadArtifact reads a batch artifact from disk.
func LoadArtifact(path string) (engine.Artifact, error) {
	a, err := toolutil.ReadJSONFile[engine.Artifact](path)
	if err != nil {
		return engine.Artifact{}, errors.Wrap(err, "load artifact")
	}
	return a, nil
}

// completeness measures every JSON field key observed across the batch.
// Required and recommended fields are always reported, at 0% when never seen.
func completeness(records []engine.NormalizedRecord) []FieldCompleteness {
	present := map[string]int{}
	for _, k := range append(slices.Clone(requiredFields), recommendedFields...) {
		present[k] = 0
	}
	for i := range records {
		data, err := json.Marshal(&records[i])
		if err != nil {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			continue
		}
		for k, v := range fields {
			if _, ok := present[k]; !ok {
				present[k] = 0
			}
			if nonEmpty(v) {
				present[k]++
			}
		}
	}

	out := make([]FieldCompleteness, 0, len(present))
	for k, n := range present {
		pct := 0.0
		if len(records) > 0 {
			pct = round2(float64(n) / float64(len(records)) * 100)
		}
		out = append(out, FieldCompleteness{Field: k, Present: n, Percentage: pct, Requirement: requirement(k)})
	}
	slices.SortFunc(out, func(a, b FieldCompleteness) int {
		return strings.Compare(a.Field, b.Field)
	})
	return out
}

func nonEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return engine.CollapseSpace(x) != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

func requirement(field string) string {
	switch {
	case slices.Contains(requiredFields, field):
		return Required
	case slices.Contains(recommendedFields, field):
		return Recommended
	default:
		return Optional
	}
}

// overallScore is 0.7 x mean(required) + 0.3 x mean(recommended).
func overallScore(fields []FieldCompleteness) float64 {
	var req, rec []float64
	for _, f := range fields {
		switch f.Requirement {
		case Required:
			req = append(req, f.Percentage)
		case Recommended:
			rec = append(rec, f.Percentage)
		}
	}
	return round2(0.7*mean(req) + 0.3*mean(rec))
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
