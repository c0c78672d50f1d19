package quality

import "fmt"

const (
	maxRecommendations   = 10
	overallTarget        = 80.0
	requiredTarget       = 90.0
	recommendedTarget    = 50.0
	anomalyRateThreshold = 10.0

	allGood = "Data quality is good; no action needed."
)

// recommend derives at most maxRecommendations remediation hints from a report.
func recommend(rep *Report) []string {
	var out []string
	add := func(format string, args ...any) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	if rep.TotalRecords > 0 && rep.OverallCompleteness < overallTarget {
		add("Overall completeness is %.1f%%; review extractor selectors for the affected sources.", rep.OverallCompleteness)
	}
	for _, f := range rep.Completeness {
		if rep.TotalRecords == 0 {
			break
		}
		switch {
		case f.Requirement == Required && f.Percentage < requiredTarget:
			add("Required field %q is present in only %.1f%% of records.", f.Field, f.Percentage)
		case f.Requirement == Recommended && f.Percentage < recommendedTarget:
			add("Recommended field %q is present in only %.1f%% of records.", f.Field, f.Percentage)
		}
	}
	if rep.AnomalyRate > anomalyRateThreshold {
		add("Anomaly rate is %.1f%%; inspect the anomalies before importing.", rep.AnomalyRate)
	}
	if n := rep.AnomalyCounts[TypeSalary]; n > 0 {
		add("%d salary anomalies found; check compensation parsing and pay period handling.", n)
	}
	if n := rep.AnomalyCounts[TypeCompany]; n > 0 {
		add("%d organizations dominate the batch; verify the scrape is not stuck on one employer.", n)
	}
	if n := rep.AnomalyCounts[TypeLocation]; n > 0 {
		add("%d locations dominate the batch; broaden the scrape's geographic coverage.", n)
	}
	if n := rep.AnomalyCounts[TypeDate]; n > 0 {
		add("%d date anomalies found; check posting date formats from the source sites.", n)
	}
	if n := rep.AnomalyCounts[TypeTitle]; n > 0 {
		add("%d title anomalies found; review title cleanup rules.", n)
	}

	if len(out) == 0 {
		return []string{allGood}
	}
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}
