package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

var (
	yearsExperienceRe = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:-\s*\d{1,2}\s*)?(?:years?|yrs?)\.?(?:\s+of)?(?:\s+\w+)?\s+(?:experience|exp)\b`)
	yearsOnlyRe       = regexp.MustCompile(`(?i)^\s*(\d{1,2})\s*\+?\s*(?:-\s*\d{1,2}\s*)?(?:years?|yrs?)\b`)
)

// ClassifyEmployment scans text against the ordered employment keyword sets.
// Defaults to full_time.
func ClassifyEmployment(text string, t *engine.Tables) engine.EmploymentType {
	s := scanText(text)
	for i := range t.EmploymentTypes {
		if t.EmploymentTypes[i].Match(s) {
			return engine.EmploymentType(t.EmploymentTypes[i].Name)
		}
	}
	return engine.FullTime
}

// ClassifyExperience tries "N+ years experience" first, then the ordered
// seniority keyword sets. dedicated marks text taken from an experience field,
// where a bare "5 years" is enough.
func ClassifyExperience(text string, dedicated bool, t *engine.Tables) engine.ExperienceLevel {
	s := scanText(text)
	if s == "" {
		return engine.LevelUnspecified
	}
	m := yearsExperienceRe.FindStringSubmatch(s)
	if m == nil && dedicated {
		m = yearsOnlyRe.FindStringSubmatch(s)
	}
	if m != nil {
		if years, err := strconv.Atoi(m[1]); err == nil {
			return levelForYears(years)
		}
	}
	for i := range t.ExperienceLevels {
		if t.ExperienceLevels[i].Match(s) {
			return engine.ExperienceLevel(t.ExperienceLevels[i].Name)
		}
	}
	return engine.LevelUnspecified
}

func levelForYears(years int) engine.ExperienceLevel {
	switch {
	case years <= 2:
		return engine.LevelEntry
	case years <= 6:
		return engine.LevelMid
	default:
		return engine.LevelSenior
	}
}

// ClassifyIndustry scores every industry by keyword hits; ties go to the
// earlier industry. Returns "Not specified" when nothing matches.
func ClassifyIndustry(text string, t *engine.Tables) string {
	s := scanText(text)
	best, bestScore := engine.IndustryNotSpecified, 0
	for i := range t.Industries {
		if score := t.Industries[i].Count(s); score > bestScore {
			best, bestScore = t.Industries[i].Name, score
		}
	}
	return best
}

// scanText makes enum-style values ("FULL_TIME") readable by the word matchers.
func scanText(text string) string {
	return engine.CollapseSpace(strings.ReplaceAll(text, "_", " "))
}
