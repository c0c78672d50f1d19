package normalize

import (
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// Location is a parsed place. Region is a two-letter code when known.
type Location struct {
	City     string
	Region   string
	IsRemote bool
}

var (
	cityRegionRe = regexp.MustCompile(`^(.+?),\s*([A-Za-z][A-Za-z .]*?)\.?(?:\s+(\d{5}(?:-\d{4})?))?$`)
	countryRe    = regexp.MustCompile(`(?i),\s*(?:usa|us|u\.s\.a?\.?|united states(?: of america)?)$`)
)

// ParseLocation splits "City, Region[ ZIP]" text. Remote listings become
// ("Remote", "", true); text that does not match becomes the city.
func ParseLocation(text string, t *engine.Tables) Location {
	s := engine.CollapseSpace(text)
	if s == "" {
		return Location{}
	}
	if t.MentionsRemote(s) {
		return Location{City: "Remote", IsRemote: true}
	}
	s = strings.TrimSpace(countryRe.ReplaceAllString(s, ""))

	m := cityRegionRe.FindStringSubmatch(s)
	if m == nil {
		return Location{City: s}
	}
	city := strings.TrimSpace(m[1])
	region := strings.TrimSpace(m[2])
	if code, ok := t.StateCode(region); ok {
		region = code
	}
	return Location{City: city, Region: region}
}
