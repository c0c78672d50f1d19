package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// maxPostingAge bounds absolute dates; older ones are treated as absent.
const maxPostingAge = 365

var (
	hoursAgoRe  = regexp.MustCompile(`^(?:\d+|an?)\s*(?:minutes?|mins?|hours?|hrs?)\s+ago$`)
	daysAgoRe   = regexp.MustCompile(`^(\d+|an?)\+?\s*(days?|weeks?|months?)\s+ago$`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[t ].*)?$`)
	usSlashRe   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	usDashRe    = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	postedOnRe  = regexp.MustCompile(`^(?:posted|published|listed)(?:\s+on)?:?\s+`)
	relativeDay = map[string]int{"today": 0, "just posted": 0, "just now": 0, "yesterday": 1}
)

// ParsePostingDate resolves relative phrases against now and validates absolute
// dates. Returns an ISO calendar date, or "" when the text is absent or rejected.
func ParsePostingDate(text string, now time.Time) string {
	s := strings.ToLower(engine.CollapseSpace(text))
	s = postedOnRe.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if days, ok := relativeDay[s]; ok {
		return today.AddDate(0, 0, -days).Format(engine.DateLayout)
	}
	if hoursAgoRe.MatchString(s) {
		return today.Format(engine.DateLayout)
	}
	if m := daysAgoRe.FindStringSubmatch(s); m != nil {
		n := 1
		if m[1] != "a" && m[1] != "an" {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return ""
			}
			n = v
		}
		switch {
		case strings.HasPrefix(m[2], "week"):
			n *= 7
		case strings.HasPrefix(m[2], "month"):
			n *= 30
		}
		return today.AddDate(0, 0, -n).Format(engine.DateLayout)
	}

	date, ok := parseAbsolute(s, now.Location())
	if !ok || date.After(today) || date.Before(today.AddDate(0, 0, -maxPostingAge)) {
		return ""
	}
	return date.Format(engine.DateLayout)
}

// ParseAbsoluteDate reads an ISO or US calendar date without the recency
// window, so callers can tell a rejected date from unreadable text.
func ParseAbsoluteDate(text string, loc *time.Location) (time.Time, bool) {
	s := strings.ToLower(engine.CollapseSpace(text))
	return parseAbsolute(postedOnRe.ReplaceAllString(s, ""), loc)
}

func parseAbsolute(s string, loc *time.Location) (time.Time, bool) {
	var y, mo, d string
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		y, mo, d = m[1], m[2], m[3]
	} else if m := usSlashRe.FindStringSubmatch(s); m != nil {
		mo, d, y = m[1], m[2], m[3]
	} else if m := usDashRe.FindStringSubmatch(s); m != nil {
		mo, d, y = m[1], m[2], m[3]
	} else {
		return time.Time{}, false
	}
	return calendarDate(y, mo, d, loc)
}

// calendarDate builds a date and rejects overflow such as 02/30.
func calendarDate(y, m, d string, loc *time.Location) (time.Time, bool) {
	yi, err1 := strconv.Atoi(y)
	mi, err2 := strconv.Atoi(m)
	di, err3 := strconv.Atoi(d)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	t := time.Date(yi, time.Month(mi), di, 0, 0, 0, 0, loc)
	if t.Year() != yi || int(t.Month()) != mi || t.Day() != di {
		return time.Time{}, false
	}
	return t, true
}
