package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// amount matches "50,000", "50000", "50.5" with an optional "k" suffix.
const amount = `(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?(?:\s*(k)\b)?`

const rangeSep = `\s*(?:-|–|—|to)\s*`

// Ordered compensation shapes; the first match wins.
var (
	dollarRangeRe = regexp.MustCompile(`\$\s*` + amount + rangeSep + `\$?\s*` + amount)
	kRangeRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*k` + rangeSep + `\$?\s*(\d+(?:\.\d+)?)\s*k\b`)
	bareRangeRe   = regexp.MustCompile(`\b` + amount + rangeSep + amount)
	upToRe        = regexp.MustCompile(`up\s+to\s*\$?\s*` + amount)
	startingAtRe  = regexp.MustCompile(`starting\s+(?:at|from)\s*\$?\s*` + amount)
	dollarRe      = regexp.MustCompile(`\$\s*` + amount)
	bareAmountRe  = regexp.MustCompile(`^` + amount + `$`)
)

// ParseCompensation extracts a (min, max) pay range from free text.
// Either bound may be nil; unparseable text yields (nil, nil).
func ParseCompensation(text string, t *engine.Tables) (lo, hi *int) {
	s := strings.ToLower(engine.CollapseSpace(text))
	if s == "" {
		return nil, nil
	}

	if m := dollarRangeRe.FindStringSubmatch(s); m != nil {
		return parseAmount(m[1], m[2], m[3]), parseAmount(m[4], m[5], m[6])
	}
	if m := kRangeRe.FindStringSubmatch(s); m != nil {
		return parseAmount(m[1], "", "k"), parseAmount(m[2], "", "k")
	}
	if t.MentionsAnnual(s) {
		if m := bareRangeRe.FindStringSubmatch(s); m != nil {
			return parseAmount(m[1], m[2], m[3]), parseAmount(m[4], m[5], m[6])
		}
	}
	if m := upToRe.FindStringSubmatch(s); m != nil {
		return nil, parseAmount(m[1], m[2], m[3])
	}
	if m := startingAtRe.FindStringSubmatch(s); m != nil {
		return parseAmount(m[1], m[2], m[3]), nil
	}
	if m := dollarRe.FindStringSubmatch(s); m != nil {
		v := parseAmount(m[1], m[2], m[3])
		return v, intPtr(v)
	}
	if m := bareAmountRe.FindStringSubmatch(s); m != nil {
		v := parseAmount(m[1], m[2], m[3])
		return v, intPtr(v)
	}
	return nil, nil
}

// parseAmount strips separators and expands a "k" suffix ×1000. Figures that
// do not fit a 32-bit integer column are treated as absent.
func parseAmount(whole, frac, k string) *int {
	f, err := strconv.ParseFloat(strings.ReplaceAll(whole, ",", "")+frac, 64)
	if err != nil {
		return nil
	}
	if k != "" {
		f *= 1000
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Round(f) > math.MaxInt32 {
		return nil
	}
	v := int(math.Round(f))
	return &v
}

// intPtr copies the pointed-to value so min and max never alias.
func intPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
