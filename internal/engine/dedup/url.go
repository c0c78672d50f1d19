package dedup

import (
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// CanonicalURL normalizes a listing URL for exact-locator matching: tracking
// parameters and the fragment are dropped, the scheme is forced to https, the
// trailing slash is removed and the result is lower-cased.
// Returns "" for a blank URL; text that does not parse is compared as-is.
func CanonicalURL(raw string, t *engine.Tables) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	} else if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	u.Scheme = "https"
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	q := u.Query()
	for name := range q {
		if t.IsTrackingParam(name) {
			q.Del(name)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return strings.ToLower(u.String())
}
