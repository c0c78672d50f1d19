package engine

import (
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	looksHTMLRe  = regexp.MustCompile(`(?i)<(p|br|div|ul|ol|li|span|strong|em|b|i|h[1-6]|a)[\s/>]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanHTML strips HTML tags and trims whitespace.
func CleanHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// LooksLikeHTML reports whether s carries common inline or block markup.
func LooksLikeHTML(s string) bool {
	return looksHTMLRe.MatchString(s)
}

// CollapseSpace trims s and folds every whitespace run into a single space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// WordPattern compiles a case-insensitive matcher for any of the given phrases,
// anchored on word boundaries so "intern" never matches "internal".
// Returns nil for an empty list.
func WordPattern(phrases []string) *regexp.Regexp {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(p)))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// TruncateAtWord truncates a string to maxLen runes at a word boundary.
func TruncateAtWord(s string, maxLen int) string {
	return strutil.TruncateAtWord(s, maxLen)
}
