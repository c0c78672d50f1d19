package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	zipRe           = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
)

// FingerprintTitle lower-cases a title and strips parenthetical asides and
// known suffix phrases ("- remote", "- 6 month contract").
func (t *Tables) FingerprintTitle(title string) string {
	s := strings.ToLower(title)
	s = parentheticalRe.ReplaceAllString(s, " ")
	s = CollapseSpace(s)
	s = t.TrimTitleSuffixes(s)
	return strings.TrimRight(s, " -|,:")
}

// FingerprintLocation collapses any remote location to "remote" and drops ZIP codes.
func (t *Tables) FingerprintLocation(location string) string {
	s := strings.ToLower(CollapseSpace(location))
	if strings.Contains(s, "remote") {
		return "remote"
	}
	s = zipRe.ReplaceAllString(s, "")
	return strings.TrimRight(CollapseSpace(s), " ,")
}

// Fingerprint hashes organization, title and location into a content key that
// is stable across sources which format the same listing differently.
func (t *Tables) Fingerprint(organization, title, location string) string {
	key := strings.ToLower(CollapseSpace(organization)) + "|" +
		t.FingerprintTitle(title) + "|" +
		t.FingerprintLocation(location)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
