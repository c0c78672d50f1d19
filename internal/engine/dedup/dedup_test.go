package dedup

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

func newDetector() *Detector {
	return &Detector{Tables: engine.DefaultTables(), Threshold: DefaultThreshold, LengthFactor: DefaultLengthFactor}
}

func rec(title, org, loc, url string) engine.CandidateRecord {
	return engine.CandidateRecord{Title: title, Organization: org, LocationText: loc, ListingURL: url}
}

// sourcesOf lists the URLs an output record accounts for.
func sourcesOf(r engine.CandidateRecord) []string {
	if r.IsMerged {
		return r.MergedSources
	}
	if r.ListingURL == "" {
		return nil
	}
	return []string{r.ListingURL}
}

func TestDeduplicateURLPhase(t *testing.T) {
	d := newDetector()
	in := []engine.CandidateRecord{
		rec("Go Developer", "Acme", "Austin, TX", "https://jobs.example.com/1?utm_source=feed"),
		rec("Rust Developer", "Globex", "Remote", "https://jobs.example.com/2"),
		rec("Golang Engineer", "Acme Inc", "Austin", "http://JOBS.example.com/1/#top"),
	}
	out, stats := d.Deduplicate(in)
	require.Len(t, out, 2)

	assert.True(t, out[0].IsMerged)
	assert.Equal(t, 2, out[0].MergeCount)
	assert.Equal(t, []string{in[0].ListingURL, in[2].ListingURL}, out[0].MergedSources)
	assert.Equal(t, "Rust Developer", out[1].Title)
	assert.False(t, out[1].IsMerged)

	assert.Equal(t, 1, stats.URLDuplicateGroups)
	assert.Equal(t, 0, stats.ContentDuplicateGroups)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 33.33, stats.DuplicateRate)
}

func TestDeduplicateFingerprintPhase(t *testing.T) {
	d := newDetector()
	in := []engine.CandidateRecord{
		rec("Data Analyst - Remote", "Initech", "Remote", "https://a.example/1"),
		rec("Nurse", "Mercy", "Columbus, OH", ""),
		rec("Data Analyst (Contract)", "INITECH", "Remote - US", "https://b.example/9"),
		rec("Data Analyst", "Initech", "Remote", ""),
	}
	out, stats := d.Deduplicate(in)
	require.Len(t, out, 2)
	assert.True(t, out[0].IsMerged)
	assert.Equal(t, 3, out[0].MergeCount)
	assert.Equal(t, []string{"https://a.example/1", "https://b.example/9"}, out[0].MergedSources)
	assert.Equal(t, "Nurse", out[1].Title)

	assert.Equal(t, 0, stats.URLDuplicateGroups)
	assert.Equal(t, 1, stats.ContentDuplicateGroups)
	assert.Equal(t, 0, stats.FuzzyDuplicateGroups)
	assert.Equal(t, 50.0, stats.DuplicateRate)
}

func TestFuzzyBoundary(t *testing.T) {
	d := newDetector()

	a := rec("Senior Backend Engineer", "Acme", "Austin, TX", "")
	b := rec("Senior Backend Engineer (Remote)", "Acme", "Austin, TX", "")
	assert.True(t, d.IsFuzzyMatch(&a, &b))
	out, _ := d.Deduplicate([]engine.CandidateRecord{a, b})
	assert.Len(t, out, 1)

	c := rec("Backend Engineer", "Acme", "Austin, TX", "")
	e := rec("Frontend Engineer", "Acme", "Austin, TX", "")
	assert.False(t, d.IsFuzzyMatch(&c, &e))
	out, _ = d.Deduplicate([]engine.CandidateRecord{c, e})
	assert.Len(t, out, 2)
}

func TestFuzzyPhase(t *testing.T) {
	d := newDetector()
	in := []engine.CandidateRecord{
		rec("Senior Backend Engineer", "Acme", "Austin, TX", "https://a.example/1"),
		rec("Senior Backend Engineer II", "acme", "Remote", "https://b.example/2"),
		rec("Senior Backend Engineer II", "Globex", "Austin, TX", "https://c.example/3"),
		rec("Senior Backend Engineer", "Acme", "Boston, MA", "https://d.example/4"),
	}
	out, stats := d.Deduplicate(in)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"https://a.example/1", "https://b.example/2"}, out[0].MergedSources)
	assert.Equal(t, 1, stats.FuzzyDuplicateGroups)
	assert.Equal(t, 1, stats.ContentDuplicateGroups)
}

func TestFuzzyGreedyOrder(t *testing.T) {
	d := &Detector{Tables: engine.DefaultTables(), Threshold: 0.9}
	a := rec("Platform Engineer", "Acme", "Denver, CO", "")
	b := rec("Platform Engineer II", "Acme", "Denver, CO", "")
	c := rec("Platform Engineer III", "Acme", "Denver, CO", "")
	require.False(t, d.IsFuzzyMatch(&a, &c))
	require.True(t, d.IsFuzzyMatch(&b, &c))

	out, stats := d.Deduplicate([]engine.CandidateRecord{a, b, c})
	require.Len(t, out, 2, "anchor A takes B; C stays alone even though it matches B")
	assert.Equal(t, 2, out[0].MergeCount)
	assert.Equal(t, "Platform Engineer III", out[1].Title)
	assert.Equal(t, 1, stats.FuzzyDuplicateGroups)
}

func TestDeduplicateMalformedPassThrough(t *testing.T) {
	d := newDetector()
	in := []engine.CandidateRecord{
		{Organization: "Acme", LocationText: "Remote"},
		{Organization: "Acme", LocationText: "Remote"},
		{Title: "Go Developer"},
		{},
	}
	out, stats := d.Deduplicate(in)
	assert.Len(t, out, 4)
	assert.Equal(t, 0, stats.DuplicatesRemoved)
}

func TestDeduplicateEmpty(t *testing.T) {
	out, stats := newDetector().Deduplicate(nil)
	assert.Empty(t, out)
	assert.Equal(t, Stats{}, stats)
}

func TestMergeBaseSelection(t *testing.T) {
	plain := rec("Go Developer", "Acme", "Austin, TX", "https://a.example/1")
	rich := rec("Go Developer", "Acme", "Austin, TX", "https://a.example/1?utm_source=x")
	rich.CompensationText = "$100,000 - $120,000"
	rich.PostingDateText = "2 days ago"

	out, _ := newDetector().Deduplicate([]engine.CandidateRecord{plain, rich})
	require.Len(t, out, 1)
	assert.Equal(t, rich.ListingURL, out[0].ListingURL, "richest record is the base")
	assert.Equal(t, "$100,000 - $120,000", out[0].CompensationText)
}

func TestMergeLengthFactor(t *testing.T) {
	base := rec("Go Developer", "Acme", "Austin, TX", "https://a.example/1")
	base.CompensationText = "$100k"
	base.SummaryText = strings.Repeat("s", 20)
	base.BenefitsText = strings.Repeat("b", 20)

	donor := rec("Go Developer", "Acme", "Austin, TX", "https://a.example/1")
	donor.SummaryText = strings.Repeat("S", 29)  // < 1.5x, ignored
	donor.BenefitsText = strings.Repeat("B", 31) // > 1.5x, taken
	donor.RequirementsText = "Go, SQL"           // base empty, taken
	donor.Keywords = []string{"go"}

	out, _ := newDetector().Deduplicate([]engine.CandidateRecord{base, donor})
	require.Len(t, out, 1)
	m := out[0]
	assert.Equal(t, base.SummaryText, m.SummaryText)
	assert.Equal(t, donor.BenefitsText, m.BenefitsText)
	assert.Equal(t, "Go, SQL", m.RequirementsText)
	assert.Equal(t, []string{"go"}, m.Keywords)
}

func TestMergeMonotonicity(t *testing.T) {
	d := &Detector{Tables: engine.DefaultTables(), LengthFactor: 1.0}
	texts := []string{"", "a", "short", "medium length text", "a considerably longer piece of text"}

	for shift := 0; shift < len(texts); shift++ {
		var group []engine.CandidateRecord
		for i := 0; i < 4; i++ {
			r := rec("Site Reliability Engineer", "Acme", "Remote", "https://x.example/sre")
			pick := func(k int) string { return texts[(shift+i*k)%len(texts)] }
			r.SummaryText = pick(1)
			r.RequirementsText = pick(2)
			r.BenefitsText = pick(3)
			r.CompensationText = pick(4)
			r.EmploymentTypeText = pick(1)
			r.ExperienceText = pick(2)
			if k := pick(3); k != "" {
				r.Keywords = strings.Fields(k)
			}
			group = append(group, r)
		}

		out, _ := d.Deduplicate(group)
		require.Len(t, out, 1)
		m := out[0]

		longest := func(get func(engine.CandidateRecord) string) int {
			n := 0
			for _, r := range group {
				n = max(n, utf8.RuneCountInString(get(r)))
			}
			return n
		}
		fields := map[string]func(engine.CandidateRecord) string{
			"summary":      func(r engine.CandidateRecord) string { return r.SummaryText },
			"requirements": func(r engine.CandidateRecord) string { return r.RequirementsText },
			"benefits":     func(r engine.CandidateRecord) string { return r.BenefitsText },
			"compensation": func(r engine.CandidateRecord) string { return r.CompensationText },
			"employment":   func(r engine.CandidateRecord) string { return r.EmploymentTypeText },
			"experience":   func(r engine.CandidateRecord) string { return r.ExperienceText },
			"keywords":     func(r engine.CandidateRecord) string { return strings.Join(r.Keywords, ", ") },
		}
		for name, get := range fields {
			assert.GreaterOrEqual(t, utf8.RuneCountInString(get(m)), longest(get), fmt.Sprintf("shift %d field %s", shift, name))
		}
	}
}

func TestDeduplicateConservesURLs(t *testing.T) {
	d := newDetector()
	var in []engine.CandidateRecord
	titles := []string{"Go Developer", "Go Developer (Remote)", "Data Analyst", "Data Analyst II", "Nurse"}
	for i := 0; i < 25; i++ {
		url := ""
		if i%4 != 3 {
			url = fmt.Sprintf("https://jobs.example.com/%d?utm_campaign=%d", i%7, i)
		}
		in = append(in, rec(titles[i%len(titles)], []string{"Acme", "Globex"}[i%2], "Remote", url))
	}
	before := make([]engine.CandidateRecord, len(in))
	for i := range in {
		before[i] = in[i].Clone()
	}

	out, stats := d.Deduplicate(in)
	assert.LessOrEqual(t, len(out), len(in))
	assert.Equal(t, len(out), stats.OutputCount)
	assert.Equal(t, before, in, "inputs must not be mutated")

	for _, r := range in {
		if r.ListingURL == "" {
			continue
		}
		holders := 0
		for _, o := range out {
			for _, s := range sourcesOf(o) {
				if s == r.ListingURL {
					holders++
					break
				}
			}
		}
		assert.Equal(t, 1, holders, r.ListingURL)
	}
	for _, o := range out {
		if o.IsMerged {
			assert.Greater(t, o.MergeCount, 1)
			assert.LessOrEqual(t, len(o.MergedSources), o.MergeCount)
		}
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("abc", "abc"), 1e-9)
	assert.InDelta(t, 0.727, Similarity("backend engineer", "frontend engineer"), 0.01)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
}

func TestNewFromConfig(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.FuzzyThreshold = 0.9
	d := New(engine.DefaultTables(), &cfg)
	assert.Equal(t, 0.9, d.threshold())
	assert.Equal(t, 1.5, d.lengthFactor())

	var zero Detector
	assert.Equal(t, DefaultThreshold, zero.threshold())
	assert.Equal(t, DefaultLengthFactor, zero.lengthFactor())
}
