// Package dedup finds and merges candidate records that describe the same listing.
//
// Three phases run in order, each over the records the previous phase left
// alone: exact canonical URL, exact content fingerprint, then a greedy fuzzy
// pass over fingerprint singletons. The fuzzy pass compares every record only
// with its cluster anchor, so clustering depends on input order and is not an
// equivalence-class closure.
package dedup

import (
	"math"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

// Defaults used when a Detector field is zero.
const (
	DefaultThreshold    = 0.85
	DefaultLengthFactor = 1.5

	locationThreshold = 0.7
)

// KeyKind names the strategy that formed a duplicate group.
type KeyKind string

const (
	KeyURL         KeyKind = "url"
	KeyFingerprint KeyKind = "fingerprint"
	KeyFuzzy       KeyKind = "fuzzy"
)

// Group is a transient set of two or more records believed to be one listing.
type Group struct {
	Kind    KeyKind
	Key     string
	Members []int // indices into the input slice, ascending
}

// Stats summarizes one Deduplicate call.
type Stats struct {
	InputCount             int     `json:"input_count"`
	OutputCount            int     `json:"output_count"`
	DuplicatesRemoved      int     `json:"duplicates_removed"`
	DuplicateRate          float64 `json:"duplicate_rate"`
	URLDuplicateGroups     int     `json:"url_duplicate_groups"`
	ContentDuplicateGroups int     `json:"content_duplicate_groups"`
	FuzzyDuplicateGroups   int     `json:"fuzzy_duplicate_groups"`
}

// Detector holds the tables and tuning knobs for duplicate detection.
type Detector struct {
	Tables       *engine.Tables
	Threshold    float64 // title similarity needed for a fuzzy match
	LengthFactor float64 // how much longer a donor value must be to replace the base value
}

// New returns a Detector configured from cfg.
func New(t *engine.Tables, cfg *engine.Config) *Detector {
	return &Detector{Tables: t, Threshold: cfg.FuzzyThreshold, LengthFactor: cfg.MergeLengthFactor}
}

func (d *Detector) threshold() float64 {
	if d.Threshold > 0 {
		return d.Threshold
	}
	return DefaultThreshold
}

func (d *Detector) lengthFactor() float64 {
	if d.LengthFactor > 0 {
		return d.LengthFactor
	}
	return DefaultLengthFactor
}

// Deduplicate merges duplicate groups and passes singletons through untouched.
// Each output record sits at the position of its group's first member.
// It never fails: a record without a URL or title simply matches nothing.
func (d *Detector) Deduplicate(records []engine.CandidateRecord) ([]engine.CandidateRecord, Stats) {
	groups := d.FindGroups(records)

	slots := make([]*engine.CandidateRecord, len(records))
	consumed := make([]bool, len(records))
	stats := Stats{InputCount: len(records)}

	for _, g := range groups {
		members := make([]*engine.CandidateRecord, len(g.Members))
		for i, idx := range g.Members {
			members[i] = &records[idx]
			consumed[idx] = true
		}
		merged := merge(members, d.lengthFactor())
		slots[g.Members[0]] = &merged

		switch g.Kind {
		case KeyURL:
			stats.URLDuplicateGroups++
		case KeyFuzzy:
			stats.FuzzyDuplicateGroups++
			stats.ContentDuplicateGroups++
		default:
			stats.ContentDuplicateGroups++
		}
	}

	out := make([]engine.CandidateRecord, 0, len(records))
	for i := range records {
		switch {
		case slots[i] != nil:
			out = append(out, *slots[i])
		case !consumed[i]:
			out = append(out, records[i].Clone())
		}
	}

	stats.OutputCount = len(out)
	stats.DuplicatesRemoved = stats.InputCount - stats.OutputCount
	if stats.InputCount > 0 {
		stats.DuplicateRate = math.Round(float64(stats.DuplicatesRemoved)/float64(stats.InputCount)*10000) / 100
	}
	return out, stats
}

// FindGroups runs the three phases and returns every group of two or more.
func (d *Detector) FindGroups(records []engine.CandidateRecord) []Group {
	var groups []Group

	// Phase 1: canonical URL.
	var rest []int
	urlGroups, urlOrder := map[string][]int{}, []string(nil)
	for i := range records {
		key := CanonicalURL(records[i].ListingURL, d.Tables)
		if key == "" {
			rest = append(rest, i)
			continue
		}
		if _, ok := urlGroups[key]; !ok {
			urlOrder = append(urlOrder, key)
		}
		urlGroups[key] = append(urlGroups[key], i)
	}
	for _, key := range urlOrder {
		if members := urlGroups[key]; len(members) > 1 {
			groups = append(groups, Group{Kind: KeyURL, Key: key, Members: members})
		} else {
			rest = append(rest, members[0])
		}
	}
	slices.Sort(rest)

	// Phase 2: content fingerprint. Records without a title or organization
	// cannot be fingerprinted and pass through.
	var singles []int
	fpGroups, fpOrder := map[string][]int{}, []string(nil)
	for _, i := range rest {
		r := &records[i]
		if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Organization) == "" {
			continue
		}
		key := d.Tables.Fingerprint(r.Organization, r.Title, r.LocationText)
		if _, ok := fpGroups[key]; !ok {
			fpOrder = append(fpOrder, key)
		}
		fpGroups[key] = append(fpGroups[key], i)
	}
	for _, key := range fpOrder {
		if members := fpGroups[key]; len(members) > 1 {
			groups = append(groups, Group{Kind: KeyFingerprint, Key: key, Members: members})
		} else {
			singles = append(singles, members[0])
		}
	}
	slices.Sort(singles)

	// Phase 3: greedy fuzzy clustering, anchored on the first unassigned record.
	assigned := make(map[int]bool, len(singles))
	for a, i := range singles {
		if assigned[i] {
			continue
		}
		cluster := []int{i}
		for _, j := range singles[a+1:] {
			if !assigned[j] && d.IsFuzzyMatch(&records[i], &records[j]) {
				cluster = append(cluster, j)
				assigned[j] = true
			}
		}
		if len(cluster) > 1 {
			assigned[i] = true
			groups = append(groups, Group{Kind: KeyFuzzy, Key: d.Tables.FingerprintTitle(records[i].Title), Members: cluster})
		}
	}
	return groups
}

// IsFuzzyMatch reports whether two records are near-duplicates: same
// organization (case-insensitive), title similarity at or above the threshold,
// and similar locations or either one remote.
func (d *Detector) IsFuzzyMatch(a, b *engine.CandidateRecord) bool {
	orgA := strings.ToLower(engine.CollapseSpace(a.Organization))
	orgB := strings.ToLower(engine.CollapseSpace(b.Organization))
	if orgA == "" || orgA != orgB {
		return false
	}
	titleA, titleB := d.Tables.FingerprintTitle(a.Title), d.Tables.FingerprintTitle(b.Title)
	if titleA == "" || titleB == "" || Similarity(titleA, titleB) < d.threshold() {
		return false
	}
	locA := strings.ToLower(engine.CollapseSpace(a.LocationText))
	locB := strings.ToLower(engine.CollapseSpace(b.LocationText))
	if strings.Contains(locA, "remote") || strings.Contains(locB, "remote") {
		return true
	}
	return Similarity(locA, locB) > locationThreshold
}

// Similarity is difflib's SequenceMatcher ratio over the characters of a and b.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}
