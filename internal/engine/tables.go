package engine

import (
	_ "embed"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embeddedTables []byte

// KeywordSet is a named, ordered group of trigger phrases.
type KeywordSet struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`

	re *regexp.Regexp
}

// Match reports whether any keyword appears in text as a whole word.
func (k *KeywordSet) Match(text string) bool {
	return k.re != nil && k.re.MatchString(text)
}

// Count returns the number of keyword hits in text.
func (k *KeywordSet) Count(text string) int {
	if k.re == nil {
		return 0
	}
	return len(k.re.FindAllStringIndex(text, -1))
}

// MarkupSelectors drive container discovery and per-field lookup in HTML payloads.
type MarkupSelectors struct {
	Primary   []string            `yaml:"primary"`
	Secondary []string            `yaml:"secondary"`
	Fields    map[string][]string `yaml:"fields"`
}

// JSONMapping drives field resolution in JSON payloads.
type JSONMapping struct {
	ListKeys  []string            `yaml:"list_keys"`
	ValueKeys []string            `yaml:"value_keys"`
	Aliases   map[string][]string `yaml:"aliases"`
}

// Tables is the immutable pattern data shared by every pipeline stage.
// Build it with LoadTables or DefaultTables; never modify it afterwards.
type Tables struct {
	States           map[string]string `yaml:"states"`
	RemoteKeywords   []string          `yaml:"remote_keywords"`
	EmploymentTypes  []KeywordSet      `yaml:"employment_types"`
	ExperienceLevels []KeywordSet      `yaml:"experience_levels"`
	Industries       []KeywordSet      `yaml:"industries"`
	AnnualKeywords   []string          `yaml:"annual_keywords"`
	TrackingParams   []string          `yaml:"tracking_params"`
	TitleSuffixes    []string          `yaml:"title_suffixes"`
	Markup           MarkupSelectors   `yaml:"markup"`
	JSON             JSONMapping       `yaml:"json"`

	remoteRe  *regexp.Regexp
	annualRe  *regexp.Regexp
	suffixRes []*regexp.Regexp
}

// ParseTables decodes and validates a YAML tables document.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, "decode tables")
	}
	if err := t.compile(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTables reads tables from path, or the embedded defaults when path is empty.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return ParseTables(embeddedTables)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read tables %s", path)
	}
	return ParseTables(data)
}

var (
	defaultTablesOnce sync.Once
	defaultTables     *Tables
)

// DefaultTables returns the embedded tables, parsed once per process.
func DefaultTables() *Tables {
	defaultTablesOnce.Do(func() {
		t, err := ParseTables(embeddedTables)
		if err != nil {
			panic(err)
		}
		defaultTables = t
	})
	return defaultTables
}

func (t *Tables) compile() error {
	if len(t.States) == 0 {
		return errors.Wrap(ErrInvalidTables, "states table is empty")
	}
	if len(t.Markup.Primary) == 0 && len(t.Markup.Secondary) == 0 {
		return errors.Wrap(ErrInvalidTables, "no markup container selectors")
	}
	if len(t.JSON.Aliases) == 0 {
		return errors.Wrap(ErrInvalidTables, "no json aliases")
	}

	states := make(map[string]string, len(t.States))
	for name, code := range t.States {
		states[strings.ToLower(strings.TrimSpace(name))] = strings.ToUpper(strings.TrimSpace(code))
	}
	t.States = states

	t.remoteRe = WordPattern(t.RemoteKeywords)
	t.annualRe = WordPattern(t.AnnualKeywords)
	for _, sets := range [][]KeywordSet{t.EmploymentTypes, t.ExperienceLevels, t.Industries} {
		for i := range sets {
			sets[i].re = WordPattern(sets[i].Keywords)
		}
	}

	t.suffixRes = t.suffixRes[:0]
	for _, s := range t.TitleSuffixes {
		re, err := regexp.Compile(s)
		if err != nil {
			return errors.Wrapf(ErrInvalidTables, "title suffix %q: %v", s, err)
		}
		t.suffixRes = append(t.suffixRes, re)
	}
	return nil
}

// MentionsRemote reports whether text contains a remote-work keyword.
func (t *Tables) MentionsRemote(text string) bool {
	return t.remoteRe != nil && t.remoteRe.MatchString(text)
}

// MentionsAnnual reports whether text names a yearly pay period.
func (t *Tables) MentionsAnnual(text string) bool {
	if t.annualRe != nil && t.annualRe.MatchString(text) {
		return true
	}
	// "/year" and "/yr" start with a non-word rune so \b never anchors them.
	for _, k := range t.AnnualKeywords {
		if strings.HasPrefix(k, "/") && strings.Contains(strings.ToLower(text), k) {
			return true
		}
	}
	return false
}

// StateCode maps a region token to its two-letter code. Known codes pass through uppercased.
func (t *Tables) StateCode(region string) (string, bool) {
	r := strings.TrimSpace(region)
	if len(r) == 2 {
		return strings.ToUpper(r), true
	}
	code, ok := t.States[strings.ToLower(r)]
	return code, ok
}

// TrimTitleSuffixes repeatedly strips configured suffix phrases from a lower-cased title.
func (t *Tables) TrimTitleSuffixes(title string) string {
	for {
		before := title
		for _, re := range t.suffixRes {
			title = strings.TrimSpace(re.ReplaceAllString(title, ""))
		}
		if title == before {
			return title
		}
	}
}

// IsTrackingParam reports whether a query parameter name matches a tracking prefix.
func (t *Tables) IsTrackingParam(name string) bool {
	n := strings.ToLower(name)
	for _, p := range t.TrackingParams {
		if strings.HasPrefix(n, p) {
			return true
		}
	}
	return false
}
