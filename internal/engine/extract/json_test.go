package extract

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

func TestExtractJSONShapes(t *testing.T) {
	job := `{"title":"Backend Engineer","company":"Acme","location":"Austin, TX"}`
	tests := []struct {
		name string
		doc  string
	}{
		{"bare list", "[" + job + "]"},
		{"jobs key", `{"jobs":[` + job + `]}`},
		{"results key", `{"results":[` + job + `],"page":1}`},
		{"single object", job},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Extract(payload(engine.KindJSON, tt.doc), engine.DefaultTables())
			require.NoError(t, err)
			require.Len(t, res.Records, 1)
			assert.Empty(t, res.Skipped)
			r := res.Records[0]
			assert.Equal(t, "Backend Engineer", r.Title)
			assert.Equal(t, "Acme", r.Organization)
			assert.Equal(t, "Austin, TX", r.LocationText)
		})
	}
}

func TestExtractJSONAliases(t *testing.T) {
	doc := `[{
		"job_title": "  Senior   Data Engineer ",
		"company_name": {"display_name": "Initech"},
		"job_location": {"name": "Denver, CO"},
		"description": "<p>Build <strong>pipelines</strong></p>",
		"qualifications": "5+ years experience",
		"salary_min": 120000,
		"salary_max": 150000,
		"redirect_url": "https://jobs.example.com/j/1?utm_source=x",
		"datePosted": "2026-02-20",
		"contract_type": "permanent",
		"tags": ["Python", {"label": "Spark"}],
		"unknown_field": "dropped",
		"id": 42
	}]`
	res, err := Extract(payload(engine.KindJSON, doc), engine.DefaultTables())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	r := res.Records[0]

	assert.Equal(t, "Senior Data Engineer", r.Title)
	assert.Equal(t, "Initech", r.Organization)
	assert.Equal(t, "Denver, CO", r.LocationText)
	assert.Contains(t, r.SummaryText, "pipelines")
	assert.NotContains(t, r.SummaryText, "<p>")
	assert.Equal(t, "5+ years experience", r.RequirementsText)
	assert.Equal(t, "$120000 - $150000", r.CompensationText)
	assert.Equal(t, "https://jobs.example.com/j/1?utm_source=x", r.ListingURL)
	assert.Equal(t, "2026-02-20", r.PostingDateText)
	assert.Equal(t, "permanent", r.EmploymentTypeText)
	assert.Equal(t, []string{"Python", "Spark"}, r.Keywords)
}

func TestExtractJSONAliasPriority(t *testing.T) {
	doc := `{"title":"","job_title":"Platform Engineer","position":"ignored","company":"Acme","city":"Boston"}`
	res, err := Extract(payload(engine.KindJSON, doc), engine.DefaultTables())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Platform Engineer", res.Records[0].Title)
	assert.Equal(t, "Boston", res.Records[0].LocationText)
}

func TestExtractJSONSkips(t *testing.T) {
	doc := `{"jobs":[
		{"title":"Go Developer","company":"Acme","location":"Remote"},
		{"title":"Go","company":"Acme","location":"Remote"},
		"not an object",
		{"title":"Rust Developer","company":"Acme"}
	]}`
	res, err := Extract(payload(engine.KindJSON, doc), engine.DefaultTables())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	require.Len(t, res.Skipped, 3)
	assert.Equal(t, 1, res.Skipped[0].Index)
	assert.Equal(t, 2, res.Skipped[1].Index)
	assert.Equal(t, 3, res.Skipped[2].Index)
	assert.Equal(t, "missing or short location", res.Skipped[2].Reason)
}

func TestExtractJSONCorrupt(t *testing.T) {
	for _, doc := range []string{`{"jobs": [`, `"just a string"`, ``} {
		_, err := Extract(payload(engine.KindJSON, doc), engine.DefaultTables())
		require.Error(t, err, doc)
		assert.True(t, errors.Is(err, engine.ErrCorruptPayload), doc)
	}
}

func TestFlatten(t *testing.T) {
	keys := engine.DefaultTables().JSON.ValueKeys
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"bool", true, ""},
		{"string", "  x ", "x"},
		{"int", float64(85000), "85000"},
		{"float", 12.5, "12.5"},
		{"object", map[string]any{"text": "Full-time"}, "Full-time"},
		{"object no key", map[string]any{"id": float64(3)}, ""},
		{"array", []any{"a", float64(2), nil, map[string]any{"name": "c"}}, "a, 2, c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flatten(tt.in, keys))
		})
	}
}

func TestFormatSalary(t *testing.T) {
	assert.Equal(t, "", formatSalary(0, 0))
	assert.Equal(t, "$90000", formatSalary(90000, 90000))
	assert.Equal(t, "up to $90000", formatSalary(0, 90000))
	assert.Equal(t, "starting at $60000", formatSalary(60000, 0))
	assert.Equal(t, "$60000 - $90000", formatSalary(60000, 90000))
}
