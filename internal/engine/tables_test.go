package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables(t *testing.T) {
	tb := DefaultTables()
	require.NotNil(t, tb)
	assert.Len(t, tb.States, 50)
	assert.Equal(t, "TX", tb.States["texas"])
	assert.Equal(t, "NH", tb.States["new hampshire"])
	assert.Same(t, tb, DefaultTables())

	require.NotEmpty(t, tb.Industries)
	assert.Equal(t, "Technology", tb.Industries[0].Name)
	assert.NotEmpty(t, tb.JSON.Aliases["title"])
	assert.NotEmpty(t, tb.Markup.Primary)
}

func TestLoadTablesEmbedded(t *testing.T) {
	tb, err := LoadTables("")
	require.NoError(t, err)
	assert.NotSame(t, DefaultTables(), tb)
	assert.Equal(t, len(DefaultTables().States), len(tb.States))
}

func TestLoadTablesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	doc := `
states:
  Texas: tx
remote_keywords: [remote]
markup:
  primary: [.posting]
json:
  aliases:
    title: [headline]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tb, err := LoadTables(path)
	require.NoError(t, err)
	assert.Equal(t, "TX", tb.States["texas"])
	assert.Equal(t, []string{"headline"}, tb.JSON.Aliases["title"])
	assert.True(t, tb.MentionsRemote("Fully REMOTE role"))
}

func TestLoadTablesErrors(t *testing.T) {
	_, err := LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = ParseTables([]byte("states: {}\n"))
	assert.True(t, errors.Is(err, ErrInvalidTables))

	_, err = ParseTables([]byte("states: [not, a, map"))
	require.Error(t, err)

	bad := `
states: {texas: TX}
markup: {primary: [.job]}
json: {aliases: {title: [title]}}
title_suffixes: ['(']
`
	_, err = ParseTables([]byte(bad))
	assert.True(t, errors.Is(err, ErrInvalidTables))
}

func TestKeywordSetMatch(t *testing.T) {
	tb := DefaultTables()
	var internship, contract *KeywordSet
	for i := range tb.EmploymentTypes {
		switch tb.EmploymentTypes[i].Name {
		case "internship":
			internship = &tb.EmploymentTypes[i]
		case "contract":
			contract = &tb.EmploymentTypes[i]
		}
	}
	require.NotNil(t, internship)
	require.NotNil(t, contract)

	assert.True(t, internship.Match("Summer Internship"))
	assert.True(t, internship.Match("paid co-op program"))
	assert.False(t, internship.Match("internal tools team"))
	assert.False(t, contract.Match("temporary assignment"))
	assert.True(t, contract.Match("temp to hire"))
	assert.Equal(t, 2, contract.Count("contract role, freelance ok"))
}

func TestStateCode(t *testing.T) {
	tb := DefaultTables()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"tx", "TX", true},
		{" Texas ", "TX", true},
		{"new york", "NY", true},
		{"Ontario", "", false},
	}
	for _, tt := range tests {
		got, ok := tb.StateCode(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMentionsAnnual(t *testing.T) {
	tb := DefaultTables()
	assert.True(t, tb.MentionsAnnual("50000 - 70000 per year"))
	assert.True(t, tb.MentionsAnnual("paid annually"))
	assert.True(t, tb.MentionsAnnual("60000 /year"))
	assert.False(t, tb.MentionsAnnual("20 - 25 per hour"))
}

func TestIsTrackingParam(t *testing.T) {
	tb := DefaultTables()
	assert.True(t, tb.IsTrackingParam("utm_source"))
	assert.True(t, tb.IsTrackingParam("FBCLID"))
	assert.True(t, tb.IsTrackingParam("trk"))
	assert.False(t, tb.IsTrackingParam("id"))
	assert.False(t, tb.IsTrackingParam("jobId"))
}
