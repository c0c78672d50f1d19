package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

func TestParseLocation(t *testing.T) {
	tables := engine.DefaultTables()
	tests := []struct {
		in   string
		want Location
	}{
		{"Remote", Location{City: "Remote", IsRemote: true}},
		{"Austin, TX", Location{City: "Austin", Region: "TX"}},
		{"Austin, Texas 78701", Location{City: "Austin", Region: "TX"}},
		{"Work from Home - US", Location{City: "Remote", IsRemote: true}},
		{"new york, ny 10001-2345", Location{City: "new york", Region: "NY"}},
		{"St. Louis, Missouri", Location{City: "St. Louis", Region: "MO"}},
		{"Denver, CO, USA", Location{City: "Denver", Region: "CO"}},
		{"Toronto, Ontario", Location{City: "Toronto", Region: "Ontario"}},
		{"Springfield", Location{City: "Springfield"}},
		{"  ", Location{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLocation(tt.in, tables))
		})
	}
}
