package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePostingDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want string
	}{
		{"today", "2026-03-01"},
		{"Just posted", "2026-03-01"},
		{"5 hours ago", "2026-03-01"},
		{"yesterday", "2026-02-28"},
		{"3 days ago", "2026-02-26"},
		{"Posted 2 days ago", "2026-02-27"},
		{"a day ago", "2026-02-28"},
		{"2 weeks ago", "2026-02-15"},
		{"1 month ago", "2026-01-30"},
		{"30+ days ago", "2026-01-30"},
		{"02/20/2026", "2026-02-20"},
		{"2/5/2026", "2026-02-05"},
		{"2026-02-20", "2026-02-20"},
		{"2026-02-20T10:00:00Z", "2026-02-20"},
		{"02-20-2026", "2026-02-20"},
		{"2025-03-01", "2025-03-01"},
		{"2025-02-28", ""},
		{"12/31/2026", ""},
		{"01/15/2024", ""},
		{"02/30/2026", ""},
		{"sometime soon", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePostingDate(tt.in, now))
		})
	}
}
