package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

func TestCanonicalURL(t *testing.T) {
	tables := engine.DefaultTables()
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"https://Jobs.Example.com/Job/123", "https://jobs.example.com/job/123"},
		{"http://jobs.example.com/job/123/", "https://jobs.example.com/job/123"},
		{"https://jobs.example.com/job/123#apply", "https://jobs.example.com/job/123"},
		{"https://jobs.example.com/job/123?utm_source=x&utm_medium=y&fbclid=z", "https://jobs.example.com/job/123"},
		{"https://jobs.example.com/view?id=9&trk=abc&ref=home", "https://jobs.example.com/view?id=9"},
		{"//jobs.example.com/job/5", "https://jobs.example.com/job/5"},
		{"jobs.example.com/job/5", "https://jobs.example.com/job/5"},
		{"https://not a url", "https://not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalURL(tt.in, tables))
		})
	}
}
