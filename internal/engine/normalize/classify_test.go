package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
)

func TestClassifyEmployment(t *testing.T) {
	tables := engine.DefaultTables()
	tests := []struct {
		in   string
		want engine.EmploymentType
	}{
		{"Full-time", engine.FullTime},
		{"FULL_TIME", engine.FullTime},
		{"Part Time", engine.PartTime},
		{"PART_TIME", engine.PartTime},
		{"Contract", engine.Contract},
		{"Freelance", engine.Contract},
		{"Temp", engine.Contract},
		{"Temporary", engine.Temporary},
		{"Seasonal help wanted", engine.Temporary},
		{"Internship", engine.Internship},
		{"Co-op program", engine.Internship},
		{"Work on internal tools", engine.FullTime},
		{"", engine.FullTime},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyEmployment(tt.in, tables))
		})
	}
}

func TestClassifyExperience(t *testing.T) {
	tables := engine.DefaultTables()
	tests := []struct {
		in        string
		dedicated bool
		want      engine.ExperienceLevel
	}{
		{"5+ years experience", false, engine.LevelMid},
		{"1 year of experience", false, engine.LevelEntry},
		{"2 years experience required", false, engine.LevelEntry},
		{"3-5 years of relevant experience", false, engine.LevelMid},
		{"10+ years of professional experience", false, engine.LevelSenior},
		{"7 years", true, engine.LevelSenior},
		{"7 years", false, engine.LevelUnspecified},
		{"Junior developer", false, engine.LevelEntry},
		{"Mid-level", true, engine.LevelMid},
		{"Senior engineer", false, engine.LevelSenior},
		{"Intermediate", true, engine.LevelMid},
		{"We value teamwork", false, engine.LevelUnspecified},
		{"", true, engine.LevelUnspecified},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyExperience(tt.in, tt.dedicated, tables))
		})
	}
}

func TestClassifyIndustry(t *testing.T) {
	tables := engine.DefaultTables()
	tests := []struct {
		in   string
		want string
	}{
		{"Senior Backend Engineer Acme Build distributed software", "Technology"},
		{"Registered Nurse Mercy Hospital patient care", "Healthcare"},
		{"Teller First National Bank banking finance", "Finance"},
		{"bank software", "Technology"},
		{"Barista Cafe Luna", engine.IndustryNotSpecified},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIndustry(tt.in, tables))
		})
	}
}
