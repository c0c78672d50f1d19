package engine

import "time"

// Config holds all pipeline configuration, injected from main.
type Config struct {
	RootDir            string        // contains raw/, processed/, imported/, errors/
	TablesPath         string        // optional YAML override for the embedded pattern tables
	FuzzyThreshold     float64       // title similarity ratio for fuzzy duplicates
	MergeLengthFactor  float64       // other value must be this many times longer to replace the base value
	ExtractWorkers     int           // 1 = strictly sequential extraction
	RedisURL           string        // empty = sqlite ledger only
	DatabaseURL        string        // importer target; empty disables import
	QualityMaxAgeDays  int
	SalaryFloor        int
	SalaryCeiling      int
	CompanyShareLimit  float64 // percent of a batch one organization may supply
	LocationShareLimit float64 // percent of a batch one location may supply
	SlowOpThreshold    time.Duration
	LogJSON            bool
}

// DefaultConfig returns the configuration used when no env or flag overrides it.
func DefaultConfig() Config {
	return Config{
		RootDir:            "./data",
		FuzzyThreshold:     0.85,
		MergeLengthFactor:  1.5,
		ExtractWorkers:     4,
		QualityMaxAgeDays:  180,
		SalaryFloor:        15000,
		SalaryCeiling:      500000,
		CompanyShareLimit:  30,
		LocationShareLimit: 50,
		SlowOpThreshold:    5 * time.Second,
	}
}

var cfg = DefaultConfig()

// Cfg exposes the pipeline configuration for sub-packages and commands.
// Always points to the current cfg value.
var Cfg = &cfg

// Init installs the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
