// go_jobclean: cleaning pipeline for scraped job listings.
//
// Reads raw HTML/JSON payloads from <root>/raw, extracts, deduplicates and
// normalizes the listings, and writes database-ready batches plus quality
// reports to <root>/processed. Optionally imports batches into Postgres.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/cockroachdb/errors"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/jobcli"
)

var version = "dev"

func main() {
	initEngine()

	if err := jobcli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

func initEngine() {
	d := engine.DefaultConfig()
	logJSON, _ := strconv.ParseBool(env.Str("LOG_JSON", "false"))
	engine.Init(engine.Config{
		RootDir:            env.Str("JOBCLEAN_ROOT", d.RootDir),
		TablesPath:         env.Str("TABLES_PATH", ""),
		FuzzyThreshold:     env.Float("FUZZY_THRESHOLD", d.FuzzyThreshold),
		MergeLengthFactor:  env.Float("MERGE_LENGTH_FACTOR", d.MergeLengthFactor),
		ExtractWorkers:     env.Int("EXTRACT_WORKERS", d.ExtractWorkers),
		RedisURL:           env.Str("REDIS_URL", ""),
		DatabaseURL:        env.Str("DATABASE_URL", ""),
		QualityMaxAgeDays:  env.Int("QUALITY_MAX_AGE_DAYS", d.QualityMaxAgeDays),
		SalaryFloor:        env.Int("SALARY_FLOOR", d.SalaryFloor),
		SalaryCeiling:      env.Int("SALARY_CEILING", d.SalaryCeiling),
		CompanyShareLimit:  env.Float("COMPANY_SHARE_LIMIT", d.CompanyShareLimit),
		LocationShareLimit: env.Float("LOCATION_SHARE_LIMIT", d.LocationShareLimit),
		SlowOpThreshold:    env.Duration("SLOW_OP_THRESHOLD", d.SlowOpThreshold),
		LogJSON:            logJSON,
	})
}
