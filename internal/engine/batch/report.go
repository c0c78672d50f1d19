package batch

import (
	"math"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/anatolykoptev/go_jobclean/internal/engine/dedup"
	"github.com/anatolykoptev/go_jobclean/internal/engine/quality"
	"github.com/anatolykoptev/go_jobclean/internal/toolutil"
)

// Report is the run report written next to the artifact.
type Report struct {
	Result
	DurationSeconds          float64         `json:"duration_seconds"`
	ErrorCounts              map[string]int  `json:"error_counts"`
	Deduplication            dedup.Stats     `json:"deduplication"`
	NormalizationSuccessRate float64         `json:"normalization_success_rate"`
	JobsPerMinute            float64         `json:"jobs_per_minute"`
	AvgJobsPerFile           float64         `json:"avg_jobs_per_file"`
	Quality                  *quality.Report `json:"quality,omitempty"`
}

// ReportPath returns where the report of batchName lives.
func ReportPath(root, batchName string) string {
	return filepath.Join(root, DirProcessed, batchName+"_report.json")
}

func buildReport(res *Result, stats dedup.Stats, q *quality.Report) Report {
	rep := Report{
		Result:        *res,
		ErrorCounts:   map[string]int{},
		Deduplication: stats,
		Quality:       q,
	}
	for _, e := range res.Errors {
		rep.ErrorCounts[e.Category]++
	}
	secs := res.Duration().Seconds()
	rep.DurationSeconds = round2(secs)
	if stats.OutputCount > 0 {
		rep.NormalizationSuccessRate = round2(float64(res.JobsOutput) / float64(stats.OutputCount) * 100)
	}
	if secs > 0 {
		rep.JobsPerMinute = round2(float64(res.JobsOutput) / secs * 60)
	}
	if res.FilesProcessed > 0 {
		rep.AvgJobsPerFile = round2(float64(res.JobsOutput) / float64(res.FilesProcessed))
	}
	return rep
}

func (r *Runner) writeReport(res *Result, stats dedup.Stats, q *quality.Report) error {
	res.ReportPath = ReportPath(r.Root, res.BatchName)
	if err := toolutil.WriteJSONFile(res.ReportPath, buildReport(res, stats, q)); err != nil {
		return errors.Wrap(err, "write run report")
	}
	return nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
