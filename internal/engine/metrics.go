package engine

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/anatolykoptev/go_jobclean/internal/logger"
)

// Metrics tracks operational counters across the pipeline.
var metrics struct {
	FilesRead             atomic.Int64
	FilesFailed           atomic.Int64
	RecordsExtracted      atomic.Int64
	RecordsSkipped        atomic.Int64
	DuplicatesRemoved     atomic.Int64
	NormalizationFailures atomic.Int64
	LedgerHits            atomic.Int64
	BatchesCompleted      atomic.Int64
	RecordsImported       atomic.Int64
}

var metricKeys = []string{
	"files_read", "files_failed",
	"records_extracted", "records_skipped",
	"duplicates_removed", "normalization_failures",
	"ledger_hits", "batches_completed", "records_imported",
}

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"files_read":             metrics.FilesRead.Load(),
		"files_failed":           metrics.FilesFailed.Load(),
		"records_extracted":      metrics.RecordsExtracted.Load(),
		"records_skipped":        metrics.RecordsSkipped.Load(),
		"duplicates_removed":     metrics.DuplicatesRemoved.Load(),
		"normalization_failures": metrics.NormalizationFailures.Load(),
		"ledger_hits":            metrics.LedgerHits.Load(),
		"batches_completed":      metrics.BatchesCompleted.Load(),
		"records_imported":       metrics.RecordsImported.Load(),
	}
}

// FormatMetrics returns metrics as one "name value" pair per line.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the pipeline sub-packages.
func IncrFilesRead()             { metrics.FilesRead.Add(1) }
func IncrFilesFailed()           { metrics.FilesFailed.Add(1) }
func AddRecordsExtracted(n int)  { metrics.RecordsExtracted.Add(int64(n)) }
func AddRecordsSkipped(n int)    { metrics.RecordsSkipped.Add(int64(n)) }
func AddDuplicatesRemoved(n int) { metrics.DuplicatesRemoved.Add(int64(n)) }
func IncrNormalizationFailures() { metrics.NormalizationFailures.Add(1) }
func IncrLedgerHits()            { metrics.LedgerHits.Add(1) }
func IncrBatchesCompleted()      { metrics.BatchesCompleted.Add(1) }
func AddRecordsImported(n int)   { metrics.RecordsImported.Add(int64(n)) }

// TrackOperation logs a warning if an operation takes longer than Cfg.SlowOpThreshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	stop := TrackStage(name)
	err := fn(ctx)
	stop()
	return err
}

// TrackStage starts timing an infallible stage. The returned func reports the
// elapsed time and logs it as slow past Cfg.SlowOpThreshold.
func TrackStage(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		elapsed := time.Since(start)
		if threshold := Cfg.SlowOpThreshold; threshold > 0 && elapsed > threshold {
			logger.Logger.Warnw("slow operation",
				logger.FieldOperation, name,
				logger.FieldDurationMS, elapsed.Milliseconds())
		}
		return elapsed
	}
}
