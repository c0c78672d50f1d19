// Package batch drives raw files through extraction, deduplication and
// normalization, writing one artifact and one run report per invocation.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/engine/dedup"
	"github.com/anatolykoptev/go_jobclean/internal/engine/extract"
	"github.com/anatolykoptev/go_jobclean/internal/engine/normalize"
	"github.com/anatolykoptev/go_jobclean/internal/engine/quality"
	"github.com/anatolykoptev/go_jobclean/internal/logger"
	"github.com/anatolykoptev/go_jobclean/internal/toolutil"
)

// Directories under the pipeline root.
const (
	DirRaw       = "raw"
	DirProcessed = "processed"
	DirImported  = "imported"
	DirErrors    = "errors"
)

// State is a run's lifecycle position.
type State string

const (
	StateCreated         State = "created"
	StateRunning         State = "running"
	StateCompleted       State = "completed"
	StatePartiallyFailed State = "partially_failed"
	StateNoFiles         State = "no_files"
)

// Error types recorded alongside categories.
const (
	typeRead        = "read_error"
	typeCorrupt     = "corrupt_payload"
	typeUnsupported = "unsupported_payload"
	typeNoRecords   = "no_viable_records"
	typeNormalize   = "normalize_failed"
)

var batchNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Result is one run's outcome. It is complete once Run returns.
type Result struct {
	RunID          string             `json:"run_id"`
	BatchName      string             `json:"batch_name"`
	Selection      string             `json:"selection"`
	Status         State              `json:"status"`
	FilesProcessed int                `json:"files_processed"`
	FilesFailed    int                `json:"files_failed"`
	JobsInput      int                `json:"jobs_input"`
	JobsOutput     int                `json:"jobs_output"`
	RecordsSkipped int                `json:"records_skipped"`
	Errors         []engine.FileError `json:"errors"`
	ArtifactPath   string             `json:"artifact_path,omitempty"`
	ReportPath     string             `json:"report_path,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

func (r *Result) addError(path, category, typ, msg string) {
	r.Errors = append(r.Errors, engine.FileError{Path: path, Category: category, Type: typ, Message: msg})
}

// Runner holds the collaborators of a batch run. It keeps no state between runs.
type Runner struct {
	Root       string
	Tables     *engine.Tables
	Detector   *dedup.Detector
	Normalizer *normalize.Normalizer
	Monitor    *quality.Monitor
	Ledger     Ledger // nil disables the pending filter and ledger updates
	Workers    int    // extract pool size; <=1 is sequential
	Now        func() time.Time
}

// NewRunner wires a Runner from the pipeline configuration.
func NewRunner(cfg *engine.Config, t *engine.Tables, l Ledger) *Runner {
	return &Runner{
		Root:       cfg.RootDir,
		Tables:     t,
		Detector:   dedup.New(t, cfg),
		Normalizer: normalize.New(t),
		Monitor:    &quality.Monitor{Config: quality.ConfigFrom(cfg)},
		Ledger:     l,
		Workers:    cfg.ExtractWorkers,
		Now:        time.Now,
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// DefaultBatchName derives a batch name from t.
func DefaultBatchName(t time.Time) string {
	return "batch_" + t.Format("20060102_150405")
}

// fileOutcome is one extract worker's private slot.
type fileOutcome struct {
	path    string
	source  engine.SourceFile
	records []engine.CandidateRecord
	skipped int
	failure *engine.FileError
}

// Run processes the selected files. Per-file and per-record problems are
// recorded in the result; only run-level I/O failures return an error.
func (r *Runner) Run(ctx context.Context, sel Selection, batchName string) (*Result, error) {
	start := r.now()
	res := &Result{
		RunID:     uuid.NewString(),
		Selection: sel.String(),
		Status:    StateCreated,
		StartedAt: start.UTC(),
	}
	if batchName == "" {
		batchName = DefaultBatchName(start)
	}
	if !batchNameRe.MatchString(batchName) {
		return nil, errors.Wrapf(engine.ErrInvalidSelection, "batch name %q", batchName)
	}
	res.BatchName = r.uniqueBatchName(batchName, res.RunID)

	log := logger.Logger.With(logger.FieldRunID, res.RunID, logger.FieldBatch, res.BatchName)

	paths, err := r.resolve(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		res.Status = StateNoFiles
		res.FinishedAt = r.now().UTC()
		log.Infow("no files selected", "selection", res.Selection)
		if err := r.writeReport(res, dedup.Stats{}, nil); err != nil {
			return nil, err
		}
		return res, nil
	}

	res.Status = StateRunning
	log.Infow("batch started", logger.FieldCount, len(paths), "selection", res.Selection)

	stop := engine.TrackStage("extract")
	outcomes := r.extractAll(paths)
	stop()

	var candidates []engine.CandidateRecord
	var sources []engine.SourceFile
	for _, o := range outcomes {
		if o.failure != nil {
			res.FilesFailed++
			res.Errors = append(res.Errors, *o.failure)
			continue
		}
		res.FilesProcessed++
		res.RecordsSkipped += o.skipped
		sources = append(sources, o.source)
		if len(o.records) == 0 {
			res.addError(o.path, engine.CategoryValidation, typeNoRecords, "file yielded no viable records")
		}
		candidates = append(candidates, o.records...)
	}
	res.JobsInput = len(candidates)

	stop = engine.TrackStage("dedup")
	deduped, stats := r.Detector.Deduplicate(candidates)
	stop()
	engine.AddDuplicatesRemoved(stats.DuplicatesRemoved)
	log.Infow("deduplicated",
		logger.FieldInput, stats.InputCount,
		logger.FieldOutput, stats.OutputCount,
		logger.FieldDuplicate, stats.DuplicatesRemoved)

	jobs := make([]engine.NormalizedRecord, 0, len(deduped))
	for _, c := range deduped {
		out := r.Normalizer.Safe(c)
		if !out.OK() {
			engine.IncrNormalizationFailures()
			res.addError(c.SourceFile, engine.CategoryNormalization, typeNormalize, out.Skipped)
			log.Warnw("record skipped", logger.FieldCategory, engine.CategoryNormalization, logger.FieldError, out.Skipped)
			continue
		}
		jobs = append(jobs, *out.Record)
	}
	res.JobsOutput = len(jobs)

	artifact := engine.Artifact{
		BatchName:      res.BatchName,
		ProcessingDate: r.now().UTC(),
		TotalJobs:      len(jobs),
		Jobs:           jobs,
		SourceFiles:    sources,
	}
	res.ArtifactPath = filepath.Join(r.Root, DirProcessed, res.BatchName+".json")
	if err := engine.TrackOperation(ctx, "write_artifact", func(context.Context) error {
		return toolutil.WriteJSONFile(res.ArtifactPath, artifact)
	}); err != nil {
		return nil, errors.Wrap(err, "write artifact")
	}

	if err := r.recordLedger(ctx, res, sources); err != nil {
		// The artifact is already on disk; the next pending run reprocesses these files.
		log.Warnw("ledger update failed", logger.FieldError, err)
	}

	res.Status = StateCompleted
	if res.FilesFailed > 0 {
		res.Status = StatePartiallyFailed
	}
	res.FinishedAt = r.now().UTC()

	rep := r.Monitor.Analyze(jobs)
	if err := r.writeReport(res, stats, &rep); err != nil {
		return nil, err
	}
	engine.IncrBatchesCompleted()

	log.Infow("batch finished",
		logger.FieldStatus, res.Status,
		"files_processed", res.FilesProcessed,
		"files_failed", res.FilesFailed,
		logger.FieldInput, res.JobsInput,
		logger.FieldOutput, res.JobsOutput,
		logger.FieldDurationMS, res.Duration().Milliseconds())
	return res, nil
}

// extractAll runs the extract stage. Each worker fills only its own slot and
// the slots are read after Wait, so the order matches sequential processing.
func (r *Runner) extractAll(paths []string) []fileOutcome {
	outcomes := make([]fileOutcome, len(paths))
	var g errgroup.Group
	g.SetLimit(max(r.Workers, 1))
	for i, p := range paths {
		g.Go(func() error {
			outcomes[i] = r.extractFile(p)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (r *Runner) extractFile(path string) fileOutcome {
	o := fileOutcome{path: path}
	name := filepath.Base(path)

	fail := func(category, typ string, err error) fileOutcome {
		engine.IncrFilesFailed()
		o.failure = &engine.FileError{Path: path, Category: category, Type: typ, Message: err.Error()}
		logger.Logger.Warnw("file failed",
			logger.FieldFile, name,
			logger.FieldCategory, category,
			logger.FieldErrorType, typ,
			logger.FieldError, err)
		r.quarantine(path)
		return o
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(engine.CategoryFileProcessing, typeRead, err)
	}
	engine.IncrFilesRead()
	o.source = engine.SourceFile{Name: name, SHA256: digest(data)}

	var retrieved time.Time
	if fi, err := os.Stat(path); err == nil {
		retrieved = fi.ModTime().UTC()
	}
	payload := engine.RawPayload{
		Data:        data,
		OriginSite:  originSite(name),
		RetrievedAt: retrieved,
		SourcePath:  path,
	}

	result, err := extract.Extract(payload, r.Tables)
	switch {
	case errors.Is(err, engine.ErrUnsupportedPayload):
		return fail(engine.CategoryExtraction, typeUnsupported, err)
	case err != nil:
		return fail(engine.CategoryFileProcessing, typeCorrupt, err)
	}

	o.records = result.Records
	o.skipped = len(result.Skipped)
	engine.AddRecordsExtracted(len(result.Records))
	engine.AddRecordsSkipped(len(result.Skipped))
	logger.Logger.Debugw("file extracted",
		logger.FieldFile, name,
		logger.FieldCount, len(result.Records),
		logger.FieldSkipped, len(result.Skipped))
	return o
}

// quarantine copies a failed input into errors/ for inspection.
func (r *Runner) quarantine(path string) {
	dst := filepath.Join(r.Root, DirErrors, filepath.Base(path))
	if err := toolutil.CopyFile(path, dst); err != nil {
		logger.Logger.Debugw("quarantine failed", logger.FieldFile, filepath.Base(path), logger.FieldError, err)
	}
}

func (r *Runner) recordLedger(ctx context.Context, res *Result, sources []engine.SourceFile) error {
	if r.Ledger == nil || len(sources) == 0 {
		return nil
	}
	now := r.now().UTC()
	entries := make([]Entry, 0, len(sources))
	for _, s := range sources {
		entries = append(entries, Entry{
			Digest:     s.SHA256,
			File:       s.Name,
			BatchName:  res.BatchName,
			Artifact:   res.ArtifactPath,
			RecordedAt: now,
		})
	}
	return r.Ledger.Record(ctx, entries)
}

// uniqueBatchName appends a run id fragment when an artifact with name already exists.
func (r *Runner) uniqueBatchName(name, runID string) string {
	if _, err := os.Stat(filepath.Join(r.Root, DirProcessed, name+".json")); err == nil {
		return name + "_" + runID[:8]
	}
	return name
}

// originSite takes the file name prefix before the first underscore, e.g. "indeed" for indeed_20260615.html.
func originSite(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	site, _, _ := strings.Cut(stem, "_")
	return site
}
