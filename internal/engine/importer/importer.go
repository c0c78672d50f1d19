// Package importer upserts finished batch artifacts into Postgres and moves
// them from processed/ to imported/.
package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/logger"
	"github.com/anatolykoptev/go_jobclean/internal/toolutil"
)

const (
	dirProcessed = "processed"
	dirImported  = "imported"
	reportSuffix = "_report.json"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS job_listings (
	fingerprint        TEXT PRIMARY KEY,
	title              TEXT NOT NULL,
	organization       TEXT NOT NULL,
	location_text      TEXT NOT NULL DEFAULT '',
	location_city      TEXT NOT NULL DEFAULT '',
	location_region    TEXT NOT NULL DEFAULT '',
	is_remote          BOOLEAN NOT NULL DEFAULT FALSE,
	summary_text       TEXT NOT NULL DEFAULT '',
	requirements_text  TEXT NOT NULL DEFAULT '',
	benefits_text      TEXT NOT NULL DEFAULT '',
	compensation_text  TEXT NOT NULL DEFAULT '',
	compensation_min   INTEGER,
	compensation_max   INTEGER,
	employment_type    TEXT NOT NULL,
	experience_level   TEXT NOT NULL,
	posting_date       DATE,
	industry           TEXT NOT NULL,
	listing_url        TEXT NOT NULL DEFAULT '',
	origin_site        TEXT NOT NULL DEFAULT '',
	keywords           JSONB NOT NULL DEFAULT '[]',
	merge_count        INTEGER NOT NULL DEFAULT 1,
	merged_sources     JSONB NOT NULL DEFAULT '[]',
	batch_name         TEXT NOT NULL,
	normalized_at      TIMESTAMPTZ NOT NULL,
	imported_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `INSERT INTO job_listings (
	fingerprint, title, organization, location_text, location_city, location_region, is_remote,
	summary_text, requirements_text, benefits_text, compensation_text, compensation_min, compensation_max,
	employment_type, experience_level, posting_date, industry, listing_url, origin_site,
	keywords, merge_count, merged_sources, batch_name, normalized_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
	$14, $15, $16::date, $17, $18, $19, $20::jsonb, $21, $22::jsonb, $23, $24
)
ON CONFLICT (fingerprint) DO UPDATE SET
	title = EXCLUDED.title,
	organization = EXCLUDED.organization,
	location_text = EXCLUDED.location_text,
	location_city = EXCLUDED.location_city,
	location_region = EXCLUDED.location_region,
	is_remote = EXCLUDED.is_remote,
	summary_text = EXCLUDED.summary_text,
	requirements_text = EXCLUDED.requirements_text,
	benefits_text = EXCLUDED.benefits_text,
	compensation_text = EXCLUDED.compensation_text,
	compensation_min = EXCLUDED.compensation_min,
	compensation_max = EXCLUDED.compensation_max,
	employment_type = EXCLUDED.employment_type,
	experience_level = EXCLUDED.experience_level,
	posting_date = EXCLUDED.posting_date,
	industry = EXCLUDED.industry,
	listing_url = EXCLUDED.listing_url,
	origin_site = EXCLUDED.origin_site,
	keywords = EXCLUDED.keywords,
	merge_count = EXCLUDED.merge_count,
	merged_sources = EXCLUDED.merged_sources,
	batch_name = EXCLUDED.batch_name,
	normalized_at = EXCLUDED.normalized_at,
	imported_at = now()`

// Importer writes artifacts found under Root/processed into DB.
type Importer struct {
	DB   *sql.DB
	Root string
}

// Summary describes one imported artifact.
type Summary struct {
	BatchName string `json:"batch_name"`
	Records   int    `json:"records"`
	MovedTo   string `json:"moved_to"`
}

// New wraps an open database handle.
func New(db *sql.DB, root string) *Importer {
	return &Importer{DB: db, Root: root}
}

// Open connects to cfg.DatabaseURL through the pgx driver, retrying transient
// connection failures.
func Open(ctx context.Context, cfg *engine.Config) (*Importer, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.WithHint(engine.ErrNoDatabase, "set DATABASE_URL or pass --database-url")
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "importer: open")
	}
	_, err = engine.RetryDo(ctx, engine.DefaultRetryConfig, func() (struct{}, error) {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return struct{}{}, db.PingContext(pctx)
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "importer: connect")
	}
	return New(db, cfg.RootDir), nil
}

// Close closes the database handle.
func (i *Importer) Close() error { return i.DB.Close() }

// EnsureSchema creates the job_listings table when missing.
func (i *Importer) EnsureSchema(ctx context.Context) error {
	_, err := i.DB.ExecContext(ctx, schemaSQL)
	return errors.Wrap(err, "importer: ensure schema")
}

// Pending lists artifacts waiting under processed/, in name order.
func (i *Importer) Pending() ([]string, error) {
	dir := filepath.Join(i.Root, dirProcessed)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "list %s", dir)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") ||
			filepath.Ext(name) != ".json" || strings.HasSuffix(name, reportSuffix) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	slices.Sort(out)
	return out, nil
}

// ImportPending imports every pending artifact, stopping at the first failure.
func (i *Importer) ImportPending(ctx context.Context) ([]Summary, error) {
	paths, err := i.Pending()
	if err != nil {
		return nil, err
	}
	var out []Summary
	for _, p := range paths {
		s, err := i.ImportFile(ctx, p)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ImportFile upserts all records of one artifact in a single transaction.
// The artifact and its report move to imported/ only after commit.
func (i *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	art, err := toolutil.ReadJSONFile[engine.Artifact](path)
	if err != nil {
		return Summary{}, errors.Wrap(err, "importer: load artifact")
	}
	batch := art.BatchName
	if batch == "" {
		batch = strings.TrimSuffix(filepath.Base(path), ".json")
	}

	err = engine.TrackOperation(ctx, "import", func(ctx context.Context) error {
		return i.upsertAll(ctx, batch, art.Jobs)
	})
	if err != nil {
		return Summary{}, err
	}
	engine.AddRecordsImported(len(art.Jobs))

	dst := filepath.Join(i.Root, dirImported, filepath.Base(path))
	if err := toolutil.MoveFile(path, dst); err != nil {
		return Summary{}, errors.Wrap(err, "importer: move artifact")
	}
	report := strings.TrimSuffix(path, ".json") + reportSuffix
	if _, err := os.Stat(report); err == nil {
		if err := toolutil.MoveFile(report, filepath.Join(i.Root, dirImported, filepath.Base(report))); err != nil {
			return Summary{}, errors.Wrap(err, "importer: move report")
		}
	}

	logger.Logger.Infow("artifact imported",
		logger.FieldComponent, "importer",
		logger.FieldBatch, batch,
		logger.FieldCount, len(art.Jobs))
	return Summary{BatchName: batch, Records: len(art.Jobs), MovedTo: dst}, nil
}

func (i *Importer) upsertAll(ctx context.Context, batch string, jobs []engine.NormalizedRecord) error {
	tx, err := i.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "importer: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	for idx := range jobs {
		args, err := upsertArgs(batch, &jobs[idx])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upsertSQL, args...); err != nil {
			return errors.Wrapf(err, "importer: upsert %q", jobs[idx].Title)
		}
	}
	return errors.Wrap(tx.Commit(), "importer: commit")
}

func upsertArgs(batch string, j *engine.NormalizedRecord) ([]any, error) {
	keywords, err := jsonList(j.Keywords)
	if err != nil {
		return nil, err
	}
	sources, err := jsonList(j.MergedSources)
	if err != nil {
		return nil, err
	}
	var postingDate any
	if j.PostingDate != "" {
		postingDate = j.PostingDate
	}
	return []any{
		j.Fingerprint, j.Title, j.Organization, j.LocationText, j.LocationCity, j.LocationRegion, j.IsRemote,
		j.SummaryText, j.RequirementsText, j.BenefitsText, j.CompensationText, j.CompensationMin, j.CompensationMax,
		string(j.EmploymentType), string(j.ExperienceLevel), postingDate, j.Industry, j.ListingURL, j.OriginSite,
		keywords, max(j.MergeCount, 1), sources, batch, j.NormalizedAt,
	}, nil
}

func jsonList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "importer: encode list")
	}
	return string(data), nil
}
