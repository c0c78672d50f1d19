package batch

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/logger"
)

// LedgerFile is the sqlite ledger's file name under processed/.
const LedgerFile = ".ledger.db"

// ErrNoLedger means no sqlite ledger has been written under processed/ yet.
var ErrNoLedger = errors.New("no ledger recorded yet")

// Entry records that a raw file's content has been turned into an artifact.
type Entry struct {
	Digest     string    `json:"digest"`
	File       string    `json:"file"`
	BatchName  string    `json:"batch_name"`
	Artifact   string    `json:"artifact"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Ledger remembers which raw contents were already processed.
// Lookups are reads, not locks: callers serialize runs over one directory.
type Ledger interface {
	Seen(ctx context.Context, digest string) (bool, error)
	Record(ctx context.Context, entries []Entry) error
	Size(ctx context.Context) (int, error)
	Close() error
}

// SQLiteLedger stores entries in a single-writer sqlite file.
type SQLiteLedger struct {
	db *sql.DB
}

// OpenSQLiteLedger opens (or creates) the ledger database at path.
func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.Wrapf(err, "ledger: mkdir %s", filepath.Dir(path))
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "ledger: open db")
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initLedgerSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ledger: init schema")
	}
	return &SQLiteLedger{db: db}, nil
}

func initLedgerSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS processed_files (
		digest      TEXT PRIMARY KEY,
		file        TEXT NOT NULL,
		batch_name  TEXT NOT NULL,
		artifact    TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	)`)
	return err
}

// Seen reports whether digest was recorded before.
func (l *SQLiteLedger) Seen(ctx context.Context, digest string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM processed_files WHERE digest = ?`, digest).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "ledger: lookup")
	}
	return n > 0, nil
}

// Record upserts entries in one transaction.
func (l *SQLiteLedger) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "ledger: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO processed_files (digest, file, batch_name, artifact, recorded_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(digest) DO UPDATE SET
			   file = excluded.file, batch_name = excluded.batch_name,
			   artifact = excluded.artifact, recorded_at = excluded.recorded_at`,
			e.Digest, e.File, e.BatchName, e.Artifact, e.RecordedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return errors.Wrapf(err, "ledger: record %s", e.File)
		}
	}
	return errors.Wrap(tx.Commit(), "ledger: commit")
}

// Size returns the number of recorded digests.
func (l *SQLiteLedger) Size(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM processed_files`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "ledger: count")
	}
	return n, nil
}

// Close releases the database handle.
func (l *SQLiteLedger) Close() error { return l.db.Close() }

// OpenLedger returns the shared Redis ledger when cfg.RedisURL is set and
// reachable, otherwise the sqlite ledger under processed/.
func OpenLedger(ctx context.Context, cfg *engine.Config) (Ledger, error) {
	if cfg.RedisURL != "" {
		l, err := OpenRedisLedger(ctx, cfg.RedisURL)
		if err == nil {
			return l, nil
		}
		logger.Logger.Warnw("redis ledger unavailable, falling back to sqlite",
			logger.FieldComponent, "ledger",
			logger.FieldError, err)
	}
	return OpenSQLiteLedger(filepath.Join(cfg.RootDir, DirProcessed, LedgerFile))
}

// OpenExistingLedger is OpenLedger for read-only callers: it never creates
// processed/ or the sqlite file, and returns ErrNoLedger when neither exists.
func OpenExistingLedger(ctx context.Context, cfg *engine.Config) (Ledger, error) {
	if cfg.RedisURL != "" {
		l, err := OpenRedisLedger(ctx, cfg.RedisURL)
		if err == nil {
			return l, nil
		}
		logger.Logger.Warnw("redis ledger unavailable, falling back to sqlite",
			logger.FieldComponent, "ledger",
			logger.FieldError, err)
	}
	path := filepath.Join(cfg.RootDir, DirProcessed, LedgerFile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoLedger
		}
		return nil, errors.Wrapf(err, "ledger: stat %s", path)
	}
	return OpenSQLiteLedger(path)
}
