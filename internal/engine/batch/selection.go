package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/logger"
)

type selectionKind int

const (
	selectPending selectionKind = iota
	selectDate
	selectFiles
)

// Selection picks the raw files a run processes.
type Selection struct {
	kind  selectionKind
	date  string
	paths []string
}

// ByDate selects raw files whose name contains date (YYYYMMDD).
func ByDate(date string) Selection { return Selection{kind: selectDate, date: date} }

// Files selects explicit paths. Relative paths that do not exist are looked up under raw/.
func Files(paths ...string) Selection { return Selection{kind: selectFiles, paths: paths} }

// Pending selects every raw file whose content is not yet in the ledger.
func Pending() Selection { return Selection{kind: selectPending} }

func (s Selection) String() string {
	switch s.kind {
	case selectDate:
		return "date:" + s.date
	case selectFiles:
		return "files:" + strings.Join(s.paths, ",")
	default:
		return "pending"
	}
}

// resolve lists the selected files in name order.
func (r *Runner) resolve(ctx context.Context, s Selection) ([]string, error) {
	rawDir := filepath.Join(r.Root, DirRaw)
	switch s.kind {
	case selectDate:
		if _, err := time.Parse("20060102", s.date); err != nil {
			return nil, errors.Wrapf(engine.ErrInvalidSelection, "date %q is not YYYYMMDD", s.date)
		}
		all, err := listFiles(rawDir)
		if err != nil {
			return nil, err
		}
		var out []string
		for _, p := range all {
			if strings.Contains(filepath.Base(p), s.date) {
				out = append(out, p)
			}
		}
		return out, nil

	case selectFiles:
		out := make([]string, 0, len(s.paths))
		for _, p := range s.paths {
			path, err := locate(rawDir, p)
			if err != nil {
				return nil, err
			}
			out = append(out, path)
		}
		return out, nil

	default:
		all, err := listFiles(rawDir)
		if err != nil {
			return nil, err
		}
		var out []string
		for _, p := range all {
			d, err := fileDigest(p)
			if err != nil {
				// Unreadable files stay selected so the run records the failure.
				out = append(out, p)
				continue
			}
			seen, err := r.seen(ctx, d)
			if err != nil {
				return nil, errors.Wrap(err, "pending selection")
			}
			if seen {
				engine.IncrLedgerHits()
				logger.Logger.Debugw("already processed",
					logger.FieldFile, filepath.Base(p),
					logger.FieldDigest, d)
				continue
			}
			out = append(out, p)
		}
		return out, nil
	}
}

func locate(rawDir, p string) (string, error) {
	if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
		return p, nil
	}
	if !filepath.IsAbs(p) {
		alt := filepath.Join(rawDir, p)
		if fi, err := os.Stat(alt); err == nil && fi.Mode().IsRegular() {
			return alt, nil
		}
	}
	return "", errors.Wrapf(engine.ErrInvalidSelection, "file %q not found", p)
}

// listFiles returns the visible regular files directly under dir, sorted by name.
// A missing directory yields no files.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "list %s", dir)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	slices.Sort(out)
	return out, nil
}

func fileDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return digest(data), nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (r *Runner) seen(ctx context.Context, d string) (bool, error) {
	if r.Ledger == nil {
		return false, nil
	}
	return r.Ledger.Seen(ctx, d)
}
