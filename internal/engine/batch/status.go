package batch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
)

const recentFiles = 5

// FileInfo is one listed file.
type FileInfo struct {
	Name    string    `json:"name"`
	ModTime time.Time `json:"mod_time"`
}

// DirStatus summarizes one pipeline directory.
type DirStatus struct {
	Name   string     `json:"name"`
	Count  int        `json:"count"`
	Recent []FileInfo `json:"recent"`
}

// StatusReport is a read-only snapshot of the pipeline root.
type StatusReport struct {
	Root       string      `json:"root"`
	Dirs       []DirStatus `json:"directories"`
	LedgerSize int         `json:"ledger_size"` // -1 when no ledger is available
}

// Status lists file counts and the most recently modified files per directory.
// l may be nil.
func Status(ctx context.Context, root string, l Ledger) (StatusReport, error) {
	rep := StatusReport{Root: root, LedgerSize: -1}
	for _, name := range []string{DirRaw, DirProcessed, DirImported, DirErrors} {
		ds, err := dirStatus(filepath.Join(root, name))
		if err != nil {
			return StatusReport{}, err
		}
		ds.Name = name
		rep.Dirs = append(rep.Dirs, ds)
	}
	if l != nil {
		n, err := l.Size(ctx)
		if err != nil {
			return StatusReport{}, errors.Wrap(err, "ledger size")
		}
		rep.LedgerSize = n
	}
	return rep, nil
}

func dirStatus(dir string) (DirStatus, error) {
	paths, err := listFiles(dir)
	if err != nil {
		return DirStatus{}, err
	}
	files := make([]FileInfo, 0, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: fi.Name(), ModTime: fi.ModTime().UTC()})
	}
	slices.SortStableFunc(files, func(a, b FileInfo) int { return b.ModTime.Compare(a.ModTime) })
	ds := DirStatus{Count: len(files), Recent: files}
	if len(ds.Recent) > recentFiles {
		ds.Recent = ds.Recent[:recentFiles]
	}
	return ds, nil
}
