package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	root := t.TempDir()
	raw := filepath.Join(root, DirRaw)
	require.NoError(t, os.MkdirAll(raw, 0o755))
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range 7 {
		p := filepath.Join(raw, fmt.Sprintf("f%d.json", i))
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
		mt := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(p, mt, mt))
	}

	l, err := OpenSQLiteLedger(filepath.Join(root, DirProcessed, LedgerFile))
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, l.Record(context.Background(), []Entry{{Digest: "d", File: "f0.json", BatchName: "b", Artifact: "a", RecordedAt: base}}))

	rep, err := Status(context.Background(), root, l)
	require.NoError(t, err)
	require.Len(t, rep.Dirs, 4)

	assert.Equal(t, DirRaw, rep.Dirs[0].Name)
	assert.Equal(t, 7, rep.Dirs[0].Count)
	require.Len(t, rep.Dirs[0].Recent, 5)
	assert.Equal(t, "f6.json", rep.Dirs[0].Recent[0].Name)
	assert.Equal(t, "f2.json", rep.Dirs[0].Recent[4].Name)

	// The ledger database is hidden from the processed/ listing.
	assert.Equal(t, DirProcessed, rep.Dirs[1].Name)
	assert.Zero(t, rep.Dirs[1].Count)
	assert.Zero(t, rep.Dirs[2].Count)
	assert.Equal(t, 1, rep.LedgerSize)
}

func TestStatusWithoutLedger(t *testing.T) {
	rep, err := Status(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, -1, rep.LedgerSize)
	for _, d := range rep.Dirs {
		assert.Zero(t, d.Count)
		assert.Empty(t, d.Recent)
	}
}
