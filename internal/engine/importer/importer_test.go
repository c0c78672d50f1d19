package importer

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_jobclean/internal/engine"
	"github.com/anatolykoptev/go_jobclean/internal/toolutil"
)

var upsertRe = regexp.QuoteMeta("INSERT INTO job_listings")

func intp(v int) *int { return &v }

func writeArtifact(t *testing.T, root, batch string, jobs ...engine.NormalizedRecord) string {
	t.Helper()
	path := filepath.Join(root, dirProcessed, batch+".json")
	require.NoError(t, toolutil.WriteJSONFile(path, engine.Artifact{
		BatchName:      batch,
		ProcessingDate: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		TotalJobs:      len(jobs),
		Jobs:           jobs,
	}))
	require.NoError(t, toolutil.WriteJSONFile(filepath.Join(root, dirProcessed, batch+reportSuffix), map[string]string{"batch_name": batch}))
	return path
}

func job(fp, title string) engine.NormalizedRecord {
	return engine.NormalizedRecord{
		Fingerprint:     fp,
		Title:           title,
		Organization:    "Acme",
		LocationCity:    "Austin",
		LocationRegion:  "TX",
		CompensationMin: intp(120000),
		EmploymentType:  engine.FullTime,
		ExperienceLevel: engine.LevelSenior,
		PostingDate:     "2026-06-10",
		Industry:        "Technology",
		Keywords:        []string{"Go"},
		MergeCount:      1,
		MergedSources:   []string{"https://jobs.example.com/1"},
	}
}

func newMock(t *testing.T) (*Importer, sqlmock.Sqlmock, string) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	root := t.TempDir()
	return New(db, root), mock, root
}

func TestImportFile(t *testing.T) {
	imp, mock, root := newMock(t)
	path := writeArtifact(t, root, "b1", job("fp1", "Backend Engineer"), job("fp2", "Data Engineer"))

	mock.ExpectBegin()
	mock.ExpectExec(upsertRe).
		WithArgs("fp1", "Backend Engineer", "Acme", "", "Austin", "TX", false,
			"", "", "", "", int64(120000), nil,
			"full_time", "senior", "2026-06-10", "Technology", "", "",
			`["Go"]`, int64(1), `["https://jobs.example.com/1"]`, "b1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsertRe).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, err := imp.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "b1", s.BatchName)
	assert.Equal(t, 2, s.Records)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.NoFileExists(t, path)
	assert.FileExists(t, filepath.Join(root, dirImported, "b1.json"))
	assert.FileExists(t, filepath.Join(root, dirImported, "b1"+reportSuffix))
}

func TestImportFileRollsBack(t *testing.T) {
	imp, mock, root := newMock(t)
	path := writeArtifact(t, root, "b2", job("fp1", "Backend Engineer"), job("fp2", "Data Engineer"))

	mock.ExpectBegin()
	mock.ExpectExec(upsertRe).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsertRe).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := imp.ImportFile(context.Background(), path)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.FileExists(t, path)
	assert.NoFileExists(t, filepath.Join(root, dirImported, "b2.json"))
}

func TestImportNullPostingDate(t *testing.T) {
	j := job("fp", "Engineer")
	j.PostingDate = ""
	j.Keywords = nil
	args, err := upsertArgs("b", &j)
	require.NoError(t, err)
	assert.Nil(t, args[15])
	assert.Equal(t, "[]", args[19])
}

func TestEnsureSchema(t *testing.T) {
	imp, mock, _ := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS job_listings")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, imp.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingSkipsReportsAndHidden(t *testing.T) {
	imp, _, root := newMock(t)
	writeArtifact(t, root, "b2")
	writeArtifact(t, root, "b1")
	dir := filepath.Join(root, dirProcessed)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ledger.db"), nil, 0o644))

	got, err := imp.Pending()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b1.json"), filepath.Join(dir, "b2.json")}, got)
}

func TestImportPending(t *testing.T) {
	imp, mock, root := newMock(t)
	writeArtifact(t, root, "b1", job("fp1", "Backend Engineer"))
	writeArtifact(t, root, "b2")

	mock.ExpectBegin()
	mock.ExpectExec(upsertRe).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	got, err := imp.ImportPending(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Records)
	assert.Equal(t, 0, got[1].Records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenWithoutDatabase(t *testing.T) {
	cfg := engine.DefaultConfig()
	_, err := Open(context.Background(), &cfg)
	assert.True(t, errors.Is(err, engine.ErrNoDatabase))
}
