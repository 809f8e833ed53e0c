package store

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/afgc/registry/internal/model"
)

var runCols = []string{
	"id", "generated_utc", "record_count", "entry_count",
	"artifact_sha256", "duration_ms", "created_at",
}

var errDB = errors.New("database gone")

func newRunStore(t *testing.T) (*RunStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRunStore(db), mock
}

func sampleRunRow() *sqlmock.Rows {
	return sqlmock.NewRows(runCols).
		AddRow("6cb1f5d4-1111-2222-3333-444455556666", time.Now(), 237, 237,
			"abc123", int64(850), time.Now())
}

func TestEnsureSchema(t *testing.T) {
	store, mock := newRunStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS publish_runs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInsertRunAssignsID(t *testing.T) {
	store, mock := newRunStore(t)
	mock.ExpectExec("INSERT INTO publish_runs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	run := &model.PublishRun{
		GeneratedUTC:   time.Now().UTC(),
		RecordCount:    237,
		EntryCount:     237,
		ArtifactSHA256: "abc123",
		DurationMS:     850,
	}
	if err := store.InsertRun(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.ID == "" {
		t.Error("expected ID to be assigned")
	}
}

func TestInsertRunDBError(t *testing.T) {
	store, mock := newRunStore(t)
	mock.ExpectExec("INSERT INTO publish_runs").
		WillReturnError(errDB)

	run := &model.PublishRun{ArtifactSHA256: "abc123"}
	if err := store.InsertRun(context.Background(), run); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestListRuns(t *testing.T) {
	store, mock := newRunStore(t)
	mock.ExpectQuery("SELECT (.+) FROM publish_runs").
		WithArgs(50).
		WillReturnRows(sampleRunRow())

	runs, err := store.ListRuns(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].EntryCount != 237 {
		t.Errorf("expected 237 entries, got %d", runs[0].EntryCount)
	}
}

func TestListRunsEmpty(t *testing.T) {
	store, mock := newRunStore(t)
	mock.ExpectQuery("SELECT (.+) FROM publish_runs").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(runCols))

	runs, err := store.ListRuns(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestGetLatest(t *testing.T) {
	store, mock := newRunStore(t)
	mock.ExpectQuery("SELECT (.+) FROM publish_runs").
		WillReturnRows(sampleRunRow())

	run, err := store.GetLatest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run == nil {
		t.Fatal("expected a run, got nil")
	}
	if run.ArtifactSHA256 != "abc123" {
		t.Errorf("unexpected sha: %s", run.ArtifactSHA256)
	}
}

func TestGetLatestNoRows(t *testing.T) {
	store, mock := newRunStore(t)
	mock.ExpectQuery("SELECT (.+) FROM publish_runs").
		WillReturnRows(sqlmock.NewRows(runCols))

	run, err := store.GetLatest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run != nil {
		t.Errorf("expected nil run, got %+v", run)
	}
}
