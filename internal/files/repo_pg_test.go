package files

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateBindsNullableDescription(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	file := File{
		ID:           "file-1",
		UserID:       "user-1",
		OriginalName: "report.pdf",
		StorageKey:   "user-1/2026/08/29/deadbeef",
		SizeBytes:    42,
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO files").
		WithArgs(
			file.ID,
			file.UserID,
			file.OriginalName,
			sql.NullString{},
			file.StorageKey,
			file.SizeBytes,
			file.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), file); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDMissingReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT id, user_id, original_name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoRecordDownloadIsSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec(`UPDATE files\s+SET download_count = download_count \+ 1, last_downloaded_at = now\(\)`).
		WithArgs("file-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordDownload(context.Background(), "file-1"); err != nil {
		t.Fatalf("RecordDownload: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoRecordDownloadMissingRowReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE files").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.RecordDownload(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordDownload err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoDeleteMissingRowReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("DELETE FROM files").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoListByUserScansNullableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	downloaded := now.Add(-time.Hour)
	cols := []string{"id", "user_id", "original_name", "description", "storage_key", "size_bytes", "created_at", "last_downloaded_at", "download_count"}
	rows := sqlmock.NewRows(cols).
		AddRow("file-1", "user-1", "a.txt", nil, "k1", int64(1), now, nil, int64(0)).
		AddRow("file-2", "user-1", "b.txt", "notes", "k2", int64(2), now, downloaded, int64(3))

	mock.ExpectQuery("SELECT id, user_id, original_name").
		WithArgs("user-1", 20, 0).
		WillReturnRows(rows)

	list, err := repo.ListByUser(context.Background(), "user-1", 20, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].Description != "" || list[0].LastDownloadedAt != nil {
		t.Fatalf("expected empty nullable fields, got %+v", list[0])
	}
	if list[1].Description != "notes" {
		t.Fatalf("Description = %q, want notes", list[1].Description)
	}
	if list[1].LastDownloadedAt == nil || !list[1].LastDownloadedAt.Equal(downloaded) {
		t.Fatalf("LastDownloadedAt = %v, want %v", list[1].LastDownloadedAt, downloaded)
	}
	if list[1].DownloadCount != 3 {
		t.Fatalf("DownloadCount = %d, want 3", list[1].DownloadCount)
	}
}
