package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/maktaba-labs/maktaba/internal/domain"
	"github.com/maktaba-labs/maktaba/internal/domain/collection"
)

func newTestRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestList_Genres(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`FROM genres g`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "count"}).
			AddRow("g1", "Hadith", 120).
			AddRow("g2", "Tafsir", 80))

	got, err := repo.List(context.Background(), collection.FacetGenres, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 options, got %d", len(got))
	}
	if got[0] != (Option{ID: "g1", Name: "Hadith", BookCount: 120}) {
		t.Errorf("unexpected first option: %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestList_DefaultLimit(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`FROM regions r`).
		WithArgs(DefaultLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "count"}))

	got, err := repo.List(context.Background(), collection.FacetRegions, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestList_UnsupportedFacet(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.List(context.Background(), collection.FacetAuthors, 10)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_QueryError(t *testing.T) {
	repo, mock := newTestRepo(t)
	mock.ExpectQuery(`FROM genres g`).WillReturnError(errors.New("relation \"genres\" does not exist"))

	if _, err := repo.List(context.Background(), collection.FacetGenres, 5); err == nil {
		t.Fatal("expected error")
	}
}

func TestList_ScanError(t *testing.T) {
	repo, mock := newTestRepo(t)
	mock.ExpectQuery(`FROM genres g`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "count"}).AddRow("g1", "Hadith", "many"))

	if _, err := repo.List(context.Background(), collection.FacetGenres, 5); err == nil {
		t.Fatal("expected scan error")
	}
}

func TestLookup(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`WHERE r.id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "count"}).
			AddRow("r1", "Khurasan", 42))

	got, err := repo.Lookup(context.Background(), collection.FacetRegions, []string{"r1", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Khurasan" {
		t.Errorf("unexpected options: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLookup_NoIDs(t *testing.T) {
	repo, mock := newTestRepo(t)

	got, err := repo.Lookup(context.Background(), collection.FacetGenres, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("Lookup(nil) = %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := New(db)

	mock.ExpectPing()
	if err := repo.HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	if err := repo.HealthCheck(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestSupports(t *testing.T) {
	if !Supports(collection.FacetGenres) || !Supports(collection.FacetRegions) {
		t.Error("genres and regions should be supported")
	}
	if Supports(collection.FacetAuthors) {
		t.Error("authors have no catalog table")
	}
}
