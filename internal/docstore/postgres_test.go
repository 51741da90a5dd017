package docstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return NewPostgres(db), mock
}

func TestPostgresGet(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(getDocumentSQL)).
		WithArgs("themes/active_theme").
		WillReturnRows(sqlmock.NewRows([]string{"data", "created_at", "updated_at"}).
			AddRow([]byte(`{"themeName":"Sunset","colors":{"primary":"#f60"}}`), now, now))

	doc, err := s.Get(context.Background(), themePath)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Data["themeName"] != "Sunset" {
		t.Errorf("data = %v", doc.Data)
	}
	if !doc.UpdateTime.Equal(now) {
		t.Errorf("UpdateTime = %v", doc.UpdateTime)
	}
}

func TestPostgresGetMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(getDocumentSQL)).
		WithArgs("themes/active_theme").
		WillReturnError(sql.ErrNoRows)

	doc, err := s.Get(context.Background(), themePath)
	if err != nil || doc != nil {
		t.Errorf("Get missing = %v, %v; want nil, nil", doc, err)
	}
}

func TestPostgresSet(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(setDocumentSQL)).
		WithArgs("portfolios/default/sections/hero-main", "portfolios/default/sections", "hero-main", `{"order":1,"type":"hero"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Set(context.Background(), heroPath, map[string]any{"type": "hero", "order": 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func TestPostgresMerge(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(mergeDocumentSQL)).
		WithArgs("portfolios/default/sections/hero-main", "portfolios/default/sections", "hero-main", `{"visible":false}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Merge(context.Background(), heroPath, map[string]any{"visible": false}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
}

func TestPostgresDeleteError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("connection lost")
	mock.ExpectExec(regexp.QuoteMeta(deleteDocumentSQL)).
		WithArgs("portfolios/default/sections/hero-main").
		WillReturnError(boom)

	err := s.Delete(context.Background(), heroPath)
	if !errors.Is(err, boom) {
		t.Errorf("Delete err = %v, want wrapped %v", err, boom)
	}
}

func TestPostgresList(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(listDocumentsSQL)).
		WithArgs("portfolios/default/sections", `{"visible":true}`).
		WillReturnRows(sqlmock.NewRows([]string{"doc_id", "data", "created_at", "updated_at"}).
			AddRow("hero-main", []byte(`{"visible":true,"order":20}`), now, now).
			AddRow("about-main", []byte(`{"visible":true,"order":10}`), now, now))

	docs, err := s.List(context.Background(), sections, Where("visible", true).Order("order"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 || docs[0].ID() != "about-main" || docs[1].ID() != "hero-main" {
		t.Errorf("docs = %+v", docs)
	}
	if docs[0].Path.String() != "portfolios/default/sections/about-main" {
		t.Errorf("path = %q", docs[0].Path)
	}
}
