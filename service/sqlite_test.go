package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/AnTengye/projectbrief/model"
)

func newTestSQLiteStore(t *testing.T) (*SQLiteRecordStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewSQLiteRecordStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s, dbPath
}

func TestSQLiteRecordStoreInsertAndSelect(t *testing.T) {
	s, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	row := testRow("Acme", "2026-01-02T03:04:05Z")
	row.Tags = "b2b"
	id, err := s.Insert(ctx, row)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, testRow("Beta", "2025-01-01T00:00:00Z")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].ID != id || rows[0].ProjectName != "Acme" || rows[0].Tags != "b2b" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].ProjectName != "Beta" {
		t.Errorf("rows[1].ProjectName = %q, want Beta", rows[1].ProjectName)
	}
}

func TestSQLiteRecordStoreDuplicateID(t *testing.T) {
	s, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	row := testRow("Acme", "2026-01-02T03:04:05Z")
	row.ID = "same-id"
	if _, err := s.Insert(ctx, row); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, err := s.Insert(ctx, row)
	var se *model.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StoreError", err)
	}
	if se.Op != "insert" {
		t.Errorf("Op = %q, want insert", se.Op)
	}
}

func TestSQLiteRecordStoreReopen(t *testing.T) {
	s, dbPath := newTestSQLiteStore(t)
	ctx := context.Background()
	if _, err := s.Insert(ctx, testRow("Acme", "2026-01-02T03:04:05Z")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	db, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	reopened, err := NewSQLiteRecordStore(db)
	if err != nil {
		t.Fatalf("migrate on reopen: %v", err)
	}
	rows, err := reopened.SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want 1", len(rows))
	}
	if err := reopened.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
