package capability

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewLazyStore(filepath.Join(t.TempDir(), "test.bolt"))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSaveAndFindAll(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("users", []string{"name", "age"}); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := s.Save("users", []string{"Alice", "30"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save("users", []string{"Bob", "25"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	records, err := s.FindAll("users")
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Values[0] != "Alice" || records[1].Values[0] != "Bob" {
		t.Fatalf("records out of insertion order: %v", records)
	}
	if records[0].Columns[1] != "age" {
		t.Fatalf("wrong columns: %v", records[0].Columns)
	}
}

func TestStoreFindWhere(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("users", []string{"name", "age"}); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, row := range [][]string{{"Alice", "30"}, {"Bob", "25"}, {"Carol", "30"}} {
		if err := s.Save("users", row); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	records, err := s.FindWhere("users", "age", "30")
	if err != nil {
		t.Fatalf("find where: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(records))
	}
	if records[0].Values[0] != "Alice" || records[1].Values[0] != "Carol" {
		t.Fatalf("wrong matches: %v", records)
	}
}

func TestStoreDeleteWhereAndCount(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("users", []string{"name", "age"}); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, row := range [][]string{{"Alice", "30"}, {"Bob", "25"}, {"Carol", "30"}} {
		if err := s.Save("users", row); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := s.DeleteWhere("users", "age", "30"); err != nil {
		t.Fatalf("delete where: %v", err)
	}
	n, err := s.Count("users")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row after delete, got %d", n)
	}
	records, _ := s.FindAll("users")
	if len(records) != 1 || records[0].Values[0] != "Bob" {
		t.Fatalf("wrong survivor: %v", records)
	}
}

func TestStoreErrors(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.FindAll("ghosts"); err == nil || err.Error() != "no such table: ghosts" {
		t.Fatalf("expected no such table error, got %v", err)
	}
	if err := s.CreateTable("users", []string{"name"}); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := s.Save("users", []string{"a", "b"}); err == nil {
		t.Fatal("expected column count mismatch error")
	}
	if err := s.DeleteWhere("users", "height", "3"); err == nil || err.Error() != "no such column: height" {
		t.Fatalf("expected no such column error, got %v", err)
	}
	if _, err := s.FindWhere("users", "height", "3"); err == nil {
		t.Fatal("expected no such column error from FindWhere")
	}
}

func TestStoreCreateTableIfNotExists(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("users", []string{"name"}); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := s.Save("users", []string{"Alice"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// re-creating keeps the existing schema and rows
	if err := s.CreateTable("users", []string{"name", "age"}); err != nil {
		t.Fatalf("re-create table: %v", err)
	}
	records, err := s.FindAll("users")
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(records) != 1 || len(records[0].Columns) != 1 {
		t.Fatalf("re-create altered table: %v", records)
	}
}
