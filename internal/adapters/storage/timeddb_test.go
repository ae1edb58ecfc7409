package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"aurora/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// TestTimedDB_RecordsEveryCall verifies each wrapped call lands in the collector.
func TestTimedDB_RecordsEveryCall(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()

	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q, want hello", val)
	}

	tx, err := tdb.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	tx.Rollback()

	if collector.TotalRecorded() != 4 {
		t.Errorf("TotalRecorded = %d, want 4", collector.TotalRecorded())
	}
}

// TestTimedDB_ErrorPassthrough verifies SQL errors are returned unchanged and
// still recorded.
func TestTimedDB_ErrorPassthrough(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector)

	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO nonexistent_table VALUES (?)", 1); err == nil {
		t.Fatal("expected error from invalid SQL, got nil")
	}
	var val string
	err := tdb.QueryRowContext(context.Background(), "SELECT val FROM test WHERE id = ?", "missing").Scan(&val)
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
	if collector.TotalRecorded() != 2 {
		t.Errorf("TotalRecorded = %d, want 2", collector.TotalRecorded())
	}
}

// TestTimedDB_NilCollector verifies TimedDB works without a collector.
func TestTimedDB_NilCollector(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, nil)

	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "x"); err != nil {
		t.Fatalf("ExecContext with nil collector: %v", err)
	}
	if tdb.RawDB() != db {
		t.Error("RawDB() should return the original *sql.DB")
	}
}

// TestTimedDB_SnapshotGroupsByStatement verifies the perf snapshot sees query
// labels rather than raw SQL.
func TestTimedDB_SnapshotGroupsByStatement(t *testing.T) {
	db := openTimedTestDB(t)
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(db, collector)
	ctx := context.Background()

	start := time.Now().Add(-time.Second)
	for _, id := range []string{"a", "b", "c"} {
		tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", id, id)
	}

	snap := collector.Snapshot(start, 10)
	if len(snap.SlowestQueries) != 1 {
		t.Fatalf("query groups = %d, want 1: %+v", len(snap.SlowestQueries), snap.SlowestQueries)
	}
	if got := snap.SlowestQueries[0]; got.Path != "INSERT test" || got.Count != 3 {
		t.Errorf("group = %+v", got)
	}
}

func TestQueryLabel(t *testing.T) {
	tests := map[string]string{
		"SELECT id, data FROM document WHERE collection = ?":   "SELECT document",
		"insert into document (collection, id) values (?, ?)": "INSERT document",
		"UPDATE document SET data = json_patch(data, ?)":       "UPDATE document",
		"DELETE FROM account WHERE id = ?":                     "DELETE account",
		"PRAGMA journal_mode":                                  "PRAGMA",
		"   ":                                                  "EMPTY",
	}
	for query, want := range tests {
		if got := queryLabel(query); got != want {
			t.Errorf("queryLabel(%q) = %q, want %q", query, got, want)
		}
	}
}
