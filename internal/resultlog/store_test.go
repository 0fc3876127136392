package resultlog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/okarpov/verilab/internal/model"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return rows
}

func TestStore_EnsureInitializedIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := NewStore(path)

	for i := 0; i < 5; i++ {
		if err := store.EnsureInitialized(); err != nil {
			t.Fatalf("call %d: EnsureInitialized failed: %v", i, err)
		}
	}

	rows := readRows(t, path)
	if len(rows) != 1 {
		t.Fatalf("expected exactly 1 header row, got %d rows", len(rows))
	}
	if !reflect.DeepEqual(rows[0], Columns) {
		t.Errorf("unexpected header: %v", rows[0])
	}
}

func TestStore_EnsureInitializedPreservesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := NewStore(path)

	if err := store.EnsureInitialized(); err != nil {
		t.Fatalf("EnsureInitialized failed: %v", err)
	}
	if err := store.Append(model.TrialRecord{Topic: "t", Claim: "c", Verdict: model.VerdictAccurate, Mode: model.ModeBlind}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// A second process start must not rewrite the header or drop rows
	if err := NewStore(path).EnsureInitialized(); err != nil {
		t.Fatalf("second EnsureInitialized failed: %v", err)
	}

	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Errorf("expected header + 1 row, got %d rows", len(rows))
	}
}

func TestStore_AppendOrderMatchesSubmissionOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := NewStore(path)

	if err := store.EnsureInitialized(); err != nil {
		t.Fatalf("EnsureInitialized failed: %v", err)
	}

	topics := []string{"first", "second", "third", "fourth"}
	for _, topic := range topics {
		rec := model.TrialRecord{
			Topic:     topic,
			Claim:     "claim about " + topic,
			SourceURL: "https://example.com/" + topic,
			Verdict:   model.VerdictAccurate,
			Mode:      model.ModeBlind,
		}
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append %q failed: %v", topic, err)
		}
	}

	rows := readRows(t, path)
	if len(rows) != len(topics)+1 {
		t.Fatalf("expected %d rows (header + %d records), got %d", len(topics)+1, len(topics), len(rows))
	}

	for i, topic := range topics {
		if rows[i+1][1] != topic {
			t.Errorf("row %d: expected topic %q, got %q", i+1, topic, rows[i+1][1])
		}
	}
}

func TestStore_RowMatchesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := NewStore(path)

	if err := store.EnsureInitialized(); err != nil {
		t.Fatalf("EnsureInitialized failed: %v", err)
	}

	rec := model.TrialRecord{
		Topic:     "Capital of Australia",
		Claim:     "Canberra is the capital of Australia.",
		SourceURL: "https://example.com/a",
		Verdict:   model.VerdictHallucination,
		Mode:      model.ModeSourceGrounded,
	}
	if err := store.Append(rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	rows := readRows(t, path)
	row := rows[1]

	if len(row) != len(Columns) {
		t.Fatalf("expected %d columns, got %d", len(Columns), len(row))
	}
	if _, err := time.Parse(time.RFC3339, row[0]); err != nil {
		t.Errorf("timestamp not RFC 3339: %q", row[0])
	}
	if row[1] != rec.Topic || row[2] != rec.Claim || row[3] != rec.SourceURL {
		t.Errorf("unexpected row fields: %v", row)
	}
	if row[4] != "hallucination" {
		t.Errorf("expected verdict 'hallucination', got %q", row[4])
	}
	if row[5] != "source_grounded" {
		t.Errorf("expected mode 'source_grounded', got %q", row[5])
	}
}

func TestStore_TimestampsMonotonic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	store := NewStore(path)

	// Simulate a clock that jumps backwards between appends
	times := []time.Time{
		time.Date(2026, 1, 1, 12, 0, 2, 0, time.UTC),
		time.Date(2026, 1, 1, 12, 0, 1, 0, time.UTC),
		time.Date(2026, 1, 1, 12, 0, 3, 0, time.UTC),
	}
	idx := 0
	store.now = func() time.Time {
		t := times[idx]
		idx++
		return t
	}

	if err := store.EnsureInitialized(); err != nil {
		t.Fatalf("EnsureInitialized failed: %v", err)
	}

	for i := 0; i < len(times); i++ {
		rec := model.TrialRecord{Topic: "t", Claim: "c", Verdict: model.VerdictAccurate, Mode: model.ModeBlind}
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	rows := readRows(t, path)
	var prev time.Time
	for i, row := range rows[1:] {
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			t.Fatalf("row %d: bad timestamp %q", i, row[0])
		}
		if ts.Before(prev) {
			t.Errorf("row %d: timestamp %v before previous %v", i, ts, prev)
		}
		prev = ts
	}
}

func TestStore_AppendFailsOnUnwritablePath(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing-dir", "results.csv"))

	// No EnsureInitialized: the file does not exist and append mode must not
	// create directories
	rec := model.TrialRecord{Topic: "t", Claim: "c", Verdict: model.VerdictAccurate, Mode: model.ModeBlind}
	if err := store.Append(rec); err == nil {
		t.Fatal("expected error appending to unwritable path")
	}
}
