package resultlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okarpov/verilab/internal/model"
)

// Columns is the result log schema. Column order and names are a
// compatibility contract with downstream analysis scripts; changing them is a
// breaking change requiring a migration note.
var Columns = []string{"timestamp", "topic", "agent_claim", "source_url", "human_verdict", "verification_mode"}

// Store appends completed trial records to a CSV file. Single writer, append
// only; rows are never mutated or deleted.
type Store struct {
	path string
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		now:  time.Now,
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// EnsureInitialized creates the backing file with a header row if it does not
// already exist. Idempotent and safe to call on every process start.
func (s *Store) EnsureInitialized() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat result log: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create result log dir: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			// Lost a race with another initializer; the header is there
			return nil
		}
		return fmt.Errorf("create result log: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush header: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync result log: %w", err)
	}

	return f.Close()
}

// Append writes one record as a row matching the header column order. The
// timestamp is assigned here, at write time, and is monotonically
// non-decreasing across appends within a process. The row is flushed and
// synced before Append returns; on error the record must be treated as lost.
func (s *Store) Append(rec model.TrialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC()
	if ts.Before(s.last) {
		ts = s.last
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open result log: %w", err)
	}

	row := []string{
		ts.Format(time.RFC3339),
		rec.Topic,
		rec.Claim,
		rec.SourceURL,
		rec.Verdict.String(),
		rec.Mode.String(),
	}

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		_ = f.Close()
		return fmt.Errorf("write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush record: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync record: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close result log: %w", err)
	}

	s.last = ts
	return nil
}
