package session

import (
	"context"
	"errors"
	"testing"

	"github.com/okarpov/verilab/internal/model"
)

// fakeLookup implements EvidenceLookup
type fakeLookup struct {
	evidence *model.Evidence
	err      error
	calls    int
}

func (f *fakeLookup) Lookup(ctx context.Context, topic string) (*model.Evidence, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.evidence, nil
}

// fakeExtractor implements ClaimExtractor
type fakeExtractor struct {
	claim string
	err   error
	seen  string
}

func (f *fakeExtractor) ExtractClaim(ctx context.Context, sourceText string) (string, error) {
	f.seen = sourceText
	if f.err != nil {
		return "", f.err
	}
	return f.claim, nil
}

// fakeStore implements RecordWriter
type fakeStore struct {
	records []model.TrialRecord
	err     error
}

func (f *fakeStore) Append(rec model.TrialRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

var errNoEvidence = errors.New("search returned no results")

func canberraSession(store *fakeStore) *ExperimentSession {
	lookup := &fakeLookup{
		evidence: &model.Evidence{
			URL:     "https://example.com/a",
			Content: "Canberra is the capital of Australia.",
		},
	}
	extractor := &fakeExtractor{claim: "Canberra is the capital of Australia."}
	return New(lookup, extractor, store)
}

func TestSession_StartTransitionsToReview(t *testing.T) {
	store := &fakeStore{}
	sess := canberraSession(store)

	if sess.State() != StateIntake {
		t.Fatalf("expected initial state %s, got %s", StateIntake, sess.State())
	}

	if err := sess.Start(context.Background(), "Capital of Australia", model.ModeBlind); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if sess.State() != StateReview {
		t.Errorf("expected state %s, got %s", StateReview, sess.State())
	}

	trial := sess.Trial()
	if trial.Claim == "" {
		t.Error("expected non-empty claim after successful start")
	}
	if trial.Evidence == nil {
		t.Error("expected evidence to be set after successful start")
	}
}

func TestSession_StartRejectsEmptyTopic(t *testing.T) {
	store := &fakeStore{}
	lookup := &fakeLookup{evidence: &model.Evidence{URL: "u", Content: "c"}}
	sess := New(lookup, &fakeExtractor{claim: "x"}, store)

	if err := sess.Start(context.Background(), "   ", model.ModeBlind); err == nil {
		t.Fatal("expected error for empty topic")
	}

	if sess.State() != StateIntake {
		t.Errorf("expected state %s, got %s", StateIntake, sess.State())
	}
	if lookup.calls != 0 {
		t.Errorf("expected no lookup calls for empty topic, got %d", lookup.calls)
	}
}

func TestSession_EmptyLookupStaysInIntake(t *testing.T) {
	store := &fakeStore{}
	sess := New(&fakeLookup{err: errNoEvidence}, &fakeExtractor{claim: "x"}, store)

	err := sess.Start(context.Background(), "Obscure topic", model.ModeBlind)
	if err == nil {
		t.Fatal("expected error when lookup returns nothing")
	}
	if !errors.Is(err, errNoEvidence) {
		t.Errorf("expected wrapped sentinel, got %v", err)
	}

	if sess.State() != StateIntake {
		t.Errorf("expected state %s, got %s", StateIntake, sess.State())
	}
	if len(store.records) != 0 {
		t.Errorf("expected no records, got %d", len(store.records))
	}
	if sess.Trial().Evidence != nil || sess.Trial().Claim != "" {
		t.Error("expected no partial trial state after failed start")
	}
}

func TestSession_ExtractorFailureStaysInIntake(t *testing.T) {
	store := &fakeStore{}
	lookup := &fakeLookup{evidence: &model.Evidence{URL: "u", Content: "c"}}
	sess := New(lookup, &fakeExtractor{err: errors.New("service unavailable")}, store)

	if err := sess.Start(context.Background(), "Some topic", model.ModeBlind); err == nil {
		t.Fatal("expected error when extraction fails")
	}

	if sess.State() != StateIntake {
		t.Errorf("expected state %s, got %s", StateIntake, sess.State())
	}
	if sess.Trial().Evidence != nil {
		t.Error("expected no partial trial after extractor failure")
	}
}

func TestSession_ApproveLogsAccurate(t *testing.T) {
	store := &fakeStore{}
	sess := canberraSession(store)

	if err := sess.Start(context.Background(), "Capital of Australia", model.ModeSourceGrounded); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := sess.Approve(); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if sess.State() != StateLogged {
		t.Errorf("expected state %s, got %s", StateLogged, sess.State())
	}
	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}

	rec := store.records[0]
	if rec.Verdict != model.VerdictAccurate {
		t.Errorf("expected verdict %s, got %s", model.VerdictAccurate, rec.Verdict)
	}
	if rec.Topic != "Capital of Australia" {
		t.Errorf("unexpected topic: %s", rec.Topic)
	}
	if rec.SourceURL != "https://example.com/a" {
		t.Errorf("unexpected source URL: %s", rec.SourceURL)
	}
	if rec.Claim != "Canberra is the capital of Australia." {
		t.Errorf("unexpected claim: %s", rec.Claim)
	}
	if rec.Mode != model.ModeSourceGrounded {
		t.Errorf("expected mode %s in record, got %s", model.ModeSourceGrounded, rec.Mode)
	}
}

func TestSession_RejectLogsHallucination(t *testing.T) {
	store := &fakeStore{}
	sess := canberraSession(store)

	if err := sess.Start(context.Background(), "Capital of Australia", model.ModeBlind); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := sess.Reject(); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}

	rec := store.records[0]
	if rec.Verdict != model.VerdictHallucination {
		t.Errorf("expected verdict %s, got %s", model.VerdictHallucination, rec.Verdict)
	}
	if rec.SourceURL != "https://example.com/a" {
		t.Errorf("unexpected source URL: %s", rec.SourceURL)
	}
	if rec.Topic != "Capital of Australia" {
		t.Errorf("unexpected topic: %s", rec.Topic)
	}
}

func TestSession_RestartDiscardsWithoutLogging(t *testing.T) {
	store := &fakeStore{}
	sess := canberraSession(store)

	if err := sess.Start(context.Background(), "Capital of Australia", model.ModeBlind); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	sess.Restart()

	if sess.State() != StateIntake {
		t.Errorf("expected state %s, got %s", StateIntake, sess.State())
	}
	if len(store.records) != 0 {
		t.Errorf("restart must never append a record, got %d", len(store.records))
	}
	if sess.Trial().Topic != "" {
		t.Error("expected trial cleared after restart")
	}
}

func TestSession_PersistenceFailureKeepsReview(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	sess := canberraSession(store)

	if err := sess.Start(context.Background(), "Capital of Australia", model.ModeBlind); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := sess.Approve(); err == nil {
		t.Fatal("expected error when the store is unwritable")
	}

	// The verdict is not considered logged; the operator can retry
	if sess.State() != StateReview {
		t.Errorf("expected state %s after failed append, got %s", StateReview, sess.State())
	}

	store.err = nil
	if err := sess.Approve(); err != nil {
		t.Fatalf("retry after store recovery failed: %v", err)
	}
	if len(store.records) != 1 {
		t.Errorf("expected 1 record after retry, got %d", len(store.records))
	}
}

func TestSession_FullCycle(t *testing.T) {
	store := &fakeStore{}
	sess := canberraSession(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := sess.Start(ctx, "Capital of Australia", model.ModeBlind); err != nil {
			t.Fatalf("trial %d: Start failed: %v", i, err)
		}
		if err := sess.Approve(); err != nil {
			t.Fatalf("trial %d: Approve failed: %v", i, err)
		}
		if err := sess.Next(); err != nil {
			t.Fatalf("trial %d: Next failed: %v", i, err)
		}
		if sess.State() != StateIntake {
			t.Fatalf("trial %d: expected state %s, got %s", i, StateIntake, sess.State())
		}
	}

	if len(store.records) != 3 {
		t.Errorf("expected 3 records, got %d", len(store.records))
	}
}

func TestSession_TransitionGuards(t *testing.T) {
	store := &fakeStore{}
	sess := canberraSession(store)
	ctx := context.Background()

	// Verdicts require review
	if err := sess.Approve(); err == nil {
		t.Error("expected Approve to fail in intake")
	}
	if err := sess.Reject(); err == nil {
		t.Error("expected Reject to fail in intake")
	}
	if err := sess.Next(); err == nil {
		t.Error("expected Next to fail in intake")
	}

	if err := sess.Start(ctx, "t", model.ModeBlind); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Start requires intake
	if err := sess.Start(ctx, "t", model.ModeBlind); err == nil {
		t.Error("expected Start to fail in review")
	}
	if err := sess.Next(); err == nil {
		t.Error("expected Next to fail in review")
	}
}
