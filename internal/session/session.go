package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/okarpov/verilab/internal/model"
)

// State identifies the phase of the experiment cycle.
type State string

const (
	StateIntake State = "intake"
	StateReview State = "review"
	StateLogged State = "logged"
)

// EvidenceLookup returns at most one evidence record for a topic. An empty
// result is signalled by a sentinel error (see search.ErrNoEvidence).
type EvidenceLookup interface {
	Lookup(ctx context.Context, topic string) (*model.Evidence, error)
}

// ClaimExtractor produces a short claim grounded only in the given text.
type ClaimExtractor interface {
	ExtractClaim(ctx context.Context, sourceText string) (string, error)
}

// RecordWriter persists completed trial records.
type RecordWriter interface {
	Append(rec model.TrialRecord) error
}

// ExperimentSession drives one operator's trials through the cyclic
// intake → review → logged state machine. One instance per operator; the
// trial state lives here, never in ambient storage.
//
// Every collaborator failure is surfaced as an error from the transition that
// invoked it and leaves the session state unchanged, so a failed trial never
// produces a partial record.
type ExperimentSession struct {
	state     State
	trial     model.Trial
	lookup    EvidenceLookup
	extractor ClaimExtractor
	store     RecordWriter
}

// New creates a session in the intake state.
func New(lookup EvidenceLookup, extractor ClaimExtractor, store RecordWriter) *ExperimentSession {
	return &ExperimentSession{
		state:     StateIntake,
		lookup:    lookup,
		extractor: extractor,
		store:     store,
	}
}

// State returns the current state.
func (s *ExperimentSession) State() State {
	return s.state
}

// Trial returns a copy of the current trial.
func (s *ExperimentSession) Trial() model.Trial {
	return s.trial
}

// Start fires the intake → review transition: looks up evidence for the
// topic, extracts a claim from it, and moves to review. On any failure the
// session remains in intake with no trial state set. No retries; the
// operator starts over manually.
func (s *ExperimentSession) Start(ctx context.Context, topic string, mode model.Mode) error {
	if s.state != StateIntake {
		return fmt.Errorf("start: session is in %s, expected %s", s.state, StateIntake)
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return fmt.Errorf("start: topic must not be empty")
	}

	evidence, err := s.lookup.Lookup(ctx, topic)
	if err != nil {
		return fmt.Errorf("evidence lookup: %w", err)
	}

	claim, err := s.extractor.ExtractClaim(ctx, evidence.Content)
	if err != nil {
		return fmt.Errorf("claim extraction: %w", err)
	}

	s.trial = model.Trial{
		Topic:    topic,
		Evidence: evidence,
		Claim:    claim,
		Mode:     mode,
	}
	s.state = StateReview
	return nil
}

// Approve records an accurate verdict and logs the trial.
func (s *ExperimentSession) Approve() error {
	return s.submitVerdict(model.VerdictAccurate)
}

// Reject records a hallucination verdict and logs the trial.
func (s *ExperimentSession) Reject() error {
	return s.submitVerdict(model.VerdictHallucination)
}

func (s *ExperimentSession) submitVerdict(verdict model.Verdict) error {
	if s.state != StateReview {
		return fmt.Errorf("verdict: session is in %s, expected %s", s.state, StateReview)
	}

	rec := model.TrialRecord{
		Topic:     s.trial.Topic,
		Claim:     s.trial.Claim,
		SourceURL: s.trial.Evidence.URL,
		Verdict:   verdict,
		Mode:      s.trial.Mode,
	}

	if err := s.store.Append(rec); err != nil {
		// The record was lost; stay in review so the operator can retry the
		// verdict once the store is writable again, or restart.
		return fmt.Errorf("record not logged: %w", err)
	}

	s.state = StateLogged
	return nil
}

// Restart discards the current trial without logging it and returns to
// intake. Abandoned trials never reach the result log.
func (s *ExperimentSession) Restart() {
	s.trial = model.Trial{}
	s.state = StateIntake
}

// Next clears a logged trial, ready for a new topic.
func (s *ExperimentSession) Next() error {
	if s.state != StateLogged {
		return fmt.Errorf("next: session is in %s, expected %s", s.state, StateLogged)
	}
	s.trial = model.Trial{}
	s.state = StateIntake
	return nil
}
