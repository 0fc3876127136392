package session

import (
	"fmt"

	"github.com/okarpov/verilab/internal/model"
)

// ReviewView is the display contract consumed by the presentation layer
// during review. In blind mode the source fields stay zero: the evidence is
// carried inside the session so it can be logged, but it must never reach the
// rendered view. Leaking it would invalidate the control condition.
type ReviewView struct {
	Topic string
	Claim string
	Mode  model.Mode

	// Source fields, populated only in source-grounded mode
	SourceURL     string
	SourceTitle   string
	SourceContent string
}

// View builds the review view for the current trial.
func (s *ExperimentSession) View() (ReviewView, error) {
	if s.state != StateReview {
		return ReviewView{}, fmt.Errorf("view: session is in %s, expected %s", s.state, StateReview)
	}

	v := ReviewView{
		Topic: s.trial.Topic,
		Claim: s.trial.Claim,
		Mode:  s.trial.Mode,
	}

	if s.trial.Mode == model.ModeSourceGrounded && s.trial.Evidence != nil {
		v.SourceURL = s.trial.Evidence.URL
		v.SourceTitle = s.trial.Evidence.Title
		v.SourceContent = s.trial.Evidence.Content
	}

	return v, nil
}
