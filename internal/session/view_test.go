package session

import (
	"context"
	"strings"
	"testing"

	"github.com/okarpov/verilab/internal/model"
)

const secretContent = "Canberra is the capital of Australia since 1913."

func startedSession(t *testing.T, mode model.Mode) *ExperimentSession {
	t.Helper()

	lookup := &fakeLookup{
		evidence: &model.Evidence{
			URL:     "https://example.com/canberra",
			Title:   "Canberra",
			Content: secretContent,
		},
	}
	sess := New(lookup, &fakeExtractor{claim: "Canberra is the capital of Australia."}, &fakeStore{})

	if err := sess.Start(context.Background(), "Capital of Australia", mode); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return sess
}

func TestView_BlindModeWithholdsEvidence(t *testing.T) {
	sess := startedSession(t, model.ModeBlind)

	view, err := sess.View()
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}

	if view.Claim == "" {
		t.Error("expected claim in blind view")
	}
	if view.SourceURL != "" || view.SourceContent != "" || view.SourceTitle != "" {
		t.Errorf("blind view must not carry source fields, got url=%q title=%q content=%q",
			view.SourceURL, view.SourceTitle, view.SourceContent)
	}
	if strings.Contains(view.Claim, "example.com") {
		t.Error("blind view leaks the source URL through the claim")
	}

	// The evidence is still carried internally for logging
	if sess.Trial().Evidence == nil || sess.Trial().Evidence.URL == "" {
		t.Error("expected evidence retained internally in blind mode")
	}
}

func TestView_SourceGroundedExposesEvidence(t *testing.T) {
	sess := startedSession(t, model.ModeSourceGrounded)

	view, err := sess.View()
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}

	if view.Claim == "" {
		t.Error("expected claim in source-grounded view")
	}
	if view.SourceURL != "https://example.com/canberra" {
		t.Errorf("expected source URL exposed, got %q", view.SourceURL)
	}
	if view.SourceContent != secretContent {
		t.Errorf("expected full source content exposed, got %q", view.SourceContent)
	}
}

func TestView_RequiresReviewState(t *testing.T) {
	sess := New(&fakeLookup{}, &fakeExtractor{}, &fakeStore{})

	if _, err := sess.View(); err == nil {
		t.Error("expected View to fail outside review")
	}
}
