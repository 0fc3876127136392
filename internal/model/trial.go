package model

import "time"

// Mode selects the review condition for a trial. Blind mode withholds the
// source evidence from the operator (control); source-grounded mode shows it
// alongside the claim (treatment).
type Mode string

const (
	ModeBlind          Mode = "blind"
	ModeSourceGrounded Mode = "source_grounded"
)

func (m Mode) String() string {
	return string(m)
}

// Verdict is the operator's judgement on an AI-generated claim.
type Verdict string

const (
	VerdictAccurate      Verdict = "accurate"
	VerdictHallucination Verdict = "hallucination"
)

func (v Verdict) String() string {
	return string(v)
}

// Evidence is a single search hit backing a claim.
type Evidence struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
}

// Trial holds the in-flight state of one experiment run. It is ephemeral:
// nothing is persisted until the operator issues a verdict.
//
// Invariants: Claim is non-empty only once Evidence is set; a verdict can be
// issued only once Claim is non-empty.
type Trial struct {
	Topic    string
	Evidence *Evidence
	Claim    string
	Mode     Mode
}

// TrialRecord is the persisted, immutable outcome of one completed trial.
type TrialRecord struct {
	Timestamp time.Time
	Topic     string
	Claim     string
	SourceURL string
	Verdict   Verdict
	Mode      Mode
}
