package model

import (
	"time"
)

// Verification verdicts.
const (
	VerdictPass = "pass"
	VerdictWarn = "warn"
	VerdictFail = "fail"
)

// VerificationResult is the outcome of the post-answer self-check. A fail
// verdict with a non-empty RevisedAnswer means the revision replaced the
// original reply.
type VerificationResult struct {
	Verdict       string             `json:"verdict"`
	Notes         []string           `json:"notes,omitempty"`
	RevisedAnswer string             `json:"revised_answer,omitempty"`
	Scores        map[string]float64 `json:"scores,omitempty"`
	CheckedAt     time.Time          `json:"checked_at"`
}
