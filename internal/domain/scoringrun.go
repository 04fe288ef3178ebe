package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunStatus is the ScoringRun state machine of §4.D.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ScoringRun is one batch invocation's audit record, written before any
// SurvivalScore row it produces (spec.md §5 ordering requirement) and
// never mutated by workers — only by the run's coordinator.
type ScoringRun struct {
	ID      uuid.UUID
	RunDate time.Time

	CompaniesScored int
	CompaniesFailed int

	AvgScore    *decimal.Decimal
	MedianScore *decimal.Decimal

	DurationSeconds *decimal.Decimal
	ScoringVersion  string
	Status          RunStatus
	ErrorMessage    *string

	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewScoringRun starts a run record in the running state.
func NewScoringRun(runDate time.Time, version string) ScoringRun {
	return ScoringRun{
		ID:             uuid.New(),
		RunDate:        runDate,
		ScoringVersion: version,
		Status:         RunStatusRunning,
		StartedAt:      time.Now(),
	}
}

// Complete finalizes the run with its counts and stats. duration_seconds is
// computed here from completed_at - started_at, per SPEC_FULL.md's
// resolution of spec.md §9 open question 4 (the source never computes it).
func (r *ScoringRun) Complete(scored, failed int, avg, median *decimal.Decimal) {
	now := time.Now()
	r.CompaniesScored = scored
	r.CompaniesFailed = failed
	r.AvgScore = avg
	r.MedianScore = median
	r.CompletedAt = &now
	dur := decimal.NewFromFloat(now.Sub(r.StartedAt).Seconds())
	r.DurationSeconds = &dur
	r.Status = RunStatusCompleted
}

// Fail finalizes the run as failed with an error message, per §4.D step 6.
func (r *ScoringRun) Fail(errMsg string) {
	now := time.Now()
	r.CompletedAt = &now
	dur := decimal.NewFromFloat(now.Sub(r.StartedAt).Seconds())
	r.DurationSeconds = &dur
	r.Status = RunStatusFailed
	r.ErrorMessage = &errMsg
}
