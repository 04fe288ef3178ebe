// Package alerts implements the Alert Evaluator (spec.md §4.F): on every
// tick it loads active Alert rules, compares each against the relevant
// company's current and historical SurvivalScore, and fires the ones
// whose condition holds and whose cooldown has elapsed.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
)

// Notifier delivers a fired alert to the user. The concrete implementation
// (email, push, websocket) lives in internal/interfaces; the evaluator
// only depends on this narrow interface so it stays testable without a
// real delivery channel.
type Notifier interface {
	Notify(ctx context.Context, a domain.Alert, score domain.SurvivalScore, message string) error
}

// Evaluator is the Alert Evaluator component.
type Evaluator struct {
	alerts   persistence.AlertRepo
	scores   persistence.SurvivalScoreRepo
	notifier Notifier
	cooldown time.Duration
}

// New builds an Evaluator. cooldown is the configurable minimum interval
// between fires of the same alert (SPEC_FULL.md's resolution of §4.F's
// "SHOULD debounce" open question — 1 hour by default).
func New(alerts persistence.AlertRepo, scores persistence.SurvivalScoreRepo, notifier Notifier, cooldown time.Duration) *Evaluator {
	if cooldown <= 0 {
		cooldown = time.Hour
	}
	return &Evaluator{alerts: alerts, scores: scores, notifier: notifier, cooldown: cooldown}
}

// Tick evaluates every active alert once, firing and persisting the ones
// whose condition holds. Per-alert failures are logged and skipped, never
// abort the sweep, so one bad alert never crashes the scheduler.
func (e *Evaluator) Tick(ctx context.Context) (fired int, err error) {
	active, err := e.alerts.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active alerts: %w", err)
	}

	now := time.Now()
	for _, a := range active {
		if a.CooldownActive(now, e.cooldown) {
			continue
		}
		ok, score, message, err := e.evaluate(ctx, a)
		if err != nil {
			log.Warn().Int64("alert_id", a.ID).Err(err).Msg("alert evaluation failed")
			continue
		}
		if !ok {
			continue
		}

		fired++
		updated := a.Fired(now)
		if err := e.alerts.MarkFired(ctx, updated); err != nil {
			log.Warn().Int64("alert_id", a.ID).Err(err).Msg("failed to persist alert fire")
		}
		if e.notifier != nil {
			if err := e.notifier.Notify(ctx, updated, score, message); err != nil {
				log.Warn().Int64("alert_id", a.ID).Err(err).Msg("alert notification failed")
			}
		}
	}
	return fired, nil
}

func (e *Evaluator) evaluate(ctx context.Context, a domain.Alert) (bool, domain.SurvivalScore, string, error) {
	current, err := e.scores.Latest(ctx, a.CompanyID)
	if err != nil {
		return false, domain.SurvivalScore{}, "", fmt.Errorf("latest score: %w", err)
	}
	if current == nil {
		return false, domain.SurvivalScore{}, "", nil
	}

	switch a.AlertType {
	case domain.AlertTypeThreshold:
		return e.evaluateThreshold(a, *current)
	case domain.AlertTypeScoreDrop, domain.AlertTypeScoreRise:
		return e.evaluateChange(ctx, a, *current)
	default:
		return false, domain.SurvivalScore{}, "", fmt.Errorf("unknown alert type %q", a.AlertType)
	}
}

func (e *Evaluator) evaluateThreshold(a domain.Alert, current domain.SurvivalScore) (bool, domain.SurvivalScore, string, error) {
	if a.ThresholdValue == nil || a.ThresholdDirection == nil {
		return false, current, "", fmt.Errorf("threshold alert %d missing threshold_value/direction", a.ID)
	}
	switch *a.ThresholdDirection {
	case domain.ThresholdAbove:
		if current.TotalScore.GreaterThan(*a.ThresholdValue) {
			return true, current, fmt.Sprintf("score %s rose above threshold %s", current.TotalScore, a.ThresholdValue), nil
		}
	case domain.ThresholdBelow:
		if current.TotalScore.LessThan(*a.ThresholdValue) {
			return true, current, fmt.Sprintf("score %s fell below threshold %s", current.TotalScore, a.ThresholdValue), nil
		}
	}
	return false, current, "", nil
}

// evaluateChange compares the two most recent SurvivalScore rows, per
// spec.md §4.F. Recent(n=2) returns newest-first, so index 0 is current
// and index 1 is the prior run; a company scored only once has no prior
// row to compare against and can't fire a change alert yet.
func (e *Evaluator) evaluateChange(ctx context.Context, a domain.Alert, current domain.SurvivalScore) (bool, domain.SurvivalScore, string, error) {
	if a.ChangePercent == nil {
		return false, current, "", fmt.Errorf("change alert %d missing change_percent", a.ID)
	}

	recent, err := e.scores.Recent(ctx, a.CompanyID, 2)
	if err != nil {
		return false, current, "", fmt.Errorf("recent scores: %w", err)
	}
	if len(recent) < 2 {
		return false, current, "", nil
	}
	baseline := recent[1]
	if baseline.TotalScore.IsZero() {
		return false, current, "", nil
	}

	changePct := current.TotalScore.Sub(baseline.TotalScore).Div(baseline.TotalScore).Mul(decimal.NewFromInt(100))

	switch a.AlertType {
	case domain.AlertTypeScoreDrop:
		if changePct.LessThanOrEqual(a.ChangePercent.Neg()) {
			return true, current, fmt.Sprintf("score dropped %s%% since the prior run (%s -> %s)", changePct.Round(2), baseline.TotalScore, current.TotalScore), nil
		}
	case domain.AlertTypeScoreRise:
		if changePct.GreaterThanOrEqual(*a.ChangePercent) {
			return true, current, fmt.Sprintf("score rose %s%% since the prior run (%s -> %s)", changePct.Round(2), baseline.TotalScore, current.TotalScore), nil
		}
	}
	return false, current, "", nil
}
