package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertType enumerates the three rule kinds of §4.F.
type AlertType string

const (
	AlertTypeThreshold AlertType = "threshold"
	AlertTypeScoreDrop AlertType = "score_drop"
	AlertTypeScoreRise AlertType = "score_rise"
)

// ThresholdDirection is the comparison direction for AlertTypeThreshold.
type ThresholdDirection string

const (
	ThresholdAbove ThresholdDirection = "above"
	ThresholdBelow ThresholdDirection = "below"
)

// Alert is a user-owned rule over the SurvivalScore time series of one
// company, optionally scoped to a portfolio for display grouping.
type Alert struct {
	ID     int64
	UserID string

	CompanyID   CompanyID // required for all three alert types
	PortfolioID *PortfolioID

	AlertType           AlertType
	ThresholdValue      *decimal.Decimal
	ThresholdDirection  *ThresholdDirection
	ChangePercent       *decimal.Decimal

	IsActive        bool
	LastTriggeredAt *time.Time
	TriggerCount    int

	NotifyEmail bool
	NotifyPush  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fired returns a copy of a with trigger bookkeeping applied, as §4.F
// mandates on every fire: last_triggered_at=now, trigger_count+=1.
func (a Alert) Fired(now time.Time) Alert {
	a.LastTriggeredAt = &now
	a.TriggerCount++
	return a
}

// CooldownActive reports whether a's cooldown window (since its last
// trigger) is still in effect, per SPEC_FULL.md's §4.F "SHOULD debounce"
// resolution: a configurable minimum cooldown rather than a hard invariant.
func (a Alert) CooldownActive(now time.Time, cooldown time.Duration) bool {
	if a.LastTriggeredAt == nil || cooldown <= 0 {
		return false
	}
	return now.Sub(*a.LastTriggeredAt) < cooldown
}
