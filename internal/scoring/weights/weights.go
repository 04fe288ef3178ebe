// Package weights implements the Weights & Scenarios component (spec.md
// §4.B): the four named weight vectors, tier classification, and weighted
// aggregation used by both the Scoring Engine and the Portfolio Aggregator.
package weights

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/apperr"
	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
)

// WeightVector maps each of the seven factor keys to a non-negative weight;
// weights for a given scenario must sum to 1.0 within ±0.001.
type WeightVector map[domain.FactorKey]decimal.Decimal

func wv(hardAssets, preciousMetals, commodities, foreignRevenue, pricingPower, debtStructure, essentialServices float64) WeightVector {
	return WeightVector{
		domain.FactorHardAssets:        decimal.NewFromFloat(hardAssets),
		domain.FactorPreciousMetals:    decimal.NewFromFloat(preciousMetals),
		domain.FactorCommodities:       decimal.NewFromFloat(commodities),
		domain.FactorForeignRevenue:    decimal.NewFromFloat(foreignRevenue),
		domain.FactorPricingPower:      decimal.NewFromFloat(pricingPower),
		domain.FactorDebtStructure:     decimal.NewFromFloat(debtStructure),
		domain.FactorEssentialServices: decimal.NewFromFloat(essentialServices),
	}
}

// Vectors holds the four fixed weight vectors of spec.md §4.B's table.
var Vectors = map[domain.Scenario]WeightVector{
	domain.ScenarioCurrent: wv(0.25, 0.15, 0.15, 0.15, 0.15, 0.10, 0.05),
	domain.ScenarioGradual: wv(0.25, 0.15, 0.15, 0.15, 0.15, 0.10, 0.05),
	domain.ScenarioRapid:   wv(0.30, 0.25, 0.20, 0.10, 0.10, 0.05, 0.00),
	domain.ScenarioHyper:   wv(0.35, 0.35, 0.20, 0.05, 0.05, 0.00, 0.00),
}

// tierBounds is ordered from highest floor to lowest; Tiers are
// half-open [floor, ceiling) except FORTRESS which includes 100.
var tierBounds = []struct {
	tier  domain.Tier
	floor float64
}{
	{domain.TierFortress, 80},
	{domain.TierResilient, 65},
	{domain.TierModerate, 50},
	{domain.TierVulnerable, 35},
	{domain.TierExposed, 0},
}

// TierOf classifies a total_score per spec.md §4.B's FORTRESS family —
// the scheme SPEC_FULL.md's Open Question 1 resolution adopts because it
// matches the rankings API contract consumers see.
func TierOf(totalScore decimal.Decimal) domain.Tier {
	f, _ := totalScore.Float64()
	for _, b := range tierBounds {
		if f >= b.floor {
			return b.tier
		}
	}
	return domain.TierExposed
}

const weightSumTolerance = 0.001

// Validate checks a WeightVector sums to 1.0 within tolerance. A failure
// here is an InvariantViolation: fatal at startup, per spec.md §7 — a
// malformed weight vector must never silently produce a wrong score.
func Validate(v WeightVector) error {
	sum := decimal.Zero
	for _, k := range domain.AllFactors {
		w, ok := v[k]
		if !ok {
			return apperr.InvariantViolation(fmt.Sprintf("weight vector missing factor %s", k), nil)
		}
		if w.IsNegative() {
			return apperr.InvariantViolation(fmt.Sprintf("weight vector has negative weight for %s", k), nil)
		}
		sum = sum.Add(w)
	}
	diff := sum.Sub(decimal.NewFromInt(1)).Abs()
	tol := decimal.NewFromFloat(weightSumTolerance)
	if diff.GreaterThan(tol) {
		return apperr.InvariantViolation(fmt.Sprintf("weight vector sums to %s, want 1.0 ±%.3f", sum.String(), weightSumTolerance), nil)
	}
	return nil
}

// ValidateAll checks every fixed vector in Vectors; called once at process
// startup so a broken constant fails fast rather than corrupting scores.
func ValidateAll() error {
	for scenario, v := range Vectors {
		if err := Validate(v); err != nil {
			return fmt.Errorf("scenario %s: %w", scenario, err)
		}
	}
	return nil
}

// Aggregate computes Σ factor_score[k] * weight[k], rounded to two
// decimals (half-up, per SPEC_FULL.md's decimal-arithmetic ambient rule).
func Aggregate(factorScores map[domain.FactorKey]decimal.Decimal, v WeightVector) decimal.Decimal {
	total := decimal.Zero
	for _, k := range domain.AllFactors {
		total = total.Add(factorScores[k].Mul(v[k]))
	}
	return total.Round(2)
}
