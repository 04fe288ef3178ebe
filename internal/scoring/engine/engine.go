// Package engine implements the Scoring Engine (spec.md §4.C): it
// orchestrates the Factor Scorer (factors) and Weights & Scenarios
// (weights) packages into a single ScoreResult. The orchestration shape —
// a struct of component + weighted-contribution fields, a metadata block,
// and a human-readable Explain — is adapted from the teacher's
// domain/scoring.CompositeScorer; the regime-detection and
// Gram-Schmidt-orthogonalization machinery that composite.go built on top
// of that shape does not apply here (this system uses fixed weight
// vectors keyed by scenario name, not a regime detector) and is not
// carried over.
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/scoring/factors"
	"github.com/broseidonlordofthebrocean/hedge/internal/scoring/weights"
)

// confidenceInput is one of the ten CompanyData fields spec.md §4.C counts
// for the confidence calculation; computeConfidence lists them in its order.
type confidenceInput struct {
	name    string
	present bool
}

// ScoreResult is the Scoring Engine's public output for one company.
type ScoreResult struct {
	TotalScore decimal.Decimal
	Tier       domain.Tier
	Confidence decimal.Decimal
	Factors    map[domain.FactorKey]decimal.Decimal
	Scenarios  map[domain.Scenario]decimal.Decimal
}

// Score computes the full ScoreResult for d. Determinism: identical d
// produces a byte-identical result (spec.md §4.C), since every step is a
// pure decimal computation over d with no hidden state.
func Score(d domain.CompanyData) ScoreResult {
	factorScores := factors.Score(d)

	total := weights.Aggregate(factorScores, weights.Vectors[domain.ScenarioCurrent])
	tier := weights.TierOf(total)
	confidence := computeConfidence(d)

	scenarios := make(map[domain.Scenario]decimal.Decimal, len(weights.Vectors))
	for scenario, v := range weights.Vectors {
		scenarios[scenario] = weights.Aggregate(factorScores, v)
	}

	return ScoreResult{
		TotalScore: total,
		Tier:       tier,
		Confidence: confidence,
		Factors:    factorScores,
		Scenarios:  scenarios,
	}
}

// computeConfidence implements spec.md §4.C's confidence formula:
// 0.3 + (available/10)*0.7, clamped to [0.3, 1.0], rounded to two decimals.
func computeConfidence(d domain.CompanyData) decimal.Decimal {
	inputs := []confidenceInput{
		{"total_assets", d.TotalAssets != nil},
		{"tangible_assets", d.TangibleAssets != nil},
		{"total_revenue", d.TotalRevenue != nil},
		{"foreign_revenue_pct", d.ForeignRevenuePct != nil},
		{"gross_margin", d.GrossMargin != nil},
		{"gross_margin_5yr_std", d.GrossMargin5yrStd != nil},
		{"total_debt", d.TotalDebt != nil},
		{"fixed_rate_debt_pct", d.FixedRateDebtPct != nil},
		{"avg_debt_maturity_years", d.AvgDebtMaturityYears != nil},
		{"commodity_revenue_pct", d.CommodityRevenuePct != nil},
	}

	available := 0
	for _, in := range inputs {
		if in.present {
			available++
		}
	}

	base := decimal.NewFromFloat(0.3)
	scale := decimal.NewFromInt(int64(available)).Div(decimal.NewFromInt(10)).Mul(decimal.NewFromFloat(0.7))
	confidence := base.Add(scale)

	low, high := decimal.NewFromFloat(0.3), decimal.NewFromInt(1)
	if confidence.LessThan(low) {
		confidence = low
	}
	if confidence.GreaterThan(high) {
		confidence = high
	}
	return confidence.Round(2)
}

// ToSurvivalScore projects a ScoreResult into the persisted SurvivalScore
// row for (companyID, scoreDate), tagged with the running scoring_version.
func ToSurvivalScore(companyID domain.CompanyID, scoreDate time.Time, r ScoreResult, version string) domain.SurvivalScore {
	return domain.SurvivalScore{
		CompanyID:         companyID,
		ScoreDate:         scoreDate,
		TotalScore:        r.TotalScore,
		Confidence:        r.Confidence,
		Tier:              r.Tier,
		HardAssets:        r.Factors[domain.FactorHardAssets],
		PreciousMetals:    r.Factors[domain.FactorPreciousMetals],
		Commodities:       r.Factors[domain.FactorCommodities],
		ForeignRevenue:    r.Factors[domain.FactorForeignRevenue],
		PricingPower:      r.Factors[domain.FactorPricingPower],
		DebtStructure:     r.Factors[domain.FactorDebtStructure],
		EssentialServices: r.Factors[domain.FactorEssentialServices],
		ScenarioGradual:   r.Scenarios[domain.ScenarioGradual],
		ScenarioRapid:     r.Scenarios[domain.ScenarioRapid],
		ScenarioHyper:     r.Scenarios[domain.ScenarioHyper],
		ScoringVersion:    version,
	}
}

// Explain renders a human-readable breakdown of r, in the teacher's
// GetScoreExplanation style. The scoring path does not call it.
func Explain(ticker string, r ScoreResult) string {
	out := fmt.Sprintf("Survival Score for %s: %s (tier %s, confidence %s)\n", ticker, r.TotalScore.String(), r.Tier, r.Confidence.String())
	out += "Factors:\n"
	for _, k := range domain.AllFactors {
		out += fmt.Sprintf("  %-20s %s\n", k, r.Factors[k].String())
	}
	out += "Scenarios:\n"
	for _, s := range []domain.Scenario{domain.ScenarioCurrent, domain.ScenarioGradual, domain.ScenarioRapid, domain.ScenarioHyper} {
		out += fmt.Sprintf("  %-10s %s\n", s, r.Scenarios[s].String())
	}
	return out
}
