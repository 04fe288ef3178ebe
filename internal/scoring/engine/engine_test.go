package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/scoring/weights"
)

func dptr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func TestScore_InRangeAndDeterministic(t *testing.T) {
	d := domain.CompanyData{
		Industry:          "Gold Mining",
		TotalAssets:       dptr(35e9),
		TangibleAssets:    dptr(30e9),
		ForeignRevenuePct: dptr(45),
		GrossMargin:       dptr(35),
	}

	a := Score(d)
	b := Score(d)

	assert.Equal(t, a.TotalScore.String(), b.TotalScore.String())
	assert.Equal(t, a.Tier, b.Tier)
	assert.Equal(t, a.Confidence.String(), b.Confidence.String())

	f, _ := a.TotalScore.Float64()
	assert.GreaterOrEqual(t, f, 0.0)
	assert.LessOrEqual(t, f, 100.0)

	c, _ := a.Confidence.Float64()
	assert.GreaterOrEqual(t, c, 0.3)
	assert.LessOrEqual(t, c, 1.0)

	assert.Equal(t, weights.TierOf(a.TotalScore), a.Tier)
}

func TestScore_EmptyInputYieldsMinimumConfidence(t *testing.T) {
	r := Score(domain.CompanyData{Industry: "Software"})
	assert.True(t, r.Confidence.Equal(decimal.NewFromFloat(0.3)))
}

func TestScore_FullInputYieldsMaxConfidence(t *testing.T) {
	d := domain.CompanyData{
		TotalAssets:          dptr(1),
		TangibleAssets:       dptr(1),
		TotalRevenue:         dptr(1),
		ForeignRevenuePct:    dptr(1),
		GrossMargin:          dptr(1),
		GrossMargin5yrStd:    dptr(1),
		TotalDebt:            dptr(1),
		FixedRateDebtPct:     dptr(1),
		AvgDebtMaturityYears: dptr(1),
		CommodityRevenuePct:  dptr(1),
	}
	r := Score(d)
	assert.True(t, r.Confidence.Equal(decimal.NewFromInt(1)))
}

func TestScore_ScenarioMatchesWeightedAggregate(t *testing.T) {
	d := domain.CompanyData{Industry: "Electric Utilities", GrossMargin: dptr(45)}
	r := Score(d)

	for scenario, v := range weights.Vectors {
		want := decimal.Zero
		for _, k := range domain.AllFactors {
			want = want.Add(r.Factors[k].Mul(v[k]))
		}
		got := r.Scenarios[scenario]
		diff := got.Sub(want).Abs()
		assert.True(t, diff.LessThanOrEqual(decimal.NewFromFloat(0.01)), "scenario %s: got %s want %s", scenario, got, want)
	}
}
