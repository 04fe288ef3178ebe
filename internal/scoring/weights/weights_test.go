package weights

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
)

func TestValidateAll(t *testing.T) {
	require.NoError(t, ValidateAll())
}

func TestValidate_RejectsBadSum(t *testing.T) {
	v := WeightVector{
		domain.FactorHardAssets:        decimal.NewFromFloat(0.5),
		domain.FactorPreciousMetals:    decimal.NewFromFloat(0.5),
		domain.FactorCommodities:       decimal.Zero,
		domain.FactorForeignRevenue:    decimal.Zero,
		domain.FactorPricingPower:      decimal.Zero,
		domain.FactorDebtStructure:     decimal.Zero,
		domain.FactorEssentialServices: decimal.NewFromFloat(0.5), // sums to 1.5
	}
	err := Validate(v)
	assert.Error(t, err)
}

func TestTierOf(t *testing.T) {
	cases := []struct {
		score float64
		tier  domain.Tier
	}{
		{100, domain.TierFortress},
		{80, domain.TierFortress},
		{79.99, domain.TierResilient},
		{65, domain.TierResilient},
		{50, domain.TierModerate},
		{35, domain.TierVulnerable},
		{0, domain.TierExposed},
		{34.99, domain.TierExposed},
	}
	for _, c := range cases {
		got := TierOf(decimal.NewFromFloat(c.score))
		assert.Equal(t, c.tier, got, "score %v", c.score)
	}
}

func TestAggregate_Linear(t *testing.T) {
	factors := map[domain.FactorKey]decimal.Decimal{}
	for _, k := range domain.AllFactors {
		factors[k] = decimal.NewFromInt(10)
	}
	base := Aggregate(factors, Vectors[domain.ScenarioCurrent])

	doubled := map[domain.FactorKey]decimal.Decimal{}
	for _, k := range domain.AllFactors {
		doubled[k] = decimal.NewFromInt(20)
	}
	twice := Aggregate(doubled, Vectors[domain.ScenarioCurrent])

	assert.True(t, twice.Equal(base.Mul(decimal.NewFromInt(2))))
}

func TestAggregate_MatchesWeightedSumWithinTolerance(t *testing.T) {
	factors := map[domain.FactorKey]decimal.Decimal{
		domain.FactorHardAssets:        decimal.NewFromInt(90),
		domain.FactorPreciousMetals:    decimal.NewFromInt(10),
		domain.FactorCommodities:       decimal.NewFromInt(20),
		domain.FactorForeignRevenue:    decimal.NewFromInt(30),
		domain.FactorPricingPower:      decimal.NewFromInt(40),
		domain.FactorDebtStructure:     decimal.NewFromInt(50),
		domain.FactorEssentialServices: decimal.NewFromInt(60),
	}
	for scenario, v := range Vectors {
		got := Aggregate(factors, v)
		want := decimal.Zero
		for _, k := range domain.AllFactors {
			want = want.Add(factors[k].Mul(v[k]))
		}
		diff := got.Sub(want).Abs()
		assert.True(t, diff.LessThanOrEqual(decimal.NewFromFloat(0.01)), "scenario %s", scenario)
	}
}
