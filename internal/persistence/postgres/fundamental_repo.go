package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
)

// fundamentalRow mirrors the fundamentals table; every financial column is
// nullable so decimal.NullDecimal is used throughout.
type fundamentalRow struct {
	ID            int64         `db:"id"`
	CompanyID     int64         `db:"company_id"`
	FiscalYear    int           `db:"fiscal_year"`
	FiscalQuarter sql.NullInt64 `db:"fiscal_quarter"`

	TotalAssets      decimal.NullDecimal `db:"total_assets"`
	TangibleAssets   decimal.NullDecimal `db:"tangible_assets"`
	IntangibleAssets decimal.NullDecimal `db:"intangible_assets"`
	CurrentAssets    decimal.NullDecimal `db:"current_assets"`
	TotalLiabilities decimal.NullDecimal `db:"total_liabilities"`
	TotalDebt        decimal.NullDecimal `db:"total_debt"`
	ShortTermDebt    decimal.NullDecimal `db:"short_term_debt"`
	LongTermDebt     decimal.NullDecimal `db:"long_term_debt"`
	Cash             decimal.NullDecimal `db:"cash"`

	FixedRateDebtPct     decimal.NullDecimal `db:"fixed_rate_debt_pct"`
	FloatingRateDebtPct  decimal.NullDecimal `db:"floating_rate_debt_pct"`
	AvgDebtMaturityYears decimal.NullDecimal `db:"avg_debt_maturity_years"`
	AvgInterestRate      decimal.NullDecimal `db:"avg_interest_rate"`

	TotalRevenue             decimal.NullDecimal `db:"total_revenue"`
	DomesticRevenue          decimal.NullDecimal `db:"domestic_revenue"`
	ForeignRevenue           decimal.NullDecimal `db:"foreign_revenue"`
	ForeignRevenuePct        decimal.NullDecimal `db:"foreign_revenue_pct"`
	RevenueByRegion          []byte              `db:"revenue_by_region"`
	CommodityRevenue         decimal.NullDecimal `db:"commodity_revenue"`
	CommodityRevenuePct      decimal.NullDecimal `db:"commodity_revenue_pct"`
	PreciousMetalsRevenue    decimal.NullDecimal `db:"precious_metals_revenue"`
	PreciousMetalsRevenuePct decimal.NullDecimal `db:"precious_metals_revenue_pct"`

	ProvenReservesOz    decimal.NullDecimal `db:"proven_reserves_oz"`
	ProbableReservesOz  decimal.NullDecimal `db:"probable_reserves_oz"`
	ReserveValue        decimal.NullDecimal `db:"reserve_value"`
	ProductionCostPerOz decimal.NullDecimal `db:"production_cost_per_oz"`

	GrossProfit     decimal.NullDecimal `db:"gross_profit"`
	GrossMargin     decimal.NullDecimal `db:"gross_margin"`
	OperatingProfit decimal.NullDecimal `db:"operating_profit"`
	OperatingMargin decimal.NullDecimal `db:"operating_margin"`
	NetProfit       decimal.NullDecimal `db:"net_profit"`
	NetMargin       decimal.NullDecimal `db:"net_margin"`

	GrossMargin5yrAvg decimal.NullDecimal `db:"gross_margin_5yr_avg"`
	GrossMargin5yrStd decimal.NullDecimal `db:"gross_margin_5yr_std"`
	Revenue3yrCAGR    decimal.NullDecimal `db:"revenue_3yr_cagr"`
}

func nd(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

func ndOf(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

func (r fundamentalRow) toDomain() domain.Fundamental {
	f := domain.Fundamental{
		ID:         r.ID,
		CompanyID:  domain.CompanyID(r.CompanyID),
		FiscalYear: r.FiscalYear,

		TotalAssets:      nd(r.TotalAssets),
		TangibleAssets:   nd(r.TangibleAssets),
		IntangibleAssets: nd(r.IntangibleAssets),
		CurrentAssets:    nd(r.CurrentAssets),
		TotalLiabilities: nd(r.TotalLiabilities),
		TotalDebt:        nd(r.TotalDebt),
		ShortTermDebt:    nd(r.ShortTermDebt),
		LongTermDebt:     nd(r.LongTermDebt),
		Cash:             nd(r.Cash),

		FixedRateDebtPct:     nd(r.FixedRateDebtPct),
		FloatingRateDebtPct:  nd(r.FloatingRateDebtPct),
		AvgDebtMaturityYears: nd(r.AvgDebtMaturityYears),
		AvgInterestRate:      nd(r.AvgInterestRate),

		TotalRevenue:             nd(r.TotalRevenue),
		DomesticRevenue:          nd(r.DomesticRevenue),
		ForeignRevenue:           nd(r.ForeignRevenue),
		ForeignRevenuePct:        nd(r.ForeignRevenuePct),
		CommodityRevenue:         nd(r.CommodityRevenue),
		CommodityRevenuePct:      nd(r.CommodityRevenuePct),
		PreciousMetalsRevenue:    nd(r.PreciousMetalsRevenue),
		PreciousMetalsRevenuePct: nd(r.PreciousMetalsRevenuePct),

		ProvenReservesOz:    nd(r.ProvenReservesOz),
		ProbableReservesOz:  nd(r.ProbableReservesOz),
		ReserveValue:        nd(r.ReserveValue),
		ProductionCostPerOz: nd(r.ProductionCostPerOz),

		GrossProfit:     nd(r.GrossProfit),
		GrossMargin:     nd(r.GrossMargin),
		OperatingProfit: nd(r.OperatingProfit),
		OperatingMargin: nd(r.OperatingMargin),
		NetProfit:       nd(r.NetProfit),
		NetMargin:       nd(r.NetMargin),

		GrossMargin5yrAvg: nd(r.GrossMargin5yrAvg),
		GrossMargin5yrStd: nd(r.GrossMargin5yrStd),
		Revenue3yrCAGR:    nd(r.Revenue3yrCAGR),
	}
	if r.FiscalQuarter.Valid {
		q := int(r.FiscalQuarter.Int64)
		f.FiscalQuarter = &q
	}
	if len(r.RevenueByRegion) > 0 {
		_ = json.Unmarshal(r.RevenueByRegion, &f.RevenueByRegion)
	}
	return f
}

type fundamentalRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewFundamentalRepo creates a PostgreSQL-backed FundamentalRepo.
func NewFundamentalRepo(db *sqlx.DB, timeout time.Duration) persistence.FundamentalRepo {
	return &fundamentalRepo{db: db, timeout: timeout}
}

const fundamentalColumns = `id, company_id, fiscal_year, fiscal_quarter,
	total_assets, tangible_assets, intangible_assets, current_assets, total_liabilities,
	total_debt, short_term_debt, long_term_debt, cash,
	fixed_rate_debt_pct, floating_rate_debt_pct, avg_debt_maturity_years, avg_interest_rate,
	total_revenue, domestic_revenue, foreign_revenue, foreign_revenue_pct, revenue_by_region,
	commodity_revenue, commodity_revenue_pct, precious_metals_revenue, precious_metals_revenue_pct,
	proven_reserves_oz, probable_reserves_oz, reserve_value, production_cost_per_oz,
	gross_profit, gross_margin, operating_profit, operating_margin, net_profit, net_margin,
	gross_margin_5yr_avg, gross_margin_5yr_std, revenue_3yr_cagr`

// Latest returns the most recent Fundamental for companyID, ordered by
// fiscal_year desc, fiscal_quarter desc nulls last (spec.md §4.D step 3).
func (r *fundamentalRepo) Latest(ctx context.Context, companyID domain.CompanyID) (*domain.Fundamental, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM fundamentals
		WHERE company_id = $1
		ORDER BY fiscal_year DESC, fiscal_quarter DESC NULLS LAST
		LIMIT 1`, fundamentalColumns)

	var row fundamentalRow
	if err := r.db.GetContext(ctx, &row, query, int64(companyID)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest fundamental: %w", err)
	}
	f := row.toDomain()
	return &f, nil
}

func (r *fundamentalRepo) Upsert(ctx context.Context, f domain.Fundamental) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	regionJSON, err := json.Marshal(f.RevenueByRegion)
	if err != nil {
		return fmt.Errorf("marshal revenue_by_region: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO fundamentals (
			company_id, fiscal_year, fiscal_quarter,
			total_assets, tangible_assets, intangible_assets, current_assets, total_liabilities,
			total_debt, short_term_debt, long_term_debt, cash,
			fixed_rate_debt_pct, floating_rate_debt_pct, avg_debt_maturity_years, avg_interest_rate,
			total_revenue, domestic_revenue, foreign_revenue, foreign_revenue_pct, revenue_by_region,
			commodity_revenue, commodity_revenue_pct, precious_metals_revenue, precious_metals_revenue_pct,
			proven_reserves_oz, probable_reserves_oz, reserve_value, production_cost_per_oz,
			gross_profit, gross_margin, operating_profit, operating_margin, net_profit, net_margin,
			gross_margin_5yr_avg, gross_margin_5yr_std, revenue_3yr_cagr
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31,
			$32, $33, $34, $35, $36, $37
		)
		ON CONFLICT (company_id, fiscal_year, fiscal_quarter) DO UPDATE SET
			total_assets = EXCLUDED.total_assets, tangible_assets = EXCLUDED.tangible_assets,
			intangible_assets = EXCLUDED.intangible_assets, current_assets = EXCLUDED.current_assets,
			total_liabilities = EXCLUDED.total_liabilities, total_debt = EXCLUDED.total_debt,
			short_term_debt = EXCLUDED.short_term_debt, long_term_debt = EXCLUDED.long_term_debt,
			cash = EXCLUDED.cash, fixed_rate_debt_pct = EXCLUDED.fixed_rate_debt_pct,
			floating_rate_debt_pct = EXCLUDED.floating_rate_debt_pct,
			avg_debt_maturity_years = EXCLUDED.avg_debt_maturity_years,
			avg_interest_rate = EXCLUDED.avg_interest_rate, total_revenue = EXCLUDED.total_revenue,
			domestic_revenue = EXCLUDED.domestic_revenue, foreign_revenue = EXCLUDED.foreign_revenue,
			foreign_revenue_pct = EXCLUDED.foreign_revenue_pct, revenue_by_region = EXCLUDED.revenue_by_region,
			commodity_revenue = EXCLUDED.commodity_revenue, commodity_revenue_pct = EXCLUDED.commodity_revenue_pct,
			precious_metals_revenue = EXCLUDED.precious_metals_revenue,
			precious_metals_revenue_pct = EXCLUDED.precious_metals_revenue_pct,
			proven_reserves_oz = EXCLUDED.proven_reserves_oz, probable_reserves_oz = EXCLUDED.probable_reserves_oz,
			reserve_value = EXCLUDED.reserve_value, production_cost_per_oz = EXCLUDED.production_cost_per_oz,
			gross_profit = EXCLUDED.gross_profit, gross_margin = EXCLUDED.gross_margin,
			operating_profit = EXCLUDED.operating_profit, operating_margin = EXCLUDED.operating_margin,
			net_profit = EXCLUDED.net_profit, net_margin = EXCLUDED.net_margin,
			gross_margin_5yr_avg = EXCLUDED.gross_margin_5yr_avg, gross_margin_5yr_std = EXCLUDED.gross_margin_5yr_std,
			revenue_3yr_cagr = EXCLUDED.revenue_3yr_cagr`,
		int64(f.CompanyID), f.FiscalYear, f.FiscalQuarter,
		ndOf(f.TotalAssets), ndOf(f.TangibleAssets), ndOf(f.IntangibleAssets), ndOf(f.CurrentAssets), ndOf(f.TotalLiabilities),
		ndOf(f.TotalDebt), ndOf(f.ShortTermDebt), ndOf(f.LongTermDebt), ndOf(f.Cash),
		ndOf(f.FixedRateDebtPct), ndOf(f.FloatingRateDebtPct), ndOf(f.AvgDebtMaturityYears), ndOf(f.AvgInterestRate),
		ndOf(f.TotalRevenue), ndOf(f.DomesticRevenue), ndOf(f.ForeignRevenue), ndOf(f.ForeignRevenuePct), regionJSON,
		ndOf(f.CommodityRevenue), ndOf(f.CommodityRevenuePct), ndOf(f.PreciousMetalsRevenue), ndOf(f.PreciousMetalsRevenuePct),
		ndOf(f.ProvenReservesOz), ndOf(f.ProbableReservesOz), ndOf(f.ReserveValue), ndOf(f.ProductionCostPerOz),
		ndOf(f.GrossProfit), ndOf(f.GrossMargin), ndOf(f.OperatingProfit), ndOf(f.OperatingMargin), ndOf(f.NetProfit), ndOf(f.NetMargin),
		ndOf(f.GrossMargin5yrAvg), ndOf(f.GrossMargin5yrStd), ndOf(f.Revenue3yrCAGR),
	)
	if err != nil {
		return fmt.Errorf("upsert fundamental for company %d: %w", f.CompanyID, err)
	}
	return nil
}
