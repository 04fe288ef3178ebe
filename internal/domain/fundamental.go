package domain

import "github.com/shopspring/decimal"

// Fundamental is a financial snapshot per (company, fiscal_year,
// fiscal_quarter), unique on that triple. FiscalQuarter is nil for
// annual-only filers; Fundamental.Latest queries order nulls last.
//
// All financial fields are nullable (*decimal.Decimal) because ingestion
// from SEC EDGAR and the market-data vendor frequently cannot populate
// every line item for every filer.
type Fundamental struct {
	ID            int64
	CompanyID     CompanyID
	FiscalYear    int
	FiscalQuarter *int // 1-4, nil for annual-only filings

	// Balance sheet
	TotalAssets      *decimal.Decimal
	TangibleAssets   *decimal.Decimal
	IntangibleAssets *decimal.Decimal
	CurrentAssets    *decimal.Decimal
	TotalLiabilities *decimal.Decimal
	TotalDebt        *decimal.Decimal
	ShortTermDebt    *decimal.Decimal
	LongTermDebt     *decimal.Decimal
	Cash             *decimal.Decimal

	// Debt structure
	FixedRateDebtPct     *decimal.Decimal
	FloatingRateDebtPct  *decimal.Decimal
	AvgDebtMaturityYears *decimal.Decimal
	AvgInterestRate      *decimal.Decimal

	// Revenue breakdown
	TotalRevenue          *decimal.Decimal
	DomesticRevenue       *decimal.Decimal
	ForeignRevenue        *decimal.Decimal
	ForeignRevenuePct     *decimal.Decimal
	RevenueByRegion       map[string]decimal.Decimal
	CommodityRevenue      *decimal.Decimal
	CommodityRevenuePct   *decimal.Decimal
	PreciousMetalsRevenue *decimal.Decimal
	PreciousMetalsRevenuePct *decimal.Decimal

	// Mining-specific reserves
	ProvenReservesOz     *decimal.Decimal
	ProbableReservesOz   *decimal.Decimal
	ReserveValue         *decimal.Decimal
	ProductionCostPerOz  *decimal.Decimal

	// Profitability
	GrossProfit      *decimal.Decimal
	GrossMargin      *decimal.Decimal
	OperatingProfit  *decimal.Decimal
	OperatingMargin  *decimal.Decimal
	NetProfit        *decimal.Decimal
	NetMargin        *decimal.Decimal

	// Stability
	GrossMargin5yrAvg *decimal.Decimal
	GrossMargin5yrStd *decimal.Decimal
	Revenue3yrCAGR    *decimal.Decimal
}

// CompanyData is the read projection of Company ⋈ Fundamental the Factor
// Scorer (4.A) consumes. It is deliberately flat and has no pointer back
// to either source row: the scoring kernel never reaches back into storage.
type CompanyData struct {
	Ticker   string
	Sector   string
	Industry string

	TotalAssets      *decimal.Decimal
	TangibleAssets   *decimal.Decimal
	TotalDebt        *decimal.Decimal

	FixedRateDebtPct     *decimal.Decimal
	AvgDebtMaturityYears *decimal.Decimal

	TotalRevenue          *decimal.Decimal
	ForeignRevenuePct     *decimal.Decimal
	CommodityRevenuePct   *decimal.Decimal
	PreciousMetalsRevenuePct *decimal.Decimal
	ProvenReservesOz      *decimal.Decimal

	GrossMargin       *decimal.Decimal
	GrossMargin5yrStd *decimal.Decimal
}

// ToCompanyData projects a Company and its latest Fundamental into the
// flat shape the scoring kernel consumes.
func ToCompanyData(c Company, f *Fundamental) CompanyData {
	d := CompanyData{
		Ticker:   c.Ticker,
		Sector:   c.Sector,
		Industry: c.Industry,
	}
	if f == nil {
		return d
	}
	d.TotalAssets = f.TotalAssets
	d.TangibleAssets = f.TangibleAssets
	d.TotalDebt = f.TotalDebt
	d.FixedRateDebtPct = f.FixedRateDebtPct
	d.AvgDebtMaturityYears = f.AvgDebtMaturityYears
	d.TotalRevenue = f.TotalRevenue
	d.ForeignRevenuePct = f.ForeignRevenuePct
	d.CommodityRevenuePct = f.CommodityRevenuePct
	d.PreciousMetalsRevenuePct = f.PreciousMetalsRevenuePct
	d.ProvenReservesOz = f.ProvenReservesOz
	d.GrossMargin = f.GrossMargin
	d.GrossMargin5yrStd = f.GrossMargin5yrStd
	return d
}
