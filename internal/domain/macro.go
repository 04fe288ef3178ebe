package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MacroData is a per data_date (unique) snapshot of macroeconomic series
// consumed by downstream dashboards. The scoring kernel itself does not
// read MacroData — it's read-side context for the portfolio/rankings
// surfaces, carried here because spec.md §3 defines it as a first-class
// entity in the data model.
type MacroData struct {
	DataDate time.Time

	DollarIndex       decimal.Decimal
	DollarIndex1dChg  decimal.Decimal
	DollarIndexYTDChg decimal.Decimal

	GoldPrice     decimal.Decimal
	SilverPrice   decimal.Decimal
	PlatinumPrice decimal.Decimal
	OilPrice      decimal.Decimal
	CopperPrice   decimal.Decimal

	M2Supply    decimal.Decimal
	M2SupplyYoY decimal.Decimal

	FedFundsRate  decimal.Decimal
	TenYearYield  decimal.Decimal
	CPIYoY        decimal.Decimal
	PCEYoY        decimal.Decimal

	// CurrencyPairs holds the four tracked pairs, e.g. "EURUSD", "USDJPY".
	CurrencyPairs map[string]decimal.Decimal
}
