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

type macroRow struct {
	DataDate          time.Time       `db:"data_date"`
	DollarIndex       decimal.Decimal `db:"dollar_index"`
	DollarIndex1dChg  decimal.Decimal `db:"dollar_index_1d_chg"`
	DollarIndexYTDChg decimal.Decimal `db:"dollar_index_ytd_chg"`
	GoldPrice         decimal.Decimal `db:"gold_price"`
	SilverPrice       decimal.Decimal `db:"silver_price"`
	PlatinumPrice     decimal.Decimal `db:"platinum_price"`
	OilPrice          decimal.Decimal `db:"oil_price"`
	CopperPrice       decimal.Decimal `db:"copper_price"`
	M2Supply          decimal.Decimal `db:"m2_supply"`
	M2SupplyYoY       decimal.Decimal `db:"m2_supply_yoy"`
	FedFundsRate      decimal.Decimal `db:"fed_funds_rate"`
	TenYearYield      decimal.Decimal `db:"ten_year_yield"`
	CPIYoY            decimal.Decimal `db:"cpi_yoy"`
	PCEYoY            decimal.Decimal `db:"pce_yoy"`
	CurrencyPairs     []byte          `db:"currency_pairs"`
}

func (r macroRow) toDomain() domain.MacroData {
	m := domain.MacroData{
		DataDate:          r.DataDate,
		DollarIndex:       r.DollarIndex,
		DollarIndex1dChg:  r.DollarIndex1dChg,
		DollarIndexYTDChg: r.DollarIndexYTDChg,
		GoldPrice:         r.GoldPrice,
		SilverPrice:       r.SilverPrice,
		PlatinumPrice:     r.PlatinumPrice,
		OilPrice:          r.OilPrice,
		CopperPrice:       r.CopperPrice,
		M2Supply:          r.M2Supply,
		M2SupplyYoY:       r.M2SupplyYoY,
		FedFundsRate:      r.FedFundsRate,
		TenYearYield:      r.TenYearYield,
		CPIYoY:            r.CPIYoY,
		PCEYoY:            r.PCEYoY,
	}
	if len(r.CurrencyPairs) > 0 {
		_ = json.Unmarshal(r.CurrencyPairs, &m.CurrencyPairs)
	}
	return m
}

const macroColumns = `data_date, dollar_index, dollar_index_1d_chg, dollar_index_ytd_chg,
	gold_price, silver_price, platinum_price, oil_price, copper_price,
	m2_supply, m2_supply_yoy, fed_funds_rate, ten_year_yield, cpi_yoy, pce_yoy, currency_pairs`

type macroRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewMacroDataRepo creates a PostgreSQL-backed MacroDataRepo.
func NewMacroDataRepo(db *sqlx.DB, timeout time.Duration) persistence.MacroDataRepo {
	return &macroRepo{db: db, timeout: timeout}
}

func (r *macroRepo) Upsert(ctx context.Context, m domain.MacroData) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pairsJSON, err := json.Marshal(m.CurrencyPairs)
	if err != nil {
		return fmt.Errorf("marshal currency_pairs: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO macro_data (
			data_date, dollar_index, dollar_index_1d_chg, dollar_index_ytd_chg,
			gold_price, silver_price, platinum_price, oil_price, copper_price,
			m2_supply, m2_supply_yoy, fed_funds_rate, ten_year_yield, cpi_yoy, pce_yoy, currency_pairs
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (data_date) DO UPDATE SET
			dollar_index = EXCLUDED.dollar_index, dollar_index_1d_chg = EXCLUDED.dollar_index_1d_chg,
			dollar_index_ytd_chg = EXCLUDED.dollar_index_ytd_chg, gold_price = EXCLUDED.gold_price,
			silver_price = EXCLUDED.silver_price, platinum_price = EXCLUDED.platinum_price,
			oil_price = EXCLUDED.oil_price, copper_price = EXCLUDED.copper_price,
			m2_supply = EXCLUDED.m2_supply, m2_supply_yoy = EXCLUDED.m2_supply_yoy,
			fed_funds_rate = EXCLUDED.fed_funds_rate, ten_year_yield = EXCLUDED.ten_year_yield,
			cpi_yoy = EXCLUDED.cpi_yoy, pce_yoy = EXCLUDED.pce_yoy, currency_pairs = EXCLUDED.currency_pairs`,
		m.DataDate, m.DollarIndex, m.DollarIndex1dChg, m.DollarIndexYTDChg,
		m.GoldPrice, m.SilverPrice, m.PlatinumPrice, m.OilPrice, m.CopperPrice,
		m.M2Supply, m.M2SupplyYoY, m.FedFundsRate, m.TenYearYield, m.CPIYoY, m.PCEYoY, pairsJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert macro_data for %s: %w", m.DataDate.Format("2006-01-02"), err)
	}
	return nil
}

func (r *macroRepo) Current(ctx context.Context) (*domain.MacroData, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM macro_data ORDER BY data_date DESC LIMIT 1`, macroColumns)
	var row macroRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("current macro_data: %w", err)
	}
	m := row.toDomain()
	return &m, nil
}

func (r *macroRepo) History(ctx context.Context, tr persistence.TimeRange, limit int) ([]domain.MacroData, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM macro_data
		WHERE data_date >= $1 AND data_date <= $2
		ORDER BY data_date DESC LIMIT $3`, macroColumns)
	var rows []macroRow
	if err := r.db.SelectContext(ctx, &rows, query, tr.From, tr.To, limit); err != nil {
		return nil, fmt.Errorf("macro_data history: %w", err)
	}
	out := make([]domain.MacroData, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}
