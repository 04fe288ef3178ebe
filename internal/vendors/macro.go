package vendors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
)

// macroPayload is the wire shape the configured macro-data vendor returns.
// Field names follow the vendor's JSON, not domain.MacroData's.
type macroPayload struct {
	DollarIndex   float64            `json:"dollar_index"`
	DollarIndex1d float64            `json:"dollar_index_1d_change_pct"`
	GoldUSD       float64            `json:"gold_usd_oz"`
	SilverUSD     float64            `json:"silver_usd_oz"`
	PlatinumUSD   float64            `json:"platinum_usd_oz"`
	OilUSD        float64            `json:"wti_crude_usd_bbl"`
	CopperUSD     float64            `json:"copper_usd_lb"`
	M2Trillions   float64            `json:"m2_money_supply_trillions"`
	FedFundsRate  float64            `json:"fed_funds_rate_pct"`
	TenYearYield  float64            `json:"ten_year_treasury_pct"`
	CPIYoY        float64            `json:"cpi_yoy_pct"`
	PCEYoY        float64            `json:"pce_yoy_pct"`
	FXRates       map[string]float64 `json:"fx_rates"`
}

// MacroRefresher fetches the day's macro snapshot from the configured
// vendor and upserts it, backing internal/scheduler's hourly macro job.
type MacroRefresher struct {
	client  *http.Client
	baseURL string
	repo    persistence.MacroDataRepo
}

// NewMacroRefresher builds a MacroRefresher bound to the "macro" vendor
// entry in config.AppConfig.Vendors.
func NewMacroRefresher(mgr *Manager, baseURL string, repo persistence.MacroDataRepo) (*MacroRefresher, error) {
	client, ok := mgr.Client("macro")
	if !ok {
		return nil, fmt.Errorf("no %q vendor configured", "macro")
	}
	return &MacroRefresher{client: client, baseURL: baseURL, repo: repo}, nil
}

// Refresh fetches and upserts today's MacroData row.
func (r *MacroRefresher) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/latest", nil)
	if err != nil {
		return fmt.Errorf("build macro request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch macro data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("macro vendor returned %d: %s", resp.StatusCode, body)
	}

	var payload macroPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode macro payload: %w", err)
	}

	m := toMacroData(payload)
	m.DataDate = time.Now().Truncate(24 * time.Hour)
	return r.repo.Upsert(ctx, m)
}

func toMacroData(p macroPayload) domain.MacroData {
	f := decimal.NewFromFloat
	pairs := make(map[string]decimal.Decimal, len(p.FXRates))
	for k, v := range p.FXRates {
		pairs[k] = f(v)
	}
	return domain.MacroData{
		DollarIndex:      f(p.DollarIndex),
		DollarIndex1dChg: f(p.DollarIndex1d),
		GoldPrice:        f(p.GoldUSD),
		SilverPrice:      f(p.SilverUSD),
		PlatinumPrice:    f(p.PlatinumUSD),
		OilPrice:         f(p.OilUSD),
		CopperPrice:      f(p.CopperUSD),
		M2Supply:         f(p.M2Trillions),
		FedFundsRate:     f(p.FedFundsRate),
		TenYearYield:     f(p.TenYearYield),
		CPIYoY:           f(p.CPIYoY),
		PCEYoY:           f(p.PCEYoY),
		CurrencyPairs:    pairs,
	}
}
