package vendors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
)

type quotePayload struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
}

// MarketDataRefresher refreshes every active company's cached current
// price and, transitively, every holding built on that company — backing
// internal/scheduler's every-15-minute job.
type MarketDataRefresher struct {
	client    *http.Client
	baseURL   string
	companies persistence.CompanyRepo
	holdings  persistence.PortfolioHoldingRepo
}

// NewMarketDataRefresher builds a MarketDataRefresher bound to the
// "market_data" vendor entry in config.AppConfig.Vendors.
func NewMarketDataRefresher(mgr *Manager, baseURL string, companies persistence.CompanyRepo, holdings persistence.PortfolioHoldingRepo) (*MarketDataRefresher, error) {
	client, ok := mgr.Client("market_data")
	if !ok {
		return nil, fmt.Errorf("no %q vendor configured", "market_data")
	}
	return &MarketDataRefresher{client: client, baseURL: baseURL, companies: companies, holdings: holdings}, nil
}

// Refresh quotes every active company and updates cached holding prices.
func (r *MarketDataRefresher) Refresh(ctx context.Context) error {
	active, err := r.companies.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active companies: %w", err)
	}

	tickers := make([]string, len(active))
	for i, c := range active {
		tickers[i] = c.Ticker
	}
	if len(tickers) == 0 {
		return nil
	}

	quotes, err := r.fetchQuotes(ctx, tickers)
	if err != nil {
		return fmt.Errorf("fetch quotes: %w", err)
	}

	for _, c := range active {
		price, ok := quotes[c.Ticker]
		if !ok {
			continue
		}
		if err := r.holdings.UpdatePriceForCompany(ctx, c.ID, price); err != nil {
			return fmt.Errorf("update cached price for %s: %w", c.Ticker, err)
		}
	}
	return nil
}

func (r *MarketDataRefresher) fetchQuotes(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	endpoint := r.baseURL + "/quotes?symbols=" + url.QueryEscape(strings.Join(tickers, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build quotes request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market data vendor returned %d", resp.StatusCode)
	}

	var payloads []quotePayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("decode quotes: %w", err)
	}

	out := make(map[string]decimal.Decimal, len(payloads))
	for _, q := range payloads {
		out[q.Ticker] = decimal.NewFromFloat(q.Price)
	}
	return out, nil
}
