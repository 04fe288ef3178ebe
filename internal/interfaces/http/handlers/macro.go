package handlers

import (
	"net/http"
	"time"

	"github.com/broseidonlordofthebrocean/hedge/internal/apperr"
	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"

	wire "github.com/broseidonlordofthebrocean/hedge/internal/interfaces/http"
)

func macroRecord(m domain.MacroData) wire.MacroResponse {
	f := func(d interface{ Float64() (float64, bool) }) float64 {
		v, _ := d.Float64()
		return v
	}
	pairs := make(map[string]float64, len(m.CurrencyPairs))
	for k, v := range m.CurrencyPairs {
		pairs[k] = f(v)
	}
	return wire.MacroResponse{
		DataDate:      m.DataDate,
		DollarIndex:   f(m.DollarIndex),
		GoldPrice:     f(m.GoldPrice),
		SilverPrice:   f(m.SilverPrice),
		PlatinumPrice: f(m.PlatinumPrice),
		OilPrice:      f(m.OilPrice),
		CopperPrice:   f(m.CopperPrice),
		M2Supply:      f(m.M2Supply),
		FedFundsRate:  f(m.FedFundsRate),
		TenYearYield:  f(m.TenYearYield),
		CPIYoY:        f(m.CPIYoY),
		PCEYoY:        f(m.PCEYoY),
		CurrencyPairs: pairs,
	}
}

// MacroCurrent handles GET /macro/current.
func (h *Handlers) MacroCurrent(w http.ResponseWriter, r *http.Request) {
	m, err := h.repos.Macro.Current(r.Context())
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("get current macro data", err))
		return
	}
	if m == nil {
		h.writeAppError(w, r, apperr.NotFound("no macro data available", nil))
		return
	}
	h.writeJSON(w, http.StatusOK, macroRecord(*m))
}

// MacroDashboard handles GET /macro/dashboard: an alias of MacroCurrent —
// the dashboard's macro tile shows the same daily snapshot as /macro/current.
func (h *Handlers) MacroDashboard(w http.ResponseWriter, r *http.Request) {
	h.MacroCurrent(w, r)
}

// MacroHistory handles GET /macro/history?days=.
func (h *Handlers) MacroHistory(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r.URL.Query(), "days", 90)
	now := time.Now().UTC()
	tr := persistence.TimeRange{From: now.AddDate(0, 0, -days), To: now}

	entries, err := h.repos.Macro.History(r.Context(), tr, days)
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("list macro history", err))
		return
	}

	out := make([]wire.MacroResponse, len(entries))
	for i, m := range entries {
		out[i] = macroRecord(m)
	}
	h.writeJSON(w, http.StatusOK, wire.MacroHistoryResponse{Entries: out})
}
