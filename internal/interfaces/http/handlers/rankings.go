package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/broseidonlordofthebrocean/hedge/internal/apperr"
	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"

	wire "github.com/broseidonlordofthebrocean/hedge/internal/interfaces/http"
)

func rankingRecords(ranked []persistence.RankedScore, scenario domain.Scenario) []wire.RankingRecord {
	out := make([]wire.RankingRecord, len(ranked))
	for i, rk := range ranked {
		score, _ := rk.Score.Scenario(scenario).Float64()
		out[i] = wire.RankingRecord{
			Rank:   i + 1,
			Ticker: rk.Company.Ticker,
			Name:   rk.Company.Name,
			Sector: rk.Company.Sector,
			Score:  score,
			Tier:   string(rk.Score.Tier),
		}
	}
	return out
}

// Rankings handles GET /rankings?scenario=&limit=.
func (h *Handlers) Rankings(w http.ResponseWriter, r *http.Request) {
	scenario := parseScenario(r.URL.Query().Get("scenario"))
	limit := queryInt(r.URL.Query(), "limit", 100)

	ranked, err := h.repos.Scores.Rankings(r.Context(), scenario, limit)
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("compute rankings", err))
		return
	}

	h.writeJSON(w, http.StatusOK, wire.RankingsResponse{
		Scenario:  string(scenario),
		Rankings:  rankingRecords(ranked, scenario),
		Timestamp: time.Now().UTC(),
	})
}

// Tiers handles GET /rankings/tiers: the same ranking, grouped implicitly
// by each row's Tier field (the client buckets; we just return the full
// sorted set under the current scenario, same shape as Rankings).
func (h *Handlers) Tiers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r.URL.Query(), "limit", 500)
	ranked, err := h.repos.Scores.Rankings(r.Context(), domain.ScenarioCurrent, limit)
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("compute tiers", err))
		return
	}

	h.writeJSON(w, http.StatusOK, wire.RankingsResponse{
		Scenario:  string(domain.ScenarioCurrent),
		Rankings:  rankingRecords(ranked, domain.ScenarioCurrent),
		Timestamp: time.Now().UTC(),
	})
}

// Movers handles GET /rankings/movers?period=7d|30d: companies whose
// total_score moved the most over the window, split into gainers/losers.
func (h *Handlers) Movers(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	days := 7
	if period == "30d" {
		days = 30
	}

	active, err := h.repos.Companies.ListActive(r.Context())
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("list active companies", err))
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -days)

	type delta struct {
		rec   wire.MoversRecord
		delta float64
	}
	deltas := make([]delta, 0, len(active))

	for _, c := range active {
		current, err := h.repos.Scores.Latest(r.Context(), c.ID)
		if err != nil || current == nil {
			continue
		}
		history, err := h.repos.Scores.History(r.Context(), c.ID, persistence.TimeRange{From: from, To: from.Add(24 * time.Hour)}, 1)
		if err != nil || len(history) == 0 {
			continue
		}
		prevTotal, _ := history[0].TotalScore.Float64()
		curTotal, _ := current.TotalScore.Float64()
		deltas = append(deltas, delta{
			rec: wire.MoversRecord{
				Ticker:        c.Ticker,
				Name:          c.Name,
				PreviousScore: prevTotal,
				CurrentScore:  curTotal,
				ChangePts:     curTotal - prevTotal,
			},
			delta: curTotal - prevTotal,
		})
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].delta > deltas[j].delta })

	topN := 10
	gainers := make([]wire.MoversRecord, 0, topN)
	for i := 0; i < len(deltas) && i < topN && deltas[i].delta > 0; i++ {
		gainers = append(gainers, deltas[i].rec)
	}
	losers := make([]wire.MoversRecord, 0, topN)
	for i := len(deltas) - 1; i >= 0 && len(losers) < topN && deltas[i].delta < 0; i-- {
		losers = append(losers, deltas[i].rec)
	}

	h.writeJSON(w, http.StatusOK, wire.MoversResponse{Period: period, Gainers: gainers, Losers: losers})
}

func parseScenario(s string) domain.Scenario {
	switch domain.Scenario(s) {
	case domain.ScenarioGradual, domain.ScenarioRapid, domain.ScenarioHyper:
		return domain.Scenario(s)
	default:
		return domain.ScenarioCurrent
	}
}
