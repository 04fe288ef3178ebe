package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/broseidonlordofthebrocean/hedge/internal/apperr"
	"github.com/broseidonlordofthebrocean/hedge/internal/domain"

	wire "github.com/broseidonlordofthebrocean/hedge/internal/interfaces/http"
)

func (h *Handlers) portfolioIDFromPath(r *http.Request) (domain.PortfolioID, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("portfolio id must be numeric: "+raw, err)
	}
	return domain.PortfolioID(id), nil
}

// PortfolioAnalyze handles GET /portfolio/{id}/analyze.
func (h *Handlers) PortfolioAnalyze(w http.ResponseWriter, r *http.Request) {
	id, err := h.portfolioIDFromPath(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	analysis, err := h.aggregator.Analyze(r.Context(), id)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	resp := wire.PortfolioAnalysisResponse{
		PortfolioID:  int64(analysis.PortfolioID),
		HoldingCount: analysis.HoldingCount,
	}
	resp.TotalValue, _ = analysis.TotalValue.Float64()

	if analysis.OverallScore != nil {
		v, _ := analysis.OverallScore.Float64()
		resp.OverallScore = &v

		resp.Factors = make(wire.FactorScores, len(analysis.Factors))
		for k, v := range analysis.Factors {
			f, _ := v.Float64()
			resp.Factors[string(k)] = f
		}
		resp.Scenarios = make(map[string]float64, len(analysis.Scenarios))
		for k, v := range analysis.Scenarios {
			f, _ := v.Float64()
			resp.Scenarios[string(k)] = f
		}
	}

	resp.SectorAllocations = make([]wire.SectorAllocationRecord, len(analysis.SectorAllocations))
	for i, s := range analysis.SectorAllocations {
		value, _ := s.Value.Float64()
		weight, _ := s.WeightPct.Float64()
		resp.SectorAllocations[i] = wire.SectorAllocationRecord{Sector: s.Sector, Value: value, WeightPct: weight}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// PortfolioScenario handles POST /portfolio/{id}/scenario?scenario=gradual|rapid|hyper.
func (h *Handlers) PortfolioScenario(w http.ResponseWriter, r *http.Request) {
	id, err := h.portfolioIDFromPath(r)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	scenarioParam := r.URL.Query().Get("scenario")
	scenario := domain.Scenario(scenarioParam)
	if _, ok := domain.ScenarioParamsFor(scenario); !ok {
		h.writeAppError(w, r, apperr.Validation("scenario must be one of gradual, rapid, hyper", nil))
		return
	}

	result, err := h.aggregator.Scenario(r.Context(), id, scenario)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	resp := wire.PortfolioScenarioResponse{
		PortfolioID: int64(result.PortfolioID),
		Scenario:    string(result.Scenario),
		Months:      result.Params.Months,
	}
	resp.DeclinePct, _ = result.Params.DeclinePct.Float64()
	resp.InflationPct, _ = result.Params.InflationPct.Float64()
	resp.TotalCurrentValue, _ = result.TotalCurrentValue.Float64()
	resp.TotalProjectedNominal, _ = result.TotalProjectedNominal.Float64()
	resp.TotalProjectedReal, _ = result.TotalProjectedReal.Float64()
	resp.TotalRealChangePct, _ = result.TotalRealChangePct.Float64()

	resp.Holdings = make([]wire.HoldingProjectionRecord, len(result.Holdings))
	for i, hp := range result.Holdings {
		rec := wire.HoldingProjectionRecord{}
		if c, err := h.repos.Companies.Get(r.Context(), hp.CompanyID); err == nil && c != nil {
			rec.Ticker = c.Ticker
		}
		rec.CurrentValue, _ = hp.CurrentValue.Float64()
		rec.ProtectionFactor, _ = hp.ProtectionFactor.Float64()
		rec.ProjectedNominal, _ = hp.ProjectedNominal.Float64()
		rec.ProjectedReal, _ = hp.ProjectedReal.Float64()
		rec.RealChangePct, _ = hp.RealChangePct.Float64()
		resp.Holdings[i] = rec
	}

	h.writeJSON(w, http.StatusOK, resp)
}
