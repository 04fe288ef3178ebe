package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/broseidonlordofthebrocean/hedge/internal/apperr"
	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"

	wire "github.com/broseidonlordofthebrocean/hedge/internal/interfaces/http"
)

// Companies handles GET /companies: a paginated, filtered, sorted listing
// enriched with each company's latest score.
func (h *Handlers) Companies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := queryInt(q, "page", 1)
	pageSize := queryInt(q, "page_size", 25)
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 25
	}
	if page <= 0 {
		page = 1
	}

	filter := persistence.CompanyFilter{
		Sector:   q.Get("sector"),
		Search:   q.Get("search"),
		Tier:     q.Get("tier"),
		SortBy:   q.Get("sort_by"),
		SortDesc: q.Get("sort_dir") == "desc",
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}

	companies, total, err := h.repos.Companies.List(r.Context(), filter)
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("list companies", err))
		return
	}

	scores, err := h.repos.Scores.LatestForAll(r.Context())
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("load latest scores", err))
		return
	}

	records := make([]wire.CompanyRecord, 0, len(companies))
	for _, c := range companies {
		var score *domain.SurvivalScore
		if s, ok := scores[c.ID]; ok {
			score = &s
		}
		records = append(records, companyRecord(c, score))
	}

	totalPages := (total + pageSize - 1) / pageSize
	h.writeJSON(w, http.StatusOK, wire.CompanyListResponse{
		Companies: records,
		Pagination: wire.PaginationInfo{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	})
}

// Company handles GET /companies/{ticker}.
func (h *Handlers) Company(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	c, err := h.repos.Companies.GetByTicker(r.Context(), ticker)
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("get company", err))
		return
	}
	if c == nil {
		h.writeAppError(w, r, apperr.NotFound("no company with ticker "+ticker, nil))
		return
	}

	score, err := h.repos.Scores.Latest(r.Context(), c.ID)
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("get latest score", err))
		return
	}

	h.writeJSON(w, http.StatusOK, companyRecord(*c, score))
}

// CompanyScores handles GET /companies/{ticker}/scores.
func (h *Handlers) CompanyScores(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	c, err := h.repos.Companies.GetByTicker(r.Context(), ticker)
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("get company", err))
		return
	}
	if c == nil {
		h.writeAppError(w, r, apperr.NotFound("no company with ticker "+ticker, nil))
		return
	}

	limit := queryInt(r.URL.Query(), "limit", 90)
	scores, err := h.repos.Scores.Recent(r.Context(), c.ID, limit)
	if err != nil {
		h.writeAppError(w, r, apperr.UpstreamUnavailable("list scores", err))
		return
	}

	records := make([]wire.ScoreRecord, len(scores))
	for i, s := range scores {
		records[i] = scoreRecord(s)
	}
	h.writeJSON(w, http.StatusOK, wire.CompanyScoresResponse{Ticker: c.Ticker, Scores: records})
}

func queryInt(q map[string][]string, key string, def int) int {
	vals, ok := q[key]
	if !ok || len(vals) == 0 || vals[0] == "" {
		return def
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil {
		return def
	}
	return n
}
