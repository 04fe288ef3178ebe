// Package handlers implements the read/write REST surface: company
// listings and scores, rankings, portfolio analysis, and macro data.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	httpContracts "github.com/broseidonlordofthebrocean/hedge/internal/apperr"
	"github.com/broseidonlordofthebrocean/hedge/internal/persistence"
	"github.com/broseidonlordofthebrocean/hedge/internal/portfolio"
	"github.com/broseidonlordofthebrocean/hedge/internal/vendors"

	wire "github.com/broseidonlordofthebrocean/hedge/internal/interfaces/http"
)

// Handlers wires the repository layer and the portfolio aggregator to the
// REST endpoints. Every handler only reads; the one POST route (portfolio
// scenario projection) computes its result and persists nothing.
type Handlers struct {
	repos      *persistence.Repository
	aggregator *portfolio.Aggregator
	vendors    *vendors.Manager // nil when no vendors are configured
	dbHealth   persistence.RepositoryHealth
}

// NewHandlers builds a Handlers instance. vendorMgr may be nil (no vendor
// HTTP calls configured, e.g. in tests).
func NewHandlers(repos *persistence.Repository, aggregator *portfolio.Aggregator, vendorMgr *vendors.Manager, dbHealth persistence.RepositoryHealth) *Handlers {
	return &Handlers{repos: repos, aggregator: aggregator, vendors: vendorMgr, dbHealth: dbHealth}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value("request_id").(string)
	if requestID == "" {
		requestID = "unknown"
	}

	h.writeJSON(w, status, wire.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	})
}

// httpStatus maps an apperr.Kind to the status code spec.md §7 names.
func httpStatus(kind httpContracts.Kind) int {
	switch kind {
	case httpContracts.KindValidation:
		return http.StatusBadRequest
	case httpContracts.KindNotFound:
		return http.StatusNotFound
	case httpContracts.KindRateLimited:
		return http.StatusTooManyRequests
	case httpContracts.KindUpstreamUnavailable:
		return http.StatusBadGateway
	case httpContracts.KindPartialFailure:
		return http.StatusOK
	case httpContracts.KindInvariantViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError translates err into the standard error body via its
// apperr.Kind, falling back to 500 for unrecognized errors.
func (h *Handlers) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := httpContracts.KindOf(err)
	h.writeError(w, r, httpStatus(kind), kind.String(), err.Error())
}

// NotFound handles unmatched routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "the requested endpoint does not exist")
}
