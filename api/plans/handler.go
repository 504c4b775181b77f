// Package plans exposes trip planning over HTTP.
package plans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/evroute/app"
	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/planner"
)

// TripPlanner is the planning entry point the handler delegates to.
type TripPlanner interface {
	PlanTrip(ctx context.Context, req app.TripRequest) (*app.TripReport, error)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// NewPlanHandler returns an HTTP handler serving POST /api/plans. Invalid
// planner input maps to 400 with the offending field; provider failures map
// to 502.
func NewPlanHandler(svc TripPlanner, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req app.TripRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
			return
		}

		report, err := svc.PlanTrip(r.Context(), req)
		if err != nil {
			var verr *planner.ValidationError
			if errors.As(err, &verr) {
				writeError(w, http.StatusBadRequest, errorResponse{Error: verr.Reason, Field: verr.Field})
				return
			}
			if log != nil {
				log.Errorf("plan request failed: %v", err)
			}
			writeError(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
