package plans

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kilianp07/evroute/app"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/planner"
)

type fakePlanner struct {
	report *app.TripReport
	err    error
}

func (f *fakePlanner) PlanTrip(context.Context, app.TripRequest) (*app.TripReport, error) {
	return f.report, f.err
}

const validBody = `{
	"vehicle": {
		"name": "test-ev",
		"battery_capacity_kwh": 60,
		"consumption_kwh_per_100km": 17,
		"connector": "CCS"
	},
	"origin": {"latitude": 48.8566, "longitude": 2.3522},
	"destination": {"latitude": 45.764, "longitude": 4.8357}
}`

func TestPlanHandler_OK(t *testing.T) {
	report := &app.TripReport{
		RequestID: "req-1",
		Plan:      model.PlanResult{CanReachDestination: true, FinalSOCPercent: 49.4},
	}
	h := NewPlanHandler(&fakePlanner{report: report}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(validBody)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got app.TripReport
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RequestID != "req-1" || !got.Plan.CanReachDestination {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestPlanHandler_MethodNotAllowed(t *testing.T) {
	h := NewPlanHandler(&fakePlanner{}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plans", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestPlanHandler_BadJSON(t *testing.T) {
	h := NewPlanHandler(&fakePlanner{}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPlanHandler_UnknownConnector(t *testing.T) {
	body := strings.Replace(validBody, `"CCS"`, `"Tesla"`, 1)
	h := NewPlanHandler(&fakePlanner{}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown connector, got %d", rec.Code)
	}
}

func TestPlanHandler_ValidationErrorMapsTo400(t *testing.T) {
	verr := &planner.ValidationError{Field: "vehicle.battery_capacity_kwh", Reason: "must be positive"}
	h := NewPlanHandler(&fakePlanner{err: verr}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(validBody)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Field != "vehicle.battery_capacity_kwh" {
		t.Fatalf("expected the offending field, got %+v", resp)
	}
}

func TestPlanHandler_ProviderErrorMapsTo502(t *testing.T) {
	h := NewPlanHandler(&fakePlanner{err: context.DeadlineExceeded}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(validBody)))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
