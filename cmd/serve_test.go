package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mol-insights/feestrat-cli/internal/ingest"
	"github.com/mol-insights/feestrat-cli/internal/insight"
	"github.com/mol-insights/feestrat-cli/internal/model"
	"github.com/mol-insights/feestrat-cli/internal/simulator"
	"github.com/mol-insights/feestrat-cli/internal/store"
)

func testServiceRecords() []model.ServiceRecord {
	return []model.ServiceRecord{
		{
			Name: "Work Permit Renewal", Category: "Permits",
			TotalRequests: 50000, CurrentFee: 0, AnnualRevenue: 0,
			SuggestedFee: 100, HasSuggestion: true,
			RequestsByYear: map[int]int{2024: 25000, 2025: 25000},
		},
		{
			Name: "Labour Certificate", Category: "Certificates",
			TotalRequests: 20000, CurrentFee: 25, AnnualRevenue: 500000, HasFee: true,
			RequestsByYear: map[int]int{2024: 10000, 2025: 10000},
		},
	}
}

func newTestServer(t *testing.T) *apiServer {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(t.Context()))
	t.Cleanup(func() { _ = st.Close() })

	records := testServiceRecords()
	return &apiServer{
		store:     st,
		records:   records,
		summary:   ingest.Summarize(records),
		sim:       simulator.New(records),
		assistant: insight.New(nil, insight.NewMemoryCache(), nil, nil, insight.DefaultConfig()),
	}
}

func TestServeHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServeSummary(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var s model.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, 2, s.TotalServices)
	assert.Equal(t, 70000, s.TotalRequests)
	assert.InDelta(t, 500000, s.CurrentTotalRevenue, 0.01)
}

func TestServeOpportunities(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/opportunities?fee=10&top=1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var opps []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &opps))
	require.Len(t, opps, 1)
	assert.Equal(t, "Work Permit Renewal", opps[0]["service"])
}

func TestServeScenarioLifecycle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	handler := srv.routes()

	payload := map[string]any{
		"name":        "permit fee",
		"description": "introduce a permit fee",
		"changes":     []map[string]any{{"service": "Work Permit Renewal", "new_fee": 10}},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/scenarios", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var sc model.Scenario
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sc))
	assert.Equal(t, "permit fee", sc.Name)
	assert.InDelta(t, 1000000, sc.TotalRevenue, 0.01)
	assert.Equal(t, 1, sc.ServicesModified)

	// Created scenario is persisted, not just registered in memory.
	saved, err := srv.store.GetScenario(t.Context(), "permit fee")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.InDelta(t, sc.TotalRevenue, saved.TotalRevenue, 0.01)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/scenarios", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []model.Scenario
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/scenarios/compare?name=permit+fee", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var rows []model.ComparisonRow
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "baseline", rows[0].Scenario)
	assert.InDelta(t, 500000, rows[0].TotalRevenue, 0.01)
	assert.Equal(t, "permit fee", rows[1].Scenario)
}

func TestServeCreateScenarioRejectsBadRequests(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	handler := srv.routes()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/scenarios", bytes.NewReader([]byte("not json"))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/scenarios", bytes.NewReader([]byte(`{"changes":[]}`))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServeInsightsWithoutAPIKey(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/insights",
		bytes.NewReader([]byte(`{"kind":"risks","lang":"en"}`))))

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, insight.Unavailable, body["text"])
}

func TestServeInsightsUnknownKind(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/insights",
		bytes.NewReader([]byte(`{"kind":"astrology"}`))))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
