package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/runs"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/validation"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

type fakeDatasets struct {
	positions []contracts.PositionRecord
	trades    []contracts.TradeRecord
	err       error
}

func (d *fakeDatasets) LoadPositions(ctx context.Context, from, to time.Time) ([]contracts.PositionRecord, error) {
	return d.positions, d.err
}

func (d *fakeDatasets) LoadTrades(ctx context.Context, from, to time.Time) ([]contracts.TradeRecord, error) {
	return d.trades, d.err
}

type fakeRuns struct {
	findings  map[string][]contracts.Finding
	summaries []contracts.RunSummary
}

func (r *fakeRuns) SaveRun(ctx context.Context, run *contracts.Run) error { return nil }

func (r *fakeRuns) GetRun(ctx context.Context, id string) (*contracts.Run, error) {
	return nil, fmt.Errorf("run %s not found", id)
}

func (r *fakeRuns) GetFindings(ctx context.Context, runID string) ([]contracts.Finding, error) {
	findings, ok := r.findings[runID]
	if !ok {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return findings, nil
}

func (r *fakeRuns) ListRuns(ctx context.Context, limit int) ([]contracts.RunSummary, error) {
	if limit < len(r.summaries) {
		return r.summaries[:limit], nil
	}
	return r.summaries, nil
}

func newTestHandler(datasets contracts.DatasetRepository, runRepo contracts.RunRepository) *ValidationHandler {
	engine := validation.NewEngine(validation.DefaultConfig(), logger.Nop())
	service := runs.NewService(engine, nil, nil, logger.Nop())
	return NewValidationHandler(service, datasets, runRepo, logger.Nop())
}

func testRouter(h *ValidationHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/runs", h.Trigger).Methods("POST")
	r.HandleFunc("/api/runs", h.List).Methods("GET")
	r.HandleFunc("/api/runs/{id}/findings", h.GetFindings).Methods("GET")
	return r
}

func TestTrigger(t *testing.T) {
	datasets := &fakeDatasets{
		positions: []contracts.PositionRecord{
			{
				Date:         contracts.Day(2026, 1, 5),
				InstrumentID: "AAPL",
				Quantity:     10,
				Price:        100,
				Currency:     "USD",
				FXRate:       1,
				MarketValue:  1000,
				Weight:       1,
				Sector:       "Technology",
			},
		},
	}
	h := newTestHandler(datasets, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs",
		strings.NewReader(`{"from":"2026-01-01","to":"2026-01-10"}`))
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var run contracts.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 1, run.Positions)
}

func TestTrigger_CSVBody(t *testing.T) {
	h := newTestHandler(nil, nil)

	csv := "date,instrument_id,quantity,price,currency,fx_rate,market_value,weight,sector\n" +
		"2026-01-05,AAPL,10,100,USD,1,1000,1,Technology\n"
	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var run contracts.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 1, run.Positions)
	assert.Equal(t, 0, run.Trades)
}

func TestTrigger_CSVBody_Malformed(t *testing.T) {
	h := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs",
		strings.NewReader("quantity,price\n10,100\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTrigger_EmptyBodyUsesDefaults(t *testing.T) {
	h := newTestHandler(&fakeDatasets{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestTrigger_BadDates(t *testing.T) {
	h := newTestHandler(&fakeDatasets{}, nil)

	tests := []string{
		`{"from":"05/01/26"}`,
		`{"from":"2026-01-10","to":"2026-01-05"}`,
	}
	for _, body := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(body))
		rec := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestTrigger_MalformedDataset(t *testing.T) {
	dup := contracts.PositionRecord{Date: contracts.Day(2026, 1, 5), InstrumentID: "AAPL"}
	h := newTestHandler(&fakeDatasets{positions: []contracts.PositionRecord{dup, dup}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTrigger_NoStorage(t *testing.T) {
	h := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTrigger_LoadFailure(t *testing.T) {
	h := newTestHandler(&fakeDatasets{err: errors.New("db down")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestList(t *testing.T) {
	repo := &fakeRuns{summaries: []contracts.RunSummary{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	h := newTestHandler(nil, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []contracts.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestList_BadLimit(t *testing.T) {
	h := newTestHandler(nil, &fakeRuns{})

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=zero", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFindings(t *testing.T) {
	repo := &fakeRuns{findings: map[string][]contracts.Finding{
		"run-1": {
			{Severity: contracts.SeverityError, Code: contracts.CodePriceJump},
			{Severity: contracts.SeverityWarning, Code: contracts.CodeStaticDataDrift},
		},
	}}
	h := newTestHandler(nil, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1/findings?severity=error", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RunID    string              `json:"run_id"`
		Count    int                 `json:"count"`
		Findings []contracts.Finding `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Findings, 1)
	assert.Equal(t, contracts.CodePriceJump, body.Findings[0].Code)
}

func TestGetFindings_NotFound(t *testing.T) {
	h := newTestHandler(nil, &fakeRuns{})

	req := httptest.NewRequest(http.MethodGet, "/api/runs/nope/findings", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseWindow(t *testing.T) {
	from, to, err := parseWindow("2026-01-01", "2026-01-10", 7)
	require.NoError(t, err)
	assert.Equal(t, contracts.Day(2026, 1, 1), from)
	assert.Equal(t, contracts.Day(2026, 1, 10), to)

	from, to, err = parseWindow("", "", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, int(to.Sub(from).Hours()/24))
}
