package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/ingest"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/runs"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/validation"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

// ValidationHandler handles validation run API endpoints.
type ValidationHandler struct {
	service  *runs.Service
	datasets contracts.DatasetRepository
	runRepo  contracts.RunRepository
	logger   *logger.Logger
}

// NewValidationHandler creates a new validation handler. datasets and runRepo
// may be nil when no database is configured; the affected endpoints then
// return 503.
func NewValidationHandler(service *runs.Service, datasets contracts.DatasetRepository, runRepo contracts.RunRepository, log *logger.Logger) *ValidationHandler {
	return &ValidationHandler{
		service:  service,
		datasets: datasets,
		runRepo:  runRepo,
		logger:   log,
	}
}

// TriggerRequest selects the date window to validate when the dataset comes
// from storage.
type TriggerRequest struct {
	From string `json:"from"` // YYYY-MM-DD, default: 7 days ago
	To   string `json:"to"`   // YYYY-MM-DD, default: today
}

// Trigger executes a validation run. A text/csv body is ingested directly;
// otherwise the JSON body selects a date window loaded from storage.
// POST /api/runs
func (h *ValidationHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var positions []contracts.PositionRecord
	var trades []contracts.TradeRecord

	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/csv") {
		var err error
		positions, trades, err = ingest.Load(r.Body)
		if err != nil {
			var malformed *validation.MalformedInputError
			if errors.As(err, &malformed) {
				respondError(w, http.StatusUnprocessableEntity, malformed.Error())
				return
			}
			respondError(w, http.StatusBadRequest, "Invalid CSV body")
			return
		}
	} else {
		if h.datasets == nil {
			respondError(w, http.StatusServiceUnavailable, "No dataset storage configured")
			return
		}

		var req TriggerRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}

		from, to, err := parseWindow(req.From, req.To, 7)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		positions, err = h.datasets.LoadPositions(ctx, from, to)
		if err != nil {
			h.logger.WithError(err).Error("Failed to load positions")
			respondError(w, http.StatusInternalServerError, "Failed to load positions")
			return
		}
		trades, err = h.datasets.LoadTrades(ctx, from, to)
		if err != nil {
			h.logger.WithError(err).Error("Failed to load trades")
			respondError(w, http.StatusInternalServerError, "Failed to load trades")
			return
		}
	}

	run, err := h.service.Validate(ctx, positions, trades)
	if err != nil {
		var malformed *validation.MalformedInputError
		if errors.As(err, &malformed) {
			respondError(w, http.StatusUnprocessableEntity, malformed.Error())
			return
		}
		h.logger.WithError(err).Error("Validation run failed")
		respondError(w, http.StatusInternalServerError, "Validation run failed")
		return
	}

	respondJSON(w, http.StatusCreated, run)
}

// List returns recent run summaries, newest first.
// GET /api/runs?limit=20
func (h *ValidationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.runRepo == nil {
		respondError(w, http.StatusServiceUnavailable, "No run storage configured")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = n
	}

	summaries, err := h.runRepo.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, summaries)
}

// GetFindings returns the persisted findings of a run, optionally filtered by
// severity or code.
// GET /api/runs/{id}/findings?severity=error&code=PRICE_JUMP
func (h *ValidationHandler) GetFindings(w http.ResponseWriter, r *http.Request) {
	if h.runRepo == nil {
		respondError(w, http.StatusServiceUnavailable, "No run storage configured")
		return
	}

	runID := mux.Vars(r)["id"]

	findings, err := h.runRepo.GetFindings(r.Context(), runID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to load findings")
		respondError(w, http.StatusInternalServerError, "Failed to load findings")
		return
	}

	if severity := r.URL.Query().Get("severity"); severity != "" {
		findings = filterFindings(findings, func(f contracts.Finding) bool {
			return string(f.Severity) == severity
		})
	}
	if code := r.URL.Query().Get("code"); code != "" {
		findings = filterFindings(findings, func(f contracts.Finding) bool {
			return string(f.Code) == code
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":   runID,
		"count":    len(findings),
		"findings": findings,
	})
}

func filterFindings(findings []contracts.Finding, keep func(contracts.Finding) bool) []contracts.Finding {
	out := make([]contracts.Finding, 0, len(findings))
	for _, f := range findings {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

func parseWindow(fromStr, toStr string, defaultDays int) (time.Time, time.Time, error) {
	to := contracts.DateOf(time.Now().UTC())
	from := to.AddDate(0, 0, -defaultDays)
	var err error

	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid 'from' date format (expected YYYY-MM-DD)")
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid 'to' date format (expected YYYY-MM-DD)")
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("'to' date is before 'from' date")
	}
	return from, to, nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
