// internal/api/handler.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custom_errors "github-trending-notifier/internal/errors"
	"github-trending-notifier/internal/history"
	"github-trending-notifier/internal/model"
	"github-trending-notifier/internal/snapshot"
	"github-trending-notifier/internal/syncer"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// Collector is satisfied by *syncer.Syncer.
type Collector interface {
	Collect(ctx context.Context, period, language string) (syncer.Result, error)
	Run(ctx context.Context, period, language string) (syncer.Result, error)
	LoadSnapshot(ctx context.Context, period, language string, date time.Time) ([]model.Repository, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	collector Collector
	runs      history.Querier
	logger    *slog.Logger
}

// trendingResponse is the body returned by the trending endpoints.
type trendingResponse struct {
	Period       model.Period       `json:"period"`
	Language     string             `json:"language"`
	CaptureDate  string             `json:"capture_date"`
	Location     string             `json:"location,omitempty"`
	Warning      string             `json:"warning,omitempty"`
	Count        int                `json:"count"`
	Repositories []model.Repository `json:"repositories"`
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(collector Collector, runs history.Querier, logger *slog.Logger) http.Handler {
	h := &Handler{
		collector: collector,
		runs:      runs,
		logger:    logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/trending/{period}", h.getTrending)
		r.Post("/trending/{period}/notify", h.notifyTrending)
		r.Get("/snapshots/{period}/{date}", h.getSnapshot)
		r.Get("/runs", h.listRuns)
	})
	r.NotFound(h.notFound)

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getTrending fetches and persists the current trending list.
// GET /v1/trending/{period}?language=
func (h *Handler) getTrending(w http.ResponseWriter, r *http.Request) {
	h.handleCollect(w, r, h.collector.Collect)
}

// notifyTrending runs the full cycle including the digest.
// POST /v1/trending/{period}/notify?language=
func (h *Handler) notifyTrending(w http.ResponseWriter, r *http.Request) {
	h.handleCollect(w, r, h.collector.Run)
}

func (h *Handler) handleCollect(w http.ResponseWriter, r *http.Request, collect func(context.Context, string, string) (syncer.Result, error)) {
	period := chi.URLParam(r, "period")
	language := r.URL.Query().Get("language")

	res, err := collect(r.Context(), period, language)
	var writeErr *custom_errors.StorageWriteError
	switch {
	case err == nil:
	case isValidationError(err):
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	case errors.As(err, &writeErr):
		// The fetch succeeded; report the records with a warning.
		h.logger.Error("Failed to persist snapshot", "error", err)
	default:
		h.logger.Error("Failed to collect trending repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	body := trendingResponse{
		Period:       res.Period,
		Language:     model.LanguageLabel(res.Language),
		CaptureDate:  res.CaptureDate.Format("2006-01-02"),
		Location:     res.Location,
		Count:        len(res.Records),
		Repositories: res.Records,
	}
	if body.Repositories == nil {
		body.Repositories = []model.Repository{}
	}
	if writeErr != nil {
		body.Warning = "snapshot could not be persisted"
	}
	respondWithJSON(w, http.StatusOK, body)
}

// getSnapshot returns a previously persisted snapshot.
// GET /v1/snapshots/{period}/{date}?language=
func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	date, err := snapshot.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.collector.LoadSnapshot(r.Context(), period, r.URL.Query().Get("language"), date)
	if err != nil {
		var readErr *custom_errors.StorageReadError
		switch {
		case isValidationError(err):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &readErr):
			h.logger.Warn("Snapshot unavailable", "error", err)
			respondWithError(w, http.StatusNotFound, "Snapshot not found")
		default:
			h.logger.Error("Failed to load snapshot", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}

// listRuns returns the most recent runs from the ledger.
// GET /v1/runs?period=&limit=N
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period != "" && !model.Period(period).Valid() {
		respondWithError(w, http.StatusBadRequest, (&custom_errors.ErrInvalidPeriod{Period: period}).Error())
		return
	}

	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		limitStr = strconv.Itoa(defaultRunsLimit)
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > maxRunsLimit {
		respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter. Must be an integer between 1 and 100.")
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), history.ListRunsParams{Period: period, Limit: int32(limit)})
	if err != nil {
		h.logger.Error("Failed to list runs", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, runs)
}

// notFound handles all unfamiliar routes.
func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, http.StatusNotFound, "The requested resource could not be found")
}

func isValidationError(err error) bool {
	var periodErr *custom_errors.ErrInvalidPeriod
	var languageErr *custom_errors.ErrInvalidLanguage
	return errors.As(err, &periodErr) || errors.As(err, &languageErr)
}
