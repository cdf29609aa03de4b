package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oakrobotics/scoutbase/internal/domain"
	"github.com/oakrobotics/scoutbase/internal/service"
	apperrors "github.com/oakrobotics/scoutbase/pkg/errors"
	"github.com/oakrobotics/scoutbase/pkg/httputil"
	"github.com/oakrobotics/scoutbase/pkg/middleware"
	"github.com/oakrobotics/scoutbase/pkg/validator"
)

const (
	defaultListTake = 50
	maxListTake     = 200
)

// ReportHandler handles match report submission and retrieval.
type ReportHandler struct {
	reports *service.ReportService
	logger  *slog.Logger
}

func NewReportHandler(reports *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// Create handles POST /report.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var rep domain.Report
	if err := validator.DecodeAndValidate(r, &rep); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err), h.logger)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	if err := h.reports.Create(r.Context(), &rep, userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, rep)
}

// CreateBatch handles POST /reports. Offline clients sync their queued
// reports in one request.
func (h *ReportHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var reports []domain.Report
	if err := json.NewDecoder(r.Body).Decode(&reports); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err), h.logger)
		return
	}
	for i := range reports {
		if err := validator.Validate(&reports[i]); err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput(err), h.logger)
			return
		}
	}

	userID := middleware.UserIDFromContext(r.Context())
	if err := h.reports.CreateBatch(r.Context(), reports, userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]int{"count": len(reports)})
}

// Get handles GET /report/{id}.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, r, apperrors.ReportNotFound(), h.logger)
		return
	}

	rep, err := h.reports.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rep)
}

// List handles GET /reports with optional filter query parameters.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReportFilter(r)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err), h.logger)
		return
	}

	summaries, err := h.reports.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summaries)
}

func parseReportFilter(r *http.Request) (domain.ReportFilter, error) {
	q := r.URL.Query()
	var filter domain.ReportFilter
	var err error

	filter.UserID = stringQuery(q.Get("userId"))
	filter.EventCode = stringQuery(q.Get("eventCode"))
	if v := q.Get("matchType"); v != "" {
		mt := domain.MatchType(v)
		filter.MatchType = &mt
	}
	if v := q.Get("trenchOrBump"); v != "" {
		tb := domain.TrenchOrBump(v)
		filter.TrenchOrBump = &tb
	}

	ints := []struct {
		name string
		dst  **int
	}{
		{"minMatchNumber", &filter.MinMatchNumber},
		{"maxMatchNumber", &filter.MaxMatchNumber},
		{"teamNumber", &filter.TeamNumber},
		{"maxMinorFouls", &filter.MaxMinorFouls},
		{"maxMajorFouls", &filter.MaxMajorFouls},
		{"autoMinHubScore", &filter.AutoMinHubScore},
		{"autoMaxHubMisses", &filter.AutoMaxHubMisses},
		{"teleopMinHubScore", &filter.TeleopMinHubScore},
		{"teleopMaxHubMisses", &filter.TeleopMaxHubMisses},
		{"endgameMinHubScore", &filter.EndgameMinHubScore},
		{"endgameMaxHubMisses", &filter.EndgameMaxHubMisses},
	}
	for _, p := range ints {
		if *p.dst, err = intQuery(q.Get(p.name), p.name); err != nil {
			return filter, err
		}
	}

	if filter.AutoMovement, err = boolQuery(q.Get("autoMovement"), "autoMovement"); err != nil {
		return filter, err
	}
	if filter.AutoLevel1, err = boolQuery(q.Get("autoLevel1"), "autoLevel1"); err != nil {
		return filter, err
	}

	filter.Take = defaultListTake
	if take, err := intQuery(q.Get("take"), "take"); err != nil {
		return filter, err
	} else if take != nil && *take > 0 {
		filter.Take = min(*take, maxListTake)
	}
	if skip, err := intQuery(q.Get("skip"), "skip"); err != nil {
		return filter, err
	} else if skip != nil && *skip > 0 {
		filter.Skip = *skip
	}

	return filter, nil
}

func stringQuery(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func intQuery(v, name string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("query parameter %q must be an integer", name)
	}
	return &n, nil
}

func boolQuery(v, name string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("query parameter %q must be a boolean", name)
	}
	return &b, nil
}
