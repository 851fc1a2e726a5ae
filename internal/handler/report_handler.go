package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campushq/campus-events/internal/report"
)

// ReportHandler holds the HTTP handlers for statistics and CSV exports.
type ReportHandler struct {
	reporter *report.Reporter
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reporter *report.Reporter) *ReportHandler {
	return &ReportHandler{reporter: reporter}
}

// Statistics handles GET /reports/statistics
func (h *ReportHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reporter.Statistics(r.Context(), time.Now())
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// PopularEvents handles GET /reports/popular?limit=
func (h *ReportHandler) PopularEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	popular, err := h.reporter.PopularEvents(r.Context(), limit)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, popular)
}

// CapacityAnalysis handles GET /reports/capacity
func (h *ReportHandler) CapacityAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.reporter.CapacityAnalysis(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// AttendanceCSV handles GET /reports/attendance.csv
func (h *ReportHandler) AttendanceCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.AttendanceFilename(time.Now())+`"`)

	if err := h.reporter.AttendanceCSV(r.Context(), w); err != nil {
		// Headers are already out; all we can do is log via the
		// request logger and drop the connection mid-body.
		return
	}
}

// EventsCSV handles GET /reports/events.csv
func (h *ReportHandler) EventsCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.EventsFilename(time.Now())+`"`)

	if err := h.reporter.EventsCSV(r.Context(), w); err != nil {
		return
	}
}
