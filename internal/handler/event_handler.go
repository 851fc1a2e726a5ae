package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/campushq/campus-events/internal/model"
	"github.com/campushq/campus-events/internal/service"
	"github.com/go-chi/chi/v5"
)

// EventHandler holds the HTTP handlers for the event catalogue and
// registration API.
type EventHandler struct {
	svc *service.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// ─── Catalogue ────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), callerIdentity(r), req)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events with optional ?status= and
// ?upcoming=true filters.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var (
		events []model.Event
		err    error
	)
	switch {
	case r.URL.Query().Get("upcoming") == "true":
		events, err = h.svc.UpcomingEvents(r.Context())
	case r.URL.Query().Get("status") != "":
		events, err = h.svc.EventsByStatus(r.Context(), model.EventStatus(r.URL.Query().Get("status")))
	default:
		events, err = h.svc.ListEvents(r.Context())
	}
	if err != nil {
		handleError(w, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// SearchEvents handles GET /events/search?by=&q=
func (h *EventHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("by")
	if field == "" {
		field = "name"
	}

	events, err := h.svc.SearchEvents(r.Context(), field, r.URL.Query().Get("q"))
	if err != nil {
		handleError(w, err)
		return
	}

	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PUT /events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), callerIdentity(r), chi.URLParam(r, "id"), req)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEvent(r.Context(), callerIdentity(r), chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CancelEvent handles POST /events/{id}/cancel
func (h *EventHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.CancelEvent(r.Context(), callerIdentity(r), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// CompleteEvent handles POST /events/{id}/complete
func (h *EventHandler) CompleteEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.CompleteEvent(r.Context(), callerIdentity(r), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// BulkImport handles POST /events/bulk
func (h *EventHandler) BulkImport(w http.ResponseWriter, r *http.Request) {
	var req model.BulkImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	results, err := h.svc.BulkImport(r.Context(), callerIdentity(r), req)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// ─── Registrations ────────────────────────────────────────────────────────────

// Register handles POST /events/{id}/register
// An empty body registers the caller; admins may pass {"user_id": ...}.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Register(r.Context(), callerIdentity(r), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// Unregister handles DELETE /events/{id}/register
func (h *EventHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Unregister(r.Context(), callerIdentity(r), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ListRegistrations handles GET /events/{id}/registrations
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.Attendees(r.Context(), callerIdentity(r), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// Availability handles GET /events/{id}/availability
func (h *EventHandler) Availability(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Availability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
