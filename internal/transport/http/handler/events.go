package handler

import (
	"net/http"
	"strconv"

	"github.com/fest-portal-api/internal/application/event"
	"github.com/fest-portal-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// EventHandler handles events, registrations and attendee export.
type EventHandler struct {
	svc event.Service
}

func NewEventHandler(svc event.Service) *EventHandler { return &EventHandler{svc: svc} }

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Server error while fetching events.")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, err, "Server error while fetching event.",
			failure{domain.ErrNotFound, http.StatusNotFound, "Event not found."},
		)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var in domain.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := h.svc.Create(r.Context(), actor.UserID, in)
	if err != nil {
		writeServiceError(w, r, err, "Server error while creating event.")
		return
	}
	writeJSON(w, http.StatusCreated, EventEnvelope{Message: "Event created successfully and notification sent!", Event: e})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var in domain.EventInput
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "eventId"), in)
	if err != nil {
		writeServiceError(w, r, err, "Server error while updating event.",
			failure{domain.ErrNotFound, http.StatusNotFound, "Event not found."},
			failure{domain.ErrForbidden, http.StatusForbidden, "You are not authorized to update this event."},
		)
		return
	}
	writeJSON(w, http.StatusOK, EventEnvelope{Message: "Event updated successfully!", Event: e})
}

func (h *EventHandler) MyEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	events, err := h.svc.MyEvents(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, r, err, "Server error while fetching events.")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.Register(r.Context(), actor.UserID, chi.URLParam(r, "eventId")); err != nil {
		writeServiceError(w, r, err, "Server error during event registration.",
			failure{domain.ErrNotFound, http.StatusNotFound, "Event not found."},
			failure{domain.ErrForbidden, http.StatusForbidden, "You cannot register for an event that you are coordinating."},
			failure{domain.ErrConflict, http.StatusBadRequest, "You are already registered for this event."},
		)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "Registered for event successfully! A confirmation email is being sent."})
}

// Export streams the attendee list of an owned event as a CSV attachment.
func (h *EventHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	exp, err := h.svc.ExportCSV(r.Context(), actor.UserID, chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, err, "Server error during export.",
			failure{domain.ErrNotFound, http.StatusNotFound, "Event not found or you are not authorized."},
		)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(exp.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}
