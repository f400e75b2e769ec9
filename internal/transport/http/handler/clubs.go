package handler

import (
	"net/http"

	"github.com/fest-portal-api/internal/application/club"
	"github.com/fest-portal-api/internal/domain"
	"github.com/fest-portal-api/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// ClubHandler handles club endpoints. Writes take multipart forms with an
// optional "logo" file.
type ClubHandler struct {
	svc club.Service
}

func NewClubHandler(svc club.Service) *ClubHandler { return &ClubHandler{svc: svc} }

func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	clubs, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Server error while fetching clubs.")
		return
	}
	writeJSON(w, http.StatusOK, clubs)
}

func (h *ClubHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Server error while fetching club details.",
			failure{domain.ErrNotFound, http.StatusNotFound, "Club not found."},
		)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	logo, closeFile, ok := parseUpload(w, r, "logo")
	if !ok {
		return
	}
	defer closeFile()

	name, _ := formValue(r, "name")
	description, _ := formValue(r, "description")
	in := domain.ClubInput{Name: name, Description: description}
	if err := validate.Struct(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Message: err.Error(), Code: "validation_failed"})
		return
	}

	c, err := h.svc.Create(r.Context(), actor.UserID, in, logo)
	if err != nil {
		writeServiceError(w, r, err, "Server error during club creation.",
			failure{domain.ErrAlreadyOwnsClub, http.StatusBadRequest, "You already own a club. Only one club per coordinator."},
		)
		return
	}
	writeJSON(w, http.StatusCreated, ClubEnvelope{Message: "Club created successfully!", Club: c})
}

func (h *ClubHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	logo, closeFile, ok := parseUpload(w, r, "logo")
	if !ok {
		return
	}
	defer closeFile()

	var in domain.ClubUpdate
	if v, ok := formValue(r, "name"); ok {
		in.Name = &v
	}
	if v, ok := formValue(r, "description"); ok {
		in.Description = &v
	}
	if err := validate.Struct(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageEnvelope{Message: err.Error(), Code: "validation_failed"})
		return
	}

	c, err := h.svc.Update(r.Context(), actor, chi.URLParam(r, "id"), in, logo)
	if err != nil {
		writeServiceError(w, r, err, "Server error during club update.",
			failure{domain.ErrNotFound, http.StatusNotFound, "Club not found."},
			failure{domain.ErrForbidden, http.StatusForbidden, "You are not authorized to update this club."},
		)
		return
	}
	writeJSON(w, http.StatusOK, ClubEnvelope{Message: "Club updated successfully!", Club: c})
}
