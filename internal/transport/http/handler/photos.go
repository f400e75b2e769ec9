package handler

import (
	"net/http"

	"github.com/fest-portal-api/internal/application/photo"
	"github.com/fest-portal-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// PhotoHandler handles club gallery endpoints.
type PhotoHandler struct {
	svc photo.Service
}

func NewPhotoHandler(svc photo.Service) *PhotoHandler { return &PhotoHandler{svc: svc} }

func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	photos, err := h.svc.List(r.Context(), chi.URLParam(r, "clubId"))
	if err != nil {
		writeServiceError(w, r, err, "Server error while fetching photos.",
			failure{domain.ErrNotFound, http.StatusNotFound, "Club not found."},
		)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// Upload expects a multipart "file" field and an optional "caption".
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	in, closeFile, ok := parseUpload(w, r, "file")
	if !ok {
		return
	}
	defer closeFile()
	if in == nil {
		writeError(w, http.StatusBadRequest, "Please select a file to upload.")
		return
	}
	caption, _ := formValue(r, "caption")

	p, err := h.svc.Upload(r.Context(), actor, chi.URLParam(r, "clubId"), caption, *in)
	if err != nil {
		writeServiceError(w, r, err, "Server error during photo upload.",
			failure{domain.ErrNotFound, http.StatusNotFound, "Club not found."},
			failure{domain.ErrForbidden, http.StatusForbidden, "You are not authorized to upload photos to this club."},
		)
		return
	}
	writeJSON(w, http.StatusCreated, PhotoEnvelope{Message: "Photo uploaded successfully!", ImageURL: p.URL, Photo: p})
}

func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), actor, chi.URLParam(r, "photoId")); err != nil {
		writeServiceError(w, r, err, "Server error during photo deletion.",
			failure{domain.ErrNotFound, http.StatusNotFound, "Photo not found."},
			failure{domain.ErrForbidden, http.StatusForbidden, "You are not authorized to delete this photo."},
		)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Photo deleted successfully."})
}
