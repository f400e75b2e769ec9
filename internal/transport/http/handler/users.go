package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fest-portal-api/internal/application/user"
	"github.com/fest-portal-api/internal/domain"
)

// UserHandler handles the caller's own account.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req domain.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Please provide both old and new passwords.")
		return
	}
	if err := h.svc.ChangePassword(r.Context(), actor.UserID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err, "Server error while updating password.",
			failure{domain.ErrNotFound, http.StatusNotFound, "User not found."},
			failure{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Incorrect old password."},
		)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password updated successfully."})
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteMe(r.Context(), actor.UserID); err != nil {
		writeServiceError(w, r, err, "Server error while deleting account.",
			failure{domain.ErrNotFound, http.StatusNotFound, "User not found."},
		)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "User account deleted successfully."})
}

func (h *UserHandler) UploadProfilePic(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	in, closeFile, ok := parseUpload(w, r, "profilePic")
	if !ok {
		return
	}
	defer closeFile()
	if in == nil {
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	u, err := h.svc.UploadProfilePic(r.Context(), actor.UserID, *in)
	if err != nil {
		writeServiceError(w, r, err, "Server error during profile picture update.",
			failure{domain.ErrNotFound, http.StatusNotFound, "User not found."},
		)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Message: "Profile picture uploaded successfully.", User: u.Public()})
}

func (h *UserHandler) RemoveProfilePic(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	u, err := h.svc.RemoveProfilePic(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, r, err, "Server error during profile picture removal.",
			failure{domain.ErrNotFound, http.StatusNotFound, "User not found."},
		)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Message: "Profile picture removed successfully.", User: u.Public()})
}

// MyRegistrations returns the IDs of events the caller registered for as a
// bare JSON array.
func (h *UserHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	ids, err := h.svc.MyRegistrations(r.Context(), actor.UserID)
	if err != nil {
		writeServiceError(w, r, err, "Server error while fetching registrations.")
		return
	}
	writeJSON(w, http.StatusOK, ids)
}
