package handler

import (
	"net/http"

	"github.com/fest-portal-api/internal/domain"
)

// ListRoles returns the assignable roles, lowest privilege first.
func ListRoles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Roles)
}
