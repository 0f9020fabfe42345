package handler

import (
	"log/slog"
	"net/http"

	"github.com/caffeinepub/rk-solutions/internal/domain"
	"github.com/caffeinepub/rk-solutions/internal/usecase"
)

// ProfileHandler exposes caller profile and role lookups over HTTP.
type ProfileHandler struct {
	guard  *usecase.Guard
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(guard *usecase.Guard, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{guard: guard, logger: logger}
}

func (h *ProfileHandler) GetCallerProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	profile, err := h.guard.GetCallerProfile(r.Context(), principal)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type saveProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *ProfileHandler) SaveCallerProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	var req saveProfileRequest
	if !decode(w, r, &req) {
		return
	}

	profile := &domain.UserProfile{Name: req.Name, Email: req.Email}
	if err := h.guard.SaveCallerProfile(r.Context(), principal, profile); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type roleResponse struct {
	Role         domain.Role `json:"role"`
	IsSuperAdmin bool        `json:"is_super_admin"`
}

func (h *ProfileHandler) GetCallerRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	role, err := h.guard.RoleOf(r.Context(), principal)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, roleResponse{Role: role, IsSuperAdmin: role == domain.RoleAdmin})
}
