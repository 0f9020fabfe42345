package handler

import (
	"log/slog"
	"net/http"

	"github.com/caffeinepub/rk-solutions/internal/domain"
	"github.com/caffeinepub/rk-solutions/internal/usecase"
)

// AdminHandler exposes the super-admin control surface: shop lifecycle,
// role assignment, and the one-time super-admin bootstrap.
type AdminHandler struct {
	guard    *usecase.Guard
	registry *usecase.Registry
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(guard *usecase.Guard, registry *usecase.Registry, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{guard: guard, registry: registry, logger: logger}
}

// ClaimSuperAdmin attempts the one-time super-admin bootstrap for the caller.
func (h *AdminHandler) ClaimSuperAdmin(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.guard.ResetSuperAdmin(r.Context(), principal); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_super_admin": true})
}

func (h *AdminHandler) ListShops(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	shops, err := h.registry.GetAllShops(r.Context(), principal)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, shops)
}

type adminCreateShopRequest struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// CreateShop registers a shop on behalf of a designated owner.
func (h *AdminHandler) CreateShop(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	var req adminCreateShopRequest
	if !decode(w, r, &req) {
		return
	}

	shop, err := h.registry.CreateShop(r.Context(), principal, req.Name, domain.Principal(req.Owner))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, shop)
}

func (h *AdminHandler) SuspendShop(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	shopID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.registry.SuspendShop(r.Context(), principal, shopID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ReactivateShop(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	shopID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.registry.ReactivateShop(r.Context(), principal, shopID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRoleRequest struct {
	Principal string      `json:"principal"`
	Role      domain.Role `json:"role"`
}

func (h *AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	var req assignRoleRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.guard.AssignUserRole(r.Context(), principal, domain.Principal(req.Principal), req.Role); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignShopRequest struct {
	Principal string `json:"principal"`
	ShopID    *int64 `json:"shop_id"`
}

func (h *AdminHandler) AssignShop(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	var req assignShopRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.guard.AssignUserToShop(r.Context(), principal, domain.Principal(req.Principal), req.ShopID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile looks up another principal's profile. Restricted to the
// profile owner or a super admin by the guard.
func (h *AdminHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	target := domain.Principal(r.PathValue("principal"))
	if target == "" {
		http.Error(w, "Bad request: missing principal", http.StatusBadRequest)
		return
	}
	profile, err := h.guard.GetProfile(r.Context(), principal, target)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
