package handler

import (
	"log/slog"
	"net/http"

	"github.com/caffeinepub/rk-solutions/internal/usecase"
)

// ShopHandler exposes shop registration and lookup over HTTP.
type ShopHandler struct {
	registry *usecase.Registry
	logger   *slog.Logger
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(registry *usecase.Registry, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{registry: registry, logger: logger}
}

type createShopRequest struct {
	Name string `json:"name"`
}

// CreateShop registers a shop for the caller and binds ownership.
func (h *ShopHandler) CreateShop(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	var req createShopRequest
	if !decode(w, r, &req) {
		return
	}

	shop, err := h.registry.CreateAndAssignShop(r.Context(), principal, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, shop)
}

func (h *ShopHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	shopID, ok := pathID(w, r)
	if !ok {
		return
	}
	shop, err := h.registry.GetShop(r.Context(), principal, shopID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, shop)
}
