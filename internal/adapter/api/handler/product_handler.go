package handler

import (
	"log/slog"
	"net/http"

	"github.com/caffeinepub/rk-solutions/internal/usecase"
)

// ProductHandler exposes the stock ledger and analytics over HTTP.
type ProductHandler struct {
	ledger    *usecase.Ledger
	analytics *usecase.Analytics
	logger    *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ledger *usecase.Ledger, analytics *usecase.Analytics, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{ledger: ledger, analytics: analytics, logger: logger}
}

type createProductRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	InitialQuantity   int64  `json:"initial_quantity"`
	LowStockThreshold int64  `json:"low_stock_threshold"`
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	shopID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req createProductRequest
	if !decode(w, r, &req) {
		return
	}

	product, err := h.ledger.CreateProduct(r.Context(), principal, shopID, req.Name, req.Description, req.InitialQuantity, req.LowStockThreshold)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	shopID, ok := pathID(w, r)
	if !ok {
		return
	}
	products, err := h.ledger.GetShopProducts(r.Context(), principal, shopID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r)
	if !ok {
		return
	}
	product, err := h.ledger.GetProduct(r.Context(), principal, productID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type updateProductRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	LowStockThreshold int64  `json:"low_stock_threshold"`
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateProductRequest
	if !decode(w, r, &req) {
		return
	}

	product, err := h.ledger.UpdateProduct(r.Context(), principal, productID, req.Name, req.Description, req.LowStockThreshold)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.ledger.DeleteProduct(r.Context(), principal, productID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordMovementRequest struct {
	QuantityChange int64 `json:"quantity_change"`
}

func (h *ProductHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req recordMovementRequest
	if !decode(w, r, &req) {
		return
	}

	movement, err := h.ledger.RecordMovement(r.Context(), principal, productID, req.QuantityChange)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, movement)
}

func (h *ProductHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r)
	if !ok {
		return
	}
	movements, err := h.ledger.GetStockMovements(r.Context(), principal, productID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, movements)
}

func (h *ProductHandler) GetStockStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r)
	if !ok {
		return
	}
	status, err := h.ledger.GetStockStatus(r.Context(), principal, productID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *ProductHandler) ListShopMovements(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	shopID, ok := pathID(w, r)
	if !ok {
		return
	}
	movements, err := h.ledger.GetShopStockMovements(r.Context(), principal, shopID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, movements)
}

func (h *ProductHandler) GetShopAnalytics(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	shopID, ok := pathID(w, r)
	if !ok {
		return
	}
	dashboard, err := h.analytics.GetShopAnalytics(r.Context(), principal, shopID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *ProductHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	shopID, ok := pathID(w, r)
	if !ok {
		return
	}
	products, err := h.analytics.GetLowStockProducts(r.Context(), principal, shopID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) ListOutOfStock(w http.ResponseWriter, r *http.Request) {
	principal, ok := caller(w, r)
	if !ok {
		return
	}
	shopID, ok := pathID(w, r)
	if !ok {
		return
	}
	products, err := h.analytics.GetOutOfStockProducts(r.Context(), principal, shopID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}
