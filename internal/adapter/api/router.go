package api

import (
	"log/slog"
	"net/http"

	"github.com/caffeinepub/rk-solutions/internal/adapter/api/handler"
	"github.com/caffeinepub/rk-solutions/internal/adapter/api/middleware"
	"github.com/caffeinepub/rk-solutions/internal/pkg/config"
	"github.com/caffeinepub/rk-solutions/internal/usecase"
)

// NewRouter creates and configures the main HTTP router for the inventory service.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	guard *usecase.Guard,
	registry *usecase.Registry,
	ledger *usecase.Ledger,
	analytics *usecase.Analytics,
) http.Handler {
	mux := http.NewServeMux()

	profileHandler := handler.NewProfileHandler(guard, logger)
	shopHandler := handler.NewShopHandler(registry, logger)
	productHandler := handler.NewProductHandler(ledger, analytics, logger)
	adminHandler := handler.NewAdminHandler(guard, registry, logger)

	// Middleware
	auth := middleware.Auth(logger)
	limit := middleware.RateLimit(cfg.MutationRatePerSec, cfg.MutationBurst, logger)

	// Reads go through auth only; mutations are also rate limited per caller.
	read := func(h http.HandlerFunc) http.Handler { return auth(h) }
	mutate := func(h http.HandlerFunc) http.Handler { return auth(limit(h)) }

	// Profiles and roles
	mux.Handle("GET /v1/profile", read(profileHandler.GetCallerProfile))
	mux.Handle("POST /v1/profile", mutate(profileHandler.SaveCallerProfile))
	mux.Handle("GET /v1/role", read(profileHandler.GetCallerRole))

	// Shops
	mux.Handle("POST /v1/shops", mutate(shopHandler.CreateShop))
	mux.Handle("GET /v1/shops/{id}", read(shopHandler.GetShop))

	// Products and movements
	mux.Handle("POST /v1/shops/{id}/products", mutate(productHandler.CreateProduct))
	mux.Handle("GET /v1/shops/{id}/products", read(productHandler.ListProducts))
	mux.Handle("GET /v1/products/{id}", read(productHandler.GetProduct))
	mux.Handle("PUT /v1/products/{id}", mutate(productHandler.UpdateProduct))
	mux.Handle("DELETE /v1/products/{id}", mutate(productHandler.DeleteProduct))
	mux.Handle("POST /v1/products/{id}/movements", mutate(productHandler.RecordMovement))
	mux.Handle("GET /v1/products/{id}/movements", read(productHandler.ListMovements))
	mux.Handle("GET /v1/products/{id}/status", read(productHandler.GetStockStatus))
	mux.Handle("GET /v1/shops/{id}/movements", read(productHandler.ListShopMovements))

	// Analytics
	mux.Handle("GET /v1/shops/{id}/analytics", read(productHandler.GetShopAnalytics))
	mux.Handle("GET /v1/shops/{id}/low-stock", read(productHandler.ListLowStock))
	mux.Handle("GET /v1/shops/{id}/out-of-stock", read(productHandler.ListOutOfStock))

	// Admin surface
	mux.Handle("POST /v1/admin/claim-super-admin", mutate(adminHandler.ClaimSuperAdmin))
	mux.Handle("GET /v1/admin/shops", read(adminHandler.ListShops))
	mux.Handle("POST /v1/admin/shops", mutate(adminHandler.CreateShop))
	mux.Handle("POST /v1/admin/shops/{id}/suspend", mutate(adminHandler.SuspendShop))
	mux.Handle("POST /v1/admin/shops/{id}/reactivate", mutate(adminHandler.ReactivateShop))
	mux.Handle("POST /v1/admin/assign-role", mutate(adminHandler.AssignRole))
	mux.Handle("POST /v1/admin/assign-shop", mutate(adminHandler.AssignShop))
	mux.Handle("GET /v1/admin/profiles/{principal}", read(adminHandler.GetProfile))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return middleware.Logging(logger)(mux)
}
