package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/caffeinepub/rk-solutions/internal/adapter/api/middleware"
	"github.com/caffeinepub/rk-solutions/internal/adapter/api/wire"
	"github.com/caffeinepub/rk-solutions/internal/domain"
)

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := wire.StatusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Code: wire.CodeOf(err), Error: err.Error()})
}

// caller extracts the authenticated principal placed by the auth middleware.
func caller(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	principal, ok := middleware.CallerFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: caller identity required", http.StatusUnauthorized)
		return "", false
	}
	return principal, true
}

// pathID parses the {id} path segment.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Bad request: invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		http.Error(w, "Bad request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
