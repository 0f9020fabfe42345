package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caffeinepub/rk-solutions/internal/adapter/metrics"
	"github.com/caffeinepub/rk-solutions/internal/adapter/remote"
	"github.com/caffeinepub/rk-solutions/internal/adapter/repository/wal"
	"github.com/caffeinepub/rk-solutions/internal/domain"
	"github.com/caffeinepub/rk-solutions/internal/pkg/config"
	"github.com/caffeinepub/rk-solutions/internal/pkg/logger"
	"github.com/caffeinepub/rk-solutions/internal/usecase"
)

// The agent is the shop-side companion process. Mutations issued while the
// server is unreachable are journaled locally and drained in order once the
// health check sees the server again.
func main() {
	cfg, err := config.LoadAgent()
	if err != nil {
		slog.Error("failed to load agent config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting sync agent", "server_url", cfg.ServerURL, "principal", cfg.Principal)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	journal, err := wal.NewJournal(cfg.JournalPath, cfg.JournalSegmentSize, cfg.JournalMaxDiskSize, log)
	if err != nil {
		log.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	client := remote.NewClient(cfg.ServerURL, cfg.RequestTimeout)
	queue := usecase.NewSyncQueue(client, journal, domain.Principal(cfg.Principal), log, metrics.NewLedgerMetrics())

	// Recover operations journaled by a previous run. Items that were
	// mid-sync when the process died come back as failed for review.
	if err := queue.Restore(ctx); err != nil {
		log.Error("failed to restore queue from journal", "error", err)
		os.Exit(1)
	}
	log.Info("queue restored", "pending", queue.PendingCount())

	go queue.StartHealthCheck(ctx, cfg.HealthCheckInterval)

	// Local control API for the shop frontend. Loopback only.
	localServer := &http.Server{
		Addr:    cfg.LocalAddr,
		Handler: localRouter(queue, log),
	}
	go func() {
		log.Info("starting local agent API", "addr", localServer.Addr)
		if err := localServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("local agent API failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down agent...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := localServer.Shutdown(shutdownCtx); err != nil {
		log.Error("local agent API shutdown failed", "error", err)
	}

	log.Info("agent shut down gracefully")
}

func localRouter(queue *usecase.SyncQueue, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, payload any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if payload != nil {
			_ = json.NewEncoder(w).Encode(payload)
		}
	}

	mux.HandleFunc("POST /queue", func(w http.ResponseWriter, r *http.Request) {
		var op domain.QueuedOperation
		if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
			http.Error(w, "Bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		id, err := queue.Enqueue(r.Context(), op)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
	})

	mux.HandleFunc("GET /queue", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, queue.Items())
	})

	mux.HandleFunc("POST /queue/{id}/retry", func(w http.ResponseWriter, r *http.Request) {
		if err := queue.Retry(r.Context(), r.PathValue("id")); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("DELETE /queue/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := queue.Discard(r.Context(), r.PathValue("id")); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /drain", func(w http.ResponseWriter, r *http.Request) {
		report, err := queue.Drain(r.Context())
		if err != nil {
			log.Error("manual drain failed", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"online":  queue.Online(),
			"pending": queue.PendingCount(),
		})
	})

	return mux
}
