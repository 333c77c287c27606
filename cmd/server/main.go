package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shonsungje/hotdeal-notifier/internal/aggregator"
	"github.com/shonsungje/hotdeal-notifier/internal/config"
	"github.com/shonsungje/hotdeal-notifier/internal/crawler"
	"github.com/shonsungje/hotdeal-notifier/internal/logging"
	"github.com/shonsungje/hotdeal-notifier/internal/models"
	"github.com/shonsungje/hotdeal-notifier/internal/notifier"
	"github.com/shonsungje/hotdeal-notifier/internal/pipeline"
	"github.com/shonsungje/hotdeal-notifier/internal/storage"
)

const recentDealsLimit = 100

type server struct {
	pipeline *pipeline.Pipeline
	deals    dealLister
}

type dealLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.DealRecord, error)
	GetDealByKey(ctx context.Context, key string) (*models.DealRecord, error)
}

func main() {
	logging.Init(slog.LevelInfo)
	slog.Info("Starting hotdeal notifier server...")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, err := storage.New(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Critical error initializing Firestore client", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	agg := aggregator.New(crawler.All(cfg.FetchTimeout, cfg.UserAgent))
	n := notifier.New(notifier.NewFCM(cfg.CredentialsFile), store)
	p := pipeline.New(agg, store, n, cfg.MaxStoredDeals)

	// First cycle at startup, then on the fixed interval.
	go p.Start(ctx, cfg.CrawlInterval)

	srv := &server{pipeline: p, deals: store}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("POST /run", srv.handleRun)
	mux.HandleFunc("GET /api/deals", srv.handleListDeals)
	mux.HandleFunc("GET /api/deals/{site}/{id}", srv.handleGetDeal)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Received signal, shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"status":"ok"}`)
}

// handleRun triggers a cycle immediately. It responds 202 and runs in
// the background; the overlap guard makes repeated triggers harmless.
func (s *server) handleRun(w http.ResponseWriter, _ *http.Request) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Panic in triggered cycle", "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()
		s.pipeline.RunCycle(ctx)
	}()

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "Crawl cycle started.")
}

// handleGetDeal looks one deal up by its (site, origin id) identity.
func (s *server) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("site") + ":" + r.PathValue("id")

	deal, err := s.deals.GetDealByKey(r.Context(), key)
	if err != nil {
		slog.Error("Failed to get deal", "key", key, "error", err)
		http.Error(w, `{"success":false}`, http.StatusInternalServerError)
		return
	}
	if deal == nil {
		http.Error(w, `{"success":false,"error":"not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"deal":    deal,
	}); err != nil {
		slog.Warn("Failed to encode deal response", "error", err)
	}
}

func (s *server) handleListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.deals.ListRecent(r.Context(), recentDealsLimit)
	if err != nil {
		// Stale-but-successful beats failing: an empty list is a valid
		// degraded response as far as API consumers are concerned.
		slog.Error("Failed to list recent deals", "error", err)
		http.Error(w, `{"success":false}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"deals":   deals,
	}); err != nil {
		slog.Warn("Failed to encode deals response", "error", err)
	}
}
