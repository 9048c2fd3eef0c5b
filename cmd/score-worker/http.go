package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/BearBump/ScoreBox/config"
	"github.com/BearBump/ScoreBox/internal/services/refresher"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type workerHTTPOpts struct {
	httpAddr string
	onListen func(httpAddr string)

	refresher *refresher.Refresher
	cfg       *config.Config
	log       *zap.Logger
}

func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}
	if opts.log == nil {
		opts.log = zap.NewNop()
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if opts.refresher == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "refresher not wired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		if opts.refresher == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "refresher not wired"})
			return
		}
		writeJSON(w, http.StatusOK, opts.refresher.Stats())
	})
	r.Get("/config", func(w http.ResponseWriter, _ *http.Request) {
		if opts.cfg == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "config not wired"})
			return
		}
		writeJSON(w, http.StatusOK, refreshSettings(opts.cfg.ScoreBox))
	})
	r.Post("/trigger", func(w http.ResponseWriter, _ *http.Request) {
		if opts.refresher == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "refresher not wired"})
			return
		}
		opts.refresher.Trigger()
		writeJSON(w, http.StatusAccepted, map[string]bool{"triggered": true})
	})

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	opts.log.Info("worker HTTP listening", zap.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// refreshSettings is the non-secret part of the config shown on /config.
func refreshSettings(sb config.ScoreBoxConfig) map[string]any {
	return map[string]any{
		"refreshIntervalSeconds":    sb.RefreshIntervalSeconds,
		"refreshConcurrency":        sb.RefreshConcurrency,
		"refreshRateLimitPerMinute": sb.RefreshRateLimitPerMinute,
		"refreshBackoffMaxSeconds":  sb.RefreshBackoffMaxSeconds,
		"activeCarrierWeeks":        sb.ActiveCarrierWeeks,
		"activeCarrierMinShipments": sb.ActiveCarrierMinShipments,
		"reportCacheTTLSeconds":     sb.ReportCacheTTLSeconds,
		"sinceDate":                 sb.SinceDate,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
