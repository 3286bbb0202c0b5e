package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"market-structure-lab/internal/observability"
)

// startMetricsServer serves /metrics and /health when metrics are enabled.
// The returned stop function shuts the server down.
func startMetricsServer() func() {
	if !state.cfg.Metrics.Enabled {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler(state.registry))

	srv := &http.Server{
		Addr:              state.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		state.logger.Info().Str("addr", srv.Addr).Msg("metrics server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			state.logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
