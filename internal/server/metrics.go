package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/gutenmorgen/internal/instrumentation"
)

// MetricsServer exposes /metrics and /healthz on a side listener while the
// MCP server owns stdio.
type MetricsServer struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewMetricsServer builds the listener. Returns nil when the provider has no
// Prometheus handler (instrumentation disabled).
func NewMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) *MetricsServer {
	if provider == nil {
		return nil
	}
	handler := provider.Handler()
	if handler == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until Stop is called. Blocks; run it in a goroutine.
func (m *MetricsServer) Start() {
	m.logger.Info("metrics listener started", slog.String("addr", m.srv.Addr))
	if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		m.logger.Error("metrics listener failed", slog.String("error", err.Error()))
	}
}

// Stop shuts the listener down gracefully.
func (m *MetricsServer) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.srv.Shutdown(shutdownCtx)
}
