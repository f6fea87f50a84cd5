package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/instrumentation"
	"github.com/teemow/gutenmorgen/internal/morgen"
)

// ServerContext holds the context for the MCP server. One Morgen client is
// shared across all tool invocations so they share the response cache and
// the negotiated bearer credential.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	client   *morgen.Client
	cfgFile  config.File
	provider *instrumentation.Provider
	logger   *slog.Logger
	readOnly bool

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, client *morgen.Client, cfgFile config.File, provider *instrumentation.Provider, logger *slog.Logger, readOnly bool) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		client:   client,
		cfgFile:  cfgFile,
		provider: provider,
		logger:   logger,
		readOnly: readOnly,
	}
}

// Context returns the server's lifetime context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Client returns the shared Morgen API client.
func (sc *ServerContext) Client() *morgen.Client {
	return sc.client
}

// ConfigFile returns the loaded configuration file, including calendar
// groups.
func (sc *ServerContext) ConfigFile() config.File {
	return sc.cfgFile
}

// Metrics returns the metrics recorder. Never nil, but may be a no-op.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.provider == nil {
		return &instrumentation.Metrics{}
	}
	return sc.provider.Metrics()
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// ReadOnly reports whether mutating tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}
