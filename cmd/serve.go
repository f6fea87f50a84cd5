package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gutenmorgen/internal/instrumentation"
	"github.com/teemow/gutenmorgen/internal/server"
	"github.com/teemow/gutenmorgen/internal/tools/event_tools"
	"github.com/teemow/gutenmorgen/internal/tools/task_tools"
)

func newServeCmd() *cobra.Command {
	var (
		yolo        bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server to provide Morgen tools to AI assistants",
		Long: `Start an MCP (Model Context Protocol) server over stdio, exposing the
Morgen calendar and task operations as tools.

The server starts in read-only mode: only listing and search tools are
registered. Pass --yolo to also register create, update, and delete
tools.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(yolo, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (create, update, delete)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func runServe(yolo bool, metricsAddr string) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// MCP clients are agents: retry feedback is always the single JSON
	// line, never the interactive countdown.
	app, err := newAppContextWithRetry(retryFeedback(true, os.Stderr))
	if err != nil {
		return err
	}

	instrConfig := instrumentation.ConfigFromEnv("gm", version)
	if metricsAddr != "" {
		instrConfig.Enabled = true
		instrConfig.ListenAddr = metricsAddr
	}
	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize instrumentation: %w", err)
	}

	readOnly := !yolo
	serverContext := server.NewServerContext(shutdownCtx, app.client, app.file,
		provider, app.logger, readOnly)

	var metricsServer *server.MetricsServer
	if instrConfig.Enabled && instrConfig.ListenAddr != "" {
		metricsServer = server.NewMetricsServer(instrConfig.ListenAddr, provider, app.logger)
		if metricsServer != nil {
			go metricsServer.Start()
		}
	}

	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if metricsServer != nil {
			if err := metricsServer.Stop(stopCtx); err != nil {
				app.logger.Warn("metrics server shutdown", "error", err)
			}
		}
		if err := provider.Shutdown(stopCtx); err != nil {
			app.logger.Warn("instrumentation shutdown", "error", err)
		}
		serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("gm", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	return runStdioServer(mcpSrv)
}

// registerAllTools registers every tool category on the MCP server.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Events",
			register: func() error {
				return event_tools.RegisterEventTools(mcpSrv, sc)
			},
		},
		{
			name: "Tasks",
			register: func() error {
				return task_tools.RegisterTaskTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
