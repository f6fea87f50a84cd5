package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/gutenmorgen/internal/cache"
	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/logging"
	"github.com/teemow/gutenmorgen/internal/morgen"
	"github.com/teemow/gutenmorgen/internal/retry"
)

// rootCmd represents the base command for the gm application
var rootCmd = &cobra.Command{
	Use:   "gm",
	Short: "Command-line client for the Morgen calendar and task API",
	Long: `gm is a command-line client for Morgen (morgen.so): calendars, events,
and tasks aggregated across connected integrations like Linear, Notion,
and Todoist.

Responses are cached on disk with per-resource lifetimes, writes
invalidate the affected cache entries, and rate-limited requests are
retried using the server's wait hint.

It can run as:
  - A standalone CLI tool (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

var (
	jsonOutput  bool
	noCache     bool
	maxRetries  int
	verboseMode bool
)

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gm version %s\n" .Version}}`)
	rootCmd.SilenceErrors = true

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Machine-readable JSON output; retry feedback becomes a single parseable line")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Bypass the response cache for this invocation")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "max-retries", -1, "Override the number of rate-limit retries")
	rootCmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newCalendarsCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newAvailabilityCmd())
	rootCmd.AddCommand(newTasksCmd())
	rootCmd.AddCommand(newTagsCmd())
	rootCmd.AddCommand(newListsCmd())
	rootCmd.AddCommand(newGroupsCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// appContext bundles everything a command needs: resolved settings, the
// config file (for calendar groups), and a ready API client.
type appContext struct {
	settings config.Settings
	file     config.File
	store    *cache.Store
	client   *morgen.Client
	logger   *slog.Logger
}

// retryFeedback picks the rate-limit retry callback: an interactive
// countdown for humans, a single JSON line for agents. Both write to w
// (stderr in practice) so stdout stays clean.
func retryFeedback(agentMode bool, w io.Writer) retry.Func {
	if agentMode {
		return retry.Agent(w)
	}
	return retry.Human(w)
}

// newAppContext loads configuration and builds the API client. The retry
// callback follows the output mode: --json implies agent-facing feedback.
func newAppContext() (*appContext, error) {
	return newAppContextWithRetry(retryFeedback(jsonOutput, os.Stderr))
}

func newAppContextWithRetry(onRetry retry.Func) (*appContext, error) {
	logger := logging.New(verboseMode)
	slog.SetDefault(logger)

	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	if maxRetries >= 0 {
		settings.MaxRetries = maxRetries
	}

	file, err := config.LoadFile()
	if err != nil {
		return nil, err
	}

	opts := []morgen.Option{
		morgen.WithLogger(logger),
		morgen.WithRetryCallback(morgen.RetryFunc(onRetry)),
	}
	var store *cache.Store
	if !noCache {
		dir := settings.CacheDir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		store = cache.NewStore(dir, logger)
		opts = append(opts, morgen.WithCache(store))
	}

	return &appContext{
		settings: settings,
		file:     file,
		store:    store,
		client:   morgen.NewClient(settings, opts...),
		logger:   logger,
	}, nil
}

// printJSON writes indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// classifyError extracts the machine-readable kind and suggestions from an
// error. Typed errors are often wrapped with call-site context, so this
// walks the chain with errors.As instead of asserting directly.
func classifyError(err error) (string, []string) {
	var typed morgen.Error
	if errors.As(err, &typed) {
		return typed.Type(), typed.Suggestions()
	}
	return "error", nil
}

// printError renders an error on stderr. With --json the shape is stable for
// agents: {"error":{"type","message","suggestions"}}.
func printError(err error) {
	errType, suggestions := classifyError(err)

	if jsonOutput {
		payload := map[string]any{"error": map[string]any{
			"type":    errType,
			"message": err.Error(),
		}}
		if len(suggestions) > 0 {
			payload["error"].(map[string]any)["suggestions"] = suggestions
		}
		raw, merr := json.Marshal(payload)
		if merr != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Fprintln(os.Stderr, string(raw))
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	for _, s := range suggestions {
		fmt.Fprintf(os.Stderr, "  - %s\n", s)
	}
}

func joinNonEmpty(parts []string, sep string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gm version %s\n", version)
		},
	}
}
