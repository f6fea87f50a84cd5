package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/teemow/gutenmorgen/internal/cache"
	"github.com/teemow/gutenmorgen/internal/logging"
)

// cacheDir resolves the cache location without requiring an API key, so the
// cache can be inspected and cleared before authentication is set up.
func cacheDir() string {
	if dir := os.Getenv("MORGEN_CACHE_DIR"); dir != "" {
		return dir
	}
	return cache.DefaultDir()
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the response cache",
	}
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCacheStatsCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [prefix]",
		Short: "Remove cached responses, optionally only those under a key prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := cache.NewStore(cacheDir(), logging.New(verboseMode))

			if len(args) == 1 {
				store.Invalidate(args[0])
				if jsonOutput {
					return printJSON(map[string]string{"cleared": args[0]})
				}
				fmt.Printf("Cleared cache entries under %q\n", args[0])
				return nil
			}

			store.Clear()
			if jsonOutput {
				return printJSON(map[string]string{"cleared": "all"})
			}
			fmt.Println("Cleared all cache entries")
			return nil
		},
	}
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached keys with their age and remaining lifetime",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := cache.NewStore(cacheDir(), logging.New(verboseMode))
			stats := store.Snapshot()

			if jsonOutput {
				return printJSON(stats)
			}

			fmt.Printf("Cache directory: %s\n", stats.CacheDir)
			fmt.Printf("Entries: %d\n", stats.Entries)
			if stats.Entries == 0 {
				return nil
			}

			keys := make([]string, 0, len(stats.Keys))
			for key := range stats.Keys {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				ks := stats.Keys[key]
				state := fmt.Sprintf("%.0fs left", ks.RemainingSeconds)
				if ks.Expired {
					state = "expired"
				}
				fmt.Printf("  %-30s age %.0fs  ttl %ds  %s  (%d bytes)\n",
					key, ks.AgeSeconds, ks.TTLSeconds, state, ks.SizeBytes)
			}
			return nil
		},
	}
}
