package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/logging"
	"github.com/teemow/gutenmorgen/internal/morgen"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Morgen API credentials",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the Morgen API key in the OS keyring",
		Long: `Store the Morgen API key in the OS keyring so it does not have to live
in the environment or the config file. Get a key at
https://platform.morgen.so/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				fmt.Fprint(os.Stderr, "Morgen API key: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read API key: %w", err)
				}
				key = strings.TrimSpace(line)
			}
			if key == "" {
				return fmt.Errorf("no API key provided")
			}

			if err := config.StoreAPIKey(key); err != nil {
				return fmt.Errorf("store API key in keyring: %w", err)
			}
			if jsonOutput {
				return printJSON(map[string]string{"status": "stored"})
			}
			fmt.Println("API key stored in the OS keyring.")
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key (prompted for when omitted)")
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where credentials come from and whether bearer negotiation is possible",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()

			keySource := "none"
			switch {
			case err != nil:
			case os.Getenv("MORGEN_API_KEY") != "":
				keySource = "environment"
			default:
				keySource = "config file or keyring"
			}

			desktopConfig := ""
			if path, found := morgen.FindDesktopConfig(); found {
				desktopConfig = path
			}

			if jsonOutput {
				payload := map[string]any{
					"api_key":        keySource,
					"desktop_config": desktopConfig,
				}
				if err == nil && settings.BearerToken != "" {
					payload["bearer_token"] = "environment"
				}
				return printJSON(payload)
			}

			if keySource == "none" {
				fmt.Println("API key: not configured")
				printError(err)
			} else {
				fmt.Printf("API key: %s (%s)\n", logging.SanitizeToken(settings.APIKey), keySource)
			}
			if desktopConfig != "" {
				fmt.Printf("Morgen desktop app config: %s (bearer negotiation available)\n", desktopConfig)
			} else {
				fmt.Println("Morgen desktop app config: not found (API key auth only)")
			}
			return nil
		},
	}
}
