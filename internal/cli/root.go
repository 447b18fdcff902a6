package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	token     string
)

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Inspect and exercise a signaling relay",
	Long: `relayctl talks to a running signaling relay: it lists rooms and their
participants through the HTTP introspection API, joins a room over websocket
to watch presence and relay traffic, and signs operator tokens.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("RELAY_URL", "http://localhost:8080"), "relay base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("RELAY_TOKEN"), "operator bearer token for /rooms")

	rootCmd.AddCommand(roomsCmd, roomCmd, watchCmd, tokenCmd)
}

// Execute runs the root command; called once by main.main()
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		cancel()
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
