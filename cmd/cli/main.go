package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/adapter/http/middleware"
)

type options struct {
	baseURL string
	timeout time.Duration
	token   string
	actorID string
	role    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "walletctl",
		Short:         "Wallet ledger CLI tool",
		Long:          `A command line interface for operating the wallet ledger API and database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", envOr("WALLET_API_URL", "http://localhost:8080"), "Base URL of the wallet API")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.StringVar(&opts.token, "token", os.Getenv("WALLET_API_TOKEN"), "Bearer token; when empty the actor headers are sent")
	flags.StringVar(&opts.actorID, "actor", "admin", "Actor ID sent in the "+middleware.ActorIDHeader+" header")
	flags.StringVar(&opts.role, "role", "admin", "Actor role sent in the "+middleware.ActorRoleHeader+" header")

	rootCmd.AddCommand(
		walletCmd(opts),
		entryCmd(opts),
		holdCmd(opts),
		withdrawalCmd(opts),
		reconcileCmd(opts),
		migrateCmd(),
		tokenCmd(),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
