package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/auth"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
)

func walletCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}

	var owner, currency string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open a wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.WalletResponse
			req := dto.CreateWalletRequest{OwnerID: owner, Currency: currency}
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/wallets/", req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	createCmd.Flags().StringVar(&owner, "owner", "", "Owner user ID")
	createCmd.Flags().StringVar(&currency, "currency", domain.DefaultCurrency, "Wallet currency")
	_ = createCmd.MarkFlagRequired("owner")

	balanceCmd := &cobra.Command{
		Use:   "balance <wallet-id>",
		Short: "Show settled and available balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.BalanceResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/wallets/"+url.PathEscape(args[0])+"/balance", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance:   %s %s\nAvailable: %s %s\n", resp.Balance, resp.Currency, resp.Available, resp.Currency)
			return nil
		},
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List wallets",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ListWalletsResponse
			path := fmt.Sprintf("/api/v1/wallets/?limit=%d&offset=%d", limit, offset)
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tOWNER\tBALANCE\tACTIVE")
			for _, w := range resp.Wallets {
				fmt.Fprintf(tw, "%s\t%s\t%s %s\t%t\n", w.ID, truncate(w.OwnerID, 20), w.Balance, w.Currency, w.Active)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", domain.DefaultPageSize, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	cmd.AddCommand(createCmd, balanceCmd, listCmd)
	return cmd
}

func entryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Ledger entry operations",
	}

	var (
		req    dto.ApplyEntryRequest
		amount string
	)
	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Write a signed ledger entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			req.Amount = a

			var resp dto.EntryResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/entries/", req, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	applyCmd.Flags().StringVar(&req.WalletID, "wallet", "", "Wallet ID")
	applyCmd.Flags().StringVar(&amount, "amount", "", "Signed amount; negative for debits")
	applyCmd.Flags().StringVar(&req.Type, "type", string(domain.EntryTypeDeposit), "Entry type")
	applyCmd.Flags().StringVar(&req.Description, "description", "", "Entry description")
	applyCmd.Flags().StringVar(&req.Status, "status", "", "PENDING to defer settlement")
	_ = applyCmd.MarkFlagRequired("wallet")
	_ = applyCmd.MarkFlagRequired("amount")
	_ = applyCmd.MarkFlagRequired("description")

	cmd.AddCommand(applyCmd)
	return cmd
}

func holdCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hold",
		Short: "Hold operations",
	}

	for _, action := range []string{"release", "cancel"} {
		cmd.AddCommand(&cobra.Command{
			Use:   action + " <hold-id>",
			Short: "Mark a pending hold " + action + "d",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var resp dto.HoldResponse
				path := "/api/v1/holds/" + url.PathEscape(args[0]) + "/" + action
				if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, path, nil, &resp); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			},
		})
	}

	return cmd
}

func withdrawalCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdrawal",
		Short: "Withdrawal review",
	}

	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List withdrawals",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			var resp dto.ListWithdrawalsResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/withdrawals/?"+q.Encode(), nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tREFERENCE\tAMOUNT\tSTATUS")
			for _, w := range resp.Withdrawals {
				fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\n", w.ID, w.Reference, w.Amount, w.Currency, w.Status)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().StringVar(&status, "status", string(domain.WithdrawalStatusPending), "Filter by status")

	for _, action := range []string{"complete", "reject"} {
		var req dto.ResolveWithdrawalRequest
		resolveCmd := &cobra.Command{
			Use:   action + " <withdrawal-id>",
			Short: "Resolve a pending withdrawal as " + action,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var resp dto.WithdrawalResponse
				path := "/api/v1/withdrawals/" + url.PathEscape(args[0]) + "/" + action
				if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, path, req, &resp); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			},
		}
		resolveCmd.Flags().StringVar(&req.Reason, "reason", "", "Reason shown to the user")
		resolveCmd.Flags().StringVar(&req.Image, "image", "", "Receipt image reference")
		cmd.AddCommand(resolveCmd)
	}

	cmd.AddCommand(listCmd)
	return cmd
}

func reconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [wallet-id]",
		Short: "Check wallet balances against the ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(opts)

			if len(args) == 1 {
				var resp dto.ReconciliationResponse
				if err := client.do(cmd.Context(), http.MethodGet, "/api/v1/reconciliation/wallets/"+url.PathEscape(args[0]), nil, &resp); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			}

			var report dto.ReconciliationReportResponse
			if err := client.do(cmd.Context(), http.MethodGet, "/api/v1/reconciliation/", nil, &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wallets checked: %d\nReconciled:      %d\n", report.TotalWallets, report.ReconciledWallets)
			if len(report.Discrepancies) == 0 {
				fmt.Fprintln(out, "Reconciliation PASSED")
				return nil
			}
			for _, d := range report.Discrepancies {
				fmt.Fprintf(out, "  %s recorded=%s calculated=%s diff=%s\n", d.WalletID, d.RecordedBalance, d.CalculatedBalance, d.Difference)
			}
			return fmt.Errorf("reconciliation FAILED: %d wallet(s) out of balance", len(report.Discrepancies))
		},
	}
}

func migrateCmd() *cobra.Command {
	var databaseURL, path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", envOr("MIGRATIONS_PATH", "migrations"), "Migrations directory")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postgres.RunMigrations(databaseURL, path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := postgres.RunMigrationsDown(databaseURL, path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := postgres.MigrationVersion(databaseURL, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		secret, userID, role string
		ttl                  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token for an actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(domain.Actor{UserID: userID, Role: domain.Role(role)})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	cmd.Flags().StringVar(&userID, "user", "", "Actor user ID")
	cmd.Flags().StringVar(&role, "user-role", string(domain.RoleUser), "Actor role: admin, user or system")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
