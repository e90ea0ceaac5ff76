// Package main provides taxsyncctl, the admin CLI for the tax sync engine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"taxsync/internal/app"
	"taxsync/internal/config"
	"taxsync/internal/logger"
	"taxsync/internal/service"
	"taxsync/internal/taxapi"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "taxsyncctl",
		Short:         "Operate the taxsync engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env", "configs/.env", "dotenv file to load")

	withApp := func(fn func(ctx context.Context, a *app.App, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(config.WithEnvFile(envFile))
			if err != nil {
				return err
			}
			zlog, err := logger.New(logger.Config{Level: "warn", Stage: cfg.AppEnv})
			if err != nil {
				return err
			}
			defer func() { _ = zlog.Sync() }()

			a, err := app.New(cfg, zlog)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			return fn(ctx, a, cmd.OutOrStdout())
		}
	}

	cmd.AddCommand(
		retriesCmd(withApp),
		backfillCmd(withApp),
		codesCmd(withApp),
		versionCmd(withApp),
		verifyAddressCmd(withApp),
	)
	return cmd
}

type appRunner func(fn func(ctx context.Context, a *app.App, out io.Writer) error) func(*cobra.Command, []string) error

func retriesCmd(withApp appRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retries",
		Short: "Inspect and run scheduled retries",
	}

	var (
		status string
		page   int
		limit  int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List scheduled retries",
		RunE: withApp(func(ctx context.Context, a *app.App, out io.Writer) error {
			res, err := a.Scheduler.List(ctx, status, page, limit)
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}
	list.Flags().StringVar(&status, "status", "", "PENDING, DONE or CANCELLED")
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&limit, "limit", 20, "items per page")

	run := &cobra.Command{
		Use:   "run",
		Short: "Fire every retry that is due now",
		RunE: withApp(func(ctx context.Context, a *app.App, out io.Writer) error {
			summary, err := a.Runner.RunDue(ctx)
			if err != nil {
				return err
			}
			return printJSON(out, summary)
		}),
	}

	cmd.AddCommand(list, run)
	return cmd
}

func backfillCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Schedule filing of completed orders from the last 13 months",
		RunE: withApp(func(ctx context.Context, a *app.App, out io.Writer) error {
			n, err := a.Scheduler.ScheduleBulkBackfill(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "scheduled %d orders\n", n)
			return err
		}),
	}
}

func codesCmd(withApp appRunner) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "List item tax codes",
		RunE: withApp(func(ctx context.Context, a *app.App, out io.Writer) error {
			res, err := a.TaxCodes.List(ctx, refresh)
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached list")
	return cmd
}

func versionCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the remote tax service version",
		RunE: withApp(func(ctx context.Context, a *app.App, out io.Writer) error {
			v, err := a.TaxCodes.Version(ctx)
			if err != nil {
				return err
			}
			return printJSON(out, v)
		}),
	}
}

func verifyAddressCmd(withApp appRunner) *cobra.Command {
	var addr taxapi.Address
	cmd := &cobra.Command{
		Use:   "verify-address",
		Short: "Normalize an address with the tax service",
		RunE: withApp(func(ctx context.Context, a *app.App, out io.Writer) error {
			if addr.Country == "US" && !service.IsUSPostcode(addr.PostalCode) {
				a.Log.Warn("zip does not look like a US postcode", zap.String("zip", addr.PostalCode))
			}
			res, err := a.TaxCodes.VerifyAddress(ctx, addr)
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}
	cmd.Flags().StringVar(&addr.Street1, "street", "", "street line")
	cmd.Flags().StringVar(&addr.City, "city", "", "city")
	cmd.Flags().StringVar(&addr.Region, "state", "", "state or region")
	cmd.Flags().StringVar(&addr.PostalCode, "zip", "", "postal code")
	cmd.Flags().StringVar(&addr.Country, "country", "US", "country")
	_ = cmd.MarkFlagRequired("zip")
	return cmd
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
