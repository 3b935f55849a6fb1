package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/neomorfeo/assetiq/internal/adapter/otel"
	"github.com/neomorfeo/assetiq/internal/config"
	"github.com/neomorfeo/assetiq/internal/domain"

	handler "github.com/neomorfeo/assetiq/internal/adapter/http"
)

// cli carries the configuration loaded once by the root command.
type cli struct {
	v      *viper.Viper
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:   "assetiq",
		Short: "Asset decomposition service",
		Long: `assetiq plans and executes the decomposition of retired assets into
spare parts, consolidating every extracted item into the tenant's catalog.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.v)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			c.cfg, c.logger = cfg, logger
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "YAML config file (env CONFIG_FILE)")
	root.PersistentFlags().String("database", "", "SQLite database path (env DATABASE_PATH)")
	_ = c.v.BindPFlag("config_file", root.PersistentFlags().Lookup("config"))
	_ = c.v.BindPFlag("database_path", root.PersistentFlags().Lookup("database"))

	root.AddCommand(c.serveCmd(), c.migrateCmd(), c.plansCmd(), c.tokenCmd())
	return root
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and deliver queued events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			providers, err := otel.Setup(ctx, c.cfg.Telemetry())
			if err != nil {
				return fmt.Errorf("otel setup: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := providers.Shutdown(shutdownCtx); err != nil {
					c.logger.Error("otel shutdown", "error", err)
				}
			}()

			return run(ctx, c.cfg, c.logger)
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply application and queue migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), c.cfg, nil, c.logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", c.cfg.DatabasePath)
			return nil
		},
	}
}

// operator is the principal CLI commands act as. Without a tenant it may
// reach every tenant.
func operator(tenantID string) domain.Principal {
	if tenantID != "" {
		return domain.Principal{Subject: "cli", TenantID: tenantID}
	}
	return domain.Principal{Subject: "cli", Capabilities: []domain.Capability{domain.CapabilityCrossTenant}}
}

func (c *cli) plansCmd() *cobra.Command {
	plans := &cobra.Command{Use: "plans", Short: "Inspect and execute decomposition plans"}
	plans.AddCommand(c.plansListCmd(), c.plansExecuteCmd())
	return plans
}

func (c *cli) plansListCmd() *cobra.Command {
	var (
		tenant string
		status string
		filter domain.RequestFilter
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List decomposition plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				s, err := domain.ParseRequestStatus(status)
				if err != nil {
					return err
				}
				filter.Status = &s
			}
			filter.TenantID = tenant

			rt, err := openRuntime(cmd.Context(), c.cfg, nil, c.logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			requests, err := rt.svc.ListPlans(cmd.Context(), operator(tenant), filter)
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"ID", "Number", "Status", "Tenant", "Asset", "Created"})
			for _, r := range requests {
				tw.AppendRow(table.Row{r.ID, r.Number, r.Status, r.TenantID, r.AssetID, r.CreatedAt.Format(time.RFC3339)})
			}
			tw.AppendFooter(table.Row{"", "", "", "", "Total", len(requests)})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (all tenants when empty)")
	cmd.Flags().StringVar(&status, "status", "", "PENDING or COMPLETED")
	cmd.Flags().StringVar(&filter.AssetID, "asset", "", "asset id")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum plans to list")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "plans to skip")
	return cmd
}

func (c *cli) plansExecuteCmd() *cobra.Command {
	var tenant string
	cmd := &cobra.Command{
		Use:   "execute <request-id>",
		Short: "Execute a pending plan",
		Long: `Execute a pending plan: consolidate its items into the catalog and retire
the asset. Events are queued and delivered by the next "serve" process.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), c.cfg, nil, c.logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.svc.ExecutePlan(cmd.Context(), operator(tenant), args[0])
			if err != nil {
				return fmt.Errorf("executing %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s: asset %s is now %s\n",
				result.Request.Number, result.Request.Status, result.Asset.Code, result.Asset.Status)

			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			tw.AppendHeader(table.Row{"Item", "Match", "Part", "Code", "Stock", "Unit price"})
			for _, item := range result.Items {
				tw.AppendRow(table.Row{
					item.Component.Name,
					item.Match,
					item.Part.ID,
					item.Part.Code,
					item.Part.Stock,
					item.Part.UnitPrice.StringFixed(2),
				})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "act as this tenant instead of cross-tenant")
	return cmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		subject      string
		tenant       string
		capabilities []string
		ttl          time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.JWTSecret == "" {
				return errors.New("token: JWT_SECRET is not configured")
			}
			p := domain.Principal{Subject: subject, TenantID: tenant}
			for _, name := range capabilities {
				capability, err := domain.ParseCapability(name)
				if err != nil {
					return err
				}
				p.Capabilities = append(p.Capabilities, capability)
			}

			token, err := handler.IssueToken(c.cfg.JWTSecret, p, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id claim")
	cmd.Flags().StringSliceVar(&capabilities, "capability", nil, "capability claim (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
