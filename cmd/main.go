package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"restaurant-ordering/cmd/bootstrap"
	"restaurant-ordering/internal/domain/kitchen"
	"restaurant-ordering/internal/domain/staff"
	"restaurant-ordering/internal/pkg/config"
	"restaurant-ordering/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func init() {
	// fail safe: never expose debug output on a misconfigured deploy
	gin.SetMode(gin.ReleaseMode)

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "restaurant-ordering",
		Short:        "Multi-tenant restaurant order finalization service",
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd(), stationsCmd(), staffTokenCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and kitchen display stream",
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve()
		},
	}
}

// @title           restaurant-ordering
// @version         1.0
// @description     Order finalization: line-item resolution, GST, coupons and kitchen ticket routing.

// @BasePath  /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func startServer(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			gin.EnableJsonDecoderDisallowUnknownFields()
			listenAddr := ":" + cfg.Server.Port
			logger.Info("starting server", "address", listenAddr, "mode", gin.Mode(), "store", cfg.Store.Driver)
			go func() {
				if err := engine.Run(listenAddr); err != nil {
					logger.Error("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("stopping server")
			return nil
		},
	})
}

func serve() error {
	app := fx.New(
		bootstrap.Module,
		fx.Provide(
			func() *gin.Engine {
				return gin.New()
			},
		),
		fx.Invoke(
			startServer,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		return fmt.Errorf("start application: %w", err)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("application did not stop cleanly", "error", err)
	}

	slog.Info("application stopped")
	return nil
}

func stationsCmd() *cobra.Command {
	var tablePath string

	cmd := &cobra.Command{
		Use:   "stations",
		Short: "Inspect the kitchen station table",
	}
	cmd.PersistentFlags().StringVar(&tablePath, "table", "", "Station table YAML (defaults to the embedded table)")

	cmd.AddCommand(&cobra.Command{
		Use:   "classify CATEGORY...",
		Short: "Print the station each category name routes to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := kitchen.LoadTable(tablePath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range args {
				fmt.Fprintf(out, "%s\t%s\n", name, table.Classify(name))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the station keywords",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := kitchen.LoadTable(tablePath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version %s\n", table.Version())
			for _, st := range []kitchen.Station{kitchen.StationBar, kitchen.StationCold, kitchen.StationHot} {
				fmt.Fprintf(out, "%s\t%s\n", st, strings.Join(table.Keywords(st), ", "))
			}
			return nil
		},
	})

	return cmd
}

func staffTokenCmd() *cobra.Command {
	var (
		staffID  string
		tenantID string
		role     string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "staff-token",
		Short: "Issue a staff bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			principal, err := staff.NewPrincipal(staffID, tenantID, role)
			if err != nil {
				return err
			}
			token, err := jwt.NewService(secret, duration).GenerateToken(principal)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&staffID, "staff", "", "Staff member id")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant id")
	cmd.Flags().StringVar(&role, "role", string(staff.RoleWaiter), "kitchen, waiter or manager")
	cmd.Flags().DurationVar(&duration, "ttl", 12*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("staff")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
