/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the revenue engine API server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file, REVENUE_* env, flags)
  2. Open the SQLite store (catalog, pricing configs, sweep runs)
  3. Optionally move bookings and daily stats to PostgreSQL or memory
  4. Create API handler and router
  5. Start the cancellation scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  --config              YAML/JSON config file
  --port                HTTP server port (default: 8080)
  --db-driver           sqlite | postgres | memory (default: sqlite)
  --db-path             SQLite database path (default: revenue.db)
                        Use ":memory:" for in-memory database
  --postgres-dsn        PostgreSQL connection string for bookings
  --scheduler           Run the cancellation scheduler (default: true)
  --scheduler-interval  Time between sweeps (default: 15m)
  --sweep-workers       Concurrent cancellations per sweep (default: 4)
  --scenario            Load a demo scenario at startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for an in-flight sweep)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connections

EXAMPLES:
  # Demo on an in-memory database
  ./server --db-path=":memory:" --scenario=demo-resort

  # Bookings in PostgreSQL, sweeping every 5 minutes
  REVENUE_POSTGRES_DSN=postgres://revenue@db/revenue ./server --db-driver=postgres --scheduler-interval=5m

SEE ALSO:
  - config/config.go: Keys and defaults
  - api/server.go: Router configuration
  - api/scheduler.go: Cancellation scheduler
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/warp/revenue-engine/api"
	"github.com/warp/revenue-engine/cancellation"
	"github.com/warp/revenue-engine/config"
	"github.com/warp/revenue-engine/generic/store"
	"github.com/warp/revenue-engine/pricing"
	"github.com/warp/revenue-engine/store/postgres"
	"github.com/warp/revenue-engine/store/sqlite"
)

var (
	cfgFile  string
	scenario string
	v        = viper.New()
)

var (
	_ api.BookingBackend = (*postgres.Store)(nil)
	_ api.BookingBackend = (*store.Memory)(nil)
)

var rootCmd = &cobra.Command{
	Use:   "revenue-server",
	Short: "Revenue management API: quotes, forecasts and auto-cancellation",
	Long: `revenue-server prices hotel stays with meal-plan matrices and dynamic
pricing, forecasts bookings and revenue from daily history, and cancels
unpaid pending bookings on a schedule.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")

	flags := rootCmd.Flags()
	flags.Int("port", 8080, "HTTP server port")
	flags.String("db-driver", "sqlite", "Booking store: sqlite, postgres or memory")
	flags.String("db-path", "revenue.db", "SQLite database path")
	flags.String("postgres-dsn", "", "PostgreSQL connection string")
	flags.Bool("scheduler", true, "Run the cancellation scheduler")
	flags.Duration("scheduler-interval", 15*time.Minute, "Time between cancellation sweeps")
	flags.Int("sweep-workers", cancellation.DefaultWorkers, "Concurrent cancellations per sweep")
	flags.StringSlice("allowed-origins", nil, "CORS allowed origins")
	flags.StringVar(&scenario, "scenario", "", "Load a demo scenario at startup (resets data)")

	for key, flag := range map[string]string{
		"port":               "port",
		"db_driver":          "db-driver",
		"db_path":            "db-path",
		"postgres_dsn":       "postgres-dsn",
		"scheduler_enabled":  "scheduler",
		"scheduler_interval": "scheduler-interval",
		"sweep_workers":      "sweep-workers",
		"allowed_origins":    "allowed-origins",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	ctx := context.Background()

	// Initialize store
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize handler
	handler := api.NewHandler(db)
	handler.Engine.Aggregator = pricing.Aggregator{
		TaxRate:        decimal.NewFromFloat(cfg.TaxRate),
		ServiceFeeRate: decimal.NewFromFloat(cfg.ServiceFeeRate),
	}
	handler.Sweeper.Workers = cfg.SweepWorkers
	handler.Sweeper.Policy = cancellation.Policy{
		PaymentTimeout:  cfg.PaymentTimeout,
		ExtendedTimeout: cfg.ExtendedTimeout,
	}

	switch cfg.DBDriver {
	case "postgres":
		pg, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer pg.Close()
		handler.UseBookingBackend(pg)
		log.Println("[Server] Bookings and daily stats in PostgreSQL")
	case "memory":
		handler.UseBookingBackend(store.NewMemory())
		log.Println("[Server] Bookings and daily stats in memory")
	}

	if scenario != "" {
		if err := handler.Preload(ctx, scenario); err != nil {
			return fmt.Errorf("failed to load scenario %s: %w", scenario, err)
		}
		log.Printf("[Server] Loaded scenario %s", scenario)
	}

	// Start the cancellation scheduler
	scheduler := api.NewCancellationScheduler(handler)
	scheduler.Interval = cfg.SchedulerInterval
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("[Server] Starting on http://localhost:%d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		scheduler.Stop()
		return fmt.Errorf("server failed: %w", err)
	}

	log.Println("[Server] Shutting down...")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("[Server] Stopped")
	return nil
}
