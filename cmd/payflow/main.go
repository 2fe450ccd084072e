package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"tenantpay/internal/api"
	"tenantpay/internal/auth"
	"tenantpay/internal/config"
	"tenantpay/internal/fees"
	"tenantpay/internal/health"
	"tenantpay/internal/monitoring"
	"tenantpay/internal/payments"
	"tenantpay/internal/store"

	"github.com/spf13/cobra"
)

var (
	diagnostics bool
	rootCmd     *cobra.Command
)

// engine bundles the wired payment flow for the CLI commands
type engine struct {
	cfg       *config.Config
	store     store.Store
	backend   api.Client
	initiator *payments.Initiator
	poller    *payments.Poller
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "payflow",
		Short: "payflow - rent payment flow driver",
		Long: `payflow drives the tenantpay payment engine from a terminal:
initiate a rent payment against the rental backend, follow its gateway
status, and inspect the local payment history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&diagnostics, "diagnostics", false, "Start the local diagnostics server")

	rootCmd.AddCommand(newPayCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newFeesCmd())
	rootCmd.AddCommand(newReceiptCmd())
}

// buildEngine wires config, store, backend client and the payment flow.
// Redis is preferred for state; the in-memory store is the fallback so
// the tool still works without one.
func buildEngine() *engine {
	cfg := config.Load()

	var tokens auth.TokenSource
	if cfg.Auth.TokenFile != "" {
		tokens = auth.FileTokenSource(cfg.Auth.TokenFile)
	} else {
		tokens = auth.EnvTokenSource(cfg.Auth.TokenEnv)
	}

	backend := api.NewClient(
		cfg.Backend.BaseURL,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second,
		tokens,
	)

	var st store.Store
	redisClient, err := store.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
	if err != nil {
		log.Printf("[Main] Redis unavailable (%v), using in-memory store", err)
		st = store.NewMemoryStore(cfg.Payment.HistoryLimit)
	} else {
		st = store.NewRedisStore(redisClient, cfg.Payment.HistoryLimit)
	}

	tiers := make([]fees.Tier, 0, len(cfg.Payment.FeeTiers))
	for _, t := range cfg.Payment.FeeTiers {
		tiers = append(tiers, fees.Tier{UpTo: t.UpTo, Percent: t.Percent})
	}
	calculator := fees.NewCalculator(tiers)

	manager := auth.NewManager(tokens, backend)
	initiator := payments.NewInitiator(manager, backend, st, calculator, payments.SystemLauncher{})

	pollOpts := []payments.PollerOption{
		payments.WithInterval(time.Duration(cfg.Payment.PollIntervalSeconds) * time.Second),
		payments.WithMaxAttempts(cfg.Payment.PollMaxAttempts),
	}

	if diagnostics || cfg.Monitoring.Enabled {
		checker := health.NewHealthChecker(cfg.Backend.BaseURL, redisClient)
		ms := monitoring.NewMonitoringServer(st, checker, cfg.Monitoring.Port, cfg.Monitoring.CorsAllowedOrigins)
		ms.Start()
		pollOpts = append(pollOpts, payments.WithNotifier(ms))
	}

	poller := payments.NewPoller(backend, st, st, pollOpts...)

	return &engine{
		cfg:       cfg,
		store:     st,
		backend:   backend,
		initiator: initiator,
		poller:    poller,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
