package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"argus/internal/adapters/ai"
	"argus/internal/adapters/config"
	"argus/internal/adapters/errors/noop"
	"argus/internal/adapters/errors/sentry"
	"argus/internal/regime"
	"argus/internal/registrar"
	"argus/internal/snapshot"
	"argus/internal/tools"
	"argus/internal/vendors"
	"argus/internal/workflow"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

func main() {
	symbol := flag.String("symbol", "", "ticker to research (required)")
	date := flag.String("date", time.Now().Format("2006-01-02"), "trade date, YYYY-MM-DD")
	flag.Parse()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: argus -symbol TICKER [-date YYYY-MM-DD]")
		os.Exit(2)
	}

	tradeDate, err := time.Parse("2006-01-02", *date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -date %q: %v\n", *date, err)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer flushCancel()
		_ = errorTracker.Flush(flushCtx)
	}()

	orch, err := buildPipeline(cfg)
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	result, err := orch.Run(ctx, strings.ToUpper(*symbol), tradeDate)
	if err != nil {
		log.Errorf("run ended in phase %s: %v", result.FinalPhase, err)
		os.Exit(1)
	}

	printReport(result, time.Since(started))
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}
	return tracker
}

// buildPipeline wires vendors, tools, agents and persistence into an
// orchestrator.
func buildPipeline(cfg *config.Config) (*workflow.Orchestrator, error) {
	runCfg, err := workflow.NewRunConfig(cfg.Workflow)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(buildAdapters(cfg.Vendors), cfg.Data)

	client, err := ai.NewClient(cfg.AI, cfg.AI.DefaultProvider)
	if err != nil {
		return nil, err
	}

	nodes, err := workflow.BuildNodes(cfg.AI, client, registry, runCfg.Analysts)
	if err != nil {
		return nil, err
	}

	store, err := snapshot.NewStore(cfg.Snapshot)
	if err != nil {
		return nil, err
	}

	acquirer := registrar.New(registry, registrar.Options{
		CallTimeout: cfg.Vendors.CallTimeout,
		Lookback:    time.Duration(cfg.Workflow.LookbackDays) * 24 * time.Hour,
	})

	detector := regime.NewDetector(regime.Policy{
		MinRows:         cfg.Regime.MinRows,
		HighVolatility:  cfg.Regime.HighVolatility,
		TrendThreshold:  cfg.Regime.TrendThreshold,
		HurstPersistent: cfg.Regime.HurstPersistent,
	})

	executor := tools.NewExecutor(registry)
	return workflow.NewOrchestrator(runCfg, acquirer, detector, executor, nodes, store), nil
}

// buildAdapters constructs every vendor adapter that has the credentials it
// needs. yfinance needs none and is always available.
func buildAdapters(cfg config.VendorConfig) []vendors.Adapter {
	opts := vendors.Options{
		Timeout:       cfg.CallTimeout,
		RatePerSecond: cfg.RatePerSecond,
		MaxRetries429: cfg.MaxRetries429,
	}

	adapters := []vendors.Adapter{vendors.NewYFinance(opts)}
	if cfg.FinnhubKey != "" {
		adapters = append(adapters, vendors.NewFinnhub(cfg.FinnhubKey, opts))
	}
	if cfg.AlphaVantageKey != "" {
		adapters = append(adapters, vendors.NewAlphaVantage(cfg.AlphaVantageKey, opts))
	}
	return adapters
}

func printReport(result *workflow.Result, elapsed time.Duration) {
	fmt.Printf("\n===== %s — %s =====\n", result.Symbol, result.TradeDate.Format("2006-01-02"))
	fmt.Printf("run id:   %s\n", result.RunID)
	fmt.Printf("decision: %s\n", result.Decision)
	if result.Regime != nil {
		fmt.Printf("regime:   %s\n", result.Regime.Describe())
	}
	fmt.Printf("elapsed:  %s\n", humanize.RelTime(time.Now().Add(-elapsed), time.Now(), "", ""))

	if result.InvestmentPlan != "" {
		fmt.Printf("\n--- investment plan ---\n%s\n", result.InvestmentPlan)
	}
	if result.TraderPlan != "" {
		fmt.Printf("\n--- trader plan ---\n%s\n", result.TraderPlan)
	}
	if result.FinalRationale != "" {
		fmt.Printf("\n--- risk committee ---\n%s\n", result.FinalRationale)
	}

	fmt.Printf("\n%d transcript turns recorded\n", len(result.Transcript))
	for _, turn := range result.Transcript {
		preview := turn.Content
		if len(preview) > 80 {
			preview = preview[:80] + "..."
		}
		fmt.Printf("  [%s] %s\n", turn.Speaker, preview)
	}
}
