package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forexbt/internal/config"
	"forexbt/internal/dataset"
	"forexbt/internal/optimize"
	"forexbt/internal/prepare"
	"forexbt/internal/source"
	"forexbt/internal/store"
	"forexbt/internal/strategy"
	"forexbt/internal/strategy/builtins"
	"forexbt/internal/study"
	"forexbt/internal/util"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: forexbt <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  prepare    Fetch raw ticks, run the studies, persist enriched data\n")
	fmt.Fprintf(os.Stderr, "  optimize   Load the dataset and backtest every configuration\n")
	fmt.Fprintf(os.Stderr, "  version    Print the version\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "version":
		fmt.Printf("forexbt %s\n", version)

	case "prepare":
		if err := runPrepare(ctx, os.Args[2:]); err != nil {
			log.Fatalf("prepare failed: %v", err)
		}

	case "optimize":
		if err := runOptimize(ctx, os.Args[2:]); err != nil {
			log.Fatalf("optimize failed: %v", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

// loadConfig parses the shared -config flag and loads the configuration.
func loadConfig(name string, args []string) (*config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "config/forexbt.yaml", "path to the YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return config.Load(*cfgPath)
}

// openStore constructs the configured feature-store backend.
func openStore(cfg *config.Config) (store.FeatureStore, func() error, error) {
	switch cfg.Storage.Backend {
	case "parquet":
		return store.NewParquetStore(cfg.Storage.DataDir), func() error { return nil }, nil
	case "sqlite", "":
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// defaultStudies registers the indicator set the built-in strategies and
// the shipped option grids reference.
func defaultStudies() *study.Registry {
	r := study.NewRegistry()
	r.Register(study.NewSMA(13, "sma13"))
	r.Register(study.NewEMA(50, "ema50"))
	r.Register(study.NewEMA(100, "ema100"))
	r.Register(study.NewEMA(200, "ema200"))
	r.Register(study.NewRSI(14, "rsi"))
	r.Register(study.NewStochastic(14, 3, "stochastic"))
	r.Register(study.NewPRChannel(100, 2, 2, "prChannel"))
	return r
}

func runPrepare(ctx context.Context, args []string) error {
	cfg, err := loadConfig("prepare", args)
	if err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	start, err := time.Parse("2006-01-02", cfg.Optimizer.StartDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", cfg.Optimizer.StartDate, err)
	}
	end, err := time.Parse("2006-01-02", cfg.Optimizer.EndDate)
	if err != nil {
		return fmt.Errorf("parsing end date %q: %w", cfg.Optimizer.EndDate, err)
	}

	featureStore, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	src := source.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	ticks, err := src.MinuteTicks(ctx, cfg.Optimizer.Symbol, start, end)
	if err != nil {
		return err
	}
	source.TagGroups(ticks, cfg.Optimizer.GroupCount)

	preparer := prepare.New(featureStore, defaultStudies(), cfg.Optimizer.Symbol, logger)
	if err := preparer.Process(ctx, ticks); err != nil {
		return err
	}
	if err := preparer.Flush(ctx); err != nil {
		return err
	}

	logger.Info("prepare complete", "symbol", cfg.Optimizer.Symbol, "ticks", len(ticks))
	return nil
}

func runOptimize(ctx context.Context, args []string) error {
	cfg, err := loadConfig("optimize", args)
	if err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	featureStore, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ds, err := dataset.NewLoader(featureStore, logger).Load(ctx, cfg.Optimizer.Symbol)
	if err != nil {
		return err
	}

	configurations, err := optimize.BuildConfigurations(cfg.OptionGrid(), ds.Index())
	if err != nil {
		return err
	}
	logger.Info("configurations built", "count", len(configurations))

	strategies := strategy.NewRegistry()
	builtins.Register(strategies)
	factory, err := strategies.Get(cfg.Optimizer.Strategy)
	if err != nil {
		return err
	}

	_, err = optimize.New(ds, logger).Run(
		ctx,
		factory,
		cfg.Optimizer.Symbol,
		cfg.Optimizer.Group,
		configurations,
		cfg.Optimizer.Investment,
		cfg.Optimizer.Profitability,
	)
	return err
}
