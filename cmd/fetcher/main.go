package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolDataFetcher/internal/chain"
	"poolDataFetcher/internal/config"
	"poolDataFetcher/internal/fetcher"
)

func main() {
	root := &cobra.Command{
		Use:          "fetcher",
		Short:        "Uniswap V3 pool event fetcher",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("rpc", "", "Ethereum JSON-RPC URL")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("factory", "", "V3 factory address (default: Uniswap V3 mainnet)")
	root.PersistentFlags().Uint64("sample-blocks", 100, "recent blocks sampled for the average block time")
	root.PersistentFlags().Int("concurrency", 16, "maximum concurrent RPC reads per fan-out")
	root.PersistentFlags().Duration("call-timeout", 30*time.Second, "per RPC call timeout, 0 disables")
	root.PersistentFlags().Float64("rpc-rate-limit", 0, "RPC requests per second, 0 disables")
	root.PersistentFlags().Int("rpc-burst", 1, "RPC rate limiter burst")
	root.PersistentFlags().Int("max-retries", 0, "retries per failed RPC call")
	root.PersistentFlags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	root.PersistentFlags().Uint64("log-batch-size", 0, "blocks per eth_getLogs call, 0 queries the whole range at once")
	root.PersistentFlags().String("out", "", "append results to this JSONL file instead of printing JSON")

	blockRangeCmd := &cobra.Command{
		Use:   "block-range",
		Short: "Resolve a UTC datetime range to a block range",
		RunE:  runBlockRange,
	}
	blockRangeCmd.Flags().String("start", "", "start datetime, YYYY-MM-DD HH:MM:SS (UTC)")
	blockRangeCmd.Flags().String("end", "", "end datetime, YYYY-MM-DD HH:MM:SS (UTC)")
	root.AddCommand(blockRangeCmd)

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Fetch pool events for a block range",
		RunE:  runEvents,
	}
	eventsCmd.Flags().StringSlice("pool", nil, "pool addresses (comma-separated)")
	eventsCmd.Flags().StringSlice("pair", nil, "token pairs as token0:token1:fee (comma-separated)")
	eventsCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	eventsCmd.Flags().Uint64("to", 0, "end block (inclusive)")
	root.AddCommand(eventsCmd)

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch pool events for token pairs between two UTC datetimes",
		RunE:  runFetch,
	}
	fetchCmd.Flags().StringSlice("pair", nil, "token pairs as token0:token1:fee (comma-separated)")
	fetchCmd.Flags().String("start", "", "start datetime, YYYY-MM-DD HH:MM:SS (UTC)")
	fetchCmd.Flags().String("end", "", "end datetime, YYYY-MM-DD HH:MM:SS (UTC)")
	fetchCmd.Flags().String("interval", "", "sampling interval (accepted, not applied)")
	root.AddCommand(fetchCmd)

	poolsCreatedCmd := &cobra.Command{
		Use:   "pools-created",
		Short: "List pools created by the factory between two UTC datetimes",
		RunE:  runPoolsCreated,
	}
	poolsCreatedCmd.Flags().String("start", "", "start datetime, YYYY-MM-DD HH:MM:SS (UTC)")
	poolsCreatedCmd.Flags().String("end", "", "end datetime, YYYY-MM-DD HH:MM:SS (UTC)")
	root.AddCommand(poolsCreatedCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// session bundles what every command needs once config is loaded.
type session struct {
	cfg     config.Config
	logger  *zap.Logger
	service *fetcher.Service
	ctx     context.Context
	close   func()
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		_ = logger.Sync()
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{
		CallTimeout:  cfg.CallTimeout,
		RateLimit:    cfg.RPCRateLimit,
		RateBurst:    cfg.RPCBurst,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	if err != nil {
		stop()
		_ = logger.Sync()
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	service, err := fetcher.New(chainClient, fetcher.Options{
		Factory:      cfg.FactoryAddress(),
		SampleSize:   cfg.SampleBlocks,
		Concurrency:  cfg.Concurrency,
		LogBatchSize: cfg.LogBatchSize,
		Logger:       logger,
	})
	if err != nil {
		chainClient.Close()
		stop()
		_ = logger.Sync()
		return nil, err
	}

	return &session{
		cfg:     cfg,
		logger:  logger,
		service: service,
		ctx:     ctx,
		close: func() {
			chainClient.Close()
			stop()
			_ = logger.Sync()
		},
	}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
