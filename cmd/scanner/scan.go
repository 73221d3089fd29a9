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

	"transferScan/internal/api"
	"transferScan/internal/chain"
	"transferScan/internal/checkpoint"
	"transferScan/internal/config"
	"transferScan/internal/decode"
	"transferScan/internal/fetch"
	"transferScan/internal/report"
	"transferScan/internal/scan"
	"transferScan/internal/storage"
	"transferScan/internal/storage/postgres"
)

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	plan, err := cfg.BuildPlan()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var decoder *decode.Decoder
	if plan.Kind == scan.KindTransfers {
		decoder, err = decode.NewDecoder(plan.Signatures...)
		if err != nil {
			return err
		}
	}

	var pg *postgres.Store
	if cfg.CheckpointBackend == config.BackendPostgres || cfg.Sink == config.SinkPostgres {
		pg, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	store, err := openCheckpoint(cfg, pg)
	if err != nil {
		return err
	}
	defer store.Close()

	sink, err := openSink(cfg, pg, logger)
	if err != nil {
		return err
	}
	if sink != nil {
		defer sink.Close()
	}

	reporter, cleanup, err := buildReporter(ctx, cfg, chainClient, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	fetcher := fetch.NewRetrying(
		fetch.NewRPCFetcher(chainClient, cfg.BatchSize, logger),
		cfg.MaxRetries,
		cfg.RetryBackoff,
		logger,
	)

	stops := []scan.StopCondition{scan.ContextDone(ctx)}
	if cfg.MaxDuration > 0 {
		stops = append(stops, scan.MaxDuration(cfg.MaxDuration))
	}
	if cfg.MaxEvents > 0 {
		stops = append(stops, scan.MaxRecords(plan.Kind, cfg.MaxEvents))
	}

	logger.Info("scanner start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("kind", string(plan.Kind)),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("addresses", len(cfg.Addresses)),
		zap.Strings("signatures", plan.Signatures),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("checkpoint_backend", cfg.CheckpointBackend),
		zap.String("sink", cfg.Sink),
	)

	runner := scan.NewRunner(scan.Config{
		Kind:       plan.Kind,
		Query:      plan.Query,
		Fetcher:    fetcher,
		Decoder:    decoder,
		Reporter:   reporter,
		Checkpoint: store,
		Sink:       sink,
		Stops:      stops,
		Logger:     logger,
	})

	_, err = runner.Run(ctx)
	return err
}

func openCheckpoint(cfg config.Config, pg *postgres.Store) (checkpoint.Store, error) {
	switch cfg.CheckpointBackend {
	case config.BackendFile:
		return checkpoint.NewFileStore(cfg.Checkpoint), nil
	case config.BackendBolt:
		store, err := checkpoint.NewBoltStore(cfg.Checkpoint, cfg.CheckpointName)
		if err != nil {
			return nil, fmt.Errorf("open bolt checkpoint: %w", err)
		}
		return store, nil
	case config.BackendPostgres:
		return &checkpoint.PostgresStore{Store: pg, Name: cfg.CheckpointName}, nil
	default:
		return checkpoint.Nop{}, nil
	}
}

func openSink(cfg config.Config, pg *postgres.Store, logger *zap.Logger) (storage.Sink, error) {
	switch cfg.Sink {
	case config.SinkJSONL:
		return storage.NewJsonlStorage(cfg.Out), nil
	case config.SinkKafka:
		sink, err := storage.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		return sink, nil
	case config.SinkPostgres:
		return postgres.TransferSink{Store: pg}, nil
	default:
		return nil, nil
	}
}

// buildReporter assembles the log reporter plus the optional InfluxDB and
// status reporters. The returned cleanup stops whatever was started.
func buildReporter(ctx context.Context, cfg config.Config, chainClient *chain.Client, logger *zap.Logger) (scan.Reporter, func(), error) {
	logReporter := report.NewLogReporter(logger)
	if cfg.TokenMeta {
		addresses, err := config.ParseAddresses(cfg.Addresses)
		if err != nil {
			return nil, nil, err
		}
		tokens := decode.NewTokenMetaCache()
		for _, address := range addresses {
			meta, err := tokens.LoadTokenMeta(ctx, chainClient, address, logger)
			if err != nil {
				logger.Warn("load token metadata failed", zap.String("token", address.Hex()), zap.Error(err))
				continue
			}
			if len(addresses) == 1 {
				logReporter.WithTokenMeta(meta)
			}
		}
		logReporter.WithTokens(tokens)
	}

	reporters := []scan.Reporter{logReporter}
	var cleanups []func()

	if cfg.Influx.Enabled() {
		influx := report.NewInfluxReporter(report.InfluxConfig{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		}, logger)
		reporters = append(reporters, influx)
		cleanups = append(cleanups, influx.Close)
	}

	if cfg.StatusAddr != "" {
		status := api.NewStatusReporter()
		server := api.NewServer(cfg.StatusAddr, status, logger)
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("status server failed", zap.Error(err))
			}
		}()
		reporters = append(reporters, status)
		cleanups = append(cleanups, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				logger.Warn("stop status server", zap.Error(err))
			}
		})
	}

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return report.Multi(reporters...), cleanup, nil
}
