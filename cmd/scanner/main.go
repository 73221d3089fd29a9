package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"transferScan/internal/decode"
)

func main() {
	root := &cobra.Command{
		Use:          "scanner",
		Short:        "Cursor-driven EVM log, transaction, trace and block scanner",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the chain and aggregate records until the tip or end block",
		RunE:  runScan,
	}

	flags := scanCmd.Flags()
	flags.String("rpc", "", "JSON-RPC URL")
	flags.String("kind", "transfers", "scan kind (transfers, transactions, traces, blocks)")
	flags.Uint64("from", 0, "start block (inclusive)")
	flags.Uint64("to", 0, "end block (inclusive), 0 means follow the tip")
	flags.StringSlice("address", nil, "contract addresses (comma-separated)")
	flags.StringSlice("topic0", nil, "topic0 hashes (comma-separated), derived from signatures when empty")
	flags.StringArray("signature", nil, "event signature to decode (repeatable)")
	flags.String("join-mode", "join_nothing", "join mode (join_nothing, join_all)")
	flags.Bool("include-transactions", false, "fetch transactions")
	flags.Bool("include-traces", false, "fetch traces (requires trace_block)")
	flags.StringSlice("block-fields", nil, "block fields to fetch")
	flags.StringSlice("log-fields", nil, "log fields to return, empty means all")
	flags.StringSlice("transaction-fields", nil, "transaction fields to return, empty means all")
	flags.StringSlice("trace-fields", nil, "trace fields to return, empty means all")
	flags.Uint64("batch-size", 2000, "blocks per page")
	flags.Int("max-retries", 5, "maximum retry attempts per page")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.Duration("max-duration", 0, "stop after this long, 0 means no limit")
	flags.Uint64("max-events", 0, "stop after this many primary records, 0 means no limit")
	flags.String("checkpoint-backend", "none", "checkpoint backend (none, file, bolt, postgres)")
	flags.String("checkpoint", "./data/checkpoint.json", "checkpoint file path for file and bolt backends")
	flags.String("checkpoint-name", "default", "checkpoint key for bolt and postgres backends")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("sink", "none", "transfer sink (none, jsonl, kafka, postgres)")
	flags.String("out", "./data/transfers.jsonl", "output JSONL path")
	flags.StringSlice("kafka-brokers", nil, "Kafka brokers (comma-separated)")
	flags.String("kafka-topic", "transfers", "Kafka topic")
	flags.String("influx-url", "", "InfluxDB URL, enables progress points")
	flags.String("influx-token", "", "InfluxDB token")
	flags.String("influx-org", "", "InfluxDB organization")
	flags.String("influx-bucket", "", "InfluxDB bucket")
	flags.String("status-addr", "", "listen address of the status endpoint, empty disables it")
	flags.Bool("token-meta", false, "load ERC20 metadata of a single configured address for the summary")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(scanCmd)

	signatureCmd := &cobra.Command{
		Use:   "signature [signature...]",
		Short: "Print the topic0 of event signatures",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSignature,
	}
	root.AddCommand(signatureCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSignature(cmd *cobra.Command, args []string) error {
	for _, sig := range args {
		topic, err := decode.Topic0(sig)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", topic.Hex(), sig)
	}
	return nil
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
