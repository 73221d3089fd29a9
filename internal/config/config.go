package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Checkpoint backends.
const (
	BackendNone     = "none"
	BackendFile     = "file"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// Transfer sinks.
const (
	SinkNone     = "none"
	SinkJSONL    = "jsonl"
	SinkKafka    = "kafka"
	SinkPostgres = "postgres"
)

// InfluxConfig holds the optional InfluxDB reporter settings.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Enabled reports whether an InfluxDB URL is configured.
func (c InfluxConfig) Enabled() bool {
	return c.URL != ""
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL string
	Kind   string

	FromBlock           uint64
	ToBlock             uint64
	Addresses           []string
	Topic0              []string
	Signatures          []string
	JoinMode            string
	IncludeTransactions bool
	IncludeTraces       bool
	BlockFields         []string
	LogFields           []string
	TransactionFields   []string
	TraceFields         []string

	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
	MaxDuration  time.Duration
	MaxEvents    uint64

	CheckpointBackend string
	Checkpoint        string
	CheckpointName    string
	PGDSN             string

	Sink         string
	Out          string
	KafkaBrokers []string
	KafkaTopic   string

	Influx     InfluxConfig
	StatusAddr string
	TokenMeta  bool
	LogLevel   string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("kind", "transfers")
	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("checkpoint-backend", BackendNone)
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-name", "default")
	v.SetDefault("sink", SinkNone)
	v.SetDefault("out", "./data/transfers.jsonl")
	v.SetDefault("kafka-topic", "transfers")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:              v.GetString("rpc"),
		Kind:                strings.ToLower(strings.TrimSpace(v.GetString("kind"))),
		FromBlock:           v.GetUint64("from"),
		ToBlock:             v.GetUint64("to"),
		Addresses:           getStringSlice(v, "address"),
		Topic0:              getStringSlice(v, "topic0"),
		Signatures:          getSignatures(v, "signature"),
		JoinMode:            v.GetString("join-mode"),
		IncludeTransactions: v.GetBool("include-transactions"),
		IncludeTraces:       v.GetBool("include-traces"),
		BlockFields:         getStringSlice(v, "block-fields"),
		LogFields:           getStringSlice(v, "log-fields"),
		TransactionFields:   getStringSlice(v, "transaction-fields"),
		TraceFields:         getStringSlice(v, "trace-fields"),
		BatchSize:           v.GetUint64("batch-size"),
		MaxRetries:          v.GetInt("max-retries"),
		RetryBackoff:        v.GetDuration("retry-backoff"),
		MaxDuration:         v.GetDuration("max-duration"),
		MaxEvents:           v.GetUint64("max-events"),
		CheckpointBackend:   strings.ToLower(v.GetString("checkpoint-backend")),
		Checkpoint:          v.GetString("checkpoint"),
		CheckpointName:      v.GetString("checkpoint-name"),
		PGDSN:               v.GetString("pg-dsn"),
		Sink:                strings.ToLower(v.GetString("sink")),
		Out:                 v.GetString("out"),
		KafkaBrokers:        getStringSlice(v, "kafka-brokers"),
		KafkaTopic:          v.GetString("kafka-topic"),
		Influx: InfluxConfig{
			URL:    v.GetString("influx-url"),
			Token:  v.GetString("influx-token"),
			Org:    v.GetString("influx-org"),
			Bucket: v.GetString("influx-bucket"),
		},
		StatusAddr: v.GetString("status-addr"),
		TokenMeta:  v.GetBool("token-meta"),
		LogLevel:   v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks settings that do not depend on parsing addresses or
// signatures.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if c.ToBlock != 0 && c.ToBlock < c.FromBlock {
		return fmt.Errorf("to block %d is before from block %d", c.ToBlock, c.FromBlock)
	}

	switch c.CheckpointBackend {
	case BackendNone, "":
	case BackendFile, BackendBolt:
		if c.Checkpoint == "" {
			return fmt.Errorf("checkpoint path is required for %s backend", c.CheckpointBackend)
		}
	case BackendPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for postgres checkpoints")
		}
	default:
		return fmt.Errorf("unsupported checkpoint backend: %s", c.CheckpointBackend)
	}

	switch c.Sink {
	case SinkNone, "":
	case SinkJSONL:
		if c.Out == "" {
			return fmt.Errorf("output path is required for jsonl sink")
		}
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("kafka brokers and topic are required for kafka sink")
		}
	case SinkPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for postgres sink")
		}
	default:
		return fmt.Errorf("unsupported sink: %s", c.Sink)
	}

	if c.Influx.Enabled() && (c.Influx.Org == "" || c.Influx.Bucket == "") {
		return fmt.Errorf("influx org and bucket are required when influx-url is set")
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

// getSignatures reads event signatures. Signatures contain commas, so a
// single string value is split on ';' instead.
func getSignatures(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}
	switch typed := v.Get(key).(type) {
	case string:
		return cleanStrings(strings.Split(typed, ";"))
	case []string:
		return cleanStrings(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
