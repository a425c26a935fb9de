package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"poolDataFetcher/internal/model"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL   string
	LogLevel string
	Factory  string

	SampleBlocks uint64
	Concurrency  int
	LogBatchSize uint64

	CallTimeout  time.Duration
	RPCRateLimit float64
	RPCBurst     int
	MaxRetries   int
	RetryBackoff time.Duration

	Out      string
	Pairs    []string
	Pools    []string
	From     uint64
	To       uint64
	Start    string
	End      string
	Interval string
}

// Load merges config file, environment variables, and flags into Config.
// Environment variables use the FETCHER_ prefix, e.g. FETCHER_RPC or
// FETCHER_SAMPLE_BLOCKS.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FETCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("sample-blocks", uint64(100))
	v.SetDefault("concurrency", 16)
	v.SetDefault("log-batch-size", uint64(0))
	v.SetDefault("call-timeout", 30*time.Second)
	v.SetDefault("rpc-rate-limit", 0.0)
	v.SetDefault("rpc-burst", 1)
	v.SetDefault("max-retries", 0)
	v.SetDefault("retry-backoff", 500*time.Millisecond)

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
		RPCURL:       v.GetString("rpc"),
		LogLevel:     v.GetString("log-level"),
		Factory:      v.GetString("factory"),
		SampleBlocks: v.GetUint64("sample-blocks"),
		Concurrency:  v.GetInt("concurrency"),
		LogBatchSize: v.GetUint64("log-batch-size"),
		CallTimeout:  v.GetDuration("call-timeout"),
		RPCRateLimit: v.GetFloat64("rpc-rate-limit"),
		RPCBurst:     v.GetInt("rpc-burst"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Out:          v.GetString("out"),
		Pairs:        getStringSlice(v, "pair"),
		Pools:        getStringSlice(v, "pool"),
		From:         v.GetUint64("from"),
		To:           v.GetUint64("to"),
		Start:        v.GetString("start"),
		End:          v.GetString("end"),
		Interval:     v.GetString("interval"),
	}

	return cfg, nil
}

// Validate checks the settings shared by every command.
func (c Config) Validate() error {
	if strings.TrimSpace(c.RPCURL) == "" {
		return fmt.Errorf("%w: rpc is required", model.ErrInvalidInput)
	}
	if c.SampleBlocks < 2 {
		return fmt.Errorf("%w: sample-blocks must be at least 2, got %d", model.ErrInvalidInput, c.SampleBlocks)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", model.ErrInvalidInput, c.Concurrency)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("%w: call-timeout must not be negative", model.ErrInvalidInput)
	}
	if c.RPCRateLimit < 0 {
		return fmt.Errorf("%w: rpc-rate-limit must not be negative", model.ErrInvalidInput)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max-retries must not be negative", model.ErrInvalidInput)
	}
	if c.Factory != "" && !common.IsHexAddress(c.Factory) {
		return fmt.Errorf("%w: invalid factory address: %s", model.ErrInvalidInput, c.Factory)
	}
	return nil
}

// FactoryAddress returns the configured factory, or the zero address when unset.
func (c Config) FactoryAddress() common.Address {
	if c.Factory == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Factory)
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
