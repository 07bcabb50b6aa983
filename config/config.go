// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/gookit/slog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. STAS_FEE_RATE=100.
const EnvPrefix = "STAS"

// Config holds the transaction-building and logging settings.
type Config struct {
	// Network is "mainnet" or "testnet". It selects the prefix of the fee
	// template address and the fallback RPC endpoint. Destination addresses
	// of either network are accepted.
	Network string `mapstructure:"network" yaml:"network"`

	// FeeRate is the miner fee rate in satoshis per 1000 bytes.
	FeeRate uint64 `mapstructure:"fee_rate" yaml:"fee_rate"`

	// SignatureAllowance is added to each fee estimate to cover signature
	// size variance between the template and the final transaction.
	SignatureAllowance uint64 `mapstructure:"signature_allowance" yaml:"signature_allowance"`

	// ZeroChangeThreshold is the largest surplus a zero-change build may
	// leave to the miner.
	ZeroChangeThreshold uint64 `mapstructure:"zero_change_threshold" yaml:"zero_change_threshold"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Node JSON-RPC endpoint used to fetch prior transactions and broadcast.
	// Testnet falls back to a local node when RPCURL is empty.
	RPCURL      string `mapstructure:"rpc_url" yaml:"rpc_url"`
	RPCUser     string `mapstructure:"rpc_user" yaml:"rpc_user"`
	RPCPassword string `mapstructure:"rpc_password" yaml:"rpc_password"`

	// TxCachePath is a bbolt file holding raw transactions fetched from or
	// broadcast to the node. Empty disables the cache.
	TxCachePath string `mapstructure:"tx_cache_path" yaml:"tx_cache_path"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Network:             "mainnet",
		FeeRate:             50,
		SignatureAllowance:  30,
		ZeroChangeThreshold: 10,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// LoadConfig builds a Config from defaults, an optional file and STAS_*
// environment variables, in increasing order of precedence. An empty path
// skips the file. Supported file formats are YAML and JSON.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	defaults := make(map[string]any)
	if err := mapstructure.Decode(cfg, &defaults); err != nil {
		return cfg, fmt.Errorf("config: setting defaults: %w", err)
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return cfg, ErrConfigNotFound
		}
		switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
		case "yaml", "yml", "json":
		default:
			return cfg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("%w: %w", ErrMalformedConfig, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrMalformedConfig, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	m := make(map[string]any)
	if err := mapstructure.Decode(cfg, &m); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	slog.Debugf("config written to %s", path)
	return nil
}
