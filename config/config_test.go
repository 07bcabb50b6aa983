// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Network", cfg.Network, "mainnet"},
		{"FeeRate", cfg.FeeRate, uint64(50)},
		{"SignatureAllowance", cfg.SignatureAllowance, uint64(30)},
		{"ZeroChangeThreshold", cfg.ZeroChangeThreshold, uint64(10)},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "text"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if !cfg.Mainnet() {
		t.Error("default config should target mainnet")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := Config{
		Network:             "testnet",
		FeeRate:             500,
		SignatureAllowance:  40,
		ZeroChangeThreshold: 5,
		LogLevel:            "debug",
		LogFormat:           "json",
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded != original {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

// ---------------------------------------------------------------------------
// LoadConfig tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	if err := os.WriteFile(path, []byte("network = testnet\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("LoadConfig ini: got %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("network: [unclosed\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrMalformedConfig) {
		t.Errorf("LoadConfig bad yaml: got %v, want ErrMalformedConfig", err)
	}
}

func TestLoadConfigPartialJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"network":"testnet","fee_rate":75}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Network != "testnet" {
		t.Errorf("Network = %q, want %q", cfg.Network, "testnet")
	}
	if cfg.FeeRate != 75 {
		t.Errorf("FeeRate = %d, want 75", cfg.FeeRate)
	}
	// Unset fields should retain defaults.
	if cfg.SignatureAllowance != 30 {
		t.Errorf("SignatureAllowance = %d, want default 30", cfg.SignatureAllowance)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("STAS_FEE_RATE", "100")
	t.Setenv("STAS_LOG_LEVEL", "warn")
	t.Setenv("STAS_RPC_URL", "http://node:8332")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.FeeRate != 100 {
		t.Errorf("FeeRate = %d, want 100", cfg.FeeRate)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.RPCURL != "http://node:8332" {
		t.Errorf("RPCURL = %q, want %q", cfg.RPCURL, "http://node:8332")
	}
	if cfg.Network != "mainnet" {
		t.Errorf("Network = %q, want default %q", cfg.Network, "mainnet")
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"regtest network", func(c *Config) { c.Network = "regtest" }, ErrInvalidNetwork},
		{"empty network", func(c *Config) { c.Network = "" }, ErrInvalidNetwork},
		{"zero fee rate", func(c *Config) { c.FeeRate = 0 }, ErrInvalidFeeRate},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			if err := ValidateConfig(cfg); !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfigCaseInsensitiveLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "DEBUG"
	cfg.LogFormat = "JSON"
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig: %v", err)
	}
}

// ---------------------------------------------------------------------------
// ConfigureLogging tests
// ---------------------------------------------------------------------------

func TestConfigureLogging(t *testing.T) {
	cfg := DefaultConfig()
	t.Cleanup(func() { _ = ConfigureLogging(DefaultConfig()) })

	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"
	if err := ConfigureLogging(cfg); err != nil {
		t.Errorf("ConfigureLogging: %v", err)
	}

	cfg.LogLevel = "loud"
	if err := ConfigureLogging(cfg); !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("ConfigureLogging bad level: got %v, want ErrInvalidLogLevel", err)
	}
}
