// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"strings"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.Network != "mainnet" && cfg.Network != "testnet" {
		return ErrInvalidNetwork
	}

	if cfg.FeeRate == 0 {
		return ErrInvalidFeeRate
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	return nil
}

// Mainnet reports whether addresses should carry the mainnet prefix.
func (c Config) Mainnet() bool {
	return c.Network != "testnet"
}
