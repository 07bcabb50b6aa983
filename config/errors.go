// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\" or \"testnet\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrInvalidLogFormat indicates the log format is not recognized.
	ErrInvalidLogFormat = errors.New("config: invalid log format (must be \"text\" or \"json\")")

	// ErrInvalidFeeRate indicates a zero fee rate.
	ErrInvalidFeeRate = errors.New("config: fee rate must be greater than zero")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrUnsupportedFormat indicates the file extension is not yaml, yml or json.
	ErrUnsupportedFormat = errors.New("config: unsupported configuration format")

	// ErrMalformedConfig indicates the configuration file could not be parsed.
	ErrMalformedConfig = errors.New("config: malformed configuration")
)
