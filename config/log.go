// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"strings"

	"github.com/gookit/slog"
)

// ConfigureLogging applies the level and format of cfg to the default
// gookit/slog logger. cfg is validated first.
func ConfigureLogging(cfg Config) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	slog.SetLogLevel(slog.LevelByName(strings.ToLower(cfg.LogLevel)))
	if strings.EqualFold(cfg.LogFormat, "json") {
		slog.SetFormatter(slog.NewJSONFormatter())
	} else {
		slog.SetFormatter(slog.NewTextFormatter())
	}
	return nil
}
