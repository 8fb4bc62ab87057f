// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3console.
//
// go-s3console is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-s3console/pkg/adapters"
)

// Watch reloads the config file when it changes on disk and hands the new
// configuration to onChange. Invalid edits are logged and ignored. Watch
// does nothing when no config file was read.
func Watch(v *viper.Viper, logger adapters.Logger, onChange func(*Config)) bool {
	if v.ConfigFileUsed() == "" {
		return false
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		handleChange(v, logger, e, onChange)
	})
	v.WatchConfig()
	return true
}

func handleChange(v *viper.Viper, logger adapters.Logger, e fsnotify.Event, onChange func(*Config)) {
	ctx := context.Background()
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	cfg, err := Load(v)
	if err != nil {
		logger.Warn(ctx, "Ignoring invalid config change",
			adapters.Field{Key: "file", Value: e.Name},
			adapters.Err(err))
		return
	}
	logger.Info(ctx, "Config file changed", adapters.Field{Key: "file", Value: e.Name})
	if onChange != nil {
		onChange(cfg)
	}
}

// ApplyLogLevel sets the logger level from a config value. Unknown levels
// leave the logger unchanged and return the parse error.
func ApplyLogLevel(logger adapters.Logger, level string) error {
	lvl, err := adapters.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}
