package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pathfinder/internal/shared"
)

// Setup creates the config file when missing and initializes the configured storage backend.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		if err := shared.ApplyEnv(config, ""); err != nil {
			return err
		}
		r.config = config
		r.writePlain("✓ Created %s\n", configPath)
	}

	r.logger.Info("initializing storage", "driver", r.config.Storage.Driver)
	if err := r.connect(ctx); err != nil {
		return err
	}

	r.logger.Infof("setup complete for storage: %v", r.storageLabel())
	return r.writePlain("✓ Storage ready (%s)\n", r.storageLabel())
}

func (r *Runner) storageLabel() string {
	s := r.config.Storage
	if s.Driver == "redis" {
		return "redis " + s.RedisAddr
	}
	return "sqlite " + s.Path
}
