package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/filmx/internal/session"
	"github.com/desertthunder/filmx/internal/shared"
)

// configEnv overrides the default config path.
const configEnv = "FILMX_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv(configEnv)
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	shared.SetLogLevel(logger, config.LogLevel())

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "filmx",
		Usage:    "Sign in to the film catalogue and manage your session",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to release resources", "error", cerr)
	}
	if err == nil {
		return
	}

	switch {
	case session.IsAuthError(err):
		logger.Error(err.Error())
		os.Exit(1)
	case errors.Is(err, shared.ErrNotAuthenticated):
		logger.Warn(err.Error())
		os.Exit(1)
	default:
		logger.Fatalf("application error: %v", err)
	}
}
