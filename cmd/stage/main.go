// Package main is the entry point for the stage viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-stage/internal/config"
	"github.com/Faultbox/midgard-stage/internal/game"
	"github.com/Faultbox/midgard-stage/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, path, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Stage ===", zap.String("config", path))
	logger.Sugar.Debugf("Config: %+v", cfg)

	if config.SaveRequested() {
		saved, err := cfg.Save()
		if err != nil {
			logger.Warn("saving config", zap.Error(err))
		} else {
			logger.Info("config saved", zap.String("path", saved))
			if path == "" {
				path = saved
			}
		}
	}

	g, err := game.New(cfg, path, game.DemoScene())
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		os.Exit(1)
	}
	defer g.Close()

	if err := g.Run(); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("closed normally")
}
