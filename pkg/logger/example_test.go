package logger_test

import (
	"errors"

	"github.com/wonny/qmomentum/pkg/config"
	"github.com/wonny/qmomentum/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Screening started")
	log.Warnf("%d symbols below minimum history", 3)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(&config.Config{Env: "production", LogLevel: "info", LogFormat: "json"})

	log.WithStage("S4").WithFields(map[string]interface{}{
		"scored": 480,
		"passed": 37,
	}).Info("S4 completed")

	log.WithField("symbol", "RELIANCE").
		WithError(errors.New("no bar on 2024-03-28")).
		Warn("Position marked stale")
}
