package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// LoggerConfig controls how the application logger is built.
type LoggerConfig struct {
	// Log format (text/json)
	Format string
	// Output stream (os.Stdout, a file, etc.)
	Output *os.File
	// Enable colored console output
	EnableColors bool
	// Minimum level, defaults to info
	Level string
}

// InitLogger builds and returns the application logger.
func InitLogger(config ...LoggerConfig) *logrus.Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	logger := logrus.New()

	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	logger.SetOutput(cfg.Output)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   cfg.EnableColors,
			FullTimestamp: true,
		})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
