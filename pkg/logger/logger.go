package logger

import (
	"log"

	"go.uber.org/zap"
)

// New builds a zap logger for the given environment: human-readable
// development output for "local" and "development", JSON production
// output otherwise.
func New(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)

	switch env {
	case "local", "development":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %s", err)
	}

	return logger
}
