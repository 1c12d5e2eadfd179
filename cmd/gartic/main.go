package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/park285/gartic-go/internal/common/bootstrap"
	garticapp "github.com/park285/gartic-go/internal/gartic/app"
	garticconfig "github.com/park285/gartic-go/internal/gartic/config"
)

func main() {
	logger := bootstrap.NewLogger()
	slog.SetDefault(logger)

	finalLogger, err := bootstrap.RunServiceEntrypoint(
		context.Background(),
		logger,
		"gartic.log",
		garticconfig.LoadFromEnv,
		func(cfg *garticconfig.Config) garticconfig.LogConfig { return cfg.Log },
		garticapp.Initialize,
	)
	if err != nil {
		logger = finalLogger
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
