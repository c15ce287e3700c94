package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/cuportal/smallgroups-api/internal/app"
	"github.com/cuportal/smallgroups-api/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	r, logger, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("could not start: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("could not run server", zap.Error(err))
	}
}
