// Package app assembles the HTTP engine shared by the server binary and the serverless entry.
package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cuportal/smallgroups-api/internal/config"
	"github.com/cuportal/smallgroups-api/internal/logging"
	"github.com/cuportal/smallgroups-api/pkg/auth"
	"github.com/cuportal/smallgroups-api/pkg/database"
	"github.com/cuportal/smallgroups-api/pkg/handlers"
)

// Build opens storage, seeds the admin account and returns a routed engine
func Build(cfg *config.Config) (*gin.Engine, *zap.Logger, error) {
	if err := cfg.Auth.Validate(); err != nil {
		return nil, nil, fmt.Errorf("app.config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("app.logging: %w", err)
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, logger, fmt.Errorf("app.database: %w", err)
	}

	authSvc := auth.NewService(cfg.Auth)
	created, err := authSvc.EnsureAdminExists(db, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		return nil, logger, fmt.Errorf("app.admin: %w", err)
	}
	if created {
		logger.Info("created admin account", zap.String("username", cfg.Auth.AdminUsername))
	}

	h := handlers.New(db, authSvc, logger, cfg.DefaultGroupSize)

	r := gin.New()
	r.Use(logging.Middleware(logger), logging.Recovery(logger))
	h.Routes(r)
	return r, logger, nil
}
