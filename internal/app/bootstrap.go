// Package app is the composition root. Bootstrap only wires; behaviour
// lives in the domain packages.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"mediadesk.io/courier/api"
	"mediadesk.io/courier/internal/api/handlers"
	"mediadesk.io/courier/internal/api/middleware"
	"mediadesk.io/courier/internal/app/modules"
	"mediadesk.io/courier/internal/config"
	"mediadesk.io/courier/internal/infrastructure"
	"mediadesk.io/courier/internal/jobs"
	"mediadesk.io/courier/internal/pkg/worker"
	"mediadesk.io/courier/internal/retention"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *infrastructure.DatabaseClients
	Pools   *worker.Pools
	Modules []modules.Module

	// Scanner is exposed for the one-shot retention command.
	Scanner *retention.Scanner
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	doc, err := api.Load()
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	validator, err := middleware.NewOpenAPIValidator(doc)
	if err != nil {
		return nil, err
	}

	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	notificationModule, err := modules.NewNotificationModule(infra)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init notification module: %w", err)
	}
	retentionModule, err := modules.NewRetentionModule(infra, notificationModule)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init retention module: %w", err)
	}
	allModules := []modules.Module{
		notificationModule,
		retentionModule,
		modules.NewGalleryModule(infra),
	}

	workers := jobs.Workers(modules.NewJobDeps(allModules))
	if err := infra.InitRiver(workers, jobs.PeriodicJobs(retentionModule.PeriodicOpts())); err != nil {
		infra.Close()
		return nil, fmt.Errorf("init river workers: %w", err)
	}

	server := handlers.NewServer(modules.NewServerDeps(infra, allModules))
	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSecret),
		Issuer:     cfg.Security.JWTIssuer,
	}

	return &Application{
		Config: cfg,
		Router: newRouter(RouterDeps{
			Config:    cfg,
			Server:    server,
			JWT:       jwtCfg,
			Validator: validator,
		}),
		DB:      infra.DB,
		Pools:   infra.Pools,
		Modules: allModules,
		Scanner: retentionModule.Scanner,
	}, nil
}
