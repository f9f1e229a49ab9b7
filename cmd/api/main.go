// @title                       Portfolio API
// @version                     1.0
// @description                 Accounts, email verification and portfolio showcase.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/folioapp/portfolio-api/docs"
	"github.com/folioapp/portfolio-api/internal/app"
	"github.com/folioapp/portfolio-api/internal/infrastructure/config"
	"github.com/folioapp/portfolio-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: cfg.AppName,
	})

	if err := run(ctx, cfg); err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("server stopped")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	return app.New(cfg, logger.Get()).Run(ctx)
}
