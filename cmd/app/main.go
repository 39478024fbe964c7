package main

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/omniores3/pythonGroupTools/config"
	"github.com/omniores3/pythonGroupTools/internal/app"
	"github.com/omniores3/pythonGroupTools/internal/usecase"
)

func main() {
	fx.New(
		app.CreateApp(),
		fx.Invoke(run),
	).Run()
}

func run(
	lc fx.Lifecycle,
	cfg *config.Config,
	runner *usecase.TaskRunner,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info().
				Str("service", cfg.Service.Name).
				Str("port", cfg.Service.Port).
				Msg("Starting collector service")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Shutting down collector service...")

			// Stop live executions before infrastructure goes away
			runner.StopAll(ctx)

			logger.Info().Msg("Collector service stopped")
			return nil
		},
	})
}
