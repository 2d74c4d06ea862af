package main

import (
	"context"

	"github.com/skif48/wellness-engine/app_config"
	"github.com/skif48/wellness-engine/game_config"
	"github.com/skif48/wellness-engine/games"
	"github.com/skif48/wellness-engine/graceful_shutdown"
	"github.com/skif48/wellness-engine/inits"
	"github.com/skif48/wellness-engine/logger"
	"github.com/skif48/wellness-engine/repositories"
	"github.com/skif48/wellness-engine/servers"
	"github.com/skif48/wellness-engine/services"
	"go.uber.org/fx"
)

// newAwarder picks where finished sessions send their XP.
func newAwarder(ac *app_config.AppConfig, grs *services.GameResultsService, ps *services.ProgressService) games.Awarder {
	if ac.AwardTransport == "direct" {
		return services.NewDirectAwarder(ps)
	}
	return grs
}

func main() {
	app := fx.New(
		fx.Provide(
			app_config.NewAppConfig,
			logger.InitLogger,
			game_config.NewGameConfig,
		),
		fx.Provide(
			inits.NewRedisClient,
			inits.NewScyllaSession,
			inits.NewPostgresPool,
			inits.NewKafkaWriter,
		),
		fx.Provide(
			repositories.NewUserProfileRepository,
			repositories.NewUserXpRepository,
			repositories.NewLeaderboardRepo,
			repositories.NewAuthTokenRepository,
			repositories.NewAwardLedger,
			repositories.NewCommunityRepository,
		),
		fx.Provide(
			services.NewProgressService,
			services.NewGameResultsService,
			newAwarder,
			services.NewSessionManager,
			services.NewLeaderboardService,
			services.NewAuthService,
			services.NewCommunityService,
			services.NewBackofficeService,
			servers.NewHttpHandler,
		),
		fx.WithLogger(logger.FxLogger),
		fx.Invoke(func(ac *app_config.AppConfig) {
			graceful_shutdown.SetDrain(ac.ShutdownDrain)
		}),
		fx.Invoke(servers.RunHttpServer, servers.RunKafkaConsumer),
	)

	if err := app.Err(); err != nil {
		panic(err)
	}

	if err := app.Start(context.Background()); err != nil {
		panic(err)
	}

	graceful_shutdown.WaitForSignals()
}
