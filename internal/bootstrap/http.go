package bootstrap

import (
	"context"
	"flag"
	"os"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/pipe199x/crypto-analytics/internal/application"
	"github.com/pipe199x/crypto-analytics/internal/database"
	"github.com/pipe199x/crypto-analytics/internal/module/shared"
	"github.com/pipe199x/crypto-analytics/internal/router"
)

// function to start webserver
func Start(
	lifecycle fx.Lifecycle,
	cfg *koanf.Koanf,
	log zerolog.Logger,
	app *application.Application,
	router *router.Router,
	database *database.Database,
	redis *shared.RedisClient,
) {
	lifecycle.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				router.Register()

				log.Info().Msg(app.AppName + " is running at the moment!")

				if !cfg.Bool("app.production") {
					log.Debug().Msgf("Hostname: %s", app.Hostname)
					log.Debug().Msgf("Port: %s", app.Port)
					log.Debug().Msgf("PID: %d", os.Getpid())
				}

				go func() {
					if err := app.Run(); err != nil {
						log.Error().Err(err).Msg("An unknown error occurred when to run server!")
					}
				}()

				database.ConnectDatabase()

				migrate := flag.Bool("migrate", false, "migrate the database")
				flag.Parse()

				// read flag -migrate to migrate the database
				if *migrate {
					database.MigrateModels()
				}

				redis.Connect()
				log.Info().Msg("Connected the Redis succesfully!")

				return nil
			},
			OnStop: func(ctx context.Context) error {
				log.Info().Msg("Running cleanup tasks...")

				log.Info().Msg("1- Shutdown the Server")
				if err := app.Shutdown(); err != nil {
					log.Error().Err(err).Msg("An unknown error occurred when to shutdown server!")
				}

				log.Info().Msg("2- Shutdown the Database")
				database.ShutdownDatabase()

				log.Info().Msg("3- Shutdown the Redis")
				if redis != nil {
					redis.Close()
				}

				log.Info().Msgf("%s was successful shutdown.", app.AppName)

				return nil
			},
		},
	)
}
