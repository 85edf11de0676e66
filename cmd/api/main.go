package main

import (
	fxzerolog "github.com/efectn/fx-zerolog"
	"go.uber.org/fx"
	_ "go.uber.org/automaxprocs"

	"github.com/pipe199x/crypto-analytics/internal/application"
	"github.com/pipe199x/crypto-analytics/internal/bootstrap"
	"github.com/pipe199x/crypto-analytics/internal/database"
	"github.com/pipe199x/crypto-analytics/internal/module/crypto"
	"github.com/pipe199x/crypto-analytics/internal/module/scheduler"
	"github.com/pipe199x/crypto-analytics/internal/module/shared"
	"github.com/pipe199x/crypto-analytics/internal/router"
)

func main() {
	fx.New(
		/* provide patterns */
		// basic
		shared.NewSharedModule,
		scheduler.NewSchedulerModule,
		// application
		fx.Provide(application.NewApplication),
		// database
		fx.Provide(database.NewDatabase),
		// router
		fx.Provide(router.NewRouter),
		/* provide modules */
		crypto.NewCryptoModule,
		// start aplication
		fx.Invoke(bootstrap.Start),
		// define logger
		fx.WithLogger(fxzerolog.Init()),
		// invoke scheduler tasks
		fx.Invoke(func(s *scheduler.Scheduler) {
			go s.StartEtlProcess()
		}),
	).Run()
}
