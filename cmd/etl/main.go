package main

import (
	"context"
	"flag"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/pipe199x/crypto-analytics/internal/database"
	"github.com/pipe199x/crypto-analytics/internal/module/crypto/repository"
	"github.com/pipe199x/crypto-analytics/internal/module/crypto/service"
	"github.com/pipe199x/crypto-analytics/internal/module/shared"
)

// Standalone ETL runner: one batch by default, or a fixed-interval loop with
// -continuous. The API process has its own Redis-fenced scheduler; this
// command talks to the store directly.
func main() {
	continuous := flag.Bool("continuous", false, "run the ETL cycle at a fixed interval instead of once")
	migrate := flag.Bool("migrate", false, "migrate the database before running")
	flag.Parse()

	shared.LoadEnv()
	cfg := shared.NewKoanfInstance()
	logger := shared.NewLogger(cfg)

	db := database.NewDatabase(cfg, logger)
	db.ConnectDatabase()
	defer db.ShutdownDatabase()
	if *migrate {
		db.MigrateModels()
	}

	cryptoRepository := repository.NewCryptoRepository(db, logger, nil)
	coinGeckoService := service.NewCoinGeckoService(cfg, logger)
	etlService := service.NewEtlService(cfg, logger, coinGeckoService, cryptoRepository)

	assets := cfg.Strings("etl.assets")
	ctx := context.Background()

	if !*continuous {
		logger.Info().Msg("Starting one-time ETL process for cryptocurrency data...")
		etlService.Run(ctx, assets)
		logger.Info().Msg("One-time ETL process completed.")
		return
	}

	interval := cfg.Duration("etl.interval")
	logger.Info().Msgf("Starting continuous update process, interval %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		logger.Info().Msg("Starting scheduled ETL process")
		etlService.Run(ctx, assets)
		logger.Info().Msg("Scheduled ETL process completed")
	}
}
