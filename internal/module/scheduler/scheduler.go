package scheduler

import (
	"context"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/pipe199x/crypto-analytics/internal/module/crypto/service"
	"github.com/pipe199x/crypto-analytics/internal/module/shared"
)

const etlLockKey = "etl:run:lock"

// Scheduler drives the periodic ETL cycle inside the API process. Each tick is
// fenced with a Redis lock so overlapping cycles (including ones on other
// replicas) are mutually excluded.
type Scheduler struct {
	EtlService  service.EtlService
	redisClient *shared.RedisClient
	config      *koanf.Koanf
	Logger      zerolog.Logger
}

func NewScheduler(etlService service.EtlService, redisClient *shared.RedisClient, cfg *koanf.Koanf, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		EtlService:  etlService,
		redisClient: redisClient,
		config:      cfg,
		Logger:      logger,
	}
}

func (s *Scheduler) StartEtlProcess() {
	if !s.config.Bool("etl.enable") {
		s.Logger.Info().Msg("ETL scheduling is disabled")
		return
	}

	assets := s.config.Strings("etl.assets")
	interval := s.config.Duration("etl.interval")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if !s.redisClient.AcquireLock(etlLockKey, 5*time.Minute) {
			s.Logger.Debug().Msg("Skipping ETL cycle, a previous run is still in flight")
			continue
		}

		s.Logger.Info().Msg("Starting scheduled ETL process")
		s.EtlService.Run(context.Background(), assets)
		s.Logger.Info().Msg("Scheduled ETL process completed")

		s.redisClient.ReleaseLock(etlLockKey)
	}
}
