package shared

import (
	"os"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// initialize logger
func NewLogger(cfg *koanf.Koanf) zerolog.Logger {
	zerolog.TimeFieldFormat = cfg.String("logger.time-format")

	if cfg.Bool("logger.prettier") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	zerolog.SetGlobalLevel(zerolog.Level(int8(cfg.Int("logger.level"))))

	return log.Logger
}
