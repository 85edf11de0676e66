package shared

import (
	"log"

	"github.com/glebarez/sqlite"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pipe199x/crypto-analytics/internal/database"
)

// SetupTestDB opens an in-memory sqlite database and migrates the schema.
// Good enough for repository tests; production always runs on Postgres.
func SetupTestDB() *database.Database {
	logger := zerolog.New(nil).With().Timestamp().Logger()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Panicf("failed to open in-memory database: %v", err)
	}

	dbInstance := &database.Database{
		DB:  conn,
		Log: logger,
	}
	dbInstance.MigrateModels()
	return dbInstance
}

func SetupTestCfg(overrides map[string]interface{}) *koanf.Koanf {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		log.Panicf("error loading configuration: %v", err)
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			log.Panicf("error loading configuration overrides: %v", err)
		}
	}
	return k
}
