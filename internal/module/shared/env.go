package shared

import (
	"github.com/joho/godotenv"
)

// LoadEnv merges a local .env file into the process environment before the
// koanf env provider runs. A missing file is fine in production.
func LoadEnv() (struct{}, error) {
	_ = godotenv.Load()
	return struct{}{}, nil
}
