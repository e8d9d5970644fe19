package env

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Region      string        `env:"RCONAPI_REGION"`
	DebugHTTP   bool          `env:"RCONAPI_DEBUG_HTTP"`
	DialTimeout time.Duration `env:"RCONAPI_DIAL_TIMEOUT"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			panic(err)
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
