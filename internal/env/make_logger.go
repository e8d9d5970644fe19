package env

import (
	"os"

	zap "go.uber.org/zap"
)

func MakeLogger() (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	logConfig.Level = logLevel()
	logConfig.Encoding = "json"

	return logConfig.Build()
}

func logLevel() zap.AtomicLevel {
	level := zap.NewAtomicLevel()

	if err := level.UnmarshalText([]byte(os.Getenv("RCONAPI_LOG_LEVEL"))); err != nil {
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return level
}
