package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Prefix is prepended to every variable name, e.g. CURRENCY_LOG_LEVEL.
const Prefix = "CURRENCY"

// Load reads the first .env file found among envFilePath (searched upwards
// from the working directory) and then the process environment.
func Load(envFilePath ...string) (*App, error) {
	logger := zap.L()

	if len(envFilePath) == 0 {
		envFilePath = []string{".env"}
	}
	for _, path := range envFilePath {
		foundPath, err := FindEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", zap.String("path", path))
			continue
		}
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", zap.String("path", foundPath), zap.Error(err))
			continue
		}
		logger.Info("Loaded environment from file", zap.String("path", foundPath))
		break
	}
	return loadFromEnv(logger)
}

func loadFromEnv(logger *zap.Logger) (*App, error) {
	var cfg App
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}

	logger.Info("App config loaded",
		zap.String("env", cfg.Env),
		zap.String("exchange_api_url", cfg.Exchange.ApiUrl),
		zap.String("base_currency", cfg.Exchange.BaseCurrency),
		zap.Duration("freshness_window", cfg.Exchange.FreshnessWindow),
		zap.Int("requests_per_minute", cfg.Exchange.RequestsPerMinute),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("storage_dsn", maskValue(cfg.StorageDSN())),
		zap.Duration("scheduler_interval", cfg.Scheduler.Interval),
	)
	return &cfg, nil
}

// FindEnvFile searches for filename in the working directory and its parents.
func FindEnvFile(filename string) (string, error) {
	if filename == "" {
		filename = ".env"
	}
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err != nil {
			return "", err
		}
		return filename, nil
	}
	curr, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(curr, filename)
		if _, err = os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(curr)
		if parent == curr {
			break
		}
		curr = parent
	}
	return "", os.ErrNotExist
}

func maskValue(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
