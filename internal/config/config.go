package config

import (
	"os"
	"strconv"
	"strings"

	"signal-forest/internal/logger"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	HTTPPort    int
	APIKey      string
	LogLevel    string

	MLEnabled         bool
	MLSymbol          string
	MLLookbackDays    int
	MLSignalThreshold float64
	MLLearner         string
	MLBags            int
	MLLeafSize        int
	MLMaxDepth        int
	MLClassifier      bool
	MLTrainFraction   float64
	MLSeed            uint64
	MLWorkers         int
	MLTrainHourUTC    int
	MLBaseline        bool

	SSHPort                int
	SSHHostKeyPath         string
	SSHAllowedFingerprints []string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		APIKey:      os.Getenv("API_KEY"),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
	}

	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("DATABASE_URL not set, candles and runs will not be persisted")
	}
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.APIKey == "" {
		logger.Warn().Msg("API_KEY not set, ML endpoints are unauthenticated")
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.HTTPPort = n
		}
	}

	cfg.MLEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("ML_ENABLED")), "true")

	cfg.MLSymbol = strings.ToUpper(strings.TrimSpace(os.Getenv("ML_SYMBOL")))
	if cfg.MLSymbol == "" {
		cfg.MLSymbol = "AAPL"
	}

	cfg.MLLookbackDays = 335
	if v := strings.TrimSpace(os.Getenv("ML_LOOKBACK_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MLLookbackDays = n
		}
	}

	cfg.MLSignalThreshold = 0.5
	if v := strings.TrimSpace(os.Getenv("ML_SIGNAL_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 {
			cfg.MLSignalThreshold = n
		}
	}

	cfg.MLLearner = strings.ToLower(strings.TrimSpace(os.Getenv("ML_LEARNER")))
	if cfg.MLLearner != "dt" && cfg.MLLearner != "rt" {
		if cfg.MLLearner != "" {
			logger.Warn().Str("ML_LEARNER", cfg.MLLearner).Msg("unsupported learner, defaulting to rt")
		}
		cfg.MLLearner = "rt"
	}

	cfg.MLBags = 50
	if v := strings.TrimSpace(os.Getenv("ML_BAGS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MLBags = n
		}
	}

	cfg.MLLeafSize = 1
	if v := strings.TrimSpace(os.Getenv("ML_LEAF_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.MLLeafSize = n
		}
	}

	cfg.MLMaxDepth = 5
	if v := strings.TrimSpace(os.Getenv("ML_MAX_DEPTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MLMaxDepth = n
		}
	}

	cfg.MLClassifier = true
	if v := strings.TrimSpace(os.Getenv("ML_CLASSIFIER")); v != "" {
		cfg.MLClassifier = strings.EqualFold(v, "true")
	}

	cfg.MLTrainFraction = 0.8
	if v := strings.TrimSpace(os.Getenv("ML_TRAIN_FRACTION")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.MLTrainFraction = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("ML_SEED")); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.MLSeed = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("ML_WORKERS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MLWorkers = n
		}
	}

	cfg.MLTrainHourUTC = 0
	if v := strings.TrimSpace(os.Getenv("ML_TRAIN_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.MLTrainHourUTC = n
		}
	}

	cfg.MLBaseline = true
	if v := strings.TrimSpace(os.Getenv("ML_BASELINE")); v != "" {
		cfg.MLBaseline = strings.EqualFold(v, "true")
	}

	cfg.SSHPort = 23234
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/forest_ed25519"
	}

	// Comma-separated SHA256:... fingerprints as printed by ssh-keygen -lf.
	for _, fp := range strings.Split(os.Getenv("SSH_ALLOWED_FINGERPRINTS"), ",") {
		if fp = strings.TrimSpace(fp); fp != "" {
			cfg.SSHAllowedFingerprints = append(cfg.SSHAllowedFingerprints, fp)
		}
	}

	return cfg
}
