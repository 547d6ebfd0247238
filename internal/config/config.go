package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rostermatch/internal"
	"rostermatch/internal/similarity"
)

type Config struct {
	OutputDir string
	LogLevel  string

	MatchThreshold    float64
	MatchAlgorithm    string
	MatchWorkers      int
	MatchDebugSamples int

	HTTPPort          string
	MaxUploadMB       int
	RequestTimeoutSec int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		MatchThreshold:    getEnvFloat("MATCH_THRESHOLD", 80),
		MatchAlgorithm:    getEnv("MATCH_ALGORITHM", string(similarity.Default)),
		MatchWorkers:      getEnvInt("MATCH_WORKERS", 1),
		MatchDebugSamples: getEnvInt("MATCH_DEBUG_SAMPLES", 5),

		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		MaxUploadMB:       getEnvInt("MAX_UPLOAD_MB", 16),
		RequestTimeoutSec: getEnvInt("REQUEST_TIMEOUT_SEC", 120),
	}

	if cfg.MatchWorkers < 1 {
		cfg.MatchWorkers = 1
	}
	if _, ok := similarity.ParseAlgorithm(cfg.MatchAlgorithm); !ok {
		return cfg, fmt.Errorf("unknown MATCH_ALGORITHM %q (want one of %s)", cfg.MatchAlgorithm, strings.Join(similarity.Names(), ", "))
	}
	return cfg, nil
}

// DefaultOptions returns the comparison options implied by the environment.
func (c Config) DefaultOptions() internal.Options {
	return internal.Options{
		Threshold: c.MatchThreshold,
		Algorithm: c.MatchAlgorithm,
	}
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required setting: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
