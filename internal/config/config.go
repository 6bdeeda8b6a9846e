package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Data resources: local file paths or http(s) URLs.
	DatasetPath   string
	DistrictsPath string
	GeometryPath  string
	FetchTimeout  time.Duration

	CacheSize          int
	ThresholdStrategy  domain.ThresholdStrategy
	CORSAllowedOrigins []string

	// PDF fact sheet rendering via headless Chrome.
	PDFEnabled bool
	PDFTimeout time.Duration

	// Optional publication of region snapshots after load.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	pdfTimeout, err := parsePositiveDuration("PDF_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	strategy, err := domain.ParseThresholdStrategy(sharedcfg.EnvOrDefault("THRESHOLD_STRATEGY", string(domain.StrategyProportional)))
	if err != nil {
		return nil, errors.New("invalid THRESHOLD_STRATEGY")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetPath:   sharedcfg.EnvOrDefault("DATASET_PATH", "data/disasters.csv"),
		DistrictsPath: os.Getenv("DISTRICTS_PATH"),
		GeometryPath:  os.Getenv("GEOMETRY_PATH"),
		FetchTimeout:  fetchTimeout,

		CacheSize:          parseCacheSize(),
		ThresholdStrategy:  strategy,
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		PDFEnabled: os.Getenv("PDF_ENABLED") == "true",
		PDFTimeout: pdfTimeout,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       splitList(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "disaster-funding-snapshots"),
	}

	if cfg.DatasetPath == "" {
		return nil, errors.New("DATASET_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
