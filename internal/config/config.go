package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Day file source. DataBaseURL takes precedence over DataDir when set.
	DataDir          string
	DataBaseURL      string
	SourceTimeout    time.Duration
	SourceCacheSize  int
	FetchConcurrency int

	// Catalog window, from CATALOG_FILE or the built-in default.
	CatalogFile  string
	CatalogStart time.Time
	CatalogEnd   time.Time

	SpeedLimitKmh float64
	ProductName   string

	// Chart capture through headless Chrome. Disabled when ChartBaseURL is empty.
	ChartBaseURL string
	ChartTimeout time.Duration

	// Dataset summary publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := parseDuration("SOURCE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	chartTimeout, err := parseDuration("CHART_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("SOURCE_CACHE_SIZE", 128)
	if err != nil {
		return nil, err
	}
	concurrency, err := parsePositiveInt("FETCH_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	speedLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("SPEED_LIMIT_KMH", "80"), 64)
	if err != nil || speedLimit <= 0 {
		return nil, errors.New("invalid SPEED_LIMIT_KMH")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir:          sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		DataBaseURL:      os.Getenv("DATA_BASE_URL"),
		SourceTimeout:    sourceTimeout,
		SourceCacheSize:  cacheSize,
		FetchConcurrency: concurrency,

		CatalogFile:  os.Getenv("CATALOG_FILE"),
		CatalogStart: DefaultCatalogStart,
		CatalogEnd:   DefaultCatalogEnd,

		SpeedLimitKmh: speedLimit,
		ProductName:   sharedcfg.EnvOrDefault("PRODUCT_NAME", "IRIS Mobility"),

		ChartBaseURL: os.Getenv("CHART_BASE_URL"),
		ChartTimeout: chartTimeout,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "traffic-dataset-summaries"),
	}

	if cfg.CatalogFile != "" {
		w, err := LoadCatalogWindow(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		cfg.CatalogStart, cfg.CatalogEnd = w.Start.Time, w.End.Time
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
