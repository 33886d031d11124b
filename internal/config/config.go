package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/scoring"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration
	StreamEnabled    bool

	BatchSize          int
	BatchFlushInterval time.Duration
	BatchConcurrency   int

	// Scoring configuration.
	DetectionThreshold float64
	TypeThreshold      float64
	MinTextWords       int
	MaxTextLength      int
	FocusCity          string
	LexiconPath        string
	PriorityWeights    scoring.PriorityWeights
	PriorityThresholds domain.PriorityThresholds

	// Neural crisis scorer. An empty endpoint means keyword-only detection.
	NeuralEndpoint string
	NeuralTimeout  time.Duration

	// Gemini explanation generator.
	GeminiAPIKey        string
	GeminiEnabled       bool
	GeminiModel         string
	GeminiFallbackModel string
	GeminiTimeout       time.Duration

	// Mapbox geocoding configuration.
	MapboxToken        string
	MapboxEnabled      bool
	MapboxTimeout      time.Duration
	MapboxCacheSize    int
	MapboxNegativeTTL  time.Duration
	MapboxCountry      string
	MapboxMinRelevance float64
}

// Load reads configuration from environment variables, applying defaults where unset.
// Every validation failure wraps domain.ErrConfiguration.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return cfg, nil
}

func load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	p := parser{}
	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-crisis-reports"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "analyzed-crisis-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "crisislens"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		StreamEnabled:      p.boolean("STREAM_ENABLED", true),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		BatchConcurrency:   p.positiveInt("BATCH_CONCURRENCY", 8),

		DetectionThreshold: p.unitFloat("CRISIS_DETECTION_THRESHOLD", 0.5),
		TypeThreshold:      p.unitFloat("TYPE_CLASSIFICATION_THRESHOLD", 0.3),
		MinTextWords:       p.positiveInt("MIN_TEXT_WORDS", 5),
		MaxTextLength:      p.positiveInt("MAX_TEXT_LENGTH", 50000),
		FocusCity:          sharedcfg.EnvOrDefault("FOCUS_CITY", "Chennai"),
		LexiconPath:        os.Getenv("LEXICON_PATH"),
		PriorityWeights: scoring.PriorityWeights{
			Crisis:      p.unitFloat("PRIORITY_WEIGHT_CRISIS", 0.35),
			Severity:    p.unitFloat("PRIORITY_WEIGHT_SEVERITY", 0.30),
			Credibility: p.unitFloat("PRIORITY_WEIGHT_CREDIBILITY", 0.15),
			Regional:    p.unitFloat("PRIORITY_WEIGHT_REGIONAL", 0.20),
		},
		PriorityThresholds: domain.PriorityThresholds{
			Low:      p.unitFloat("PRIORITY_THRESHOLD_LOW", 0.3),
			Medium:   p.unitFloat("PRIORITY_THRESHOLD_MEDIUM", 0.6),
			High:     p.unitFloat("PRIORITY_THRESHOLD_HIGH", 0.8),
			Critical: p.unitFloat("PRIORITY_THRESHOLD_CRITICAL", 0.9),
		},

		NeuralEndpoint: os.Getenv("NEURAL_ENDPOINT"),
		NeuralTimeout:  p.duration("NEURAL_TIMEOUT", 3*time.Second),

		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiFallbackModel: sharedcfg.EnvOrDefault("GEMINI_FALLBACK_MODEL", "gemini-1.5-flash"),
		GeminiTimeout:       p.duration("GEMINI_TIMEOUT", 10*time.Second),

		MapboxToken:        os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:      p.duration("MAPBOX_TIMEOUT", 5*time.Second),
		MapboxCacheSize:    p.positiveInt("MAPBOX_CACHE_SIZE", 1000),
		MapboxNegativeTTL:  p.duration("MAPBOX_NEGATIVE_TTL", 10*time.Minute),
		MapboxCountry:      sharedcfg.EnvOrDefault("MAPBOX_COUNTRY", "in"),
		MapboxMinRelevance: p.unitFloat("MAPBOX_MIN_RELEVANCE", 0.5),
	}
	cfg.GeminiEnabled = p.boolean("GEMINI_ENABLED", cfg.GeminiAPIKey != "")
	cfg.MapboxEnabled = p.boolean("MAPBOX_ENABLED", cfg.MapboxToken != "")

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return fmt.Errorf("KAFKA_SOURCE_TOPIC is required")
	}
	if c.KafkaSinkTopic == "" {
		return fmt.Errorf("KAFKA_SINK_TOPIC is required")
	}
	t := c.PriorityThresholds
	if !(t.Low < t.Medium && t.Medium < t.High && t.High < t.Critical) {
		return fmt.Errorf("PRIORITY_THRESHOLD_* must be strictly ascending, got %.2f/%.2f/%.2f/%.2f",
			t.Low, t.Medium, t.High, t.Critical)
	}
	if err := c.PriorityWeights.Validate(); err != nil {
		return err
	}
	if c.GeminiEnabled && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_ENABLED is true but GEMINI_API_KEY is not set")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return fmt.Errorf("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

// parser reads typed env vars and keeps the first error.
type parser struct {
	err error
}

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
}

func (p *parser) unitFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1 {
		p.fail("invalid %s %q: must be a number in [0,1]", key, s)
		return def
	}
	return v
}

func (p *parser) positiveInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		p.fail("invalid %s %q: must be a positive integer", key, s)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := time.ParseDuration(s)
	if err != nil || v <= 0 {
		p.fail("invalid %s %q: must be a positive duration", key, s)
		return def
	}
	return v
}

func (p *parser) boolean(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		p.fail("invalid %s %q: must be a boolean", key, s)
		return def
	}
	return v
}
