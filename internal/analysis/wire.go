package analysis

import (
	"log/slog"

	"github.com/couchcryptid/crisislens-service/internal/adapter/gemini"
	"github.com/couchcryptid/crisislens-service/internal/adapter/mapbox"
	"github.com/couchcryptid/crisislens-service/internal/adapter/neural"
	"github.com/couchcryptid/crisislens-service/internal/config"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
	"github.com/couchcryptid/crisislens-service/internal/observability"
)

// LoadLexicon returns the built-in lexicon, overlaid with cfg.LexiconPath when set.
func LoadLexicon(cfg *config.Config) (*lexicon.Lexicon, error) {
	if cfg.LexiconPath == "" {
		return lexicon.Default(), nil
	}
	return lexicon.LoadFile(cfg.LexiconPath, lexicon.Default())
}

// NewCollaborators constructs the external services enabled in cfg. Disabled
// services stay nil so their stages run deterministically.
func NewCollaborators(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) Collaborators {
	var c Collaborators

	if cfg.NeuralEndpoint != "" {
		c.Neural = neural.NewClient(cfg.NeuralEndpoint, cfg.NeuralTimeout, metrics, logger)
		logger.Info("neural crisis scorer enabled", "endpoint", cfg.NeuralEndpoint, "timeout", cfg.NeuralTimeout)
	} else {
		logger.Info("neural crisis scorer disabled, keyword detection only")
	}

	if cfg.GeminiEnabled {
		c.Generator = gemini.NewClient(gemini.Config{
			APIKey:        cfg.GeminiAPIKey,
			Model:         cfg.GeminiModel,
			FallbackModel: cfg.GeminiFallbackModel,
		}, metrics, logger)
		logger.Info("gemini explanations enabled", "model", cfg.GeminiModel, "fallback_model", cfg.GeminiFallbackModel)
	} else {
		logger.Info("gemini explanations disabled, using templates")
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger,
			mapbox.WithCountry(cfg.MapboxCountry),
			mapbox.WithMinRelevance(cfg.MapboxMinRelevance),
		)
		c.Geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics,
			mapbox.WithNegativeTTL(cfg.MapboxNegativeTTL))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled",
			"cache_size", cfg.MapboxCacheSize,
			"timeout", cfg.MapboxTimeout,
			"country", cfg.MapboxCountry,
		)
	} else {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("mapbox geocoding disabled")
	}

	return c
}
