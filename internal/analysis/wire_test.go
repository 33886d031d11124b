package analysis_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crisislens-service/internal/analysis"
	"github.com/couchcryptid/crisislens-service/internal/domain"
	"github.com/couchcryptid/crisislens-service/internal/lexicon"
	"github.com/couchcryptid/crisislens-service/internal/observability"
)

func TestLoadLexicon_Default(t *testing.T) {
	lex, err := analysis.LoadLexicon(testConfig())
	require.NoError(t, err)
	assert.Same(t, lexicon.Default(), lex)
}

func TestLoadLexicon_FileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: chennai-monsoon
categories:
  crisis:
    - phrase: waterlogging
`), 0o600))

	cfg := testConfig()
	cfg.LexiconPath = path
	lex, err := analysis.LoadLexicon(cfg)

	require.NoError(t, err)
	assert.Equal(t, "chennai-monsoon", lex.Name())
	assert.Equal(t, []string{"waterlogging"}, lexicon.Labels(lex.Entries(lexicon.CategoryCrisis)))
}

func TestLoadLexicon_MissingFile(t *testing.T) {
	cfg := testConfig()
	cfg.LexiconPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := analysis.LoadLexicon(cfg)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewCollaborators(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	none := analysis.NewCollaborators(testConfig(), observability.NewMetricsForTesting(), logger)
	assert.Nil(t, none.Neural)
	assert.Nil(t, none.Generator)
	assert.Nil(t, none.Geocoder)

	cfg := testConfig()
	cfg.NeuralEndpoint = "http://localhost:9000/predict"
	cfg.NeuralTimeout = time.Second
	cfg.GeminiEnabled = true
	cfg.GeminiAPIKey = "key"
	cfg.MapboxEnabled = true
	cfg.MapboxToken = "token"
	cfg.MapboxTimeout = time.Second
	cfg.MapboxCacheSize = 10

	all := analysis.NewCollaborators(cfg, observability.NewMetricsForTesting(), logger)
	assert.NotNil(t, all.Neural)
	assert.NotNil(t, all.Generator)
	assert.NotNil(t, all.Geocoder)
}
