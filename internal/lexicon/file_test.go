package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

const overrideYAML = `
name: chennai-monsoon
categories:
  crisis:
    - phrase: waterlogging
    - phrase: cloudburst
  phrases:Flood:
    - pattern: 'flash\s+flood'
`

func TestLoadFile_OverlaysBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overrideYAML), 0o600))

	l, err := LoadFile(path, Default())
	require.NoError(t, err)

	assert.Equal(t, "chennai-monsoon", l.Name())
	assert.Equal(t, []string{"waterlogging", "cloudburst"}, Labels(l.Entries(CategoryCrisis)))
	// Untouched categories come from the base.
	assert.Equal(t, Default().Entries(CategoryUrgency), l.Entries(CategoryUrgency))

	m := MustCompile(l)
	assert.True(t, m.Any(CategoryCrisis, "sudden cloudburst over the hills"))
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"malformed":   "categories: [",
		"empty":       "name: x\n",
		"bad weight":  "categories:\n  c:\n    - phrase: a\n      weight: 1.5\n",
		"bad pattern": "categories:\n  c:\n    - pattern: '(open'\n",
		"empty entry": "categories:\n  c:\n    - weight: 0.2\n",
		"both set":    "categories:\n  c:\n    - phrase: a\n      pattern: b\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), nil)
			require.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestDump_RoundTrip(t *testing.T) {
	out, err := Dump(Default())
	require.NoError(t, err)
	assert.Contains(t, string(out), "name: default")

	l, err := Parse(out, nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Categories(), l.Categories())
	assert.Equal(t, Default().Entries(TypeCategory(domain.TypeFlood)), l.Entries(TypeCategory(domain.TypeFlood)))
}
