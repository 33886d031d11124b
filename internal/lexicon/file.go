package lexicon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

// document is the on-disk lexicon format.
//
//	name: chennai-monsoon
//	categories:
//	  crisis:
//	    - phrase: waterlogging
//	  type:Flood:
//	    - phrase: submerged
//	      weight: 0.3
//	  phrases:Flood:
//	    - pattern: 'heavy\s+rain'
type document struct {
	Name       string             `yaml:"name"`
	Categories map[string][]Entry `yaml:"categories"`
}

// LoadFile reads a YAML lexicon from path and overlays its categories on
// base. Categories present in the file replace the base category entirely.
// The result is compiled before it is returned so bad patterns fail at load.
func LoadFile(path string, base *Lexicon) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %v: %w", path, err, domain.ErrConfiguration)
	}
	return Parse(data, base)
}

// Parse decodes a YAML lexicon document and overlays it on base.
func Parse(data []byte, base *Lexicon) (*Lexicon, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode lexicon: %v: %w", err, domain.ErrConfiguration)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("lexicon has no categories: %w", domain.ErrConfiguration)
	}
	for name, entries := range doc.Categories {
		for _, e := range entries {
			if e.Weight < 0 || e.Weight > 1 {
				return nil, fmt.Errorf("category %q entry %q: weight %v outside [0,1]: %w",
					name, e.Label(), e.Weight, domain.ErrConfiguration)
			}
		}
	}

	name := doc.Name
	if name == "" {
		name = "custom"
	}
	var l *Lexicon
	if base != nil {
		l = base.With(name, doc.Categories)
	} else {
		l = New(name, doc.Categories)
	}
	if _, err := Compile(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Dump encodes l as a YAML lexicon document.
func Dump(l *Lexicon) ([]byte, error) {
	doc := document{Name: l.name, Categories: make(map[string][]Entry, len(l.categories))}
	for k, v := range l.categories {
		doc.Categories[k] = v
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode lexicon: %w", err)
	}
	return out, nil
}
