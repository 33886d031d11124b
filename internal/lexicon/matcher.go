package lexicon

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

type pattern struct {
	entry Entry
	re    *regexp.Regexp
}

// Matcher holds the compiled patterns of one Lexicon. Safe for concurrent use.
type Matcher struct {
	lexicon    *Lexicon
	categories map[string][]pattern
}

type compiled struct {
	once    sync.Once
	matcher *Matcher
	err     error
}

var cache sync.Map // *Lexicon -> *compiled

// Compile returns the matcher for l, building it on first use. Concurrent
// first callers wait on the same build and receive the same result.
func Compile(l *Lexicon) (*Matcher, error) {
	v, _ := cache.LoadOrStore(l, &compiled{})
	c := v.(*compiled)
	c.once.Do(func() {
		c.matcher, c.err = build(l)
	})
	return c.matcher, c.err
}

// MustCompile is like Compile but panics on an invalid lexicon.
func MustCompile(l *Lexicon) *Matcher {
	m, err := Compile(l)
	if err != nil {
		panic(err)
	}
	return m
}

func build(l *Lexicon) (*Matcher, error) {
	m := &Matcher{lexicon: l, categories: make(map[string][]pattern, len(l.categories))}
	for name, entries := range l.categories {
		ps := make([]pattern, 0, len(entries))
		for _, e := range entries {
			re, err := compileEntry(e)
			if err != nil {
				return nil, fmt.Errorf("lexicon %q category %q: %w", l.name, name, err)
			}
			ps = append(ps, pattern{entry: e, re: re})
		}
		m.categories[name] = ps
	}
	return m, nil
}

func compileEntry(e Entry) (*regexp.Regexp, error) {
	switch {
	case e.Phrase != "" && e.Pattern != "":
		return nil, fmt.Errorf("entry %q sets both phrase and pattern: %w", e.Phrase, domain.ErrConfiguration)
	case e.Pattern != "":
		re, err := regexp.Compile(`(?i)` + e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %v: %w", e.Pattern, err, domain.ErrConfiguration)
		}
		return re, nil
	case strings.TrimSpace(e.Phrase) != "":
		words := strings.Fields(e.Phrase)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		return regexp.MustCompile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`), nil
	default:
		return nil, fmt.Errorf("empty entry: %w", domain.ErrConfiguration)
	}
}

// Lexicon returns the lexicon the matcher was built from.
func (m *Matcher) Lexicon() *Lexicon { return m.lexicon }

// Find returns the entries of category that occur in text, in lexicon order.
// Each entry appears at most once.
func (m *Matcher) Find(category, text string) []Entry {
	var found []Entry
	for _, p := range m.categories[category] {
		if p.re.MatchString(text) {
			found = append(found, p.entry)
		}
	}
	return found
}

// Count returns the number of distinct entries of category that occur in text.
func (m *Matcher) Count(category, text string) int {
	n := 0
	for _, p := range m.categories[category] {
		if p.re.MatchString(text) {
			n++
		}
	}
	return n
}

// First returns the first entry of category that occurs in text.
func (m *Matcher) First(category, text string) (Entry, bool) {
	for _, p := range m.categories[category] {
		if p.re.MatchString(text) {
			return p.entry, true
		}
	}
	return Entry{}, false
}

// Any reports whether any entry of category occurs in text.
func (m *Matcher) Any(category, text string) bool {
	_, ok := m.First(category, text)
	return ok
}

// Labels returns the labels of entries.
func Labels(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label()
	}
	return out
}
