package lexicon

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

var (
	urlRe         = regexp.MustCompile(`https?\S+|www\S+`)
	handleRe      = regexp.MustCompile(`[@#]\w+`)
	punctuationRe = regexp.MustCompile(`[^\w\s]`)
)

// Clean strips URLs, @mentions and #hashtags, folds accented letters to
// ASCII, drops whatever non-ASCII remains (emoji, scripts with no folding),
// and collapses whitespace.
func Clean(text string) string {
	text = foldAccents(text)
	text = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || (!unicode.IsPrint(r) && !unicode.IsSpace(r)) {
			return -1
		}
		return r
	}, text)
	text = urlRe.ReplaceAllString(text, "")
	text = handleRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

func foldAccents(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

// RemovePunctuation folds accents, replaces punctuation with spaces and
// collapses whitespace.
func RemovePunctuation(text string) string {
	text = punctuationRe.ReplaceAllString(foldAccents(text), " ")
	return strings.Join(strings.Fields(text), " ")
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Truncate cuts text to at most maxChars characters. A non-positive limit
// disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= maxChars {
		return text
	}
	return string(r[:maxChars])
}

// Validate rejects empty text and text with fewer than minWords words.
func Validate(cleaned string, minWords int) error {
	if cleaned == "" {
		return fmt.Errorf("empty text: %w", domain.ErrInvalidInput)
	}
	if n := WordCount(cleaned); n < minWords {
		return fmt.Errorf("text too short: %d words, need %d: %w", n, minWords, domain.ErrInvalidInput)
	}
	return nil
}
