// Package lexicon re-ranks decoding finalists with word frequencies.
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-text/typesetting/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/urieli/jochre-sub004/graphics"
)

// Lexicon reports how often a word was seen in a reference corpus. Unknown
// words have frequency 0.
type Lexicon interface {
	Frequency(word string) int
}

// TextLexicon is an in-memory lexicon read from "word<TAB>count" lines.
// Words are compared in NFC form; with StripMarks, combining marks such as
// niqqud are ignored as well.
type TextLexicon struct {
	words      map[string]int
	stripMarks bool
}

// Option configures a TextLexicon.
type Option func(*TextLexicon)

// WithStripMarks ignores combining marks when storing and looking up words.
func WithStripMarks(strip bool) Option {
	return func(l *TextLexicon) { l.stripMarks = strip }
}

func NewTextLexicon(opts ...Option) *TextLexicon {
	l := &TextLexicon{words: make(map[string]int)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads a lexicon. Blank lines and lines starting with '#' are skipped;
// a word without a count counts once and repeated words add up.
func Load(r io.Reader, opts ...Option) (*TextLexicon, error) {
	l := NewTextLexicon(opts...)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		word, countText, hasCount := strings.Cut(text, "\t")
		count := 1
		if hasCount {
			n, err := strconv.Atoi(strings.TrimSpace(countText))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("lexicon line %d: bad count %q", line, countText)
			}
			count = n
		}
		l.Add(strings.TrimSpace(word), count)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return l, nil
}

// LoadFile reads a lexicon from path.
func LoadFile(path string, opts ...Option) (*TextLexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()
	return Load(f, opts...)
}

// Add records count more occurrences of word.
func (l *TextLexicon) Add(word string, count int) {
	if w := l.normalize(word); w != "" {
		l.words[w] += count
	}
}

func (l *TextLexicon) Frequency(word string) int {
	return l.words[l.normalize(word)]
}

// Len returns the number of distinct words.
func (l *TextLexicon) Len() int { return len(l.words) }

// Script returns the script most of the words are written in.
func (l *TextLexicon) Script() language.Script {
	var text []rune
	for w := range l.words {
		text = append(text, []rune(w)...)
	}
	return graphics.DetectScript(text)
}

func (l *TextLexicon) normalize(word string) string {
	if !l.stripMarks {
		return norm.NFC.String(word)
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, word)
	if err != nil {
		return norm.NFC.String(word)
	}
	return out
}
