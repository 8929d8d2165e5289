package lexicon

import (
	"math"
	"unicode"

	"github.com/urieli/jochre-sub004/recovery"
	"github.com/urieli/jochre-sub004/sequence"
)

// Defaults for MostLikelyWordChooser.
const (
	DefaultUnknownWordFactor = 0.75
	DefaultLogBase           = 10.0
)

// MostLikelyWordChooser weighs each word of a finalist by its lexicon
// frequency and picks the finalist with the best adjusted score.
//
// A known word with frequency f weighs 1+log_b(1+f); an unknown word weighs
// UnknownWordFactor. Numbers and punctuation are left unweighted.
type MostLikelyWordChooser struct {
	Lexicon           Lexicon
	UnknownWordFactor float64
	LogBase           float64
}

func NewMostLikelyWordChooser(lex Lexicon) *MostLikelyWordChooser {
	return &MostLikelyWordChooser{
		Lexicon:           lex,
		UnknownWordFactor: DefaultUnknownWordFactor,
		LogBase:           DefaultLogBase,
	}
}

// ChooseMostLikelyWord returns the finalist with the highest adjusted score.
// With holdover finalists from the previous row, every holdover/finalist pair
// is combined first and the best combination is returned; when the holdover
// ends in a hyphen, the hyphen is kept only if the hyphenated compound is
// itself a known word, and otherwise the halves are looked up as one word.
// Only the first beamWidth entries of each list are considered.
func (c *MostLikelyWordChooser) ChooseMostLikelyWord(finalists, holdover []*sequence.LetterSequence, beamWidth int) (*sequence.LetterSequence, error) {
	finalists = head(finalists, beamWidth)
	holdover = head(holdover, beamWidth)
	if len(finalists) == 0 {
		return nil, recovery.Violation("no finalists to choose from")
	}

	var candidates []*sequence.LetterSequence
	if len(holdover) == 0 {
		candidates = finalists
	} else {
		candidates = make([]*sequence.LetterSequence, 0, len(holdover)*len(finalists))
		for _, h := range holdover {
			for _, f := range finalists {
				candidates = append(candidates, c.join(h, f))
			}
		}
	}

	var best *sequence.LetterSequence
	for _, cand := range candidates {
		c.weigh(cand)
		if best == nil || cand.AdjustedScore() > best.AdjustedScore() {
			best = cand
		}
	}
	return best, nil
}

// join combines a row-final hypothesis with the next row's first one and
// settles the end-of-line hyphen.
func (c *MostLikelyWordChooser) join(h, f *sequence.LetterSequence) *sequence.LetterSequence {
	out := sequence.CombineLetters(h, f)
	if !h.EndsWithHyphen() {
		return out
	}
	out.EndOfLineHyphenIndex = h.Len() - 1
	out.SoftHyphen = false
	for _, sub := range out.Subsequences() {
		if !sub.Hyphenated || sub.Punctuation {
			continue
		}
		if c.Lexicon.Frequency(sub.Text) == 0 {
			out.SoftHyphen = true
		}
		break
	}
	return out
}

// weigh annotates s with word frequencies and sets its adjusted score.
func (c *MostLikelyWordChooser) weigh(s *sequence.LetterSequence) {
	adjusted := s.Score()
	var freqs []sequence.WordFrequency
	for _, sub := range s.Subsequences() {
		if sub.Punctuation || isNumber(sub.Text) {
			continue
		}
		f := c.Lexicon.Frequency(sub.Text)
		freqs = append(freqs, sequence.WordFrequency{Word: sub.Text, Frequency: f, Start: sub.Start, End: sub.End})
		adjusted *= c.weight(f)
	}
	s.SetWordFrequencies(freqs)
	s.SetAdjustedScore(adjusted)
}

func (c *MostLikelyWordChooser) weight(freq int) float64 {
	if freq <= 0 {
		return c.UnknownWordFactor
	}
	base := c.LogBase
	if base <= 1 {
		base = DefaultLogBase
	}
	return 1 + math.Log(1+float64(freq))/math.Log(base)
}

func isNumber(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}

func head(s []*sequence.LetterSequence, n int) []*sequence.LetterSequence {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
