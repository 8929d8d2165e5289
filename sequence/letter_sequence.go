package sequence

import (
	"fmt"
	"strings"

	"github.com/urieli/jochre-sub004/decision"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/recovery"
)

// NoHyphen is the EndOfLineHyphenIndex of a sequence without a held-over
// hyphen.
const NoHyphen = -1

// WordFrequency annotates the letters [Start, End) with the lexicon
// frequency of the word they spell.
type WordFrequency struct {
	Word      string
	Frequency int
	Start     int
	End       int
}

// LetterSequence is a decoding hypothesis: one letter per shape of the
// underlying segmentation, filled in left to right in reading order.
type LetterSequence struct {
	underlying *ShapeSequence
	letters    []string
	decisions  []decision.Decision
	strategy   ScoringStrategy

	// prior is the score of the segmentation(s) the letters were read from.
	prior float64

	score      float64
	scoreValid bool
	scoreFixed bool

	adjustedScore float64
	adjusted      bool

	// EndOfLineHyphenIndex marks a hyphen held over from the end of a row,
	// or NoHyphen.
	EndOfLineHyphenIndex int
	// SoftHyphen drops the held-over hyphen from Text: the word was merely
	// broken across rows.
	SoftHyphen bool

	frequencies []WordFrequency
}

// NewLetterSequence starts an empty hypothesis over underlying. A nil
// strategy selects DefaultScoring.
func NewLetterSequence(underlying *ShapeSequence, strategy ScoringStrategy) *LetterSequence {
	if strategy == nil {
		strategy = DefaultScoring
	}
	return &LetterSequence{
		underlying:           underlying,
		strategy:             strategy,
		prior:                underlying.Score(),
		EndOfLineHyphenIndex: NoHyphen,
	}
}

// Extend returns a copy of s with one more letter read from the next shape.
func (s *LetterSequence) Extend(letter string, d decision.Decision) (*LetterSequence, error) {
	if len(s.letters) >= s.underlying.Len() {
		return nil, recovery.Violation("letter sequence of length %d cannot grow past %d shapes", len(s.letters), s.underlying.Len())
	}
	out := s.clone()
	out.letters = append(out.letters, letter)
	out.decisions = append(out.decisions, d)
	out.invalidate()
	return out, nil
}

func (s *LetterSequence) clone() *LetterSequence {
	c := *s
	c.letters = append([]string(nil), s.letters...)
	c.decisions = append([]decision.Decision(nil), s.decisions...)
	c.frequencies = append([]WordFrequency(nil), s.frequencies...)
	return &c
}

func (s *LetterSequence) invalidate() {
	s.scoreValid = false
	s.scoreFixed = false
	s.adjusted = false
}

func (s *LetterSequence) Len() int { return len(s.letters) }

// Complete reports whether every shape has a letter.
func (s *LetterSequence) Complete() bool { return len(s.letters) == s.underlying.Len() }

func (s *LetterSequence) Letter(i int) string { return s.letters[i] }

// Letters returns a copy of the letters.
func (s *LetterSequence) Letters() []string { return append([]string(nil), s.letters...) }

// Decisions returns a copy of the decisions, one per letter.
func (s *LetterSequence) Decisions() []decision.Decision {
	return append([]decision.Decision(nil), s.decisions...)
}

func (s *LetterSequence) Underlying() *ShapeSequence { return s.underlying }

// NextShape returns the shape the next letter will be read from.
func (s *LetterSequence) NextShape() (ShapeInSequence, bool) {
	if s.Complete() {
		return ShapeInSequence{}, false
	}
	return s.underlying.At(len(s.letters)), true
}

// Strategy returns the scoring strategy in use.
func (s *LetterSequence) Strategy() ScoringStrategy { return s.strategy }

// Score is the strategy applied to the letter decisions, weighted by the
// segmentation prior. It is cached until the decisions change.
func (s *LetterSequence) Score() float64 {
	if s.scoreFixed || s.scoreValid {
		return s.score
	}
	s.score = s.strategy.Score(s.decisions) * s.prior
	s.scoreValid = true
	return s.score
}

// AdjustedScore is the score after lexicon re-ranking, or Score when the
// sequence was never re-ranked.
func (s *LetterSequence) AdjustedScore() float64 {
	if s.adjusted {
		return s.adjustedScore
	}
	return s.Score()
}

func (s *LetterSequence) SetAdjustedScore(v float64) {
	s.adjustedScore = v
	s.adjusted = true
}

// fixScore pins the score, as done for the per-group parts of a split
// sequence.
func (s *LetterSequence) fixScore(score, adjusted float64) {
	s.score = score
	s.scoreFixed = true
	s.adjustedScore = adjusted
	s.adjusted = true
}

// WordFrequencies returns the lexicon annotations attached by a re-ranker.
func (s *LetterSequence) WordFrequencies() []WordFrequency {
	return append([]WordFrequency(nil), s.frequencies...)
}

func (s *LetterSequence) SetWordFrequencies(fs []WordFrequency) {
	s.frequencies = append([]WordFrequency(nil), fs...)
}

// Text joins the letters, leaving out a soft end-of-line hyphen.
func (s *LetterSequence) Text() string {
	var b strings.Builder
	for i, l := range s.letters {
		if i == s.EndOfLineHyphenIndex && s.SoftHyphen {
			continue
		}
		b.WriteString(l)
	}
	return b.String()
}

// RawText joins every letter, hyphens included.
func (s *LetterSequence) RawText() string { return strings.Join(s.letters, "") }

// EndsWithHyphen reports whether the last letter is a literal hyphen.
func (s *LetterSequence) EndsWithHyphen() bool {
	return len(s.letters) > 0 && isHyphen(s.letters[len(s.letters)-1])
}

// Groups returns the distinct groups touched by the sequence, in order.
func (s *LetterSequence) Groups() []*graphics.Group {
	var groups []*graphics.Group
	for i := 0; i < s.underlying.Len(); i++ {
		g := s.underlying.At(i).Group
		if len(groups) == 0 || groups[len(groups)-1] != g {
			groups = append(groups, g)
		}
	}
	return groups
}

// IsSplit reports whether the sequence spans more than one group.
func (s *LetterSequence) IsSplit() bool { return len(s.Groups()) > 1 }

// CombineLetters concatenates a and b, typically the finalists of a row's
// last group and of the next row's first group.
func CombineLetters(a, b *LetterSequence) *LetterSequence {
	out := &LetterSequence{
		underlying:           Combine(a.underlying, b.underlying),
		letters:              append(append([]string(nil), a.letters...), b.letters...),
		decisions:            append(append([]decision.Decision(nil), a.decisions...), b.decisions...),
		strategy:             a.strategy,
		prior:                a.prior * b.prior,
		EndOfLineHyphenIndex: a.EndOfLineHyphenIndex,
		SoftHyphen:           a.SoftHyphen,
	}
	if out.EndOfLineHyphenIndex == NoHyphen && b.EndOfLineHyphenIndex != NoHyphen {
		out.EndOfLineHyphenIndex = b.EndOfLineHyphenIndex + a.Len()
		out.SoftHyphen = b.SoftHyphen
	}
	out.frequencies = append(out.frequencies, a.frequencies...)
	for _, f := range b.frequencies {
		f.Start += a.Len()
		f.End += a.Len()
		out.frequencies = append(out.frequencies, f)
	}
	return out
}

// SplitByGroup breaks a sequence spanning several groups into one sequence
// per group. Every part carries the score and adjusted score of the whole,
// so that the decision taken jointly is not re-judged per part.
func (s *LetterSequence) SplitByGroup() ([]*LetterSequence, error) {
	if !s.Complete() {
		return nil, recovery.Violation("cannot split incomplete sequence (%d letters, %d shapes)", len(s.letters), s.underlying.Len())
	}
	score, adjusted := s.Score(), s.AdjustedScore()

	var parts []*LetterSequence
	var current *LetterSequence
	var currentGroup *graphics.Group
	offset := 0
	for i := 0; i < s.underlying.Len(); i++ {
		sis := s.underlying.At(i)
		if current == nil || sis.Group != currentGroup {
			current = &LetterSequence{
				underlying:           NewShapeSequence(),
				strategy:             s.strategy,
				prior:                1,
				EndOfLineHyphenIndex: NoHyphen,
			}
			currentGroup = sis.Group
			offset = i
			parts = append(parts, current)
		}
		current.underlying.Add(sis.Shape, sis.Original, sis.Group)
		current.letters = append(current.letters, s.letters[i])
		current.decisions = append(current.decisions, s.decisions[i])
		if i == s.EndOfLineHyphenIndex {
			current.EndOfLineHyphenIndex = i - offset
			current.SoftHyphen = s.SoftHyphen
		}
	}

	start := 0
	for _, p := range parts {
		end := start + p.Len()
		for _, f := range s.frequencies {
			if f.Start < end && f.End > start {
				f.Start = max(f.Start, start) - start
				f.End = min(f.End, end) - start
				p.frequencies = append(p.frequencies, f)
			}
		}
		p.fixScore(score, adjusted)
		start = end
	}
	return parts, nil
}

func (s *LetterSequence) String() string {
	return fmt.Sprintf("%q score=%.4f adjusted=%.4f", s.RawText(), s.Score(), s.AdjustedScore())
}
