package sequence

import (
	"strings"
	"unicode"
)

// Subsequence is a run of letters of one class inside a LetterSequence.
type Subsequence struct {
	// Start and End delimit the letters [Start, End).
	Start int
	End   int
	Text  string
	// Punctuation runs hold only punctuation letters.
	Punctuation bool
	// Hyphenated runs contain the held-over end-of-line hyphen.
	Hyphenated bool
}

// IsPunctuation reports whether a letter is punctuation. Geresh and
// gershayim are part of Hebrew abbreviations and count as letters.
func IsPunctuation(letter string) bool {
	if letter == "" {
		return false
	}
	for _, r := range letter {
		switch r {
		case '׳', '״':
			return false
		}
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// isHyphen matches only the ASCII hyphen-minus. A maqaf is part of the
// compound it joins and is never dropped at a line end.
func isHyphen(letter string) bool { return letter == "-" }

// Subsequences splits the letters into alternating word and punctuation runs.
// Runs also break where the sequence crosses into another group, except for
// a word broken by the held-over hyphen, which stays one run spanning both
// groups.
func (s *LetterSequence) Subsequences() []Subsequence {
	n := len(s.letters)
	if n == 0 {
		return nil
	}
	joinAt := s.hyphenJoin()

	var out []Subsequence
	start := 0
	for i := 1; i <= n; i++ {
		if i < n && !s.breaksBefore(i, joinAt) {
			continue
		}
		out = append(out, s.subsequence(start, i, joinAt))
		start = i
	}
	return out
}

// hyphenJoin returns the index of a held-over hyphen that joins two word
// halves, or NoHyphen.
func (s *LetterSequence) hyphenJoin() int {
	h := s.EndOfLineHyphenIndex
	if h <= 0 || h >= len(s.letters)-1 {
		return NoHyphen
	}
	if IsPunctuation(s.letters[h-1]) || IsPunctuation(s.letters[h+1]) {
		return NoHyphen
	}
	return h
}

func (s *LetterSequence) breaksBefore(i, joinAt int) bool {
	if joinAt != NoHyphen && (i == joinAt || i == joinAt+1) {
		return false
	}
	if IsPunctuation(s.letters[i]) != IsPunctuation(s.letters[i-1]) {
		return true
	}
	if i < s.underlying.Len() && s.underlying.At(i).Group != s.underlying.At(i-1).Group {
		return true
	}
	return false
}

func (s *LetterSequence) subsequence(start, end, joinAt int) Subsequence {
	sub := Subsequence{Start: start, End: end, Punctuation: true}
	var b strings.Builder
	for i := start; i < end; i++ {
		if i == s.EndOfLineHyphenIndex {
			sub.Hyphenated = true
			if s.SoftHyphen && i == joinAt {
				continue
			}
		}
		if i != joinAt && !IsPunctuation(s.letters[i]) {
			sub.Punctuation = false
		}
		b.WriteString(s.letters[i])
	}
	if joinAt != NoHyphen && start <= joinAt && joinAt < end {
		sub.Punctuation = false
	}
	sub.Text = b.String()
	return sub
}
