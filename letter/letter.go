// Package letter defines what a letter classifier is asked about: one
// atomic shape together with the letters already guessed before it.
package letter

import (
	"github.com/urieli/jochre-sub004/decision"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/sequence"
)

// Context is the input of a letter guess.
type Context struct {
	Shape     sequence.ShapeInSequence
	ShapeData *graphics.Shape
	// History holds the letters guessed so far in this hypothesis; it may
	// be nil for the first letter.
	History *sequence.LetterSequence
}

// Guesser proposes letters for a shape, most likely first.
type Guesser = decision.Classifier[Context]

// GuesserFunc adapts a function to Guesser.
type GuesserFunc = decision.ClassifierFunc[Context]

// Previous returns the letter guessed immediately before the shape, or ""
// at the start of the sequence.
func (c Context) Previous() string {
	if c.History == nil || c.History.Len() == 0 {
		return ""
	}
	return c.History.Letter(c.History.Len() - 1)
}

// View flattens the context into plain values for scripted classifiers.
func (c Context) View() map[string]any {
	v := map[string]any{
		"index":    c.Shape.Index,
		"previous": c.Previous(),
		"history":  []string{},
	}
	if c.History != nil {
		v["history"] = c.History.Letters()
	}
	if s := c.ShapeData; s != nil {
		v["width"] = s.Width()
		v["height"] = s.Height()
		v["xHeight"] = s.EffectiveXHeight()
		v["left"] = s.Rect.Left
		v["top"] = s.Rect.Top
		v["inkRatio"] = InkRatio(s)
	}
	if g := c.Shape.Group; g != nil {
		v["group"] = g.Key()
		v["lastInRow"] = g.IsLastInRow()
	}
	return v
}

// InkRatio returns the share of dark pixels inside the shape, or 0 when the
// shape carries no pixels.
func InkRatio(s *graphics.Shape) float64 {
	if s.Pixels == nil {
		return 0
	}
	ink := 0
	for y := s.Rect.Top; y <= s.Rect.Bottom; y++ {
		for x := s.Rect.Left; x <= s.Rect.Right; x++ {
			if s.IsInk(x, y) {
				ink++
			}
		}
	}
	return float64(ink) / float64(s.Width()*s.Height())
}
