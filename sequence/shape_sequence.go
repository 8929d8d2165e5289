package sequence

import (
	"strings"

	"github.com/urieli/jochre-sub004/decision"
	"github.com/urieli/jochre-sub004/graphics"
)

// ShapeInSequence is an atomic shape as placed in a ShapeSequence.
type ShapeInSequence struct {
	Shape graphics.ShapeID
	Index int
	// Original lists the upstream shapes the atomic shape was cut from.
	Original []graphics.ShapeID
	Group    *graphics.Group
}

// ShapeSequence is an ordered, append-only segmentation hypothesis.
type ShapeSequence struct {
	shapes    []ShapeInSequence
	decisions []decision.Decision
	score     float64
}

// NewShapeSequence returns an empty sequence with score 1.
func NewShapeSequence() *ShapeSequence {
	return &ShapeSequence{score: 1}
}

// FromGroup returns the identity segmentation of g: its upstream shapes in
// reading order. Shapes missing from the arena keep no origins.
func FromGroup(g *graphics.Group) *ShapeSequence {
	seq := NewShapeSequence()
	arena := g.Arena()
	for _, id := range g.Shapes {
		var origins []graphics.ShapeID
		if s := arena.Shape(id); s != nil {
			origins = s.Origins()
		}
		seq.Add(id, origins, g)
	}
	return seq
}

// Add appends an atomic shape.
func (s *ShapeSequence) Add(id graphics.ShapeID, original []graphics.ShapeID, g *graphics.Group) {
	s.shapes = append(s.shapes, ShapeInSequence{
		Shape:    id,
		Index:    len(s.shapes),
		Original: append([]graphics.ShapeID(nil), original...),
		Group:    g,
	})
}

// AddDecision records a branch decision that produced this hypothesis.
func (s *ShapeSequence) AddDecision(d decision.Decision) {
	s.decisions = append(s.decisions, d)
}

func (s *ShapeSequence) Len() int { return len(s.shapes) }

// At returns the i-th atomic shape.
func (s *ShapeSequence) At(i int) ShapeInSequence { return s.shapes[i] }

// Shapes returns a copy of the atomic shapes.
func (s *ShapeSequence) Shapes() []ShapeInSequence {
	return append([]ShapeInSequence(nil), s.shapes...)
}

// Decisions returns the branch decisions in the order they were taken.
func (s *ShapeSequence) Decisions() []decision.Decision {
	return append([]decision.Decision(nil), s.decisions...)
}

func (s *ShapeSequence) Score() float64 { return s.score }

// SetScore overrides the score, as done by searches that normalise their
// results.
func (s *ShapeSequence) SetScore(v float64) { s.score = v }

// Combine concatenates a and b, used when a hypothesis crosses a group
// boundary. Indexes are renumbered; the score is the product of both scores.
func Combine(a, b *ShapeSequence) *ShapeSequence {
	out := &ShapeSequence{
		shapes:    make([]ShapeInSequence, 0, a.Len()+b.Len()),
		decisions: make([]decision.Decision, 0, len(a.decisions)+len(b.decisions)),
		score:     a.score * b.score,
	}
	for _, part := range []*ShapeSequence{a, b} {
		for _, sis := range part.shapes {
			sis.Index = len(out.shapes)
			out.shapes = append(out.shapes, sis)
		}
		out.decisions = append(out.decisions, part.decisions...)
	}
	return out
}

// Key identifies the segmentation by its shape geometry, so that two
// hypotheses reached through different branches compare equal.
func (s *ShapeSequence) Key(arena *graphics.Arena) string {
	var b strings.Builder
	for i, sis := range s.shapes {
		if i > 0 {
			b.WriteByte('|')
		}
		if sh := arena.Shape(sis.Shape); sh != nil {
			b.WriteString(sh.Rect.String())
		}
	}
	return b.String()
}
