package boundary

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/urieli/jochre-sub004/decision"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/recovery"
	"github.com/urieli/jochre-sub004/sequence"
)

// Detector proposes the candidate segmentations of a group, best first.
type Detector interface {
	FindBoundaries(g *graphics.Group) ([]*sequence.ShapeSequence, error)
}

// OriginalBoundaryDetector trusts upstream segmentation: the group's shapes
// form the only sequence.
type OriginalBoundaryDetector struct{}

func (OriginalBoundaryDetector) FindBoundaries(g *graphics.Group) ([]*sequence.ShapeSequence, error) {
	for i, id := range g.Shapes {
		if g.Arena().Shape(id) == nil {
			return nil, recovery.Violation("unknown shape %d", id).At(recovery.GroupLocation(g).WithShape(i))
		}
	}
	return []*sequence.ShapeSequence{sequence.FromGroup(g)}, nil
}

// ProbabilisticBoundaryDetector splits every shape of the group and keeps the
// BeamWidth best combinations of per-shape alternatives.
type ProbabilisticBoundaryDetector struct {
	Splitter  *RecursiveShapeSplitter
	BeamWidth int
}

func NewProbabilisticBoundaryDetector(splitter *RecursiveShapeSplitter, beamWidth int) *ProbabilisticBoundaryDetector {
	return &ProbabilisticBoundaryDetector{Splitter: splitter, BeamWidth: beamWidth}
}

func (d *ProbabilisticBoundaryDetector) FindBoundaries(g *graphics.Group) ([]*sequence.ShapeSequence, error) {
	beam := d.BeamWidth
	if beam <= 0 {
		beam = d.Splitter.cfg.BeamWidth
	}
	partials := []*sequence.ShapeSequence{sequence.NewShapeSequence()}
	for _, id := range g.Shapes {
		alternatives, err := d.Splitter.Split(g, id)
		if err != nil {
			return nil, fmt.Errorf("find boundaries in %s: %w", g, err)
		}
		next := make([]*sequence.ShapeSequence, 0, len(partials)*len(alternatives))
		for _, p := range partials {
			for _, alt := range alternatives {
				next = append(next, sequence.Combine(p, alt))
			}
		}
		slices.SortStableFunc(next, func(a, b *sequence.ShapeSequence) int {
			return cmp.Compare(b.Score(), a.Score())
		})
		if len(next) > beam {
			next = next[:beam]
		}
		partials = next
	}
	return partials, nil
}

// DeterministicBoundaryDetector cuts a shape only where the split classifier
// is confident, producing a single segmentation. Each piece may be cut again
// until MaxDepth.
type DeterministicBoundaryDetector struct {
	Finder    graphics.SplitCandidateFinder
	Evaluator SplitEvaluator
	Config    SplitterConfig
	// MinProbForDecision is the smallest P(DO_SPLIT) acted upon.
	MinProbForDecision float64
}

func NewDeterministicBoundaryDetector(finder graphics.SplitCandidateFinder, evaluator SplitEvaluator, cfg SplitterConfig, minProb float64) *DeterministicBoundaryDetector {
	def := DefaultSplitterConfig()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MinWidthRatio <= 0 {
		cfg.MinWidthRatio = def.MinWidthRatio
	}
	return &DeterministicBoundaryDetector{Finder: finder, Evaluator: evaluator, Config: cfg, MinProbForDecision: minProb}
}

func (d *DeterministicBoundaryDetector) FindBoundaries(g *graphics.Group) ([]*sequence.ShapeSequence, error) {
	arena := g.Arena()
	xHeight := g.XHeight()
	leftToRight := g.Image().LeftToRight()
	seq := sequence.NewShapeSequence()

	type item struct {
		id    graphics.ShapeID
		depth int
	}
	for _, id := range g.Shapes {
		if arena.Shape(id) == nil {
			return nil, recovery.Violation("unknown shape %d", id).At(recovery.GroupLocation(g))
		}
		// stack in reading order: the next piece to emit is on top
		stack := []item{{id: id}}
		for len(stack) > 0 {
			it := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			shape := arena.Shape(it.id)

			best, ok, err := d.bestSplit(shape, it.depth, xHeight)
			if err != nil {
				return nil, fmt.Errorf("find boundaries in %s: %w", g, err)
			}
			if !ok {
				seq.Add(shape.ID, shape.Origins(), g)
				continue
			}
			left, right, err := arena.SplitAt(shape.ID, best.Position)
			if err != nil {
				return nil, recovery.Violation("split shape %d: %v", shape.ID, err).At(recovery.GroupLocation(g))
			}
			seq.AddDecision(decision.Decision{Outcome: OutcomeSplit, Probability: best.prob})
			first, second := left, right
			if !leftToRight {
				first, second = right, left
			}
			stack = append(stack, item{id: second, depth: it.depth + 1}, item{id: first, depth: it.depth + 1})
		}
	}
	return []*sequence.ShapeSequence{seq}, nil
}

type confidentSplit struct {
	graphics.Split
	prob float64
}

func (d *DeterministicBoundaryDetector) bestSplit(shape *graphics.Shape, depth, xHeight int) (confidentSplit, bool, error) {
	if xHeight <= 0 {
		xHeight = shape.EffectiveXHeight()
	}
	if depth >= d.Config.MaxDepth || float64(shape.Width())/float64(xHeight) < d.Config.MinWidthRatio {
		return confidentSplit{}, false, nil
	}
	var best confidentSplit
	found := false
	for _, c := range d.Finder.FindSplitCandidates(shape) {
		ds, err := d.Evaluator.Classify(SplitContext{Shape: shape, Split: c, Depth: depth, XHeight: xHeight})
		if err != nil {
			return confidentSplit{}, false, fmt.Errorf("classify split of shape %d at %d: %w", shape.ID, c.Position, err)
		}
		yes, ok := decision.Find(ds, OutcomeSplit)
		if !ok || yes.Probability < d.MinProbForDecision {
			continue
		}
		if !found || yes.Probability > best.prob {
			best = confidentSplit{Split: c, prob: yes.Probability}
			found = true
		}
	}
	return best, found, nil
}
