package boundary

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/urieli/jochre-sub004/decision"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/observability"
	"github.com/urieli/jochre-sub004/recovery"
	"github.com/urieli/jochre-sub004/sequence"
)

// Outcomes of the split classifier.
const (
	OutcomeSplit   = "DO_SPLIT"
	OutcomeNoSplit = "DO_NOT_SPLIT"
)

// SplitContext is what the split classifier is asked about: may shape be cut
// at split?
type SplitContext struct {
	Shape   *graphics.Shape
	Split   graphics.Split
	Depth   int
	XHeight int
}

// View flattens the context into plain values for scripted classifiers.
func (c SplitContext) View() map[string]any {
	v := map[string]any{
		"position": c.Split.Position,
		"depth":    c.Depth,
		"xHeight":  c.XHeight,
	}
	if s := c.Shape; s != nil {
		v["width"] = s.Width()
		v["height"] = s.Height()
		v["left"] = s.Rect.Left
		ink := 0
		for y := s.Rect.Top; y <= s.Rect.Bottom; y++ {
			if s.IsInk(s.Rect.Left+c.Split.Position, y) {
				ink++
			}
		}
		v["columnInk"] = ink
	}
	return v
}

// SplitEvaluator classifies split candidates.
type SplitEvaluator = decision.Classifier[SplitContext]

// SplitterConfig bounds the recursive search.
type SplitterConfig struct {
	// MaxDepth is the number of successive cuts allowed along one branch.
	MaxDepth int
	// MinWidthRatio is the smallest width/x-height ratio of a shape still
	// considered for cutting.
	MinWidthRatio float64
	// BeamWidth caps the hypotheses kept per node.
	BeamWidth int
}

// DefaultSplitterConfig returns the bounds used when none are configured.
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{MaxDepth: 2, MinWidthRatio: 1.1, BeamWidth: 5}
}

// RecursiveShapeSplitter enumerates segmentations of a single shape. Each
// node of the search either stays whole or is cut at one of its candidate
// positions, and both halves are searched again. The search runs on an
// explicit worklist.
type RecursiveShapeSplitter struct {
	finder    graphics.SplitCandidateFinder
	evaluator SplitEvaluator
	cfg       SplitterConfig
	logger    observability.Logger
	strategy  recovery.Strategy

	// per Split call
	extraReported bool
	candidates    int
}

// SplitterOption configures a RecursiveShapeSplitter.
type SplitterOption func(*RecursiveShapeSplitter)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l observability.Logger) SplitterOption {
	return func(s *RecursiveShapeSplitter) { s.logger = l }
}

// WithStrategy sets how warnings raised during the search are handled.
func WithStrategy(st recovery.Strategy) SplitterOption {
	return func(s *RecursiveShapeSplitter) { s.strategy = st }
}

// NewRecursiveShapeSplitter builds a splitter. Non-positive bounds in cfg
// fall back to DefaultSplitterConfig.
func NewRecursiveShapeSplitter(finder graphics.SplitCandidateFinder, evaluator SplitEvaluator, cfg SplitterConfig, opts ...SplitterOption) *RecursiveShapeSplitter {
	def := DefaultSplitterConfig()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MinWidthRatio <= 0 {
		cfg.MinWidthRatio = def.MinWidthRatio
	}
	if cfg.BeamWidth <= 0 {
		cfg.BeamWidth = def.BeamWidth
	}
	s := &RecursiveShapeSplitter{
		finder:    finder,
		evaluator: evaluator,
		cfg:       cfg,
		logger:    observability.NopLogger{},
		strategy:  recovery.QuietStrategy{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type node struct {
	shape    *graphics.Shape
	depth    int
	whole    float64 // weight of leaving the shape uncut
	decided  []decision.Decision
	branches []branch
	results  []hypothesis
}

type branch struct {
	left, right int
	weight      float64
	split       decision.Decision
}

type hypothesis struct {
	leaves    []graphics.ShapeID
	decisions []decision.Decision
	weight    float64
}

// Split returns the segmentations of shape id in group g, best first. The
// best segmentation scores 1 and the others are scaled relative to it; a
// shape without split candidates yields itself alone. Split is not safe for
// concurrent use.
func (s *RecursiveShapeSplitter) Split(g *graphics.Group, id graphics.ShapeID) ([]*sequence.ShapeSequence, error) {
	arena := g.Arena()
	root := arena.Shape(id)
	if root == nil {
		return nil, recovery.Violation("split: unknown shape %d", id).At(recovery.GroupLocation(g))
	}
	xHeight := g.XHeight()
	if xHeight <= 0 {
		xHeight = root.EffectiveXHeight()
	}
	leftToRight := g.Image().LeftToRight()
	s.extraReported = false
	s.candidates = 0

	nodes := []*node{{shape: root, whole: 1}}
	for i := 0; i < len(nodes); i++ {
		if err := s.expand(g, arena, &nodes, i, xHeight); err != nil {
			return nil, err
		}
	}

	// children are always appended after their parent
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		n.results = append(n.results, hypothesis{
			leaves:    []graphics.ShapeID{n.shape.ID},
			decisions: n.decided,
			weight:    n.whole,
		})
		for _, b := range n.branches {
			first, second := nodes[b.left], nodes[b.right]
			if !leftToRight {
				first, second = second, first
			}
			for _, h1 := range first.results {
				for _, h2 := range second.results {
					n.results = append(n.results, hypothesis{
						leaves:    concat(h1.leaves, h2.leaves),
						decisions: concat([]decision.Decision{b.split}, h1.decisions, h2.decisions),
						weight:    b.weight * h1.weight * h2.weight,
					})
				}
			}
		}
		n.results = s.prune(arena, n.results)
	}

	results := nodes[0].results
	best := 0.0
	if len(results) > 0 {
		best = results[0].weight
	}
	out := make([]*sequence.ShapeSequence, 0, len(results))
	for _, h := range results {
		seq := sequence.NewShapeSequence()
		for _, leaf := range h.leaves {
			seq.Add(leaf, arena.Shape(leaf).Origins(), g)
		}
		for _, d := range h.decisions {
			seq.AddDecision(d)
		}
		if best > 0 {
			seq.SetScore(h.weight / best)
		} else {
			seq.SetScore(0)
		}
		out = append(out, seq)
	}
	s.logger.Debug("split shape",
		observability.Int("shape", int(id)),
		observability.Int("nodes", len(nodes)),
		observability.Int(observability.MetricSplitCandidates, s.candidates),
		observability.Int("sequences", len(out)))
	return out, nil
}

// expand classifies the split candidates of nodes[i] and appends one child
// pair per candidate.
func (s *RecursiveShapeSplitter) expand(g *graphics.Group, arena *graphics.Arena, nodes *[]*node, i, xHeight int) error {
	n := (*nodes)[i]
	if n.depth >= s.cfg.MaxDepth {
		return nil
	}
	if float64(n.shape.Width())/float64(xHeight) < s.cfg.MinWidthRatio {
		return nil
	}
	candidates := s.finder.FindSplitCandidates(n.shape)
	s.candidates += len(candidates)
	if len(candidates) == 0 {
		return nil
	}

	type scored struct {
		split       graphics.Split
		pSplit, pNo float64
	}
	var kept []scored
	noSplit := 1.0
	for _, c := range candidates {
		ds, err := s.evaluator.Classify(SplitContext{Shape: n.shape, Split: c, Depth: n.depth, XHeight: xHeight})
		if err != nil {
			return fmt.Errorf("classify split of shape %d at %d: %w", n.shape.ID, c.Position, err)
		}
		pSplit, pNo, ok, err := s.splitProbabilities(g, n.shape, ds)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		noSplit = min(noSplit, pNo)
		kept = append(kept, scored{split: c, pSplit: pSplit, pNo: pNo})
	}
	if len(kept) == 0 {
		return nil
	}

	n.decided = []decision.Decision{{Outcome: OutcomeNoSplit, Probability: noSplit}}
	n.whole = 1
	norm := noSplit
	if noSplit <= 0 {
		// cutting is certain: the whole shape drops out and splits keep
		// their raw probability
		n.whole = 0
		norm = 1
	}
	for _, k := range kept {
		if k.pSplit <= 0 {
			continue
		}
		left, right, err := arena.SplitAt(n.shape.ID, k.split.Position)
		if err != nil {
			return recovery.Violation("split candidate %d of shape %d: %v", k.split.Position, n.shape.ID, err).At(recovery.GroupLocation(g))
		}
		*nodes = append(*nodes,
			&node{shape: arena.Shape(left), depth: n.depth + 1, whole: 1},
			&node{shape: arena.Shape(right), depth: n.depth + 1, whole: 1},
		)
		last := len(*nodes)
		n.branches = append(n.branches, branch{
			left:   last - 2,
			right:  last - 1,
			weight: k.pSplit / norm,
			split:  decision.Decision{Outcome: OutcomeSplit, Probability: k.pSplit},
		})
	}
	return nil
}

func (s *RecursiveShapeSplitter) splitProbabilities(g *graphics.Group, shape *graphics.Shape, ds []decision.Decision) (float64, float64, bool, error) {
	yes, hasYes := decision.Find(ds, OutcomeSplit)
	no, hasNo := decision.Find(ds, OutcomeNoSplit)
	extra := len(ds)
	if hasYes {
		extra--
	}
	if hasNo {
		extra--
	}
	if extra > 0 && !s.extraReported {
		s.extraReported = true
		if err := s.warn(&recovery.DecodeWarning{
			Kind:     recovery.ExtraOutcomes,
			Location: recovery.GroupLocation(g),
			Detail:   fmt.Sprintf("shape %d: %d outcomes besides %s/%s ignored", shape.ID, extra, OutcomeSplit, OutcomeNoSplit),
		}); err != nil {
			return 0, 0, false, err
		}
	}
	switch {
	case hasYes && hasNo:
		return yes.Probability, no.Probability, true, nil
	case hasYes:
		return yes.Probability, 1 - yes.Probability, true, nil
	case hasNo:
		return 1 - no.Probability, no.Probability, true, nil
	default:
		err := s.warn(&recovery.DecodeWarning{
			Kind:     recovery.NoOutcomes,
			Location: recovery.GroupLocation(g),
			Detail:   fmt.Sprintf("split classifier gave no opinion on shape %d", shape.ID),
		})
		return 0, 0, false, err
	}
}

func (s *RecursiveShapeSplitter) warn(w *recovery.DecodeWarning) error {
	s.logger.Warn("split search", observability.String("kind", w.Kind.String()), observability.String("detail", w.Detail))
	if s.strategy.OnWarning(w) == recovery.ActionFail {
		return w
	}
	return nil
}

// prune sorts hypotheses by weight, keeping discovery order among equals,
// drops geometric duplicates and truncates to the beam width.
func (s *RecursiveShapeSplitter) prune(arena *graphics.Arena, hs []hypothesis) []hypothesis {
	slices.SortStableFunc(hs, func(a, b hypothesis) int {
		return cmp.Compare(b.weight, a.weight)
	})
	seen := make(map[string]bool, len(hs))
	out := hs[:0]
	for _, h := range hs {
		key := leafKey(arena, h.leaves)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
		if len(out) == s.cfg.BeamWidth {
			break
		}
	}
	return out
}

func leafKey(arena *graphics.Arena, leaves []graphics.ShapeID) string {
	var b strings.Builder
	for i, id := range leaves {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(arena.Shape(id).Rect.String())
	}
	return b.String()
}

func concat[T any](parts ...[]T) []T {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]T, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
