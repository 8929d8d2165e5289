package analyse

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/urieli/jochre-sub004/boundary"
	"github.com/urieli/jochre-sub004/decision"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/letter"
	"github.com/urieli/jochre-sub004/observability"
	"github.com/urieli/jochre-sub004/recovery"
	"github.com/urieli/jochre-sub004/sequence"
)

// Config bounds the beam search.
type Config struct {
	// BeamWidth is the number of hypotheses expanded per position and the
	// number of finalists handed to the word chooser.
	BeamWidth int
	// MinOutcomeWeight drops letter outcomes whose probability does not
	// exceed it.
	MinOutcomeWeight float64
}

func DefaultConfig() Config {
	return Config{BeamWidth: 5}
}

// WordChooser re-ranks finalists, optionally combined with the finalists
// held over from the end of the previous row.
type WordChooser interface {
	ChooseMostLikelyWord(finalists, holdover []*sequence.LetterSequence, beamWidth int) (*sequence.LetterSequence, error)
}

// Holdover is a row-final group whose decision waits for the next row.
type Holdover struct {
	Group     *graphics.Group
	Finalists []*sequence.LetterSequence
}

// BeamSearchAnalyser decodes images group by group. An analyser keeps
// per-image progress and is meant for one goroutine; decode several images
// in parallel with one analyser each.
type BeamSearchAnalyser struct {
	detector  boundary.Detector
	guesser   letter.Guesser
	chooser   WordChooser
	cfg       Config
	scoring   sequence.ScoringStrategy
	observers observers
	logger    observability.Logger
	tracer    observability.Tracer
	strategy  recovery.Strategy

	stats    Stats
	progress progress
}

// Option configures a BeamSearchAnalyser.
type Option func(*BeamSearchAnalyser)

// WithWordChooser enables lexicon re-ranking and hyphen holdover.
func WithWordChooser(c WordChooser) Option {
	return func(a *BeamSearchAnalyser) { a.chooser = c }
}

// WithObserver registers observers, called after those already registered.
func WithObserver(obs ...Observer) Option {
	return func(a *BeamSearchAnalyser) { a.observers = append(a.observers, obs...) }
}

func WithScoring(s sequence.ScoringStrategy) Option {
	return func(a *BeamSearchAnalyser) { a.scoring = s }
}

func WithLogger(l observability.Logger) Option {
	return func(a *BeamSearchAnalyser) { a.logger = l }
}

func WithTracer(t observability.Tracer) Option {
	return func(a *BeamSearchAnalyser) { a.tracer = t }
}

// WithStrategy decides what happens on decode warnings. By default they are
// only counted in Stats.
func WithStrategy(s recovery.Strategy) Option {
	return func(a *BeamSearchAnalyser) { a.strategy = s }
}

// WithProgress reports committed shapes after every group.
func WithProgress(fn ProgressFunc) Option {
	return func(a *BeamSearchAnalyser) { a.progress.report = fn }
}

// NewBeamSearchAnalyser builds an analyser. A nil detector trusts upstream
// segmentation.
func NewBeamSearchAnalyser(detector boundary.Detector, guesser letter.Guesser, cfg Config, opts ...Option) *BeamSearchAnalyser {
	if detector == nil {
		detector = boundary.OriginalBoundaryDetector{}
	}
	if cfg.BeamWidth <= 0 {
		cfg.BeamWidth = DefaultConfig().BeamWidth
	}
	a := &BeamSearchAnalyser{
		detector: detector,
		guesser:  guesser,
		cfg:      cfg,
		scoring:  sequence.DefaultScoring,
		logger:   observability.NopLogger{},
		tracer:   observability.NopTracer(),
		strategy: recovery.QuietStrategy{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Stats returns the counters accumulated so far.
func (a *BeamSearchAnalyser) Stats() Stats { return a.stats }

// Analyse decodes every paragraph of img and notifies the observers. The
// context is checked between groups.
func (a *BeamSearchAnalyser) Analyse(ctx context.Context, img *graphics.Image) (err error) {
	ctx, span := a.tracer.StartSpan(ctx, "analyse.image")
	span.SetTag("image", img.Name)
	start := time.Now()
	defer func() {
		a.stats.Elapsed += time.Since(start)
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	logger := a.logger.With(observability.String("image", img.Name))
	logger.Debug("analysing image", observability.Int("paragraphs", len(img.Paragraphs)))
	a.stats.Images++
	a.progress.reset(img.ShapeCount())
	a.observers.imageStart(img)

	for _, p := range img.Paragraphs {
		var holdover *Holdover
		for _, row := range p.Rows {
			holdover, err = a.analyseRow(ctx, row, holdover)
			if err != nil {
				return err
			}
		}
		if holdover != nil {
			if err := a.flush(holdover); err != nil {
				return err
			}
		}
	}

	a.observers.imageEnd(img)
	span.SetTag(observability.MetricGroupCount, a.stats.Groups)
	logger.Info("image analysed",
		observability.Int("groups", a.stats.Groups),
		observability.Int("warnings", a.stats.Warnings),
		observability.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return nil
}

// Finish tells the observers that no more images will follow.
func (a *BeamSearchAnalyser) Finish() {
	a.observers.finish()
}

// analyseRow decodes one row. holdover is the pending row-final group of the
// previous row, if any; the returned holdover is this row's.
func (a *BeamSearchAnalyser) analyseRow(ctx context.Context, row *graphics.Row, holdover *Holdover) (*Holdover, error) {
	for _, g := range row.Groups {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analyse %s: %w", g, err)
		}
		finalists, err := a.BeamSearch(g)
		if err != nil {
			return nil, err
		}
		a.stats.Groups++

		if len(finalists) == 0 {
			if holdover != nil {
				if err := a.flush(holdover); err != nil {
					return nil, err
				}
				holdover = nil
			}
			a.progress.add(len(g.Shapes))
			continue
		}

		switch {
		case a.chooser == nil:
			a.commit(g, finalists[0])

		case holdover != nil:
			best, err := a.chooser.ChooseMostLikelyWord(finalists, holdover.Finalists, a.cfg.BeamWidth)
			if err != nil {
				return nil, fmt.Errorf("choose word for %s: %w", g, err)
			}
			parts, err := best.SplitByGroup()
			if err != nil {
				return nil, err
			}
			for _, part := range parts {
				a.commit(part.Underlying().At(0).Group, part)
			}
			holdover = nil

		case g.IsLastInRow() && !row.IsLastInParagraph() && slices.ContainsFunc(finalists, (*sequence.LetterSequence).EndsWithHyphen):
			a.stats.Holdovers++
			a.logger.Debug("holding over hyphenated word", observability.String("group", g.Key()))
			holdover = &Holdover{Group: g, Finalists: finalists}

		default:
			best, err := a.chooser.ChooseMostLikelyWord(finalists, nil, a.cfg.BeamWidth)
			if err != nil {
				return nil, fmt.Errorf("choose word for %s: %w", g, err)
			}
			a.commit(g, best)
		}
	}
	return holdover, nil
}

// flush commits a holdover that no following word can resolve.
func (a *BeamSearchAnalyser) flush(h *Holdover) error {
	best, err := a.chooser.ChooseMostLikelyWord(h.Finalists, nil, a.cfg.BeamWidth)
	if err != nil {
		return fmt.Errorf("choose word for %s: %w", h.Group, err)
	}
	a.commit(h.Group, best)
	return nil
}

// AnalyseGroup decodes a single group without holdover and returns the
// winning sequence, or nil when every hypothesis died.
func (a *BeamSearchAnalyser) AnalyseGroup(g *graphics.Group) (*sequence.LetterSequence, error) {
	finalists, err := a.BeamSearch(g)
	if err != nil || len(finalists) == 0 {
		return nil, err
	}
	if a.chooser == nil {
		return finalists[0], nil
	}
	return a.chooser.ChooseMostLikelyWord(finalists, nil, a.cfg.BeamWidth)
}

// BeamSearch returns the best complete hypotheses for g, at most BeamWidth
// of them, best first.
func (a *BeamSearchAnalyser) BeamSearch(g *graphics.Group) ([]*sequence.LetterSequence, error) {
	loc := recovery.GroupLocation(g)
	if len(g.Shapes) == 0 {
		return nil, a.warn(&recovery.DecodeWarning{Kind: recovery.EmptyGroup, Location: loc, Detail: "group has no shapes"})
	}
	arena := g.Arena()
	for i, id := range g.Shapes {
		if arena.Shape(id) == nil {
			return nil, recovery.Violation("unknown shape %d", id).At(loc.WithShape(i))
		}
	}
	segmentations, err := a.detector.FindBoundaries(g)
	if err != nil {
		return nil, err
	}

	bounds := g.Rect()
	width := bounds.Width()
	leftToRight := g.Image().LeftToRight()
	reached := func(sis sequence.ShapeInSequence) int {
		s := arena.Shape(sis.Shape)
		if leftToRight {
			return s.Rect.Right - bounds.Left + 1
		}
		return bounds.Right - s.Rect.Left + 1
	}

	beams := newPositionMap()
	for _, seg := range segmentations {
		if seg.Len() == 0 {
			continue
		}
		for _, sis := range seg.Shapes() {
			if arena.Shape(sis.Shape) == nil {
				return nil, recovery.Violation("segmentation refers to unknown shape %d", sis.Shape).At(loc.WithShape(sis.Index))
			}
		}
		beams.push(0, sequence.NewLetterSequence(seg, a.scoring))
	}

	for {
		pos, heap, ok := beams.popLowest()
		if !ok {
			break
		}
		if pos >= width {
			finalists := heap.Take(a.cfg.BeamWidth)
			a.observers.beamSearchEnd(g, finalists)
			return finalists, nil
		}
		for _, hyp := range heap.Take(a.cfg.BeamWidth) {
			sis, ok := hyp.NextShape()
			if !ok {
				beams.push(width, hyp)
				continue
			}
			successors, err := a.extend(g, hyp, sis)
			if err != nil {
				return nil, err
			}
			next := max(reached(sis), pos+1)
			if len(successors) == 0 {
				a.stats.DeadHypotheses++
				if err := a.warn(&recovery.DecodeWarning{
					Kind:     recovery.NoOutcomes,
					Location: loc.WithShape(sis.Index),
					Detail:   fmt.Sprintf("no letter above %.3g for %q", a.cfg.MinOutcomeWeight, hyp.RawText()),
				}); err != nil {
					return nil, err
				}
				continue
			}
			if sis.Index == hyp.Underlying().Len()-1 {
				next = width
			} else {
				next = min(next, width-1)
			}
			for _, s := range successors {
				beams.push(next, s)
			}
		}
	}
	return nil, a.warn(&recovery.DecodeWarning{Kind: recovery.NoFinalHypotheses, Location: loc, Detail: "every hypothesis died"})
}

// extend guesses the letter of sis and returns one successor per outcome
// above MinOutcomeWeight.
func (a *BeamSearchAnalyser) extend(g *graphics.Group, hyp *sequence.LetterSequence, sis sequence.ShapeInSequence) ([]*sequence.LetterSequence, error) {
	ds, err := a.guesser.Classify(letter.Context{
		Shape:     sis,
		ShapeData: g.Arena().Shape(sis.Shape),
		History:   hyp,
	})
	if err != nil {
		return nil, fmt.Errorf("guess letter at %s: %w", recovery.GroupLocation(g).WithShape(sis.Index), err)
	}
	var out []*sequence.LetterSequence
	for _, d := range ds {
		if d.Probability <= a.cfg.MinOutcomeWeight {
			continue
		}
		next, err := hyp.Extend(d.Outcome, decision.Decision{Outcome: d.Outcome, Probability: d.Probability})
		if err != nil {
			return nil, err
		}
		out = append(out, next)
	}
	return out, nil
}

// commit publishes the decision for g.
func (a *BeamSearchAnalyser) commit(g *graphics.Group, seq *sequence.LetterSequence) {
	a.observers.startSequence(g, seq)
	for i, sis := range seq.Underlying().Shapes() {
		a.observers.guessLetter(g, sis, seq.Letter(i))
	}
	a.observers.guessSequence(g, seq)
	a.stats.Letters += seq.Len()
	a.progress.add(len(g.Shapes))
}

// warn routes a warning through the recovery strategy and returns it when
// decoding must stop.
func (a *BeamSearchAnalyser) warn(w *recovery.DecodeWarning) error {
	a.stats.Warnings++
	switch a.strategy.OnWarning(w) {
	case recovery.ActionFail:
		return w
	case recovery.ActionWarn:
		a.logger.Warn("decode warning",
			observability.String("kind", w.Kind.String()),
			observability.String("at", w.Location.String()),
			observability.String("detail", w.Detail))
	}
	return nil
}
