package boundary

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/go-text/typesetting/di"

	"github.com/urieli/jochre-sub004/decision"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/observability"
	"github.com/urieli/jochre-sub004/recovery"
	"github.com/urieli/jochre-sub004/sequence"
)

// wideGroup builds a single-row page with n shapes of 40x10 pixels on a row
// whose x-height is 10.
func wideGroup(dir di.Direction, n int) *graphics.Group {
	img := graphics.NewImage("test", dir)
	row := img.AddParagraph().AddRow(10)
	ids := make([]graphics.ShapeID, n)
	for i := range ids {
		ids[i] = img.Arena.Add(graphics.Rect(i*50, 0, i*50+39, 9), 10, nil)
	}
	return row.AddGroup(ids...)
}

// midpoint proposes one split in the middle of every shape.
var midpoint = graphics.SplitCandidateFinderFunc(func(s *graphics.Shape) []graphics.Split {
	if s.Width() < 2 {
		return nil
	}
	return []graphics.Split{{Shape: s.ID, Position: s.Width() / 2}}
})

func constant(pSplit float64) SplitEvaluator {
	return decision.ClassifierFunc[SplitContext](func(SplitContext) ([]decision.Decision, error) {
		return []decision.Decision{
			{Outcome: OutcomeSplit, Probability: pSplit},
			{Outcome: OutcomeNoSplit, Probability: 1 - pSplit},
		}, nil
	})
}

func lengths(seqs []*sequence.ShapeSequence) []int {
	out := make([]int, len(seqs))
	for i, s := range seqs {
		out[i] = s.Len()
	}
	return out
}

func TestSplitTwoLevelTree(t *testing.T) {
	tests := []struct {
		name    string
		pSplit  float64
		lengths []int
		scores  []float64
	}{
		{"even", 0.5, []int{1, 2, 3, 3, 4}, []float64{1, 1, 1, 1, 1}},
		{"favour whole", 0.4, []int{1, 2, 3, 3, 4}, []float64{1, 2.0 / 3, 4.0 / 9, 4.0 / 9, 8.0 / 27}},
		{"favour split", 0.6, []int{4, 3, 3, 2, 1}, []float64{1, 2.0 / 3, 4.0 / 9, 4.0 / 9, 8.0 / 27}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := wideGroup(di.DirectionLTR, 1)
			s := NewRecursiveShapeSplitter(midpoint, constant(tt.pSplit), DefaultSplitterConfig())
			seqs, err := s.Split(g, g.Shapes[0])
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(seqs) != 5 {
				t.Fatalf("expected 5 sequences, got %d", len(seqs))
			}
			got := lengths(seqs)
			for i := range got {
				if got[i] != tt.lengths[i] {
					t.Fatalf("lengths = %v, want %v", got, tt.lengths)
				}
				if math.Abs(seqs[i].Score()-tt.scores[i]) > 1e-9 {
					t.Fatalf("score[%d] = %v, want %v", i, seqs[i].Score(), tt.scores[i])
				}
			}
			keys := make(map[string]bool)
			for _, seq := range seqs {
				keys[seq.Key(g.Arena())] = true
			}
			if len(keys) != 5 {
				t.Fatalf("sequences are not distinct: %v", keys)
			}
		})
	}
}

func TestSplitLogsCandidates(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	g := wideGroup(di.DirectionLTR, 1)
	s := NewRecursiveShapeSplitter(midpoint, constant(0.5), DefaultSplitterConfig(), WithLogger(logger))
	for i := 0; i < 2; i++ {
		buf.Reset()
		if _, err := s.Split(g, g.Shapes[0]); err != nil {
			t.Fatalf("Split() error = %v", err)
		}
		// the root and its two halves each offer one candidate
		if want := observability.MetricSplitCandidates + "=3"; !strings.Contains(buf.String(), want) {
			t.Fatalf("log %q missing %q", buf.String(), want)
		}
	}
}

func TestSplitReadingOrder(t *testing.T) {
	for _, tt := range []struct {
		dir   di.Direction
		first int
	}{
		{di.DirectionLTR, 0},
		{di.DirectionRTL, 20},
	} {
		g := wideGroup(tt.dir, 1)
		s := NewRecursiveShapeSplitter(midpoint, constant(0.4), SplitterConfig{MaxDepth: 1})
		seqs, err := s.Split(g, g.Shapes[0])
		if err != nil {
			t.Fatalf("Split() error = %v", err)
		}
		if len(seqs) != 2 || seqs[1].Len() != 2 {
			t.Fatalf("expected whole and one split, got lengths %v", lengths(seqs))
		}
		first := g.Arena().Shape(seqs[1].At(0).Shape)
		if first.Rect.Left != tt.first {
			t.Fatalf("%v: first piece starts at %d, want %d", tt.dir, first.Rect.Left, tt.first)
		}
		if got := seqs[1].At(1).Index; got != 1 {
			t.Fatalf("second piece index = %d", got)
		}
		if origins := seqs[1].At(0).Original; len(origins) != 1 || origins[0] != g.Shapes[0] {
			t.Fatalf("piece should derive from the upstream shape, got %v", origins)
		}
	}
}

func TestSplitWithoutCandidates(t *testing.T) {
	g := wideGroup(di.DirectionLTR, 1)
	none := graphics.SplitCandidateFinderFunc(func(*graphics.Shape) []graphics.Split { return nil })
	s := NewRecursiveShapeSplitter(none, constant(0.9), DefaultSplitterConfig())
	seqs, err := s.Split(g, g.Shapes[0])
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(seqs) != 1 || seqs[0].Len() != 1 || seqs[0].Score() != 1 {
		t.Fatalf("expected the shape alone with score 1, got %v", lengths(seqs))
	}
	if seqs[0].At(0).Shape != g.Shapes[0] {
		t.Fatalf("shape replaced: %v", seqs[0].At(0).Shape)
	}
}

func TestSplitBounds(t *testing.T) {
	tests := []struct {
		name string
		cfg  SplitterConfig
		want int
	}{
		{"too narrow", SplitterConfig{MinWidthRatio: 5}, 1},
		{"children too narrow", SplitterConfig{MinWidthRatio: 3}, 2},
		{"one level", SplitterConfig{MaxDepth: 1}, 2},
		{"beam", SplitterConfig{BeamWidth: 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := wideGroup(di.DirectionLTR, 1)
			s := NewRecursiveShapeSplitter(midpoint, constant(0.5), tt.cfg)
			seqs, err := s.Split(g, g.Shapes[0])
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(seqs) != tt.want {
				t.Fatalf("got %d sequences, want %d", len(seqs), tt.want)
			}
		})
	}
}

func TestSplitCertainSplit(t *testing.T) {
	g := wideGroup(di.DirectionLTR, 1)
	s := NewRecursiveShapeSplitter(midpoint, constant(1), SplitterConfig{MaxDepth: 1})
	seqs, err := s.Split(g, g.Shapes[0])
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if seqs[0].Len() != 2 || seqs[0].Score() != 1 {
		t.Fatalf("best should be the split, got len %d score %v", seqs[0].Len(), seqs[0].Score())
	}
	if last := seqs[len(seqs)-1]; last.Len() != 1 || last.Score() != 0 {
		t.Fatalf("whole shape should score 0, got len %d score %v", last.Len(), last.Score())
	}
}

func TestSplitExtraOutcomes(t *testing.T) {
	extra := decision.ClassifierFunc[SplitContext](func(SplitContext) ([]decision.Decision, error) {
		return []decision.Decision{
			{Outcome: OutcomeSplit, Probability: 0.5},
			{Outcome: OutcomeNoSplit, Probability: 0.3},
			{Outcome: "MAYBE", Probability: 0.2},
		}, nil
	})

	lenient := recovery.NewLenientStrategy()
	g := wideGroup(di.DirectionLTR, 1)
	s := NewRecursiveShapeSplitter(midpoint, extra, DefaultSplitterConfig(), WithStrategy(lenient))
	if _, err := s.Split(g, g.Shapes[0]); err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if n := lenient.Count(recovery.ExtraOutcomes); n != 1 {
		t.Fatalf("expected one extra-outcomes warning, got %d", n)
	}

	strict := NewRecursiveShapeSplitter(midpoint, extra, DefaultSplitterConfig(), WithStrategy(recovery.NewStrictStrategy()))
	_, err := strict.Split(g, g.Shapes[0])
	var w *recovery.DecodeWarning
	if !errors.As(err, &w) || w.Kind != recovery.ExtraOutcomes {
		t.Fatalf("expected extra-outcomes warning error, got %v", err)
	}
}

func TestSplitClassifierError(t *testing.T) {
	boom := errors.New("model missing")
	failing := decision.ClassifierFunc[SplitContext](func(SplitContext) ([]decision.Decision, error) {
		return nil, boom
	})
	g := wideGroup(di.DirectionLTR, 1)
	s := NewRecursiveShapeSplitter(midpoint, failing, DefaultSplitterConfig())
	if _, err := s.Split(g, g.Shapes[0]); !errors.Is(err, boom) {
		t.Fatalf("expected classifier error, got %v", err)
	}
	if _, err := s.Split(g, graphics.ShapeID(99)); !errors.Is(err, recovery.ErrContractViolation) {
		t.Fatalf("expected contract violation for unknown shape, got %v", err)
	}
}

func TestOriginalBoundaryDetector(t *testing.T) {
	g := wideGroup(di.DirectionLTR, 3)
	seqs, err := OriginalBoundaryDetector{}.FindBoundaries(g)
	if err != nil {
		t.Fatalf("FindBoundaries() error = %v", err)
	}
	if len(seqs) != 1 || seqs[0].Len() != 3 || seqs[0].Score() != 1 {
		t.Fatalf("unexpected identity segmentation: %v", lengths(seqs))
	}
}

func TestProbabilisticBoundaryDetector(t *testing.T) {
	g := wideGroup(di.DirectionLTR, 2)
	s := NewRecursiveShapeSplitter(midpoint, constant(0.4), DefaultSplitterConfig())
	d := NewProbabilisticBoundaryDetector(s, 5)
	seqs, err := d.FindBoundaries(g)
	if err != nil {
		t.Fatalf("FindBoundaries() error = %v", err)
	}
	if len(seqs) != 5 {
		t.Fatalf("expected beam of 5, got %d", len(seqs))
	}
	if seqs[0].Len() != 2 || seqs[0].Score() != 1 {
		t.Fatalf("best should keep both shapes whole, got len %d score %v", seqs[0].Len(), seqs[0].Score())
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i].Score() > seqs[i-1].Score() {
			t.Fatalf("not sorted at %d: %v > %v", i, seqs[i].Score(), seqs[i-1].Score())
		}
	}
	for i := 0; i < seqs[1].Len(); i++ {
		if seqs[1].At(i).Index != i || seqs[1].At(i).Group != g {
			t.Fatalf("bad shape %d in combined sequence: %+v", i, seqs[1].At(i))
		}
	}
}

func TestDeterministicBoundaryDetector(t *testing.T) {
	tests := []struct {
		name      string
		pSplit    float64
		dir       di.Direction
		wantLen   int
		wantFirst int
	}{
		{"unsure", 0.6, di.DirectionLTR, 1, 0},
		{"confident", 0.8, di.DirectionLTR, 4, 0},
		{"confident rtl", 0.8, di.DirectionRTL, 4, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := wideGroup(tt.dir, 1)
			d := NewDeterministicBoundaryDetector(midpoint, constant(tt.pSplit), SplitterConfig{}, 0.7)
			seqs, err := d.FindBoundaries(g)
			if err != nil {
				t.Fatalf("FindBoundaries() error = %v", err)
			}
			if len(seqs) != 1 || seqs[0].Len() != tt.wantLen {
				t.Fatalf("got lengths %v, want single sequence of %d", lengths(seqs), tt.wantLen)
			}
			if left := g.Arena().Shape(seqs[0].At(0).Shape).Rect.Left; left != tt.wantFirst {
				t.Fatalf("first piece starts at %d, want %d", left, tt.wantFirst)
			}
		})
	}
}
