package sequence

import (
	"fmt"
	"math"

	"github.com/urieli/jochre-sub004/decision"
)

// ScoringStrategy folds the decisions of a letter sequence into a score.
type ScoringStrategy interface {
	Name() string
	Score(ds []decision.Decision) float64
}

// ProductScoring multiplies probabilities. Appending a decision never raises
// the score, which keeps beam comparisons monotone.
type ProductScoring struct{}

func (ProductScoring) Name() string { return "product" }

func (ProductScoring) Score(ds []decision.Decision) float64 {
	score := 1.0
	for _, d := range ds {
		score *= d.Probability
	}
	return score
}

// GeometricMeanScoring averages log-probabilities, which does not penalise
// longer sequences.
type GeometricMeanScoring struct{}

func (GeometricMeanScoring) Name() string { return "geometric-mean" }

func (GeometricMeanScoring) Score(ds []decision.Decision) float64 {
	if len(ds) == 0 {
		return 1
	}
	var sum float64
	for _, d := range ds {
		if d.Probability <= 0 {
			return 0
		}
		sum += math.Log(d.Probability)
	}
	return math.Exp(sum / float64(len(ds)))
}

// HarmonicMeanScoring is dominated by the least certain decision.
type HarmonicMeanScoring struct{}

func (HarmonicMeanScoring) Name() string { return "harmonic-mean" }

func (HarmonicMeanScoring) Score(ds []decision.Decision) float64 {
	if len(ds) == 0 {
		return 1
	}
	var inv float64
	for _, d := range ds {
		if d.Probability <= 0 {
			return 0
		}
		inv += 1 / d.Probability
	}
	return float64(len(ds)) / inv
}

// DefaultScoring is the strategy used when none is configured.
var DefaultScoring ScoringStrategy = ProductScoring{}

// ScoringByName resolves a strategy name as used in configuration files.
func ScoringByName(name string) (ScoringStrategy, error) {
	switch name {
	case "", "product":
		return ProductScoring{}, nil
	case "geometric-mean", "geometric":
		return GeometricMeanScoring{}, nil
	case "harmonic-mean", "harmonic":
		return HarmonicMeanScoring{}, nil
	default:
		return nil, fmt.Errorf("unknown scoring strategy %q", name)
	}
}
