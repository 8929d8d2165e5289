// Package decision defines the contract shared by every classifier the
// decoder consults: a context goes in, probability-weighted outcomes come
// out. Classifiers are supplied by callers; nothing here trains them.
package decision

import (
	"cmp"
	"fmt"
	"slices"
)

// Decision is one outcome proposed by a classifier with its probability.
type Decision struct {
	Outcome     string
	Probability float64
}

func (d Decision) String() string {
	return fmt.Sprintf("%s(%.4f)", d.Outcome, d.Probability)
}

// Classifier evaluates a context of type C. Implementations return outcomes
// ordered by descending probability; an empty slice means the classifier has
// no opinion.
type Classifier[C any] interface {
	Classify(c C) ([]Decision, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc[C any] func(c C) ([]Decision, error)

func (f ClassifierFunc[C]) Classify(c C) ([]Decision, error) { return f(c) }

// Sort orders decisions by descending probability, keeping the original order
// for equal probabilities.
func Sort(ds []Decision) {
	slices.SortStableFunc(ds, func(a, b Decision) int {
		return cmp.Compare(b.Probability, a.Probability)
	})
}

// Find returns the decision for outcome, if present.
func Find(ds []Decision, outcome string) (Decision, bool) {
	for _, d := range ds {
		if d.Outcome == outcome {
			return d, true
		}
	}
	return Decision{}, false
}

// Validate checks that every probability lies in [0, 1].
func Validate(ds []Decision) error {
	for _, d := range ds {
		if d.Probability < 0 || d.Probability > 1 {
			return fmt.Errorf("decision %q: probability %v outside [0,1]", d.Outcome, d.Probability)
		}
	}
	return nil
}
