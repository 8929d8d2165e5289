package graphics

// Split is a candidate interior position at which a shape may be divided.
// Position counts columns from the shape's left edge and lies in
// (0, width).
type Split struct {
	Shape    ShapeID
	Position int
}

// SplitCandidateFinder proposes split positions for a shape.
type SplitCandidateFinder interface {
	FindSplitCandidates(shape *Shape) []Split
}

// SplitCandidateFinderFunc adapts a function to SplitCandidateFinder.
type SplitCandidateFinderFunc func(shape *Shape) []Split

func (f SplitCandidateFinderFunc) FindSplitCandidates(shape *Shape) []Split { return f(shape) }
