package graphics

// ProjectionSplitFinder proposes splits inside valleys of the vertical ink
// projection, which is where touching glyphs usually meet.
type ProjectionSplitFinder struct {
	// MinDistance keeps candidates away from the shape edges, in pixels.
	MinDistance int
	// MaxInkRatio is the largest column ink count, relative to the shape
	// height, still accepted as a valley.
	MaxInkRatio float64
}

// NewProjectionSplitFinder returns a finder with defaults tuned for body text.
func NewProjectionSplitFinder() *ProjectionSplitFinder {
	return &ProjectionSplitFinder{MinDistance: 2, MaxInkRatio: 0.25}
}

func (f *ProjectionSplitFinder) FindSplitCandidates(shape *Shape) []Split {
	if shape == nil || shape.Pixels == nil {
		return nil
	}
	width := shape.Width()
	minDist := max(f.MinDistance, 1)
	if width < 3 || width <= 2*minDist {
		return nil
	}
	counts := make([]int, width)
	for x := 0; x < width; x++ {
		for y := shape.Rect.Top; y <= shape.Rect.Bottom; y++ {
			if shape.IsInk(shape.Rect.Left+x, y) {
				counts[x]++
			}
		}
	}
	limit := int(f.MaxInkRatio * float64(shape.Height()))

	var splits []Split
	for x := 1; x < width-1; {
		c := counts[x]
		end := x
		for end+1 < width-1 && counts[end+1] == c {
			end++
		}
		if c <= limit && counts[x-1] > c && counts[end+1] > c {
			pos := (x + end + 1) / 2
			if pos >= minDist && width-pos >= minDist {
				splits = append(splits, Split{Shape: shape.ID, Position: pos})
			}
		}
		x = end + 1
	}
	return splits
}
