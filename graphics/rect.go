package graphics

import (
	"fmt"
	"image"
)

// Rectangle is an inclusive pixel rectangle: a shape occupying a single
// column has Left == Right.
type Rectangle struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Rect builds a rectangle from its inclusive bounds.
func Rect(left, top, right, bottom int) Rectangle {
	return Rectangle{Left: left, Top: top, Right: right, Bottom: bottom}
}

func (r Rectangle) Width() int  { return r.Right - r.Left + 1 }
func (r Rectangle) Height() int { return r.Bottom - r.Top + 1 }

// IsEmpty reports whether the rectangle has non-positive dimensions.
func (r Rectangle) IsEmpty() bool { return r.Right < r.Left || r.Bottom < r.Top }

// Union returns the smallest rectangle containing both r and o. An empty
// operand is ignored.
func (r Rectangle) Union(o Rectangle) Rectangle {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rectangle{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

// Image returns the half-open image.Rectangle covering r.
func (r Rectangle) Image() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right+1, r.Bottom+1)
}

func (r Rectangle) String() string {
	return fmt.Sprintf("[%d,%d %d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}
