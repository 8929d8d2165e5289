package graphics

import (
	"fmt"
	"image"
)

// ShapeID addresses a shape inside its Arena. IDs are dense and never reused.
type ShapeID int

// InkThreshold is the gray level below which a pixel counts as ink.
const InkThreshold = 128

// Shape is a connected-ink unit. Shapes are immutable once added to an arena.
type Shape struct {
	ID   ShapeID
	Rect Rectangle
	// XHeight is the height of a lower-case letter body on the shape's row,
	// used to normalise widths. Zero falls back to the shape height.
	XHeight int
	// Pixels covers Rect in page coordinates. Nil when the caller only
	// supplied geometry.
	Pixels *image.Gray
	// Original lists the upstream shapes this shape was split or merged from.
	// Empty for shapes produced directly by upstream segmentation.
	Original []ShapeID
}

func (s *Shape) Width() int  { return s.Rect.Width() }
func (s *Shape) Height() int { return s.Rect.Height() }

// EffectiveXHeight returns XHeight, or the shape height when unknown.
func (s *Shape) EffectiveXHeight() int {
	if s.XHeight > 0 {
		return s.XHeight
	}
	return s.Height()
}

// IsInk reports whether the page pixel (x, y) inside the shape is dark.
func (s *Shape) IsInk(x, y int) bool {
	if s.Pixels == nil {
		return false
	}
	if !(image.Point{X: x, Y: y}).In(s.Pixels.Rect) {
		return false
	}
	return s.Pixels.GrayAt(x, y).Y < InkThreshold
}

// Origins returns the upstream shapes this shape derives from, which is the
// shape itself for an unsplit, unmerged shape.
func (s *Shape) Origins() []ShapeID {
	if len(s.Original) == 0 {
		return []ShapeID{s.ID}
	}
	return append([]ShapeID(nil), s.Original...)
}

func (s *Shape) String() string {
	return fmt.Sprintf("shape#%d%s", s.ID, s.Rect)
}

// Arena owns every shape of an image. Splitting and merging add new shapes
// and record the relationship as ID lists instead of object references.
type Arena struct {
	shapes []*Shape
}

func NewArena() *Arena {
	return &Arena{}
}

// Add registers an upstream shape. pixels may be nil; when given it must
// cover rect in page coordinates.
func (a *Arena) Add(rect Rectangle, xHeight int, pixels *image.Gray) ShapeID {
	id := ShapeID(len(a.shapes))
	a.shapes = append(a.shapes, &Shape{ID: id, Rect: rect, XHeight: xHeight, Pixels: pixels})
	return id
}

// Shape returns the shape with the given ID, or nil when unknown.
func (a *Arena) Shape(id ShapeID) *Shape {
	if id < 0 || int(id) >= len(a.shapes) {
		return nil
	}
	return a.shapes[id]
}

// Len returns the number of shapes in the arena, derived shapes included.
func (a *Arena) Len() int { return len(a.shapes) }

// SplitAt divides a shape at offset columns from its left edge. The left
// child covers [Left, Left+offset), the right child the remainder.
func (a *Arena) SplitAt(id ShapeID, offset int) (ShapeID, ShapeID, error) {
	s := a.Shape(id)
	if s == nil {
		return 0, 0, fmt.Errorf("split: unknown shape %d", id)
	}
	if offset <= 0 || offset >= s.Width() {
		return 0, 0, fmt.Errorf("split: offset %d outside shape %s", offset, s)
	}
	leftRect := Rect(s.Rect.Left, s.Rect.Top, s.Rect.Left+offset-1, s.Rect.Bottom)
	rightRect := Rect(s.Rect.Left+offset, s.Rect.Top, s.Rect.Right, s.Rect.Bottom)
	left := a.derive(s, leftRect, s.Origins())
	right := a.derive(s, rightRect, s.Origins())
	return left, right, nil
}

func (a *Arena) derive(parent *Shape, rect Rectangle, origins []ShapeID) ShapeID {
	child := &Shape{
		ID:       ShapeID(len(a.shapes)),
		Rect:     rect,
		XHeight:  parent.XHeight,
		Original: origins,
	}
	if parent.Pixels != nil {
		if sub, ok := parent.Pixels.SubImage(rect.Image()).(*image.Gray); ok {
			child.Pixels = sub
		}
	}
	a.shapes = append(a.shapes, child)
	return child.ID
}
