package graphics

import (
	"fmt"

	"github.com/go-text/typesetting/di"
)

// Image is one scanned page: its shape arena plus the reading-order
// hierarchy built on top of it.
type Image struct {
	Name       string
	Index      int
	Direction  di.Direction
	Arena      *Arena
	Paragraphs []*Paragraph
}

// NewImage creates an empty page read in the given direction.
func NewImage(name string, dir di.Direction) *Image {
	return &Image{Name: name, Direction: dir, Arena: NewArena()}
}

// LeftToRight reports whether rows are read from the left edge.
func (img *Image) LeftToRight() bool { return img.Direction != di.DirectionRTL }

// AddParagraph appends a paragraph in reading order.
func (img *Image) AddParagraph() *Paragraph {
	p := &Paragraph{Index: len(img.Paragraphs), Image: img}
	img.Paragraphs = append(img.Paragraphs, p)
	return p
}

// ShapeCount returns the number of upstream shapes referenced by groups.
func (img *Image) ShapeCount() int {
	n := 0
	for _, p := range img.Paragraphs {
		for _, r := range p.Rows {
			for _, g := range r.Groups {
				n += len(g.Shapes)
			}
		}
	}
	return n
}

type Paragraph struct {
	Index int
	Image *Image
	Rows  []*Row
}

// AddRow appends a row whose letters have the given x-height.
func (p *Paragraph) AddRow(xHeight int) *Row {
	r := &Row{Index: len(p.Rows), Paragraph: p, XHeight: xHeight}
	p.Rows = append(p.Rows, r)
	return r
}

type Row struct {
	Index     int
	Paragraph *Paragraph
	XHeight   int
	Groups    []*Group
}

// AddGroup appends a word group made of the given shapes, listed in reading
// order.
func (r *Row) AddGroup(shapes ...ShapeID) *Group {
	g := &Group{Index: len(r.Groups), Row: r, Shapes: append([]ShapeID(nil), shapes...)}
	r.Groups = append(r.Groups, g)
	return g
}

// IsLastInParagraph reports whether no row follows r in its paragraph.
func (r *Row) IsLastInParagraph() bool {
	return r.Index == len(r.Paragraph.Rows)-1
}

// Group is a word-level cluster of shapes on a row.
type Group struct {
	Index  int
	Row    *Row
	Shapes []ShapeID
}

func (g *Group) Image() *Image { return g.Row.Paragraph.Image }
func (g *Group) Arena() *Arena { return g.Image().Arena }

// IsLastInRow reports whether g closes its row.
func (g *Group) IsLastInRow() bool {
	return g.Index == len(g.Row.Groups)-1
}

// Rect returns the union of the group's shapes.
func (g *Group) Rect() Rectangle {
	arena := g.Arena()
	r := Rectangle{Left: 0, Top: 0, Right: -1, Bottom: -1}
	for _, id := range g.Shapes {
		if s := arena.Shape(id); s != nil {
			r = r.Union(s.Rect)
		}
	}
	return r
}

// XHeight returns the row x-height, falling back to the first shape's.
func (g *Group) XHeight() int {
	if g.Row.XHeight > 0 {
		return g.Row.XHeight
	}
	for _, id := range g.Shapes {
		if s := g.Arena().Shape(id); s != nil {
			return s.EffectiveXHeight()
		}
	}
	return 0
}

// Key identifies the group within its image, e.g. "p0r2g3".
func (g *Group) Key() string {
	return fmt.Sprintf("p%dr%dg%d", g.Row.Paragraph.Index, g.Row.Index, g.Index)
}

func (g *Group) String() string { return g.Key() }
