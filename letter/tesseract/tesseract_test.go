package tesseract

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"testing"

	"github.com/go-text/typesetting/di"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/letter"
	"github.com/urieli/jochre-sub004/sequence"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

// glyph draws s with the basic 7x13 face onto a white page and registers the
// inked area as one shape.
func glyph(s string) (*graphics.Group, graphics.ShapeID) {
	page := image.NewGray(image.Rect(0, 0, 40, 20))
	draw.Draw(page, page.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: page, Src: image.Black, Face: basicfont.Face7x13, Dot: fixed.P(10, 15)}
	d.DrawString(s)

	img := graphics.NewImage("glyph", di.DirectionLTR)
	row := img.AddParagraph().AddRow(7)
	id := img.Arena.Add(graphics.Rect(10, 3, 16, 15), 7, page)
	return row.AddGroup(id), id
}

func TestRenderScalesAndPads(t *testing.T) {
	g, id := glyph("A")
	guesser := NewGuesser("eng")
	data, err := guesser.render(g.Arena().Shape(id))
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	out, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode rendered shape: %v", err)
	}
	if got, want := out.Bounds().Dx(), 7*4+16; got != want {
		t.Fatalf("width = %d, want %d", got, want)
	}
	if got, want := out.Bounds().Dy(), 13*4+16; got != want {
		t.Fatalf("height = %d, want %d", got, want)
	}
	if r, _, _, _ := out.At(0, 0).RGBA(); r != 0xffff {
		t.Fatalf("padding should be white")
	}
}

func TestToDecisions(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Word: "ב", Confidence: 40},
		{Word: "כ", Confidence: 85},
		{Word: "ב", Confidence: 60},
		{Word: " ", Confidence: 99},
	}
	ds := toDecisions(boxes, "כ")
	if len(ds) != 2 {
		t.Fatalf("expected 2 decisions, got %v", ds)
	}
	if ds[0].Outcome != "כ" || ds[0].Probability != 0.85 {
		t.Fatalf("unexpected best decision: %v", ds[0])
	}
	if ds[1].Outcome != "ב" || ds[1].Probability != 0.6 {
		t.Fatalf("duplicate symbols should keep the best confidence: %v", ds[1])
	}

	ds = toDecisions(nil, "x")
	if len(ds) != 1 || ds[0].Outcome != "x" || ds[0].Probability != 1 {
		t.Fatalf("text fallback = %v", ds)
	}
	if ds := toDecisions(nil, ""); len(ds) != 0 {
		t.Fatalf("expected no decisions, got %v", ds)
	}
}

func TestClassifyWithoutPixels(t *testing.T) {
	ds, err := NewGuesser("eng").Classify(letter.Context{ShapeData: &graphics.Shape{Rect: graphics.Rect(0, 0, 5, 5)}})
	if err != nil || len(ds) != 0 {
		t.Fatalf("expected no decisions and no error, got %v, %v", ds, err)
	}
}

func TestClassifyRecognisesGlyph(t *testing.T) {
	ensureTesseractAvailable(t)

	g, id := glyph("A")
	seq := sequence.FromGroup(g)
	guesser := NewGuesser("eng")
	opened := 0
	guesser.clientFactory = func() *gosseract.Client {
		opened++
		return gosseract.NewClient()
	}
	defer guesser.Close()

	for i := 0; i < 2; i++ {
		ds, err := guesser.Classify(letter.Context{Shape: seq.At(0), ShapeData: g.Arena().Shape(id)})
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if len(ds) == 0 {
			t.Fatalf("expected at least one guess")
		}
		for _, d := range ds {
			if d.Probability < 0 || d.Probability > 1 {
				t.Fatalf("probability out of range: %v", d)
			}
		}
	}
	if opened != 1 {
		t.Fatalf("client opened %d times, want 1", opened)
	}
	if err := guesser.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if guesser.client != nil {
		t.Fatalf("Close should release the client")
	}
}

func TestCloseUnused(t *testing.T) {
	guesser := NewGuesser("eng")
	guesser.clientFactory = func() *gosseract.Client {
		t.Fatalf("an unused guesser should not open a client")
		return nil
	}
	if err := guesser.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
