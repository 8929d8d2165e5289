package letter

import (
	"image"
	"reflect"
	"testing"

	"github.com/go-text/typesetting/di"

	"github.com/urieli/jochre-sub004/decision"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/sequence"
)

func TestContextView(t *testing.T) {
	img := graphics.NewImage("test", di.DirectionRTL)
	row := img.AddParagraph().AddRow(6)
	pixels := image.NewGray(image.Rect(0, 0, 4, 2))
	for i := range pixels.Pix {
		pixels.Pix[i] = 255
	}
	pixels.Pix[0] = 0
	pixels.Pix[1] = 0
	a := img.Arena.Add(graphics.Rect(0, 0, 3, 1), 6, pixels)
	b := img.Arena.Add(graphics.Rect(10, 0, 13, 1), 6, nil)
	g := row.AddGroup(a, b)

	seq := sequence.FromGroup(g)
	history, err := sequence.NewLetterSequence(seq, nil).Extend("א", decision.Decision{Outcome: "א", Probability: 0.9})
	if err != nil {
		t.Fatalf("Extend() error = %v", err)
	}

	first := Context{Shape: seq.At(0), ShapeData: img.Arena.Shape(a)}
	if first.Previous() != "" {
		t.Fatalf("first letter has no predecessor, got %q", first.Previous())
	}
	if got := first.View()["inkRatio"]; got != 0.25 {
		t.Fatalf("inkRatio = %v", got)
	}

	second := Context{Shape: seq.At(1), ShapeData: img.Arena.Shape(b), History: history}
	v := second.View()
	if v["previous"] != "א" || !reflect.DeepEqual(v["history"], []string{"א"}) {
		t.Fatalf("unexpected history view: %v", v)
	}
	if v["index"] != 1 || v["group"] != "p0r0g0" || v["lastInRow"] != true {
		t.Fatalf("unexpected position view: %v", v)
	}
	if v["inkRatio"] != 0.0 {
		t.Fatalf("shape without pixels should report no ink, got %v", v["inkRatio"])
	}
}
