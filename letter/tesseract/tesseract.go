// Package tesseract guesses letters with the Tesseract engine run in
// single-character mode on each shape's pixels.
package tesseract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/draw"

	"github.com/urieli/jochre-sub004/decision"
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/letter"
)

// Guesser implements letter.Guesser. It keeps one Tesseract client, opened
// on first use, so trained data is loaded once; Close releases it. Calls are
// serialised, so a Guesser may be shared between analysers.
type Guesser struct {
	Languages []string
	// Whitelist restricts the recognised characters when not empty.
	Whitelist string
	// Scale enlarges the shape before recognition; glyphs from a page scan
	// are usually far below the size Tesseract is tuned for.
	Scale   int
	Padding int

	clientFactory func() *gosseract.Client
	mu            sync.Mutex
	client        *gosseract.Client
}

// NewGuesser returns a guesser for the given Tesseract languages, for
// example "yid" or "heb".
func NewGuesser(languages ...string) *Guesser {
	return &Guesser{
		Languages:     languages,
		Scale:         4,
		Padding:       8,
		clientFactory: gosseract.NewClient,
	}
}

var _ letter.Guesser = (*Guesser)(nil)

// Classify recognises the shape as one character. Each symbol Tesseract
// reports becomes a decision weighted by its confidence; a shape without
// pixels yields no decisions.
func (g *Guesser) Classify(ctx letter.Context) ([]decision.Decision, error) {
	if ctx.ShapeData == nil || ctx.ShapeData.Pixels == nil {
		return nil, nil
	}
	data, err := g.render(ctx.ShapeData)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	c, err := g.open()
	if err != nil {
		return nil, err
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize shape %d: %w", ctx.ShapeData.ID, err)
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, fmt.Errorf("symbol boxes for shape %d: %w", ctx.ShapeData.ID, err)
	}
	return toDecisions(boxes, strings.TrimSpace(text)), nil
}

// open returns the shared client, creating and configuring it on first use.
func (g *Guesser) open() (*gosseract.Client, error) {
	if g.client != nil {
		return g.client, nil
	}
	c := g.clientFactory()
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		c.Close()
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}
	if len(g.Languages) > 0 {
		if err := c.SetLanguage(g.Languages...); err != nil {
			c.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if g.Whitelist != "" {
		if err := c.SetWhitelist(g.Whitelist); err != nil {
			c.Close()
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
	}
	g.client = c
	return c, nil
}

// Close releases the Tesseract client. The next Classify opens a new one.
func (g *Guesser) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

// render crops the shape, scales it up and pads it with white.
func (g *Guesser) render(s *graphics.Shape) ([]byte, error) {
	scale := max(g.Scale, 1)
	pad := max(g.Padding, 0)
	src := s.Pixels.SubImage(s.Rect.Image())
	w, h := s.Width()*scale, s.Height()*scale

	dst := image.NewGray(image.Rect(0, 0, w+2*pad, h+2*pad))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, image.Rect(pad, pad, pad+w, pad+h), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode shape %d: %w", s.ID, err)
	}
	return buf.Bytes(), nil
}

// toDecisions keeps the best confidence per symbol. Recognised text with no
// symbol boxes is taken at face value.
func toDecisions(boxes []gosseract.BoundingBox, text string) []decision.Decision {
	best := make(map[string]float64)
	var order []string
	for _, b := range boxes {
		symbol := strings.TrimSpace(b.Word)
		if symbol == "" {
			continue
		}
		p := min(max(b.Confidence/100.0, 0), 1)
		prev, seen := best[symbol]
		if !seen {
			order = append(order, symbol)
		}
		if !seen || p > prev {
			best[symbol] = p
		}
	}
	if len(order) == 0 && text != "" {
		return []decision.Decision{{Outcome: text, Probability: 1}}
	}
	out := make([]decision.Decision, 0, len(order))
	for _, symbol := range order {
		out = append(out, decision.Decision{Outcome: symbol, Probability: best[symbol]})
	}
	decision.Sort(out)
	return out
}
