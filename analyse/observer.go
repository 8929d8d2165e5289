package analyse

import (
	"github.com/urieli/jochre-sub004/graphics"
	"github.com/urieli/jochre-sub004/sequence"
)

// Observer receives decoding events synchronously. Observers are called in
// registration order for every event.
type Observer interface {
	OnImageStart(img *graphics.Image)
	// OnBeamSearchEnd reports the finalists of a group, best first, before
	// any re-ranking or holdover decision.
	OnBeamSearchEnd(g *graphics.Group, finalists []*sequence.LetterSequence)
	OnStartSequence(g *graphics.Group, seq *sequence.LetterSequence)
	OnGuessLetter(g *graphics.Group, shape sequence.ShapeInSequence, letter string)
	OnGuessSequence(g *graphics.Group, seq *sequence.LetterSequence)
	OnImageEnd(img *graphics.Image)
	OnFinish()
}

// BaseObserver implements Observer with no-ops, for embedding.
type BaseObserver struct{}

func (BaseObserver) OnImageStart(*graphics.Image)                                    {}
func (BaseObserver) OnBeamSearchEnd(*graphics.Group, []*sequence.LetterSequence)     {}
func (BaseObserver) OnStartSequence(*graphics.Group, *sequence.LetterSequence)       {}
func (BaseObserver) OnGuessLetter(*graphics.Group, sequence.ShapeInSequence, string) {}
func (BaseObserver) OnGuessSequence(*graphics.Group, *sequence.LetterSequence)       {}
func (BaseObserver) OnImageEnd(*graphics.Image)                                      {}
func (BaseObserver) OnFinish()                                                       {}

// observers fans events out in order.
type observers []Observer

func (os observers) imageStart(img *graphics.Image) {
	for _, o := range os {
		o.OnImageStart(img)
	}
}

func (os observers) beamSearchEnd(g *graphics.Group, finalists []*sequence.LetterSequence) {
	for _, o := range os {
		o.OnBeamSearchEnd(g, finalists)
	}
}

func (os observers) startSequence(g *graphics.Group, seq *sequence.LetterSequence) {
	for _, o := range os {
		o.OnStartSequence(g, seq)
	}
}

func (os observers) guessLetter(g *graphics.Group, shape sequence.ShapeInSequence, letter string) {
	for _, o := range os {
		o.OnGuessLetter(g, shape, letter)
	}
}

func (os observers) guessSequence(g *graphics.Group, seq *sequence.LetterSequence) {
	for _, o := range os {
		o.OnGuessSequence(g, seq)
	}
}

func (os observers) imageEnd(img *graphics.Image) {
	for _, o := range os {
		o.OnImageEnd(img)
	}
}

func (os observers) finish() {
	for _, o := range os {
		o.OnFinish()
	}
}

// TextCollector is an Observer that gathers the committed text of each
// row, words joined by spaces.
type TextCollector struct {
	BaseObserver
	rows  [][]string
	words map[*graphics.Group]string
}

func NewTextCollector() *TextCollector {
	return &TextCollector{words: make(map[*graphics.Group]string)}
}

func (c *TextCollector) OnImageStart(img *graphics.Image) {
	for _, p := range img.Paragraphs {
		for _, r := range p.Rows {
			for _, g := range r.Groups {
				delete(c.words, g)
			}
		}
	}
}

func (c *TextCollector) OnGuessSequence(g *graphics.Group, seq *sequence.LetterSequence) {
	c.words[g] = seq.Text()
}

func (c *TextCollector) OnImageEnd(img *graphics.Image) {
	for _, p := range img.Paragraphs {
		for _, r := range p.Rows {
			var row []string
			for _, g := range r.Groups {
				if w, ok := c.words[g]; ok && w != "" {
					row = append(row, w)
				}
			}
			c.rows = append(c.rows, row)
		}
	}
}

// Rows returns the words of every decoded row, in reading order.
func (c *TextCollector) Rows() [][]string { return c.rows }
