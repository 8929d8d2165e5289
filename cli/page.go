package cli

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/go-text/typesetting/di"
	"golang.org/x/image/draw"

	"github.com/urieli/jochre-sub004/graphics"
)

// pageFile is the JSON description of a segmented page.
type pageFile struct {
	Name string `json:"name"`
	// Locale overrides the configured locale for this page.
	Locale string `json:"locale,omitempty"`
	// Image is an optional scan, relative to the JSON file, whose pixels
	// back the shapes.
	Image      string          `json:"image,omitempty"`
	Paragraphs []paragraphFile `json:"paragraphs"`
}

type paragraphFile struct {
	Rows []rowFile `json:"rows"`
}

type rowFile struct {
	XHeight int         `json:"xHeight"`
	Groups  []groupFile `json:"groups"`
}

type groupFile struct {
	Shapes []shapeFile `json:"shapes"`
}

type shapeFile struct {
	// Rect holds the inclusive bounds left, top, right, bottom.
	Rect    [4]int `json:"rect"`
	XHeight int    `json:"xHeight,omitempty"`
}

// loadPage reads a page description and builds its page model. dir is the
// reading direction used when the page names no locale.
func loadPage(path string, dir di.Direction) (*graphics.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	var pf pageFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse page %s: %w", path, err)
	}
	if pf.Locale != "" {
		dir = graphics.LocaleDirection(pf.Locale)
	}
	name := pf.Name
	if name == "" {
		name = filepath.Base(path)
	}

	var pixels *image.Gray
	if pf.Image != "" {
		pixels, err = loadGray(filepath.Join(filepath.Dir(path), pf.Image))
		if err != nil {
			return nil, err
		}
	}

	img := graphics.NewImage(name, dir)
	for pi, p := range pf.Paragraphs {
		para := img.AddParagraph()
		for ri, r := range p.Rows {
			row := para.AddRow(r.XHeight)
			for gi, g := range r.Groups {
				ids := make([]graphics.ShapeID, 0, len(g.Shapes))
				for si, s := range g.Shapes {
					rect := graphics.Rect(s.Rect[0], s.Rect[1], s.Rect[2], s.Rect[3])
					if rect.IsEmpty() {
						return nil, fmt.Errorf("page %s: paragraph %d row %d group %d shape %d: empty rect %v", path, pi, ri, gi, si, s.Rect)
					}
					xHeight := s.XHeight
					if xHeight == 0 {
						xHeight = r.XHeight
					}
					ids = append(ids, img.Arena.Add(rect, xHeight, pixels))
				}
				row.AddGroup(ids...)
			}
		}
	}
	return img, nil
}

// loadGray decodes a scan into grayscale.
func loadGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scan: %w", err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode scan %s: %w", path, err)
	}
	if g, ok := src.(*image.Gray); ok {
		return g, nil
	}
	gray := image.NewGray(src.Bounds())
	draw.Draw(gray, gray.Bounds(), src, src.Bounds().Min, draw.Src)
	return gray, nil
}
