package report

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Layout is the fixed page geometry used for printable output. Sizes are
// in pixels at 72 DPI, so the defaults match an A4 sheet in points.
type Layout struct {
	Width       float64
	Height      float64
	Margin      float64
	LineSpacing float64
	// Face is the font used to measure and draw text. Nil means
	// basicfont.Face7x13.
	Face font.Face
}

// DefaultLayout is A4 portrait with a 48pt margin.
func DefaultLayout() Layout {
	return Layout{Width: 595, Height: 842, Margin: 48, LineSpacing: 1.4}
}

// Page is one printable page of wrapped lines.
type Page struct {
	Number int      `json:"number"`
	Total  int      `json:"total"`
	Lines  []string `json:"lines"`
}

// LoadFontFace parses a TrueType file at the given point size.
func LoadFontFace(path string, size float64) (font.Face, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsed, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

func (l Layout) face() font.Face {
	if l.Face == nil {
		return basicfont.Face7x13
	}
	return l.Face
}

func (l Layout) context(w, h int) *gg.Context {
	dc := gg.NewContext(w, h)
	dc.SetFontFace(l.face())
	return dc
}

// lineHeight is the font height times the spacing factor.
func (l Layout) lineHeight(dc *gg.Context) float64 {
	spacing := l.LineSpacing
	if spacing <= 0 {
		spacing = 1
	}
	return dc.FontHeight() * spacing
}

// ContentWidth is the printable width inside the margins.
func (l Layout) ContentWidth() float64 {
	return math.Max(l.Width-2*l.Margin, 1)
}

// ContentHeight is the printable height inside the margins.
func (l Layout) ContentHeight() float64 {
	return math.Max(l.Height-2*l.Margin, 1)
}

// Paginate splits text into paragraphs on line breaks, word-wraps each
// paragraph to the content width, and starts a new page whenever the next
// line would run past the content height. Blank paragraphs are kept as
// spacing except at the top of a page. At least one page is returned.
func Paginate(text string, l Layout) []Page {
	dc := l.context(1, 1)
	lh := l.lineHeight(dc)
	width := l.ContentWidth()
	height := l.ContentHeight()

	var pages []Page
	var current []string
	y := 0.0

	flush := func() {
		pages = append(pages, Page{Number: len(pages) + 1, Lines: current})
		current = nil
		y = 0
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, para := range strings.Split(text, "\n") {
		lines := dc.WordWrap(para, width)
		if len(lines) == 0 {
			lines = []string{""}
		}
		for _, line := range lines {
			if y+lh > height && len(current) > 0 {
				flush()
			}
			if line == "" && len(current) == 0 && len(pages) > 0 {
				continue
			}
			current = append(current, line)
			y += lh
		}
	}
	if len(current) > 0 || len(pages) == 0 {
		flush()
	}

	for i := range pages {
		pages[i].Total = len(pages)
	}
	return pages
}
