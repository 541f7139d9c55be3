package report

import (
	"bytes"
	"fmt"
	"image/color"
)

// RenderPage draws one page as a PNG: black text on white, with a page
// footer centered in the bottom margin.
func RenderPage(p Page, l Layout) ([]byte, error) {
	w, h := int(l.Width), int(l.Height)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("invalid page size %dx%d", w, h)
	}

	dc := l.context(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	dc.SetColor(color.Black)
	lh := l.lineHeight(dc)
	for i, line := range p.Lines {
		if line == "" {
			continue
		}
		dc.DrawString(line, l.Margin, l.Margin+float64(i+1)*lh)
	}

	if p.Total > 0 {
		dc.SetColor(color.Gray{Y: 0x80})
		dc.DrawStringAnchored(fmt.Sprintf("Page %d of %d", p.Number, p.Total), l.Width/2, l.Height-l.Margin/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
