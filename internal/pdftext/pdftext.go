// Package pdftext extracts positioned text primitives from PDF files
// for layout analysis. It is a thin adapter; everything semantic
// happens in the layout package.
package pdftext

import (
	"fmt"
	"io"
	"os"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/pagelens/pagelens/layout"
	"github.com/pagelens/pagelens/model"
)

// US Letter, used when a page carries no usable MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// ExtractFile reads a PDF from disk and returns one PageInput per page.
// Pages that cannot be decoded are returned empty rather than failing
// the whole document.
func ExtractFile(path string) ([]layout.PageInput, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	inputs := make([]layout.PageInput, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		width, height := pageSize(page)
		input := layout.PageInput{Number: i, Width: width, Height: height}
		if !page.V.IsNull() {
			for _, t := range page.Content().Text {
				input.Primitives = append(input.Primitives, toPrimitive(t, height))
			}
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// Extract reads a PDF from a stream. The underlying library needs a
// ReadSeeker plus size, so the stream is spooled to a temp file first.
func Extract(r io.Reader) ([]layout.PageInput, error) {
	tmp, err := os.CreateTemp("", "pagelens-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	return ExtractFile(tmpPath)
}

// toPrimitive converts one library text run into an engine primitive.
// The library reports the baseline origin in y-up page coordinates; the
// engine wants a y-down bbox, with the glyph box approximated by the
// font size above the baseline.
func toPrimitive(t pdflib.Text, pageHeight float64) model.TextPrimitive {
	y1 := pageHeight - t.Y
	y0 := y1 - t.FontSize
	if y0 > y1 {
		y0 = y1
	}
	return model.TextPrimitive{
		BBox:     model.BBox{X0: t.X, Y0: y0, X1: t.X + t.W, Y1: y1},
		Text:     t.S,
		FontName: t.Font,
		FontSize: t.FontSize,
	}
}

// pageSize resolves the page dimensions from the MediaBox, walking up
// the page tree for the inheritable attribute.
func pageSize(page pdflib.Page) (width, height float64) {
	box := page.V.Key("MediaBox")
	for v := page.V; box.IsNull() && !v.IsNull(); v = v.Key("Parent") {
		box = v.Key("MediaBox")
	}
	if box.IsNull() || box.Len() != 4 {
		return defaultPageWidth, defaultPageHeight
	}
	width = box.Index(2).Float64() - box.Index(0).Float64()
	height = box.Index(3).Float64() - box.Index(1).Float64()
	if width <= 0 || height <= 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return width, height
}
