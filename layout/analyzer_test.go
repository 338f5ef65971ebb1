package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/pagelens/pagelens/model"
)

// twoColumnPage builds a realistic two-column page input: a wide title,
// two columns of body lines, and a footer.
func twoColumnPage(number int) PageInput {
	primitives := []model.TextPrimitive{
		makePrimitive(150, 50, 460, 66, "A Title Spanning Both Columns", 16),
		makePrimitive(280, 760, 340, 770, fmt.Sprintf("Page %d", number), 9),
	}
	for i := 0; i < 20; i++ {
		y := 100.0 + float64(i)*15
		primitives = append(primitives,
			makePrimitive(50, y, 250, y+10, "left column body text line", 10),
			makePrimitive(320, y, 520, y+10, "right column body text line", 10),
		)
	}
	return PageInput{Number: number, Width: 612, Height: 792, Primitives: primitives}
}

func TestAnalyzePage_EmptyPage(t *testing.T) {
	analyzer := NewAnalyzer()

	layout, err := analyzer.AnalyzePage(PageInput{Number: 1, Width: 612, Height: 792})
	if err != nil {
		t.Fatalf("empty page must not fail: %v", err)
	}

	if len(layout.Blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(layout.Blocks))
	}
	if len(layout.Columns) != 1 || layout.Columns[0].Start != 0 || layout.Columns[0].End != 612 {
		t.Errorf("expected single full-width column, got %+v", layout.Columns)
	}
	if layout.ColumnConfidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %g", layout.ColumnConfidence)
	}
	if err := layout.Validate(); err != nil {
		t.Errorf("empty layout must validate: %v", err)
	}
}

func TestAnalyzePage_TwoColumnPipeline(t *testing.T) {
	analyzer := NewAnalyzer()

	layout, err := analyzer.AnalyzePage(twoColumnPage(1))
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if err := layout.Validate(); err != nil {
		t.Fatalf("result must satisfy the layout invariants: %v", err)
	}

	if len(layout.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(layout.Columns))
	}
	if layout.ColumnConfidence <= 0.65 {
		t.Errorf("clean two-column page should beat the floor, got %g", layout.ColumnConfidence)
	}

	// The oversized title spans both columns and leads the reading order.
	if len(layout.SpanningBlocks) == 0 {
		t.Fatal("expected the title to be detected as spanning")
	}
	first := layout.BlocksInOrder()[0]
	if first.Text != "A Title Spanning Both Columns" {
		t.Errorf("expected the title first in reading order, got %q", first.Text)
	}
	if first.Type != model.BlockHeading {
		t.Errorf("expected the title classified as heading, got %v", first.Type)
	}

	// Left column content precedes right column content.
	var leftPos, rightPos int
	for _, b := range layout.BlocksInOrder() {
		if b.Spanning {
			continue
		}
		if b.BBox.X0 < 300 && leftPos == 0 {
			leftPos = b.ReadingOrder
		}
		if b.BBox.X0 > 300 && rightPos == 0 {
			rightPos = b.ReadingOrder
		}
	}
	if leftPos >= rightPos {
		t.Errorf("left column should precede right column: %d vs %d", leftPos, rightPos)
	}
}

func TestAnalyzePage_Deterministic(t *testing.T) {
	analyzer := NewAnalyzer()

	first, err := analyzer.AnalyzePage(twoColumnPage(1))
	if err != nil {
		t.Fatal(err)
	}
	second, err := analyzer.AnalyzePage(twoColumnPage(1))
	if err != nil {
		t.Fatal(err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Error("repeated analysis of the same input must be byte-identical")
	}
}

func TestAnalyzePage_RejectsNegativeDimensions(t *testing.T) {
	analyzer := NewAnalyzer()

	_, err := analyzer.AnalyzePage(PageInput{Number: 1, Width: -612, Height: 792})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyzePage_RejectsInvertedBBox(t *testing.T) {
	analyzer := NewAnalyzer()

	input := PageInput{
		Number: 1, Width: 612, Height: 792,
		Primitives: []model.TextPrimitive{
			makePrimitive(300, 100, 100, 110, "backwards", 10),
		},
	}

	_, err := analyzer.AnalyzePage(input)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyzePage_DimensionsFromPrimitives(t *testing.T) {
	analyzer := NewAnalyzer()

	input := PageInput{
		Number: 1,
		Primitives: []model.TextPrimitive{
			makePrimitive(72, 100, 540, 110, "text without page dimensions", 10),
		},
	}

	layout, err := analyzer.AnalyzePage(input)
	if err != nil {
		t.Fatalf("missing dimensions are a degeneracy, not an error: %v", err)
	}
	if layout.Width != 540 || layout.Height != 110 {
		t.Errorf("expected dimensions from the primitive extent, got %gx%g", layout.Width, layout.Height)
	}
}

func TestAnalyzePage_PrimitivesBeyondPageWidth(t *testing.T) {
	analyzer := NewAnalyzer()

	// Cropped scan: text near the right edge plus a stamp entirely past
	// the declared page width. Off-page coordinates are a degeneracy,
	// not a contract violation, and the result must still satisfy the
	// layout invariants.
	input := PageInput{Number: 1, Width: 612, Height: 792}
	for i := 0; i < 20; i++ {
		y := 100.0 + float64(i)*15
		input.Primitives = append(input.Primitives,
			makePrimitive(450, y, 610, y+10, "text near the right edge", 10),
			makePrimitive(700, y, 800, y+10, "stamp beyond the page", 10),
		)
	}

	layout, err := analyzer.AnalyzePage(input)
	if err != nil {
		t.Fatalf("off-page coordinates must not fail: %v", err)
	}
	if err := layout.Validate(); err != nil {
		t.Errorf("result must satisfy the layout invariants: %v", err)
	}
	for i, c := range layout.Columns {
		if c.Start >= c.End {
			t.Errorf("column %d is inverted: [%g, %g)", i, c.Start, c.End)
		}
	}
}

func TestAnalyzeDocument_WorkerCountInvariant(t *testing.T) {
	analyzer := NewAnalyzer()
	ctx := context.Background()

	inputs := []PageInput{twoColumnPage(1), twoColumnPage(2), twoColumnPage(3), twoColumnPage(4)}

	serial, err := analyzer.AnalyzeDocument(ctx, inputs, DocumentOptions{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := analyzer.AnalyzeDocument(ctx, inputs, DocumentOptions{Workers: 8})
	if err != nil {
		t.Fatal(err)
	}

	a, _ := json.Marshal(serial)
	b, _ := json.Marshal(parallel)
	if !bytes.Equal(a, b) {
		t.Error("results must not depend on the worker count")
	}
}

func TestAnalyzeDocument_RelabelsRepeatedFooters(t *testing.T) {
	analyzer := NewAnalyzer()

	var inputs []PageInput
	for i := 1; i <= 6; i++ {
		inputs = append(inputs, twoColumnPage(i))
	}

	pages, err := analyzer.AnalyzeDocument(context.Background(), inputs, DocumentOptions{})
	if err != nil {
		t.Fatal(err)
	}

	for i, page := range pages {
		if len(page.Footers) == 0 {
			t.Errorf("page %d: repeated page number should be a footer", i+1)
			continue
		}
		f := page.Footers[0]
		if f.Confidence < 0.95 {
			t.Errorf("page %d: footer confidence %g below the cross-page floor", i+1, f.Confidence)
		}
		if err := page.Validate(); err != nil {
			t.Errorf("page %d: %v", i+1, err)
		}
	}
}

func TestAnalyzeDocument_PageErrorAborts(t *testing.T) {
	analyzer := NewAnalyzer()

	inputs := []PageInput{
		twoColumnPage(1),
		{Number: 2, Width: -1, Height: 792},
	}

	_, err := analyzer.AnalyzeDocument(context.Background(), inputs, DocumentOptions{Workers: 2})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyzeDocument_ContextCancellation(t *testing.T) {
	analyzer := NewAnalyzer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var inputs []PageInput
	for i := 1; i <= 50; i++ {
		inputs = append(inputs, twoColumnPage(i))
	}

	_, err := analyzer.AnalyzeDocument(ctx, inputs, DocumentOptions{Workers: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
