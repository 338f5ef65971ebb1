package layout

import (
	"fmt"
	"testing"

	"github.com/pagelens/pagelens/model"
)

// makePage builds a single-column page with the given blocks in input
// order. Helpers keep the layouts minimal; only fields the detector
// reads are populated.
func makePage(number int, blocks ...model.Block) *model.PageLayout {
	for i := range blocks {
		blocks[i].ReadingOrder = i
		col := 0
		blocks[i].Column = &col
	}
	return &model.PageLayout{
		PageNumber:       number,
		Width:            612,
		Height:           792,
		Blocks:           blocks,
		Columns:          []model.Column{{Start: 0, End: 612}},
		ColumnConfidence: 1.0,
	}
}

func bodyBlock(txt string) model.Block {
	return typedBlock(72, 300, 540, 400, txt, model.BlockParagraph, 0.7)
}

func footerBlock(txt string) model.Block {
	return typedBlock(250, 760, 360, 772, txt, model.BlockParagraph, 0.7)
}

func headerBlock(txt string) model.Block {
	return typedBlock(72, 20, 300, 32, txt, model.BlockParagraph, 0.7)
}

func TestAnalyzeDocument_RepeatedFooterRelabeled(t *testing.T) {
	detector := NewCrossPageHeaderFooterDetector()

	// The footer appears on 8 of 10 pages; page numbers vary but
	// normalize to the same pattern.
	var pages []*model.PageLayout
	for i := 1; i <= 10; i++ {
		if i == 3 || i == 7 {
			pages = append(pages, makePage(i, bodyBlock("body only")))
			continue
		}
		pages = append(pages, makePage(i,
			bodyBlock("body text"),
			footerBlock(fmt.Sprintf("Confidential Draft %d", i)),
		))
	}

	detector.AnalyzeDocument(pages)

	for i, page := range pages {
		for _, b := range page.Blocks {
			if b.Text == "body text" || b.Text == "body only" {
				if b.Type != model.BlockParagraph {
					t.Errorf("page %d: body block relabeled to %v", i+1, b.Type)
				}
				continue
			}
			if b.Type != model.BlockFooter {
				t.Errorf("page %d: repeated footer not relabeled, got %v", i+1, b.Type)
			}
			if b.Confidence < 0.95 {
				t.Errorf("page %d: relabeled footer confidence %g below floor", i+1, b.Confidence)
			}
		}
		if i == 2 || i == 6 {
			if len(page.Footers) != 0 {
				t.Errorf("page %d has no footer yet lists %d", i+1, len(page.Footers))
			}
		} else if len(page.Footers) != 1 {
			t.Errorf("page %d: expected 1 footer view entry, got %d", i+1, len(page.Footers))
		}
	}
}

func TestAnalyzeDocument_PageNumbersQualify(t *testing.T) {
	detector := NewCrossPageHeaderFooterDetector()

	var pages []*model.PageLayout
	for i := 1; i <= 4; i++ {
		pages = append(pages, makePage(i,
			bodyBlock("body text"),
			footerBlock(fmt.Sprintf("%d", i)),
		))
	}

	detector.AnalyzeDocument(pages)

	for i, page := range pages {
		if len(page.Footers) != 1 {
			t.Errorf("page %d: bare page number should qualify as footer, got %d entries", i+1, len(page.Footers))
		}
	}
}

func TestAnalyzeDocument_RepeatedHeaderRelabeled(t *testing.T) {
	detector := NewCrossPageHeaderFooterDetector()

	var pages []*model.PageLayout
	for i := 1; i <= 6; i++ {
		pages = append(pages, makePage(i,
			headerBlock("Journal of Examples"),
			bodyBlock("body text"),
		))
	}

	detector.AnalyzeDocument(pages)

	for i, page := range pages {
		if len(page.Headers) != 1 {
			t.Fatalf("page %d: expected 1 header, got %d", i+1, len(page.Headers))
		}
		h := page.Headers[0]
		if h.Type != model.BlockHeader || h.Confidence < 0.95 {
			t.Errorf("page %d: header not relabeled (%v, %g)", i+1, h.Type, h.Confidence)
		}
	}
}

func TestAnalyzeDocument_UniqueTextUntouched(t *testing.T) {
	detector := NewCrossPageHeaderFooterDetector()

	var pages []*model.PageLayout
	for i := 1; i <= 5; i++ {
		pages = append(pages, makePage(i,
			bodyBlock("body text"),
			footerBlock(fmt.Sprintf("unique closing remark about topic %c", 'a'+rune(i))),
		))
	}

	detector.AnalyzeDocument(pages)

	for i, page := range pages {
		for _, b := range page.Blocks {
			if b.Type != model.BlockParagraph {
				t.Errorf("page %d: non-repeating text relabeled to %v", i+1, b.Type)
			}
		}
	}
}

func TestAnalyzeDocument_SinglePageSkipped(t *testing.T) {
	detector := NewCrossPageHeaderFooterDetector()

	pages := []*model.PageLayout{makePage(1, footerBlock("Page 1"))}

	detector.AnalyzeDocument(pages)

	if pages[0].Blocks[0].Type != model.BlockParagraph {
		t.Error("single-page documents have no cross-page repeats")
	}
}

func TestNormalizeRepeatText(t *testing.T) {
	if got := normalizeRepeatText("  Page 12  "); got != "Page #" {
		t.Errorf("expected %q, got %q", "Page #", got)
	}
	if got := normalizeRepeatText("3 of 10"); got != "# of #" {
		t.Errorf("expected %q, got %q", "# of #", got)
	}
	if got := normalizeRepeatText("no digits"); got != "no digits" {
		t.Errorf("expected unchanged text, got %q", got)
	}
}

func TestGlobalFontStats(t *testing.T) {
	detector := NewCrossPageHeaderFooterDetector()

	small := bodyBlock("short")
	small.Font = &model.FontInfo{Size: 10}
	large := bodyBlock("a much longer run of text in the dominant size of the document")
	large.Font = &model.FontInfo{Size: 12}

	pages := []*model.PageLayout{makePage(1, small, large)}

	stats := detector.GlobalFontStats(pages)

	if stats.MedianSize != 12 {
		t.Errorf("median should follow character mass, got %g", stats.MedianSize)
	}
}
