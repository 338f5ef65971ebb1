package layout

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pagelens/pagelens/model"
)

// HeaderFooterConfig holds configuration for cross-page header/footer
// detection.
type HeaderFooterConfig struct {
	// MinPages is the minimum document size for detection to run at all.
	// Default: 2.
	MinPages int

	// MinRatio is the fraction of pages a text must appear on to qualify
	// as a repeated header/footer; the absolute floor is 2 pages.
	// Default: 0.5.
	MinRatio float64

	// RelabelConfidence is the confidence floor applied to relabeled
	// blocks. Default: 0.95.
	RelabelConfidence float64

	// HeaderZone and FooterZone are the page-edge fractions searched for
	// candidates, matching the classifier zones. Defaults: 0.08 each.
	HeaderZone float64
	FooterZone float64
}

// DefaultHeaderFooterConfig returns sensible default configuration.
func DefaultHeaderFooterConfig() HeaderFooterConfig {
	return HeaderFooterConfig{
		MinPages:          2,
		MinRatio:          0.5,
		RelabelConfidence: 0.95,
		HeaderZone:        0.08,
		FooterZone:        0.08,
	}
}

// CrossPageHeaderFooterDetector finds text that repeats in the header or
// footer zones across a document and relabels every occurrence. It is
// the only component that mutates already-built pages, and it touches
// only block type and confidence fields.
type CrossPageHeaderFooterDetector struct {
	config HeaderFooterConfig
}

// NewCrossPageHeaderFooterDetector creates a detector with default configuration.
func NewCrossPageHeaderFooterDetector() *CrossPageHeaderFooterDetector {
	return &CrossPageHeaderFooterDetector{config: DefaultHeaderFooterConfig()}
}

// NewCrossPageHeaderFooterDetectorWithConfig creates a detector with custom configuration.
func NewCrossPageHeaderFooterDetectorWithConfig(config HeaderFooterConfig) *CrossPageHeaderFooterDetector {
	return &CrossPageHeaderFooterDetector{config: config}
}

var digitRunPattern = regexp.MustCompile(`\d+`)

// normalizeRepeatText prepares text for cross-page comparison: trimmed,
// with digit runs replaced by a placeholder so "Page 3" and "Page 7"
// compare equal.
func normalizeRepeatText(text string) string {
	return digitRunPattern.ReplaceAllString(strings.TrimSpace(text), "#")
}

// pageNumberPatterns are normalized texts accepted as page numbers even
// though they are too short for regular repeat detection.
var pageNumberPatterns = []string{
	"#", "page #", "- # -", "# of #", "page # of #", "#/#", "p. #", "p.#", "pg #", "pg. #",
}

// isPageNumberPattern reports whether a normalized text looks like a
// bare page number.
func isPageNumberPattern(normalized string) bool {
	trimmed := strings.TrimSpace(normalized)
	for _, p := range pageNumberPatterns {
		if strings.EqualFold(trimmed, p) {
			return true
		}
	}
	return false
}

// AnalyzeDocument aggregates header/footer candidate text across all
// pages and relabels blocks whose text repeats on at least
// max(2, pageCount/2) pages. Relabeled blocks get their confidence
// raised to the configured floor; everything else is untouched. The
// pages are updated in place and returned.
func (d *CrossPageHeaderFooterDetector) AnalyzeDocument(pages []*model.PageLayout) []*model.PageLayout {
	if len(pages) < d.config.MinPages {
		return pages
	}

	headerPages := make(map[string]map[int]bool)
	footerPages := make(map[string]map[int]bool)
	for idx, page := range pages {
		for i := range page.Blocks {
			b := &page.Blocks[i]
			key := normalizeRepeatText(b.Text)
			if key == "" {
				continue
			}
			if d.inHeaderZone(b, page) {
				recordPage(headerPages, key, idx)
			}
			if d.inFooterZone(b, page) {
				recordPage(footerPages, key, idx)
			}
		}
	}

	minOccurrences := len(pages) / 2
	if ratio := int(float64(len(pages)) * d.config.MinRatio); ratio > minOccurrences {
		minOccurrences = ratio
	}
	if minOccurrences < 2 {
		minOccurrences = 2
	}

	headers := qualifyingTexts(headerPages, minOccurrences)
	footers := qualifyingTexts(footerPages, minOccurrences)
	if len(headers) == 0 && len(footers) == 0 {
		return pages
	}

	for _, page := range pages {
		for i := range page.Blocks {
			b := &page.Blocks[i]
			key := normalizeRepeatText(b.Text)
			if headers[key] {
				b.Type = model.BlockHeader
				if b.Confidence < d.config.RelabelConfidence {
					b.Confidence = d.config.RelabelConfidence
				}
			} else if footers[key] {
				b.Type = model.BlockFooter
				if b.Confidence < d.config.RelabelConfidence {
					b.Confidence = d.config.RelabelConfidence
				}
			}
		}
		page.Headers = blocksOfType(page.Blocks, model.BlockHeader)
		page.Footers = blocksOfType(page.Blocks, model.BlockFooter)
	}
	return pages
}

// inHeaderZone reports whether a block is a header candidate: already
// classified as one, or positioned in the top zone of the page.
func (d *CrossPageHeaderFooterDetector) inHeaderZone(b *model.Block, page *model.PageLayout) bool {
	return b.Type == model.BlockHeader || b.BBox.Y0 < page.Height*d.config.HeaderZone
}

// inFooterZone reports whether a block is a footer candidate.
func (d *CrossPageHeaderFooterDetector) inFooterZone(b *model.Block, page *model.PageLayout) bool {
	return b.Type == model.BlockFooter || b.BBox.Y0 > page.Height*(1-d.config.FooterZone)
}

// recordPage adds a page index to the page set of a candidate text.
func recordPage(sets map[string]map[int]bool, key string, page int) {
	if sets[key] == nil {
		sets[key] = make(map[int]bool)
	}
	sets[key][page] = true
}

// qualifyingTexts returns the candidate texts present on enough pages.
// Very short texts qualify only when they look like page numbers;
// stray single characters are fragments, not headers.
func qualifyingTexts(sets map[string]map[int]bool, minOccurrences int) map[string]bool {
	qualified := make(map[string]bool)
	for key, pageSet := range sets {
		if len(pageSet) < minOccurrences {
			continue
		}
		if len(key) <= 2 && !isPageNumberPattern(key) {
			continue
		}
		qualified[key] = true
	}
	return qualified
}

// blocksOfType returns copies of the blocks with the given type, sorted
// by reading order.
func blocksOfType(blocks []model.Block, t model.BlockType) []model.Block {
	var result []model.Block
	for _, b := range blocks {
		if b.Type == t {
			result = append(result, b)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ReadingOrder < result[j].ReadingOrder
	})
	return result
}

// GlobalFontStats computes document-wide font statistics: the median and
// average block font size weighted by character count across all pages.
// The result can refine per-page classification thresholds for
// consistency; its absence never changes per-page correctness.
func (d *CrossPageHeaderFooterDetector) GlobalFontStats(pages []*model.PageLayout) model.PageFontStats {
	var primitives []model.TextPrimitive
	for _, page := range pages {
		for _, b := range page.Blocks {
			if b.Font == nil || b.Font.Size <= 0 {
				continue
			}
			primitives = append(primitives, model.TextPrimitive{
				Text:     b.Text,
				FontSize: b.Font.Size,
			})
		}
	}
	return ComputeFontStats(primitives)
}
