package layout

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pagelens/pagelens/model"
)

// ClassifierConfig holds the thresholds of the classification rules.
// All font thresholds are relative to the page median so the rules hold
// across documents with different base sizes.
type ClassifierConfig struct {
	// HeadingSizeRatio is the minimum font size relative to the page
	// median for heading candidates. Default: 1.1.
	HeadingSizeRatio float64

	// HeadingMaxChars is the maximum text length of a heading.
	// Default: 400.
	HeadingMaxChars int

	// FootnoteSizeRatio is the maximum font size relative to the page
	// median for footnote candidates. Default: 0.9.
	FootnoteSizeRatio float64

	// FootnoteZone is the page-bottom fraction where footnotes live.
	// Default: 0.18.
	FootnoteZone float64

	// HeaderZone and FooterZone are the page-edge fractions classified
	// as header/footer by position. Default: 0.08 each.
	HeaderZone float64
	FooterZone float64

	// CaptionMaxChars and CaptionMaxWidthRatio bound the secondary
	// caption heuristic. Defaults: 120 chars, 0.5 of the page width.
	CaptionMaxChars      int
	CaptionMaxWidthRatio float64
}

// DefaultClassifierConfig returns sensible default configuration.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		HeadingSizeRatio:     1.1,
		HeadingMaxChars:      400,
		FootnoteSizeRatio:    0.9,
		FootnoteZone:         0.18,
		HeaderZone:           0.08,
		FooterZone:           0.08,
		CaptionMaxChars:      120,
		CaptionMaxWidthRatio: 0.5,
	}
}

var (
	mathSymbolPattern   = regexp.MustCompile(`[∑∫∏√±×÷≠≤≥∞∂∇]|[α-ωΑ-Ω]`)
	mathLatexPattern    = regexp.MustCompile(`\\begin\{[a-z]+\}|\\frac|\\sum|\\int`)
	mathFunctionPattern = regexp.MustCompile(`\b(?:sin|cos|tan|log|ln|exp|sqrt|sum|int)\s*\(`)
	mathEquationPattern = regexp.MustCompile(`\b\d+\s*[+\-*/=]\s*\d+\b`)
	mathAssignPattern   = regexp.MustCompile(`\b[a-zA-Z]\s*=\s*[a-zA-Z0-9+\-*/()]+`)

	captionPattern = regexp.MustCompile(`(?i)^\s*(figure|fig\.|table|tab\.)`)
	listPattern    = regexp.MustCompile(`^\s*\w{1,4}[.)]\s`)
)

// ruleInput is the evaluation context shared by all classification rules.
type ruleInput struct {
	block      *model.Block
	text       string
	runeCount  int
	fontSize   float64
	stats      model.PageFontStats
	pageWidth  float64
	pageHeight float64
}

// classificationRule is one entry of the ordered rule table. It reports
// whether the rule matches and, if so, the resulting type and confidence.
type classificationRule struct {
	name  string
	apply func(*ruleInput) (model.BlockType, float64, bool)
}

// BlockClassifier assigns semantic types to blocks using an ordered rule
// table with first-match-wins semantics. Classification is a pure
// function of the block and the page font statistics; it never fails,
// because the final rule matches everything.
type BlockClassifier struct {
	config ClassifierConfig
	rules  []classificationRule
}

// NewBlockClassifier creates a classifier with default configuration.
func NewBlockClassifier() *BlockClassifier {
	return NewBlockClassifierWithConfig(DefaultClassifierConfig())
}

// NewBlockClassifierWithConfig creates a classifier with custom configuration.
func NewBlockClassifierWithConfig(config ClassifierConfig) *BlockClassifier {
	c := &BlockClassifier{config: config}
	c.rules = []classificationRule{
		{name: "formula", apply: c.formulaRule},
		{name: "heading", apply: c.headingRule},
		{name: "caption", apply: c.captionRule},
		{name: "footnote", apply: c.footnoteRule},
		{name: "page-edge", apply: c.pageEdgeRule},
		{name: "list-item", apply: c.listItemRule},
		{name: "short-caption", apply: c.shortCaptionRule},
		{name: "paragraph", apply: paragraphRule},
	}
	return c
}

// Classify evaluates the rule table top-down and returns the type and
// confidence of the first matching rule. Confidence is always in [0, 1].
func (c *BlockClassifier) Classify(block model.Block, stats model.PageFontStats, pageWidth, pageHeight float64) (model.BlockType, float64) {
	in := &ruleInput{
		block:      &block,
		text:       strings.TrimSpace(block.Text),
		stats:      stats,
		fontSize:   block.FontSize(),
		pageWidth:  pageWidth,
		pageHeight: pageHeight,
	}
	in.runeCount = len([]rune(in.text))

	for _, rule := range c.rules {
		if t, confidence, ok := rule.apply(in); ok {
			return t, clamp01(confidence)
		}
	}
	// Unreachable: the paragraph rule is total.
	return model.BlockParagraph, 0.7
}

// formulaRule matches mathematical notation. Symbol and LaTeX markers
// weigh more than plain arithmetic, which also shows up in prose; a
// horizontally centered block needs less evidence.
func (c *BlockClassifier) formulaRule(in *ruleInput) (model.BlockType, float64, bool) {
	score := 0
	score += 2 * len(mathSymbolPattern.FindAllString(in.text, -1))
	score += 2 * len(mathLatexPattern.FindAllString(in.text, -1))
	score += len(mathFunctionPattern.FindAllString(in.text, -1))
	score += len(mathEquationPattern.FindAllString(in.text, -1))
	score += len(mathAssignPattern.FindAllString(in.text, -1))
	if score == 0 {
		return 0, 0, false
	}

	centered := false
	if in.pageWidth > 0 {
		off := in.block.BBox.CenterX() - in.pageWidth/2
		centered = abs(off) < in.pageWidth*0.1 && in.block.BBox.Width() < in.pageWidth*0.8
	}
	if score < 2 && !centered {
		return 0, 0, false
	}

	confidence := 0.7 + 0.05*float64(minInt(score, 4))
	if centered {
		confidence += 0.05
	}
	return model.BlockFormula, confidence, true
}

// headingRule matches blocks set notably larger than the page median.
// Confidence grows with the size ratio.
func (c *BlockClassifier) headingRule(in *ruleInput) (model.BlockType, float64, bool) {
	if in.fontSize <= 0 || in.stats.MedianSize <= 0 {
		return 0, 0, false
	}
	ratio := in.fontSize / in.stats.MedianSize
	if ratio <= c.config.HeadingSizeRatio || in.runeCount >= c.config.HeadingMaxChars {
		return 0, 0, false
	}
	return model.BlockHeading, 0.5 + (ratio - 1.0), true
}

// captionRule matches the conventional figure/table caption prefixes.
func (c *BlockClassifier) captionRule(in *ruleInput) (model.BlockType, float64, bool) {
	if !captionPattern.MatchString(in.text) {
		return 0, 0, false
	}
	return model.BlockCaption, 0.85, true
}

// footnoteRule matches small text near the page bottom.
func (c *BlockClassifier) footnoteRule(in *ruleInput) (model.BlockType, float64, bool) {
	if in.fontSize <= 0 || in.stats.MedianSize <= 0 || in.pageHeight <= 0 {
		return 0, 0, false
	}
	if in.fontSize >= in.stats.MedianSize*c.config.FootnoteSizeRatio {
		return 0, 0, false
	}
	if in.block.BBox.Y0 <= in.pageHeight*(1-c.config.FootnoteZone) {
		return 0, 0, false
	}
	return model.BlockFootnote, 0.75, true
}

// pageEdgeRule matches blocks positioned in the top or bottom page
// margin zones.
func (c *BlockClassifier) pageEdgeRule(in *ruleInput) (model.BlockType, float64, bool) {
	if in.pageHeight <= 0 {
		return 0, 0, false
	}
	if in.block.BBox.Y0 < in.pageHeight*c.config.HeaderZone {
		return model.BlockHeader, 0.7, true
	}
	if in.block.BBox.Y0 > in.pageHeight*(1-c.config.FooterZone) {
		return model.BlockFooter, 0.7, true
	}
	return 0, 0, false
}

// listItemRule matches leading enumerators and bullets.
func (c *BlockClassifier) listItemRule(in *ruleInput) (model.BlockType, float64, bool) {
	if listPattern.MatchString(in.text) ||
		strings.HasPrefix(in.text, "•") ||
		strings.HasPrefix(in.text, "- ") {
		return model.BlockListItem, 0.75, true
	}
	return 0, 0, false
}

// shortCaptionRule is the secondary caption heuristic: short, narrow
// blocks with a separator character.
func (c *BlockClassifier) shortCaptionRule(in *ruleInput) (model.BlockType, float64, bool) {
	if in.runeCount == 0 || in.runeCount >= c.config.CaptionMaxChars {
		return 0, 0, false
	}
	if in.pageWidth <= 0 || in.block.BBox.Width() >= in.pageWidth*c.config.CaptionMaxWidthRatio {
		return 0, 0, false
	}
	if !strings.Contains(in.text, ":") && !strings.Contains(in.text, "–") && !strings.Contains(in.text, " - ") {
		return 0, 0, false
	}
	return model.BlockCaption, 0.6, true
}

// paragraphRule is the universal fallback.
func paragraphRule(in *ruleInput) (model.BlockType, float64, bool) {
	return model.BlockParagraph, 0.7, true
}

// ComputeFontStats calculates the page font statistics used for relative
// classification thresholds. Sizes are weighted by the character count of
// each primitive so a few oversized glyphs do not dominate.
func ComputeFontStats(primitives []model.TextPrimitive) model.PageFontStats {
	type weighted struct {
		size  float64
		count int
	}
	var samples []weighted
	total := 0
	sum := 0.0
	counts := make(map[float64]int)
	for _, p := range primitives {
		if p.FontSize <= 0 {
			continue
		}
		n := len([]rune(strings.TrimSpace(p.Text)))
		if n == 0 {
			continue
		}
		samples = append(samples, weighted{size: p.FontSize, count: n})
		total += n
		sum += p.FontSize * float64(n)
		counts[p.FontSize] += n
	}
	if total == 0 {
		return model.PageFontStats{}
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].size < samples[j].size })
	half := total / 2
	running := 0
	medianSize := samples[len(samples)-1].size
	for _, s := range samples {
		running += s.count
		if running > half {
			medianSize = s.size
			break
		}
	}

	mostCommon, best := 0.0, 0
	sizes := make([]float64, 0, len(counts))
	for size := range counts {
		sizes = append(sizes, size)
	}
	sort.Float64s(sizes)
	for _, size := range sizes {
		if counts[size] > best {
			mostCommon, best = size, counts[size]
		}
	}

	return model.PageFontStats{
		MedianSize:     medianSize,
		AvgSize:        sum / float64(total),
		MostCommonSize: mostCommon,
		CharCount:      total,
	}
}

// minInt returns the smaller of two ints.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
