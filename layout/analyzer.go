package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/pagelens/pagelens/model"
)

// ErrInvalidInput marks page inputs that violate the input contract:
// negative page dimensions or malformed primitive bounding boxes.
// Degenerate but well-formed inputs (empty pages, zero-area boxes,
// overlapping text) are absorbed by the pipeline, never rejected.
var ErrInvalidInput = errors.New("invalid page input")

// AnalyzerConfig aggregates the configuration of every pipeline stage.
type AnalyzerConfig struct {
	Assembler    AssemblerConfig
	Column       ColumnConfig
	Classifier   ClassifierConfig
	Spanning     SpanningConfig
	HeaderFooter HeaderFooterConfig
}

// DefaultAnalyzerConfig returns the default configuration of every stage.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Assembler:    DefaultAssemblerConfig(),
		Column:       DefaultColumnConfig(),
		Classifier:   DefaultClassifierConfig(),
		Spanning:     DefaultSpanningConfig(),
		HeaderFooter: DefaultHeaderFooterConfig(),
	}
}

// PageInput is the raw material for one page analysis: positioned text
// primitives plus the page dimensions. ExclusionRects are regions
// (externally detected tables or figures) whose lines are ignored
// during column detection.
type PageInput struct {
	Number         int                   `json:"page_number"`
	Width          float64               `json:"width"`
	Height         float64               `json:"height"`
	Primitives     []model.TextPrimitive `json:"primitives"`
	ExclusionRects []model.BBox          `json:"exclusion_rects,omitempty"`
}

// DocumentOptions controls document-level analysis.
type DocumentOptions struct {
	// Workers bounds page-level concurrency. Zero or negative means
	// one worker per CPU.
	Workers int

	// Logger receives per-page debug records. Nil means slog.Default().
	Logger *slog.Logger

	// UseGlobalFontStats reclassifies font-sensitive block types against
	// document-wide font statistics after the per-page pass, so a page of
	// large print in a small-print document does not read as all headings.
	UseGlobalFontStats bool
}

// Analyzer runs the full page layout reconstruction pipeline: word and
// line assembly, block classification, caption merging, column
// detection, spanning detection, reading order, and the cross-page
// header/footer pass for documents.
type Analyzer struct {
	config     AnalyzerConfig
	assembler  *WordLineAssembler
	columns    *ColumnDetector
	classifier *BlockClassifier
	spanning   *SpanningBlockDetector
	repeats    *CrossPageHeaderFooterDetector
}

// NewAnalyzer creates an analyzer with default configuration.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(DefaultAnalyzerConfig())
}

// NewAnalyzerWithConfig creates an analyzer with custom configuration.
func NewAnalyzerWithConfig(config AnalyzerConfig) *Analyzer {
	return &Analyzer{
		config:     config,
		assembler:  NewWordLineAssemblerWithConfig(config.Assembler),
		columns:    NewColumnDetectorWithConfig(config.Column),
		classifier: NewBlockClassifierWithConfig(config.Classifier),
		spanning:   NewSpanningBlockDetectorWithConfig(config.Spanning),
		repeats:    NewCrossPageHeaderFooterDetectorWithConfig(config.HeaderFooter),
	}
}

// AnalyzePage reconstructs the layout of a single page. The result is a
// fresh PageLayout that satisfies Validate. Analysis of a well-formed
// page never fails; the error path exists only for contract violations
// in the input.
func (a *Analyzer) AnalyzePage(input PageInput) (*model.PageLayout, error) {
	width, height, err := checkInput(input)
	if err != nil {
		return nil, err
	}

	layout := &model.PageLayout{
		PageNumber:       input.Number,
		Width:            width,
		Height:           height,
		Blocks:           []model.Block{},
		Columns:          []model.Column{{Start: 0, End: width}},
		ColumnConfidence: 1.0,
	}
	if len(input.Primitives) == 0 {
		return layout, nil
	}

	words := a.assembler.AssembleWords(input.Primitives)
	lines := a.assembler.AssembleLines(words)
	blocks := a.assembler.AssembleBlocks(lines)
	if len(blocks) == 0 {
		return layout, nil
	}

	stats := ComputeFontStats(input.Primitives)
	for i := range blocks {
		blocks[i].Type, blocks[i].Confidence = a.classifier.Classify(blocks[i], stats, width, height)
	}
	blocks = a.spanning.MergeCaptions(blocks)

	columns, confidence := a.columns.Detect(lines, input.ExclusionRects, width, height)
	a.spanning.Detect(blocks, columns)

	ordered := NewReadingOrderBuilder().Build(blocks, columns)

	layout.Blocks = ordered
	layout.Columns = columns
	layout.ColumnConfidence = confidence
	layout.Headers = blocksOfType(ordered, model.BlockHeader)
	layout.Footers = blocksOfType(ordered, model.BlockFooter)
	layout.SpanningBlocks = spanningBlocks(ordered)
	return layout, nil
}

// AnalyzeDocument analyzes all pages of a document, then applies the
// document-level passes: optional reclassification against global font
// statistics and cross-page header/footer detection. Pages are analyzed
// concurrently under the configured worker bound; the output is
// deterministic regardless of worker count. The first page error aborts
// the run.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, inputs []PageInput, opts DocumentOptions) ([]*model.PageLayout, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pages := make([]*model.PageLayout, len(inputs))
	errs := make([]error, len(inputs))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range inputs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			page, err := a.AnalyzePage(inputs[i])
			if err != nil {
				errs[i] = err
				return
			}
			pages[i] = page
			logger.Debug("page analyzed",
				"page", page.PageNumber,
				"blocks", len(page.Blocks),
				"columns", len(page.Columns),
				"column_confidence", page.ColumnConfidence)
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	if opts.UseGlobalFontStats {
		a.reclassifyWithGlobalStats(pages)
	}
	a.repeats.AnalyzeDocument(pages)

	logger.Info("document analyzed", "pages", len(pages))
	return pages, nil
}

// reclassifyWithGlobalStats reruns classification for the font-sensitive
// block types using document-wide font statistics. Only type and
// confidence change; geometry, columns, and reading order stay put.
func (a *Analyzer) reclassifyWithGlobalStats(pages []*model.PageLayout) {
	stats := a.repeats.GlobalFontStats(pages)
	if stats.MedianSize <= 0 {
		return
	}
	for _, page := range pages {
		for i := range page.Blocks {
			b := &page.Blocks[i]
			switch b.Type {
			case model.BlockParagraph, model.BlockHeading, model.BlockFootnote, model.BlockListItem:
				b.Type, b.Confidence = a.classifier.Classify(*b, stats, page.Width, page.Height)
			}
		}
		page.Headers = blocksOfType(page.Blocks, model.BlockHeader)
		page.Footers = blocksOfType(page.Blocks, model.BlockFooter)
	}
}

// checkInput validates the page input contract and resolves the
// effective page dimensions. Explicitly negative dimensions and
// inverted bounding boxes are contract violations; missing dimensions
// fall back to the extent of the primitives.
func checkInput(input PageInput) (width, height float64, err error) {
	if input.Width < 0 || input.Height < 0 {
		return 0, 0, fmt.Errorf("%w: page %d has negative dimensions %gx%g",
			ErrInvalidInput, input.Number, input.Width, input.Height)
	}
	for i, p := range input.Primitives {
		if p.BBox.X0 > p.BBox.X1 || p.BBox.Y0 > p.BBox.Y1 {
			return 0, 0, fmt.Errorf("%w: page %d primitive %d has inverted bbox", ErrInvalidInput, input.Number, i)
		}
	}

	width, height = input.Width, input.Height
	if width == 0 || height == 0 {
		for _, p := range input.Primitives {
			if p.BBox.X1 > width {
				width = p.BBox.X1
			}
			if p.BBox.Y1 > height {
				height = p.BBox.Y1
			}
		}
	}
	return width, height, nil
}

// spanningBlocks returns the spanning subset in reading order.
func spanningBlocks(blocks []model.Block) []model.Block {
	var result []model.Block
	for _, b := range blocks {
		if b.Spanning {
			result = append(result, b)
		}
	}
	return result
}
