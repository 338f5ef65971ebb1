// Package layout reconstructs the structured content of a page from raw
// positioned text primitives.
//
// The [Analyzer] orchestrates the per-page pipeline:
//
//	analyzer := layout.NewAnalyzer()
//	page, err := analyzer.AnalyzePage(layout.PageInput{
//		Number:     1,
//		Width:      612,
//		Height:     792,
//		Primitives: primitives,
//	})
//
// For multi-page documents, AnalyzeDocument runs pages in parallel and
// finishes with a cross-page header/footer pass:
//
//	pages, err := analyzer.AnalyzeDocument(ctx, inputs, layout.DocumentOptions{})
//
// # Pipeline
//
// Each page flows through the components in order:
//
//   - [WordLineAssembler] - groups primitives into words, lines, and blocks
//   - [ColumnDetector] - detects the column partition with a confidence score
//   - [BlockClassifier] - assigns each block a semantic type
//   - [SpanningBlockDetector] - flags column-crossing blocks, merges captions
//   - [ReadingOrderBuilder] - synthesizes one deterministic reading sequence
//   - [CrossPageHeaderFooterDetector] - relabels repeated headers/footers
//
// Per-page analysis is a pure function of its inputs: no shared state, no
// I/O. Expected degenerate inputs (empty pages, low-confidence column
// detection, ambiguous text) are absorbed into confidence scores rather
// than errors; only contract violations such as malformed bounding boxes
// are reported as errors.
//
// # Configuration
//
// Each component has its own configuration with defaults:
//
//	config := layout.DefaultAnalyzerConfig()
//	config.Column.ExpectedColumns = 2
//	analyzer := layout.NewAnalyzerWithConfig(config)
package layout
