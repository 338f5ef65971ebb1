package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pagelens/pagelens/internal/pdftext"
	"github.com/pagelens/pagelens/layout"
	"github.com/pagelens/pagelens/model"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		jsonOutput bool
		outputPath string
		workers    int
		columns    int
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze the page layout of a PDF or primitives JSON file",
		Long: `Analyze reconstructs the layout of every page in the input and prints a
per-page summary, or the full layout as JSON with --json.

The input is either a PDF, or a JSON file holding pre-extracted text
primitives in the same shape the HTTP API accepts:
{"pages":[{"page_number":1,"width":612,"height":792,"primitives":[...]}]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if columns > 0 {
				cfg.Layout.ExpectedColumns = columns
			}

			inputs, err := readInputs(args[0])
			if err != nil {
				return err
			}

			analyzer := layout.NewAnalyzerWithConfig(cfg.AnalyzerConfig())
			pages, err := analyzer.AnalyzeDocument(cmd.Context(), inputs, layout.DocumentOptions{
				Workers:            cfg.Workers,
				Logger:             newLogger(cfg),
				UseGlobalFontStats: cfg.GlobalFontStats,
			})
			if err != nil {
				return err
			}

			out := os.Stdout
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			if jsonOutput || outputPath != "" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(pages)
			}
			printSummary(pages)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the full layout as JSON")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write JSON layout to a file")
	cmd.Flags().IntVar(&workers, "workers", 0, "page analysis concurrency (default: one per CPU)")
	cmd.Flags().IntVar(&columns, "columns", 0, "expected column count hint")
	return cmd
}

// readInputs loads page inputs from a PDF or a primitives JSON file,
// decided by extension.
func readInputs(path string) ([]layout.PageInput, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdftext.ExtractFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var doc struct {
		Pages []layout.PageInput `json:"pages"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("no pages in %s", path)
	}
	return doc.Pages, nil
}

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	countColor   = color.New(color.FgYellow)
	warningColor = color.New(color.FgRed)
)

// printSummary renders the human-readable per-page report.
func printSummary(pages []*model.PageLayout) {
	for _, page := range pages {
		headerColor.Printf("Page %d", page.PageNumber)
		fmt.Printf("  %.0fx%.0f  ", page.Width, page.Height)
		fmt.Printf("%d column(s), confidence %.2f\n", len(page.Columns), page.ColumnConfidence)
		if page.ColumnConfidence < 0.5 {
			warningColor.Println("  low column confidence; layout may be irregular")
		}

		counts := make(map[model.BlockType]int)
		for _, b := range page.Blocks {
			counts[b.Type]++
		}
		types := make([]model.BlockType, 0, len(counts))
		for t := range counts {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
		for _, t := range types {
			fmt.Printf("  %-10s ", t)
			countColor.Printf("%d\n", counts[t])
		}
		if len(page.SpanningBlocks) > 0 {
			fmt.Printf("  %d spanning block(s)\n", len(page.SpanningBlocks))
		}
	}
}
