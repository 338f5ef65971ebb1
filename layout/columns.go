package layout

import (
	"math"
	"sort"

	"github.com/pagelens/pagelens/model"
)

// ColumnConfig holds configuration for column detection.
type ColumnConfig struct {
	// MinGapThreshold is the floor for the clustering radius applied to
	// left-edge coordinates. Default: 50 points.
	MinGapThreshold float64

	// GridSize is the bin width of the density projection used by the
	// fallback method. Default: 50 points.
	GridSize float64

	// ExpectedColumns is a hint for the number of columns; detected
	// counts close to it raise confidence. Default: 1.
	ExpectedColumns int

	// MinConfidence is the threshold below which detection falls back to
	// a single full-width column. The low confidence value is carried
	// forward, not raised. Default: 0.65.
	MinConfidence float64

	// NoiseFraction is the minimum cluster size as a fraction of all
	// clustered points; smaller clusters are discarded as noise.
	// Default: 0.05.
	NoiseFraction float64

	// ValleyFraction is the fraction of the median projection value
	// below which a bin counts as a valley. Default: 0.2.
	ValleyFraction float64
}

// DefaultColumnConfig returns sensible default configuration.
func DefaultColumnConfig() ColumnConfig {
	return ColumnConfig{
		MinGapThreshold: 50.0,
		GridSize:        50.0,
		ExpectedColumns: 1,
		MinConfidence:   0.65,
		NoiseFraction:   0.05,
		ValleyFraction:  0.2,
	}
}

// ColumnDetector detects the column partition of a page from the
// distribution of line start coordinates, with a density-projection
// fallback for layouts where start-edge clustering is inconclusive.
type ColumnDetector struct {
	config ColumnConfig
}

// NewColumnDetector creates a column detector with default configuration.
func NewColumnDetector() *ColumnDetector {
	return &ColumnDetector{config: DefaultColumnConfig()}
}

// NewColumnDetectorWithConfig creates a column detector with custom configuration.
func NewColumnDetectorWithConfig(config ColumnConfig) *ColumnDetector {
	return &ColumnDetector{config: config}
}

// Detect proposes the column partition for a page and a confidence score
// in [0, 1]. Lines fully inside an exclusion rectangle (externally
// detected tables or figures) are ignored. The returned columns are
// disjoint, sorted, and cover exactly [0, pageWidth]; when confidence
// falls below the configured minimum a single full-width column is
// returned carrying the low confidence value.
func (d *ColumnDetector) Detect(lines []model.Line, exclusions []model.BBox, pageWidth, pageHeight float64) ([]model.Column, float64) {
	text := excludeLines(lines, exclusions)
	if len(text) == 0 {
		return []model.Column{{Start: 0, End: pageWidth}}, 1.0
	}

	xs := make([]float64, len(text))
	for i, l := range text {
		xs[i] = l.BBox.X0
	}
	sort.Float64s(xs)

	clusters := d.clusterStarts(xs)
	if len(clusters) == 0 {
		return []model.Column{{Start: 0, End: pageWidth}}, 0.5
	}

	projection := d.projection(text, pageWidth)

	if len(clusters) == 1 {
		return d.detectFromProjection(projection, clusters, pageWidth)
	}

	columns := columnsFromBoundaries(d.boundariesFromClusters(clusters, text, pageWidth))
	confidence := d.confidence(clusters, projection, len(columns), pageWidth)
	if confidence < d.config.MinConfidence {
		return []model.Column{{Start: 0, End: pageWidth}}, confidence
	}
	return columns, confidence
}

// excludeLines drops lines whose bbox lies fully inside any exclusion
// rectangle.
func excludeLines(lines []model.Line, exclusions []model.BBox) []model.Line {
	if len(exclusions) == 0 {
		return lines
	}
	kept := make([]model.Line, 0, len(lines))
	for _, l := range lines {
		inside := false
		for _, rect := range exclusions {
			if rect.ContainsBox(l.BBox) {
				inside = true
				break
			}
		}
		if !inside {
			kept = append(kept, l)
		}
	}
	return kept
}

// cluster is a run of left-edge coordinates treated as one column start.
type cluster struct {
	points []float64
}

func (c cluster) min() float64 { return c.points[0] }
func (c cluster) max() float64 { return c.points[len(c.points)-1] }

// clusterStarts merges sorted start coordinates into clusters where the
// gap between consecutive points stays within an adaptive radius, then
// discards clusters below the noise threshold.
func (d *ColumnDetector) clusterStarts(xs []float64) []cluster {
	gaps := make([]float64, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		gaps = append(gaps, xs[i]-xs[i-1])
	}
	eps := d.config.MinGapThreshold
	if m := median(gaps); 2*m > eps {
		eps = 2 * m
	}

	var clusters []cluster
	current := cluster{points: []float64{xs[0]}}
	for _, x := range xs[1:] {
		if x-current.max() <= eps {
			current.points = append(current.points, x)
		} else {
			clusters = append(clusters, current)
			current = cluster{points: []float64{x}}
		}
	}
	clusters = append(clusters, current)

	minPoints := d.config.NoiseFraction * float64(len(xs))
	valid := clusters[:0]
	for _, c := range clusters {
		if float64(len(c.points)) >= minPoints {
			valid = append(valid, c)
		}
	}
	return valid
}

// boundariesFromClusters converts cluster spans into column boundaries,
// with the page edges as the first and last boundary. Each interior
// boundary falls midway between the left cluster's typical line right
// edge and the next cluster's start, so it lands in the visual gap
// rather than inside the left column's text. When the right edges are
// unusable (spanning lines pushing past the next column) the midpoint of
// the start spans is used instead.
func (d *ColumnDetector) boundariesFromClusters(clusters []cluster, lines []model.Line, pageWidth float64) []float64 {
	boundaries := []float64{0}
	for i := 0; i < len(clusters)-1; i++ {
		left, right := clusters[i], clusters[i+1]
		edge := medianRightEdge(lines, left)
		mid := (edge + right.min()) / 2
		if edge <= left.max() || mid <= left.max() || mid >= right.min() {
			mid = (left.max() + right.min()) / 2
		}
		// Cropped scans and marginal stamps put text past the declared
		// page edge; a boundary outside (0, pageWidth) cannot bound a
		// column, so the adjacent clusters fold together instead.
		if mid <= boundaries[len(boundaries)-1] || mid >= pageWidth {
			continue
		}
		boundaries = append(boundaries, mid)
	}
	return append(boundaries, pageWidth)
}

// medianRightEdge returns the median right edge of the lines whose start
// falls inside the cluster span.
func medianRightEdge(lines []model.Line, c cluster) float64 {
	var edges []float64
	for _, l := range lines {
		if l.BBox.X0 >= c.min() && l.BBox.X0 <= c.max() {
			edges = append(edges, l.BBox.X1)
		}
	}
	return median(edges)
}

// columnsFromBoundaries builds the half-open column intervals from a
// sorted boundary list.
func columnsFromBoundaries(boundaries []float64) []model.Column {
	columns := make([]model.Column, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		columns = append(columns, model.Column{Start: boundaries[i], End: boundaries[i+1]})
	}
	return columns
}

// projection builds the horizontal text density projection: a histogram
// of character counts over fixed-width bins across the page.
func (d *ColumnDetector) projection(lines []model.Line, pageWidth float64) []float64 {
	grid := d.config.GridSize
	if grid <= 0 {
		grid = 50.0
	}
	bins := int(math.Ceil(pageWidth / grid))
	if bins <= 0 {
		bins = 1
	}
	proj := make([]float64, bins)
	add := func(x float64, weight int) {
		bin := int(x / grid)
		if bin >= 0 && bin < bins {
			proj[bin] += float64(weight)
		}
	}
	for _, l := range lines {
		if len(l.Words) == 0 {
			add(l.BBox.X0, l.CharCount())
			continue
		}
		for _, w := range l.Words {
			add(w.BBox.CenterX(), len([]rune(w.Text)))
		}
	}
	return proj
}

// detectFromProjection is the fallback method used when start-edge
// clustering finds at most one cluster: bins whose density falls below a
// fraction of the median are valleys, and columns are cut at valley run
// midpoints.
func (d *ColumnDetector) detectFromProjection(raw []float64, clusters []cluster, pageWidth float64) ([]model.Column, float64) {
	// Bins holding a negligible share of the page's text are noise, the
	// same way undersized start-edge clusters are; zeroing them keeps a
	// stray line from carving off a column.
	total := 0.0
	for _, v := range raw {
		total += v
	}
	proj := make([]float64, len(raw))
	for i, v := range raw {
		if v >= d.config.NoiseFraction*total {
			proj[i] = v
		}
	}

	med := medianNonzero(proj)
	if med <= 0 {
		return []model.Column{{Start: 0, End: pageWidth}}, 1.0
	}

	threshold := d.config.ValleyFraction * med
	grid := pageWidth / float64(len(proj))
	var cuts []float64

	// Interior valley runs only; margins do not cut columns.
	start := -1
	for i := 0; i <= len(proj); i++ {
		valley := i < len(proj) && proj[i] < threshold
		if valley && start < 0 {
			start = i
		}
		if !valley && start >= 0 {
			if start > 0 && i < len(proj) {
				mid := (float64(start) + float64(i)) / 2 * grid
				cuts = append(cuts, mid)
			}
			start = -1
		}
	}

	if len(cuts) == 0 {
		confidence := d.confidence(clusters, proj, 1, pageWidth)
		return []model.Column{{Start: 0, End: pageWidth}}, confidence
	}

	boundaries := append([]float64{0}, cuts...)
	boundaries = append(boundaries, pageWidth)
	columns := columnsFromBoundaries(boundaries)

	contrast := projectionContrast(proj)
	expectTerm := expectationCloseness(len(columns), d.config.ExpectedColumns)
	confidence := clamp01(0.6*contrast + 0.4*expectTerm)
	if confidence < d.config.MinConfidence {
		return []model.Column{{Start: 0, End: pageWidth}}, confidence
	}
	return columns, confidence
}

// confidence blends intra-cluster tightness, closeness of the detected
// column count to the expected hint, and density projection contrast.
func (d *ColumnDetector) confidence(clusters []cluster, proj []float64, numColumns int, pageWidth float64) float64 {
	colWidth := pageWidth / float64(numColumns)

	varTerm := 1.0
	var stds []float64
	for _, c := range clusters {
		if len(c.points) > 1 {
			stds = append(stds, stddev(c.points))
		}
	}
	if len(stds) > 0 && colWidth > 0 {
		avg := 0.0
		for _, s := range stds {
			avg += s
		}
		avg /= float64(len(stds))
		varTerm = clamp01(1 - avg/colWidth)
	}

	expectTerm := expectationCloseness(numColumns, d.config.ExpectedColumns)

	projTerm := 1.0
	if numColumns > 1 {
		projTerm = projectionContrast(proj)
	}

	return clamp01(0.5*varTerm + 0.3*expectTerm + 0.2*projTerm)
}

// expectationCloseness scores how close the detected column count is to
// the expected hint, 1.0 for an exact match.
func expectationCloseness(detected, expected int) float64 {
	if expected < 1 {
		expected = 1
	}
	maxN := detected
	if expected > maxN {
		maxN = expected
	}
	if maxN == 0 {
		return 0
	}
	diff := detected - expected
	if diff < 0 {
		diff = -diff
	}
	return 1 - float64(diff)/float64(maxN)
}

// projectionContrast measures how deep the deepest interior valley is
// relative to the median occupied bin, 1.0 for a completely empty gap.
func projectionContrast(proj []float64) float64 {
	med := medianNonzero(proj)
	if med <= 0 {
		return 0
	}
	// Deepest bin strictly between the first and last occupied bins.
	first, last := -1, -1
	for i, v := range proj {
		if v > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 || last-first < 2 {
		return 0
	}
	min := math.MaxFloat64
	for i := first + 1; i < last; i++ {
		if proj[i] < min {
			min = proj[i]
		}
	}
	return clamp01(1 - min/med)
}

// medianNonzero returns the median of the non-zero values, or 0 when all
// values are zero.
func medianNonzero(values []float64) float64 {
	nz := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			nz = append(nz, v)
		}
	}
	return median(nz)
}

// stddev returns the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
