package model

import "math"

// BBox represents an axis-aligned bounding box in corner form.
// The origin is the top-left of the page and Y increases downward,
// so Y0 is the top edge and Y1 the bottom edge.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewBBox creates a bounding box from its corners.
func NewBBox(x0, y0, x1, y1 float64) BBox {
	return BBox{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Top returns the top edge Y coordinate (smaller Y).
func (b BBox) Top() float64 {
	return b.Y0
}

// Bottom returns the bottom edge Y coordinate (larger Y).
func (b BBox) Bottom() float64 {
	return b.Y1
}

// CenterX returns the horizontal center of the box.
func (b BBox) CenterX() float64 {
	return (b.X0 + b.X1) / 2
}

// CenterY returns the vertical center of the box.
func (b BBox) CenterY() float64 {
	return (b.Y0 + b.Y1) / 2
}

// Area returns the area of the box.
func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

// Valid reports whether the box is well formed (X0 <= X1 and Y0 <= Y1).
func (b BBox) Valid() bool {
	return b.X0 <= b.X1 && b.Y0 <= b.Y1
}

// Contains reports whether the point (x, y) lies inside the box.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// ContainsBox reports whether other lies entirely inside the box.
func (b BBox) ContainsBox(other BBox) bool {
	return other.X0 >= b.X0 && other.Y0 >= b.Y0 &&
		other.X1 <= b.X1 && other.Y1 <= b.Y1
}

// Intersects reports whether two boxes overlap.
func (b BBox) Intersects(other BBox) bool {
	return !(b.X1 < other.X0 || b.X0 > other.X1 ||
		b.Y1 < other.Y0 || b.Y0 > other.Y1)
}

// Intersection returns the overlapping region of two boxes, or the zero
// box if they do not intersect.
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}
	return BBox{
		X0: math.Max(b.X0, other.X0),
		Y0: math.Max(b.Y0, other.Y0),
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
	}
}

// Union returns the smallest box covering both boxes.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// HorizontalOverlap returns the length of the overlap between the
// horizontal extents of two boxes, or 0 if they do not overlap.
func (b BBox) HorizontalOverlap(other BBox) float64 {
	overlap := math.Min(b.X1, other.X1) - math.Max(b.X0, other.X0)
	if overlap < 0 {
		return 0
	}
	return overlap
}

// HorizontalOverlapRatio returns the horizontal overlap as a fraction of
// the narrower box's width. The result is in [0, 1].
func (b BBox) HorizontalOverlapRatio(other BBox) float64 {
	minWidth := math.Min(b.Width(), other.Width())
	if minWidth <= 0 {
		return 0
	}
	ratio := b.HorizontalOverlap(other) / minWidth
	if ratio > 1 {
		return 1
	}
	return ratio
}

// VerticalGap returns the vertical distance between two boxes, or 0 if
// their vertical extents overlap.
func (b BBox) VerticalGap(other BBox) float64 {
	if b.Y1 <= other.Y0 {
		return other.Y0 - b.Y1
	}
	if other.Y1 <= b.Y0 {
		return b.Y0 - other.Y1
	}
	return 0
}

// OverlapRatio returns the intersection area as a fraction of the smaller
// box's area. The result is in [0, 1].
func (b BBox) OverlapRatio(other BBox) float64 {
	if !b.Intersects(other) {
		return 0
	}
	minArea := math.Min(b.Area(), other.Area())
	if minArea <= 0 {
		return 0
	}
	ratio := b.Intersection(other).Area() / minArea
	if ratio > 1 {
		return 1
	}
	return ratio
}
