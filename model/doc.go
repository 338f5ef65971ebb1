// Package model provides the data types produced and consumed by page
// layout analysis.
//
// All geometry uses an axis-aligned corner-form bounding box [BBox] with
// the origin at the top-left of the page and Y increasing downward, which
// matches the coordinates delivered by text extraction collaborators.
//
// # Inputs
//
// A [TextPrimitive] is a positioned glyph run with font metadata. It is
// the only input type; primitives are never mutated by analysis.
//
// # Outputs
//
// A [PageLayout] is the complete analysis result for one page: typed
// [Block] values in reading order, the detected [Column] partition, and
// header/footer/spanning views. Iterating Blocks in ReadingOrder is the
// authoritative sequence for downstream document assembly.
package model
