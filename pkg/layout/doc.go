// Package layout extracts per-shape geometry features and a metal-density
// grid from a GDSII cell.
//
// Two products come out of one cell:
//
//   - [Shapes] yields a [ShapeRecord] for every boundary, box and path on
//     each tracked layer. Rectangles report their exact area; any other
//     shape reports its bounding box and approximates its area as the
//     bounding-box width×height, which overestimates non-rectangular
//     polygons.
//   - [BuildDensity] bins the density layers' bounding boxes into square
//     cells. With the default [tech.OverlapFull] policy each cell a box
//     touches receives the box's whole area, so boxes crossing cell borders
//     are counted once per cell. [tech.OverlapClip] attributes only the
//     overlapping part.
//
// Each density layer has its own accumulator and every cell in the grid
// extent is emitted, including empty ones.
package layout
