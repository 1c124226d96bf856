// Package geom provides integer layout geometry in database units (DBU).
//
// All coordinates are int64 DBU values as stored in GDSII and DEF files.
// Boxes are axis-aligned; a Box with XMax < XMin or YMax < YMin is empty.
package geom

import "fmt"

// Point is a coordinate pair in database units.
type Point struct {
	X, Y int64
}

// Box is an axis-aligned rectangle. Extents are inclusive of both corners
// in the sense of a layout bounding box: a 10×10 box at origin has
// XMin=0, XMax=10.
type Box struct {
	XMin, YMin, XMax, YMax int64
}

// EmptyBox returns a box that acts as the identity for Union.
func EmptyBox() Box {
	return Box{XMin: 1, YMin: 1, XMax: 0, YMax: 0}
}

// Empty reports whether b encloses no points at all.
func (b Box) Empty() bool {
	return b.XMax < b.XMin || b.YMax < b.YMin
}

// Width returns XMax-XMin, or 0 for an empty box.
func (b Box) Width() int64 {
	if b.Empty() {
		return 0
	}
	return b.XMax - b.XMin
}

// Height returns YMax-YMin, or 0 for an empty box.
func (b Box) Height() int64 {
	if b.Empty() {
		return 0
	}
	return b.YMax - b.YMin
}

// Area returns Width×Height.
func (b Box) Area() int64 {
	return b.Width() * b.Height()
}

// Union returns the smallest box enclosing both b and o.
func (b Box) Union(o Box) Box {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return Box{
		XMin: min(b.XMin, o.XMin),
		YMin: min(b.YMin, o.YMin),
		XMax: max(b.XMax, o.XMax),
		YMax: max(b.YMax, o.YMax),
	}
}

// Intersect returns the overlap of b and o, which may be empty.
func (b Box) Intersect(o Box) Box {
	return Box{
		XMin: max(b.XMin, o.XMin),
		YMin: max(b.YMin, o.YMin),
		XMax: min(b.XMax, o.XMax),
		YMax: min(b.YMax, o.YMax),
	}
}

// Expand grows the box by d on every side.
func (b Box) Expand(d int64) Box {
	if b.Empty() {
		return b
	}
	return Box{XMin: b.XMin - d, YMin: b.YMin - d, XMax: b.XMax + d, YMax: b.YMax + d}
}

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d;%d,%d)", b.XMin, b.YMin, b.XMax, b.YMax)
}

// BoundingBox returns the smallest box enclosing all points.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return EmptyBox()
	}
	b := Box{XMin: pts[0].X, YMin: pts[0].Y, XMax: pts[0].X, YMax: pts[0].Y}
	for _, p := range pts[1:] {
		b.XMin = min(b.XMin, p.X)
		b.YMin = min(b.YMin, p.Y)
		b.XMax = max(b.XMax, p.X)
		b.YMax = max(b.YMax, p.Y)
	}
	return b
}

// FloorDiv divides a by b rounding toward negative infinity. b must be > 0.
func FloorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int64) int64 {
	return max(lo, min(hi, v))
}
