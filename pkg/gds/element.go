package gds

import "github.com/matzehuels/chipfeat/pkg/geom"

// Kind is the GDSII element type.
type Kind int

const (
	KindBoundary Kind = iota
	KindBox
	KindPath
	KindText
	KindNode
)

var kindNames = [...]string{"boundary", "box", "path", "text", "node"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsShape reports whether elements of this kind carry area.
func (k Kind) IsShape() bool {
	return k == KindBoundary || k == KindBox || k == KindPath
}

// minPoints is the smallest XY point count a well-formed element carries.
func (k Kind) minPoints() int {
	switch k {
	case KindBoundary:
		return 4
	case KindBox:
		return 5
	case KindPath:
		return 1
	default:
		return 0
	}
}

func kindOf(rec byte) Kind {
	switch rec {
	case recBox:
		return KindBox
	case recPath:
		return KindPath
	case recText:
		return KindText
	case recNode:
		return KindNode
	default:
		return KindBoundary
	}
}

// Path end styles.
const (
	PathFlush    = 0
	PathRound    = 1
	PathExtended = 2
	PathCustom   = 4
)

// Element is a single drawn element of a structure.
type Element struct {
	Kind     Kind
	Layer    int
	Datatype int // DATATYPE, BOXTYPE or TEXTTYPE depending on Kind
	Points   []geom.Point
	Width    int64 // PATH only; negative means absolute (unscaled) width
	PathType int   // PATH only
	Text     string
}

// IsBox reports whether the element is an axis-aligned rectangle: a BOX
// element, or a BOUNDARY whose outline is exactly four axis-aligned corners.
func (e *Element) IsBox() bool {
	switch e.Kind {
	case KindBox:
		return true
	case KindBoundary:
		return isRect(e.Points)
	default:
		return false
	}
}

// Box returns the rectangle of an element for which IsBox is true.
func (e *Element) Box() geom.Box {
	return geom.BoundingBox(e.Points)
}

// BBox returns the element's axis-aligned bounding box. Path boxes include
// the half-width on both sides and the end extension for round and
// extended paths.
func (e *Element) BBox() geom.Box {
	if e.Kind != KindPath {
		return geom.BoundingBox(e.Points)
	}
	return pathBBox(e.Points, e.Width, e.PathType)
}

func isRect(pts []geom.Point) bool {
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	if len(pts) != 4 {
		return false
	}
	b := geom.BoundingBox(pts)
	if b.Width() == 0 || b.Height() == 0 {
		return false
	}
	for i, p := range pts {
		if (p.X != b.XMin && p.X != b.XMax) || (p.Y != b.YMin && p.Y != b.YMax) {
			return false
		}
		q := pts[(i+1)%len(pts)]
		if p == q || (p.X != q.X && p.Y != q.Y) {
			return false
		}
	}
	return true
}

func pathBBox(pts []geom.Point, width int64, pathType int) geom.Box {
	if width < 0 {
		width = -width
	}
	hw := width / 2
	var ext int64
	if pathType == PathRound || pathType == PathExtended {
		ext = hw
	}
	if len(pts) == 1 {
		return geom.Box{XMin: pts[0].X - ext, YMin: pts[0].Y - ext, XMax: pts[0].X + ext, YMax: pts[0].Y + ext}
	}

	out := geom.EmptyBox()
	for i := 0; i+1 < len(pts); i++ {
		p, q := pts[i], pts[i+1]
		// Extension applies only at the two path ends.
		var extP, extQ int64
		if i == 0 {
			extP = ext
		}
		if i+2 == len(pts) {
			extQ = ext
		}
		var seg geom.Box
		switch {
		case p.Y == q.Y:
			lo, hi := p.X-extP, q.X+extQ
			if p.X > q.X {
				lo, hi = q.X-extQ, p.X+extP
			}
			seg = geom.Box{XMin: lo, YMin: p.Y - hw, XMax: hi, YMax: p.Y + hw}
		case p.X == q.X:
			lo, hi := p.Y-extP, q.Y+extQ
			if p.Y > q.Y {
				lo, hi = q.Y-extQ, p.Y+extP
			}
			seg = geom.Box{XMin: p.X - hw, YMin: lo, XMax: p.X + hw, YMax: hi}
		default:
			seg = geom.BoundingBox([]geom.Point{p, q}).Expand(max(hw, ext))
		}
		out = out.Union(seg)
	}
	return out
}
