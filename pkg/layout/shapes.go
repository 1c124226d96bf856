package layout

import (
	"iter"

	"github.com/matzehuels/chipfeat/pkg/gds"
	"github.com/matzehuels/chipfeat/pkg/geom"
	"github.com/matzehuels/chipfeat/pkg/tech"
)

// ShapeRecord is the geometry of one shape on a tracked layer.
type ShapeRecord struct {
	Layer    int
	Datatype int
	Area     int64
	XMin     int64
	YMin     int64
	XMax     int64
	YMax     int64
}

// Box returns the record's extents.
func (r ShapeRecord) Box() geom.Box {
	return geom.Box{XMin: r.XMin, YMin: r.YMin, XMax: r.XMax, YMax: r.YMax}
}

func key(l tech.Layer) gds.LayerKey {
	return gds.LayerKey{Layer: l.Number, Datatype: l.Datatype}
}

// NewShapeRecord converts a GDSII element to a record. Rectangles keep
// their exact geometry; everything else is replaced by its bounding box.
func NewShapeRecord(el *gds.Element) ShapeRecord {
	var b geom.Box
	if el.IsBox() {
		b = el.Box()
	} else {
		b = el.BBox()
	}
	return ShapeRecord{
		Layer:    el.Layer,
		Datatype: el.Datatype,
		Area:     b.Area(),
		XMin:     b.XMin,
		YMin:     b.YMin,
		XMax:     b.XMax,
		YMax:     b.YMax,
	}
}

// Shapes yields a record for every shape on every layer of the table, in
// table order and then file order. Layers the cell does not use yield
// nothing.
func Shapes(cell *gds.Structure, layers []tech.Layer) iter.Seq[ShapeRecord] {
	return func(yield func(ShapeRecord) bool) {
		for _, l := range layers {
			for el := range cell.Shapes(key(l)) {
				if !yield(NewShapeRecord(el)) {
					return
				}
			}
		}
	}
}

// LayerCounts returns the number of shapes on each layer of the table.
func LayerCounts(cell *gds.Structure, layers []tech.Layer) map[string]int {
	counts := make(map[string]int, len(layers))
	for _, l := range layers {
		n := 0
		for range cell.Shapes(key(l)) {
			n++
		}
		counts[l.Name] = n
	}
	return counts
}
