package gds

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/matzehuels/chipfeat/pkg/geom"
)

// Writer emits a GDSII stream. Errors are sticky: after the first failure
// every call is a no-op and [Writer.Close] reports the error.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// BeginLibrary writes HEADER, BGNLIB, LIBNAME and UNITS.
func (w *Writer) BeginLibrary(name string, userUnit, metersPerDBU float64) {
	w.int16s(recHeader, 600)
	w.int16s(recBgnLib, make([]int16, 12)...)
	w.ascii(recLibName, name)
	w.real8s(recUnits, userUnit, metersPerDBU)
}

// EndLibrary writes ENDLIB.
func (w *Writer) EndLibrary() {
	w.write(recEndLib, dtNone, nil)
}

// BeginStructure writes BGNSTR and STRNAME.
func (w *Writer) BeginStructure(name string) {
	w.int16s(recBgnStr, make([]int16, 12)...)
	w.ascii(recStrName, name)
}

// EndStructure writes ENDSTR.
func (w *Writer) EndStructure() {
	w.write(recEndStr, dtNone, nil)
}

// Boundary writes a polygon. The outline is closed automatically.
func (w *Writer) Boundary(layer, datatype int, pts []geom.Point) {
	if len(pts) > 0 && pts[0] != pts[len(pts)-1] {
		pts = append(append([]geom.Point(nil), pts...), pts[0])
	}
	w.write(recBoundary, dtNone, nil)
	w.int16s(recLayer, int16(layer))
	w.int16s(recDatatype, int16(datatype))
	w.xy(pts)
	w.write(recEndEl, dtNone, nil)
}

// Box writes a BOX element.
func (w *Writer) Box(layer, boxtype int, b geom.Box) {
	w.write(recBox, dtNone, nil)
	w.int16s(recLayer, int16(layer))
	w.int16s(recBoxType, int16(boxtype))
	w.xy([]geom.Point{
		{X: b.XMin, Y: b.YMin}, {X: b.XMax, Y: b.YMin},
		{X: b.XMax, Y: b.YMax}, {X: b.XMin, Y: b.YMax},
		{X: b.XMin, Y: b.YMin},
	})
	w.write(recEndEl, dtNone, nil)
}

// Path writes a PATH element.
func (w *Writer) Path(layer, datatype, pathType int, width int64, pts []geom.Point) {
	w.write(recPath, dtNone, nil)
	w.int16s(recLayer, int16(layer))
	w.int16s(recDatatype, int16(datatype))
	w.int16s(recPathType, int16(pathType))
	w.int32s(recWidth, int32(width))
	w.xy(pts)
	w.write(recEndEl, dtNone, nil)
}

// Text writes a TEXT label.
func (w *Writer) Text(layer, texttype int, at geom.Point, s string) {
	w.write(recText, dtNone, nil)
	w.int16s(recLayer, int16(layer))
	w.int16s(recTextType, int16(texttype))
	w.xy([]geom.Point{at})
	w.ascii(recString, s)
	w.write(recEndEl, dtNone, nil)
}

// SRef writes a reference to the named structure.
func (w *Writer) SRef(name string, at geom.Point) {
	w.write(recSRef, dtNone, nil)
	w.ascii(recSName, name)
	w.xy([]geom.Point{at})
	w.write(recEndEl, dtNone, nil)
}

// Close flushes buffered output and returns the first error encountered.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

func (w *Writer) write(typ, dtype byte, payload []byte) {
	if w.err != nil {
		return
	}
	n := len(payload) + 4
	if n > maxRecordLen {
		w.err = fmt.Errorf("record 0x%02X too long (%d bytes)", typ, n)
		return
	}
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[:2], uint16(n))
	hdr[2], hdr[3] = typ, dtype
	if _, err := w.w.Write(hdr[:]); err != nil {
		w.err = err
		return
	}
	if _, err := w.w.Write(payload); err != nil {
		w.err = err
	}
}

func (w *Writer) int16s(typ byte, v ...int16) {
	buf := make([]byte, 2*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint16(buf[2*i:], uint16(x))
	}
	w.write(typ, dtInt16, buf)
}

func (w *Writer) int32s(typ byte, v ...int32) {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint32(buf[4*i:], uint32(x))
	}
	w.write(typ, dtInt32, buf)
}

func (w *Writer) real8s(typ byte, v ...float64) {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint64(buf[8*i:], encodeReal8(x))
	}
	w.write(typ, dtReal8, buf)
}

func (w *Writer) ascii(typ byte, s string) {
	b := []byte(s)
	if len(b)%2 != 0 {
		b = append(b, 0)
	}
	w.write(typ, dtASCII, b)
}

func (w *Writer) xy(pts []geom.Point) {
	v := make([]int32, 0, 2*len(pts))
	for _, p := range pts {
		v = append(v, int32(p.X), int32(p.Y))
	}
	w.int32s(recXY, v...)
}
