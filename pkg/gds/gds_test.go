package gds

import (
	"bytes"
	stderrors "errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/geom"
)

func buildLibrary(t *testing.T, fn func(w *Writer)) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.BeginLibrary("lib", 0.001, 1e-9)
	fn(w)
	w.EndLibrary()
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestReadShapes(t *testing.T) {
	data := buildLibrary(t, func(w *Writer) {
		w.BeginStructure("full_adder")
		w.Box(3, 0, geom.Box{XMin: 0, YMin: 0, XMax: 10000, YMax: 10000})
		w.Boundary(3, 0, []geom.Point{{X: 0, Y: 0}, {X: 400, Y: 0}, {X: 400, Y: 100}, {X: 100, Y: 100}, {X: 100, Y: 300}, {X: 0, Y: 300}})
		w.Path(4, 0, PathFlush, 20, []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}})
		w.Text(3, 0, geom.Point{X: 5, Y: 5}, "VDD")
		w.EndStructure()
	})

	lib, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "lib", lib.Name)
	assert.InDelta(t, 0.001, lib.UserUnit, 1e-15)
	assert.InDelta(t, 1e-9, lib.MetersPerDBU, 1e-21)
	require.Len(t, lib.Structures, 1)

	top, err := lib.TopCell("")
	require.NoError(t, err)
	assert.Equal(t, "full_adder", top.Name)
	require.Len(t, top.Elements, 4)

	var metal1 []*Element
	for el := range top.Shapes(LayerKey{Layer: 3, Datatype: 0}) {
		metal1 = append(metal1, el)
	}
	require.Len(t, metal1, 2, "text labels are not shapes")

	assert.True(t, metal1[0].IsBox())
	assert.Equal(t, int64(100_000_000), metal1[0].Box().Area())

	assert.False(t, metal1[1].IsBox())
	assert.Equal(t, geom.Box{XMin: 0, YMin: 0, XMax: 400, YMax: 300}, metal1[1].BBox())

	assert.Equal(t, []LayerKey{{3, 0}, {4, 0}}, top.Layers())
}

func TestIsBox(t *testing.T) {
	tests := []struct {
		name string
		pts  []geom.Point
		want bool
	}{
		{"closed rectangle", []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 0, Y: 5}, {X: 0, Y: 0}}, true},
		{"open rectangle", []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 5}, {X: 10, Y: 5}, {X: 10, Y: 0}}, true},
		{"L shape", []geom.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 3}, {X: 0, Y: 3}, {X: 0, Y: 0}}, false},
		{"diamond", []geom.Point{{X: 5, Y: 0}, {X: 10, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 5}, {X: 5, Y: 0}}, false},
		{"crossed", []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 5}, {X: 10, Y: 0}, {X: 0, Y: 5}, {X: 0, Y: 0}}, false},
		{"degenerate", []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 0}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := &Element{Kind: KindBoundary, Points: tt.pts}
			assert.Equal(t, tt.want, el.IsBox())
		})
	}
}

func TestPathBBox(t *testing.T) {
	pts := []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}}
	tests := []struct {
		name     string
		pathType int
		want     geom.Box
	}{
		{"flush", PathFlush, geom.Box{XMin: 0, YMin: -10, XMax: 110, YMax: 50}},
		{"extended", PathExtended, geom.Box{XMin: -10, YMin: -10, XMax: 110, YMax: 60}},
		{"round", PathRound, geom.Box{XMin: -10, YMin: -10, XMax: 110, YMax: 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := &Element{Kind: KindPath, Points: pts, Width: 20, PathType: tt.pathType}
			assert.Equal(t, tt.want, el.BBox())
		})
	}
}

func TestTopCell(t *testing.T) {
	data := buildLibrary(t, func(w *Writer) {
		w.BeginStructure("inv")
		w.Box(3, 0, geom.Box{XMax: 10, YMax: 10})
		w.EndStructure()
		w.BeginStructure("top_a")
		w.SRef("inv", geom.Point{X: 100, Y: 0})
		w.EndStructure()
		w.BeginStructure("top_b")
		w.EndStructure()
	})
	lib, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = lib.TopCell("")
	assert.True(t, errors.Is(err, errors.ErrCodeAmbiguousTopCell), "got %v", err)

	s, err := lib.TopCell("top_a")
	require.NoError(t, err)
	require.Len(t, s.Refs, 1)
	assert.Equal(t, "inv", s.Refs[0].Name)

	_, err = lib.TopCell("missing")
	assert.True(t, errors.Is(err, errors.ErrCodeCellNotFound))
}

func TestReadMalformed(t *testing.T) {
	valid := buildLibrary(t, func(w *Writer) {
		w.BeginStructure("c")
		w.Box(1, 0, geom.Box{XMax: 1, YMax: 1})
		w.EndStructure()
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", valid[:len(valid)-10]},
		{"no header", valid[6:]},
		{"bad length", []byte{0x00, 0x03, 0x00, 0x02}},
		{"boundary without xy", buildLibrary(t, func(w *Writer) {
			w.BeginStructure("c")
			w.write(recBoundary, dtNone, nil)
			w.int16s(recLayer, 3)
			w.int16s(recDatatype, 0)
			w.write(recEndEl, dtNone, nil)
			w.EndStructure()
		})},
		{"box with four points", buildLibrary(t, func(w *Writer) {
			w.BeginStructure("c")
			w.write(recBox, dtNone, nil)
			w.int16s(recLayer, 3)
			w.int16s(recBoxType, 0)
			w.xy([]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}})
			w.write(recEndEl, dtNone, nil)
			w.EndStructure()
		})},
		{"empty path", buildLibrary(t, func(w *Writer) {
			w.BeginStructure("c")
			w.Path(3, 0, PathFlush, 10, nil)
			w.EndStructure()
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)
		})
	}
}

func TestReadHighLayerNumbers(t *testing.T) {
	data := buildLibrary(t, func(w *Writer) {
		w.BeginStructure("c")
		w.Box(40000, 65535, geom.Box{XMax: 10, YMax: 10})
		w.EndStructure()
	})
	lib, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, lib.Structures, 1)
	assert.Equal(t, []LayerKey{{Layer: 40000, Datatype: 65535}}, lib.Structures[0].Layers())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.gds"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.gds")
	data := buildLibrary(t, func(w *Writer) {
		w.BeginStructure("one")
		w.EndStructure()
	})
	// Trailing zero padding after ENDLIB is common on tape-era files.
	data = append(data, make([]byte, 64)...)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	lib, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, lib.Structures, 1)
}

func TestReal8(t *testing.T) {
	for _, v := range []float64{0, 1, -1, 0.001, 1e-9, 1e-6, 16, 0.5, 12345.678} {
		got := decodeReal8(encodeReal8(v))
		if v == 0 {
			assert.Zero(t, got)
			continue
		}
		assert.LessOrEqual(t, math.Abs(got-v)/math.Abs(v), 1e-14, "v=%g got=%g", v, got)
	}
	// 1.0 in excess-64: exponent 65, mantissa 1/16.
	assert.Equal(t, uint64(0x4110000000000000), encodeReal8(1))
}
