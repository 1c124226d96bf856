package gds

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"sort"
	"strings"

	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/geom"
)

// Library is a decoded GDSII stream.
type Library struct {
	Name         string
	Version      int
	UserUnit     float64 // size of a DBU in user units (typically 0.001 µm)
	MetersPerDBU float64 // size of a DBU in meters (typically 1e-9)
	Structures   []*Structure
}

// Structure is a GDSII cell.
type Structure struct {
	Name     string
	Elements []*Element
	Refs     []Ref
}

// Ref is an SREF or AREF placement of another structure.
type Ref struct {
	Name   string
	Array  bool
	Points []geom.Point
}

// Open reads the GDSII file at path.
func Open(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open layout %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open layout %s", path)
	}
	defer f.Close()

	lib, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// Read decodes a GDSII stream. The stream must end with ENDLIB; bytes after
// ENDLIB (tape padding) are ignored.
func Read(r io.Reader) (*Library, error) {
	p := parser{r: bufio.NewReader(r), lib: &Library{}}
	if err := p.run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode GDSII stream")
	}
	return p.lib, nil
}

type parser struct {
	r   *bufio.Reader
	lib *Library
	str *Structure
	el  *Element
	ref *Ref
}

func (p *parser) run() error {
	sawHeader := false
	for {
		rec, err := readRecord(p.r)
		if err == io.EOF {
			if !sawHeader {
				return fmt.Errorf("empty stream")
			}
			return fmt.Errorf("missing ENDLIB")
		}
		if err != nil {
			return err
		}
		if !sawHeader {
			if rec.typ != recHeader {
				return fmt.Errorf("stream does not start with HEADER (got 0x%02X)", rec.typ)
			}
			sawHeader = true
		}
		done, err := p.handle(rec)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (p *parser) handle(rec record) (bool, error) {
	switch rec.typ {
	case recHeader:
		v, err := rec.int16()
		if err != nil {
			return false, err
		}
		p.lib.Version = int(v)
	case recLibName:
		p.lib.Name = rec.str()
	case recUnits:
		u, err := rec.real8s()
		if err != nil {
			return false, err
		}
		if len(u) != 2 {
			return false, fmt.Errorf("UNITS: want 2 values, got %d", len(u))
		}
		p.lib.UserUnit, p.lib.MetersPerDBU = u[0], u[1]
	case recEndLib:
		if p.str != nil {
			return false, fmt.Errorf("ENDLIB inside structure %q", p.str.Name)
		}
		return true, nil

	case recBgnStr:
		if p.str != nil {
			return false, fmt.Errorf("BGNSTR inside structure %q", p.str.Name)
		}
		p.str = &Structure{}
	case recStrName:
		if p.str == nil {
			return false, fmt.Errorf("STRNAME outside structure")
		}
		p.str.Name = rec.str()
	case recEndStr:
		if p.str == nil {
			return false, fmt.Errorf("ENDSTR outside structure")
		}
		p.lib.Structures = append(p.lib.Structures, p.str)
		p.str = nil

	case recBoundary, recBox, recPath, recText, recNode:
		if p.str == nil {
			return false, fmt.Errorf("element 0x%02X outside structure", rec.typ)
		}
		p.el = &Element{Kind: kindOf(rec.typ)}
	case recSRef, recARef:
		if p.str == nil {
			return false, fmt.Errorf("reference outside structure")
		}
		p.ref = &Ref{Array: rec.typ == recARef}

	case recLayer:
		if p.el != nil {
			v, err := rec.uint16()
			if err != nil {
				return false, err
			}
			p.el.Layer = v
		}
	case recDatatype, recBoxType, recTextType, recNodeType:
		if p.el != nil {
			v, err := rec.uint16()
			if err != nil {
				return false, err
			}
			p.el.Datatype = v
		}
	case recWidth:
		if p.el != nil {
			v, err := rec.int32()
			if err != nil {
				return false, err
			}
			p.el.Width = int64(v)
		}
	case recPathType:
		if p.el != nil {
			v, err := rec.int16()
			if err != nil {
				return false, err
			}
			p.el.PathType = int(v)
		}
	case recString:
		if p.el != nil {
			p.el.Text = rec.str()
		}
	case recSName:
		if p.ref != nil {
			p.ref.Name = rec.str()
		}
	case recXY:
		v, err := rec.int32s()
		if err != nil {
			return false, err
		}
		if len(v)%2 != 0 {
			return false, fmt.Errorf("XY: odd coordinate count %d", len(v))
		}
		pts := make([]geom.Point, len(v)/2)
		for i := range pts {
			pts[i] = geom.Point{X: int64(v[2*i]), Y: int64(v[2*i+1])}
		}
		switch {
		case p.el != nil:
			p.el.Points = pts
		case p.ref != nil:
			p.ref.Points = pts
		}
	case recEndEl:
		switch {
		case p.el != nil:
			if n := p.el.Kind.minPoints(); len(p.el.Points) < n {
				return false, fmt.Errorf("%s element has %d points, want at least %d",
					p.el.Kind, len(p.el.Points), n)
			}
			if p.el.Kind != KindNode {
				p.str.Elements = append(p.str.Elements, p.el)
			}
			p.el = nil
		case p.ref != nil:
			p.str.Refs = append(p.str.Refs, *p.ref)
			p.ref = nil
		default:
			return false, fmt.Errorf("ENDEL without element")
		}
	}
	// BGNLIB, STRANS, MAG, ANGLE, COLROW, properties and the rest carry
	// nothing the shape enumerator needs.
	return false, nil
}

// Structure returns the structure with the given name.
func (l *Library) Structure(name string) (*Structure, bool) {
	for _, s := range l.Structures {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// TopCells returns the structures that no other structure references, in
// file order.
func (l *Library) TopCells() []*Structure {
	referenced := make(map[string]bool)
	for _, s := range l.Structures {
		for _, r := range s.Refs {
			referenced[r.Name] = true
		}
	}
	var tops []*Structure
	for _, s := range l.Structures {
		if !referenced[s.Name] {
			tops = append(tops, s)
		}
	}
	return tops
}

// TopCell returns the named structure, or, if name is empty, the single
// unreferenced structure. Libraries with several top cells require a name.
func (l *Library) TopCell(name string) (*Structure, error) {
	if name != "" {
		s, ok := l.Structure(name)
		if !ok {
			return nil, errors.New(errors.ErrCodeCellNotFound, "cell %q not found in library %q", name, l.Name)
		}
		return s, nil
	}
	if len(l.Structures) == 0 {
		return nil, errors.New(errors.ErrCodeCellNotFound, "library %q has no cells", l.Name)
	}
	tops := l.TopCells()
	switch len(tops) {
	case 1:
		return tops[0], nil
	case 0:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "library %q has no top cell (recursive references)", l.Name)
	default:
		names := make([]string, len(tops))
		for i, s := range tops {
			names[i] = s.Name
		}
		sort.Strings(names)
		return nil, errors.New(errors.ErrCodeAmbiguousTopCell,
			"library %q has %d top cells (%s); select one explicitly", l.Name, len(tops), strings.Join(names, ", "))
	}
}

// LayerKey identifies a GDSII layer/datatype pair.
type LayerKey struct {
	Layer    int
	Datatype int
}

func (k LayerKey) String() string {
	return fmt.Sprintf("%d/%d", k.Layer, k.Datatype)
}

// Shapes yields the geometric elements (boundaries, boxes and paths) of s
// on the given layer, in file order. Text labels are not shapes.
func (s *Structure) Shapes(key LayerKey) iter.Seq[*Element] {
	return func(yield func(*Element) bool) {
		for _, el := range s.Elements {
			if !el.Kind.IsShape() || el.Layer != key.Layer || el.Datatype != key.Datatype {
				continue
			}
			if !yield(el) {
				return
			}
		}
	}
}

// Layers returns the distinct layer keys used by the shapes in s, sorted.
func (s *Structure) Layers() []LayerKey {
	seen := make(map[LayerKey]bool)
	var keys []LayerKey
	for _, el := range s.Elements {
		if !el.Kind.IsShape() {
			continue
		}
		k := LayerKey{Layer: el.Layer, Datatype: el.Datatype}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Layer != keys[j].Layer {
			return keys[i].Layer < keys[j].Layer
		}
		return keys[i].Datatype < keys[j].Datatype
	})
	return keys
}
