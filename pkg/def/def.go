// Package def reads component placements from DEF files.
//
// DEF (Design Exchange Format) is a line-oriented text format describing a
// placed or routed design. This package reads only what the placement
// binner needs: the (x, y) origin of each placed component and,
// optionally, the DIEAREA.
//
// A component line is recognised when it starts with "-" and matches
//
//	- <instance> <master> + PLACED ( <x> <y> ) ...
//
// Orientation and anything after the closing parenthesis are ignored.
// Components marked FIXED, COVER or UNPLACED, multi-line component records,
// and negative coordinates do not match and are skipped. Skipped lines are
// counted in [Stats] but never reported as errors.
package def

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/geom"
)

// placedRe matches a single-line PLACED component record.
var placedRe = regexp.MustCompile(`^-\s+\S+\s+\S+\s+\+\s+PLACED\s+\(\s*([0-9]+)\s+([0-9]+)\s*\)`)

// Placement is the origin of one placed component in DBU. Instance and
// master names are not kept.
type Placement = geom.Point

// Stats counts what the parser saw.
type Stats struct {
	Lines      int // lines read
	Candidates int // lines starting with "-"
	Matched    int // PLACED records returned
}

// Skipped returns the number of "-" lines that did not match.
func (s Stats) Skipped() int {
	return s.Candidates - s.Matched
}

// Result holds the placements in file order.
type Result struct {
	Placements []Placement
	Stats      Stats
}

// ParseFile parses the DEF file at path.
func ParseFile(ctx context.Context, path string) (*Result, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(ctx, f)
}

// Parse reads placements from r. Lines that are not PLACED records are
// skipped; an input with no matches returns an empty result.
func Parse(ctx context.Context, r io.Reader) (*Result, error) {
	res := &Result{}
	sc := newScanner(r)
	for sc.Scan() {
		res.Stats.Lines++
		if res.Stats.Lines%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p, candidate, ok := ParseLine(sc.Text())
		if candidate {
			res.Stats.Candidates++
		}
		if ok {
			res.Stats.Matched++
			res.Placements = append(res.Placements, p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read DEF")
	}
	return res, nil
}

// ParseLine parses one line. candidate reports whether the line starts
// with "-"; ok reports whether it is a PLACED record.
func ParseLine(line string) (p Placement, candidate, ok bool) {
	if !strings.HasPrefix(line, "-") {
		return Placement{}, false, false
	}
	m := placedRe.FindStringSubmatch(line)
	if m == nil {
		return Placement{}, true, false
	}
	x, errX := strconv.ParseInt(m[1], 10, 64)
	y, errY := strconv.ParseInt(m[2], 10, 64)
	if errX != nil || errY != nil {
		return Placement{}, true, false
	}
	return Placement{X: x, Y: y}, true, true
}

var dieAreaRe = regexp.MustCompile(`^\s*DIEAREA\s+\(\s*(-?[0-9]+)\s+(-?[0-9]+)\s*\)\s+\(\s*(-?[0-9]+)\s+(-?[0-9]+)\s*\)`)

// ParseDieArea returns the rectangle of the first DIEAREA statement in the
// file at path. ok is false when the file has no rectangular DIEAREA.
func ParseDieArea(path string) (box geom.Box, ok bool, err error) {
	f, err := open(path)
	if err != nil {
		return geom.Box{}, false, err
	}
	defer f.Close()

	sc := newScanner(f)
	for sc.Scan() {
		m := dieAreaRe.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		var v [4]int64
		for i := range v {
			v[i], _ = strconv.ParseInt(m[i+1], 10, 64)
		}
		a := geom.Point{X: v[0], Y: v[1]}
		b := geom.Point{X: v[2], Y: v[3]}
		return geom.BoundingBox([]geom.Point{a, b}), true, nil
	}
	if err := sc.Err(); err != nil {
		return geom.Box{}, false, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read DEF %s", path)
	}
	return geom.Box{}, false, nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open DEF %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open DEF %s", path)
	}
	return f, nil
}

// newScanner returns a line scanner that tolerates long lines such as
// generated NETS sections.
func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return sc
}
