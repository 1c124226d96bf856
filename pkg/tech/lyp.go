package tech

import (
	"encoding/xml"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/chipfeat/pkg/errors"
)

// lypProperties is one <properties> entry of a KLayout .lyp file.
type lypProperties struct {
	Name   string `xml:"name"`
	Source string `xml:"source"`
}

type lypFile struct {
	XMLName    xml.Name        `xml:"layer-properties"`
	Properties []lypProperties `xml:"properties"`
}

// ImportLYP builds a layer table from a KLayout layer-properties file.
// Only "<layer>.drawing" entries are kept; names are lowercased so that
// "Metal1.drawing" becomes "metal1". Density layers default to metal1 and
// metal2 when the file defines them.
func ImportLYP(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open layer properties %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open layer properties %s", path)
	}
	defer f.Close()

	var doc lypFile
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse layer properties %s", path)
	}

	cfg := &Config{
		Name: strings.TrimSuffix(filepath.Base(path), ".lyp"),
		Density: Density{
			GridSize: DefaultGridSize,
			Overlap:  OverlapFull,
		},
	}
	seen := make(map[string]bool)
	for _, p := range doc.Properties {
		name, ok := drawingLayerName(p.Name)
		if !ok || seen[name] {
			continue
		}
		number, datatype, ok := parseLYPSource(p.Source)
		if !ok {
			continue
		}
		seen[name] = true
		cfg.Layers = append(cfg.Layers, Layer{Name: name, Number: number, Datatype: datatype})
	}
	for _, name := range Default().Density.Layers {
		if seen[name] {
			cfg.Density.Layers = append(cfg.Density.Layers, name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// drawingLayerName returns "metal1" for "Metal1.drawing".
func drawingLayerName(name string) (string, bool) {
	base, purpose, ok := strings.Cut(strings.TrimSpace(name), ".")
	if !ok || purpose != "drawing" || base == "" {
		return "", false
	}
	return strings.ToLower(base), true
}

// parseLYPSource parses sources such as "8/0@1" or "Metal1 8/0@1".
func parseLYPSource(src string) (int, int, bool) {
	src, _, _ = strings.Cut(strings.TrimSpace(src), "@")
	fields := strings.Fields(src)
	if len(fields) == 0 {
		return 0, 0, false
	}
	l, d, ok := strings.Cut(fields[len(fields)-1], "/")
	if !ok {
		return 0, 0, false
	}
	number, err := strconv.Atoi(l)
	if err != nil {
		return 0, 0, false
	}
	datatype, err := strconv.Atoi(d)
	if err != nil {
		return 0, 0, false
	}
	return number, datatype, true
}

