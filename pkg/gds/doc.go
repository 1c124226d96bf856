// Package gds reads and writes GDSII stream files.
//
// GDSII is the binary, hierarchical format used to exchange IC photomask
// geometry. A file is a flat sequence of records; each record is a 2-byte
// big-endian length (including the 4-byte header), a record type, a data
// type, and a payload. Records group into a library of structures (cells),
// and each structure holds elements: polygons (BOUNDARY), rectangles
// (BOX), wires (PATH), labels (TEXT), and references to other structures
// (SREF, AREF).
//
// This package decodes the subset of records needed to enumerate shapes
// per (layer, datatype) in one cell. Transformations on references (STRANS,
// MAG, ANGLE) and properties are read past and ignored: callers work with
// the shapes placed directly in a cell, not a flattened hierarchy.
//
// # Reading
//
//	lib, err := gds.Open("full_adder.gds")
//	if err != nil {
//	    return err
//	}
//	top, err := lib.TopCell("")
//	if err != nil {
//	    return err
//	}
//	for el := range top.Shapes(gds.LayerKey{Layer: 3, Datatype: 0}) {
//	    fmt.Println(el.BBox(), el.IsBox())
//	}
//
// # Writing
//
// [Writer] emits a minimal, valid stream. It exists mainly to build
// fixtures for tests and small synthetic layouts.
package gds
