// Package io writes chipfeat's CSV outputs.
//
// Every file is a fixed header row followed by one row per record, in the
// order the producer yields them. All fields are plain base-10 integers, so
// no quoting ever occurs.
//
// # Files
//
//	layout_features.csv  layer,datatype,area,xmin,ymin,xmax,ymax
//	density_grid.csv     cell_x,cell_y,metal1_area,metal2_area
//	<placement>.csv      grid_x,grid_y,cell_density,pin_count
//
// The density header has one "<layer>_area" column per configured density
// layer; the default table yields the metal1/metal2 header above.
//
// # Writing
//
// The Write* functions take any io.Writer. The Export* functions create the
// file, including missing parent directories, and close it before
// returning:
//
//	n, err := io.ExportPlacementGrid(g, "dataset/dataset.csv")
package io
