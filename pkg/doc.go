// Package pkg provides the libraries behind chipfeat, a feature extractor
// for physical chip design files.
//
// # Overview
//
// chipfeat turns two kinds of design files into flat CSV tables for
// machine-learning experiments:
//
//	GDSII layout ──► [gds] ──► [layout] shapes ──────► layout_features.csv
//	                        └► [layout] density grid ─► density_grid.csv
//
//	DEF placement ─► [def] ──► [grid] binner ────────► placement CSV
//
// The two pipelines share nothing but the ambient packages.
//
// # Main Packages
//
// [gds] - GDSII stream reader (and a small writer used for fixtures).
// Decodes libraries, structures, boundaries, boxes, paths and references.
//
// [tech] - Technology layer tables: which GDS layer/datatype pairs to track,
// which layers feed the density grid, its cell size and overlap policy.
// Loaded from TOML or imported from KLayout .lyp files.
//
// [layout] - Shape enumeration and the per-layer density accumulator.
//
// [def] - Line-oriented DEF reader for PLACED component records.
//
// [grid] - NxN placement binner with cell and pin estimates.
//
// [io] - CSV writers for all three tables.
//
// [render] - Optional PNG and HTML heatmaps.
//
// [pipeline] - Runs either extraction end to end with logging, run IDs and
// [observability] hooks.
//
// [gds]: github.com/matzehuels/chipfeat/pkg/gds
// [tech]: github.com/matzehuels/chipfeat/pkg/tech
// [layout]: github.com/matzehuels/chipfeat/pkg/layout
// [def]: github.com/matzehuels/chipfeat/pkg/def
// [grid]: github.com/matzehuels/chipfeat/pkg/grid
// [io]: github.com/matzehuels/chipfeat/pkg/io
// [render]: github.com/matzehuels/chipfeat/pkg/render
// [pipeline]: github.com/matzehuels/chipfeat/pkg/pipeline
// [observability]: github.com/matzehuels/chipfeat/pkg/observability
package pkg
