package reference

import (
	"context"
	"fmt"

	"disc3d-batch/core/engine"

	"go.uber.org/zap"
)

// Result summarizes a reference import.
type Result struct {
	// Rows is the number of camera rows in the file.
	Rows int `json:"rows" yaml:"rows"`
	// Loaded is the number of cameras the engine reports as referenced.
	Loaded int `json:"loaded" yaml:"loaded"`
	// Unreferenced lists cameras no row matched.
	Unreferenced []string `json:"unreferenced,omitempty" yaml:"unreferenced,omitempty"`
	// Orphans lists row labels that match no camera.
	Orphans []string `json:"orphans,omitempty" yaml:"orphans,omitempty"`
	// Shape is the call shape the engine accepted.
	Shape string `json:"shape,omitempty" yaml:"shape,omitempty"`
}

// Importer loads camera reference positions into a chunk.
type Importer struct {
	logger *zap.Logger
}

// NewImporter creates a new reference importer.
func NewImporter(logger *zap.Logger) *Importer {
	return &Importer{logger: logger}
}

// Import validates the reference file against the format, then has the engine load it
// with the same options, falling back to the plain shape when the engine takes no
// coordinate system on import. Rows are matched to cameras by label, with or without the
// photo file extension. Cameras left without a row keep no reference; that is
// reported, not an error.
func (i *Importer) Import(ctx context.Context, eng engine.Engine, chunk, path string, f Format, crs string, cameras []string) (Result, error) {
	rows, err := Parse(path, f)
	if err != nil {
		return Result{}, err
	}

	byLabel := make(map[string]bool, len(rows))
	for _, r := range rows {
		byLabel[r.Label] = true
		byLabel[stem(r.Label)] = true
	}
	known := make(map[string]bool, len(cameras))
	res := Result{Rows: len(rows)}
	for _, c := range cameras {
		known[c] = true
		if !byLabel[c] {
			res.Unreferenced = append(res.Unreferenced, c)
		}
	}
	for _, r := range rows {
		if !known[r.Label] && !known[stem(r.Label)] {
			res.Orphans = append(res.Orphans, r.Label)
		}
	}

	out, shape, err := engine.Dispatch(ctx, eng, engine.OpImportReference,
		engine.ImportReference(chunk, path, f.Columns, f.Delimiter, f.SkipRows, crs)...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to import reference %s: %w", path, err)
	}
	res.Shape = shape
	res.Loaded = out.Int("loaded")

	if len(res.Unreferenced) > 0 {
		i.logger.Warn("Cameras without reference", zap.Int("count", len(res.Unreferenced)), zap.Strings("cameras", res.Unreferenced))
	}
	if len(res.Orphans) > 0 {
		i.logger.Warn("Reference rows without camera", zap.Int("count", len(res.Orphans)), zap.Strings("labels", res.Orphans))
	}
	i.logger.Info("Reference imported", zap.Int("rows", res.Rows), zap.Int("loaded", res.Loaded))
	return res, nil
}
