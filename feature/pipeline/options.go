package pipeline

import (
	"fmt"
	"path/filepath"

	"disc3d-batch/core/engine"
	"disc3d-batch/feature/reference"
	"disc3d-batch/feature/scan"
)

// Method selects how intrinsics are obtained.
type Method string

const (
	// MethodSeeded seeds the focal length and fits only f during optimization.
	MethodSeeded Method = "seeded"
	// MethodCalibrated imports a calibrated camera file and keeps every intrinsic fixed.
	MethodCalibrated Method = "calibrated"
)

// Options are the reconstruction settings shared by every job of a batch.
type Options struct {
	Method     Method
	ChunkLabel string
	// FocalPx seeds the focal length in pixels (seeded method).
	FocalPx float64
	// MaskDir holds mask images; relative paths are resolved inside each scan
	// folder. Empty disables masking.
	MaskDir   string
	Reference reference.Format
	// CRS is the coordinate system WKT used for reference import and camera export.
	CRS   string
	Match engine.MatchParams
	// ExportCameras writes the calibrated camera XML when the project is persisted.
	ExportCameras bool
	// KeepDepthMaps and KeepMatches skip thinning the project before the final save.
	KeepDepthMaps bool
	KeepMatches   bool
	// Force discards existing checkpoints and starts each job from scratch.
	Force bool
	// CalibratedGlob finds the calibrated camera file in a scan's models directory.
	CalibratedGlob string
}

// DefaultOptions returns the DISC3D defaults.
func DefaultOptions() Options {
	return Options{
		Method:        MethodSeeded,
		ChunkLabel:    "DISC3D",
		FocalPx:       10276.64,
		Reference:     reference.DefaultFormat,
		Match:         engine.MatchParams{KeypointLimit: 250000, TiepointLimit: 250000},
		ExportCameras: true,
	}
}

// Validate checks the options are usable.
func (o Options) Validate() error {
	switch o.Method {
	case MethodSeeded:
		if o.FocalPx <= 0 {
			return fmt.Errorf("focal length seed must be positive, got %g", o.FocalPx)
		}
		if err := o.Reference.Validate(); err != nil {
			return err
		}
	case MethodCalibrated:
	default:
		return fmt.Errorf("unknown method %q (want %s or %s)", o.Method, MethodSeeded, MethodCalibrated)
	}
	if o.ChunkLabel == "" {
		return fmt.Errorf("chunk label must not be empty")
	}
	if o.Match.KeypointLimit < 0 || o.Match.TiepointLimit < 0 {
		return fmt.Errorf("keypoint and tiepoint limits must not be negative")
	}
	return nil
}

// ResolveOptions returns the inputs a job needs under these options.
func (o Options) ResolveOptions() scan.Options {
	return scan.Options{
		RequireReference:  o.Method == MethodSeeded,
		RequireCalibrated: o.Method == MethodCalibrated,
		CalibratedGlob:    o.CalibratedGlob,
	}
}

func (o Options) maskDir(job scan.Job) string {
	if o.MaskDir == "" || filepath.IsAbs(o.MaskDir) {
		return o.MaskDir
	}
	return filepath.Join(job.Dir, o.MaskDir)
}
