package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"disc3d-batch/core/engine"
	"disc3d-batch/feature/mask"
	"disc3d-batch/feature/scan"

	"go.uber.org/zap"
)

func (s *Sequencer) dispatch(ctx context.Context, st *State, op string, variants []engine.Variant) (engine.Result, error) {
	res, tag, err := engine.Dispatch(ctx, s.eng, op, variants...)
	if err != nil {
		return nil, err
	}
	st.shape(op, tag)
	return res, nil
}

func (s *Sequencer) summary(ctx context.Context, st *State) (engine.Result, error) {
	return s.eng.Call(ctx, engine.OpChunkSummary, engine.Args{"chunk": st.ChunkKey})
}

func (s *Sequencer) calibration(ctx context.Context, st *State) (engine.Calibration, error) {
	res, err := s.eng.Call(ctx, engine.OpGetCalibration, engine.Args{"chunk": st.ChunkKey})
	if err != nil {
		return engine.Calibration{}, err
	}
	return engine.CalibrationFromResult(res), nil
}

func photoPaths(job scan.Job, st *State) []string {
	out := make([]string, len(st.Photos))
	for i, p := range st.Photos {
		out[i] = filepath.Join(job.PhotoDir, p)
	}
	return out
}

func cameraLabels(st *State) []string {
	out := make([]string, len(st.Photos))
	for i, p := range st.Photos {
		out[i] = mask.Label(p)
	}
	return out
}

// importPhotos creates the project with one chunk holding every photo and, for the
// seeded method, the focal length seed with all other intrinsics at zero.
func (s *Sequencer) importPhotos(ctx context.Context, job scan.Job, st *State, l *zap.Logger) error {
	if err := os.MkdirAll(job.ModelsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}
	photos, err := job.Photos()
	if err != nil {
		return err
	}

	if _, err := s.eng.Call(ctx, engine.OpNewDocument, nil); err != nil {
		return err
	}
	res, err := s.eng.Call(ctx, engine.OpAddChunk, engine.Args{"label": s.opts.ChunkLabel})
	if err != nil {
		return err
	}
	key := res.String("key")
	if key == "" {
		return &engine.OperationError{Op: engine.OpAddChunk, Message: "engine returned no chunk key"}
	}
	st.ChunkKey, st.ChunkLabel = key, s.opts.ChunkLabel

	res, err = s.eng.Call(ctx, engine.OpAddPhotos, engine.Args{"chunk": key, "paths": photos})
	if err != nil {
		return err
	}
	if added := res.Int("added"); added != len(photos) {
		l.Warn("Engine added fewer photos than found", zap.Int("found", len(photos)), zap.Int("added", added))
	}

	st.Photos = make([]string, len(photos))
	for i, p := range photos {
		st.Photos[i] = filepath.Base(p)
	}

	if s.opts.Method == MethodSeeded {
		seed := engine.Calibration{F: s.opts.FocalPx}
		args := seed.Args().With(engine.Args{"chunk": key, "fixed": false})
		if _, err := s.eng.Call(ctx, engine.OpSetCalibration, args); err != nil {
			return err
		}
		st.Intrinsics = Intrinsics{Seed: seed, Current: seed, Fit: engine.FocalOnly()}
	}

	l.Info("Photos imported", zap.Int("photos", len(photos)), zap.String("chunk", key))
	return nil
}

func (s *Sequencer) bindMasks(ctx context.Context, job scan.Job, st *State, l *zap.Logger) error {
	dir := s.opts.maskDir(job)
	if dir == "" {
		l.Debug("No mask directory configured")
	}
	binding, err := s.masks.Bind(ctx, s.eng, st.ChunkKey, photoPaths(job, st), dir)
	if err != nil {
		return err
	}
	st.Masks = &binding
	if binding.Method != "" {
		st.shape(engine.OpImportMasks, binding.Method)
	}
	l.Info("Masks bound", zap.Int("bound", len(binding.Bound)), zap.Int("unmasked", len(binding.Unmasked)))
	return nil
}

// importReference loads camera positions. The calibrated method instead imports the
// calibrated camera file, which carries both positions and intrinsics, and locks
// every intrinsic.
func (s *Sequencer) importReference(ctx context.Context, job scan.Job, st *State, l *zap.Logger) error {
	if s.opts.Method == MethodCalibrated {
		if job.CalibratedCameras == "" {
			return &scan.MissingInputError{What: "calibrated camera file", Path: filepath.Join(job.ModelsDir, scan.DefaultCalibratedGlob)}
		}
		if _, err := s.dispatch(ctx, st, engine.OpImportCameras, engine.ImportCameras(st.ChunkKey, job.CalibratedCameras, s.opts.CRS)); err != nil {
			return err
		}
		if _, err := s.eng.Call(ctx, engine.OpLockCalibration, engine.Args{"chunk": st.ChunkKey}); err != nil {
			return err
		}
		cal, err := s.calibration(ctx, st)
		if err != nil {
			return err
		}
		st.Calibrated = job.CalibratedCameras
		st.Intrinsics = Intrinsics{Seed: cal, Current: cal, Fit: engine.Fit{}}
		l.Info("Calibrated cameras imported", zap.String("file", job.CalibratedCameras), zap.Float64("f", cal.F))
		return nil
	}

	res, err := s.refs.Import(ctx, s.eng, st.ChunkKey, job.ReferencePath, s.opts.Reference, s.opts.CRS, cameraLabels(st))
	if err != nil {
		return err
	}
	st.Reference = &res
	st.shape(engine.OpImportReference, res.Shape)
	return nil
}

func (s *Sequencer) matchPhotos(ctx context.Context, _ scan.Job, st *State, _ *zap.Logger) error {
	_, err := s.dispatch(ctx, st, engine.OpMatchPhotos, engine.MatchPhotos(st.ChunkKey, s.opts.Match))
	return err
}

func (s *Sequencer) alignCameras(ctx context.Context, _ scan.Job, st *State, l *zap.Logger) error {
	if _, err := s.dispatch(ctx, st, engine.OpAlignCameras, engine.AlignCameras(st.ChunkKey)); err != nil {
		return err
	}
	sum, err := s.summary(ctx, st)
	if err != nil {
		return err
	}
	st.Alignment = &Alignment{Cameras: sum.Int("cameras"), Aligned: sum.Int("aligned"), TiePoints: sum.Int("tie_points")}
	if st.Alignment.Aligned == 0 {
		return &engine.OperationError{Op: engine.OpAlignCameras, Message: "no camera aligned"}
	}
	l.Info("Cameras aligned",
		zap.Int("aligned", st.Alignment.Aligned),
		zap.Int("cameras", st.Alignment.Cameras),
		zap.Int("tie_points", st.Alignment.TiePoints),
	)
	return nil
}

func (s *Sequencer) snapshot(ctx context.Context, _ scan.Job, st *State, _ *zap.Logger) error {
	snap := s.qc.Take(ctx, s.eng, st.ChunkKey, st.ChunkLabel)
	st.QC = &snap
	if snap.Method != "" {
		st.shape("duplicate_chunk", snap.Method)
	}
	return nil
}

// optimize refines only the intrinsics marked for fitting and then checks the engine
// left every other term exactly where it was.
func (s *Sequencer) optimize(ctx context.Context, _ scan.Job, st *State, l *zap.Logger) error {
	before, err := s.calibration(ctx, st)
	if err != nil {
		return err
	}
	fit := st.Intrinsics.Fit
	if _, err := s.dispatch(ctx, st, engine.OpOptimizeCameras, engine.OptimizeCameras(st.ChunkKey, fit)); err != nil {
		return err
	}
	after, err := s.calibration(ctx, st)
	if err != nil {
		return err
	}
	if err := engine.VerifyFixed(before, after, fit); err != nil {
		return err
	}
	st.Intrinsics.Current = after
	l.Info("Cameras optimized", zap.Float64("f_before", before.F), zap.Float64("f_after", after.F), zap.Strings("fixed", fit.Fixed()))
	return nil
}

func (s *Sequencer) buildDepthMaps(ctx context.Context, _ scan.Job, st *State, _ *zap.Logger) error {
	if _, err := s.dispatch(ctx, st, engine.OpBuildDepthMaps, engine.BuildDepthMaps(st.ChunkKey)); err != nil {
		return err
	}
	st.DepthMaps = true
	return nil
}

func (s *Sequencer) buildModel(ctx context.Context, _ scan.Job, st *State, l *zap.Logger) error {
	if _, err := s.dispatch(ctx, st, engine.OpBuildModel, engine.BuildModel(st.ChunkKey)); err != nil {
		return err
	}
	sum, err := s.summary(ctx, st)
	if err != nil {
		return err
	}
	st.Mesh = &Mesh{Faces: sum.Int("faces")}
	if st.Mesh.Faces == 0 {
		return &engine.OperationError{Op: engine.OpBuildModel, Message: "model has no faces"}
	}
	l.Info("Model built", zap.Int("faces", st.Mesh.Faces))
	return nil
}

// persist thins the project unless asked to keep intermediate data and exports the
// calibrated cameras. The calibrated method never exports, so its input file is not
// overwritten.
func (s *Sequencer) persist(ctx context.Context, job scan.Job, st *State, l *zap.Logger) error {
	if !s.opts.KeepDepthMaps {
		if _, err := s.eng.Call(ctx, engine.OpClearDepthMaps, engine.Args{"chunk": st.ChunkKey}); err != nil {
			return err
		}
		st.DepthMaps = false
	}
	if !s.opts.KeepMatches {
		if _, err := s.eng.Call(ctx, engine.OpRemoveMatches, engine.Args{"chunk": st.ChunkKey}); err != nil {
			return err
		}
	}

	if !s.opts.ExportCameras || s.opts.Method == MethodCalibrated {
		return nil
	}
	if _, err := s.dispatch(ctx, st, engine.OpExportCameras, engine.ExportCameras(st.ChunkKey, job.CameraExportPath, s.opts.CRS)); err != nil {
		return err
	}
	if _, err := os.Stat(job.CameraExportPath); err != nil {
		return &engine.OperationError{Op: engine.OpExportCameras, Message: fmt.Sprintf("export reported success but %s is missing", job.CameraExportPath)}
	}
	st.Export = job.CameraExportPath
	l.Info("Cameras exported", zap.String("file", job.CameraExportPath))
	return nil
}
