package engine

// Operation names understood by the engine bridge.
const (
	OpConfigureDevices = "app.configure_devices"

	OpNewDocument  = "document.new"
	OpOpenDocument = "document.open"
	OpSaveDocument = "document.save"

	OpAddChunk       = "chunk.add"
	OpCopyChunk      = "chunk.copy"
	OpDuplicateChunk = "chunk.duplicate"
	OpSetChunk       = "chunk.set"
	OpChunkSummary   = "chunk.summary"

	OpAddPhotos       = "chunk.add_photos"
	OpSetCalibration  = "chunk.set_calibration"
	OpGetCalibration  = "chunk.get_calibration"
	OpLockCalibration = "chunk.lock_calibration"

	OpGenerateMasks = "chunk.generate_masks"
	OpImportMasks   = "chunk.import_masks"
	OpSetCameraMask = "camera.set_mask"

	OpImportReference = "chunk.import_reference"
	OpImportCameras   = "chunk.import_cameras"
	OpExportCameras   = "chunk.export_cameras"

	OpMatchPhotos     = "chunk.match_photos"
	OpAlignCameras    = "chunk.align_cameras"
	OpOptimizeCameras = "chunk.optimize_cameras"
	OpBuildDepthMaps  = "chunk.build_depth_maps"
	OpBuildModel      = "chunk.build_model"

	OpClearDepthMaps = "chunk.clear_depth_maps"
	OpRemoveMatches  = "chunk.remove_matches"
)
