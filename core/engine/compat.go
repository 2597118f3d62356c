package engine

// Call shapes for operations whose signatures differ between engine releases. Each
// builder lists the shapes in the order they are tried; Dispatch picks the first one the installed
// engine accepts. None of them falls back to a bare call, so the reconstruction
// policy expressed in the arguments holds whichever shape is used.

// MatchParams configures photo matching.
type MatchParams struct {
	KeypointLimit int
	TiepointLimit int
	KeepKeypoints bool
}

// MatchPhotos matches at the highest accuracy with generic and source-reference
// preselection.
func MatchPhotos(chunk string, p MatchParams) []Variant {
	common := Args{
		"chunk":                       chunk,
		"generic_preselection":        true,
		"reference_preselection":      true,
		"reference_preselection_mode": Enum("ReferencePreselectionSource", "ReferencePreselectionMode.ReferencePreselectionSource"),
		"keypoint_limit":              p.KeypointLimit,
		"tiepoint_limit":              p.TiepointLimit,
		"keep_keypoints":              p.KeepKeypoints,
		"guided_matching":             false,
		"filter_stationary_points":    true,
	}
	return []Variant{
		{Tag: "accuracy", Args: common.With(Args{"accuracy": Enum("HighestAccuracy", "Accuracy.HighestAccuracy")})},
		{Tag: "downscale", Args: common.With(Args{"downscale": 0})},
	}
}

// AlignCameras aligns with adaptive camera model fitting disabled.
func AlignCameras(chunk string) []Variant {
	return []Variant{
		{Tag: "adaptive_fitting", Args: Args{"chunk": chunk, "adaptive_fitting": false}},
	}
}

// OptimizeCameras refines the intrinsics marked in fit and nothing else.
func OptimizeCameras(chunk string, fit Fit) []Variant {
	base := Args{"chunk": chunk}.With(fit.FitArgs())
	return []Variant{
		{Tag: "adaptive_fitting", Args: base.With(Args{"fit_p3": false, "fit_p4": false, "adaptive_fitting": false})},
		{Tag: "legacy_fit", Args: base},
	}
}

// BuildDepthMaps builds full resolution depth maps with mild filtering.
func BuildDepthMaps(chunk string) []Variant {
	mild := Enum("MildFiltering", "FilterMode.MildFiltering")
	return []Variant{
		{Tag: "downscale", Args: Args{"chunk": chunk, "downscale": 1, "filter_mode": mild}},
		{Tag: "quality", Args: Args{"chunk": chunk, "quality": Enum("UltraQuality", "Quality.UltraQuality"), "filter": mild}},
	}
}

// BuildModel meshes an arbitrary surface from depth maps with interpolation, a high
// face count and vertex colors.
func BuildModel(chunk string) []Variant {
	policy := Args{
		"chunk":         chunk,
		"interpolation": Enum("EnabledInterpolation", "Interpolation.EnabledInterpolation"),
		"face_count":    Enum("HighFaceCount", "FaceCount.HighFaceCount"),
		"vertex_colors": true,
	}
	source := Enum("DepthMapsData", "DataSource.DepthMapsData")
	surface := Enum("Arbitrary", "SurfaceType.Arbitrary")
	return []Variant{
		{Tag: "source_data", Args: policy.With(Args{"source_data": source, "surface_type": surface})},
		{Tag: "source", Args: policy.With(Args{"source": source, "surface": surface})},
	}
}

// ExportCameras writes the calibrated cameras as XML. crs is a WKT string; empty
// leaves the chunk's own coordinate system in place.
func ExportCameras(chunk, path, crs string) []Variant {
	format := Enum("CamerasFormatXML", "CamerasFormat.CamerasFormatXML")
	current := Args{"chunk": chunk, "path": path, "format": format, "save_points": false, "save_markers": false, "use_labels": true}
	legacy := Args{"chunk": chunk, "path": path, "format": format, "export_points": false, "export_markers": false, "use_labels": true}
	if crs != "" {
		current["crs"] = crs
		legacy["projection"] = crs
	}
	return []Variant{
		{Tag: "crs", Args: current},
		{Tag: "projection", Args: legacy},
	}
}

// ImportCameras loads a calibrated cameras XML into the chunk.
func ImportCameras(chunk, path, crs string) []Variant {
	plain := Args{"chunk": chunk, "path": path, "format": Enum("CamerasFormatXML", "CamerasFormat.CamerasFormatXML")}
	if crs == "" {
		return []Variant{{Tag: "format", Args: plain}}
	}
	return []Variant{
		{Tag: "crs", Args: plain.With(Args{"crs": crs})},
		{Tag: "format", Args: plain},
	}
}

// ImportReference loads camera reference positions from a delimited text file. A
// release that does not take a coordinate system on import gets the plain shape.
func ImportReference(chunk, path, columns, delimiter string, skipRows int, crs string) []Variant {
	plain := Args{
		"chunk":     chunk,
		"path":      path,
		"format":    Enum("ReferenceFormatCSV", "ReferenceFormat.ReferenceFormatCSV"),
		"columns":   columns,
		"delimiter": delimiter,
		"skip_rows": skipRows,
	}
	if crs == "" {
		return []Variant{{Tag: "format", Args: plain}}
	}
	return []Variant{
		{Tag: "crs", Args: plain.With(Args{"crs": crs})},
		{Tag: "format", Args: plain},
	}
}

// DuplicateChunk copies a chunk under a new key. The copy entry point is tried
// before the older duplicate entry point.
func DuplicateChunk(chunk string) []Variant {
	return []Variant{
		{Tag: "copy", Op: OpCopyChunk, Args: Args{"chunk": chunk}},
		{Tag: "duplicate", Op: OpDuplicateChunk, Args: Args{"chunk": chunk}},
	}
}

// ImportMasks applies file masks to the named cameras in one call. template is a
// path pattern with a {filename} placeholder for the photo filename.
func ImportMasks(chunk, template string, cameras []string) []Variant {
	replace := Enum("MaskOperationReplacement", "MaskOperation.MaskOperationReplacement")
	return []Variant{
		{Tag: "generate_masks", Op: OpGenerateMasks, Args: Args{
			"chunk":          chunk,
			"path":           template,
			"masking_mode":   Enum("MaskingModeFile", "MaskingMode.MaskingModeFile"),
			"mask_operation": replace,
			"cameras":        cameras,
		}},
		{Tag: "import_masks", Op: OpImportMasks, Args: Args{
			"chunk":     chunk,
			"path":      template,
			"source":    Enum("MaskSourceFile", "MaskSource.MaskSourceFile"),
			"operation": replace,
			"cameras":   cameras,
		}},
	}
}
