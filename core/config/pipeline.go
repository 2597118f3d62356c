package config

// Pipeline holds the batch reconstruction settings. Command line flags override them.
type Pipeline struct {
	// Root is the directory holding the scan folders.
	Root string `mapstructure:"root" default:""`
	// Manifest lists the scans of the batch.
	Manifest string `mapstructure:"manifest" default:""`
	// Method is seeded or calibrated.
	Method string `mapstructure:"method" default:"seeded"`
	// FocalPx seeds the focal length in pixels.
	FocalPx float64 `mapstructure:"f_px" default:"10276.64"`
	// ChunkLabel names the reconstruction chunk.
	ChunkLabel string `mapstructure:"chunk_label" default:"DISC3D"`
	// MaskDir holds mask images, relative to each scan folder unless absolute.
	MaskDir string `mapstructure:"mask_dir" default:""`
	// Columns, Delimiter and SkipRows describe the CamPos reference file.
	Columns   string `mapstructure:"columns" default:"nxyz"`
	Delimiter string `mapstructure:"delimiter" default:" "`
	SkipRows  int    `mapstructure:"skip_rows" default:"1"`
	// CRS is a file holding the coordinate system WKT.
	CRS string `mapstructure:"crs" default:""`
	// CalibratedGlob finds calibrated camera files for the calibrated method.
	CalibratedGlob string `mapstructure:"calibrated_glob" default:"*_Calibrated_Cameras_*.xml"`
	KeypointLimit  int    `mapstructure:"keypoint_limit" default:"250000"`
	TiepointLimit  int    `mapstructure:"tiepoint_limit" default:"250000"`
	// KeepDepthMaps and KeepMatches skip thinning the saved project.
	KeepDepthMaps bool `mapstructure:"keep_depth" default:"false"`
	KeepMatches   bool `mapstructure:"keep_matches" default:"false"`
	// ExportCameras writes the calibrated camera XML of each finished scan.
	ExportCameras bool `mapstructure:"export_cameras" default:"true"`
	// Device is the compute device of a single worker; negative leaves the engine's choice.
	Device int `mapstructure:"device" default:"-1"`
	// Devices lists the device indices used by launch, comma separated.
	Devices string `mapstructure:"devices" default:"0"`
	// Report is the file the run report is written to; empty prints only.
	Report string `mapstructure:"report" default:""`
	// SliceDir is where launch writes per-worker manifests; empty uses a temp dir.
	SliceDir string `mapstructure:"slice_dir" default:""`
}
