package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"disc3d-batch/core/config"
	"disc3d-batch/feature/pipeline"
	"disc3d-batch/feature/reference"
	"disc3d-batch/feature/scan"

	"github.com/spf13/cobra"
)

// pipelineFlags are the reconstruction flags shared by run and launch. A flag only
// overrides the configuration when it was given on the command line.
type pipelineFlags struct {
	root          string
	manifest      string
	crs           string
	fPx           float64
	maskDir       string
	skipRows      int
	delimiter     string
	columns       string
	method        string
	report        string
	keypointLimit int
	tiepointLimit int
	keepDepth     bool
	keepMatches   bool
	force         bool
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.root, "root", "", "directory holding the scan folders")
	fl.StringVar(&f.manifest, "manifest", "", "file listing scan folders or datetime tokens (default: every scan under root)")
	fl.StringVar(&f.crs, "crs", "", "file holding the coordinate system WKT")
	fl.Float64Var(&f.fPx, "f-px", 10276.64, "focal length seed in pixels")
	fl.StringVar(&f.maskDir, "mask-dir", "", "mask directory, relative to each scan folder unless absolute")
	fl.IntVar(&f.skipRows, "skip-rows", 1, "header lines to skip in the reference file")
	fl.StringVar(&f.delimiter, "delimiter", " ", "reference file field delimiter")
	fl.StringVar(&f.columns, "columns", "nxyz", "reference file column layout")
	fl.StringVar(&f.method, "method", string(pipeline.MethodSeeded), "reconstruction method: seeded or calibrated")
	fl.StringVar(&f.report, "report", "", "write the run report as JSON to this file")
	fl.IntVar(&f.keypointLimit, "keypoint-limit", 250000, "keypoint limit for photo matching")
	fl.IntVar(&f.tiepointLimit, "tiepoint-limit", 250000, "tiepoint limit for photo matching")
	fl.BoolVar(&f.keepDepth, "keep-depth", false, "keep depth maps in the saved project")
	fl.BoolVar(&f.keepMatches, "keep-matches", false, "keep key point matches in the saved project")
	fl.BoolVar(&f.force, "force", false, "discard existing checkpoints and start every scan over")
}

// apply overrides p with the flags set on cmd.
func (f *pipelineFlags) apply(cmd *cobra.Command, p *config.Pipeline) {
	fl := cmd.Flags()
	set := func(name string, fn func()) {
		if fl.Changed(name) {
			fn()
		}
	}
	set("root", func() { p.Root = f.root })
	set("manifest", func() { p.Manifest = f.manifest })
	set("crs", func() { p.CRS = f.crs })
	set("f-px", func() { p.FocalPx = f.fPx })
	set("mask-dir", func() { p.MaskDir = f.maskDir })
	set("skip-rows", func() { p.SkipRows = f.skipRows })
	set("delimiter", func() { p.Delimiter = f.delimiter })
	set("columns", func() { p.Columns = f.columns })
	set("method", func() { p.Method = f.method })
	set("report", func() { p.Report = f.report })
	set("keypoint-limit", func() { p.KeypointLimit = f.keypointLimit })
	set("tiepoint-limit", func() { p.TiepointLimit = f.tiepointLimit })
	set("keep-depth", func() { p.KeepDepthMaps = f.keepDepth })
	set("keep-matches", func() { p.KeepMatches = f.keepMatches })
}

// pipelineOptions turns the configuration into validated sequencer options.
func pipelineOptions(p config.Pipeline, force bool) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	opts.Method = pipeline.Method(p.Method)
	opts.ChunkLabel = p.ChunkLabel
	opts.FocalPx = p.FocalPx
	opts.MaskDir = p.MaskDir
	opts.Reference = reference.Format{Columns: p.Columns, Delimiter: unescape(p.Delimiter), SkipRows: p.SkipRows}
	opts.Match.KeypointLimit = p.KeypointLimit
	opts.Match.TiepointLimit = p.TiepointLimit
	opts.ExportCameras = p.ExportCameras
	opts.KeepDepthMaps = p.KeepDepthMaps
	opts.KeepMatches = p.KeepMatches
	opts.CalibratedGlob = p.CalibratedGlob
	opts.Force = force

	if p.CRS != "" {
		data, err := os.ReadFile(p.CRS)
		if err != nil {
			return opts, fmt.Errorf("failed to read coordinate system: %w", err)
		}
		opts.CRS = strings.TrimSpace(string(data))
	}
	return opts, opts.Validate()
}

// unescape lets a tab delimiter be written as \t on the command line.
func unescape(delim string) string {
	if delim == `\t` {
		return "\t"
	}
	return delim
}

// scanNames returns the batch: the manifest entries expanded against root, or every
// scan folder under root when no manifest is given.
func scanNames(p config.Pipeline) ([]string, error) {
	if err := scan.CheckRoot(p.Root); err != nil {
		return nil, err
	}
	if p.Manifest == "" {
		return scan.Discover(p.Root)
	}
	entries, err := scan.ReadManifest(p.Manifest)
	if err != nil {
		return nil, err
	}
	return scan.Expand(p.Root, entries)
}

// parseDevices reads a comma separated list of device indices.
func parseDevices(list string) ([]int, error) {
	var devices []int
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		d, err := strconv.Atoi(field)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid device index %q", field)
		}
		devices = append(devices, d)
	}
	return devices, nil
}
