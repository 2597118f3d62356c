package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Suffix ends every scan folder name.
const Suffix = "__DISC3D"

var (
	// namePattern only splits the folder name; the datetime token is not checked
	// for any particular date format.
	namePattern = regexp.MustCompile(`^([^_]+)__(.+?)__(.+)__DISC3D$`)
	// datetimePattern recognizes bare datetime tokens in a manifest.
	datetimePattern = regexp.MustCompile(`^(\d{8}T\d{6}|\d{4}-\d{2}-\d{2})$`)
)

// PhotoExtensions are the image types picked up from a photo directory.
var PhotoExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// Job is one scan folder resolved to its inputs and outputs. It is immutable once
// resolved.
type Job struct {
	Root     string `json:"root" yaml:"root"`
	Name     string `json:"name" yaml:"name"`
	Dir      string `json:"dir" yaml:"dir"`
	Dataset  string `json:"dataset" yaml:"dataset"`
	Datetime string `json:"datetime" yaml:"datetime"`
	UID      string `json:"uid" yaml:"uid"`
	Species  string `json:"species" yaml:"species"`

	PhotoDir         string `json:"photo_dir" yaml:"photo_dir"`
	ReferencePath    string `json:"reference_path" yaml:"reference_path"`
	ModelsDir        string `json:"models_dir" yaml:"models_dir"`
	ProjectPath      string `json:"project_path" yaml:"project_path"`
	CameraExportPath string `json:"camera_export_path" yaml:"camera_export_path"`
	CheckpointPath   string `json:"checkpoint_path" yaml:"checkpoint_path"`

	// CalibratedCameras is a calibrated-camera file found in the models directory,
	// or "" when there is none.
	CalibratedCameras string `json:"calibrated_cameras,omitempty" yaml:"calibrated_cameras,omitempty"`
}

// DatasetID returns the folder name without the DISC3D suffix.
func (j Job) DatasetID() string { return j.Dataset }

// UIDToken returns the scan's uid token.
func (j Job) UIDToken() string { return j.UID }

// Options controls which inputs Resolve insists on.
type Options struct {
	// RequireReference fails resolution when the CamPos reference file is missing.
	RequireReference bool
	// RequireCalibrated fails resolution when no calibrated-camera file exists.
	RequireCalibrated bool
	// CalibratedGlob is matched inside the models directory to find a calibrated
	// camera file. Empty uses DefaultCalibratedGlob.
	CalibratedGlob string
}

// DefaultCalibratedGlob matches camera files exported by earlier runs.
const DefaultCalibratedGlob = "*_Calibrated_Cameras_*.xml"

// Layout derives every path of a scan folder from its name without touching disk.
func Layout(root, name string) (Job, error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return Job{}, &MalformedNameError{Name: name}
	}

	dir := filepath.Join(root, name)
	dataset := strings.TrimSuffix(name, Suffix)
	models := filepath.Join(dir, "models")

	return Job{
		Root:             root,
		Name:             name,
		Dir:              dir,
		Dataset:          dataset,
		Datetime:         m[1],
		UID:              m[2],
		Species:          m[3],
		PhotoDir:         filepath.Join(dir, m[2]+"__edof"),
		ReferencePath:    filepath.Join(dir, dataset+"__CamPos.txt"),
		ModelsDir:        models,
		ProjectPath:      filepath.Join(models, dataset+".psz"),
		CameraExportPath: filepath.Join(models, fmt.Sprintf("%s_Calibrated_Cameras_%s_%s.xml", dataset, m[2], m[1])),
		CheckpointPath:   filepath.Join(models, dataset+".checkpoint.yaml"),
	}, nil
}

// Resolve parses a scan folder name and checks its inputs exist. It never writes.
func Resolve(root, name string, opts Options) (Job, error) {
	if datetimePattern.MatchString(name) {
		return Job{}, &MissingInputError{What: "scan folder", Path: filepath.Join(root, name+"__*"+Suffix)}
	}

	job, err := Layout(root, name)
	if err != nil {
		return Job{}, err
	}

	if !isDir(job.Dir) {
		return Job{}, &MissingInputError{What: "scan folder", Path: job.Dir}
	}
	if !isDir(job.PhotoDir) {
		return Job{}, &MissingInputError{What: "photo directory", Path: job.PhotoDir}
	}
	if opts.RequireReference && !isFile(job.ReferencePath) {
		return Job{}, &MissingInputError{What: "reference file", Path: job.ReferencePath}
	}

	glob := opts.CalibratedGlob
	if glob == "" {
		glob = DefaultCalibratedGlob
	}
	matches, err := filepath.Glob(filepath.Join(job.ModelsDir, glob))
	if err != nil {
		return Job{}, fmt.Errorf("invalid calibrated camera pattern %q: %w", glob, err)
	}
	sort.Strings(matches)
	if len(matches) > 0 {
		job.CalibratedCameras = matches[0]
	} else if opts.RequireCalibrated {
		return Job{}, &MissingInputError{What: "calibrated camera file", Path: filepath.Join(job.ModelsDir, glob)}
	}

	return job, nil
}

// Photos lists the job's photos in filename order.
func (j Job) Photos() ([]string, error) {
	entries, err := os.ReadDir(j.PhotoDir)
	if err != nil {
		return nil, &MissingInputError{What: "photo directory", Path: j.PhotoDir}
	}
	var photos []string
	for _, e := range entries {
		if e.IsDir() || !PhotoExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		photos = append(photos, filepath.Join(j.PhotoDir, e.Name()))
	}
	sort.Strings(photos)
	if len(photos) == 0 {
		return nil, &MissingInputError{What: "photos", Path: j.PhotoDir}
	}
	return photos, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
