package pipeline

import (
	"maps"
	"slices"
	"time"

	"disc3d-batch/core/engine"
	"disc3d-batch/feature/mask"
	"disc3d-batch/feature/qc"
	"disc3d-batch/feature/reference"
	"disc3d-batch/feature/scan"
)

// stateVersion changes when the checkpoint layout does.
const stateVersion = 1

// State is the reconstruction state of one scan job. It is passed explicitly to every
// stage and written to the job's checkpoint after each one.
type State struct {
	Version     int       `yaml:"version" json:"version"`
	Scan        string    `yaml:"scan" json:"scan"`
	Dataset     string    `yaml:"dataset" json:"dataset"`
	ProjectPath string    `yaml:"project_path" json:"project_path"`
	Method      Method    `yaml:"method" json:"method"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`

	// Stage is the last completed stage; Completed lists every completed stage in order.
	Stage     Stage         `yaml:"stage" json:"stage"`
	Completed []StageRecord `yaml:"completed" json:"completed"`

	ChunkKey   string `yaml:"chunk_key,omitempty" json:"chunk_key,omitempty"`
	ChunkLabel string `yaml:"chunk_label,omitempty" json:"chunk_label,omitempty"`

	// Photos are photo filenames in the photo directory, in import order.
	Photos     []string          `yaml:"photos,omitempty" json:"photos,omitempty"`
	Masks      *mask.Binding     `yaml:"masks,omitempty" json:"masks,omitempty"`
	Reference  *reference.Result `yaml:"reference,omitempty" json:"reference,omitempty"`
	Calibrated string            `yaml:"calibrated_from,omitempty" json:"calibrated_from,omitempty"`
	Intrinsics Intrinsics        `yaml:"intrinsics" json:"intrinsics"`
	Alignment  *Alignment        `yaml:"alignment,omitempty" json:"alignment,omitempty"`
	QC         *qc.Snapshot      `yaml:"qc,omitempty" json:"qc,omitempty"`
	DepthMaps  bool              `yaml:"depth_maps,omitempty" json:"depth_maps,omitempty"`
	Mesh       *Mesh             `yaml:"mesh,omitempty" json:"mesh,omitempty"`
	Export     string            `yaml:"camera_export,omitempty" json:"camera_export,omitempty"`

	// Shapes records which engine call shape served each dispatched operation.
	Shapes map[string]string `yaml:"shapes,omitempty" json:"shapes,omitempty"`

	// Failure describes the most recent failed attempt, cleared when a stage completes.
	Failure *Failure `yaml:"failure,omitempty" json:"failure,omitempty"`
}

// StageRecord is one completed stage.
type StageRecord struct {
	Stage    Stage         `yaml:"stage" json:"stage"`
	At       time.Time     `yaml:"at" json:"at"`
	Duration time.Duration `yaml:"duration" json:"duration"`
}

// Intrinsics holds the seeded and current calibration and which terms may be fitted.
type Intrinsics struct {
	Seed    engine.Calibration `yaml:"seed" json:"seed"`
	Current engine.Calibration `yaml:"current" json:"current"`
	Fit     engine.Fit         `yaml:"fit" json:"fit"`
}

// Alignment summarizes camera alignment.
type Alignment struct {
	Cameras   int `yaml:"cameras" json:"cameras"`
	Aligned   int `yaml:"aligned" json:"aligned"`
	TiePoints int `yaml:"tie_points" json:"tie_points"`
}

// Mesh summarizes the reconstructed model.
type Mesh struct {
	Faces int `yaml:"faces" json:"faces"`
}

// Failure records a failed stage attempt.
type Failure struct {
	Stage   Stage     `yaml:"stage" json:"stage"`
	Kind    string    `yaml:"kind" json:"kind"`
	Message string    `yaml:"message" json:"message"`
	At      time.Time `yaml:"at" json:"at"`
}

// NewState returns the state of a job that has not started.
func NewState(job scan.Job, method Method) *State {
	return &State{
		Version:     stateVersion,
		Scan:        job.Name,
		Dataset:     job.Dataset,
		ProjectPath: job.ProjectPath,
		Method:      method,
		Stage:       Created,
		Shapes:      map[string]string{},
	}
}

// clone copies s deep enough that running a stage on the original leaves the copy
// untouched. Stages replace the pointer fields rather than editing through them.
func (s *State) clone() *State {
	c := *s
	c.Completed = slices.Clone(s.Completed)
	c.Photos = slices.Clone(s.Photos)
	c.Shapes = maps.Clone(s.Shapes)
	return &c
}

func (s *State) complete(stage Stage, at time.Time, d time.Duration) {
	s.Stage = stage
	s.Completed = append(s.Completed, StageRecord{Stage: stage, At: at.UTC(), Duration: d})
	s.Failure = nil
	s.UpdatedAt = at.Add(d).UTC()
}

func (s *State) shape(op, tag string) {
	if s.Shapes == nil {
		s.Shapes = map[string]string{}
	}
	s.Shapes[op] = tag
}
