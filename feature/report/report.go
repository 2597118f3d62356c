package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"disc3d-batch/feature/pipeline"

	"github.com/goccy/go-json"
)

// Exit codes of a worker run.
const (
	ExitOK        = 0
	ExitAllFailed = 1
	ExitSetup     = 2
)

// RunReport is the outcome of one worker run over a manifest slice.
type RunReport struct {
	RunID  string `json:"run_id"`
	Root   string `json:"root"`
	Method string `json:"method"`
	Device int    `json:"device"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary Summary      `json:"summary"`
	Scans   []ScanResult `json:"scans"`

	mu sync.Mutex
}

// Summary counts scans by final state.
type Summary struct {
	Attempted   int `json:"attempted"`
	Done        int `json:"done"`
	Resumed     int `json:"resumed"`
	AlreadyDone int `json:"already_done"`
	Failed      int `json:"failed"`
	Warnings    int `json:"warnings"`
}

// ScanResult is one scan's line in the report, in manifest order.
type ScanResult struct {
	Scan        string   `json:"scan"`
	Dataset     string   `json:"dataset,omitempty"`
	Status      string   `json:"status"`
	LastStage   string   `json:"last_stage"`
	ResumedFrom string   `json:"resumed_from,omitempty"`
	FailedStage string   `json:"failed_stage,omitempty"`
	ErrorKind   string   `json:"error_kind,omitempty"`
	Error       string   `json:"error,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Export      string   `json:"camera_export,omitempty"`
	DurationMs  int64    `json:"duration_ms"`
}

// New starts a report.
func New(runID, root, method string, device int, started time.Time) *RunReport {
	return &RunReport{RunID: runID, Root: root, Method: method, Device: device, StartedAt: started}
}

// FromOutcome converts a scan outcome to its report line.
func FromOutcome(o pipeline.Outcome) ScanResult {
	r := ScanResult{
		Scan:       o.Job.Name,
		Dataset:    o.Job.Dataset,
		Status:     string(o.Status),
		LastStage:  string(o.LastStage),
		Warnings:   o.Warnings,
		DurationMs: o.Duration.Milliseconds(),
	}
	if o.ResumedFrom != "" && o.ResumedFrom != pipeline.Created && !o.AlreadyDone {
		r.ResumedFrom = string(o.ResumedFrom)
	}
	if o.AlreadyDone {
		r.Status = "AlreadyDone"
	}
	if o.Status == pipeline.Failed {
		r.FailedStage = string(o.FailedStage)
		r.ErrorKind = o.ErrorKind
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
	}
	if o.State != nil {
		r.Export = o.State.Export
	}
	return r
}

// Name implements pipeline.Observer.
func (r *RunReport) Name() string { return "report" }

// ScanFinished implements pipeline.Observer by appending the outcome.
func (r *RunReport) ScanFinished(_ context.Context, o pipeline.Outcome) error {
	r.Add(FromOutcome(o))
	return nil
}

// Add appends a scan line.
func (r *RunReport) Add(s ScanResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scans = append(r.Scans, s)
}

// Finalize stamps the finish time, normalizes times to UTC and recomputes the summary
// from the scan lines.
func (r *RunReport) Finalize(finished time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = finished.UTC()

	var s Summary
	for _, sc := range r.Scans {
		s.Attempted++
		s.Warnings += len(sc.Warnings)
		switch {
		case sc.Status == "AlreadyDone":
			s.AlreadyDone++
		case sc.Status == string(pipeline.Failed):
			s.Failed++
		case sc.Status == string(pipeline.Done):
			s.Done++
			if sc.ResumedFrom != "" {
				s.Resumed++
			}
		}
	}
	r.Summary = s
}

// ExitCode is ExitAllFailed when every attempted scan failed and ExitOK otherwise.
func (r *RunReport) ExitCode() int {
	if r.Summary.Attempted > 0 && r.Summary.Failed == r.Summary.Attempted {
		return ExitAllFailed
	}
	return ExitOK
}

// Save writes the report as indented JSON.
func (r *RunReport) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Load reads a report written by Save.
func Load(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &r, nil
}

// Print writes the human-readable summary table.
func (r *RunReport) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCAN\tSTATUS\tSTAGE\tERROR")
	for _, s := range r.Scans {
		stage, detail := s.LastStage, ""
		if s.FailedStage != "" {
			stage = s.FailedStage
			detail = s.ErrorKind
		} else if s.ResumedFrom != "" {
			detail = "resumed from " + s.ResumedFrom
		}
		if len(s.Warnings) > 0 {
			if detail != "" {
				detail += "; "
			}
			detail += strings.Join(s.Warnings, "; ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Scan, s.Status, stage, detail)
	}
	fmt.Fprintf(tw, "\n%d attempted, %d done, %d already done, %d failed (%s)\n",
		r.Summary.Attempted, r.Summary.Done, r.Summary.AlreadyDone, r.Summary.Failed,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	return tw.Flush()
}
