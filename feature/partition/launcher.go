package partition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"disc3d-batch/feature/scan"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ExitSetup is the exit code used when a worker cannot be started.
const ExitSetup = 2

// Worker is one slice of the batch bound to a device.
type Worker struct {
	Index    int
	Device   int
	Manifest string
	// Report is where the worker writes its run report.
	Report   string
	Scans    []string
	ExitCode int
}

// Launcher starts one worker process per slice by re-executing a binary's run
// command, each with its own slice manifest and device.
type Launcher struct {
	exe    string
	args   []string
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer

	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewLauncher creates a launcher for exe. args are appended to every worker's run
// command line after the manifest and device flags.
func NewLauncher(exe string, args []string, logger *zap.Logger) *Launcher {
	return &Launcher{
		exe:     exe,
		args:    args,
		logger:  logger,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		command: exec.CommandContext,
	}
}

// Plan partitions names over len(devices) workers and writes each slice manifest to
// dir, next to where the worker's report will go. Workers with an empty slice are
// left out.
func Plan(names []string, devices []int, dir string) ([]Worker, error) {
	if len(devices) == 0 {
		return nil, fmt.Errorf("at least one device is required")
	}
	seen := make(map[int]bool, len(devices))
	for _, d := range devices {
		if seen[d] {
			return nil, fmt.Errorf("device %d assigned to more than one worker", d)
		}
		seen[d] = true
	}

	slices, err := Partition(names, len(devices))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	var workers []Worker
	for i, names := range slices {
		if len(names) == 0 {
			continue
		}
		w := Worker{
			Index:    i,
			Device:   devices[i],
			Manifest: filepath.Join(dir, fmt.Sprintf("worker-%02d.manifest", i)),
			Report:   filepath.Join(dir, fmt.Sprintf("worker-%02d.report.json", i)),
			Scans:    names,
		}
		if err := scan.WriteManifest(w.Manifest, names); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// Launch runs every worker to completion and returns them with their exit codes and
// the worst exit code. One failing worker does not stop the others.
func (l *Launcher) Launch(ctx context.Context, workers []Worker) ([]Worker, int) {
	var (
		g     errgroup.Group
		mu    sync.Mutex
		worst int
	)
	out := make([]Worker, len(workers))
	copy(out, workers)

	for i := range out {
		w := &out[i]
		g.Go(func() error {
			w.ExitCode = l.run(ctx, *w)
			mu.Lock()
			if w.ExitCode > worst {
				worst = w.ExitCode
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out, worst
}

func (l *Launcher) run(ctx context.Context, w Worker) int {
	args := []string{"run", "--manifest", w.Manifest, "--device", fmt.Sprint(w.Device)}
	if w.Report != "" {
		args = append(args, "--report", w.Report)
	}
	args = append(args, l.args...)
	cmd := l.command(ctx, l.exe, args...)
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	log := l.logger.With(zap.Int("worker", w.Index), zap.Int("device", w.Device))
	log.Info("Starting worker", zap.Int("scans", len(w.Scans)), zap.String("manifest", w.Manifest))

	err := cmd.Run()
	if err == nil {
		log.Info("Worker finished")
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		log.Warn("Worker finished with failures", zap.Int("exit_code", exitErr.ExitCode()))
		return exitErr.ExitCode()
	}
	log.Error("Worker did not run to completion", zap.Error(err))
	return ExitSetup
}
