package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"disc3d-batch/core/config"
	"disc3d-batch/feature/partition"
	"disc3d-batch/feature/report"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	launchFlags   pipelineFlags
	launchWorkers int
	launchDevices string
)

// launchCmd represents the launch command
var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Split a batch over several devices and run one worker per device",
	Long: `Partitions the manifest into contiguous slices, one per device, writes a slice
manifest for each and runs this binary's run command on every slice in parallel.

The exit code is the worst exit code of the workers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logg.Sync()

		launchFlags.apply(cmd, &cfg.Pipeline)
		if cmd.Flags().Changed("devices") {
			cfg.Pipeline.Devices = launchDevices
		}
		p := cfg.Pipeline

		devices, err := workerDevices(p.Devices, launchWorkers, cmd.Flags().Changed("workers"), cmd.Flags().Changed("devices"))
		if err != nil {
			return setupError(err)
		}
		if _, err := pipelineOptions(p, launchFlags.force); err != nil {
			return setupError(err)
		}
		names, err := scanNames(p)
		if err != nil {
			return setupError(err)
		}

		dir := p.SliceDir
		if dir == "" {
			if dir, err = os.MkdirTemp("", "disc3d-launch-"); err != nil {
				return setupError(err)
			}
		}
		workers, err := partition.Plan(names, devices, dir)
		if err != nil {
			return setupError(err)
		}
		exe, err := os.Executable()
		if err != nil {
			return setupError(fmt.Errorf("failed to locate own executable: %w", err))
		}

		runID := uuid.NewString()
		started := time.Now()
		logg = logg.With(zap.String("launch", runID))
		logg.Info("Launching workers",
			zap.Int("scans", len(names)),
			zap.Int("workers", len(workers)),
			zap.String("manifests", dir),
		)

		done, worst := partition.NewLauncher(exe, forwardArgs(p, launchFlags.force), logg).Launch(cmd.Context(), workers)

		merged := report.New(runID, p.Root, p.Method, -1, started)
		for _, w := range done {
			r, err := report.Load(w.Report)
			if err != nil {
				logg.Warn("Worker left no report", zap.Int("worker", w.Index), zap.Int("exit_code", w.ExitCode), zap.Error(err))
				continue
			}
			for _, s := range r.Scans {
				merged.Add(s)
			}
		}
		merged.Finalize(time.Now())
		if err := merged.Print(cmd.OutOrStdout()); err != nil {
			logg.Warn("Failed to print report", zap.Error(err))
		}
		if p.Report != "" {
			if err := merged.Save(p.Report); err != nil {
				logg.Error("Failed to save report", zap.Error(err))
			}
		}

		if worst != report.ExitOK {
			return &exitError{code: worst, err: fmt.Errorf("worst worker exit code %d", worst)}
		}
		return nil
	},
}

func init() {
	launchFlags.register(launchCmd)
	launchCmd.Flags().IntVar(&launchWorkers, "workers", 0, "number of workers (default: one per device)")
	launchCmd.Flags().StringVar(&launchDevices, "devices", "0", "comma separated GPU indices, one per worker")
	RootCmd.AddCommand(launchCmd)
}

// workerDevices returns one device per worker. With only a worker count the devices
// are numbered from 0; with both, they must agree.
func workerDevices(list string, workers int, workersSet, devicesSet bool) ([]int, error) {
	if workersSet && workers < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", workers)
	}
	if workersSet && !devicesSet {
		devices := make([]int, workers)
		for i := range devices {
			devices[i] = i
		}
		return devices, nil
	}
	devices, err := parseDevices(list)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices given")
	}
	if workersSet && workers != len(devices) {
		return nil, fmt.Errorf("%d workers requested but %d devices given", workers, len(devices))
	}
	return devices, nil
}

// forwardArgs passes the effective pipeline settings to every worker, so workers do
// not depend on the launcher's flags being re-parsed.
func forwardArgs(p config.Pipeline, force bool) []string {
	args := []string{
		"--config", configDir,
		"--root", p.Root,
		"--method", p.Method,
		"--f-px", strconv.FormatFloat(p.FocalPx, 'f', -1, 64),
		"--columns", p.Columns,
		"--delimiter", p.Delimiter,
		"--skip-rows", strconv.Itoa(p.SkipRows),
		"--keypoint-limit", strconv.Itoa(p.KeypointLimit),
		"--tiepoint-limit", strconv.Itoa(p.TiepointLimit),
	}
	if p.CRS != "" {
		args = append(args, "--crs", p.CRS)
	}
	if p.MaskDir != "" {
		args = append(args, "--mask-dir", p.MaskDir)
	}
	if p.KeepDepthMaps {
		args = append(args, "--keep-depth")
	}
	if p.KeepMatches {
		args = append(args, "--keep-matches")
	}
	if force {
		args = append(args, "--force")
	}
	return args
}
