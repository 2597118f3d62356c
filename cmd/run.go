package cmd

import (
	"fmt"
	"time"

	"disc3d-batch/core/engine"
	"disc3d-batch/core/engine/bridge"
	"disc3d-batch/core/logger"
	"disc3d-batch/feature/ledger"
	"disc3d-batch/feature/pipeline"
	"disc3d-batch/feature/report"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runFlags  pipelineFlags
	runDevice int
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconstruct a batch of scans in one engine session",
	Long: `Runs every scan of the manifest through the reconstruction stages, one after the
other, in a single engine session. Scans resume from their last checkpoint.

Exits 1 when every attempted scan failed and 2 when the run could not start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logg.Sync()

		runFlags.apply(cmd, &cfg.Pipeline)
		if cmd.Flags().Changed("device") {
			cfg.Pipeline.Device = runDevice
		}
		p := cfg.Pipeline
		logg = logger.ForDevice(logg, p.Device)

		opts, err := pipelineOptions(p, runFlags.force)
		if err != nil {
			return setupError(err)
		}
		names, err := scanNames(p)
		if err != nil {
			return setupError(err)
		}

		ctx := cmd.Context()
		runID := uuid.NewString()
		logg = logg.With(zap.String("run", runID))
		rep := report.New(runID, p.Root, p.Method, p.Device, time.Now())
		observers := []pipeline.Observer{rep}

		if db := openLedgerDB(cfg, logg); db != nil {
			led := ledger.New(db, runID, p.Device, p.Method, logg)
			if err := led.Migrate(); err != nil {
				logg.Warn("Run ledger disabled", zap.Error(err))
			} else {
				observers = append(observers, led)
			}
		}
		if arch := openArchive(ctx, cfg, logg); arch != nil {
			observers = append(observers, arch)
		}

		logg.Info("Starting run",
			zap.Int("scans", len(names)),
			zap.String("root", p.Root),
			zap.String("method", p.Method),
		)

		proc, err := bridge.Start(ctx, cfg.Engine, logg)
		if err != nil {
			return setupError(err)
		}
		defer func() {
			if err := proc.Close(); err != nil {
				logg.Warn("Engine did not exit cleanly", zap.Error(err))
			}
		}()
		if err := engine.PinDevice(ctx, proc, p.Device); err != nil {
			return setupError(err)
		}

		seq := pipeline.NewSequencer(proc, opts, logg)
		pipeline.NewRunner(seq, p.Root, logg, observers...).Run(ctx, names)

		rep.Finalize(time.Now())
		if err := rep.Print(cmd.OutOrStdout()); err != nil {
			logg.Warn("Failed to print report", zap.Error(err))
		}
		if p.Report != "" {
			if err := rep.Save(p.Report); err != nil {
				logg.Error("Failed to save report", zap.Error(err))
			}
		}
		if ctx.Err() != nil {
			logg.Warn("Run interrupted", zap.Int("unprocessed", len(names)-rep.Summary.Attempted))
		}

		if code := rep.ExitCode(); code != report.ExitOK {
			return &exitError{code: code, err: fmt.Errorf("all %d attempted scans failed", rep.Summary.Attempted)}
		}
		return nil
	},
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().IntVar(&runDevice, "device", -1, "pin the engine to this GPU index (negative: engine default)")
	RootCmd.AddCommand(runCmd)
}
