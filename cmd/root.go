package cmd

import (
	"context"
	"errors"
	"os"
	"syscall"

	"disc3d-batch/core/config"
	"disc3d-batch/core/logger"
	"disc3d-batch/feature/report"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configDir is where disc3d.yaml and .env are looked up.
var configDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "disc3d",
	Short: "DISC3D photogrammetry batch orchestrator",
	Long: `disc3d drives the photogrammetry engine over batches of DISC3D scan folders.
Each scan is reconstructed through a fixed sequence of checkpointed stages, so an
interrupted batch resumes where it stopped. Batches can be split over several
compute devices with launch.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory holding disc3d.yaml and .env")
}

// stopSignals cancel the command context. Workers started by launch get the same
// context, so a terminated launcher stops its workers too.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// setupError marks err as a failure that stopped the run before any scan was tried.
func setupError(err error) error {
	return &exitError{code: report.ExitSetup, err: err}
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, version string) int {
	err := fang.Execute(ctx, RootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(stopSignals...),
	)
	if err == nil {
		return report.ExitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	return report.ExitSetup
}

// loadConfig reads the configuration and builds the logger every command uses.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, setupError(err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, setupError(err)
	}
	zap.ReplaceGlobals(logg)
	return cfg, logg, nil
}
