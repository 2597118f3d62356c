package cmd

import (
	"fmt"
	"text/tabwriter"

	"disc3d-batch/feature/scan"
	"disc3d-batch/feature/status"

	"github.com/spf13/cobra"
)

var (
	statusRoot     string
	statusManifest string
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the checkpointed stage of every scan",
	Long:  `Reads each scan's checkpoint and prints how far it got. Nothing is modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logg.Sync()

		if cmd.Flags().Changed("root") {
			cfg.Pipeline.Root = statusRoot
		}
		if cmd.Flags().Changed("manifest") {
			cfg.Pipeline.Manifest = statusManifest
		}
		if err := scan.CheckRoot(cfg.Pipeline.Root); err != nil {
			return setupError(err)
		}

		scans, err := status.NewService(cfg.Pipeline.Root, cfg.Pipeline.Manifest, logg, nil, nil).List()
		if err != nil {
			return setupError(err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SCAN\tSTAGE\tMETHOD\tUPDATED\tDETAIL")
		for _, s := range scans {
			updated, detail := "", s.Error
			if s.UpdatedAt != nil {
				updated = s.UpdatedAt.Local().Format("2006-01-02 15:04")
			}
			if s.FailedStage != "" {
				detail = fmt.Sprintf("failed at %s: %s", s.FailedStage, s.ErrorKind)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Scan, s.Stage, s.Method, updated, detail)
		}
		return tw.Flush()
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusRoot, "root", "", "directory holding the scan folders")
	statusCmd.Flags().StringVar(&statusManifest, "manifest", "", "only report the scans of this manifest")
	RootCmd.AddCommand(statusCmd)
}
