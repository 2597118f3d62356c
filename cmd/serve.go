package cmd

import (
	"disc3d-batch/core/loader"
	"disc3d-batch/core/logger"
	"disc3d-batch/core/middleware/auth"
	"disc3d-batch/core/middleware/rayid"
	"disc3d-batch/feature/scan"
	"disc3d-batch/feature/status"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveRoot string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scan progress over HTTP",
	Long:  `Starts a read-only HTTP API reporting the checkpointed stage of each scan.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Configuration and Logger
		cfg, logg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logg.Sync()

		if cmd.Flags().Changed("root") {
			cfg.Pipeline.Root = serveRoot
		}
		if err := scan.CheckRoot(cfg.Pipeline.Root); err != nil {
			return setupError(err)
		}
		ctx := cmd.Context()

		// 2. Optional ledger and archive for scan details
		db := openLedgerDB(cfg, logg)
		arch := openArchive(ctx, cfg, logg)

		// 3. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 4. Register Features
		mgr := loader.NewManager()
		mgr.Register(status.NewFeature(cfg.Pipeline.Root, cfg.Pipeline.Manifest, logg, db, arch))

		// RayID must come first so every later log line carries it
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		loaded, err := mgr.LoadAll(app)
		if err != nil {
			return setupError(err)
		}

		// 5. Start Server, shut down when the context is cancelled
		errc := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("address", cfg.Server.Address()), zap.Strings("features", loaded))
			errc <- app.Listen(cfg.Server.Address())
		}()

		select {
		case err := <-errc:
			return setupError(err)
		case <-ctx.Done():
		}
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveRoot, "root", "", "directory holding the scan folders")
	RootCmd.AddCommand(serveCmd)
}
