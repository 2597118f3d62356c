// Package logger provides a structured logging facility based on Zap.
//
// Batch workers log in console format by default so operators can follow a run in a
// terminal; JSON output is available for log shipping.
//
// # Scan Context
//
// Every line emitted while a scan job is being processed carries the dataset id and uid
// of the scan (ForScan) and, for pinned workers, the compute device (ForDevice). The
// read-only status API tags request logs with a RayID (WithRayID).
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: console or json
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	l := logger.ForScan(logger.ForDevice(log, 1), job)
//	l.Info("Stage finished", zap.String("stage", "Aligned"))
package logger
