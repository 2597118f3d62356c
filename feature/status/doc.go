// Package status reports the progress of scan folders from their checkpoints.
//
// It backs both the status command and the read-only HTTP API started by serve.
//
// # Endpoints
//
//   - GET /scans: checkpointed stage of every scan, with per-stage counts.
//   - GET /scans/:name: full checkpoint of one scan plus, when configured, its run
//     ledger history and archived objects.
package status
