// Package config loads the disc3d configuration.
//
// Settings come from an optional disc3d.yaml in the config directory, an optional
// .env file and environment variables, each overriding the previous one. Command
// line flags override all of them.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Pipeline: scan root, manifest, reconstruction method and reference format
//   - Engine: how the photogrammetry engine and its bridge script are launched
//   - Log: logging level and format
//   - Storage: optional S3/MinIO artifact archive
//   - Database: optional run ledger (MySQL or SQLite)
//   - Server: status server port and API key
//
// Environment variables use the upper-cased key with dots replaced by underscores,
// e.g. PIPELINE_F_PX or ENGINE_EXECUTABLE.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Pipeline.Root)
package config
