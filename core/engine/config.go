package engine

// Config holds configuration for launching the engine bridge.
type Config struct {
	// Executable is the engine binary (e.g. metashape.sh).
	Executable string `mapstructure:"executable" default:"metashape.sh"`
	// ScriptFlag is the engine option that runs a script on startup.
	ScriptFlag string `mapstructure:"script_flag" default:"-r"`
	// Script is the bridge script run inside the engine. Empty runs the script built
	// into the binary.
	Script string `mapstructure:"script" default:""`
	// ExtraArgs are passed to the engine before the script flag, space separated.
	ExtraArgs string `mapstructure:"extra_args" default:"-platform offscreen"`
}
