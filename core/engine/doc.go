// Package engine defines the session with the photogrammetry engine and the
// compatibility dispatcher used to call it across engine releases.
//
// # Engine Interface
//
// The Engine interface is a single Call(op, args) entry point. Concrete sessions live
// in subpackages: bridge runs the engine as a subprocess and talks to a bridge script
// over a line protocol; enginetest provides an in-memory fake; mocks provides a
// testify mock.
//
// # Compatibility Dispatch
//
// Engine releases rename keyword arguments and entry points (accuracy vs downscale,
// quality vs downscale, source vs source_data, copy vs duplicate). Instead of
// guessing at call sites, each such operation has an ordered list of Variants in
// compat.go and is invoked through Dispatch:
//
//	res, tag, err := engine.Dispatch(ctx, eng, engine.OpBuildDepthMaps, engine.BuildDepthMaps(chunk)...)
//
// A rejected call shape (ShapeMismatchError) moves to the next variant; any other
// failure propagates at once; exhausting the list yields UnsupportedInterfaceError
// naming the variants tried.
//
// # Enumerations
//
// Engine enum members are passed as EnumRef values listing candidate attribute paths,
// resolved on the engine side, so a member that moved namespaces still resolves.
//
// # Devices
//
// PinDevice restricts a session to one GPU (mask 1<<index, CPU enabled) and must be
// the first call of a worker's session.
package engine
