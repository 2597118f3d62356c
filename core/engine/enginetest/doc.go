// Package enginetest provides an in-memory engine for exercising the reconstruction
// pipeline without the real engine. The fake records every call and can be told to
// reject argument names (simulating an older or newer engine API), to lack an
// operation entirely, or to fail an operation.
package enginetest
