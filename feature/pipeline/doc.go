// Package pipeline runs DISC3D scan jobs through the reconstruction stages.
//
// # Stages
//
// Every job walks the same sequence: Created, Imported, Masked, Referenced, Matched,
// Aligned, QCSnapshotted, Optimized, DepthBuilt, Meshed, Persisted and Done. After each
// stage the engine document is saved and the job's checkpoint is rewritten, so an
// interrupted job resumes after its last completed stage.
//
// # Checkpoints
//
// The checkpoint is a YAML file next to the project in the scan's models directory. It
// is written atomically and holds the whole State, including the last failure.
//
// # Batches
//
// A Runner processes scan folders one after another on a single engine session. One
// failing scan never stops the batch; cancelling the context does.
package pipeline
