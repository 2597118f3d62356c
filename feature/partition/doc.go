// Package partition spreads a batch over several engine workers.
//
// The manifest is cut into contiguous, disjoint slices, one per device, and each
// slice runs in its own process. Workers never share a scan folder, so no locking is
// needed between them.
package partition
