// Package qc keeps a disabled copy of the freshly aligned chunk, labelled
// <label>__QC_ALIGNED, so reviewers can compare alignment before and after
// intrinsics optimization. Snapshots are best effort.
package qc
