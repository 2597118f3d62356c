// Package scan resolves DISC3D scan folders and reads batch manifests.
//
// # Folder Layout
//
// A scan folder is named <datetime>__<uid>__<species>__DISC3D and holds:
//   - <uid>__edof/: the photos (png, jpg, tif)
//   - <datetime>__<uid>__<species>__CamPos.txt: camera reference positions
//   - models/: project, checkpoint and camera exports, created by the pipeline
//
// Layout derives all paths from the name; Resolve additionally checks the required
// inputs exist and reports MalformedNameError or MissingInputError. Neither writes.
//
// # Manifests
//
// A manifest lists one scan folder name or datetime token per line; '#' comments and
// blank lines are ignored. Duplicates and empty manifests are fatal (ManifestError).
// Expand turns datetime tokens into the matching folders under the root.
package scan
