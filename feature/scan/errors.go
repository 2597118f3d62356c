package scan

import "fmt"

// Error kinds reported in run summaries.
const (
	KindMalformedName = "MalformedScanFolderName"
	KindMissingInput  = "MissingRequiredInput"
)

// MalformedNameError reports a scan folder name that does not follow
// <datetime>__<uid>__<species>__DISC3D.
type MalformedNameError struct {
	Name string
}

func (e *MalformedNameError) Error() string {
	return fmt.Sprintf("malformed scan folder name %q: want <datetime>__<uid>__<species>%s", e.Name, Suffix)
}

// Kind returns the stable error kind.
func (e *MalformedNameError) Kind() string { return KindMalformedName }

// MissingInputError names a required input that does not exist.
type MissingInputError struct {
	What string
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing %s: %s", e.What, e.Path)
}

// Kind returns the stable error kind.
func (e *MissingInputError) Kind() string { return KindMissingInput }

// ManifestError is a fatal problem with the batch manifest. No scan is processed
// when the manifest cannot be read.
type ManifestError struct {
	Path   string
	Line   int
	Reason string
}

func (e *ManifestError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("manifest %s line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("manifest %s: %s", e.Path, e.Reason)
}
