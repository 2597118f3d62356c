package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"disc3d-batch/feature/scan"

	"github.com/stretchr/testify/require"
)

const testScan = "20250502T082851__U0042__Apis_mellifera__DISC3D"

// makeScan builds a scan folder with n photos, a reference file with two header rows
// listing every photo, and masks for the first masked photos.
func makeScan(t *testing.T, root, name string, n, masked int) scan.Job {
	t.Helper()
	job, err := scan.Layout(root, name)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(job.PhotoDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(job.Dir, "masks"), 0o755))

	ref := "DISC3D camera positions\nlabel x y z\n"
	for i := 0; i < n; i++ {
		photo := fmt.Sprintf("cam_%02d.png", i)
		require.NoError(t, os.WriteFile(filepath.Join(job.PhotoDir, photo), []byte("img"), 0o644))
		if i < masked {
			require.NoError(t, os.WriteFile(filepath.Join(job.Dir, "masks", photo), []byte("mask"), 0o644))
		}
		ref += fmt.Sprintf("%s %d.5 0 10\n", photo, i)
	}
	require.NoError(t, os.WriteFile(job.ReferencePath, []byte(ref), 0o644))
	return job
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Reference.SkipRows = 2
	opts.MaskDir = "masks"
	return opts
}
