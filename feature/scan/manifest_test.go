package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()

	t.Run("CommentsAndBlanks", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "ok.txt"), "# batch 1\n\n"+testName+"\n  20250503T090000  \n# done\n")
		got, err := ReadManifest(path)
		require.NoError(t, err)
		if diff := cmp.Diff([]string{testName, "20250503T090000"}, got); diff != "" {
			t.Errorf("ReadManifest() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "dup.txt"), testName+"\n# x\n"+testName+"\n")
		_, err := ReadManifest(path)
		var mErr *ManifestError
		require.ErrorAs(t, err, &mErr)
		assert.Equal(t, 3, mErr.Line)
	})

	t.Run("Empty", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "empty.txt"), "# nothing\n\n")
		_, err := ReadManifest(path)
		assert.ErrorAs(t, err, new(*ManifestError))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := ReadManifest(filepath.Join(dir, "nope.txt"))
		assert.ErrorAs(t, err, new(*ManifestError))
	})
}

func TestExpand(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{
		"20250502T082851__U2__Bombus__DISC3D",
		"20250502T082851__U1__Apis__DISC3D",
		"20250503T100000__U3__Vespa__DISC3D",
		"20250502T082851__U9__notes",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, n), 0o755))
	}

	got, err := Expand(root, []string{"20250503T100000__U3__Vespa__DISC3D", "20250502T082851", "20250601T000000"})
	require.NoError(t, err)
	want := []string{
		"20250503T100000__U3__Vespa__DISC3D",
		"20250502T082851__U1__Apis__DISC3D",
		"20250502T082851__U2__Bombus__DISC3D",
		"20250601T000000",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Expand() mismatch (-want +got):\n%s", diff)
	}

	_, err = Expand(root, []string{"20250502T082851", "20250502T082851__U1__Apis__DISC3D"})
	assert.ErrorAs(t, err, new(*ManifestError))
}

func TestExpand_DateToken(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{
		"2025-05-02__067870__Carabus_violaceus_meyeri__DISC3D",
		"2025-05-02__067871__Carabus_auratus__DISC3D",
		"2025-05-03__067872__Carabus_nemoralis__DISC3D",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, n), 0o755))
	}

	got, err := Expand(root, []string{"2025-05-02"})

	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-05-02__067870__Carabus_violaceus_meyeri__DISC3D",
		"2025-05-02__067871__Carabus_auratus__DISC3D",
	}, got)
}

func TestWriteManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slices", "worker-0.txt")
	names := []string{"a__b__c__DISC3D", "d__e__f__DISC3D"}

	require.NoError(t, WriteManifest(path, names))
	got, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, names, got)
}

func TestCheckRoot(t *testing.T) {
	assert.NoError(t, CheckRoot(t.TempDir()))
	assert.Error(t, CheckRoot(""))
	assert.Error(t, CheckRoot(writeFile(t, filepath.Join(t.TempDir(), "f"), "x")))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{
		"20250502T090000__U2__B__DISC3D",
		"20250502T080000__U1__A__DISC3D",
		"notes",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	writeFile(t, filepath.Join(root, "20250502T100000__U3__C__DISC3D"), "not a folder")

	got, err := Discover(root)

	require.NoError(t, err)
	assert.Equal(t, []string{"20250502T080000__U1__A__DISC3D", "20250502T090000__U2__B__DISC3D"}, got)
}
