package scan

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReadManifest reads scan entries from a manifest file, one per line. Blank lines and
// lines starting with '#' are skipped. An entry is a scan folder name or a bare
// datetime token.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	var entries []string
	seen := make(map[string]int)
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		entry := strings.TrimSpace(sc.Text())
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		if first, dup := seen[entry]; dup {
			return nil, &ManifestError{Path: path, Line: line, Reason: fmt.Sprintf("duplicate entry %q (first on line %d)", entry, first)}
		}
		seen[entry] = line
		entries = append(entries, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, &ManifestError{Path: path, Reason: err.Error()}
	}
	if len(entries) == 0 {
		return nil, &ManifestError{Path: path, Reason: "no scan entries"}
	}
	return entries, nil
}

// Expand replaces datetime tokens with the scan folders under root that start with
// them, in name order. Folder names pass through unchanged, as do tokens with no
// matching folder so the job reports them as missing. The result must not name a
// scan twice.
func Expand(root string, entries []string) ([]string, error) {
	var names []string
	seen := make(map[string]string)
	for _, entry := range entries {
		expanded := []string{entry}
		if datetimePattern.MatchString(entry) {
			found, err := findByDatetime(root, entry)
			if err != nil {
				return nil, err
			}
			if len(found) > 0 {
				expanded = found
			}
		}
		for _, name := range expanded {
			if from, dup := seen[name]; dup {
				return nil, &ManifestError{Path: root, Reason: fmt.Sprintf("scan %q listed by both %q and %q", name, from, entry)}
			}
			seen[name] = entry
			names = append(names, name)
		}
	}
	return names, nil
}

// Discover lists every scan folder under root in name order.
func Discover(root string) ([]string, error) {
	return findByPrefix(root, "")
}

func findByDatetime(root, token string) ([]string, error) {
	return findByPrefix(root, token+"__")
}

func findByPrefix(root, prefix string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list root %s: %w", root, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), Suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// WriteManifest writes names to path, one per line, creating parent directories.
func WriteManifest(path string, names []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// CheckRoot verifies the scan root is an existing directory.
func CheckRoot(root string) error {
	if root == "" {
		return fmt.Errorf("scan root is not configured")
	}
	if !isDir(root) {
		return fmt.Errorf("scan root %s is not a directory", root)
	}
	return nil
}
