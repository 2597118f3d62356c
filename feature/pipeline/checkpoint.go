package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadState reads a checkpoint. A missing file yields (nil, nil).
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &CheckpointError{Path: path, Reason: err.Error()}
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, &CheckpointError{Path: path, Reason: fmt.Sprintf("unreadable: %v", err)}
	}
	if err := st.validate(); err != nil {
		return nil, &CheckpointError{Path: path, Reason: err.Error()}
	}
	return &st, nil
}

func (s *State) validate() error {
	if s.Version != stateVersion {
		return fmt.Errorf("unsupported version %d", s.Version)
	}
	if !s.Stage.Valid() {
		return fmt.Errorf("unknown stage %q", s.Stage)
	}
	if len(s.Completed) != s.Stage.Index() {
		return fmt.Errorf("stage %s with %d completed stages", s.Stage, len(s.Completed))
	}
	for i, rec := range s.Completed {
		if want := Order[i+1]; rec.Stage != want {
			return fmt.Errorf("completed stage %d is %s, want %s", i+1, rec.Stage, want)
		}
	}
	if s.Stage != Created && s.ChunkKey == "" {
		return fmt.Errorf("stage %s without chunk key", s.Stage)
	}
	return nil
}

// SaveState writes a checkpoint atomically: a reader sees either the previous
// checkpoint or the new one, never a partial file.
func SaveState(path string, st *State) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return writeFileAtomic(path, data)
}

// RemoveState deletes a checkpoint; a missing file is not an error.
func RemoveState(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
