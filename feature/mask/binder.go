package mask

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"disc3d-batch/core/engine"

	"go.uber.org/zap"
)

// Binding maps photos to mask images. Every photo appears in exactly one of Bound
// and Unmasked.
type Binding struct {
	// Bound maps a photo filename to its mask path.
	Bound map[string]string `json:"bound" yaml:"bound"`
	// Unmasked lists photo filenames with no mask, in photo order.
	Unmasked []string `json:"unmasked" yaml:"unmasked"`
	// Method is the engine call shape that applied the masks ("generate_masks",
	// "import_masks" or "per_camera"); empty when nothing was applied.
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
}

// Template is the mask path pattern handed to the engine for bulk import.
func Template(dir string) string {
	return filepath.Join(dir, "{filename}")
}

// Match pairs each photo with the file of the same name in dir. It does not touch
// the engine.
func Match(photos []string, dir string) (Binding, error) {
	b := Binding{Bound: make(map[string]string)}
	if dir == "" {
		for _, p := range photos {
			b.Unmasked = append(b.Unmasked, filepath.Base(p))
		}
		return b, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Binding{}, fmt.Errorf("failed to read mask directory %s: %w", dir, err)
	}
	available := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			available[e.Name()] = true
		}
	}

	for _, p := range photos {
		name := filepath.Base(p)
		if available[name] {
			b.Bound[name] = filepath.Join(dir, name)
		} else {
			b.Unmasked = append(b.Unmasked, name)
		}
	}
	return b, nil
}

// Binder attaches mask images to the cameras of a chunk.
type Binder struct {
	logger *zap.Logger
}

// NewBinder creates a new mask binder.
func NewBinder(logger *zap.Logger) *Binder {
	return &Binder{logger: logger}
}

// Bind matches photos to masks in dir and applies the matches to the chunk. A single
// bulk import is tried first; if the engine supports no bulk shape, masks are set
// camera by camera. Mask pixel values are passed through untouched: 255 excludes,
// 0 keeps.
func (b *Binder) Bind(ctx context.Context, eng engine.Engine, chunk string, photos []string, dir string) (Binding, error) {
	binding, err := Match(photos, dir)
	if err != nil {
		return Binding{}, err
	}

	if len(binding.Unmasked) > 0 {
		b.logger.Warn("Photos without mask",
			zap.Int("unmasked", len(binding.Unmasked)),
			zap.Int("photos", len(photos)),
			zap.Strings("files", preview(binding.Unmasked)),
		)
	}
	if len(binding.Bound) == 0 {
		return binding, nil
	}

	labels := boundLabels(photos, binding)
	_, tag, err := engine.Dispatch(ctx, eng, engine.OpImportMasks, engine.ImportMasks(chunk, Template(dir), labels)...)
	if err == nil {
		binding.Method = tag
		return binding, nil
	}
	if !engine.IsUnsupported(err) {
		return Binding{}, err
	}

	b.logger.Debug("Bulk mask import unsupported, setting masks per camera", zap.Error(err))
	for _, p := range photos {
		name := filepath.Base(p)
		path, ok := binding.Bound[name]
		if !ok {
			continue
		}
		if _, err := eng.Call(ctx, engine.OpSetCameraMask, engine.Args{"chunk": chunk, "camera": Label(name), "path": path}); err != nil {
			return Binding{}, fmt.Errorf("failed to set mask for %s: %w", name, err)
		}
	}
	binding.Method = "per_camera"
	return binding, nil
}

// Label returns the camera label the engine assigns to a photo file.
func Label(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func boundLabels(photos []string, b Binding) []string {
	labels := make([]string, 0, len(b.Bound))
	for _, p := range photos {
		if _, ok := b.Bound[filepath.Base(p)]; ok {
			labels = append(labels, Label(p))
		}
	}
	return labels
}

func preview(names []string) []string {
	const max = 10
	if len(names) <= max {
		return names
	}
	return append(append([]string{}, names[:max]...), fmt.Sprintf("... %d more", len(names)-max))
}
