package enginetest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"disc3d-batch/core/engine"
	"disc3d-batch/core/utils"
)

// Call is one recorded engine call.
type Call struct {
	Op   string
	Args engine.Args
}

// Camera is a photo added to a fake chunk.
type Camera struct {
	Label     string
	Path      string
	Mask      string
	Reference bool
	Aligned   bool
}

// Chunk is the fake engine's view of a chunk.
type Chunk struct {
	Key               string
	Label             string
	Enabled           bool
	Cameras           []*Camera
	Calibration       engine.Calibration
	CalibrationLocked bool
	Matched           bool
	TiePoints         int
	DepthMaps         bool
	Faces             int
}

func (c *Chunk) clone() *Chunk {
	out := *c
	out.Cameras = make([]*Camera, len(c.Cameras))
	for i, cam := range c.Cameras {
		cp := *cam
		out.Cameras[i] = &cp
	}
	return &out
}

type document struct {
	chunks  []*Chunk
	nextKey int
}

func (d *document) clone() *document {
	out := &document{nextKey: d.nextKey}
	for _, c := range d.chunks {
		out.chunks = append(out.chunks, c.clone())
	}
	return out
}

// Fake is an in-memory engine that models enough document state to drive the
// reconstruction pipeline in tests. Saved documents survive Restart, which stands in
// for a new engine process opening the same project files.
type Fake struct {
	mu sync.Mutex

	// Calls lists every call in order, including rejected ones.
	Calls []Call
	// Reject lists, per operation, argument names the engine does not accept.
	Reject map[string][]string
	// Missing lists operations absent from the engine API.
	Missing map[string]bool
	// Fail makes an operation fail with the given message.
	Fail map[string]string
	// DriftOnOptimize moves cx during optimization regardless of fit flags.
	DriftOnOptimize bool
	// AlignNone makes alignment succeed without aligning any camera.
	AlignNone bool
	// Imported is the calibration loaded by camera import.
	Imported engine.Calibration

	saved      map[string]*document
	doc        *document
	deviceMask int64
	closed     bool
}

// New returns an empty fake engine.
func New() *Fake {
	return &Fake{
		Reject:   map[string][]string{},
		Missing:  map[string]bool{},
		Fail:     map[string]string{},
		Imported: engine.Calibration{F: 10280.5, Cx: 1.25, Cy: -0.75, K1: 0.012},
		saved:    map[string]*document{},
	}
}

// Restart returns a fresh fake that shares this one's saved documents and
// configuration but no open document and no call history.
func (f *Fake) Restart() *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &Fake{
		Reject:          f.Reject,
		Missing:         f.Missing,
		Fail:            f.Fail,
		DriftOnOptimize: f.DriftOnOptimize,
		Imported:        f.Imported,
		saved:           f.saved,
	}
}

// Ops returns the operation names called so far.
func (f *Fake) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.Op)
	}
	return out
}

// Count returns how many times op was called.
func (f *Fake) Count(op string) int {
	n := 0
	for _, o := range f.Ops() {
		if o == op {
			n++
		}
	}
	return n
}

// Chunks returns the chunks of the open document.
func (f *Fake) Chunks() []*Chunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil {
		return nil
	}
	return f.doc.chunks
}

// Chunk returns a chunk of the open document by key.
func (f *Fake) Chunk(key string) *Chunk {
	for _, c := range f.Chunks() {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// DeviceMask returns the GPU mask configured on the fake.
func (f *Fake) DeviceMask() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deviceMask
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close ends the fake session.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Call implements engine.Engine.
func (f *Fake) Call(ctx context.Context, op string, args engine.Args) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, Call{Op: op, Args: args})

	if f.Missing[op] {
		return nil, &engine.ShapeMismatchError{Op: op, Detail: "no such operation"}
	}
	for _, name := range f.Reject[op] {
		if _, ok := args[name]; ok {
			return nil, &engine.ShapeMismatchError{Op: op, Detail: fmt.Sprintf("unexpected keyword argument '%s'", name)}
		}
	}
	if msg, ok := f.Fail[op]; ok {
		return nil, &engine.OperationError{Op: op, Message: msg}
	}

	res, err := f.apply(op, args)
	if err != nil {
		return nil, &engine.OperationError{Op: op, Message: err.Error()}
	}
	if res == nil {
		res = engine.Result{}
	}
	return res, nil
}

func (f *Fake) apply(op string, args engine.Args) (engine.Result, error) {
	switch op {
	case engine.OpConfigureDevices:
		f.deviceMask = int64(utils.ToInt(args["gpu_mask"]))
		return nil, nil
	case engine.OpNewDocument:
		f.doc = &document{}
		return nil, nil
	case engine.OpOpenDocument:
		path := utils.ToString(args["path"])
		doc, ok := f.saved[path]
		if !ok {
			return nil, fmt.Errorf("cannot open %s", path)
		}
		f.doc = doc.clone()
		return nil, nil
	case engine.OpSaveDocument:
		if f.doc == nil {
			return nil, fmt.Errorf("no document open")
		}
		path := utils.ToString(args["path"])
		if err := os.WriteFile(path, []byte("fake project\n"), 0o644); err != nil {
			return nil, err
		}
		f.saved[path] = f.doc.clone()
		return nil, nil
	case engine.OpAddChunk:
		if f.doc == nil {
			return nil, fmt.Errorf("no document open")
		}
		c := &Chunk{Key: strconv.Itoa(f.doc.nextKey), Label: utils.ToString(args["label"]), Enabled: true}
		f.doc.nextKey++
		f.doc.chunks = append(f.doc.chunks, c)
		return engine.Result{"key": c.Key}, nil
	}

	chunk, err := f.chunk(args)
	if err != nil {
		return nil, err
	}

	switch op {
	case engine.OpCopyChunk, engine.OpDuplicateChunk:
		c := chunk.clone()
		c.Key = strconv.Itoa(f.doc.nextKey)
		f.doc.nextKey++
		f.doc.chunks = append(f.doc.chunks, c)
		return engine.Result{"key": c.Key, "label": c.Label}, nil
	case engine.OpSetChunk:
		if v, ok := args["label"]; ok {
			chunk.Label = utils.ToString(v)
		}
		if v, ok := args["enabled"]; ok {
			chunk.Enabled = utils.ToBool(v)
		}
		return nil, nil
	case engine.OpChunkSummary:
		return summary(chunk), nil
	case engine.OpAddPhotos:
		paths := utils.ToStrings(args["paths"])
		for _, p := range paths {
			base := filepath.Base(p)
			chunk.Cameras = append(chunk.Cameras, &Camera{Label: strings.TrimSuffix(base, filepath.Ext(base)), Path: p})
		}
		return engine.Result{"added": len(paths)}, nil
	case engine.OpSetCalibration:
		if chunk.CalibrationLocked {
			return nil, fmt.Errorf("calibration is locked")
		}
		chunk.Calibration = engine.CalibrationFromResult(engine.Result(args))
		return nil, nil
	case engine.OpGetCalibration:
		return engine.Result(chunk.Calibration.Args()), nil
	case engine.OpLockCalibration:
		chunk.CalibrationLocked = true
		return nil, nil
	case engine.OpGenerateMasks, engine.OpImportMasks:
		template := utils.ToString(args["path"])
		n := 0
		for _, label := range utils.ToStrings(args["cameras"]) {
			if cam := camera(chunk, label); cam != nil {
				cam.Mask = strings.ReplaceAll(template, "{filename}", filepath.Base(cam.Path))
				n++
			}
		}
		return engine.Result{"masked": n}, nil
	case engine.OpSetCameraMask:
		cam := camera(chunk, utils.ToString(args["camera"]))
		if cam == nil {
			return nil, fmt.Errorf("no camera %v", args["camera"])
		}
		cam.Mask = utils.ToString(args["path"])
		return nil, nil
	case engine.OpImportReference:
		return importReference(chunk, args)
	case engine.OpImportCameras:
		path := utils.ToString(args["path"])
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		chunk.Calibration = f.Imported
		for _, cam := range chunk.Cameras {
			cam.Reference = true
		}
		return engine.Result{"cameras": len(chunk.Cameras)}, nil
	case engine.OpMatchPhotos:
		if len(chunk.Cameras) == 0 {
			return nil, fmt.Errorf("no cameras to match")
		}
		chunk.Matched = true
		chunk.TiePoints = 1000 * len(chunk.Cameras)
		return nil, nil
	case engine.OpAlignCameras:
		if !chunk.Matched {
			return nil, fmt.Errorf("photos are not matched")
		}
		for _, cam := range chunk.Cameras {
			cam.Aligned = !f.AlignNone
		}
		return nil, nil
	case engine.OpOptimizeCameras:
		if aligned(chunk) == 0 {
			return nil, fmt.Errorf("no aligned cameras")
		}
		if utils.ToBool(args["fit_f"]) {
			chunk.Calibration.F += 12.5
		}
		if f.DriftOnOptimize {
			chunk.Calibration.Cx += 0.5
		}
		return nil, nil
	case engine.OpBuildDepthMaps:
		if aligned(chunk) == 0 {
			return nil, fmt.Errorf("no aligned cameras")
		}
		chunk.DepthMaps = true
		return nil, nil
	case engine.OpBuildModel:
		if !chunk.DepthMaps {
			return nil, fmt.Errorf("no depth maps")
		}
		chunk.Faces = 200000
		return nil, nil
	case engine.OpExportCameras:
		if aligned(chunk) == 0 {
			return nil, fmt.Errorf("no aligned cameras")
		}
		path := utils.ToString(args["path"])
		body := fmt.Sprintf("<document><chunk label=%q><calibration f=\"%g\"/></chunk></document>\n", chunk.Label, chunk.Calibration.F)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return nil, err
		}
		return nil, nil
	case engine.OpClearDepthMaps:
		chunk.DepthMaps = false
		return nil, nil
	case engine.OpRemoveMatches:
		chunk.Matched = false
		return nil, nil
	}
	return nil, fmt.Errorf("fake engine does not implement %s", op)
}

func (f *Fake) chunk(args engine.Args) (*Chunk, error) {
	if f.doc == nil {
		return nil, fmt.Errorf("no document open")
	}
	key := utils.ToString(args["chunk"])
	for _, c := range f.doc.chunks {
		if c.Key == key {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no chunk %q", key)
}

func camera(c *Chunk, label string) *Camera {
	for _, cam := range c.Cameras {
		if cam.Label == label {
			return cam
		}
	}
	return nil
}

func aligned(c *Chunk) int {
	n := 0
	for _, cam := range c.Cameras {
		if cam.Aligned {
			n++
		}
	}
	return n
}

func summary(c *Chunk) engine.Result {
	masks, refs := 0, 0
	for _, cam := range c.Cameras {
		if cam.Mask != "" {
			masks++
		}
		if cam.Reference {
			refs++
		}
	}
	return engine.Result{
		"label":      c.Label,
		"enabled":    c.Enabled,
		"cameras":    len(c.Cameras),
		"aligned":    aligned(c),
		"masks":      masks,
		"references": refs,
		"tie_points": c.TiePoints,
		"depth_maps": c.DepthMaps,
		"faces":      c.Faces,
	}
}

// importReference reads label and coordinates the way the engine's CSV importer
// does and marks matching cameras as referenced.
func importReference(c *Chunk, args engine.Args) (engine.Result, error) {
	data, err := os.ReadFile(utils.ToString(args["path"]))
	if err != nil {
		return nil, err
	}
	columns := utils.ToString(args["columns"])
	label := strings.IndexByte(columns, 'n')
	if label < 0 {
		return nil, fmt.Errorf("columns %q have no label column", columns)
	}
	delim := utils.ToString(args["delimiter"])
	skip := utils.ToInt(args["skip_rows"])

	loaded := 0
	for i, line := range strings.Split(string(data), "\n") {
		if i < skip || strings.TrimSpace(line) == "" {
			continue
		}
		var fields []string
		if strings.TrimSpace(delim) == "" {
			fields = strings.Fields(line)
		} else {
			fields = strings.Split(line, delim)
		}
		if len(fields) <= label {
			continue
		}
		name := strings.TrimSpace(fields[label])
		name = strings.TrimSuffix(name, filepath.Ext(name))
		if cam := camera(c, name); cam != nil {
			cam.Reference = true
			loaded++
		}
	}
	return engine.Result{"loaded": loaded}, nil
}

var _ engine.Engine = (*Fake)(nil)
