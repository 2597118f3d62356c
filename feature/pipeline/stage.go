package pipeline

// Stage is a point in a scan job's lifecycle. A job's checkpoint records the last
// stage it completed.
type Stage string

const (
	Created       Stage = "Created"
	Imported      Stage = "Imported"
	Masked        Stage = "Masked"
	Referenced    Stage = "Referenced"
	Matched       Stage = "Matched"
	Aligned       Stage = "Aligned"
	QCSnapshotted Stage = "QCSnapshotted"
	Optimized     Stage = "Optimized"
	DepthBuilt    Stage = "DepthBuilt"
	Meshed        Stage = "Meshed"
	Persisted     Stage = "Persisted"
	Done          Stage = "Done"
	Failed        Stage = "Failed"
)

// Order is the fixed stage sequence. Failed is not part of it.
var Order = []Stage{
	Created, Imported, Masked, Referenced, Matched, Aligned,
	QCSnapshotted, Optimized, DepthBuilt, Meshed, Persisted, Done,
}

// Index returns the position of s in Order, or -1.
func (s Stage) Index() int {
	for i, o := range Order {
		if o == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is part of the stage sequence.
func (s Stage) Valid() bool { return s.Index() >= 0 }

// Remaining returns the stages still to run after s, in order.
func (s Stage) Remaining() []Stage {
	i := s.Index()
	if i < 0 {
		return nil
	}
	return Order[i+1:]
}

// ParseStage converts a stage name, as used on the command line, to a Stage.
func ParseStage(name string) (Stage, bool) {
	s := Stage(name)
	if s == Failed || s.Valid() {
		return s, true
	}
	return "", false
}
