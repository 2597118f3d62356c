package engine

import (
	"fmt"
	"math"
)

// Calibration is the set of camera intrinsics of the chunk's sensor, in pixels.
type Calibration struct {
	F  float64 `yaml:"f" json:"f"`
	Cx float64 `yaml:"cx" json:"cx"`
	Cy float64 `yaml:"cy" json:"cy"`
	B1 float64 `yaml:"b1" json:"b1"`
	B2 float64 `yaml:"b2" json:"b2"`
	K1 float64 `yaml:"k1" json:"k1"`
	K2 float64 `yaml:"k2" json:"k2"`
	K3 float64 `yaml:"k3" json:"k3"`
	K4 float64 `yaml:"k4" json:"k4"`
	P1 float64 `yaml:"p1" json:"p1"`
	P2 float64 `yaml:"p2" json:"p2"`
}

// Fit marks which intrinsics optimization may change.
type Fit struct {
	F  bool `yaml:"f" json:"f"`
	Cx bool `yaml:"cx" json:"cx"`
	Cy bool `yaml:"cy" json:"cy"`
	B1 bool `yaml:"b1" json:"b1"`
	B2 bool `yaml:"b2" json:"b2"`
	K1 bool `yaml:"k1" json:"k1"`
	K2 bool `yaml:"k2" json:"k2"`
	K3 bool `yaml:"k3" json:"k3"`
	K4 bool `yaml:"k4" json:"k4"`
	P1 bool `yaml:"p1" json:"p1"`
	P2 bool `yaml:"p2" json:"p2"`
}

// FocalOnly fits the focal length and nothing else.
func FocalOnly() Fit { return Fit{F: true} }

type term struct {
	name  string
	value float64
	fit   bool
}

func terms(c Calibration, f Fit) []term {
	return []term{
		{"f", c.F, f.F}, {"cx", c.Cx, f.Cx}, {"cy", c.Cy, f.Cy},
		{"b1", c.B1, f.B1}, {"b2", c.B2, f.B2},
		{"k1", c.K1, f.K1}, {"k2", c.K2, f.K2}, {"k3", c.K3, f.K3}, {"k4", c.K4, f.K4},
		{"p1", c.P1, f.P1}, {"p2", c.P2, f.P2},
	}
}

// Args returns the calibration as call arguments keyed by term name.
func (c Calibration) Args() Args {
	out := Args{}
	for _, t := range terms(c, Fit{}) {
		out[t.name] = t.value
	}
	return out
}

// CalibrationFromResult reads the terms of a get-calibration result.
func CalibrationFromResult(r Result) Calibration {
	return Calibration{
		F: r.Float("f"), Cx: r.Float("cx"), Cy: r.Float("cy"),
		B1: r.Float("b1"), B2: r.Float("b2"),
		K1: r.Float("k1"), K2: r.Float("k2"), K3: r.Float("k3"), K4: r.Float("k4"),
		P1: r.Float("p1"), P2: r.Float("p2"),
	}
}

// FitArgs returns the fit flags as optimization arguments (fit_f, fit_cx, ...).
func (f Fit) FitArgs() Args {
	out := Args{}
	for _, t := range terms(Calibration{}, f) {
		out["fit_"+t.name] = t.fit
	}
	return out
}

// Fixed returns the names of the terms optimization must leave untouched.
func (f Fit) Fixed() []string {
	var out []string
	for _, t := range terms(Calibration{}, f) {
		if !t.fit {
			out = append(out, t.name)
		}
	}
	return out
}

// VerifyFixed compares every term not marked for fitting between before and after and
// reports the ones that moved.
func VerifyFixed(before, after Calibration, fit Fit) error {
	a := terms(after, fit)
	var drifted []string
	for i, t := range terms(before, fit) {
		if t.fit {
			continue
		}
		if !sameTerm(t.value, a[i].value) {
			drifted = append(drifted, fmt.Sprintf("%s %g -> %g", t.name, t.value, a[i].value))
		}
	}
	if len(drifted) > 0 {
		return &OperationError{Op: OpOptimizeCameras, Message: fmt.Sprintf("fixed intrinsics changed: %v", drifted)}
	}
	return nil
}

func sameTerm(a, b float64) bool {
	const eps = 1e-9
	return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
