package repair

import (
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// Params holds the tolerances of every repair phase. Zero disables a phase.
type Params struct {
	Simplify        float64  `json:"simplify"`
	SnapTolerance   float64  `json:"snap_tolerance"`
	FlickDiscard    float64  `json:"flick_discard"`
	ExtendTolerance int      `json:"extend_tolerance"`
	Strategy        Strategy `json:"strategy"`
	JoinTolerance   float64  `json:"join_tolerance"`
	AttachTolerance float64  `json:"attach_tolerance"`
}

// DefaultParams returns the repair tolerances used for road skeletons.
func DefaultParams() Params {
	return Params{
		Simplify:        2,
		SnapTolerance:   10,
		FlickDiscard:    3,
		ExtendTolerance: 10,
		Strategy:        SplitOnly,
		AttachTolerance: 20,
	}
}

// Phase records the dangling-end count after one repair phase.
type Phase struct {
	Name     string
	Segments int
	Dangling int
}

// Report summarises one Engine run.
type Report struct {
	Before int
	After  int
	Phases []Phase
}

// Engine runs the repair phases in order over one segment collection.
type Engine struct {
	Params       Params
	Frame        road.Frame
	Skeletonizer Skeletonizer
}

// NewEngine creates a repair engine for a raster of the given frame.
func NewEngine(params Params, frame road.Frame, sk Skeletonizer) *Engine {
	return &Engine{Params: params, Frame: frame, Skeletonizer: sk}
}

// Run snaps, trims flicks, extends, joins and attaches dangling ends, then
// simplifies and snaps once more.
func (e *Engine) Run(segs []road.Segment) ([]road.Segment, Report) {
	frame := &e.Frame
	p := e.Params
	report := Report{Before: road.NewConnectivity(segs, frame).CountUnconnected()}

	record := func(name string) {
		n := road.NewConnectivity(segs, frame).CountUnconnected()
		report.Phases = append(report.Phases, Phase{Name: name, Segments: len(segs), Dangling: n})
		logger.Debug("Repair phase complete", "phase", name, "segments", len(segs), "dangling", n)
	}

	segs = SnapEndpoints(segs, p.SnapTolerance, frame)
	record("snap")

	segs = TrimFlicks(segs, p.FlickDiscard, p.Simplify, frame)
	record("trim")

	segs = ExtendEndpoints(segs, e.Frame, ExtendOptions{
		Tolerance:       p.ExtendTolerance,
		TangentSimplify: 2,
		Strategy:        p.Strategy,
		Skeletonizer:    e.Skeletonizer,
		ResidueLength:   10,
	})
	record("extend")

	segs = JoinEndpoints(segs, p.JoinTolerance, frame)
	record("join")

	segs = AttachToNearestLine(segs, p.AttachTolerance, 2, frame)
	record("attach")

	segs = SimplifyAll(segs, p.Simplify)
	segs = SnapEndpoints(segs, p.SnapTolerance, frame)
	record("resnap")

	report.After = road.NewConnectivity(segs, frame).CountUnconnected()
	logger.Info("Network repaired",
		"segments", len(segs),
		"dangling_before", report.Before,
		"dangling_after", report.After)
	return segs, report
}

// SimplifyAll applies Douglas-Peucker simplification to every segment.
// Endpoints never move, so connectivity is unchanged.
func SimplifyAll(segs []road.Segment, epsilon float64) []road.Segment {
	if epsilon <= 0 {
		return segs
	}
	for i := range segs {
		segs[i].Points = geometry.Simplify(segs[i].Points, epsilon)
	}
	return road.Prune(segs)
}
