package repair

import (
	"fmt"

	"road-tracer/internal/raster"
	"road-tracer/internal/road"
	"road-tracer/internal/trace"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// Strategy selects how committed extensions are folded back into the network.
type Strategy int

const (
	// SplitOnly splits the line each extension lands on at the landing point.
	SplitOnly Strategy = iota
	// Reskeletonize redraws the patched network, thickens and thins it, and
	// vectorizes it again.
	Reskeletonize
)

func (s Strategy) String() string {
	switch s {
	case SplitOnly:
		return "split"
	case Reskeletonize:
		return "reskeletonize"
	default:
		return "unknown"
	}
}

// ParseStrategy converts a strategy name back to its value.
func ParseStrategy(name string) (Strategy, bool) {
	switch name {
	case "split", "":
		return SplitOnly, true
	case "reskeletonize":
		return Reskeletonize, true
	}
	return SplitOnly, false
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	v, ok := ParseStrategy(string(text))
	if !ok {
		return fmt.Errorf("unknown extension strategy %q", text)
	}
	*s = v
	return nil
}

// Skeletonizer turns a patched line drawing back into a one-pixel skeleton.
type Skeletonizer interface {
	Reskeletonize(patched *raster.Binary) (*raster.Binary, error)
}

// ExtendOptions configures directional extension.
type ExtendOptions struct {
	Tolerance       int     // maximum number of pixel steps per endpoint
	TangentSimplify float64 // simplification applied before taking the end tangent
	Strategy        Strategy
	Skeletonizer    Skeletonizer // required by Reskeletonize

	// Reskeletonize clean-up: lines shorter than this with a dangling end are dropped.
	ResidueLength float64
}

// DefaultExtendOptions returns the settings used by the repair engine.
func DefaultExtendOptions() ExtendOptions {
	return ExtendOptions{
		Tolerance:       10,
		TangentSimplify: 2,
		Strategy:        SplitOnly,
		ResidueLength:   10,
	}
}

// walker is one dangling end being walked outward pixel by pixel.
type walker struct {
	end     road.Endpoint
	origin  geometry.Point2D
	dir     geometry.Point2D
	last    geometry.PointInt
	label   int32
	started bool
	done    bool
	found   bool
	hit     geometry.PointInt
	hitBy   int32
}

func (p *walker) at(step int) geometry.PointInt {
	return p.origin.Sub(p.dir.Scale(float64(step))).Round()
}

// ExtendEndpoints walks every dangling end outward along its end tangent for
// up to opts.Tolerance pixel steps over a scratch drawing of the network.
// A walk records a hit once it has crossed background and then reaches a
// drawn line or another walk's trail. Hits are committed only after every
// walk has finished: two walks that hit each other join their segments, any
// other hit extends the end to the hit pixel and is then resolved by the
// chosen strategy.
func ExtendEndpoints(segs []road.Segment, frame road.Frame, opts ExtendOptions) []road.Segment {
	if opts.Tolerance <= 0 || frame.Width <= 0 || frame.Height <= 0 {
		return segs
	}

	dangling := road.NewConnectivity(segs, &frame).Dangling()
	scratch := raster.NewLabels(frame.Width, frame.Height)
	for i := range segs {
		scratch.DrawPath(segs[i].Points, int32(i+1))
	}

	walkers := make([]*walker, 0, len(dangling))
	for _, e := range dangling {
		pts := geometry.Simplify(segs[e.Segment].From(e.Polarity), opts.TangentSimplify)
		dir, ok := geometry.UnitVector(pts[0], pts[1])
		if !ok {
			continue
		}
		walkers = append(walkers, &walker{
			end:    e,
			origin: pts[0],
			dir:    dir,
			last:   pts[0].Round(),
			label:  -int32(len(walkers) + 1),
		})
	}

	for step := 1; step <= opts.Tolerance; step++ {
		for _, p := range walkers {
			if !p.done {
				p.advance(scratch, step)
			}
		}
	}

	segs, pending := commitExtensions(segs, walkers)

	switch {
	case opts.Strategy == Reskeletonize && opts.Skeletonizer != nil:
		out, err := reskeletonize(segs, frame, opts)
		if err == nil {
			return out
		}
		logger.Warn("Re-skeletonization failed, splitting instead", "error", err)
	case opts.Strategy == Reskeletonize:
		logger.Warn("No skeletonizer configured, splitting instead")
	}

	reqs := landingSplits(segs, pending, float64(opts.Tolerance))
	return ApplySplits(segs, reqs)
}

func (p *walker) advance(scratch *raster.Labels, step int) {
	sp := p.at(step)
	if sp == p.last {
		return
	}
	if !scratch.In(sp.X, sp.Y) {
		p.done = true
		return
	}

	switch v := scratch.At(sp.X, sp.Y); {
	case v == 0:
		p.started = true
		scratch.DrawLine(p.last, sp, func(v int32) bool { return v == 0 }, p.label)
	case v == p.label:
	case p.started:
		p.done, p.found = true, true
		p.hit, p.hitBy = sp, v
		return
	}
	p.last = sp
}

// commitExtensions applies every hit. It returns the ends that were
// extended onto a line and still need to be joined to it.
func commitExtensions(segs []road.Segment, walkers []*walker) ([]road.Segment, []road.Endpoint) {
	byLabel := make(map[int32]*walker, len(walkers))
	var dangling []road.Endpoint
	for _, p := range walkers {
		byLabel[p.label] = p
		dangling = append(dangling, p.end)
	}
	m := newMerger(segs, dangling)

	// mutual hits first, while every end still sits at its original coordinate
	ends := make([]geometry.Point2D, len(walkers))
	for i, p := range walkers {
		ends[i] = segs[p.end.Segment].End(p.end.Polarity)
	}
	merged := make(map[int32]bool)
	joins := 0
	for i, p := range walkers {
		if !p.found || p.hitBy >= 0 {
			continue
		}
		q := byLabel[p.hitBy]
		if q == nil || !q.found || q.hitBy != p.label || merged[p.label] {
			continue
		}
		qi := int(-q.label) - 1
		if m.join(ends[i], ends[qi]) {
			merged[p.label], merged[q.label] = true, true
			joins++
		}
	}

	extended := make(map[int32]bool)
	var pending []road.Endpoint
	for i, p := range walkers {
		if !p.found || merged[p.label] {
			continue
		}
		at := p.hit.ToFloat()
		e, ok := m.extend(ends[i], at)
		if !ok {
			continue
		}
		extended[p.label] = true

		// a trail whose owner found nothing is pulled to the same point
		if q := byLabel[p.hitBy]; q != nil && !q.found && !extended[q.label] {
			qi := int(-q.label) - 1
			if _, ok := m.extend(ends[qi], at); ok {
				extended[q.label] = true
				continue
			}
		}
		pending = append(pending, e)
	}

	logger.Debug("Committed endpoint extensions",
		"walkers", len(walkers), "joined", joins, "extended", len(extended))
	return m.segs, pending
}

// landingSplits pairs each extended end with the nearest other line within
// tolerance.
func landingSplits(segs []road.Segment, pending []road.Endpoint, tolerance float64) []SplitRequest {
	if len(pending) == 0 {
		return nil
	}
	idx := road.NewSegmentIndex(segs)
	var reqs []SplitRequest
	for _, e := range pending {
		p := segs[e.Segment].End(e.Polarity)
		best, bestD := -1, tolerance
		var at geometry.Point2D
		for _, j := range idx.Near(p, tolerance) {
			if j == e.Segment || len(segs[j].Points) < 2 {
				continue
			}
			c, _, d := geometry.ClosestPoint(segs[j].Points, p)
			if d <= bestD {
				best, bestD, at = j, d, c
			}
		}
		if best < 0 {
			logger.Debug("Extended end has no line to land on", "end", e)
			continue
		}
		reqs = append(reqs, SplitRequest{Target: best, Point: at, Requester: e})
	}
	return reqs
}

// reskeletonize redraws the network, rebuilds its skeleton and vectorizes
// it again, dropping short residue left dangling by the redraw.
func reskeletonize(segs []road.Segment, frame road.Frame, opts ExtendOptions) ([]road.Segment, error) {
	patched := raster.New(frame.Width, frame.Height)
	for i := range segs {
		patched.DrawPath(segs[i].Points)
	}
	skel, err := opts.Skeletonizer.Reskeletonize(patched)
	if err != nil {
		return nil, err
	}

	lines := trace.Vectorize(skel, trace.VectorizeOptions{SimplifyEpsilon: 2, DiscardMaxPoints: 2})
	conn := road.NewConnectivity(lines, &frame)
	out := lines[:0]
	for _, s := range lines {
		dangles := conn.IsUnconnected(s.End(road.Head)) || conn.IsUnconnected(s.End(road.Tail))
		if dangles && s.Length() < opts.ResidueLength {
			continue
		}
		out = append(out, s)
	}
	logger.Debug("Re-skeletonized patched network", "segments", len(out), "dropped", len(lines)-len(out))
	return out, nil
}
