// Package trace converts a one-pixel-wide raster skeleton into polylines
// split at junctions.
package trace

import (
	"road-tracer/internal/imaging"
	"road-tracer/internal/raster"
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// VectorizeOptions configures skeleton vectorization.
type VectorizeOptions struct {
	SimplifyEpsilon  float64 `json:"simplify"`           // Douglas-Peucker tolerance applied to every line
	DiscardMaxPoints int     `json:"discard_max_points"` // Lines with at most this many traced pixels are dropped
	DiscardLength    float64 `json:"discard_length"`     // Lines no longer than this are dropped; 0 disables
}

// DefaultVectorizeOptions returns the defaults used for road skeletons.
func DefaultVectorizeOptions() VectorizeOptions {
	return VectorizeOptions{
		SimplifyEpsilon:  2.0,
		DiscardMaxPoints: 1,
	}
}

// Vectorize decomposes a skeleton into line segments. Every border walk of
// the skeleton is followed; a run of previously unseen pixels becomes a line
// that ends where the walk returns to a junction, crosses its own track or
// doubles back. Lines are then split wherever they pass through a junction
// discovered later, and rejoined where a walk merely started.
func Vectorize(skeleton *raster.Binary, opts VectorizeOptions) []road.Segment {
	if skeleton == nil || skeleton.Width == 0 || skeleton.Height == 0 {
		return nil
	}

	t := newTracer()
	contours := imaging.FindContours(skeleton)
	for _, c := range contours {
		t.follow(c)
	}
	lines := t.joinAtSeeds(t.splitAtJunctions())

	var segs []road.Segment
	for _, line := range lines {
		if len(line) <= opts.DiscardMaxPoints {
			continue
		}
		pts := make([]geometry.Point2D, len(line))
		for i, p := range line {
			pts[i] = p.ToFloat()
		}
		pts = geometry.Simplify(pts, opts.SimplifyEpsilon)
		s := road.NewSegment(pts)
		s.Compact()
		if !s.Valid() {
			continue
		}
		if opts.DiscardLength > 0 && s.Length() <= opts.DiscardLength {
			continue
		}
		segs = append(segs, s)
	}

	logger.Debug("Vectorized skeleton",
		"contours", len(contours),
		"junctions", len(t.junctions),
		"segments", len(segs))
	return segs
}

// tracer holds the state of one Vectorize call.
type tracer struct {
	visited   map[geometry.PointInt]bool
	junctions map[geometry.PointInt]bool
	seeds     []geometry.PointInt // walk starts, in trace order
	lines     [][]geometry.PointInt
}

func newTracer() *tracer {
	return &tracer{
		visited:   make(map[geometry.PointInt]bool),
		junctions: make(map[geometry.PointInt]bool),
	}
}

// follow consumes one closed border walk, wrapping back to its start.
func (t *tracer) follow(walk []geometry.PointInt) {
	if len(walk) == 0 {
		return
	}

	start := walk[0]
	var run []geometry.PointInt
	adding := false
	if !t.visited[start] {
		t.junctions[start] = true
		t.seeds = append(t.seeds, start)
		run = []geometry.PointInt{start}
		adding = true
	}
	t.visited[start] = true

	flush := func() {
		if len(run) > 1 {
			t.lines = append(t.lines, run)
		}
		run = nil
		adding = false
	}

	steps := len(walk)
	if steps == 1 {
		steps = 0
	}
	prev := start
	for i := 1; i <= steps; i++ {
		p := walk[i%len(walk)]
		if p == prev {
			continue
		}

		if adding {
			switch {
			case len(run) >= 2 && run[len(run)-2] == p:
				// doubled back
				t.junctions[prev] = true
				flush()
			case !t.visited[p]:
				run = append(run, p)
			case t.junctions[p]:
				run = append(run, p)
				flush()
			default:
				// crossed an earlier track away from any junction
				t.junctions[p] = true
				run = append(run, p)
				flush()
			}
		} else if !t.visited[p] {
			t.junctions[prev] = true
			run = []geometry.PointInt{prev, p}
			adding = true
		}

		t.visited[p] = true
		prev = p
	}
	if adding {
		flush()
	}
}

// splitAtJunctions breaks every line at interior junction pixels.
func (t *tracer) splitAtJunctions() [][]geometry.PointInt {
	var out [][]geometry.PointInt
	for _, line := range t.lines {
		from := 0
		for i := 1; i < len(line)-1; i++ {
			if t.junctions[line[i]] {
				out = append(out, line[from:i+1])
				from = i
			}
		}
		out = append(out, line[from:])
	}
	return out
}

// joinAtSeeds rejoins the two lines that end at a walk's starting pixel when
// no other line ends there. A walk can start anywhere on a ring, and that
// pixel is neither a junction nor a dead end.
func (t *tracer) joinAtSeeds(lines [][]geometry.PointInt) [][]geometry.PointInt {
	for _, s := range t.seeds {
		var ends []int
		for i, l := range lines {
			if l == nil {
				continue
			}
			if l[0] == s {
				ends = append(ends, i)
			}
			if l[len(l)-1] == s {
				ends = append(ends, i)
			}
		}
		if len(ends) != 2 || ends[0] == ends[1] {
			continue
		}

		a, b := lines[ends[0]], lines[ends[1]]
		if a[0] == s {
			a = reversed(a)
		}
		if b[len(b)-1] == s {
			b = reversed(b)
		}
		joined := make([]geometry.PointInt, 0, len(a)+len(b)-1)
		joined = append(joined, a...)
		joined = append(joined, b[1:]...)
		lines[ends[0]], lines[ends[1]] = joined, nil
		delete(t.junctions, s)
	}

	out := lines[:0]
	for _, l := range lines {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func reversed(line []geometry.PointInt) []geometry.PointInt {
	r := make([]geometry.PointInt, len(line))
	for i, p := range line {
		r[len(line)-1-i] = p
	}
	return r
}
