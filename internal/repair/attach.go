package repair

import (
	"math"
	"sort"

	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// endSnap is the distance from a line end within which a split request
// attaches to the end instead of cutting off a sliver.
const endSnap = 1e-6

// SplitRequest asks for Target to be split where it passes closest to Point,
// and for the Requester end to be moved onto the resulting join.
type SplitRequest struct {
	Target    int
	Point     geometry.Point2D
	Requester road.Endpoint
}

// AttachToNearestLine extends each dangling end to the nearest other line.
// The end's outward ray of length tolerance is tested against every nearby
// line; the closest crossing wins, otherwise the closest point of any line
// within tolerance. The line that is reached is split there.
func AttachToNearestLine(segs []road.Segment, tolerance, tangentSimplify float64, frame *road.Frame) []road.Segment {
	if tolerance <= 0 {
		return segs
	}

	idx := road.NewSegmentIndex(segs)
	var reqs []SplitRequest
	for _, e := range road.NewConnectivity(segs, frame).Dangling() {
		pts := geometry.Simplify(segs[e.Segment].From(e.Polarity), tangentSimplify)
		c0 := pts[0]
		dir, ok := geometry.UnitVector(pts[0], pts[1])
		if !ok {
			continue
		}
		far := c0.Sub(dir.Scale(tolerance))

		var cands []int
		for _, j := range idx.Near(c0, tolerance) {
			if j != e.Segment && len(segs[j].Points) >= 2 {
				cands = append(cands, j)
			}
		}

		target, at, dist := -1, geometry.Point2D{}, math.Inf(1)
		for _, j := range cands {
			for _, x := range geometry.PathIntersections(segs[j].Points, far, c0) {
				if d := c0.Distance(x); d < dist {
					target, at, dist = j, x, d
				}
			}
		}
		if target < 0 {
			for _, j := range cands {
				if x, _, d := geometry.ClosestPoint(segs[j].Points, c0); d < dist {
					target, at, dist = j, x, d
				}
			}
		}
		if target < 0 || dist > tolerance {
			logger.Debug("No line within reach of dangling end", "end", e, "tolerance", tolerance)
			continue
		}

		segs[e.Segment].Extend(e.Polarity, at)
		reqs = append(reqs, SplitRequest{Target: target, Point: at, Requester: e})
	}

	logger.Debug("Attached dangling ends to nearest lines", "attached", len(reqs))
	return ApplySplits(segs, reqs)
}

// ApplySplits cuts every requested target at the projections of its request
// points, replaces it by its parts and moves each requesting end onto its
// exact join. Parts are appended after the untouched segments. Projections
// that fall on a target's end attach the requester to that end without a cut.
func ApplySplits(segs []road.Segment, reqs []SplitRequest) []road.Segment {
	if len(reqs) == 0 {
		return road.Prune(segs)
	}

	byTarget := make(map[int][]int)
	for i, r := range reqs {
		byTarget[r.Target] = append(byTarget[r.Target], i)
	}
	targets := make([]int, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}
	sort.Ints(targets)

	joins := make([]geometry.Point2D, len(reqs))
	parts := make(map[int][][]geometry.Point2D, len(targets))
	for _, t := range targets {
		pts := segs[t].Points
		length := geometry.PathLength(pts)
		ds := make([]float64, 0, len(byTarget[t]))
		for _, ri := range byTarget[t] {
			d := geometry.Project(pts, reqs[ri].Point)
			switch {
			case d <= endSnap:
				joins[ri] = pts[0]
			case d >= length-endSnap:
				joins[ri] = pts[len(pts)-1]
			default:
				ds = append(ds, d)
				joins[ri] = geometry.Interpolate(pts, d)
			}
		}
		split := geometry.SplitAt(pts, ds)
		if len(split) > 1 {
			parts[t] = split
			snapJoins(joins, byTarget[t], split)
		}
	}

	// lay out the new collection: untouched segments keep their order
	first := make([]int, len(segs))
	last := make([]int, len(segs))
	out := make([]road.Segment, 0, len(segs)+len(reqs))
	for i := range segs {
		if _, ok := parts[i]; ok {
			continue
		}
		first[i], last[i] = len(out), len(out)
		out = append(out, segs[i])
	}
	for _, t := range targets {
		split, ok := parts[t]
		if !ok {
			continue
		}
		first[t] = len(out)
		for _, p := range split {
			part := segs[t]
			part.Points = p
			out = append(out, part)
		}
		last[t] = len(out) - 1
	}

	for i, r := range reqs {
		e := r.Requester
		at := first[e.Segment]
		if e.Polarity == road.Tail {
			at = last[e.Segment]
		}
		if len(out[at].Points) > 0 {
			out[at].SetEnd(e.Polarity, joins[i])
		}
	}

	logger.Debug("Applied line splits", "requests", len(reqs), "split", len(parts))
	return road.Prune(out)
}

// snapJoins replaces interpolated joins by the exact boundary coordinates
// produced by the split.
func snapJoins(joins []geometry.Point2D, reqIdx []int, split [][]geometry.Point2D) {
	bounds := make([]geometry.Point2D, 0, len(split)-1)
	for _, p := range split[:len(split)-1] {
		bounds = append(bounds, p[len(p)-1])
	}
	for _, ri := range reqIdx {
		best, bestD := joins[ri], math.Inf(1)
		for _, b := range bounds {
			if d := b.Distance(joins[ri]); d < bestD {
				best, bestD = b, d
			}
		}
		if bestD < 1e-6 {
			joins[ri] = best
		}
	}
}
