package repair

import (
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// TrimFlicks removes the short hooks skeletonization leaves at the free ends
// of lines. Each dangling end is simplified, then its first vertex is dropped
// while it lies closer than discard to the next one and more than two
// vertices remain.
func TrimFlicks(segs []road.Segment, discard, simplify float64, frame *road.Frame) []road.Segment {
	if discard <= 0 {
		return segs
	}

	trimmed := 0
	for _, e := range road.NewConnectivity(segs, frame).Dangling() {
		s := &segs[e.Segment]
		pts := geometry.Simplify(s.From(e.Polarity), simplify)
		cut := 0
		for len(pts)-cut > 2 && pts[cut].Distance(pts[cut+1]) < discard {
			cut++
		}
		if cut == 0 {
			continue
		}
		pts = pts[cut:]
		if e.Polarity == road.Tail {
			pts = geometry.Reverse(pts)
		}
		s.Points = pts
		trimmed++
	}

	if trimmed > 0 {
		logger.Debug("Trimmed line-end flicks", "ends", trimmed, "discard", discard)
	}
	return road.Prune(segs)
}
