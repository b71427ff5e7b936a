package repair

import (
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// JoinEndpoints merges pairs of segments whose dangling ends lie within
// tolerance of each other into single polylines bridged by a straight edge.
// Each dangling end is paired with the nearest free end of another segment.
func JoinEndpoints(segs []road.Segment, tolerance float64, frame *road.Frame) []road.Segment {
	if tolerance <= 0 {
		return segs
	}

	conn := road.NewConnectivity(segs, frame)
	dangling := conn.Dangling()
	coords := make([]geometry.Point2D, len(dangling))
	idx := road.NewIndex()
	for i, e := range dangling {
		coords[i] = segs[e.Segment].End(e.Polarity)
		idx.Insert(i, road.PointRect(coords[i]))
	}

	m := newMerger(segs, dangling)
	used := make([]bool, len(dangling))
	joined := 0
	for i, e := range dangling {
		if used[i] {
			continue
		}
		p := coords[i]
		best, bestD := -1, tolerance
		for _, j := range idx.Near(p, tolerance) {
			if j == i || used[j] || dangling[j].Segment == e.Segment {
				continue
			}
			if d := p.Distance(coords[j]); d <= bestD {
				best, bestD = j, d
			}
		}
		if best < 0 {
			continue
		}
		if m.join(p, coords[best]) {
			used[i], used[best] = true, true
			joined++
		}
	}

	if joined > 0 {
		logger.Debug("Joined nearby dangling ends", "pairs", joined, "tolerance", tolerance)
	}
	return road.Prune(m.segs)
}
