package repair

import (
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// SnapEndpoints moves dangling endpoints that lie within tolerance of each
// other onto one shared coordinate. The first dangling endpoint found is the
// representative of its cluster; later endpoints of other segments within
// tolerance of it are rewritten to coincide with it exactly. No geometry is
// added, and a second pass with the same tolerance changes nothing.
func SnapEndpoints(segs []road.Segment, tolerance float64, frame *road.Frame) []road.Segment {
	if tolerance <= 0 {
		return segs
	}

	conn := road.NewConnectivity(segs, frame)
	dangling := conn.Unconnected()
	visited := make(map[geometry.Point2D]bool, len(dangling))
	moved := 0

	for i, rep := range dangling {
		if visited[rep] {
			continue
		}
		visited[rep] = true
		members := map[int]bool{conn.Records(rep)[0].Segment: true}

		for _, other := range dangling[i+1:] {
			if visited[other] || rep.Distance(other) > tolerance {
				continue
			}
			e := conn.Records(other)[0]
			if members[e.Segment] {
				continue
			}
			members[e.Segment] = true
			visited[other] = true
			segs[e.Segment].SetEnd(e.Polarity, rep)
			moved++
		}
	}

	if moved > 0 {
		logger.Debug("Snapped endpoints", "moved", moved, "tolerance", tolerance)
	}
	return road.Prune(segs)
}
