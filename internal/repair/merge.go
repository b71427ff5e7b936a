package repair

import (
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
)

// merger tracks which segment currently owns each dangling end while
// segments are joined end to end. Joined segments leave an empty husk that
// road.Prune removes.
type merger struct {
	segs  []road.Segment
	owner map[geometry.Point2D]int
}

func newMerger(segs []road.Segment, dangling []road.Endpoint) *merger {
	m := &merger{segs: segs, owner: make(map[geometry.Point2D]int, len(dangling))}
	for _, e := range dangling {
		m.owner[segs[e.Segment].End(e.Polarity)] = e.Segment
	}
	return m
}

// locate finds the segment and end currently at coordinate c.
func (m *merger) locate(c geometry.Point2D) (int, road.Polarity, bool) {
	i, ok := m.owner[c]
	if !ok || len(m.segs[i].Points) < 2 {
		return 0, road.Head, false
	}
	switch c {
	case m.segs[i].End(road.Head):
		return i, road.Head, true
	case m.segs[i].End(road.Tail):
		return i, road.Tail, true
	}
	return 0, road.Head, false
}

// join connects the dangling ends at a and b with a straight edge. Two ends
// of one segment close it into a loop.
func (m *merger) join(a, b geometry.Point2D) bool {
	ia, pa, ok := m.locate(a)
	if !ok {
		return false
	}
	ib, pb, ok := m.locate(b)
	if !ok {
		return false
	}

	if ia == ib {
		if pa == pb || len(m.segs[ia].Points) < 3 {
			return false
		}
		pts := m.segs[ia].From(pb)
		m.segs[ia].Points = append(pts, b)
		delete(m.owner, a)
		delete(m.owner, b)
		return true
	}

	merged := append(m.segs[ia].From(pa.Opposite()), m.segs[ib].From(pb)...)
	delete(m.owner, a)
	delete(m.owner, b)
	for _, end := range [2]geometry.Point2D{merged[0], merged[len(merged)-1]} {
		if _, ok := m.owner[end]; ok {
			m.owner[end] = ia
		}
	}
	m.segs[ia].Points = merged
	m.segs[ib].Points = nil
	return true
}

// extend moves the dangling end at c out to p and keeps ownership current.
func (m *merger) extend(c, p geometry.Point2D) (road.Endpoint, bool) {
	i, pol, ok := m.locate(c)
	if !ok {
		return road.Endpoint{}, false
	}
	m.segs[i].Extend(pol, p)
	delete(m.owner, c)
	m.owner[p] = i
	return road.Endpoint{Segment: i, Polarity: pol}, true
}
