package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// Eps is the coordinate tolerance used for equality tests on computed points.
const Eps = 1e-9

// PathLength returns the total length of a polyline.
func PathLength(path []Point2D) float64 {
	var length float64
	for i := 1; i < len(path); i++ {
		length += path[i-1].Distance(path[i])
	}
	return length
}

// Interpolate returns the point at distance d along the path.
// d is clamped to [0, length].
func Interpolate(path []Point2D, d float64) Point2D {
	if len(path) == 0 {
		return Point2D{}
	}
	if d <= 0 {
		return path[0]
	}
	var walked float64
	for i := 1; i < len(path); i++ {
		seg := path[i-1].Distance(path[i])
		if walked+seg >= d {
			if seg == 0 {
				return path[i]
			}
			t := (d - walked) / seg
			return path[i-1].Add(path[i].Sub(path[i-1]).Scale(t))
		}
		walked += seg
	}
	return path[len(path)-1]
}

// closestOnSegment returns the closest point to p on segment a-b and its
// parameter t in [0, 1].
func closestOnSegment(p, a, b Point2D) (Point2D, float64) {
	d := b.Sub(a)
	den := d.Dot(d)
	if den == 0 {
		return a, 0
	}
	t := p.Sub(a).Dot(d) / den
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(d.Scale(t)), t
}

// PointToSegmentDistance calculates minimum distance from point to line segment.
func PointToSegmentDistance(p, a, b Point2D) float64 {
	c, _ := closestOnSegment(p, a, b)
	return p.Distance(c)
}

// ClosestPoint returns the point on the path nearest to p, together with
// its distance along the path and its distance from p.
func ClosestPoint(path []Point2D, p Point2D) (pt Point2D, along, dist float64) {
	if len(path) == 0 {
		return Point2D{}, 0, math.Inf(1)
	}
	if len(path) == 1 {
		return path[0], 0, p.Distance(path[0])
	}
	dist = math.Inf(1)
	var walked float64
	for i := 1; i < len(path); i++ {
		seg := path[i-1].Distance(path[i])
		c, t := closestOnSegment(p, path[i-1], path[i])
		if d := p.Distance(c); d < dist {
			dist = d
			pt = c
			along = walked + t*seg
		}
		walked += seg
	}
	return pt, along, dist
}

// Project returns the distance along the path of the point nearest to p.
func Project(path []Point2D, p Point2D) float64 {
	_, along, _ := ClosestPoint(path, p)
	return along
}

// DistanceToPath returns the minimum distance from p to the path.
func DistanceToPath(path []Point2D, p Point2D) float64 {
	_, _, dist := ClosestPoint(path, p)
	return dist
}

// Cut splits the path at distance d from its start. Both parts share the
// join point. ok is false when d is not strictly inside the path.
func Cut(path []Point2D, d float64) (head, tail []Point2D, ok bool) {
	length := PathLength(path)
	if len(path) < 2 || d <= 0 || d >= length {
		return nil, nil, false
	}
	var walked float64
	for i := 1; i < len(path); i++ {
		seg := path[i-1].Distance(path[i])
		end := walked + seg
		switch {
		case d == end:
			head = append([]Point2D(nil), path[:i+1]...)
			tail = append([]Point2D(nil), path[i:]...)
			return head, tail, true
		case d < end:
			cp := path[i-1].Add(path[i].Sub(path[i-1]).Scale((d - walked) / seg))
			head = append(append([]Point2D(nil), path[:i]...), cp)
			tail = append([]Point2D{cp}, path[i:]...)
			return head, tail, true
		}
		walked = end
	}
	return nil, nil, false
}

// SplitAt cuts the path at every distance in ds and returns the parts in
// path order. Distances outside (0, length) are ignored. Cuts are applied
// from the far end so that every distance is measured on the original
// prefix.
func SplitAt(path []Point2D, ds []float64) [][]Point2D {
	sorted := append([]float64(nil), ds...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	rest := path
	var tails [][]Point2D
	last := math.Inf(1)
	for _, d := range sorted {
		if last-d < Eps {
			continue
		}
		head, tail, ok := Cut(rest, d)
		if !ok {
			continue
		}
		tails = append(tails, tail)
		rest = head
		last = d
	}

	parts := make([][]Point2D, 0, len(tails)+1)
	parts = append(parts, append([]Point2D(nil), rest...))
	for i := len(tails) - 1; i >= 0; i-- {
		parts = append(parts, tails[i])
	}
	return parts
}

// UnitVector returns the normalised direction from a to b.
func UnitVector(a, b Point2D) (Point2D, bool) {
	d := b.Sub(a)
	n := d.Norm()
	if n == 0 {
		return Point2D{}, false
	}
	return d.Scale(1 / n), true
}

// Reverse returns a reversed copy of the path.
func Reverse(path []Point2D) []Point2D {
	out := make([]Point2D, len(path))
	for i, p := range path {
		out[len(path)-1-i] = p
	}
	return out
}

// SegmentIntersection returns the intersection point of segments p1-p2 and
// q1-q2. Collinear overlaps report the overlap point closest to p1.
func SegmentIntersection(p1, p2, q1, q2 Point2D) (Point2D, bool) {
	r := p2.Sub(p1)
	s := q2.Sub(q1)
	denom := r.X*s.Y - r.Y*s.X
	qp := q1.Sub(p1)

	if math.Abs(denom) < Eps {
		if math.Abs(qp.X*r.Y-qp.Y*r.X) > Eps {
			return Point2D{}, false
		}
		// collinear: choose the covered point nearest p1
		best, found := Point2D{}, false
		bestD := math.Inf(1)
		for _, c := range []Point2D{p1, p2, q1, q2} {
			if PointToSegmentDistance(c, p1, p2) < Eps && PointToSegmentDistance(c, q1, q2) < Eps {
				if d := c.Distance(p1); d < bestD {
					best, bestD, found = c, d, true
				}
			}
		}
		return best, found
	}

	t := (qp.X*s.Y - qp.Y*s.X) / denom
	u := (qp.X*r.Y - qp.Y*r.X) / denom
	if t < -Eps || t > 1+Eps || u < -Eps || u > 1+Eps {
		return Point2D{}, false
	}
	return p1.Add(r.Scale(t)), true
}

// PathIntersections returns every point where segment a-b crosses the path.
func PathIntersections(path []Point2D, a, b Point2D) []Point2D {
	var out []Point2D
	for i := 1; i < len(path); i++ {
		if p, ok := SegmentIntersection(a, b, path[i-1], path[i]); ok {
			out = append(out, p)
		}
	}
	return out
}

// Simplify reduces the number of vertices using the Douglas-Peucker algorithm.
// Endpoints are always preserved.
func Simplify(path []Point2D, epsilon float64) []Point2D {
	if len(path) <= 2 || epsilon <= 0 {
		return append([]Point2D(nil), path...)
	}
	ls := ToLineString(path)
	simplified, ok := simplify.DouglasPeucker(epsilon).Simplify(ls.Clone()).(orb.LineString)
	if !ok || len(simplified) < 2 {
		return []Point2D{path[0], path[len(path)-1]}
	}
	return FromLineString(simplified)
}

// PathBounds calculates the bounding box for a path.
func PathBounds(path []Point2D) Rect {
	return BoundingBox(path)
}

// ToLineString converts a path to an orb line string.
func ToLineString(path []Point2D) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, p := range path {
		ls[i] = orb.Point{p.X, p.Y}
	}
	return ls
}

// FromLineString converts an orb line string to a path.
func FromLineString(ls orb.LineString) []Point2D {
	path := make([]Point2D, len(ls))
	for i, p := range ls {
		path[i] = Point2D{X: p[0], Y: p[1]}
	}
	return path
}
