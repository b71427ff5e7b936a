package road

import (
	"sort"

	"road-tracer/pkg/geometry"
)

// Frame describes the raster a collection was traced from. Endpoints within
// Margin pixels of its border are treated as truncated by the tile edge.
type Frame struct {
	Width  int
	Height int
	Margin float64
}

// Excludes reports whether p lies in the border margin.
func (f *Frame) Excludes(p geometry.Point2D) bool {
	if f == nil {
		return false
	}
	m := f.Margin
	inner := geometry.NewRect(m, m, float64(f.Width)-2*m-1, float64(f.Height)-2*m-1)
	return !inner.Contains(p)
}

// Connectivity maps endpoint coordinates to the segment ends that share them.
// A coordinate with one record is dangling, with two or more it is connected.
// It is a snapshot; rebuild it after mutating the collection.
type Connectivity struct {
	records map[geometry.Point2D][]Endpoint
	order   []geometry.Point2D
}

// NewConnectivity indexes the endpoints of segs. Endpoints excluded by frame
// are left out entirely. frame may be nil.
func NewConnectivity(segs []Segment, frame *Frame) *Connectivity {
	c := &Connectivity{records: make(map[geometry.Point2D][]Endpoint)}
	for i := range segs {
		if len(segs[i].Points) == 0 {
			continue
		}
		for _, pol := range [2]Polarity{Head, Tail} {
			p := segs[i].End(pol)
			if frame.Excludes(p) {
				continue
			}
			if _, ok := c.records[p]; !ok {
				c.order = append(c.order, p)
			}
			c.records[p] = append(c.records[p], Endpoint{Segment: i, Polarity: pol})
		}
	}
	return c
}

// Records returns the segment ends at p.
func (c *Connectivity) Records(p geometry.Point2D) []Endpoint {
	return c.records[p]
}

// Points returns every indexed endpoint coordinate in discovery order.
func (c *Connectivity) Points() []geometry.Point2D {
	return c.order
}

// Unconnected returns the dangling coordinates in discovery order.
func (c *Connectivity) Unconnected() []geometry.Point2D {
	var out []geometry.Point2D
	for _, p := range c.order {
		if len(c.records[p]) == 1 {
			out = append(out, p)
		}
	}
	return out
}

// Connected returns the coordinates shared by two or more segment ends.
func (c *Connectivity) Connected() []geometry.Point2D {
	var out []geometry.Point2D
	for _, p := range c.order {
		if len(c.records[p]) > 1 {
			out = append(out, p)
		}
	}
	return out
}

// Dangling returns the single segment end at each unconnected coordinate,
// ordered by segment then polarity.
func (c *Connectivity) Dangling() []Endpoint {
	var out []Endpoint
	for _, p := range c.order {
		if recs := c.records[p]; len(recs) == 1 {
			out = append(out, recs[0])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Segment != out[j].Segment {
			return out[i].Segment < out[j].Segment
		}
		return out[i].Polarity < out[j].Polarity
	})
	return out
}

// IsUnconnected reports whether p is a dangling endpoint.
func (c *Connectivity) IsUnconnected(p geometry.Point2D) bool {
	return len(c.records[p]) == 1
}

// CountUnconnected returns the number of dangling endpoints.
func (c *Connectivity) CountUnconnected() int {
	n := 0
	for _, recs := range c.records {
		if len(recs) == 1 {
			n++
		}
	}
	return n
}
