// Package group assembles scored segments into connected components and
// decides which components are strong enough to keep.
package group

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// touchTol is how close two geometries must come to count as touching.
const touchTol = 1e-6

// Component is a maximal set of touching segments.
type Component struct {
	Members []int // indices into the segment collection, ascending
	Length  float64
	Gravity float64
}

// Build links every segment scoring at least minScore to the segments it
// touches and returns the connected components, ordered by their lowest
// member. A segment touching nothing is a component of its own.
func Build(segs []road.Segment, minScore float64) []Component {
	g := simple.NewUndirectedGraph()
	idx := road.NewIndex()
	for i := range segs {
		if segs[i].Score < minScore || len(segs[i].Points) < 2 {
			continue
		}
		g.AddNode(simple.Node(i))
		idx.Insert(i, segs[i].Bounds().Pad(touchTol))
	}

	edges := 0
	nodes := g.Nodes()
	for nodes.Next() {
		i := int(nodes.Node().ID())
		for _, j := range idx.Search(segs[i].Bounds().Pad(touchTol)) {
			if j <= i {
				continue
			}
			if touches(segs[i].Points, segs[j].Points) {
				g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
				edges++
			}
		}
	}

	var comps []Component
	for _, cc := range topo.ConnectedComponents(g) {
		c := Component{Members: make([]int, 0, len(cc))}
		for _, n := range cc {
			i := int(n.ID())
			c.Members = append(c.Members, i)
			c.Length += segs[i].Length()
		}
		sort.Ints(c.Members)
		comps = append(comps, c)
	}
	sort.Slice(comps, func(a, b int) bool { return comps[a].Members[0] < comps[b].Members[0] })

	logger.Debug("Grouped segments", "segments", g.Nodes().Len(), "links", edges, "components", len(comps))
	return comps
}

// touches reports whether two polylines share at least one point.
func touches(a, b []geometry.Point2D) bool {
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			if _, ok := geometry.SegmentIntersection(a[i-1], a[i], b[j-1], b[j]); ok {
				return true
			}
		}
	}
	return false
}

// Gravity scores every component: the sum of length times score over its
// members, scaled down when the sum of squared member lengths falls short of
// the largest possible, which is one longest segment per component.
func Gravity(segs []road.Segment, comps []Component) {
	var maxLen float64
	for _, c := range comps {
		for _, i := range c.Members {
			maxLen = math.Max(maxLen, segs[i].Length())
		}
	}
	maxSq := float64(len(comps)) * maxLen * maxLen
	if maxSq == 0 {
		for i := range comps {
			comps[i].Gravity = 0
		}
		return
	}

	for ci := range comps {
		var weighted, sq float64
		for _, i := range comps[ci].Members {
			l := segs[i].Length()
			weighted += l * segs[i].Score
			sq += l * l
		}
		comps[ci].Gravity = weighted * math.Min(sq/maxSq, 1)
	}
}

// Retain keeps components whose gravity reaches threshold and tags their
// members with the component number. The returned collection holds the
// retained segments in component order.
func Retain(segs []road.Segment, comps []Component, threshold float64) []road.Segment {
	var out []road.Segment
	kept := 0
	for _, c := range comps {
		if c.Gravity < threshold {
			continue
		}
		for _, i := range c.Members {
			s := segs[i].Clone()
			s.Component = kept
			out = append(out, s)
		}
		kept++
	}
	logger.Info("Retained components", "components", kept, "of", len(comps), "segments", len(out), "threshold", threshold)
	return out
}
