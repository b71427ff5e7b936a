// Package fill bridges small gaps between the dangling ends of a retained
// road network.
package fill

import (
	"math"
	"sort"

	"github.com/mitroadmaps/gomapinfer/common"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
	"road-tracer/pkg/logger"
)

// detourFactor scales gapClose to the network distance above which two
// nearby ends count as disconnected.
const detourFactor = 3

// network is the endpoint graph of a segment collection: one node per
// distinct end coordinate, one edge per segment weighted by its length.
type network struct {
	g     *simple.WeightedUndirectedGraph
	nodes map[geometry.Point2D]int64
	order []geometry.Point2D
	ends  map[geometry.Point2D]int
}

func newNetwork(segs []road.Segment) *network {
	n := &network{
		g:     simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		nodes: make(map[geometry.Point2D]int64),
		ends:  make(map[geometry.Point2D]int),
	}
	for i := range segs {
		if len(segs[i].Points) < 2 {
			continue
		}
		a, b := segs[i].End(road.Head), segs[i].End(road.Tail)
		n.ends[a]++
		n.ends[b]++
		n.link(a, b, segs[i].Length())
	}
	return n
}

func (n *network) node(p geometry.Point2D) simple.Node {
	id, ok := n.nodes[p]
	if !ok {
		id = int64(len(n.order))
		n.nodes[p] = id
		n.order = append(n.order, p)
		n.g.AddNode(simple.Node(id))
	}
	return simple.Node(id)
}

// link adds an edge between a and b, keeping the shorter of parallel edges.
func (n *network) link(a, b geometry.Point2D, w float64) {
	u, v := n.node(a), n.node(b)
	if u == v {
		return
	}
	if cur, ok := n.g.Weight(u.ID(), v.ID()); ok && cur <= w {
		return
	}
	n.g.SetWeightedEdge(n.g.NewWeightedEdge(u, v, w))
}

// distance is the shortest network distance between a and b.
func (n *network) distance(a, b geometry.Point2D) float64 {
	return path.DijkstraFrom(simple.Node(n.nodes[a]), n.g).WeightTo(n.nodes[b])
}

// dangling lists the end coordinates used by exactly one segment end, in
// the order they were first seen.
func (n *network) dangling() []geometry.Point2D {
	var out []geometry.Point2D
	for _, p := range n.order {
		if n.ends[p] == 1 {
			out = append(out, p)
		}
	}
	return out
}

// Fill adds a filler segment between every pair of dangling ends at most
// gapClose apart unless the network already links them within
// detourFactor*gapClose. Each pair is considered once, and every filler is
// added to the network before the next pair is tested. The retained
// segments come first in the result, followed by the fillers.
func Fill(segs []road.Segment, gapClose float64) []road.Segment {
	if gapClose <= 0 {
		return segs
	}

	net := newNetwork(segs)
	ends := net.dangling()
	idx := common.NewGridIndex(gapClose)
	for i, p := range ends {
		idx.Insert(i, common.Point{X: p.X, Y: p.Y}.Bounds())
	}

	out := append([]road.Segment(nil), segs...)
	skipped := 0
	for i, a := range ends {
		cands := idx.Search(common.Point{X: a.X, Y: a.Y}.Bounds().AddTol(gapClose))
		sort.Ints(cands)
		last := -1
		for _, j := range cands {
			if j <= i || j == last {
				continue
			}
			last = j
			b := ends[j]
			gap := a.Distance(b)
			if gap > gapClose {
				continue
			}
			if net.distance(a, b) < detourFactor*gapClose {
				skipped++
				continue
			}
			out = append(out, road.NewFiller(a, b))
			net.link(a, b, gap)
		}
	}

	logger.Info("Filled network gaps",
		"dangling", len(ends),
		"fillers", len(out)-len(segs),
		"already_linked", skipped)
	return out
}
