package road

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"road-tracer/pkg/geometry"
)

// minExtent keeps degenerate boxes (points, axis-aligned lines) valid for
// the R-tree, which rejects zero-length sides.
const minExtent = 1e-6

type entry struct {
	id   int
	rect *rtreego.Rect
}

func (e *entry) Bounds() *rtreego.Rect { return e.rect }

// Index is a bounding-box index over integer ids backed by an R-tree.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(2, 25, 50)}
}

// NewSegmentIndex indexes every segment by its position in segs.
func NewSegmentIndex(segs []Segment) *Index {
	idx := NewIndex()
	for i := range segs {
		if len(segs[i].Points) == 0 {
			continue
		}
		idx.Insert(i, segs[i].Bounds())
	}
	return idx
}

func toRtree(r geometry.Rect) *rtreego.Rect {
	w := r.Width
	if w < minExtent {
		w = minExtent
	}
	h := r.Height
	if h < minExtent {
		h = minExtent
	}
	rect, err := rtreego.NewRect(rtreego.Point{r.X, r.Y}, []float64{w, h})
	if err != nil {
		// unreachable with positive lengths
		panic(err)
	}
	return rect
}

// Insert adds id with bounding box r.
func (x *Index) Insert(id int, r geometry.Rect) {
	x.tree.Insert(&entry{id: id, rect: toRtree(r)})
	x.size++
}

// Len returns the number of indexed ids.
func (x *Index) Len() int {
	return x.size
}

// Search returns the ids whose boxes intersect r, in ascending order.
func (x *Index) Search(r geometry.Rect) []int {
	if x.size == 0 {
		return nil
	}
	hits := x.tree.SearchIntersect(toRtree(r))
	ids := make([]int, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.(*entry).id)
	}
	sort.Ints(ids)
	return ids
}

// Near returns the ids whose boxes come within d of p.
func (x *Index) Near(p geometry.Point2D, d float64) []int {
	return x.Search(PointRect(p).Pad(d))
}

// PointRect returns the degenerate box of a single point.
func PointRect(p geometry.Point2D) geometry.Rect {
	return geometry.NewRect(p.X, p.Y, 0, 0)
}
