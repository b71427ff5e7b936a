package road

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road-tracer/pkg/geometry"
)

func seg(xy ...float64) Segment {
	var pts []geometry.Point2D
	for i := 0; i+1 < len(xy); i += 2 {
		pts = append(pts, geometry.Point2D{X: xy[i], Y: xy[i+1]})
	}
	return NewSegment(pts)
}

func TestPolarity(t *testing.T) {
	assert.Equal(t, Tail, Head.Opposite())
	assert.Equal(t, Head, Tail.Opposite())
	assert.Equal(t, "head", Head.String())
	assert.Equal(t, "3/tail", Endpoint{Segment: 3, Polarity: Tail}.String())
}

func TestSegmentEnds(t *testing.T) {
	s := seg(0, 0, 5, 0)
	assert.Equal(t, geometry.Point2D{X: 5}, s.End(Tail))

	s.Extend(Head, geometry.Point2D{X: -2})
	s.Extend(Tail, geometry.Point2D{X: 5}) // already the end
	assert.Len(t, s.Points, 3)
	assert.Equal(t, geometry.Point2D{X: -2}, s.End(Head))

	s.SetEnd(Tail, geometry.Point2D{X: 6})
	assert.InDelta(t, 8.0, s.Length(), 1e-12)
	assert.Equal(t, geometry.Point2D{X: 6}, s.From(Tail)[0])
}

func TestPruneDropsDegenerate(t *testing.T) {
	segs := []Segment{seg(0, 0, 1, 0), seg(2, 2, 2, 2), seg(3, 3), seg(0, 0, 0, 0, 4, 0)}
	out := Prune(segs)
	require.Len(t, out, 2)
	assert.Len(t, out[1].Points, 2)
}

func TestConnectivityPartitions(t *testing.T) {
	segs := []Segment{
		seg(10, 10, 20, 10),
		seg(20, 10, 30, 10),
		seg(20, 10, 20, 20),
		seg(1, 10, 8, 10),
	}
	c := NewConnectivity(segs, nil)
	assert.Equal(t, []geometry.Point2D{{X: 20, Y: 10}}, c.Connected())
	assert.Len(t, c.Records(geometry.Point2D{X: 20, Y: 10}), 3)
	assert.Equal(t, 5, c.CountUnconnected())

	framed := NewConnectivity(segs, &Frame{Width: 40, Height: 40, Margin: 5})
	assert.Equal(t, 4, framed.CountUnconnected())
	assert.Empty(t, framed.Records(geometry.Point2D{X: 1, Y: 10}))

	dangling := c.Dangling()
	require.Len(t, dangling, 5)
	assert.Equal(t, Endpoint{Segment: 0, Polarity: Head}, dangling[0])
}

func TestFrameExcludes(t *testing.T) {
	f := &Frame{Width: 100, Height: 50, Margin: 5}
	assert.True(t, f.Excludes(geometry.Point2D{X: 4.9, Y: 20}))
	assert.False(t, f.Excludes(geometry.Point2D{X: 5, Y: 20}))
	assert.False(t, f.Excludes(geometry.Point2D{X: 94, Y: 44}))
	assert.True(t, f.Excludes(geometry.Point2D{X: 94.5, Y: 20}))
	assert.True(t, f.Excludes(geometry.Point2D{X: 50, Y: 44.5}))

	edge := &Frame{Width: 10, Height: 10}
	assert.False(t, edge.Excludes(geometry.Point2D{X: 0, Y: 0}))
	assert.False(t, edge.Excludes(geometry.Point2D{X: 9, Y: 9}))
	assert.True(t, edge.Excludes(geometry.Point2D{X: 9.5, Y: 0}))

	var none *Frame
	assert.False(t, none.Excludes(geometry.Point2D{X: -1, Y: -1}))
}

func TestIndexSearch(t *testing.T) {
	segs := []Segment{
		seg(0, 0, 10, 0),
		seg(50, 50, 60, 60),
		seg(5, -5, 5, 5),
	}
	idx := NewSegmentIndex(segs)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []int{0, 2}, idx.Search(geometry.NewRect(4, -1, 2, 2)))
	assert.Equal(t, []int{1}, idx.Near(geometry.Point2D{X: 62, Y: 62}, 3))
	assert.Empty(t, idx.Near(geometry.Point2D{X: 30, Y: 30}, 3))
	assert.Empty(t, NewIndex().Search(geometry.NewRect(0, 0, 1, 1)))
}
