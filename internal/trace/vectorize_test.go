package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road-tracer/internal/raster"
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
)

func hline(b *raster.Binary, y, x0, x1 int) {
	for x := x0; x <= x1; x++ {
		b.Set(x, y, true)
	}
}

func vline(b *raster.Binary, x, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		b.Set(x, y, true)
	}
}

func hasEnd(s road.Segment, p geometry.Point2D) bool {
	return s.End(road.Head) == p || s.End(road.Tail) == p
}

func TestVectorizePlusSplitsAtCentre(t *testing.T) {
	b := raster.New(21, 21)
	hline(b, 10, 3, 17)
	vline(b, 10, 3, 17)

	segs := Vectorize(b, DefaultVectorizeOptions())
	require.Len(t, segs, 4)

	centre := geometry.Point2D{X: 10, Y: 10}
	for i, s := range segs {
		assert.True(t, hasEnd(s, centre), "segment %d does not end at the centre: %v", i, s.Points)
		assert.InDelta(t, 7.0, s.Length(), 1e-9)
	}
}

func TestVectorizeLineWithGap(t *testing.T) {
	b := raster.New(120, 20)
	hline(b, 10, 10, 59)
	hline(b, 10, 65, 109)

	segs := Vectorize(b, DefaultVectorizeOptions())
	require.Len(t, segs, 2)

	var total float64
	for _, s := range segs {
		assert.Len(t, s.Points, 2)
		total += s.Length()
	}
	assert.InDelta(t, 49.0+44.0, total, 1e-9)
}

func TestVectorizeTee(t *testing.T) {
	b := raster.New(30, 30)
	hline(b, 5, 5, 25)
	vline(b, 15, 6, 20)

	segs := Vectorize(b, DefaultVectorizeOptions())
	require.Len(t, segs, 3)
	c := road.NewConnectivity(segs, nil)
	assert.Equal(t, []geometry.Point2D{{X: 15, Y: 5}}, c.Connected())
	assert.Equal(t, 3, c.CountUnconnected())
}

func TestVectorizeRingIsClosed(t *testing.T) {
	b := raster.New(30, 30)
	hline(b, 5, 5, 15)
	hline(b, 15, 5, 15)
	vline(b, 5, 5, 15)
	vline(b, 15, 5, 15)

	segs := Vectorize(b, DefaultVectorizeOptions())
	require.Len(t, segs, 1)
	assert.True(t, segs[0].Closed())
	assert.InDelta(t, 40.0, segs[0].Length(), 1e-9)
}

func TestVectorizeRingOnStemSplitsAtJunction(t *testing.T) {
	b := raster.New(40, 30)
	hline(b, 5, 5, 15)
	hline(b, 15, 5, 15)
	vline(b, 5, 5, 15)
	vline(b, 15, 5, 15)
	hline(b, 10, 16, 30)

	segs := Vectorize(b, DefaultVectorizeOptions())
	require.Len(t, segs, 2)

	junction := geometry.Point2D{X: 15, Y: 10}
	var ring, stem road.Segment
	for _, s := range segs {
		assert.False(t, hasEnd(s, geometry.Point2D{X: 5, Y: 5}), "split at trace start: %v", s.Points)
		if s.Closed() {
			ring = s
		} else {
			stem = s
		}
	}
	require.NotEmpty(t, ring.Points)
	assert.Equal(t, junction, ring.End(road.Head))
	assert.InDelta(t, 40.0, ring.Length(), 1e-9)
	assert.True(t, hasEnd(stem, junction))
	assert.True(t, hasEnd(stem, geometry.Point2D{X: 30, Y: 10}))
	assert.Len(t, road.NewConnectivity(segs, nil).Records(junction), 3)
}

func TestVectorizeArchIsOneLine(t *testing.T) {
	b := raster.New(30, 30)
	hline(b, 5, 5, 20)
	vline(b, 5, 6, 15)
	vline(b, 20, 6, 15)

	segs := Vectorize(b, DefaultVectorizeOptions())
	require.Len(t, segs, 1)
	assert.True(t, hasEnd(segs[0], geometry.Point2D{X: 5, Y: 15}))
	assert.True(t, hasEnd(segs[0], geometry.Point2D{X: 20, Y: 15}))
	assert.InDelta(t, 35.0, segs[0].Length(), 1e-9)
}

func TestVectorizeDropsSpecks(t *testing.T) {
	b := raster.New(20, 20)
	b.Set(3, 3, true)
	b.Set(10, 10, true)
	b.Set(11, 10, true)

	segs := Vectorize(b, DefaultVectorizeOptions())
	require.Len(t, segs, 1)
	assert.InDelta(t, 1.0, segs[0].Length(), 1e-12)

	opts := DefaultVectorizeOptions()
	opts.DiscardMaxPoints = 2
	assert.Empty(t, Vectorize(b, opts))
}

func TestVectorizeDiscardLength(t *testing.T) {
	b := raster.New(60, 20)
	hline(b, 5, 5, 9)
	hline(b, 12, 5, 45)

	opts := DefaultVectorizeOptions()
	opts.DiscardLength = 10
	segs := Vectorize(b, opts)
	require.Len(t, segs, 1)
	assert.InDelta(t, 40.0, segs[0].Length(), 1e-9)
}

func TestVectorizeHasNoSharedState(t *testing.T) {
	b := raster.New(21, 21)
	hline(b, 10, 3, 17)
	vline(b, 10, 3, 17)

	first := Vectorize(b, DefaultVectorizeOptions())
	second := Vectorize(b, DefaultVectorizeOptions())
	assert.Equal(t, first, second)
}

func TestVectorizeEmpty(t *testing.T) {
	assert.Empty(t, Vectorize(nil, DefaultVectorizeOptions()))
	assert.Empty(t, Vectorize(raster.New(10, 10), DefaultVectorizeOptions()))
}
