package fill

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
)

func seg(x1, y1, x2, y2 float64) road.Segment {
	return road.NewSegment([]geometry.Point2D{{X: x1, Y: y1}, {X: x2, Y: y2}})
}

func fillers(segs []road.Segment) []road.Segment {
	var out []road.Segment
	for _, s := range segs {
		if s.Source == road.SourceFiller {
			out = append(out, s)
		}
	}
	return out
}

func TestFillBridgesGap(t *testing.T) {
	segs := []road.Segment{
		seg(0, 0, 100, 0),
		seg(108, 0, 200, 0),
	}
	out := Fill(segs, 20)
	require.Len(t, out, 3)

	f := fillers(out)
	require.Len(t, f, 1)
	assert.Equal(t, []geometry.Point2D{{X: 100}, {X: 108}}, f[0].Points)
	assert.Equal(t, "filler", f[0].Source.String())
}

func TestFillSkipsShortDetour(t *testing.T) {
	// both ends of an L are within reach and already linked through it
	segs := []road.Segment{
		seg(0, 0, 10, 0),
		seg(10, 0, 10, 10),
	}
	out := Fill(segs, 20)
	assert.Empty(t, fillers(out))
}

func TestFillAddsEachPairOnce(t *testing.T) {
	segs := []road.Segment{
		seg(0, 0, 100, 0),
		seg(105, 0, 200, 0),
		seg(102, 4, 102, 100),
	}
	out := Fill(segs, 20)

	// (100,0) is bridged to both other ends; the last pair is then linked
	// through those two fillers and skipped
	f := fillers(out)
	require.Len(t, f, 2)
	assert.InDelta(t, 5.0, f[0].Length(), 1e-9)
	assert.InDelta(t, math.Sqrt(20), f[1].Length(), 1e-9)
}

func TestFillZeroIsNoOp(t *testing.T) {
	segs := []road.Segment{seg(0, 0, 100, 0), seg(101, 0, 200, 0)}
	assert.Len(t, Fill(segs, 0), 2)
}

func TestFillerLengthBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var segs []road.Segment
	for i := 0; i < 60; i++ {
		x, y := rng.Float64()*500, rng.Float64()*500
		segs = append(segs, seg(x, y, x+rng.Float64()*80-40, y+rng.Float64()*80-40))
	}
	const gapClose = 25.0
	out := Fill(segs, gapClose)
	require.GreaterOrEqual(t, len(out), len(segs))
	for _, f := range fillers(out) {
		assert.LessOrEqual(t, f.Length(), gapClose)
	}
}
