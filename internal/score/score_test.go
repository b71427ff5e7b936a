package score

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road-tracer/internal/raster"
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
)

func line(x1, y1, x2, y2 float64) []geometry.Point2D {
	return []geometry.Point2D{{X: x1, Y: y1}, {X: x2, Y: y2}}
}

func TestNewReferenceRejectsMismatch(t *testing.T) {
	_, err := NewReference([][]geometry.Point2D{line(0, 0, 10, 0)}, nil)
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = NewReference([][]geometry.Point2D{line(5, 5, 5, 5)}, []string{"dot"})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestNearestParallel(t *testing.T) {
	ref, err := NewReference(
		[][]geometry.Point2D{line(0, 10, 100, 10), line(50, 0, 50, 100), line(0, 30, 100, 30)},
		[]string{"east", "south", "far"},
	)
	require.NoError(t, err)
	require.Equal(t, 3, ref.Len())

	east := geometry.Point2D{X: 1}
	m, ok := ref.NearestParallel(geometry.Point2D{X: 20, Y: 14}, east, 60, 15)
	require.True(t, ok)
	assert.Equal(t, "east", m.ID)
	assert.InDelta(t, 4.0, m.Distance, 1e-9)

	// direction is undirected
	m, ok = ref.NearestParallel(geometry.Point2D{X: 20, Y: 14}, geometry.Point2D{X: -1}, 60, 15)
	require.True(t, ok)
	assert.Equal(t, "east", m.ID)

	// the perpendicular line is closer but not parallel
	m, ok = ref.NearestParallel(geometry.Point2D{X: 52, Y: 20}, east, 60, 15)
	require.True(t, ok)
	assert.Equal(t, "east", m.ID)

	_, ok = ref.NearestParallel(geometry.Point2D{X: 20, Y: 14}, east, 2, 15)
	assert.False(t, ok)
}

func TestLoadReferenceGeoJSON(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"a1","properties":{},"geometry":{"type":"LineString","coordinates":[[0,0],[10,0]]}},
		{"type":"Feature","properties":{"id":"b2"},"geometry":{"type":"MultiLineString","coordinates":[[[0,5],[10,5]],[[0,9],[10,9]]]}},
		{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,1]}},
		{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[0,20],[10,20]]}}
	]}`
	ref, err := LoadReferenceGeoJSON(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b2", "b2", "3"}, ref.ids)

	_, err = LoadReferenceGeoJSON(strings.NewReader("not json"))
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestParallelSegmentsShareReference(t *testing.T) {
	ref, err := NewReference([][]geometry.Point2D{line(0, 51.5, 120, 51.5)}, []string{"r1"})
	require.NoError(t, err)

	segs := []road.Segment{
		road.NewSegment(line(10, 50, 110, 50)),
		road.NewSegment(line(10, 53, 110, 53)),
	}
	out, err := NewScorer(DefaultParams(), ref, nil).Score(context.Background(), segs)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "r1", out[0].RefID)
	assert.Equal(t, "r1", out[1].RefID)
	assert.InDelta(t, out[0].Score, out[1].Score, 1e-9)
	assert.InDelta(t, 1.0, out[0].Score, 1e-9)
}

func TestScoreWithoutReference(t *testing.T) {
	segs := []road.Segment{road.NewSegment(line(10, 50, 110, 50))}
	out, err := NewScorer(DefaultParams(), nil, nil).Score(context.Background(), segs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].RefID)
	assert.InDelta(t, unmatchedWeight, out[0].Score, 1e-9)
}

func TestShortSegmentGetsDefaultScore(t *testing.T) {
	s := NewScorer(DefaultParams(), nil, nil)
	out := s.ScoreSegment(road.NewSegment(line(0, 0, 15, 0)))
	require.Len(t, out, 1)
	assert.InDelta(t, 0.3, out[0].Score, 1e-12)
}

func TestLoopsScoreLower(t *testing.T) {
	s := NewScorer(DefaultParams(), nil, nil)
	straight := s.ScoreSegment(road.NewSegment(line(0, 0, 120, 0)))[0]
	hook := s.ScoreSegment(road.NewSegment([]geometry.Point2D{
		{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 40, Y: 40}, {X: 0, Y: 40}, {X: 0, Y: 5},
	}))[0]
	assert.Less(t, hook.Score, straight.Score)
	assert.Greater(t, hook.Score, 0.0)
}

// roadEdges draws the two edges of a road centred on y for x in [x1, x2].
func roadEdges(w, h, x1, x2, y, half int) *raster.Binary {
	b := raster.New(w, h)
	for x := x1; x <= x2; x++ {
		b.Set(x, y-half, true)
		b.Set(x, y+half, true)
	}
	return b
}

func TestEdgeTest(t *testing.T) {
	seg := road.NewSegment(line(10, 50, 110, 50))

	wide := NewScorer(DefaultParams(), nil, roadEdges(120, 100, 0, 119, 50, 4))
	assert.InDelta(t, unmatchedWeight, wide.ScoreSegment(seg)[0].Score, 1e-9)

	narrow := NewScorer(DefaultParams(), nil, roadEdges(120, 100, 0, 119, 50, 2))
	assert.Zero(t, narrow.ScoreSegment(seg)[0].Score)

	none := NewScorer(DefaultParams(), nil, raster.New(120, 100))
	assert.Zero(t, none.ScoreSegment(seg)[0].Score)
}

func TestSplitOnEdgeChange(t *testing.T) {
	params := DefaultParams()
	params.SplitOnEdgeChange = true
	s := NewScorer(params, nil, roadEdges(120, 100, 0, 65, 50, 4))

	out := s.ScoreSegment(road.NewSegment(line(10, 50, 110, 50)))
	require.Len(t, out, 2)
	assert.Equal(t, geometry.Point2D{X: 70, Y: 50}, out[0].End(road.Tail))
	assert.Equal(t, geometry.Point2D{X: 70, Y: 50}, out[1].End(road.Head))
	assert.InDelta(t, unmatchedWeight, out[0].Score, 1e-9)
	assert.Zero(t, out[1].Score)
}

func TestScoreHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	segs := []road.Segment{road.NewSegment(line(10, 50, 110, 50))}
	_, err := NewScorer(DefaultParams(), nil, nil).Score(ctx, segs)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreCompletesUnderLiveContext(t *testing.T) {
	var segs []road.Segment
	for i := 0; i < 40; i++ {
		y := float64(10 + 3*i)
		segs = append(segs, road.NewSegment(line(10, y, 110, y)))
	}

	for _, workers := range []int{0, 1, 3} {
		p := DefaultParams()
		p.Workers = workers
		out, err := NewScorer(p, nil, nil).Score(context.Background(), segs)
		require.NoError(t, err, "workers=%d", workers)
		require.Len(t, out, len(segs))
		for i, s := range out {
			assert.Equal(t, segs[i].Points, s.Points)
			assert.InDelta(t, unmatchedWeight, s.Score, 1e-9)
		}
	}
}

func TestScoreDoesNotModifyInput(t *testing.T) {
	segs := []road.Segment{road.NewSegment(line(10, 50, 110, 50))}
	_, err := NewScorer(DefaultParams(), nil, nil).Score(context.Background(), segs)
	require.NoError(t, err)
	assert.Zero(t, segs[0].Score)
}
