package export

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
)

func TestWriteGeoJSON(t *testing.T) {
	detected := road.NewSegment([]geometry.Point2D{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 4}})
	detected.Score = 0.8
	detected.RefID = "way/12"
	detected.Component = 0
	filler := road.NewFiller(geometry.Point2D{X: 5, Y: 4}, geometry.Point2D{X: 9, Y: 4})

	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, []road.Segment{detected, filler, {}}))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	f := fc.Features[0]
	assert.Equal(t, orb.LineString{{1, 2}, {3, 4}, {5, 4}}, f.Geometry)
	assert.InDelta(t, 0.8, f.Properties.MustFloat64("score"), 1e-12)
	assert.Equal(t, "way/12", f.Properties.MustString("ref_id"))
	assert.Equal(t, "detected", f.Properties.MustString("source"))
	assert.Equal(t, 0, f.Properties.MustInt("component"))

	f = fc.Features[1]
	assert.Equal(t, "filler", f.Properties.MustString("source"))
	_, ok := f.Properties["component"]
	assert.False(t, ok)
}
