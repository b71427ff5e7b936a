package overlay

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"road-tracer/internal/raster"
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
)

func TestRender(t *testing.T) {
	sk := raster.New(60, 40)
	sk.Set(5, 35, true)

	accepted := road.NewSegment([]geometry.Point2D{{X: 10, Y: 10}, {X: 50, Y: 10}})
	accepted.Score = 1
	filler := road.NewFiller(geometry.Point2D{X: 10, Y: 20}, geometry.Point2D{X: 50, Y: 20})
	rejected := road.NewSegment([]geometry.Point2D{{X: 10, Y: 30}, {X: 50, Y: 30}})

	img := Render(60, 40, Scene{
		Skeleton: sk,
		Rejected: []road.Segment{rejected},
		Network:  []road.Segment{accepted, filler},
	}, DefaultRenderOptions())

	assert.Equal(t, AcceptedColor, img.RGBAAt(30, 10))
	assert.Equal(t, darken(AcceptedColor, 0.4), img.RGBAAt(30, 12))
	assert.Equal(t, FillerColor, img.RGBAAt(30, 20))
	assert.Equal(t, RejectedColor, img.RGBAAt(30, 30))
	assert.Equal(t, SkeletonColor, img.RGBAAt(5, 35))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(0, 0))
}

func TestShade(t *testing.T) {
	assert.Equal(t, AcceptedColor, shade(AcceptedColor, 1))
	faint := shade(AcceptedColor, 0)
	assert.Greater(t, faint.R, AcceptedColor.R)
}

func TestWritePNG(t *testing.T) {
	img := Render(8, 8, Scene{}, DefaultRenderOptions())
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}
