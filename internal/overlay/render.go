// Package overlay draws diagnostic images of a reconstructed road network
// over its skeleton.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/mitroadmaps/gomapinfer/common"

	"road-tracer/internal/raster"
	"road-tracer/internal/road"
	"road-tracer/pkg/geometry"
)

// Overlay colors.
var (
	SkeletonColor = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	RejectedColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	AcceptedColor = color.RGBA{R: 40, G: 200, B: 60, A: 255}
	FillerColor   = color.RGBA{R: 40, G: 120, B: 240, A: 255}
)

// RenderOptions configures how segments are drawn.
type RenderOptions struct {
	LineWidth    int // width of segment lines in pixels
	OutlineWidth int // additional darker outline around accepted lines
}

// DefaultRenderOptions returns default rendering options.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		LineWidth:    3,
		OutlineWidth: 1,
	}
}

// Scene is everything one overlay shows.
type Scene struct {
	Skeleton *raster.Binary
	Rejected []road.Segment
	Network  []road.Segment
}

// Render produces an RGBA image of the scene. The skeleton is drawn first,
// then rejected candidates, then the network: detected segments shaded by
// score and fillers on top.
func Render(width, height int, scene Scene, opts RenderOptions) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	if sk := scene.Skeleton; sk != nil {
		for y := 0; y < min(height, sk.Height); y++ {
			for x := 0; x < min(width, sk.Width); x++ {
				if sk.At(x, y) {
					img.SetRGBA(x, y, SkeletonColor)
				}
			}
		}
	}

	for i := range scene.Rejected {
		drawPath(img, scene.Rejected[i].Points, max(1, opts.LineWidth-1), RejectedColor)
	}

	for i := range scene.Network {
		s := &scene.Network[i]
		if s.Source == road.SourceFiller {
			continue
		}
		c := shade(AcceptedColor, s.Score)
		if opts.OutlineWidth > 0 {
			drawPath(img, s.Points, opts.LineWidth+opts.OutlineWidth*2, darken(c, 0.4))
		}
		drawPath(img, s.Points, opts.LineWidth, c)
	}
	for i := range scene.Network {
		if s := &scene.Network[i]; s.Source == road.SourceFiller {
			drawPath(img, s.Points, opts.LineWidth, FillerColor)
		}
	}

	return img
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return nil
}

func drawPath(img *image.RGBA, points []geometry.Point2D, thickness int, c color.RGBA) {
	for i := 0; i < len(points)-1; i++ {
		drawThickLine(img, points[i].X, points[i].Y, points[i+1].X, points[i+1].Y, thickness, c)
	}
}

// drawThickLine draws a line with given thickness as parallel one-pixel lines.
func drawThickLine(img *image.RGBA, x1, y1, x2, y2 float64, thickness int, c color.RGBA) {
	dx := x2 - x1
	dy := y2 - y1
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		return
	}

	// Perpendicular unit vector
	px := -dy / length
	py := dx / length

	halfThick := float64(thickness-1) / 2
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for t := -halfThick; t <= halfThick; t += 1.0 {
		sx, sy := int(math.Round(x1+px*t)), int(math.Round(y1+py*t))
		ex, ey := int(math.Round(x2+px*t)), int(math.Round(y2+py*t))
		for _, p := range common.DrawLineOnCells(sx, sy, ex, ey, w, h) {
			img.SetRGBA(p[0], p[1], c)
		}
	}
}

// shade blends c toward white as score falls, so weak segments look faint.
func shade(c color.RGBA, score float64) color.RGBA {
	f := math.Max(0.25, math.Min(score, 1))
	mix := func(v uint8) uint8 { return uint8(255 - (255-float64(v))*f) }
	return color.RGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: c.A}
}

// darken reduces the brightness of a color.
func darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * (1 - factor)),
		G: uint8(float64(c.G) * (1 - factor)),
		B: uint8(float64(c.B) * (1 - factor)),
		A: c.A,
	}
}
