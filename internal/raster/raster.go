// Package raster provides the dense binary and label rasters the tracer
// works on, line drawing and image file decoding.
package raster

import (
	"github.com/mitroadmaps/gomapinfer/common"

	"road-tracer/pkg/geometry"
)

// Binary is a single-channel boolean raster stored row-major.
// Out-of-bounds reads return false and out-of-bounds writes are ignored.
type Binary struct {
	Width  int
	Height int
	Pix    []uint8
}

// New creates an empty binary raster.
func New(width, height int) *Binary {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Binary{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// In reports whether (x, y) lies inside the raster.
func (b *Binary) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// At returns the pixel value at (x, y).
func (b *Binary) At(x, y int) bool {
	if !b.In(x, y) {
		return false
	}
	return b.Pix[y*b.Width+x] != 0
}

// Set writes the pixel value at (x, y).
func (b *Binary) Set(x, y int, v bool) {
	if !b.In(x, y) {
		return
	}
	if v {
		b.Pix[y*b.Width+x] = 1
	} else {
		b.Pix[y*b.Width+x] = 0
	}
}

// Count returns the number of foreground pixels.
func (b *Binary) Count() int {
	n := 0
	for _, v := range b.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (b *Binary) Clone() *Binary {
	c := &Binary{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(c.Pix, b.Pix)
	return c
}

// DrawLine sets every pixel on the 8-connected line from p0 to p1.
func (b *Binary) DrawLine(p0, p1 geometry.PointInt) {
	for _, c := range common.DrawLineOnCells(p0.X, p0.Y, p1.X, p1.Y, b.Width, b.Height) {
		b.Pix[c[1]*b.Width+c[0]] = 1
	}
}

// DrawPath draws a polyline, rounding vertices to pixel centres.
func (b *Binary) DrawPath(path []geometry.Point2D) {
	if len(path) == 1 {
		p := path[0].Round()
		b.Set(p.X, p.Y, true)
		return
	}
	for i := 1; i < len(path); i++ {
		b.DrawLine(path[i-1].Round(), path[i].Round())
	}
}

// Labels is an integer raster used to tag pixels with an owner.
// Zero means unlabelled.
type Labels struct {
	Width  int
	Height int
	L      []int32
}

// NewLabels creates a zeroed label raster.
func NewLabels(width, height int) *Labels {
	return &Labels{Width: width, Height: height, L: make([]int32, width*height)}
}

// In reports whether (x, y) lies inside the raster.
func (l *Labels) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.Width && y < l.Height
}

// At returns the label at (x, y), or 0 when out of bounds.
func (l *Labels) At(x, y int) int32 {
	if !l.In(x, y) {
		return 0
	}
	return l.L[y*l.Width+x]
}

// Set writes a label at (x, y).
func (l *Labels) Set(x, y int, v int32) {
	if !l.In(x, y) {
		return
	}
	l.L[y*l.Width+x] = v
}

// DrawPath labels every pixel of a polyline.
func (l *Labels) DrawPath(path []geometry.Point2D, v int32) {
	for i := 1; i < len(path); i++ {
		a, b := path[i-1].Round(), path[i].Round()
		l.DrawLine(a, b, nil, v)
	}
}

// DrawLine labels the pixels of the 8-connected line from p0 to p1. With a
// non-nil keep, only pixels whose current label passes it are written.
func (l *Labels) DrawLine(p0, p1 geometry.PointInt, keep func(int32) bool, v int32) {
	for _, c := range common.DrawLineOnCells(p0.X, p0.Y, p1.X, p1.Y, l.Width, l.Height) {
		i := c[1]*l.Width + c[0]
		if keep == nil || keep(l.L[i]) {
			l.L[i] = v
		}
	}
}
