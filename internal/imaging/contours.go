package imaging

import (
	"sort"

	"gocv.io/x/gocv"

	"road-tracer/internal/raster"
	"road-tracer/pkg/geometry"
)

// FindContours returns every border of the foreground, outer borders and
// hole borders alike, ordered by their starting pixel in scan order. Each
// contour is the closed 8-connected pixel walk around the border without
// repeating its start, so a one-pixel-wide line yields a walk that runs out
// along the line and back again.
//
// Diagonal steps that cut past a foreground pixel touching both ends are
// routed through that pixel, so junction pixels of a skeleton always appear
// on the walk.
func FindContours(b *raster.Binary) [][]geometry.PointInt {
	if b == nil || b.Width == 0 || b.Height == 0 {
		return nil
	}

	// OpenCV treats the outermost row and column as background.
	padded := raster.New(b.Width+2, b.Height+2)
	for y := 0; y < b.Height; y++ {
		copy(padded.Pix[(y+1)*padded.Width+1:], b.Pix[y*b.Width:(y+1)*b.Width])
	}
	src, err := ToMat(padded)
	if err != nil {
		return nil
	}
	defer src.Close()

	found := gocv.FindContours(src, gocv.RetrievalList, gocv.ChainApproxNone)
	defer found.Close()

	contours := make([][]geometry.PointInt, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		contour := found.At(i)
		walk := make([]geometry.PointInt, 0, contour.Size())
		for j := 0; j < contour.Size(); j++ {
			pt := contour.At(j)
			next := geometry.PointInt{X: pt.X - 1, Y: pt.Y - 1}
			walk = throughCorner(b, walk, next)
			walk = append(walk, next)
		}
		if len(walk) == 0 {
			continue
		}
		if len(walk) > 1 {
			walk = throughCorner(b, walk, walk[0])
		}
		contours = append(contours, walk)
	}

	sort.SliceStable(contours, func(i, j int) bool {
		a, c := contours[i][0], contours[j][0]
		if a.Y != c.Y {
			return a.Y < c.Y
		}
		return a.X < c.X
	})
	return contours
}

// throughCorner appends the foreground 4-neighbour shared by the last walk
// pixel and next when the step between them is diagonal.
func throughCorner(b *raster.Binary, walk []geometry.PointInt, next geometry.PointInt) []geometry.PointInt {
	if len(walk) == 0 {
		return walk
	}
	p := walk[len(walk)-1]
	if next.X == p.X || next.Y == p.Y {
		return walk
	}
	for _, r := range [2]geometry.PointInt{{X: next.X, Y: p.Y}, {X: p.X, Y: next.Y}} {
		if !b.At(r.X, r.Y) {
			continue
		}
		if len(walk) >= 2 && walk[len(walk)-2] == r {
			return walk
		}
		return append(walk, r)
	}
	return walk
}
