// Package imaging bridges binary rasters to OpenCV for the morphology the
// tracer needs: thinning to a one-pixel skeleton and dilation.
package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"

	"road-tracer/internal/raster"
)

// DefaultKernel is the diameter of the elliptical kernel used to thicken a
// redrawn network before thinning it again.
const DefaultKernel = 5

// ToMat converts a binary raster to an 8-bit single-channel Mat with
// foreground 255. The caller must Close the Mat.
func ToMat(b *raster.Binary) (gocv.Mat, error) {
	if b.Width == 0 || b.Height == 0 {
		return gocv.NewMat(), fmt.Errorf("empty raster")
	}
	data := make([]byte, len(b.Pix))
	for i, v := range b.Pix {
		if v != 0 {
			data[i] = 255
		}
	}
	return gocv.NewMatFromBytes(b.Height, b.Width, gocv.MatTypeCV8UC1, data)
}

// FromMat converts an 8-bit single-channel Mat to a binary raster. Any
// non-zero pixel is foreground.
func FromMat(m gocv.Mat) (*raster.Binary, error) {
	if m.Empty() {
		return nil, fmt.Errorf("empty mat")
	}
	if m.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("unsupported mat type %v", m.Type())
	}
	data, err := m.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("failed to read mat: %w", err)
	}
	b := raster.New(m.Cols(), m.Rows())
	for i, v := range data[:len(b.Pix)] {
		if v != 0 {
			b.Pix[i] = 1
		}
	}
	return b, nil
}

// Thin reduces foreground regions to a one-pixel-wide skeleton with the
// Zhang-Suen algorithm.
func Thin(b *raster.Binary) (*raster.Binary, error) {
	src, err := ToMat(b)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	contrib.Thinning(src, &dst, contrib.ThinningZhangSuen)
	return FromMat(dst)
}

// Dilate thickens the foreground with an elliptical kernel of the given
// diameter.
func Dilate(b *raster.Binary, kernel int) (*raster.Binary, error) {
	src, err := ToMat(b)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	k := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(kernel, kernel))
	defer k.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Dilate(src, &dst, k)
	return FromMat(dst)
}

// Reskeletonizer rebuilds a skeleton from a redrawn network by dilating and
// thinning it, so lines drawn side by side collapse into one.
type Reskeletonizer struct {
	Kernel int
}

// Reskeletonize implements repair.Skeletonizer.
func (r Reskeletonizer) Reskeletonize(patched *raster.Binary) (*raster.Binary, error) {
	kernel := r.Kernel
	if kernel <= 0 {
		kernel = DefaultKernel
	}
	thick, err := Dilate(patched, kernel)
	if err != nil {
		return nil, fmt.Errorf("dilate: %w", err)
	}
	skel, err := Thin(thick)
	if err != nil {
		return nil, fmt.Errorf("thin: %w", err)
	}
	return skel, nil
}
