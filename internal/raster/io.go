package raster

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// FromImage converts any image to a binary raster. Pixels whose luminance is
// at least threshold become foreground.
func FromImage(img image.Image, threshold uint8) *Binary {
	bounds := img.Bounds()
	b := New(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y >= threshold {
				b.Pix[(y-bounds.Min.Y)*b.Width+(x-bounds.Min.X)] = 1
			}
		}
	}
	return b
}

// ReadFile loads a skeleton or edge raster from disk. PNG, JPEG, TIFF and
// BMP are supported.
func ReadFile(path string) (*Binary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raster %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("raster %s (%s) is empty", path, format)
	}
	return FromImage(img, 128), nil
}
