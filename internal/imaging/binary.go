package imaging

import (
	"image"
	"image/color"
)

// PixelClass is the per-pixel ink/paper label produced by binarization.
type PixelClass uint8

const (
	// Paper marks a pixel classified as ticket background.
	Paper PixelClass = iota

	// Ink marks a pixel classified as printed or written content.
	Ink
)

// Binarization tuning. The threshold is a fixed fraction of the mean red
// channel sampled on a coarse stride; ticket photographs are assumed to be
// near-uniformly lit, so a single global threshold is sufficient and cheap.
const (
	// LuminanceSampleStride is the pixel step used when sampling the red
	// channel to estimate the global paper brightness.
	LuminanceSampleStride = 20

	// LuminanceThresholdFactor scales the sampled mean into the ink
	// threshold: a pixel is Ink iff red < mean × factor.
	LuminanceThresholdFactor = 0.85

	// fallbackMeanRed is used when the sample set is degenerate (zero-sized
	// image) to avoid a zero threshold.
	fallbackMeanRed = 128.0
)

// BinaryImage is a width×height ink/paper classification buffer.
//
// Pixels are stored in a single flat slice indexed y*Width+x so that the
// flood-fill and morphology stages can address them without nested lookups.
// The zero value of a pixel is Paper.
type BinaryImage struct {
	Width  int
	Height int
	Pix    []PixelClass
}

// NewBinaryImage allocates an all-Paper classification buffer.
func NewBinaryImage(width, height int) *BinaryImage {
	return &BinaryImage{
		Width:  width,
		Height: height,
		Pix:    make([]PixelClass, width*height),
	}
}

// At returns the class of pixel (x, y). Out-of-bounds coordinates read as
// Paper so neighbor scans near the border need no special casing.
func (b *BinaryImage) At(x, y int) PixelClass {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return Paper
	}
	return b.Pix[y*b.Width+x]
}

// Set assigns the class of pixel (x, y). Out-of-bounds writes are ignored.
func (b *BinaryImage) Set(x, y int, c PixelClass) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	b.Pix[y*b.Width+x] = c
}

// Clone returns an independent copy of the buffer.
func (b *BinaryImage) Clone() *BinaryImage {
	out := NewBinaryImage(b.Width, b.Height)
	copy(out.Pix, b.Pix)
	return out
}

// Render draws the classification as a pure black/white grayscale image,
// Ink as black and Paper as white.
func (b *BinaryImage) Render() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Pix[y*b.Width+x] == Ink {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// Binarize classifies every pixel of a decoded raster as Ink or Paper.
//
// The threshold adapts to the photograph's overall brightness: the red
// channel is sampled every LuminanceSampleStride pixels in both axes to
// compute a mean, and a pixel is Ink iff its red channel is strictly below
// mean × LuminanceThresholdFactor. The red channel alone is a good proxy for
// luminance on paper tickets and avoids a full grayscale conversion.
//
// An empty or degenerate sample set falls back to a mid-gray mean so the
// threshold never collapses to zero.
func Binarize(img image.Image) *BinaryImage {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var sum, count int64
	for y := 0; y < height; y += LuminanceSampleStride {
		for x := 0; x < width; x += LuminanceSampleStride {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			sum += int64(r >> 8)
			count++
		}
	}

	mean := fallbackMeanRed
	if count > 0 {
		mean = float64(sum) / float64(count)
	}
	threshold := mean * LuminanceThresholdFactor

	out := NewBinaryImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if float64(r>>8) < threshold {
				out.Pix[y*width+x] = Ink
			}
		}
	}
	return out
}
