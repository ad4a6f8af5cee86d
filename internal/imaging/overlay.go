package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const overlayBoxThickness = 3

// Overlay renders the validation preview: the black/white binarized image
// with one labeled box per detected ticket, or a red full-frame tint when
// no ticket was found.
//
// Box hues walk the green band of the HSV wheel so adjacent tickets remain
// distinguishable when physically touching.
func Overlay(bin *BinaryImage, tickets []image.Rectangle) *image.RGBA {
	base := bin.Render()
	out := image.NewRGBA(base.Bounds())
	draw.Draw(out, out.Bounds(), base, image.Point{}, draw.Src)

	if len(tickets) == 0 {
		tintRed(out)
		return out
	}

	for i, r := range tickets {
		c := ticketColor(i)
		drawBox(out, r, c, overlayBoxThickness)
		drawTag(out, r.Min.X+4, r.Min.Y+4, fmt.Sprintf("Ticket %d", i+1), c)
	}
	return out
}

// ticketColor returns a stable saturated hue for ticket index i.
func ticketColor(i int) color.RGBA {
	h := colorful.Hsv(float64(100+(i*40)%160), 0.9, 0.8)
	r, g, b := h.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// tintRed blends a translucent red over the whole frame.
func tintRed(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			c.R = uint8((int(c.R) + 2*255) / 3)
			c.G = uint8(int(c.G) / 3)
			c.B = uint8(int(c.B) / 3)
			img.SetRGBA(x, y, c)
		}
	}
}

// drawBox strokes the rectangle outline with the given thickness, clamped
// to the image bounds.
func drawBox(img *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	b := img.Bounds()
	r = r.Intersect(b)
	if r.Empty() {
		return
	}
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			setClamped(img, b, x, r.Min.Y+t, c)
			setClamped(img, b, x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			setClamped(img, b, r.Min.X+t, y, c)
			setClamped(img, b, r.Max.X-1-t, y, c)
		}
	}
}

func setClamped(img *image.RGBA, b image.Rectangle, x, y int, c color.RGBA) {
	if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
		img.SetRGBA(x, y, c)
	}
}

// drawTag draws a small label with a dark backing strip so it stays legible
// over the binarized image.
func drawTag(img *image.RGBA, x, y int, text string, fg color.RGBA) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Metrics().Height.Ceil()

	bg := image.Rect(x-2, y-2, x+w+2, y+h+2).Intersect(img.Bounds())
	draw.Draw(img, bg, &image.Uniform{C: color.RGBA{A: 200}}, image.Point{}, draw.Over)

	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: fg},
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}
