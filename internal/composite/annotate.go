package composite

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ironsheep/ticket-vision/internal/ocr"
)

// Annotate renders the composite sheet with a box around every recognized
// word, for diagnostic display. Low-confidence words are drawn in red,
// everything else in blue.
func Annotate(sheet *Sheet, words []ocr.Word) *image.RGBA {
	base := sheet.Render()
	out := image.NewRGBA(base.Bounds())
	draw.Draw(out, out.Bounds(), base, image.Point{}, draw.Src)

	for _, w := range words {
		c := color.RGBA{R: 40, G: 80, B: 220, A: 255}
		if w.Confidence < 0.5 {
			c = color.RGBA{R: 220, G: 40, B: 40, A: 255}
		}
		strokeRect(out, w.Bounds, c)
	}
	return out
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}
