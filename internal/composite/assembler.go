// Package composite packs every ticket cell (and identifier field) into one
// large sprite sheet sized for the external text recognizer, and records the
// mapping from sheet locations back to their semantic origin.
package composite

import (
	"errors"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/ticket-vision/internal/detection"
	img "github.com/ironsheep/ticket-vision/internal/imaging"
)

// ErrRenderSurface indicates the composite drawing surface could not be
// created (degenerate or absurd dimensions). Fatal to the call.
var ErrRenderSurface = errors.New("composite surface creation failed")

// Kind distinguishes what a sprite slot holds.
type Kind string

const (
	// KindNumber marks a numeric cell crop.
	KindNumber Kind = "number"

	// KindIdentifier marks a ticket identifier field crop.
	KindIdentifier Kind = "identifier"
)

// Sheet layout. Tiles are small and the padding around them deliberately
// huge so the recognizer never merges digits from adjacent cells.
const (
	// TileSize is the square sprite slot side for numeric cells, and the
	// fixed height of identifier slots.
	TileSize = 160

	// TilePadding separates sprite slots in both axes.
	TilePadding = 400

	// maxSheetDim caps the composite surface; beyond this allocation is
	// refused rather than attempted.
	maxSheetDim = 1 << 15
)

// Content classification for numeric cells.
const (
	// cellCropMarginFrac is removed from each side of the source cell
	// before drawing, keeping the central 36% and discarding grid lines.
	cellCropMarginFrac = 0.32

	// denseInkMinNeighbors: an Ink pixel counts as dense ink when at least
	// this many of its 8 neighbors are Ink too.
	denseInkMinNeighbors = 6

	// contentMinInkFrac: a crop contains content when its dense-ink pixel
	// fraction exceeds this value. Blank cells stay off the sheet.
	contentMinInkFrac = 0.01
)

// Identifier field geometry, relative to the last cell of the last row.
const (
	idOffsetFrac   = 0.3 // skip the grid line right of the cell
	idWidthFactor  = 1.8 // field width in cell widths
	idMinDimension = 10  // smallest usable field, px
	idVerticalTrim = 0.2 // margin trimmed from top and bottom of the crop
)

// SpriteMapping links one sprite-sheet slot back to its origin.
type SpriteMapping struct {
	Kind   Kind           `json:"kind"`
	Ticket int            `json:"ticket"`
	Row    int            `json:"row"`
	Col    int            `json:"col"`
	Sprite detection.Rect `json:"sprite"` // composite-sheet coordinates
	Source detection.Rect `json:"source"` // source-image coordinates
}

// Sheet is the assembled composite raster (as an ink/paper classification)
// plus the sprite map describing its contents.
type Sheet struct {
	Bin      *img.BinaryImage
	Mappings []SpriteMapping
}

// Render draws the sheet as a black/white image for the recognizer.
func (s *Sheet) Render() *image.Gray { return s.Bin.Render() }

// Assemble lays out every populated cell and identifier field of the given
// tickets into a composite sheet, drawing from the cleaned binary image.
//
// Numeric cells are cropped to their central region, tested for dense-ink
// content, and only drawn (and mapped) when content is present; blank
// cells are intentionally absent from the sheet and resolve to 0
// downstream. Each ticket's identifier field, when large enough, is cropped
// right of its last cell, rescaled to the tile height preserving aspect,
// and drawn after the sixth column.
//
// The finished sheet gets a final two-iteration morphological clean with
// the identifier sprite rects protected: number crops are already binary
// and benefit from despeckling, while the resampled identifier pixels would
// not survive erosion.
func Assemble(tickets []detection.Ticket, clean *img.BinaryImage) (*Sheet, error) {
	if len(tickets) == 0 {
		return nil, ErrRenderSurface
	}

	// Identifier slot widths, needed up front for the sheet width.
	idRects := make([]image.Rectangle, len(tickets))
	idWidths := make([]int, len(tickets))
	for i := range tickets {
		idRects[i] = identifierSource(&tickets[i], clean)
		if !idRects[i].Empty() {
			src := idRects[i]
			idWidths[i] = TileSize * src.Dx() / src.Dy()
		}
	}

	width := slotOffset(detection.ColsPerTicket)
	for _, w := range idWidths {
		if need := slotOffset(detection.ColsPerTicket) + w + TilePadding/2; need > width {
			width = need
		}
	}
	height := slotOffset(len(tickets) * detection.RowsPerTicket)
	if width <= 0 || height <= 0 || width > maxSheetDim || height > maxSheetDim {
		return nil, ErrRenderSurface
	}

	sheet := img.NewBinaryImage(width, height)
	var mappings []SpriteMapping
	var protected []image.Rectangle

	for t := range tickets {
		grid := tickets[t].Grid
		for r := 0; r < detection.RowsPerTicket; r++ {
			for c := 0; c < detection.ColsPerTicket; c++ {
				inner := centralCrop(grid[r][c])
				if !hasContent(clean, inner) {
					continue
				}
				slot := image.Rect(0, 0, TileSize, TileSize).
					Add(image.Pt(slotOffset(c), slotOffset(t*detection.RowsPerTicket+r)))
				drawNumberCrop(sheet, clean, inner, slot)
				mappings = append(mappings, SpriteMapping{
					Kind:   KindNumber,
					Ticket: t,
					Row:    r,
					Col:    c,
					Sprite: fromImageRect(slot),
					Source: fromImageRect(inner),
				})
			}
		}

		if idRects[t].Empty() {
			continue
		}
		slot := image.Rect(0, 0, idWidths[t], TileSize).
			Add(image.Pt(slotOffset(detection.ColsPerTicket), slotOffset(t*detection.RowsPerTicket+detection.RowsPerTicket-1)))
		drawIdentifierCrop(sheet, clean, idRects[t], slot)
		protected = append(protected, slot)
		mappings = append(mappings, SpriteMapping{
			Kind:   KindIdentifier,
			Ticket: t,
			Sprite: fromImageRect(slot),
			Source: fromImageRect(idRects[t]),
		})
	}

	return &Sheet{
		Bin:      img.Clean(sheet, protected, img.DefaultCleanIterations),
		Mappings: mappings,
	}, nil
}

// slotOffset returns the sheet coordinate of slot index i (column or row),
// with half a padding before the first slot.
func slotOffset(i int) int {
	return TilePadding/2 + i*(TileSize+TilePadding)
}

// centralCrop shrinks a cell to its central region so the surrounding grid
// lines never reach the recognizer.
func centralCrop(cell detection.Rect) image.Rectangle {
	mx := int(float64(cell.W) * cellCropMarginFrac)
	my := int(float64(cell.H) * cellCropMarginFrac)
	return image.Rect(cell.X+mx, cell.Y+my, cell.X+cell.W-mx, cell.Y+cell.H-my)
}

// hasContent reports whether the dense-ink fraction of the region exceeds
// the content threshold. Dense ink (a majority of ink neighbors) separates
// real strokes from isolated noise.
func hasContent(bin *img.BinaryImage, region image.Rectangle) bool {
	area := region.Dx() * region.Dy()
	if area <= 0 {
		return false
	}
	dense := 0
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			if bin.At(x, y) == img.Ink && img.DenseInkNeighbors(bin, x, y) >= denseInkMinNeighbors {
				dense++
			}
		}
	}
	return float64(dense)/float64(area) > contentMinInkFrac
}

// identifierSource derives the identifier search rectangle immediately to
// the right of the ticket's last cell, clamped to the image. A region below
// the minimum size comes back empty, and the vertical margins are trimmed
// so the grid's horizontal rules stay out of the crop.
func identifierSource(t *detection.Ticket, bin *img.BinaryImage) image.Rectangle {
	last := t.Grid[detection.RowsPerTicket-1][detection.ColsPerTicket-1]
	x := last.X + last.W + int(float64(last.W)*idOffsetFrac)
	r := image.Rect(x, last.Y, x+int(float64(last.W)*idWidthFactor), last.Y+last.H)
	r = r.Intersect(image.Rect(0, 0, bin.Width, bin.Height))
	if r.Dx() < idMinDimension || r.Dy() < idMinDimension {
		return image.Rectangle{}
	}
	trim := int(float64(r.Dy()) * idVerticalTrim)
	r.Min.Y += trim
	r.Max.Y -= trim
	if r.Dy() < 1 {
		return image.Rectangle{}
	}
	return r
}

// drawNumberCrop rescales a binary source region into a square sprite slot.
func drawNumberCrop(sheet, src *img.BinaryImage, region image.Rectangle, slot image.Rectangle) {
	crop := grayRegion(src, region)
	resized := imaging.Resize(crop, slot.Dx(), slot.Dy(), imaging.Lanczos)
	blitThresholded(sheet, resized, slot.Min)
}

// drawIdentifierCrop rescales the identifier field into its slot with
// bilinear filtering; the slot width already preserves the source aspect.
func drawIdentifierCrop(sheet, src *img.BinaryImage, region image.Rectangle, slot image.Rectangle) {
	crop := grayRegion(src, region)
	resized := transform.Resize(crop, slot.Dx(), slot.Dy(), transform.Linear)
	blitThresholded(sheet, resized, slot.Min)
}

// grayRegion renders a region of the classification buffer as grayscale,
// ink black on white paper.
func grayRegion(bin *img.BinaryImage, region image.Rectangle) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, region.Dx(), region.Dy()))
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			v := uint8(255)
			if bin.At(x, y) == img.Ink {
				v = 0
			}
			out.SetGray(x-region.Min.X, y-region.Min.Y, color.Gray{Y: v})
		}
	}
	return out
}

// blitThresholded writes a resampled image into the sheet classification,
// mapping dark pixels back to Ink.
func blitThresholded(sheet *img.BinaryImage, src image.Image, at image.Point) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := src.At(x, y).RGBA()
			gray := (299*(r>>8) + 587*(g>>8) + 114*(bl>>8)) / 1000
			if gray < 128 {
				sheet.Set(at.X+x-b.Min.X, at.Y+y-b.Min.Y, img.Ink)
			}
		}
	}
}

func fromImageRect(r image.Rectangle) detection.Rect {
	return detection.Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}
