package detection

import (
	"image"

	"github.com/ironsheep/ticket-vision/internal/imaging"
)

// Rect is an integer rectangle {x, y, w, h} in source-image pixel
// coordinates, the geometric unit shared by every stage after binarization.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// CenterX returns the horizontal center of the rectangle.
func (r Rect) CenterX() int { return r.X + r.W/2 }

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() int { return r.Y + r.H/2 }

// ImageRect converts to the stdlib representation.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Component is a connected paper-colored region believed to be a printed
// target square (the empty box a player marks).
type Component struct {
	Rect
}

// Target-square detection tuning. Filters are evaluated in the downsampled
// coordinate space so the thresholds are resolution-independent.
const (
	// detectWidth is the fixed conceptual downsample width; flood fill cost
	// is bounded by detectWidth × scaled height regardless of photo size.
	detectWidth = 300

	// minAspect and maxAspect bound w/h for a region to count as squarish.
	minAspect = 0.6
	maxAspect = 2.5

	// minSizeFrac rejects regions smaller than this fraction of the scaled
	// dimensions (noise), maxWidthFrac regions wider than this fraction of
	// the scaled width (page background).
	minSizeFrac  = 0.03
	maxWidthFrac = 0.25
)

// DetectTargets finds candidate target squares in a binary classification.
//
// The buffer is sampled on a grid downscaled to detectWidth (nearest
// neighbor; each downsampled cell maps to exactly one source pixel), and a
// stack-driven 4-connected flood fill groups Paper cells into regions. A
// region is kept only if its downsampled bounding box is squarish
// (minAspect < w/h < maxAspect), large enough not to be noise, and small
// enough not to be the page background. Bounding boxes are mapped back to
// source coordinates.
//
// The returned components are unsorted; callers order them as needed.
func DetectTargets(bin *imaging.BinaryImage) []Component {
	width, height := bin.Width, bin.Height
	if width == 0 || height == 0 {
		return nil
	}

	scale := float64(detectWidth) / float64(width)
	if scale > 1 {
		scale = 1
	}
	dw := int(float64(width) * scale)
	dh := int(float64(height) * scale)
	if dw < 1 || dh < 1 {
		return nil
	}

	// srcIdx maps a downsampled cell to its source pixel offset.
	srcIdx := func(dx, dy int) int {
		sx := int(float64(dx) / scale)
		sy := int(float64(dy) / scale)
		if sx >= width {
			sx = width - 1
		}
		if sy >= height {
			sy = height - 1
		}
		return sy*width + sx
	}

	visited := make([]bool, dw*dh)
	stack := make([]int, 0, dw)
	var components []Component

	for dy := 0; dy < dh; dy++ {
		for dx := 0; dx < dw; dx++ {
			start := dy*dw + dx
			if visited[start] || bin.Pix[srcIdx(dx, dy)] != imaging.Paper {
				continue
			}

			// Flood fill one paper region, tracking its bounding box.
			minX, minY := dx, dy
			maxX, maxY := dx, dy
			visited[start] = true
			stack = append(stack[:0], start)
			for len(stack) > 0 {
				idx := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := idx%dw, idx/dw

				if cx < minX {
					minX = cx
				}
				if cx > maxX {
					maxX = cx
				}
				if cy < minY {
					minY = cy
				}
				if cy > maxY {
					maxY = cy
				}

				for _, n := range [4][2]int{{cx - 1, cy}, {cx + 1, cy}, {cx, cy - 1}, {cx, cy + 1}} {
					nx, ny := n[0], n[1]
					if nx < 0 || ny < 0 || nx >= dw || ny >= dh {
						continue
					}
					ni := ny*dw + nx
					if visited[ni] || bin.Pix[srcIdx(nx, ny)] != imaging.Paper {
						continue
					}
					visited[ni] = true
					stack = append(stack, ni)
				}
			}

			sw := maxX - minX + 1
			sh := maxY - minY + 1
			aspect := float64(sw) / float64(sh)
			if aspect <= minAspect || aspect >= maxAspect {
				continue
			}
			if float64(sw) <= minSizeFrac*float64(dw) || float64(sh) <= minSizeFrac*float64(dh) {
				continue
			}
			if float64(sw) >= maxWidthFrac*float64(dw) {
				continue
			}

			components = append(components, Component{Rect: Rect{
				X: int(float64(minX) / scale),
				Y: int(float64(minY) / scale),
				W: int(float64(sw) / scale),
				H: int(float64(sh) / scale),
			}})
		}
	}
	return components
}
