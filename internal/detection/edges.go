package detection

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// Bounds is a rectangle in edge-map coordinates: (X1,Y1) inclusive,
// (X2,Y2) exclusive.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns X2-X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns Y2-Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Area returns the box area, 0 for degenerate boxes.
func (b Bounds) Area() int {
	if b.X2 <= b.X1 || b.Y2 <= b.Y1 {
		return 0
	}
	return b.Width() * b.Height()
}

// EdgeMap is a binary edge image indexed [y][x] from (0,0).
type EdgeMap [][]bool

// DetectEdges computes a binary edge map: grayscale, optional Gaussian blur,
// Sobel gradient magnitude, then threshold at level (0-255). The Sobel
// filter clamps negative gradients, so the inverted image is filtered too
// and both maps are merged.
func DetectEdges(img image.Image, level uint8, blurRadius float64) EdgeMap {
	var src image.Image = effect.Grayscale(img)
	if blurRadius > 0 {
		src = blur.Gaussian(src, blurRadius)
	}
	rising := segment.Threshold(effect.Sobel(src), level)
	falling := segment.Threshold(effect.Sobel(effect.Invert(src)), level)

	b := rising.Bounds()
	edges := make(EdgeMap, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		edges[y] = make([]bool, b.Dx())
		for x := 0; x < b.Dx(); x++ {
			edges[y][x] = rising.GrayAt(b.Min.X+x, b.Min.Y+y).Y > 0 ||
				falling.GrayAt(b.Min.X+x, b.Min.Y+y).Y > 0
		}
	}
	return edges
}

// Size returns the width and height of the map.
func (e EdgeMap) Size() (int, int) {
	if len(e) == 0 {
		return 0, 0
	}
	return len(e[0]), len(e)
}

// Density returns the fraction of edge pixels inside b.
func (e EdgeMap) Density(b Bounds) float64 {
	area := b.Area()
	if area == 0 {
		return 0
	}
	count := 0
	for y := b.Y1; y < b.Y2; y++ {
		for x := b.X1; x < b.X2; x++ {
			if e[y][x] {
				count++
			}
		}
	}
	return float64(count) / float64(area)
}
