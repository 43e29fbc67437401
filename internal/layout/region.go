package layout

import (
	"image"
	"strings"
)

// Box is an axis-aligned rectangle in pixel coordinates. (X1,Y1) is the
// top-left corner, (X2,Y2) the bottom-right corner, exclusive.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Area returns the box area; inverted boxes have zero area.
func (b Box) Area() int {
	return maxInt(0, b.X2-b.X1) * maxInt(0, b.Y2-b.Y1)
}

// Intersection returns the area shared by b and o.
func (b Box) Intersection(o Box) int {
	ix1 := maxInt(b.X1, o.X1)
	iy1 := maxInt(b.Y1, o.Y1)
	ix2 := minInt(b.X2, o.X2)
	iy2 := minInt(b.Y2, o.Y2)
	return maxInt(0, ix2-ix1) * maxInt(0, iy2-iy1)
}

// Rect converts the box to an image.Rectangle. Corners are not reordered,
// so an inverted box yields an empty rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rectangle{Min: image.Pt(b.X1, b.Y1), Max: image.Pt(b.X2, b.Y2)}
}

// NormBox is a box in normalized [0,1] image coordinates, as produced by a
// detection model.
type NormBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Proposal is one raw detection from a Proposer.
type Proposal struct {
	Label      string  `json:"label"`
	Box        NormBox `json:"box"`
	Confidence float64 `json:"confidence"`
}

// LabeledRegion is a detected region in pixel space.
type LabeledRegion struct {
	Label string `json:"label"`
	Box   Box    `json:"box"`
}

// pictureTerms are the label fragments that mark a region as picture-like.
var pictureTerms = []string{"picture", "photo", "image"}

// IsPictureLike reports whether label names image content.
// Matching is a case-insensitive substring test, so "Picture",
// "photo_frame" and "ImageBox" all qualify.
func IsPictureLike(label string) bool {
	l := strings.ToLower(label)
	for _, term := range pictureTerms {
		if strings.Contains(l, term) {
			return true
		}
	}
	return false
}

// IsText reports whether label marks a body-text region.
func IsText(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), "text")
}

// LargestTextRegion returns the text region with the largest positive area.
// Ties keep the region seen first. The second result is false when the
// regions contain no text region with a positive area.
func LargestTextRegion(regions []LabeledRegion) (LabeledRegion, bool) {
	var best LabeledRegion
	bestArea := 0
	for _, r := range regions {
		if !IsText(r.Label) {
			continue
		}
		if a := r.Box.Area(); a > bestArea {
			best = r
			bestArea = a
		}
	}
	return best, bestArea > 0
}

// PictureRegions returns the picture-like regions in input order.
func PictureRegions(regions []LabeledRegion) []LabeledRegion {
	out := make([]LabeledRegion, 0, len(regions))
	for _, r := range regions {
		if IsPictureLike(r.Label) {
			out = append(out, r)
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
