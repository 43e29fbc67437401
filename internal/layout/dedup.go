package layout

// DefaultContainmentThreshold is the share of a box's own area that must lie
// inside another box for the first to count as a duplicate of the second.
const DefaultContainmentThreshold = 0.95

// containment returns intersection(inner, outer) / area(inner).
// The second result is false for a zero-area inner box, whose ratio is
// undefined.
func containment(inner, outer Box) (float64, bool) {
	a := inner.Area()
	if a == 0 {
		return 0, false
	}
	return float64(inner.Intersection(outer)) / float64(a), true
}

// RemoveSupersets returns the indices of boxes that survive near-duplicate
// removal, in input order.
//
// A box R is dropped when some other box R' covers more than threshold of
// R's own area and R' is strictly larger than R: nested picture frames
// collapse into the enclosing frame. The ratio is asymmetric (R's area is
// the denominator, not the union), so comparisons run over every ordered
// pair. Boxes of equal area that cover each other beyond the threshold are
// duplicates; the first one seen is kept.
//
// Zero-area boxes are never dropped and never count as evidence against
// another box.
func RemoveSupersets(boxes []Box, threshold float64) []int {
	keep := make([]int, 0, len(boxes))
	for i, box := range boxes {
		if !isCovered(boxes, i, box, threshold) {
			keep = append(keep, i)
		}
	}
	return keep
}

func isCovered(boxes []Box, i int, box Box, threshold float64) bool {
	area := box.Area()
	for j, other := range boxes {
		if i == j {
			continue
		}
		otherArea := other.Area()
		if otherArea == 0 || otherArea < area {
			continue
		}
		if otherArea == area && j > i {
			continue
		}
		ratio, ok := containment(box, other)
		if ok && ratio > threshold {
			return true
		}
	}
	return false
}

// DedupPictures applies RemoveSupersets to the picture-like regions and
// passes every other region through. Relative order is preserved.
func DedupPictures(regions []LabeledRegion, threshold float64) []LabeledRegion {
	pictureIdx := make([]int, 0, len(regions))
	boxes := make([]Box, 0, len(regions))
	for i, r := range regions {
		if IsPictureLike(r.Label) {
			pictureIdx = append(pictureIdx, i)
			boxes = append(boxes, r.Box)
		}
	}

	survivors := make(map[int]bool, len(boxes))
	for _, k := range RemoveSupersets(boxes, threshold) {
		survivors[pictureIdx[k]] = true
	}

	out := make([]LabeledRegion, 0, len(regions))
	for i, r := range regions {
		if IsPictureLike(r.Label) && !survivors[i] {
			continue
		}
		out = append(out, r)
	}
	return out
}
