package detection

import (
	"math"
	"sort"
)

// TextRegion is a block likely to contain text.
type TextRegion struct {
	Bounds     Bounds  `json:"bounds"`
	Confidence float64 `json:"confidence"`
}

// windowSizes are the sliding windows used to find text lines, in pixels.
var windowSizes = []struct{ w, h int }{
	{100, 30},
	{150, 40},
	{200, 50},
	{80, 25},
}

// DetectTextRegions finds blocks with medium edge density and mostly
// horizontal structure. Windows overlapping any of exclude by more than half
// their area are skipped so photo texture is not reported as text. Results
// are merged and sorted by confidence, highest first.
func DetectTextRegions(edges EdgeMap, minConfidence float64, exclude []Bounds) []TextRegion {
	width, height := edges.Size()
	candidates := make([]TextRegion, 0)

	for _, ws := range windowSizes {
		stepX := ws.w / 2
		stepY := ws.h / 2

		for y := 0; y <= height-ws.h; y += stepY {
			for x := 0; x <= width-ws.w; x += stepX {
				window := Bounds{X1: x, Y1: y, X2: x + ws.w, Y2: y + ws.h}
				if mostlyInside(window, exclude) {
					continue
				}

				density := edges.Density(window)
				if density < 0.05 || density > 0.4 {
					continue
				}

				confidence := horizontalScore(edges, window) * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence >= minConfidence {
					candidates = append(candidates, TextRegion{
						Bounds:     window,
						Confidence: math.Round(confidence*1000) / 1000,
					})
				}
			}
		}
	}

	merged := mergeOverlappingRegions(candidates)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})
	return merged
}

// horizontalScore is the share of horizontal edge runs among all runs in b.
func horizontalScore(edges EdgeMap, b Bounds) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := b.Y1; row < b.Y2; row++ {
		inRun := false
		for col := b.X1; col < b.X2; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := b.X1; col < b.X2; col++ {
		inRun := false
		for row := b.Y1; row < b.Y2; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

func mostlyInside(window Bounds, exclude []Bounds) bool {
	area := window.Area()
	for _, e := range exclude {
		if 2*intersection(window, e) > area {
			return true
		}
	}
	return false
}

// mergeOverlappingRegions combines overlapping text regions
func mergeOverlappingRegions(regions []TextRegion) []TextRegion {
	merged := make([]TextRegion, 0, len(regions))

	for _, r := range regions {
		foundMerge := false
		for i := range merged {
			if regionsOverlap(r.Bounds, merged[i].Bounds) {
				merged[i].Bounds = mergeBounds(r.Bounds, merged[i].Bounds)
				merged[i].Confidence = math.Max(r.Confidence, merged[i].Confidence)
				foundMerge = true
				break
			}
		}
		if !foundMerge {
			merged = append(merged, r)
		}
	}

	return merged
}

func regionsOverlap(a, b Bounds) bool {
	return a.X1 < b.X2 && a.X2 > b.X1 && a.Y1 < b.Y2 && a.Y2 > b.Y1
}

func intersection(a, b Bounds) int {
	return Bounds{
		X1: maxInt(a.X1, b.X1),
		Y1: maxInt(a.Y1, b.Y1),
		X2: minInt(a.X2, b.X2),
		Y2: minInt(a.Y2, b.Y2),
	}.Area()
}

func mergeBounds(a, b Bounds) Bounds {
	return Bounds{
		X1: minInt(a.X1, b.X1),
		Y1: minInt(a.Y1, b.Y1),
		X2: maxInt(a.X2, b.X2),
		Y2: maxInt(a.Y2, b.Y2),
	}
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
