// Package classify provides an offline crop classifier based on color
// statistics. It stands in for a remote classification model when none is
// configured and recognizes three coarse classes:
//
//   - flat graphics (logos, banners, solid placeholders)
//   - outdoor photography, detected by the share of sky and vegetation hues
//   - everything else, treated as interior photography
package classify

import (
	"context"
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Default labels, chosen from the relevance vocabulary.
const (
	LabelGraphic  = "graphic"
	LabelExterior = "house exterior"
	LabelInterior = "room interior"
)

// maxSamples bounds the pixels inspected per crop.
const maxSamples = 16384

// ColorClassifier implements capacity.Classifier from color statistics.
type ColorClassifier struct {
	// FlatSpread is the mean Lab distance to the mean color below which a
	// crop counts as a flat graphic.
	FlatSpread float64
	// OutdoorShare is the fraction of sky or vegetation pixels above which a
	// crop counts as exterior.
	OutdoorShare float64

	GraphicLabel  string
	ExteriorLabel string
	InteriorLabel string
}

// NewColorClassifier returns a classifier with default thresholds and labels.
func NewColorClassifier() *ColorClassifier {
	return &ColorClassifier{
		FlatSpread:    0.06,
		OutdoorShare:  0.30,
		GraphicLabel:  LabelGraphic,
		ExteriorLabel: LabelExterior,
		InteriorLabel: LabelInterior,
	}
}

// Stats summarizes the colors of a crop.
type Stats struct {
	Samples    int     `json:"samples"`
	Spread     float64 `json:"spread"`
	SkyShare   float64 `json:"sky_share"`
	GreenShare float64 `json:"green_share"`
}

// Measure computes color statistics over an evenly strided sample of img.
// Fully transparent pixels are ignored.
func Measure(img image.Image) Stats {
	b := img.Bounds()
	area := b.Dx() * b.Dy()
	if area <= 0 {
		return Stats{}
	}
	stride := 1
	if area > maxSamples {
		stride = int(math.Ceil(math.Sqrt(float64(area) / maxSamples)))
	}

	var colors []colorful.Color
	var sky, green int
	var sumL, sumA, sumB float64
	for y := b.Min.Y; y < b.Max.Y; y += stride {
		for x := b.Min.X; x < b.Max.X; x += stride {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			colors = append(colors, c)

			l, a, bb := c.Lab()
			sumL += l
			sumA += a
			sumB += bb

			h, s, lum := c.Hsl()
			switch {
			case isSky(h, s, lum):
				sky++
			case isVegetation(h, s, lum):
				green++
			}
		}
	}

	n := len(colors)
	if n == 0 {
		return Stats{}
	}
	mean := colorful.Lab(sumL/float64(n), sumA/float64(n), sumB/float64(n))
	var spread float64
	for _, c := range colors {
		spread += c.DistanceLab(mean)
	}

	return Stats{
		Samples:    n,
		Spread:     spread / float64(n),
		SkyShare:   float64(sky) / float64(n),
		GreenShare: float64(green) / float64(n),
	}
}

// Classify implements capacity.Classifier.
func (c *ColorClassifier) Classify(ctx context.Context, crop image.Image) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	st := Measure(crop)
	if st.Samples == 0 || st.Spread < c.FlatSpread {
		conf := 1.0
		if c.FlatSpread > 0 && st.Samples > 0 {
			conf = 1 - st.Spread/c.FlatSpread
		}
		return c.GraphicLabel, conf, nil
	}

	outdoor := st.SkyShare + st.GreenShare
	if outdoor > c.OutdoorShare {
		return c.ExteriorLabel, math.Min(1, outdoor), nil
	}
	return c.InteriorLabel, 1 - outdoor, nil
}

func isSky(h, s, l float64) bool {
	return h >= 190 && h <= 250 && s >= 0.25 && l >= 0.35 && l <= 0.92
}

func isVegetation(h, s, l float64) bool {
	return h >= 65 && h <= 165 && s >= 0.2 && l >= 0.12 && l <= 0.8
}
