// Package capacity measures how much content a template can hold.
package capacity

import (
	"context"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/ironsheep/ad-template-matcher/internal/apperrors"
	"github.com/ironsheep/ad-template-matcher/internal/cache"
	"github.com/ironsheep/ad-template-matcher/internal/imaging"
	"github.com/ironsheep/ad-template-matcher/internal/layout"
	"github.com/ironsheep/ad-template-matcher/internal/logging"
)

// Classifier labels a cropped picture region.
type Classifier interface {
	Classify(ctx context.Context, crop image.Image) (label string, confidence float64, err error)
}

// TextReader recognizes the text in a cropped region. An empty string means
// no text was found.
type TextReader interface {
	Read(ctx context.Context, crop image.Image) (string, error)
}

// PictureVerdict records the classification of one picture region.
type PictureVerdict struct {
	Region     layout.LabeledRegion `json:"region"`
	Label      string               `json:"label,omitempty"`
	Confidence float64              `json:"confidence,omitempty"`
	Relevant   bool                 `json:"relevant"`
	Skipped    bool                 `json:"skipped,omitempty"`
}

// Analysis is the full outcome of estimating one template.
type Analysis struct {
	TemplateID     string                 `json:"template_id"`
	Width          int                    `json:"width"`
	Height         int                    `json:"height"`
	Regions        []layout.LabeledRegion `json:"regions"`
	TextRegion     *layout.LabeledRegion  `json:"text_region,omitempty"`
	RecognizedText string                 `json:"recognized_text"`
	Pictures       []PictureVerdict       `json:"pictures"`
	Metadata       cache.TemplateMetadata `json:"metadata"`
}

// Options configures an Estimator.
type Options struct {
	// RelevantLabels is the classifier vocabulary counted as picture slots.
	// Comparison is case-insensitive.
	RelevantLabels []string

	// RequireTextRegion turns a template without a text region into an
	// apperrors.CodeRegionNotFound failure instead of a zero capacity.
	RequireTextRegion bool
}

// Estimator computes cache.TemplateMetadata from detected regions.
type Estimator struct {
	classifier Classifier
	reader     TextReader
	relevant   map[string]bool
	requireTxt bool
	log        *logging.Logger
}

// NewEstimator creates an Estimator.
func NewEstimator(c Classifier, r TextReader, opts Options, log *logging.Logger) *Estimator {
	relevant := make(map[string]bool, len(opts.RelevantLabels))
	for _, l := range opts.RelevantLabels {
		relevant[normalizeLabel(l)] = true
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Estimator{
		classifier: c,
		reader:     r,
		relevant:   relevant,
		requireTxt: opts.RequireTextRegion,
		log:        log,
	}
}

// IsRelevant reports whether a classifier label counts as a picture slot.
func (e *Estimator) IsRelevant(label string) bool {
	return e.relevant[normalizeLabel(label)]
}

// Estimate measures text capacity and counts relevant picture slots.
// regions are expected to be deduplicated already (layout.Detector does so).
func (e *Estimator) Estimate(ctx context.Context, img image.Image, regions []layout.LabeledRegion) (*Analysis, error) {
	a := &Analysis{
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Regions:  regions,
		Pictures: []PictureVerdict{},
	}

	if err := e.measureText(ctx, img, regions, a); err != nil {
		return nil, err
	}
	if err := e.countSlots(ctx, img, regions, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (e *Estimator) measureText(ctx context.Context, img image.Image, regions []layout.LabeledRegion, a *Analysis) error {
	region, ok := layout.LargestTextRegion(regions)
	if !ok {
		if e.requireTxt {
			return apperrors.RegionNotFound("text")
		}
		e.log.Warn("no text region detected; text capacity is 0")
		return nil
	}
	a.TextRegion = &region

	crop, ok := imaging.CropRegion(img, region.Box.Rect())
	if !ok {
		return nil
	}
	text, err := e.reader.Read(ctx, crop)
	if err != nil {
		return apperrors.CollaboratorFailure("text-reader", err)
	}
	a.RecognizedText = text
	a.Metadata.TextCharCapacity = utf8.RuneCountInString(text)
	return nil
}

func (e *Estimator) countSlots(ctx context.Context, img image.Image, regions []layout.LabeledRegion, a *Analysis) error {
	for _, region := range layout.PictureRegions(regions) {
		if region.Box.Area() == 0 {
			a.Pictures = append(a.Pictures, PictureVerdict{Region: region, Skipped: true})
			continue
		}
		crop, ok := imaging.CropRegion(img, region.Box.Rect())
		if !ok {
			a.Pictures = append(a.Pictures, PictureVerdict{Region: region, Skipped: true})
			continue
		}

		label, confidence, err := e.classifier.Classify(ctx, crop)
		if err != nil {
			return apperrors.CollaboratorFailure("classifier", err)
		}

		relevant := e.IsRelevant(label)
		if relevant {
			a.Metadata.ImageSlots++
		}
		a.Pictures = append(a.Pictures, PictureVerdict{
			Region:     region,
			Label:      label,
			Confidence: confidence,
			Relevant:   relevant,
		})
		e.log.Debug("picture classified", "label", label, "confidence", confidence, "relevant", relevant)
	}
	return nil
}

func normalizeLabel(l string) string {
	return strings.ToLower(strings.TrimSpace(l))
}
