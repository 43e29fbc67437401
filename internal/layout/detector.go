package layout

import (
	"context"
	"image"
	"math"

	"github.com/ironsheep/ad-template-matcher/internal/apperrors"
	"github.com/ironsheep/ad-template-matcher/internal/logging"
)

// Proposer is the detection model contract: labeled boxes in normalized
// [0,1] coordinates for one image.
type Proposer interface {
	Propose(ctx context.Context, img image.Image) ([]Proposal, error)
}

// ProposerFunc adapts a function to the Proposer interface.
type ProposerFunc func(ctx context.Context, img image.Image) ([]Proposal, error)

func (f ProposerFunc) Propose(ctx context.Context, img image.Image) ([]Proposal, error) {
	return f(ctx, img)
}

// Detector turns model proposals into deduplicated pixel-space regions.
type Detector struct {
	proposer  Proposer
	threshold float64
	log       *logging.Logger
}

// NewDetector creates a Detector. A threshold outside (0,1] selects
// DefaultContainmentThreshold.
func NewDetector(p Proposer, threshold float64, log *logging.Logger) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultContainmentThreshold
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Detector{proposer: p, threshold: threshold, log: log}
}

// Detect runs the proposer on img and returns the regions that survive
// picture deduplication, in proposal order.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]LabeledRegion, error) {
	proposals, err := d.proposer.Propose(ctx, img)
	if err != nil {
		return nil, apperrors.CollaboratorFailure("detector", err)
	}

	raw := Denormalize(proposals, img.Bounds())
	regions := DedupPictures(raw, d.threshold)

	d.log.Debug("regions detected",
		"proposals", len(proposals),
		"kept", len(regions),
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	return regions, nil
}

// Denormalize scales normalized proposals to the pixel grid of bounds.
// Coordinates are clamped to [0,1] and truncated toward zero, then offset by
// the bounds origin. Swapped corners (x2 < x1 or y2 < y1) are reordered, so
// every returned box has X1 <= X2 and Y1 <= Y2.
func Denormalize(proposals []Proposal, bounds image.Rectangle) []LabeledRegion {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	out := make([]LabeledRegion, 0, len(proposals))
	for _, p := range proposals {
		x1 := bounds.Min.X + int(clamp01(p.Box.X1)*w)
		y1 := bounds.Min.Y + int(clamp01(p.Box.Y1)*h)
		x2 := bounds.Min.X + int(clamp01(p.Box.X2)*w)
		y2 := bounds.Min.Y + int(clamp01(p.Box.Y2)*h)
		out = append(out, LabeledRegion{
			Label: p.Label,
			Box: Box{
				X1: minInt(x1, x2),
				Y1: minInt(y1, y2),
				X2: maxInt(x1, x2),
				Y2: maxInt(y1, y2),
			},
		})
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
