package inference

import (
	"context"
	"fmt"
	"image"

	"github.com/ironsheep/ad-template-matcher/internal/layout"
)

type detection struct {
	Label      string    `json:"label"`
	Box        []float64 `json:"box"`
	Confidence float64   `json:"confidence"`
}

// DetectionClient proposes layout regions using a remote detection model.
// The service replies with {"detections":[{"label","box":[x1,y1,x2,y2],"confidence"}]}
// where box coordinates are normalized to [0,1].
type DetectionClient struct {
	client
	minConfidence float64
}

// NewDetectionClient creates a client for the model at url.
func NewDetectionClient(url string, opts ...Option) *DetectionClient {
	return &DetectionClient{client: newClient(url, opts)}
}

// SetMinConfidence drops detections scored below threshold.
func (d *DetectionClient) SetMinConfidence(threshold float64) {
	d.minConfidence = threshold
}

// Propose implements layout.Proposer.
func (d *DetectionClient) Propose(ctx context.Context, img image.Image) ([]layout.Proposal, error) {
	var result struct {
		Detections []detection `json:"detections"`
	}
	if err := d.post(ctx, img, nil, &result); err != nil {
		return nil, err
	}

	proposals := make([]layout.Proposal, 0, len(result.Detections))
	for i, det := range result.Detections {
		if len(det.Box) != 4 {
			return nil, fmt.Errorf("detection %d: box has %d coordinates, want 4", i, len(det.Box))
		}
		if det.Confidence < d.minConfidence {
			continue
		}
		proposals = append(proposals, layout.Proposal{
			Label:      det.Label,
			Box:        layout.NormBox{X1: det.Box[0], Y1: det.Box[1], X2: det.Box[2], Y2: det.Box[3]},
			Confidence: det.Confidence,
		})
	}
	return proposals, nil
}
