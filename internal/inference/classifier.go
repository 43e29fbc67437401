package inference

import (
	"context"
	"fmt"
	"image"
)

// ClassificationClient labels crops with a remote zero-shot image
// classifier. Candidate labels are sent as repeated "labels" form fields and
// the service replies with {"label","confidence"}.
type ClassificationClient struct {
	client
	labels []string
}

// NewClassificationClient creates a client that asks the model at url to
// choose among labels.
func NewClassificationClient(url string, labels []string, opts ...Option) *ClassificationClient {
	return &ClassificationClient{client: newClient(url, opts), labels: labels}
}

// Classify implements capacity.Classifier.
func (c *ClassificationClient) Classify(ctx context.Context, crop image.Image) (string, float64, error) {
	var result struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	fields := map[string][]string{"labels": c.labels}
	if err := c.post(ctx, crop, fields, &result); err != nil {
		return "", 0, err
	}
	if result.Label == "" {
		return "", 0, fmt.Errorf("classifier returned no label")
	}
	return result.Label, result.Confidence, nil
}
