package capacity

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/ad-template-matcher/internal/apperrors"
	"github.com/ironsheep/ad-template-matcher/internal/layout"
)

// stubClassifier returns labels in call order.
type stubClassifier struct {
	labels []string
	calls  int
	err    error
}

func (s *stubClassifier) Classify(_ context.Context, crop image.Image) (string, float64, error) {
	if s.err != nil {
		return "", 0, s.err
	}
	if crop.Bounds().Empty() {
		return "", 0, errors.New("empty crop passed to classifier")
	}
	label := s.labels[s.calls%len(s.labels)]
	s.calls++
	return label, 0.9, nil
}

type stubReader struct {
	text  string
	err   error
	sizes []image.Point
}

func (s *stubReader) Read(_ context.Context, crop image.Image) (string, error) {
	s.sizes = append(s.sizes, crop.Bounds().Size())
	return s.text, s.err
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func relevantOpts() Options {
	return Options{RelevantLabels: []string{"house exterior", "Living Room"}}
}

func TestEstimate(t *testing.T) {
	regions := []layout.LabeledRegion{
		{Label: "Picture", Box: layout.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		{Label: "Text", Box: layout.Box{X1: 0, Y1: 100, X2: 50, Y2: 120}},
		{Label: "Text", Box: layout.Box{X1: 0, Y1: 120, X2: 200, Y2: 200}},
		{Label: "photo", Box: layout.Box{X1: 100, Y1: 0, X2: 200, Y2: 100}},
		{Label: "Picture", Box: layout.Box{X1: 150, Y1: 150, X2: 180, Y2: 190}},
	}
	classifier := &stubClassifier{labels: []string{"house exterior", "living room", "logo"}}
	reader := &stubReader{text: "Spacious villa · 3 bedrooms"}

	a, err := NewEstimator(classifier, reader, relevantOpts(), nil).Estimate(context.Background(), testImage(), regions)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	if a.Metadata.ImageSlots != 2 {
		t.Errorf("ImageSlots = %d, want 2", a.Metadata.ImageSlots)
	}
	// Rune count, not byte count: "·" is two bytes.
	if a.Metadata.TextCharCapacity != 27 {
		t.Errorf("TextCharCapacity = %d, want 27", a.Metadata.TextCharCapacity)
	}
	if a.TextRegion == nil || *a.TextRegion != regions[2] {
		t.Errorf("TextRegion = %+v, want largest text region", a.TextRegion)
	}
	if len(reader.sizes) != 1 || reader.sizes[0] != image.Pt(200, 80) {
		t.Errorf("reader saw crops %v, want one 200x80 crop", reader.sizes)
	}
	if len(a.Pictures) != 3 || a.Pictures[2].Relevant {
		t.Errorf("Pictures = %+v", a.Pictures)
	}
	if a.Width != 200 || a.Height != 200 {
		t.Errorf("size = %dx%d", a.Width, a.Height)
	}
}

func TestEstimate_SkipsEmptyCrops(t *testing.T) {
	regions := []layout.LabeledRegion{
		{Label: "Picture", Box: layout.Box{X1: 10, Y1: 10, X2: 10, Y2: 90}},
		{Label: "Picture", Box: layout.Box{X1: 300, Y1: 300, X2: 400, Y2: 400}},
		{Label: "Picture", Box: layout.Box{X1: 0, Y1: 0, X2: 50, Y2: 50}},
	}
	classifier := &stubClassifier{labels: []string{"house exterior"}}

	a, err := NewEstimator(classifier, &stubReader{}, relevantOpts(), nil).Estimate(context.Background(), testImage(), regions)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if classifier.calls != 1 {
		t.Errorf("classifier called %d times, want 1", classifier.calls)
	}
	if a.Metadata.ImageSlots != 1 {
		t.Errorf("ImageSlots = %d, want 1", a.Metadata.ImageSlots)
	}
	if !a.Pictures[0].Skipped || !a.Pictures[1].Skipped || a.Pictures[2].Skipped {
		t.Errorf("Skipped flags wrong: %+v", a.Pictures)
	}
}

func TestEstimate_InvertedPictureBoxNotCounted(t *testing.T) {
	regions := []layout.LabeledRegion{
		{Label: "Picture", Box: layout.Box{X1: 10, Y1: 10, X2: 60, Y2: 60}},
		{Label: "Picture", Box: layout.Box{X1: 60, Y1: 60, X2: 10, Y2: 10}},
		{Label: "Picture", Box: layout.Box{X1: 150, Y1: 20, X2: 120, Y2: 80}},
	}
	classifier := &stubClassifier{labels: []string{"living room"}}

	a, err := NewEstimator(classifier, &stubReader{}, relevantOpts(), nil).Estimate(context.Background(), testImage(), regions)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if classifier.calls != 1 {
		t.Errorf("classifier called %d times, want 1", classifier.calls)
	}
	if a.Metadata.ImageSlots != 1 {
		t.Errorf("ImageSlots = %d, want 1", a.Metadata.ImageSlots)
	}
	if len(a.Pictures) != 3 || a.Pictures[0].Skipped || !a.Pictures[1].Skipped || !a.Pictures[2].Skipped {
		t.Errorf("Pictures = %+v", a.Pictures)
	}
}

func TestEstimate_NoTextRegion(t *testing.T) {
	regions := []layout.LabeledRegion{
		{Label: "Picture", Box: layout.Box{X1: 0, Y1: 0, X2: 100, Y2: 100}},
	}
	reader := &stubReader{text: "never read"}

	a, err := NewEstimator(&stubClassifier{labels: []string{"kitchen"}}, reader, relevantOpts(), nil).
		Estimate(context.Background(), testImage(), regions)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if a.Metadata.TextCharCapacity != 0 {
		t.Errorf("TextCharCapacity = %d, want 0", a.Metadata.TextCharCapacity)
	}
	if a.Metadata.ImageSlots != 0 {
		t.Errorf("ImageSlots = %d, want 0 (kitchen not relevant)", a.Metadata.ImageSlots)
	}
	if len(reader.sizes) != 0 {
		t.Error("reader must not be called without a text region")
	}
}

func TestEstimate_RequireTextRegion(t *testing.T) {
	opts := relevantOpts()
	opts.RequireTextRegion = true

	_, err := NewEstimator(&stubClassifier{labels: []string{"x"}}, &stubReader{}, opts, nil).
		Estimate(context.Background(), testImage(), nil)

	if !errors.Is(err, apperrors.ErrRegionNotFound) {
		t.Errorf("expected REGION_NOT_FOUND, got %v", err)
	}
}

func TestEstimate_CollaboratorFailures(t *testing.T) {
	regions := []layout.LabeledRegion{
		{Label: "Text", Box: layout.Box{X1: 0, Y1: 0, X2: 100, Y2: 20}},
		{Label: "Picture", Box: layout.Box{X1: 0, Y1: 50, X2: 100, Y2: 150}},
	}

	tests := []struct {
		name       string
		classifier *stubClassifier
		reader     *stubReader
		wantWho    string
	}{
		{
			name:       "reader",
			classifier: &stubClassifier{labels: []string{"garden"}},
			reader:     &stubReader{err: errors.New("tesseract crashed")},
			wantWho:    "text-reader",
		},
		{
			name:       "classifier",
			classifier: &stubClassifier{err: errors.New("timeout")},
			reader:     &stubReader{text: "ok"},
			wantWho:    "classifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEstimator(tt.classifier, tt.reader, relevantOpts(), nil).
				Estimate(context.Background(), testImage(), regions)
			if !errors.Is(err, apperrors.ErrCollaboratorFailure) {
				t.Fatalf("expected COLLABORATOR_FAILURE, got %v", err)
			}
			var e *apperrors.Error
			errors.As(err, &e)
			if e.Details["collaborator"] != tt.wantWho {
				t.Errorf("collaborator = %v, want %s", e.Details["collaborator"], tt.wantWho)
			}
		})
	}
}

func TestIsRelevant(t *testing.T) {
	e := NewEstimator(nil, nil, relevantOpts(), nil)

	tests := []struct {
		label string
		want  bool
	}{
		{"house exterior", true},
		{"  HOUSE EXTERIOR ", true},
		{"living room", true},
		{"logo", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := e.IsRelevant(tt.label); got != tt.want {
			t.Errorf("IsRelevant(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}
