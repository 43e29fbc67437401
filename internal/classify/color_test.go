package classify

import (
	"context"
	"image"
	"image/color"
	"testing"
)

// stripedImage paints horizontal bands of equal height.
func stripedImage(width, height int, bands ...color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		c := bands[y*len(bands)/height]
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestClassify(t *testing.T) {
	skyBlue := color.RGBA{100, 160, 230, 255}
	grass := color.RGBA{60, 150, 60, 255}
	beige := color.RGBA{200, 180, 150, 255}
	walnut := color.RGBA{120, 80, 50, 255}
	cream := color.RGBA{240, 235, 225, 255}
	umber := color.RGBA{60, 40, 30, 255}

	tests := []struct {
		name string
		img  image.Image
		want string
	}{
		{"solid logo color", stripedImage(60, 40, color.RGBA{200, 30, 30, 255}), LabelGraphic},
		{"garden under sky", stripedImage(80, 80, skyBlue, grass), LabelExterior},
		{"facade with sky", stripedImage(80, 90, skyBlue, beige, walnut), LabelExterior},
		{"living room tones", stripedImage(80, 80, beige, walnut, cream, umber), LabelInterior},
	}

	c := NewColorClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, conf, err := c.Classify(context.Background(), tt.img)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if label != tt.want {
				t.Errorf("label = %q, want %q (stats %+v)", label, tt.want, Measure(tt.img))
			}
			if conf < 0 || conf > 1 {
				t.Errorf("confidence %v out of range", conf)
			}
		})
	}
}

func TestClassify_Transparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))

	label, _, err := NewColorClassifier().Classify(context.Background(), img)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if label != LabelGraphic {
		t.Errorf("label = %q, want %q", label, LabelGraphic)
	}
}

func TestClassify_CustomLabels(t *testing.T) {
	c := NewColorClassifier()
	c.ExteriorLabel = "garden"

	label, _, _ := c.Classify(context.Background(), stripedImage(40, 40, color.RGBA{100, 160, 230, 255}, color.RGBA{60, 150, 60, 255}))
	if label != "garden" {
		t.Errorf("label = %q, want garden", label)
	}
}

func TestClassify_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewColorClassifier().Classify(ctx, stripedImage(4, 4, color.White)); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestMeasure(t *testing.T) {
	st := Measure(stripedImage(50, 50, color.RGBA{100, 160, 230, 255}, color.RGBA{60, 150, 60, 255}))

	if st.Samples != 2500 {
		t.Errorf("Samples = %d, want 2500", st.Samples)
	}
	if st.SkyShare != 0.5 || st.GreenShare != 0.5 {
		t.Errorf("shares = %v/%v, want 0.5/0.5", st.SkyShare, st.GreenShare)
	}
	if st.Spread <= 0 {
		t.Errorf("Spread = %v, want > 0", st.Spread)
	}
}

func TestMeasure_Sampling(t *testing.T) {
	st := Measure(stripedImage(400, 400, color.White))
	if st.Samples != 10000 {
		t.Errorf("Samples = %d, want 10000 (stride 4)", st.Samples)
	}
	if st.Spread > 1e-9 {
		t.Errorf("Spread = %v for a solid image", st.Spread)
	}
}

func TestMeasure_Empty(t *testing.T) {
	if st := Measure(image.NewRGBA(image.Rectangle{})); st.Samples != 0 {
		t.Errorf("Samples = %d, want 0", st.Samples)
	}
}
