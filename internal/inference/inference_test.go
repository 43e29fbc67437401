package inference

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/ad-template-matcher/internal/layout"
)

func testCrop() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{10, 20, 30, 255})
		}
	}
	return img
}

// modelServer checks the multipart upload and replies with body.
func modelServer(t *testing.T, body interface{}, inspect func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		img, err := png.Decode(f)
		if err != nil {
			t.Errorf("upload is not a PNG: %v", err)
		} else if img.Bounds().Size() != image.Pt(8, 6) {
			t.Errorf("uploaded size = %v", img.Bounds().Size())
		}
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDetectionClient_Propose(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"detections": []map[string]interface{}{
			{"label": "Picture", "box": []float64{0.1, 0.2, 0.5, 0.6}, "confidence": 0.92},
			{"label": "Text", "box": []float64{0, 0.7, 1, 0.9}, "confidence": 0.3},
		},
	}, nil)

	got, err := NewDetectionClient(srv.URL).Propose(context.Background(), testCrop())
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}

	want := []layout.Proposal{
		{Label: "Picture", Box: layout.NormBox{X1: 0.1, Y1: 0.2, X2: 0.5, Y2: 0.6}, Confidence: 0.92},
		{Label: "Text", Box: layout.NormBox{X1: 0, Y1: 0.7, X2: 1, Y2: 0.9}, Confidence: 0.3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Propose = %+v, want %+v", got, want)
	}
}

func TestDetectionClient_MinConfidence(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"detections": []map[string]interface{}{
			{"label": "Picture", "box": []float64{0, 0, 1, 1}, "confidence": 0.9},
			{"label": "Picture", "box": []float64{0, 0, 1, 1}, "confidence": 0.2},
		},
	}, nil)

	c := NewDetectionClient(srv.URL)
	c.SetMinConfidence(0.5)
	got, err := c.Propose(context.Background(), testCrop())
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}
	if len(got) != 1 || got[0].Confidence != 0.9 {
		t.Errorf("Propose = %+v", got)
	}
}

func TestDetectionClient_BadBox(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"detections": []map[string]interface{}{
			{"label": "Picture", "box": []float64{0, 0, 1}},
		},
	}, nil)

	if _, err := NewDetectionClient(srv.URL).Propose(context.Background(), testCrop()); err == nil {
		t.Error("expected error for a 3-coordinate box")
	}
}

func TestClassificationClient_Classify(t *testing.T) {
	labels := []string{"house exterior", "room interior", "logo"}
	srv := modelServer(t, map[string]interface{}{"label": "room interior", "confidence": 0.77}, func(r *http.Request) {
		if got := r.MultipartForm.Value["labels"]; !reflect.DeepEqual(got, labels) {
			t.Errorf("labels = %v, want %v", got, labels)
		}
	})

	label, conf, err := NewClassificationClient(srv.URL, labels).Classify(context.Background(), testCrop())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if label != "room interior" || conf != 0.77 {
		t.Errorf("Classify = %q %v", label, conf)
	}
}

func TestClassificationClient_EmptyLabel(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{"confidence": 0.1}, nil)
	if _, _, err := NewClassificationClient(srv.URL, nil).Classify(context.Background(), testCrop()); err == nil {
		t.Error("expected error for a missing label")
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			},
			wantMsg: "status 503",
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>"))
			},
			wantMsg: "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewDetectionClient(srv.URL).Propose(context.Background(), testCrop())
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %v, want containing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, _, err := NewClassificationClient(srv.URL, nil, WithTimeout(50*time.Millisecond)).
		Classify(context.Background(), testCrop())
	if err == nil {
		t.Error("expected timeout error")
	}
}

func TestClient_ContextCancel(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{"detections": []interface{}{}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewDetectionClient(srv.URL).Propose(ctx, testCrop()); err == nil {
		t.Error("expected error for a cancelled context")
	}
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/detect/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := NewDetectionClient(srv.URL + "/detect").CheckHealth(context.Background()); err != nil {
		t.Errorf("CheckHealth failed: %v", err)
	}
	if err := NewDetectionClient(srv.URL + "/other").CheckHealth(context.Background()); err == nil {
		t.Error("expected unhealthy for 404")
	}
}
