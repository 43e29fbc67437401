package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropRegion extracts rect from img, clipped to the image bounds.
//
// The second result is false when the clipped region has no pixels; callers
// skip such regions rather than passing an empty image to a model. The
// returned image has its origin at (0,0).
func CropRegion(img image.Image, rect image.Rectangle) (image.Image, bool) {
	r := rect.Intersect(img.Bounds())
	if r.Empty() {
		return nil, false
	}
	return imaging.Crop(img, r), true
}

// PrepareForOCR converts a crop to grayscale and upscales it when its height
// is below minHeight. Tesseract needs roughly 20px glyphs to be reliable.
func PrepareForOCR(img image.Image, minHeight int) image.Image {
	gray := imaging.Grayscale(img)
	if h := gray.Bounds().Dy(); h > 0 && h < minHeight {
		gray = imaging.Resize(gray, 0, minHeight, imaging.Lanczos)
	}
	return gray
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// CropResult contains a cropped region encoded for transport.
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts a rectangular region from an image and encodes it as base64
// PNG, optionally scaled. Unlike CropRegion the region must lie within the
// image.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	data, err := EncodePNG(cropped)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}
