package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/ad-template-matcher/internal/imaging"
	"github.com/ironsheep/ad-template-matcher/internal/layout"
)

// DefaultMinHeight is the crop height below which text is upscaled before
// recognition.
const DefaultMinHeight = 64

// Bounds is a rectangle in crop pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Word is one recognized word with its location and confidence (0-1).
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Bounds     Bounds  `json:"bounds"`
}

// TesseractReader recognizes text in template crops. It implements
// capacity.TextReader.
type TesseractReader struct {
	// Language is the Tesseract language code, "eng" by default.
	Language string
	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string
	// MinHeight triggers upscaling of short crops.
	MinHeight int
}

// NewTesseractReader creates a reader for language.
func NewTesseractReader(language, tessdataPrefix string) *TesseractReader {
	if language == "" {
		language = "eng"
	}
	return &TesseractReader{
		Language:       language,
		TessdataPrefix: tessdataPrefix,
		MinHeight:      DefaultMinHeight,
	}
}

// Read returns the text of crop with all whitespace runs, line breaks
// included, collapsed to single spaces. A crop without text yields "".
func (r *TesseractReader) Read(ctx context.Context, crop image.Image) (string, error) {
	client, err := r.newClient(ctx, crop)
	if err != nil {
		return "", err
	}
	defer client.Close()

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return NormalizeText(text), nil
}

// ReadWords returns word-level results for crop. Bounds are relative to the
// prepared (possibly upscaled) crop scaled back to crop coordinates.
func (r *TesseractReader) ReadWords(ctx context.Context, crop image.Image) ([]Word, error) {
	client, err := r.newClient(ctx, crop)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get word boxes: %w", err)
	}

	scale := r.scaleOf(crop)
	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		words = append(words, Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: int(float64(box.Box.Min.X) / scale),
				Y1: int(float64(box.Box.Min.Y) / scale),
				X2: int(float64(box.Box.Max.X) / scale),
				Y2: int(float64(box.Box.Max.Y) / scale),
			},
		})
	}
	return words, nil
}

func (r *TesseractReader) newClient(ctx context.Context, crop image.Image) (*gosseract.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := imaging.EncodePNG(imaging.PrepareForOCR(crop, r.MinHeight))
	if err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}

	client := gosseract.NewClient()
	if r.TessdataPrefix != "" {
		client.SetTessdataPrefix(r.TessdataPrefix)
	}
	if err := client.SetLanguage(r.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	return client, nil
}

// scaleOf mirrors the upscale factor applied by imaging.PrepareForOCR.
func (r *TesseractReader) scaleOf(crop image.Image) float64 {
	h := crop.Bounds().Dy()
	if h <= 0 || h >= r.MinHeight {
		return 1
	}
	return float64(r.MinHeight) / float64(h)
}

// NormalizeText collapses whitespace so the character count reflects the
// visible text only.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// BlockProposer proposes "Text" regions from Tesseract's block-level layout
// analysis. It implements layout.Proposer.
type BlockProposer struct {
	Language       string
	TessdataPrefix string
	// MinConfidence (0-1) filters weak blocks.
	MinConfidence float64
}

// Propose returns one normalized "Text" proposal per block.
func (p *BlockProposer) Propose(ctx context.Context, img image.Image) ([]layout.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if p.TessdataPrefix != "" {
		client.SetTessdataPrefix(p.TessdataPrefix)
	}
	if p.Language != "" {
		if err := client.SetLanguage(p.Language); err != nil {
			return nil, fmt.Errorf("failed to set language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_BLOCK)
	if err != nil {
		return nil, fmt.Errorf("failed to get text regions: %w", err)
	}

	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	proposals := make([]layout.Proposal, 0, len(boxes))
	for _, box := range boxes {
		confidence := float64(box.Confidence) / 100.0
		if confidence < p.MinConfidence || strings.TrimSpace(box.Word) == "" {
			continue
		}
		proposals = append(proposals, layout.Proposal{
			Label: "Text",
			Box: layout.NormBox{
				X1: float64(box.Box.Min.X) / w,
				Y1: float64(box.Box.Min.Y) / h,
				X2: float64(box.Box.Max.X) / w,
				Y2: float64(box.Box.Max.Y) / h,
			},
			Confidence: confidence,
		})
	}
	return proposals, nil
}
