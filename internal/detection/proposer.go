package detection

import (
	"context"
	"fmt"
	"image"

	"github.com/ironsheep/ad-template-matcher/internal/layout"
)

// Labels emitted by HeuristicProposer.
const (
	LabelPicture = "Picture"
	LabelText    = "Text"
)

// Options tunes HeuristicProposer.
type Options struct {
	// EdgeThreshold is the Sobel magnitude (0-255) above which a pixel is an
	// edge.
	EdgeThreshold uint8
	// BlurRadius smooths the image before edge detection; 0 disables it.
	BlurRadius float64
	// MinPictureFraction is the smallest picture box, as a share of the
	// image area.
	MinPictureFraction float64
	// MaxPictureFraction drops boxes that span the whole canvas, such as a
	// page border.
	MaxPictureFraction float64
	// MinSideFraction is the shortest allowed picture side, as a share of
	// the matching image side.
	MinSideFraction float64
	// MaxAspect is the largest allowed long-side/short-side ratio.
	MaxAspect float64
	// MinTextConfidence filters edge-density text windows.
	MinTextConfidence float64
	// Text replaces the edge-density text finder when set, for example with
	// an OCR block proposer.
	Text layout.Proposer
}

// DefaultOptions returns settings tuned for flat ad templates.
func DefaultOptions() Options {
	return Options{
		EdgeThreshold:      60,
		BlurRadius:         1.0,
		MinPictureFraction: 0.02,
		MaxPictureFraction: 0.9,
		MinSideFraction:    0.08,
		MaxAspect:          6,
		MinTextConfidence:  0.3,
	}
}

// HeuristicProposer finds picture placeholders and text blocks without a
// detection model. Pictures are connected edge components with a
// plausible size and shape; text comes from edge-density windows outside
// the pictures, or from Options.Text. It implements layout.Proposer.
type HeuristicProposer struct {
	opts Options
}

// NewHeuristicProposer creates a proposer. Zero fields in opts fall back to
// DefaultOptions.
func NewHeuristicProposer(opts Options) *HeuristicProposer {
	def := DefaultOptions()
	if opts.EdgeThreshold == 0 {
		opts.EdgeThreshold = def.EdgeThreshold
	}
	if opts.MinPictureFraction <= 0 {
		opts.MinPictureFraction = def.MinPictureFraction
	}
	if opts.MaxPictureFraction <= 0 {
		opts.MaxPictureFraction = def.MaxPictureFraction
	}
	if opts.MinSideFraction <= 0 {
		opts.MinSideFraction = def.MinSideFraction
	}
	if opts.MaxAspect <= 0 {
		opts.MaxAspect = def.MaxAspect
	}
	if opts.MinTextConfidence <= 0 {
		opts.MinTextConfidence = def.MinTextConfidence
	}
	return &HeuristicProposer{opts: opts}
}

// Propose returns normalized "Picture" and "Text" proposals for img.
func (p *HeuristicProposer) Propose(ctx context.Context, img image.Image) ([]layout.Proposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width == 0 || height == 0 {
		return nil, nil
	}

	edges := DetectEdges(img, p.opts.EdgeThreshold, p.opts.BlurRadius)
	pictures := p.pictures(edges, width, height)

	proposals := make([]layout.Proposal, 0, len(pictures))
	exclude := make([]Bounds, 0, len(pictures))
	for _, c := range pictures {
		exclude = append(exclude, c.Bounds)
		proposals = append(proposals, layout.Proposal{
			Label:      LabelPicture,
			Box:        normalize(c.Bounds, width, height),
			Confidence: 0.5 + 0.5*c.Rectangularity(),
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.opts.Text != nil {
		text, err := p.opts.Text.Propose(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("text proposer failed: %w", err)
		}
		return append(proposals, text...), nil
	}

	for _, r := range DetectTextRegions(edges, p.opts.MinTextConfidence, exclude) {
		proposals = append(proposals, layout.Proposal{
			Label:      LabelText,
			Box:        normalize(r.Bounds, width, height),
			Confidence: r.Confidence,
		})
	}
	return proposals, nil
}

func (p *HeuristicProposer) pictures(edges EdgeMap, width, height int) []Component {
	imageArea := float64(width * height)
	minW := p.opts.MinSideFraction * float64(width)
	minH := p.opts.MinSideFraction * float64(height)

	var out []Component
	for _, c := range FindComponents(edges, 8) {
		w := float64(c.Bounds.Width())
		h := float64(c.Bounds.Height())
		share := float64(c.Bounds.Area()) / imageArea
		if share < p.opts.MinPictureFraction || share > p.opts.MaxPictureFraction {
			continue
		}
		if w < minW || h < minH {
			continue
		}
		if w/h > p.opts.MaxAspect || h/w > p.opts.MaxAspect {
			continue
		}
		out = append(out, c)
	}
	return out
}

func normalize(b Bounds, width, height int) layout.NormBox {
	return layout.NormBox{
		X1: float64(b.X1) / float64(width),
		Y1: float64(b.Y1) / float64(height),
		X2: float64(b.X2) / float64(width),
		Y2: float64(b.Y2) / float64(height),
	}
}
