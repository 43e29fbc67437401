package imaging

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Outline is one rectangle to draw on an annotated image.
type Outline struct {
	Rect  image.Rectangle
	Color string // "#RRGGBB" or "#RRGGBBAA"; red when empty or invalid
}

// AnnotateResult is an annotated image encoded for transport.
type AnnotateResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Annotate draws each outline onto a copy of img, two pixels wide, and tags
// it with its index in outlines so a caller can match boxes to a region list.
func Annotate(img image.Image, outlines []Outline) (*AnnotateResult, error) {
	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	labelColor := color.RGBA{255, 255, 255, 255}
	for i, o := range outlines {
		c, err := parseHexColor(o.Color)
		if err != nil {
			c = color.RGBA{255, 0, 0, 255}
		}
		r := o.Rect.Canon().Intersect(bounds)
		if r.Empty() {
			continue
		}
		drawOutline(result, r, c, 2)
		drawLabel(result, r.Min.X+3, r.Min.Y+3, strconv.Itoa(i), labelColor, c)
	}

	data, err := EncodePNG(result)
	if err != nil {
		return nil, err
	}
	return &AnnotateResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

func drawOutline(img *image.RGBA, r image.Rectangle, c color.RGBA, width int) {
	for i := 0; i < width; i++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			setClipped(img, x, r.Min.Y+i, c)
			setClipped(img, x, r.Max.Y-1-i, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			setClipped(img, r.Min.X+i, y, c)
			setClipped(img, r.Max.X-1-i, y, c)
		}
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA"; the leading '#' is
// optional.
func parseHexColor(hex string) (color.RGBA, error) {
	h := strings.TrimPrefix(hex, "#")
	alpha := uint8(255)
	if len(h) == 8 {
		a, err := strconv.ParseUint(h[6:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		alpha = uint8(a)
		h = h[:6]
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", hex)
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
}

// digitGlyphs is a 3x5 pixel font for region indexes.
var digitGlyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel draws text on a filled background at (x, y). Runes without a
// glyph leave a blank cell.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	const charWidth, labelHeight = 4, 7
	labelWidth := len(text) * charWidth

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := digitGlyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' {
						setClipped(img, cx+col, y+row, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
