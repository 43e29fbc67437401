package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/ironsheep/ad-template-matcher/internal/apperrors"
)

// ImageCache provides thread-safe caching of decoded template images.
//
// Template analysis and region inspection frequently touch the same file
// more than once (detect, then crop every region, then OCR). The cache keeps
// the decoded image.Image keyed by path so the file is decoded once.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or
// Clear(). The analysis pipeline evicts a path after caching its metadata.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG and GIF. A file that exists but cannot be
// decoded yields an apperrors.CodeInvalidImage error; a missing file yields
// the same code since the caller supplied an unusable image either way.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// LoadFile decodes an image file without caching it.
func LoadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.InvalidImage(path, fmt.Errorf("failed to open image: %w", err))
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.InvalidImage(path, fmt.Errorf("failed to decode image: %w", err))
	}
	if img.Bounds().Empty() {
		return nil, apperrors.InvalidImage(path, fmt.Errorf("image has no pixels"))
	}
	return img, nil
}

// Decode decodes an in-memory image. source names the origin in errors.
func Decode(data []byte, source string) (image.Image, error) {
	if len(data) == 0 {
		return nil, apperrors.InvalidImage(source, fmt.Errorf("empty image data"))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.InvalidImage(source, fmt.Errorf("failed to decode image: %w", err))
	}
	if img.Bounds().Empty() {
		return nil, apperrors.InvalidImage(source, fmt.Errorf("image has no pixels"))
	}
	return img, nil
}
