// Package imaging loads template images and prepares regions of them for
// the models that read them.
//
// It covers decoding (PNG, JPEG, GIF), a path-keyed ImageCache, cropping of
// detected regions, OCR preparation (grayscale plus upscaling of short
// crops), PNG encoding, and Annotate, which draws numbered region outlines
// for inspecting detector output.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner. For
// regions, (x1,y1) is inclusive and (x2,y2) is exclusive.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions are stateless
// and never modify their input image.
//
// # Performance Considerations
//
// Cached images stay in memory until evicted. Long-running processes that
// analyze many templates should call Evict once an image is done.
package imaging
