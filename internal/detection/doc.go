// Package detection finds layout regions in ad templates without a
// detection model.
//
// It is the offline fallback for the region detector: when no detection
// service is configured, HeuristicProposer supplies the labeled boxes that
// layout.Detector deduplicates.
//
// # Pipeline
//
//  1. Edge detection: grayscale, Gaussian blur and Sobel magnitude, then a
//     threshold, giving a binary EdgeMap
//  2. Pictures: 8-connected edge components whose bounding boxes have a
//     plausible size and aspect ratio. Placeholder frames and photo
//     texture both form one component per slot
//  3. Text: sliding windows with medium edge density and mostly short
//     horizontal runs, skipping windows inside pictures. Options.Text can
//     replace this step with an OCR block proposer
//  4. Normalization: boxes are divided by the image size so the output
//     matches what a detection model returns
//
// # Coordinate System
//
// Bounds use the image convention: origin at the top-left, inclusive
// top-left and exclusive bottom-right corners.
//
// # Limitations
//
// The heuristics suit flat, high-contrast templates. Busy backgrounds and
// pictures touching each other merge into one component.
package detection
