// Package layout detects the structural regions of a template image.
//
// A Proposer (the detection model) returns labeled boxes in normalized
// coordinates. Detector scales them to pixels and removes near-duplicate
// picture regions with RemoveSupersets, the single containment-based
// deduplication routine used by the whole pipeline.
//
// # Region Labels
//
// Labels follow the document-layout vocabulary of the detection model
// ("Text", "Picture", "Title", "Caption", ...). Two predicates give labels
// meaning downstream:
//
//   - IsPictureLike: label contains "picture", "photo" or "image"
//     (case-insensitive). Only these regions are deduplicated and counted as
//     picture slots.
//   - IsText: label is exactly "text" (case-insensitive). The largest such
//     region determines the template's text capacity.
//
// All other regions pass through untouched.
//
// # Containment
//
// Deduplication uses intersection(R, R') / area(R), not IOU. The
// denominator is the candidate's own area, which detects a frame nested
// inside a larger frame regardless of how much bigger the outer one is.
// Degenerate (zero-area) boxes are defined as never contained.
package layout
