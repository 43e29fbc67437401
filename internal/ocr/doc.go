// Package ocr reads template text with Tesseract (via gosseract/v2).
//
// TesseractReader measures the text capacity of a template: the crop of the
// largest text region is grayscaled, upscaled when short, encoded as PNG in
// memory and recognized. Whitespace in the result is collapsed, so the
// character count covers visible text and single separating spaces.
//
// BlockProposer exposes Tesseract's block-level page layout as "Text"
// proposals for the offline region detector.
//
// # Prerequisites
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Set TESSDATA_PREFIX (or Config.TessdataPrefix) when the *.traineddata files
// live outside the default search path.
//
// # Languages
//
// The default language is English ("eng"). Any installed Tesseract language
// code works, e.g. "deu", "fra", "spa", or combinations such as "eng+deu".
//
// # Performance
//
// A Tesseract client is created per call. OCR is CPU-bound; the matcher runs
// it once per analyzed template.
package ocr
