package main

import (
	"github.com/ironsheep/ad-template-matcher/internal/cache"
	"github.com/ironsheep/ad-template-matcher/internal/capacity"
	"github.com/ironsheep/ad-template-matcher/internal/classify"
	"github.com/ironsheep/ad-template-matcher/internal/config"
	"github.com/ironsheep/ad-template-matcher/internal/detection"
	"github.com/ironsheep/ad-template-matcher/internal/inference"
	"github.com/ironsheep/ad-template-matcher/internal/layout"
	"github.com/ironsheep/ad-template-matcher/internal/logging"
	"github.com/ironsheep/ad-template-matcher/internal/matcher"
	"github.com/ironsheep/ad-template-matcher/internal/ocr"
)

// buildProposer picks the layout detection service when configured, the
// offline heuristics otherwise. Offline text blocks come from Tesseract's
// layout analysis.
func buildProposer(cfg *config.Config) layout.Proposer {
	if cfg.DetectorURL != "" {
		return inference.NewDetectionClient(cfg.DetectorURL, inference.WithTimeout(cfg.InferenceTimeout))
	}
	opts := detection.DefaultOptions()
	opts.Text = &ocr.BlockProposer{
		Language:       cfg.OCRLanguage,
		TessdataPrefix: cfg.TessdataPrefix,
		MinConfidence:  0.3,
	}
	return detection.NewHeuristicProposer(opts)
}

// buildClassifier picks the classification service when configured, the
// color statistics classifier otherwise.
func buildClassifier(cfg *config.Config) capacity.Classifier {
	if cfg.ClassifierURL != "" {
		return inference.NewClassificationClient(cfg.ClassifierURL, cfg.CandidateLabels, inference.WithTimeout(cfg.InferenceTimeout))
	}
	return classify.NewColorClassifier()
}

func buildService(cfg *config.Config, log *logging.Logger) *matcher.Service {
	detector := layout.NewDetector(buildProposer(cfg), cfg.DedupThreshold, log.With("layout"))
	estimator := capacity.NewEstimator(
		buildClassifier(cfg),
		ocr.NewTesseractReader(cfg.OCRLanguage, cfg.TessdataPrefix),
		capacity.Options{
			RelevantLabels:    cfg.RelevantLabels,
			RequireTextRegion: cfg.RequireTextRegion,
		},
		log.With("capacity"),
	)
	return matcher.New(detector, estimator, cache.NewStore(cfg.CachePath), log.With("matcher"))
}
