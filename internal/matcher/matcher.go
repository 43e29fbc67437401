// Package matcher ties template analysis and ad selection together.
package matcher

import (
	"context"
	"image"
	"path/filepath"
	"strings"

	"github.com/ironsheep/ad-template-matcher/internal/apperrors"
	"github.com/ironsheep/ad-template-matcher/internal/cache"
	"github.com/ironsheep/ad-template-matcher/internal/capacity"
	"github.com/ironsheep/ad-template-matcher/internal/imaging"
	"github.com/ironsheep/ad-template-matcher/internal/layout"
	"github.com/ironsheep/ad-template-matcher/internal/logging"
	"github.com/ironsheep/ad-template-matcher/internal/scoring"
)

// RegionDetector finds the labeled regions of a template image.
type RegionDetector interface {
	Detect(ctx context.Context, img image.Image) ([]layout.LabeledRegion, error)
}

// CapacityEstimator measures a template from its regions.
type CapacityEstimator interface {
	Estimate(ctx context.Context, img image.Image, regions []layout.LabeledRegion) (*capacity.Analysis, error)
}

// Service analyzes templates into the cache and selects templates for ads.
type Service struct {
	detector  RegionDetector
	estimator CapacityEstimator
	store     *cache.Store
	log       *logging.Logger
}

// New creates a Service.
func New(detector RegionDetector, estimator CapacityEstimator, store *cache.Store, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		detector:  detector,
		estimator: estimator,
		store:     store,
		log:       log,
	}
}

// Store returns the backing cache store.
func (s *Service) Store() *cache.Store {
	return s.store
}

// DetectRegions runs only the region detector.
func (s *Service) DetectRegions(ctx context.Context, img image.Image) ([]layout.LabeledRegion, error) {
	return s.detector.Detect(ctx, img)
}

// AnalyzeAndCache measures img and stores the result under templateID. Any
// failure leaves the cache untouched.
func (s *Service) AnalyzeAndCache(ctx context.Context, templateID string, img image.Image) (*capacity.Analysis, error) {
	if strings.TrimSpace(templateID) == "" {
		return nil, apperrors.InvalidInput("template id must not be empty")
	}

	regions, err := s.detector.Detect(ctx, img)
	if err != nil {
		return nil, withTemplate(err, templateID)
	}

	analysis, err := s.estimator.Estimate(ctx, img, regions)
	if err != nil {
		return nil, withTemplate(err, templateID)
	}
	analysis.TemplateID = templateID

	if err := s.store.Put(templateID, analysis.Metadata); err != nil {
		return nil, withTemplate(err, templateID)
	}

	s.log.Info("template cached",
		"template", templateID,
		"image_slots", analysis.Metadata.ImageSlots,
		"text_char_capacity", analysis.Metadata.TextCharCapacity,
		"regions", len(regions))

	return analysis, nil
}

// AnalyzeFile loads the image at path and analyzes it.
func (s *Service) AnalyzeFile(ctx context.Context, templateID, path string) (*capacity.Analysis, error) {
	img, err := imaging.LoadFile(path)
	if err != nil {
		return nil, withTemplate(err, templateID)
	}
	return s.AnalyzeAndCache(ctx, templateID, img)
}

// Select returns the best template for ad. An empty or missing cache is an
// apperrors.CodePrecondition error.
func (s *Service) Select(ctx context.Context, ad scoring.AdContent) (scoring.ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return scoring.ScoreResult{}, err
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		return scoring.ScoreResult{}, err
	}

	summary := scoring.Summarize(ad)
	best, ok := scoring.Select(summary, snap)
	if !ok {
		return scoring.ScoreResult{}, apperrors.NoTemplates()
	}

	s.log.Debug("template selected",
		"template", best.TemplateID,
		"score", best.Score,
		"num_photos", summary.NumPhotos,
		"text_length", summary.TextLength,
		"candidates", snap.Len())

	return best, nil
}

// Rank scores every cached template for ad, best first.
func (s *Service) Rank(ctx context.Context, ad scoring.AdContent) ([]scoring.ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	if snap.Len() == 0 {
		return nil, apperrors.NoTemplates()
	}
	return scoring.Rank(scoring.Summarize(ad), snap), nil
}

// Templates returns the cached templates in cache order.
func (s *Service) Templates() (cache.Snapshot, error) {
	return s.store.Snapshot()
}

func withTemplate(err error, templateID string) error {
	if e, ok := err.(*apperrors.Error); ok {
		return e.WithTemplate(templateID)
	}
	return err
}

// TemplateID forms a template id from a user-supplied name: surrounding
// whitespace is trimmed and suffix appended unless already present.
func TemplateID(name, suffix string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasSuffix(name, suffix) {
		return name
	}
	return name + suffix
}

// TemplateIDFromPath forms a template id from an image file name: the base
// name without its extension, plus suffix.
func TemplateIDFromPath(path, suffix string) string {
	base := filepath.Base(path)
	return TemplateID(strings.TrimSuffix(base, filepath.Ext(base)), suffix)
}
