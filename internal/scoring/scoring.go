// Package scoring ranks cached templates against ad content.
//
// The score of a template is 0.6*PhotoScore + 0.4*TextScore, in [0,1].
// Selection keeps the first template in cache order among equal scores.
package scoring

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ironsheep/ad-template-matcher/internal/cache"
)

const (
	PhotoWeight = 0.6
	TextWeight  = 0.4
)

// AdContent is the raw advertisement submitted for selection.
type AdContent struct {
	Headline    string   `json:"headline"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
	Logo        string   `json:"logo"`
}

// AdContentSummary is the part of an ad the scorer looks at.
type AdContentSummary struct {
	NumPhotos  int  `json:"num_photos"`
	TextLength int  `json:"text_length"`
	HasLogo    bool `json:"has_logo"`
}

// ScoreResult is the score of one template.
type ScoreResult struct {
	TemplateID string  `json:"template_id"`
	Score      float64 `json:"score"`
}

// Summarize derives the scoring summary of an ad. Text length counts the
// characters of the trimmed description.
func Summarize(ad AdContent) AdContentSummary {
	return AdContentSummary{
		NumPhotos:  len(ad.Photos),
		TextLength: utf8.RuneCountInString(strings.TrimSpace(ad.Description)),
		HasLogo:    ad.Logo != "",
	}
}

// PhotoScore rates how well slots fits numPhotos. An ad without photos fits
// only a template without slots.
func PhotoScore(numPhotos, slots int) float64 {
	switch {
	case numPhotos <= 0:
		if slots <= 0 {
			return 1.0
		}
		return 0.0
	case slots < numPhotos:
		return float64(slots) / float64(numPhotos)
	default:
		return float64(numPhotos) / float64(slots)
	}
}

// TextScore is the fraction of the ad text the template can hold. Empty text
// scores 0.
func TextScore(textLength, capacity int) float64 {
	if textLength < 0 {
		textLength = 0
	}
	return float64(minInt(textLength, capacity)) / float64(maxInt(1, textLength))
}

// Score combines the photo and text fit of one template.
func Score(md cache.TemplateMetadata, ad AdContentSummary) float64 {
	return PhotoWeight*PhotoScore(ad.NumPhotos, md.ImageSlots) +
		TextWeight*TextScore(ad.TextLength, md.TextCharCapacity)
}

// Select returns the best scoring template in a single pass over snap. A
// later template replaces the current best only with a strictly greater
// score. The bool is false when snap is empty.
func Select(ad AdContentSummary, snap cache.Snapshot) (ScoreResult, bool) {
	best := ScoreResult{Score: -1}
	found := false
	for _, e := range snap.Entries() {
		s := Score(e.Metadata, ad)
		if s > best.Score {
			best = ScoreResult{TemplateID: e.ID, Score: s}
			found = true
		}
	}
	if !found {
		return ScoreResult{}, false
	}
	return best, true
}

// Rank scores every template, best first. Equal scores keep cache order.
func Rank(ad AdContentSummary, snap cache.Snapshot) []ScoreResult {
	entries := snap.Entries()
	results := make([]ScoreResult, len(entries))
	for i, e := range entries {
		results[i] = ScoreResult{TemplateID: e.ID, Score: Score(e.Metadata, ad)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
