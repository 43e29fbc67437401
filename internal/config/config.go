// Package config loads template matcher settings from the environment.
//
// Values come from, in order of precedence: process environment, a .env file
// in the working directory, built-in defaults. The classifier label vocabulary
// can additionally be supplied as a YAML file named by LABELS_FILE.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultRelevantLabels are the classifier labels counted as usable picture
// slots: real-estate interior and exterior imagery.
var DefaultRelevantLabels = []string{
	"house exterior",
	"building facade",
	"apartment building",
	"garden",
	"swimming pool",
	"room interior",
	"living room",
	"bedroom",
	"kitchen",
	"bathroom",
	"dining room",
}

// DefaultCandidateLabels is the vocabulary sent to a zero-shot classifier.
// It is the relevant set plus distractors.
var DefaultCandidateLabels = append(append([]string{}, DefaultRelevantLabels...),
	"logo",
	"person",
	"text",
	"graphic",
	"map",
)

// Config holds all settings.
type Config struct {
	// Template cache
	CachePath   string
	TemplateDir string
	// Suffix appended to uploaded template names to form the template id.
	TemplateIDSuffix string

	// HTTP boundary
	HTTPAddr       string
	MaxUploadBytes int64

	// Perception collaborators. Empty URLs select the offline heuristics.
	DetectorURL      string
	ClassifierURL    string
	InferenceTimeout time.Duration
	OCRLanguage      string
	TessdataPrefix   string

	// Analysis policy
	RequireTextRegion bool
	DedupThreshold    float64

	// Label vocabulary
	LabelsFile      string
	RelevantLabels  []string
	CandidateLabels []string

	// Watcher
	WatchDebounce time.Duration

	LogLevel string
}

// labelsFile is the YAML document named by LABELS_FILE.
type labelsFile struct {
	RelevantLabels  []string `yaml:"relevant_labels"`
	CandidateLabels []string `yaml:"candidate_labels"`
}

// Load reads configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		CachePath:         getEnvOrDefault("TEMPLATE_CACHE_PATH", "./cache/layout_metadata.json"),
		TemplateDir:       getEnvOrDefault("TEMPLATE_DIR", "./templates"),
		TemplateIDSuffix:  getEnvOrDefault("TEMPLATE_ID_SUFFIX", ".indt"),
		HTTPAddr:          getEnvOrDefault("HTTP_ADDR", ":8000"),
		MaxUploadBytes:    getEnvAsInt64OrDefault("MAX_UPLOAD_BYTES", 50<<20),
		DetectorURL:       getEnvOrDefault("DETECTOR_URL", ""),
		ClassifierURL:     getEnvOrDefault("CLASSIFIER_URL", ""),
		InferenceTimeout:  getEnvAsDurationOrDefault("INFERENCE_TIMEOUT", 0),
		OCRLanguage:       getEnvOrDefault("OCR_LANGUAGE", "eng"),
		TessdataPrefix:    getEnvOrDefault("TESSDATA_PREFIX", ""),
		RequireTextRegion: getEnvAsBoolOrDefault("REQUIRE_TEXT_REGION", false),
		DedupThreshold:    getEnvAsFloatOrDefault("DEDUP_THRESHOLD", 0.95),
		LabelsFile:        getEnvOrDefault("LABELS_FILE", ""),
		RelevantLabels:    append([]string{}, DefaultRelevantLabels...),
		CandidateLabels:   append([]string{}, DefaultCandidateLabels...),
		WatchDebounce:     getEnvAsDurationOrDefault("WATCH_DEBOUNCE", 300*time.Millisecond),
		LogLevel:          getEnvOrDefault("TEMPLATE_MATCHER_LOG_LEVEL", "info"),
	}

	if cfg.LabelsFile != "" {
		if err := cfg.loadLabels(cfg.LabelsFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadLabels(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read labels file: %w", err)
	}
	var lf labelsFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return fmt.Errorf("parse labels file %s: %w", path, err)
	}
	if len(lf.RelevantLabels) > 0 {
		c.RelevantLabels = lf.RelevantLabels
	}
	if len(lf.CandidateLabels) > 0 {
		c.CandidateLabels = lf.CandidateLabels
	}
	// Every relevant label must be offered to the classifier, otherwise it
	// can never be returned.
	seen := make(map[string]bool, len(c.CandidateLabels))
	for _, l := range c.CandidateLabels {
		seen[strings.ToLower(l)] = true
	}
	for _, l := range c.RelevantLabels {
		if !seen[strings.ToLower(l)] {
			c.CandidateLabels = append(c.CandidateLabels, l)
		}
	}
	return nil
}

// Validate checks that settings are usable.
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return fmt.Errorf("TEMPLATE_CACHE_PATH is required")
	}
	if c.DedupThreshold <= 0 || c.DedupThreshold > 1 {
		return fmt.Errorf("DEDUP_THRESHOLD must be in (0, 1], got %v", c.DedupThreshold)
	}
	if c.MaxUploadBytes < 1024 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be at least 1KB, got %d", c.MaxUploadBytes)
	}
	if len(c.RelevantLabels) == 0 {
		return fmt.Errorf("relevant label set is empty")
	}
	if c.InferenceTimeout < 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT must not be negative")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
