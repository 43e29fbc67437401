package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/ad-template-matcher/internal/cache"
	"github.com/ironsheep/ad-template-matcher/internal/classify"
	"github.com/ironsheep/ad-template-matcher/internal/config"
	"github.com/ironsheep/ad-template-matcher/internal/detection"
	"github.com/ironsheep/ad-template-matcher/internal/inference"
	"github.com/ironsheep/ad-template-matcher/internal/scoring"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// useCache points the configuration at a fresh cache file seeded with
// entries.
func useCache(t *testing.T, entries ...cache.Entry) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "layout_metadata.json")
	t.Setenv("TEMPLATE_CACHE_PATH", path)
	t.Setenv("TEMPLATE_DIR", filepath.Join(dir, "templates"))
	t.Setenv("TEMPLATE_MATCHER_LOG_LEVEL", "error")
	if len(entries) > 0 {
		if err := cache.NewStore(path).PutAll(cache.NewSnapshot(entries...)); err != nil {
			t.Fatalf("seed cache: %v", err)
		}
	}
	return path
}

func TestReadAd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ad.json")
	if err := os.WriteFile(path, []byte(`{"headline":"H","description":"D","photos":["a","b"],"logo":"l"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ad, err := readAd(path, nil)
	if err != nil {
		t.Fatalf("readAd failed: %v", err)
	}
	if ad.Headline != "H" || len(ad.Photos) != 2 || ad.Logo != "l" {
		t.Errorf("ad = %+v", ad)
	}

	ad, err = readAd("-", strings.NewReader(`{"photos":["x"]}`))
	if err != nil || len(ad.Photos) != 1 {
		t.Errorf("stdin ad = %+v err:%v", ad, err)
	}

	if _, err := readAd("-", strings.NewReader("{")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := readAd(filepath.Join(t.TempDir(), "missing.json"), nil); err == nil {
		t.Error("expected read error")
	}
}

func TestBuildProposer(t *testing.T) {
	if _, ok := buildProposer(&config.Config{}).(*detection.HeuristicProposer); !ok {
		t.Error("empty DETECTOR_URL should select the heuristic proposer")
	}
	if _, ok := buildProposer(&config.Config{DetectorURL: "http://localhost:9000/detect"}).(*inference.DetectionClient); !ok {
		t.Error("DETECTOR_URL should select the detection client")
	}
}

func TestBuildClassifier(t *testing.T) {
	if _, ok := buildClassifier(&config.Config{}).(*classify.ColorClassifier); !ok {
		t.Error("empty CLASSIFIER_URL should select the color classifier")
	}
	cfg := &config.Config{ClassifierURL: "http://localhost:9001/classify", CandidateLabels: []string{"kitchen"}}
	if _, ok := buildClassifier(cfg).(*inference.ClassificationClient); !ok {
		t.Error("CLASSIFIER_URL should select the classification client")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "template-matcher "+Version) {
		t.Errorf("output = %q", out)
	}
}

func TestListCommand(t *testing.T) {
	useCache(t,
		cache.Entry{ID: "t2.indt", Metadata: cache.TemplateMetadata{ImageSlots: 6, TextCharCapacity: 50}},
		cache.Entry{ID: "t1.indt", Metadata: cache.TemplateMetadata{ImageSlots: 3, TextCharCapacity: 200}},
	)

	out, err := execute(t, "", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var entries []cache.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(entries) != 2 || entries[0].ID != "t2.indt" || entries[1].ID != "t1.indt" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestSelectAndRankCommands(t *testing.T) {
	useCache(t,
		cache.Entry{ID: "t1.indt", Metadata: cache.TemplateMetadata{ImageSlots: 3, TextCharCapacity: 200}},
		cache.Entry{ID: "t2.indt", Metadata: cache.TemplateMetadata{ImageSlots: 6, TextCharCapacity: 50}},
	)
	ad := `{"headline":"h","description":"` + strings.Repeat("z", 100) + `","photos":["1","2","3"],"logo":"l"}`

	out, err := execute(t, ad, "select", "-")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	var best map[string]interface{}
	if err := json.Unmarshal([]byte(out), &best); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if best["selected_template"] != "t1.indt" || best["score"] != 1.0 {
		t.Errorf("select = %v", best)
	}

	out, err = execute(t, ad, "rank", "-")
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	var ranked []scoring.ScoreResult
	if err := json.Unmarshal([]byte(out), &ranked); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(ranked) != 2 || ranked[0].TemplateID != "t1.indt" {
		t.Errorf("rank = %+v", ranked)
	}
}

func TestSelectCommand_NoTemplates(t *testing.T) {
	useCache(t)
	if _, err := execute(t, `{"photos":["a"]}`, "select", "-"); err == nil {
		t.Error("expected an error with an empty cache")
	}
}
