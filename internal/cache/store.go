package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/ironsheep/ad-template-matcher/internal/apperrors"
)

// writers holds one mutex per absolute cache path so that every Store
// opened on the same file in this process serializes its updates.
var writers sync.Map

// Store persists TemplateMetadata keyed by template id in a JSON document.
type Store struct {
	path string
	mu   *sync.Mutex
}

// NewStore opens a store backed by the file at path. The file is created on
// the first PutAll.
func NewStore(path string) *Store {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	mu, _ := writers.LoadOrStore(key, &sync.Mutex{})
	return &Store{path: path, mu: mu.(*sync.Mutex)}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the metadata cached for id. A missing cache file reads as
// empty.
func (s *Store) Get(id string) (TemplateMetadata, bool, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return TemplateMetadata{}, false, err
	}
	md, ok := snap.Get(id)
	return md, ok, nil
}

// Snapshot reads the whole cache in document order.
func (s *Store) Snapshot() (Snapshot, error) {
	data, exists, err := s.read()
	if err != nil || !exists {
		return Snapshot{}, err
	}
	return parse(s.path, data)
}

// PutAll merges updates into the persisted cache. Keys not present in
// updates are left byte-identical; new keys are appended in update order.
func (s *Store) PutAll(updates Snapshot) error {
	if updates.Len() == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, exists, err := s.read()
	if err != nil {
		return err
	}
	if exists {
		if _, err := parse(s.path, data); err != nil {
			return err
		}
	} else {
		data = []byte("{}")
	}

	for _, e := range updates.entries {
		if e.ID == "" {
			return apperrors.InvalidInput("template id must not be empty")
		}
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return apperrors.StorageFailed(s.path, err)
		}
		data, err = sjson.SetRawBytes(data, escapeKey(e.ID), raw)
		if err != nil {
			return apperrors.StorageFailed(s.path, fmt.Errorf("set %q: %w", e.ID, err))
		}
	}

	if err := writeAtomic(s.path, pretty.Pretty(data)); err != nil {
		return apperrors.StorageFailed(s.path, err)
	}
	return nil
}

// Put stores the metadata of a single template.
func (s *Store) Put(id string, md TemplateMetadata) error {
	return s.PutAll(NewSnapshot(Entry{ID: id, Metadata: md}))
}

func (s *Store) read() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.StorageFailed(s.path, err)
	}
	return data, true, nil
}

// parse validates the document and returns its entries in order. Unknown
// fields are ignored; missing counts read as zero. A repeated id is
// corruption: sjson updates only its first occurrence.
func parse(path string, data []byte) (Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Snapshot{}, apperrors.CacheCorrupt(path, "empty document", nil)
	}
	if !gjson.ValidBytes(data) {
		return Snapshot{}, apperrors.CacheCorrupt(path, "invalid JSON", nil)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Snapshot{}, apperrors.CacheCorrupt(path, "document is not an object", nil)
	}

	var snap Snapshot
	var perr error
	seen := make(map[string]bool)
	root.ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		if seen[id] {
			perr = apperrors.CacheCorrupt(path, fmt.Sprintf("duplicate entry %q", id), nil)
			return false
		}
		seen[id] = true
		if !value.IsObject() {
			perr = apperrors.CacheCorrupt(path, fmt.Sprintf("entry %q is not an object", id), nil)
			return false
		}
		slots, err := count(value, "image_slots")
		if err != nil {
			perr = apperrors.CacheCorrupt(path, fmt.Sprintf("entry %q: %v", id, err), nil)
			return false
		}
		capacity, err := count(value, "text_char_capacity")
		if err != nil {
			perr = apperrors.CacheCorrupt(path, fmt.Sprintf("entry %q: %v", id, err), nil)
			return false
		}
		snap.Set(id, TemplateMetadata{ImageSlots: slots, TextCharCapacity: capacity})
		return true
	})
	if perr != nil {
		return Snapshot{}, perr
	}
	return snap, nil
}

func count(entry gjson.Result, field string) (int, error) {
	v := entry.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return 0, nil
	}
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("%s is not a number", field)
	}
	if v.Num < 0 || v.Num != math.Trunc(v.Num) || v.Num > math.MaxInt32 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %s", field, v.Raw)
	}
	return int(v.Num), nil
}

// escapeKey turns a template id into a literal sjson path component.
func escapeKey(id string) string {
	var b strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		isWord := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
		if !isWord && c < 0x80 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// writeAtomic replaces path with data via a synced temp file in the same
// directory, so readers see either the old or the new document.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
