package cache

// TemplateMetadata is the capacity record cached per template.
type TemplateMetadata struct {
	ImageSlots       int `json:"image_slots"`
	TextCharCapacity int `json:"text_char_capacity"`
}

// Entry is one cached template.
type Entry struct {
	ID       string           `json:"template_id"`
	Metadata TemplateMetadata `json:"metadata"`
}

// Snapshot is an ordered view of the cache. Iteration order is insertion
// order: the first Set of an id fixes its position, later Sets replace the
// metadata in place. The zero value is an empty snapshot.
type Snapshot struct {
	entries []Entry
	index   map[string]int
}

// NewSnapshot builds a snapshot from entries in order.
func NewSnapshot(entries ...Entry) Snapshot {
	var s Snapshot
	for _, e := range entries {
		s.Set(e.ID, e.Metadata)
	}
	return s
}

// Set adds or replaces the metadata for id.
func (s *Snapshot) Set(id string, md TemplateMetadata) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[id]; ok {
		s.entries[i].Metadata = md
		return
	}
	s.index[id] = len(s.entries)
	s.entries = append(s.entries, Entry{ID: id, Metadata: md})
}

// Get returns the metadata for id.
func (s Snapshot) Get(id string) (TemplateMetadata, bool) {
	i, ok := s.index[id]
	if !ok {
		return TemplateMetadata{}, false
	}
	return s.entries[i].Metadata, true
}

// Len returns the number of entries.
func (s Snapshot) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in order.
func (s Snapshot) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// IDs returns the template ids in order.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.ID
	}
	return ids
}
