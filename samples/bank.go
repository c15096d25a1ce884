package samples

// Bank holds every sample a session needs, keyed by path. A missing or
// undecodable file fails the whole load so the session never starts
// with silent triggers.
type Bank struct {
	byPath map[string]*Sample
}

// NewBank returns an empty bank. Callers fill it with Put when samples
// come from somewhere other than disk, such as the simulator.
func NewBank() *Bank {
	return &Bank{byPath: make(map[string]*Sample)}
}

// Put registers a sample under path, replacing any previous entry.
func (b *Bank) Put(path string, s *Sample) {
	b.byPath[path] = s
}

// LoadAll decodes each path once. Duplicate paths share one Sample.
func LoadAll(paths []string) (*Bank, error) {
	b := &Bank{byPath: make(map[string]*Sample, len(paths))}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := b.byPath[p]; ok {
			continue
		}
		s, err := Load(p)
		if err != nil {
			return nil, err
		}
		b.byPath[p] = s
	}
	return b, nil
}

// Get returns the sample for path, or nil if it was not loaded.
func (b *Bank) Get(path string) *Sample {
	return b.byPath[path]
}

// Len reports how many distinct samples are loaded.
func (b *Bank) Len() int {
	return len(b.byPath)
}
