package recommend

// Snapshot is an immutable view of the candidate catalog, built once per
// cache epoch. A reload produces a whole new Snapshot and swaps the cache
// entry atomically, so concurrent readers never observe a half-updated set.
type Snapshot struct {
	candidates []Candidate
	byID       map[string]int
}

// NewSnapshot builds a snapshot from loaded candidates, applying attribute
// defaults at this boundary so ranking logic never deals with missing
// fields.
func NewSnapshot(candidates []Candidate) *Snapshot {
	s := &Snapshot{
		candidates: make([]Candidate, 0, len(candidates)),
		byID:       make(map[string]int, len(candidates)),
	}
	for _, c := range candidates {
		if c.ID == "" {
			continue
		}
		if c.Name == "" {
			c.Name = "Unknown"
		}
		if c.Category == "" {
			c.Category = "Unknown"
		}
		if _, dup := s.byID[c.ID]; dup {
			continue
		}
		s.byID[c.ID] = len(s.candidates)
		s.candidates = append(s.candidates, c)
	}
	return s
}

// Get returns the candidate with the given id.
func (s *Snapshot) Get(id string) (Candidate, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Candidate{}, false
	}
	return s.candidates[idx], true
}

// All returns every candidate in load order. Callers must not mutate the
// returned slice.
func (s *Snapshot) All() []Candidate {
	return s.candidates
}

// Filter returns candidates matching the predicate.
func (s *Snapshot) Filter(pred func(Candidate) bool) []Candidate {
	var out []Candidate
	for _, c := range s.candidates {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of candidates.
func (s *Snapshot) Len() int {
	return len(s.candidates)
}
