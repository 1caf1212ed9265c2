package world

// StateSet is a set of states under State equality, bucketed by hash.
type StateSet struct {
	buckets map[uint64][]*State
	size    int
}

// NewStateSet returns an empty set.
func NewStateSet() *StateSet {
	return &StateSet{buckets: make(map[uint64][]*State)}
}

// Add inserts s and reports whether it was not already present.
func (set *StateSet) Add(s *State) bool {
	bucket := set.buckets[s.hash]
	for _, existing := range bucket {
		if existing.Equal(s) {
			return false
		}
	}
	set.buckets[s.hash] = append(bucket, s)
	set.size++
	return true
}

// Contains reports whether a state equal to s is present.
func (set *StateSet) Contains(s *State) bool {
	for _, existing := range set.buckets[s.hash] {
		if existing.Equal(s) {
			return true
		}
	}
	return false
}

// Remove deletes the state equal to s, if any.
func (set *StateSet) Remove(s *State) bool {
	bucket := set.buckets[s.hash]
	for i, existing := range bucket {
		if existing.Equal(s) {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			if len(bucket) == 0 {
				delete(set.buckets, s.hash)
			} else {
				set.buckets[s.hash] = bucket
			}
			set.size--
			return true
		}
	}
	return false
}

// Len returns the number of states.
func (set *StateSet) Len() int { return set.size }
