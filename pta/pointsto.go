package pta

// PointsToSet is a monotone set of contextualized heap objects, iterated in
// insertion order.
type PointsToSet struct {
	objs []*CSObj
	set  map[*CSObj]bool
}

// NewPointsToSet returns an empty set.
func NewPointsToSet() *PointsToSet {
	return &PointsToSet{set: make(map[*CSObj]bool)}
}

// Add inserts o and reports whether the set grew.
func (s *PointsToSet) Add(o *CSObj) bool {
	if s.set[o] {
		return false
	}
	s.set[o] = true
	s.objs = append(s.objs, o)
	return true
}

// Contains reports membership.
func (s *PointsToSet) Contains(o *CSObj) bool { return s.set[o] }

// Objects returns the members in insertion order. Callers must not mutate
// the returned slice.
func (s *PointsToSet) Objects() []*CSObj { return s.objs }

// Len returns the member count.
func (s *PointsToSet) Len() int { return len(s.objs) }

// IsEmpty reports whether the set has no members.
func (s *PointsToSet) IsEmpty() bool { return len(s.objs) == 0 }

// AddAll inserts every member of other and returns the subset that was new.
func (s *PointsToSet) AddAll(other *PointsToSet) *PointsToSet {
	delta := NewPointsToSet()
	for _, o := range other.objs {
		if s.Add(o) {
			delta.Add(o)
		}
	}
	return delta
}

// Diff returns the members of s absent from other.
func (s *PointsToSet) Diff(other *PointsToSet) *PointsToSet {
	out := NewPointsToSet()
	for _, o := range s.objs {
		if !other.Contains(o) {
			out.Add(o)
		}
	}
	return out
}
