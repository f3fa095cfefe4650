package desired

// Set is the ordered, read-only collection of targets for one run. A path
// listed twice keeps both targets, so the later one determines the final
// bytes.
type Set struct {
	targets []Target
}

// NewSet builds a set from targets in the given order.
func NewSet(targets []Target) *Set {
	s := &Set{targets: make([]Target, len(targets))}
	copy(s.targets, targets)
	return s
}

// Targets returns the targets in desired order. The slice is a copy.
func (s *Set) Targets() []Target {
	out := make([]Target, len(s.targets))
	copy(out, s.targets)
	return out
}

// Len returns the number of targets.
func (s *Set) Len() int { return len(s.targets) }
