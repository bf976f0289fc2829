package sync

// CategoryPolicy classifies categories for the sync engine.
//
// Passive categories hold shared (global-owner) content tracked per
// user through head records instead of being delivered on every
// change. Read-only categories silently drop client writes. A
// category may be both: shared reference data clients must discover
// but never mutate.
type CategoryPolicy struct {
	passive  map[string]struct{}
	readOnly map[string]struct{}
}

// NewCategoryPolicy builds a policy from the passive and read-only
// category sets. Categories in neither set are active: normal
// per-owner bidirectional sync.
func NewCategoryPolicy(passive, readOnly []string) *CategoryPolicy {
	p := &CategoryPolicy{
		passive:  make(map[string]struct{}, len(passive)),
		readOnly: make(map[string]struct{}, len(readOnly)),
	}
	for _, c := range passive {
		p.passive[c] = struct{}{}
	}
	for _, c := range readOnly {
		p.readOnly[c] = struct{}{}
	}
	return p
}

// Passive reports whether the category is head-tracked shared content.
func (p *CategoryPolicy) Passive(category string) bool {
	_, ok := p.passive[category]
	return ok
}

// ReadOnly reports whether client writes to the category are dropped.
func (p *CategoryPolicy) ReadOnly(category string) bool {
	_, ok := p.readOnly[category]
	return ok
}

// PassiveCategories returns the passive set for query building.
func (p *CategoryPolicy) PassiveCategories() []string {
	out := make([]string, 0, len(p.passive))
	for c := range p.passive {
		out = append(out, c)
	}
	return out
}
