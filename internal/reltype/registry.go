// Package reltype holds the relationship-type name→id interning table
// createRelationshipType registers into (spec §4.6: "register the name in
// the type holder and return its numeric id"). Unlike LockService or
// DataSourceSet, the type holder is not an external collaborator the spec
// lists in §2 — it is small enough bookkeeping that RTC owns it directly,
// built the same coarse-mutex-map way as session.Registry.
package reltype

import "sync"

// Registry interns relationship type names to small integer ids, assigning
// a new id the first time a name is seen and returning the existing one on
// every subsequent lookup.
type Registry struct {
	mu   sync.Mutex
	ids  map[string]int
	next int
}

// NewRegistry returns an empty Registry; the first registered name gets id 0.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]int)}
}

// Intern returns name's id, assigning the next sequential id if name has not
// been seen before.
func (r *Registry) Intern(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[name]; ok {
		return id
	}
	id := r.next
	r.ids[name] = id
	r.next++
	return id
}
