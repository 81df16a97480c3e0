// Package registry holds the live set of simulated boats, keyed by name,
// with insertion-ordered iteration and group membership tracking.
package registry

import (
	"container/list"
	"errors"
	"sync"

	"github.com/banshee-data/sailnavsim/internal/boat"
)

var (
	// ErrExists is returned by Add when a boat with the given name is
	// already registered.
	ErrExists = errors.New("registry: boat already exists")
	// ErrNotExists is returned by operations that need an existing entry.
	ErrNotExists = errors.New("registry: boat does not exist")
)

// Entry is one registered boat together with its registry metadata.
type Entry struct {
	Name    string
	Group   string
	AltName string
	Boat    *boat.Boat
}

// Registry is a concurrency-safe directory of boats. Callers that need to
// perform several operations as one atomic unit (e.g. a full tick over every
// boat) should use RLock/Lock directly with Iterate rather than calling the
// individual methods in a loop, since each of those takes and releases the
// lock on its own.
type Registry struct {
	mu sync.RWMutex

	byName map[string]*list.Element // element.Value is *Entry, insertion order preserved
	order  *list.List

	groups map[string]map[string]struct{} // group name -> set of boat names
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]*list.Element),
		order:  list.New(),
		groups: make(map[string]map[string]struct{}),
	}
}

// Add registers a new boat under name, optionally placing it in group with
// the given altName (the name shown to other members of that group).
func (r *Registry) Add(b *boat.Boat, name, group, altName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.AddLocked(b, name, group, altName)
}

// AddLocked is Add without taking the lock, for callers that already hold
// it (see GetLocked).
func (r *Registry) AddLocked(b *boat.Boat, name, group, altName string) error {
	if _, exists := r.byName[name]; exists {
		return ErrExists
	}

	entry := &Entry{Name: name, Group: group, AltName: altName, Boat: b}
	elem := r.order.PushBack(entry)
	r.byName[name] = elem

	if group != "" {
		members, ok := r.groups[group]
		if !ok {
			members = make(map[string]struct{})
			r.groups[group] = members
		}
		members[name] = struct{}{}
	}

	return nil
}

// Get returns the boat registered under name.
func (r *Registry) Get(name string) (*boat.Boat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.GetLocked(name)
}

// GetLocked is Get without taking the lock, for callers that already hold
// it (e.g. the scheduler's command-drain phase, which holds the write lock
// across a whole batch of commands). sync.RWMutex is not reentrant, so
// calling Get/Add/Remove from inside such a section would deadlock.
func (r *Registry) GetLocked(name string) (*boat.Boat, bool) {
	elem, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return elem.Value.(*Entry).Boat, true
}

// GetEntry returns the full registry entry for name.
func (r *Registry) GetEntry(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	elem, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return elem.Value.(*Entry), true
}

// Remove unregisters the boat under name and returns it.
func (r *Registry) Remove(name string) (*boat.Boat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.RemoveLocked(name)
}

// RemoveLocked is Remove without taking the lock, for callers that already
// hold it (see GetLocked).
func (r *Registry) RemoveLocked(name string) (*boat.Boat, bool) {
	elem, ok := r.byName[name]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*Entry)

	r.order.Remove(elem)
	delete(r.byName, name)

	if entry.Group != "" {
		if members, ok := r.groups[entry.Group]; ok {
			delete(members, name)
			if len(members) == 0 {
				delete(r.groups, entry.Group)
			}
		}
	}

	return entry.Boat, true
}

// Len returns the number of registered boats.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.order.Len()
}

// Iterate calls fn for every entry in insertion order, stopping early if fn
// returns false. The caller is responsible for holding an appropriate lock
// (via RLock/Lock) for the duration if it needs a consistent snapshot across
// the whole pass; Iterate itself takes no lock.
func (r *Registry) Iterate(fn func(*Entry) bool) {
	for e := r.order.Front(); e != nil; e = e.Next() {
		if !fn(e.Value.(*Entry)) {
			return
		}
	}
}

// RLock/RUnlock/Lock/Unlock expose the registry's lock directly so a caller
// can pair them with Iterate for a consistent multi-entry pass (e.g. one
// simulation tick over every boat).
func (r *Registry) RLock()   { r.mu.RLock() }
func (r *Registry) RUnlock() { r.mu.RUnlock() }
func (r *Registry) Lock()    { r.mu.Lock() }
func (r *Registry) Unlock()  { r.mu.Unlock() }

// GroupMembershipLines returns one "name,altName" line per boat in the
// named group, in no particular order. A member with no alt-name set is
// reported with the literal alt-name "!".
func (r *Registry) GroupMembershipLines(group string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.groups[group]
	if !ok {
		return nil
	}

	lines := make([]string, 0, len(members))
	for name := range members {
		elem, ok := r.byName[name]
		if !ok {
			continue
		}
		entry := elem.Value.(*Entry)

		altName := entry.AltName
		if altName == "" {
			altName = "!"
		}
		lines = append(lines, name+","+altName)
	}

	return lines
}
