package designer

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live designers so that shared events, such as a caret
// tick, reach all of them.
type Registry struct {
	mu        sync.Mutex
	designers map[string]*Designer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{designers: make(map[string]*Designer)}
}

// Register adds d and returns its id.
func (r *Registry) Register(d *Designer) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.designers[id] = d
	r.mu.Unlock()
	return id
}

// Unregister removes the designer with the given id.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.designers, id)
	r.mu.Unlock()
}

// Get returns the designer registered under id.
func (r *Registry) Get(id string) (*Designer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.designers[id]
	return d, ok
}

// Len returns the number of registered designers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.designers)
}

// RedrawAll asks every registered designer to redraw, in id order.
func (r *Registry) RedrawAll() {
	for _, d := range r.snapshot() {
		d.redraw()
	}
}

// BlinkAll advances the caret of every registered designer.
func (r *Registry) BlinkAll() {
	for _, d := range r.snapshot() {
		d.Blink()
	}
}

func (r *Registry) snapshot() []*Designer {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.designers))
	for id := range r.designers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Designer, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.designers[id])
	}
	return out
}
