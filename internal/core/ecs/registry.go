package ecs

// Registry tracks the named component stores of one world so a destroyed
// entity can be cleared from all of them at once.
type Registry struct {
	names  []string
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a component store under name. Names are for diagnostics and
// need not be unique.
func (r *Registry) Register(name string, store Removable) {
	r.names = append(r.names, name)
	r.stores = append(r.stores, store)
}

// Names lists the registered stores in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// RemoveAll clears id from every store and returns how many held it.
func (r *Registry) RemoveAll(id EntityID) int {
	n := 0
	for _, s := range r.stores {
		if s.Has(id) {
			s.Remove(id)
			n++
		}
	}
	return n
}
