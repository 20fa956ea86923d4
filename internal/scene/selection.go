package scene

import (
	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/core/event"
)

// Selection is the world-wide entity selection shared by every editor panel.
// Changes are published synchronously; a batch publishes once at its end.
type Selection struct {
	world   *World
	bus     *event.Bus
	ids     []ecs.EntityID
	set     map[ecs.EntityID]struct{}
	depth   int
	changed bool
	// Refuse, when set, vetoes individual selections (locked layers, picker
	// restrictions).
	Refuse func(ecs.EntityID) bool
}

func newSelection(w *World, bus *event.Bus) *Selection {
	return &Selection{
		world: w,
		bus:   bus,
		set:   make(map[ecs.EntityID]struct{}),
	}
}

func (s *Selection) BeginBatch() { s.depth++ }

func (s *Selection) EndBatch() {
	if s.depth == 0 {
		return
	}
	s.depth--
	s.notify()
}

// SelectNone clears the selection.
func (s *Selection) SelectNone() {
	if len(s.ids) == 0 {
		return
	}
	s.ids = s.ids[:0]
	clear(s.set)
	s.changed = true
	s.notify()
}

// Select adds id. Dead, undisplayable or refused entities are ignored.
func (s *Selection) Select(id ecs.EntityID) {
	if _, ok := s.set[id]; ok || !s.world.Displayable(id) {
		return
	}
	if s.Refuse != nil && s.Refuse(id) {
		return
	}
	s.set[id] = struct{}{}
	s.ids = append(s.ids, id)
	s.changed = true
	s.notify()
}

func (s *Selection) Deselect(id ecs.EntityID) {
	if !s.remove(id) {
		return
	}
	s.changed = true
	s.notify()
}

func (s *Selection) IsSelected(id ecs.EntityID) bool {
	_, ok := s.set[id]
	return ok
}

// Selected returns the selection in selection order.
func (s *Selection) Selected() []ecs.EntityID {
	out := make([]ecs.EntityID, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Selection) Len() int { return len(s.ids) }

// forget drops a destroyed entity without waiting for a batch.
func (s *Selection) forget(id ecs.EntityID) {
	if s.remove(id) {
		s.changed = true
		s.notify()
	}
}

func (s *Selection) remove(id ecs.EntityID) bool {
	if _, ok := s.set[id]; !ok {
		return false
	}
	delete(s.set, id)
	for i, e := range s.ids {
		if e == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

func (s *Selection) notify() {
	if s.depth > 0 || !s.changed {
		return
	}
	s.changed = false
	event.Publish(s.bus, event.WorldSelectionChanged{})
}
