// Package scene is the editable world the editor panels browse: entities with
// labels, attachment parents and folder paths, plus the world-wide selection.
// Every structural change is announced on the event bus.
package scene

import (
	"errors"
	"fmt"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/core/event"
	"github.com/scenekit/outliner/internal/folder"
	"go.uber.org/zap"
)

var (
	ErrNoEntity       = errors.New("entity does not exist")
	ErrAttachRejected = errors.New("attachment rejected")
)

// AttachError carries the user-facing reason an attachment was refused.
type AttachError struct {
	Reason string
}

func (e *AttachError) Error() string        { return e.Reason }
func (e *AttachError) Is(target error) bool { return target == ErrAttachRejected }

func refuse(format string, args ...any) error {
	return &AttachError{Reason: fmt.Sprintf(format, args...)}
}

// World holds the entities of one editable level.
// Accessed only from the editor goroutine, no locks.
type World struct {
	name string
	ecs  *ecs.World
	bus  *event.Bus
	log  *zap.Logger

	names     *ecs.PtrComponentStore[Name]
	placement *ecs.PtrComponentStore[Placement]
	flags     *ecs.PtrComponentStore[Flags]
	groups    *ecs.PtrComponentStore[Group]

	children map[ecs.EntityID]map[ecs.EntityID]struct{}
	folders  *folder.Registry
	sel      *Selection

	transactions []string
	openTx       int
}

func NewWorld(name string, bus *event.Bus, log *zap.Logger) *World {
	ew := ecs.NewWorld()
	w := &World{
		name:      name,
		ecs:       ew,
		bus:       bus,
		log:       log.Named("world"),
		names:     ecs.RegisterStore[Name](ew, "name"),
		placement: ecs.RegisterStore[Placement](ew, "placement"),
		flags:     ecs.RegisterStore[Flags](ew, "flags"),
		groups:    ecs.RegisterStore[Group](ew, "group"),
		children:  make(map[ecs.EntityID]map[ecs.EntityID]struct{}),
	}
	w.folders = folder.NewRegistry(w, bus, w.log)
	w.sel = newSelection(w, bus)
	w.log.Debug("world created", zap.String("name", name), zap.Strings("stores", ew.Registry().Names()))
	return w
}

func (w *World) Name() string               { return w.name }
func (w *World) Bus() *event.Bus            { return w.bus }
func (w *World) Folders() *folder.Registry  { return w.folders }
func (w *World) Selection() *Selection      { return w.sel }
func (w *World) ECS() *ecs.World            { return w.ecs }
func (w *World) Alive(id ecs.EntityID) bool { return w.ecs.Alive(id) }
func (w *World) Len() int                   { return w.ecs.Pool().Len() }

// Spawn creates an entity and announces it. A non-empty folder is created in
// the registry; an attachment parent must pass CanAttach.
func (w *World) Spawn(s Spawn) (ecs.EntityID, error) {
	if !s.Parent.IsZero() && !w.Alive(s.Parent) {
		return 0, fmt.Errorf("spawn %q: parent %s: %w", s.Label, s.Parent, ErrNoEntity)
	}
	id := w.ecs.CreateEntity()
	path := folder.Clean(s.Folder)
	w.names.Set(id, &Name{Label: s.Label, Class: s.Class})
	w.placement.Set(id, &Placement{Folder: path})
	w.flags.Set(id, &Flags{
		Hidden:    s.Hidden,
		Unlisted:  s.Unlisted,
		Ephemeral: s.Ephemeral,
		Locked:    s.Locked,
	})
	if len(s.Members) > 0 {
		w.groups.Set(id, &Group{Members: append([]ecs.EntityID(nil), s.Members...)})
	}
	if path != "" {
		w.folders.Create(path)
	}
	event.Emit(w.bus, event.EntityAdded{ID: id})

	if !s.Parent.IsZero() {
		if err := w.CanAttach(s.Parent, id); err != nil {
			w.log.Warn("spawned entity left unattached", zap.String("label", s.Label), zap.Error(err))
		} else {
			w.link(id, s.Parent)
			event.Emit(w.bus, event.EntityAttached{Child: id, Parent: s.Parent})
		}
	}
	w.log.Debug("entity spawned", zap.Stringer("id", id), zap.String("label", s.Label))
	return id, nil
}

// Destroy detaches the entity's children, drops it from the selection and
// queues it for the cleanup flush. Its handle stays alive until then but is
// no longer displayable.
func (w *World) Destroy(id ecs.EntityID) error {
	f, ok := w.flags.Get(id)
	if !ok || !w.Alive(id) {
		return fmt.Errorf("destroy %s: %w", id, ErrNoEntity)
	}
	if f.Dying {
		return nil
	}
	for _, child := range w.Children(id) {
		w.unlink(child)
		event.Emit(w.bus, event.EntityDetached{Child: child, OldParent: id})
	}
	if p := w.place(id); !p.Parent.IsZero() {
		w.unlink(id)
	}
	f.Dying = true
	w.sel.forget(id)
	w.ecs.MarkForDestruction(id)
	event.Emit(w.bus, event.EntityRemoved{ID: id})
	w.log.Debug("entity destroyed", zap.Stringer("id", id))
	return nil
}

// FlushDestroyed frees the handles of destroyed entities.
func (w *World) FlushDestroyed() int {
	return w.ecs.FlushDestroyQueue()
}

// Entities visits live entities in creation-slot order.
func (w *World) Entities(fn func(ecs.EntityID) bool) {
	w.ecs.Pool().Each(fn)
}

// Displayable reports whether browsers should list the entity at all.
func (w *World) Displayable(id ecs.EntityID) bool {
	if !w.Alive(id) {
		return false
	}
	f, ok := w.flags.Get(id)
	if !ok {
		return false
	}
	return !f.Dying && !f.Hidden && !f.Unlisted
}

func (w *World) Label(id ecs.EntityID) string {
	if n, ok := w.names.Get(id); ok {
		return n.Label
	}
	return ""
}

func (w *World) Class(id ecs.EntityID) string {
	if n, ok := w.names.Get(id); ok {
		return n.Class
	}
	return ""
}

func (w *World) Ephemeral(id ecs.EntityID) bool {
	f, ok := w.flags.Get(id)
	return ok && f.Ephemeral
}

// Parent returns the attachment parent, if any.
func (w *World) Parent(id ecs.EntityID) (ecs.EntityID, bool) {
	p, ok := w.placement.Get(id)
	if !ok || p.Parent.IsZero() {
		return 0, false
	}
	return p.Parent, true
}

// Children returns the entities attached directly to id, in slot order.
func (w *World) Children(id ecs.EntityID) []ecs.EntityID {
	set := w.children[id]
	if len(set) == 0 {
		return nil
	}
	out := make([]ecs.EntityID, 0, len(set))
	w.Entities(func(c ecs.EntityID) bool {
		if _, ok := set[c]; ok {
			out = append(out, c)
		}
		return len(out) < len(set)
	})
	return out
}

func (w *World) FolderPath(id ecs.EntityID) string {
	if p, ok := w.placement.Get(id); ok {
		return p.Folder
	}
	return ""
}

// GroupMembers returns the members of a group entity, nil for other entities.
func (w *World) GroupMembers(id ecs.EntityID) []ecs.EntityID {
	if g, ok := w.groups.Get(id); ok {
		return g.Members
	}
	return nil
}

// Find returns the first live entity with the given label.
func (w *World) Find(label string) (ecs.EntityID, bool) {
	var found ecs.EntityID
	w.Entities(func(id ecs.EntityID) bool {
		if w.Label(id) == label {
			found = id
			return false
		}
		return true
	})
	return found, !found.IsZero()
}

// SetLabel renames an entity.
func (w *World) SetLabel(id ecs.EntityID, label string) error {
	n, ok := w.names.Get(id)
	if !ok || !w.Alive(id) {
		return fmt.Errorf("set label %s: %w", id, ErrNoEntity)
	}
	if n.Label == label {
		return nil
	}
	n.Label = label
	event.Emit(w.bus, event.EntityLabelChanged{ID: id})
	return nil
}

// SetHidden toggles level visibility for one entity.
func (w *World) SetHidden(id ecs.EntityID, hidden bool) error {
	f, ok := w.flags.Get(id)
	if !ok || !w.Alive(id) {
		return fmt.Errorf("set hidden %s: %w", id, ErrNoEntity)
	}
	if f.Hidden == hidden {
		return nil
	}
	f.Hidden = hidden
	event.Emit(w.bus, event.EntityLabelChanged{ID: id})
	return nil
}

// CanAttach reports whether child may be attached under parent. The error
// text is user-facing.
func (w *World) CanAttach(parent, child ecs.EntityID) error {
	if !w.Displayable(parent) || !w.Displayable(child) {
		return refuse("Entity no longer exists")
	}
	if parent == child {
		return refuse("Cannot attach %s to itself", w.Label(child))
	}
	if f, _ := w.flags.Get(child); f.Locked {
		return refuse("%s is locked", w.Label(child))
	}
	if w.groups.Has(parent) {
		return refuse("Cannot attach to group %s", w.Label(parent))
	}
	for p, ok := w.Parent(parent); ok; p, ok = w.Parent(p) {
		if p == child {
			return refuse("%s is already attached below %s", w.Label(parent), w.Label(child))
		}
	}
	return nil
}

// Attach makes parent the attachment parent of child, detaching it from any
// previous parent first.
func (w *World) Attach(child, parent ecs.EntityID) error {
	if err := w.CanAttach(parent, child); err != nil {
		return err
	}
	if old, ok := w.Parent(child); ok {
		if old == parent {
			return nil
		}
		w.unlink(child)
		event.Emit(w.bus, event.EntityDetached{Child: child, OldParent: old})
	}
	w.link(child, parent)
	event.Emit(w.bus, event.EntityAttached{Child: child, Parent: parent})
	return nil
}

// Detach clears child's attachment parent.
func (w *World) Detach(child ecs.EntityID) error {
	if !w.Alive(child) {
		return fmt.Errorf("detach %s: %w", child, ErrNoEntity)
	}
	old, ok := w.Parent(child)
	if !ok {
		return nil
	}
	w.unlink(child)
	event.Emit(w.bus, event.EntityDetached{Child: child, OldParent: old})
	return nil
}

// SetFolderPath files the entity under path, creating the folder if needed.
func (w *World) SetFolderPath(id ecs.EntityID, path string) error {
	if !w.Alive(id) {
		return fmt.Errorf("set folder %s: %w", id, ErrNoEntity)
	}
	path = folder.Clean(path)
	if path != "" {
		w.folders.Create(path)
	}
	w.MoveToFolder(id, path)
	return nil
}

// EachFoldered implements folder.Host.
func (w *World) EachFoldered(fn func(ecs.EntityID, string)) {
	w.Entities(func(id ecs.EntityID) bool {
		if p := w.FolderPath(id); p != "" {
			fn(id, p)
		}
		return true
	})
}

// MoveToFolder implements folder.Host; the folder must already exist.
func (w *World) MoveToFolder(id ecs.EntityID, path string) {
	p, ok := w.placement.Get(id)
	if !ok || p.Folder == path {
		return
	}
	old := p.Folder
	p.Folder = path
	event.Emit(w.bus, event.EntityFolderChanged{ID: id, OldPath: old})
}

// BeginTransaction brackets a user-visible operation. The returned func ends
// it. Nested brackets fold into the outermost one.
func (w *World) BeginTransaction(desc string) func() {
	w.openTx++
	if w.openTx == 1 {
		w.transactions = append(w.transactions, desc)
		w.log.Debug("transaction begin", zap.String("desc", desc))
	}
	return func() {
		w.openTx--
	}
}

// Transactions lists the descriptions of every outermost transaction so far.
func (w *World) Transactions() []string { return w.transactions }

// Reset announces that every view should rebuild from scratch.
func (w *World) Reset(reason string) {
	event.Emit(w.bus, event.WorldReset{Reason: reason})
}

func (w *World) link(child, parent ecs.EntityID) {
	w.place(child).Parent = parent
	set := w.children[parent]
	if set == nil {
		set = make(map[ecs.EntityID]struct{})
		w.children[parent] = set
	}
	set[child] = struct{}{}
}

func (w *World) unlink(child ecs.EntityID) {
	p := w.place(child)
	if set := w.children[p.Parent]; set != nil {
		delete(set, child)
		if len(set) == 0 {
			delete(w.children, p.Parent)
		}
	}
	p.Parent = 0
}

// place returns the placement component, creating an empty one for entities
// spawned outside Spawn.
func (w *World) place(id ecs.EntityID) *Placement {
	p, ok := w.placement.Get(id)
	if !ok {
		p = &Placement{}
		w.placement.Set(id, p)
	}
	return p
}
