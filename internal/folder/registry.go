// Package folder keeps the per-world set of virtual folder paths. Folders
// exist independently of the entities filed under them, so an empty folder
// survives until it is deleted or renamed away.
package folder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/core/event"
	"go.uber.org/zap"
)

var (
	ErrInvalidReparent = errors.New("invalid reparent")
	ErrFolderNotFound  = errors.New("folder not found")
	ErrFolderNotEmpty  = errors.New("folder not empty")
)

// Host gives the registry access to entity folder assignments. The world
// implements it; MoveToFolder must emit the world's own folder-changed
// notification.
type Host interface {
	EachFoldered(fn func(id ecs.EntityID, path string))
	MoveToFolder(id ecs.EntityID, path string)
}

// Registry is the set of known folder paths for one world.
// Accessed only from the editor goroutine, no locks.
type Registry struct {
	paths map[string]struct{}
	rev   uint64 // bumped on every change to paths
	host  Host
	bus   *event.Bus
	log   *zap.Logger
}

func NewRegistry(host Host, bus *event.Bus, log *zap.Logger) *Registry {
	return &Registry{
		paths: make(map[string]struct{}),
		host:  host,
		bus:   bus,
		log:   log,
	}
}

// Exists reports whether path is a known folder. The root ("") always exists.
func (r *Registry) Exists(path string) bool {
	if path == "" {
		return true
	}
	_, ok := r.paths[path]
	return ok
}

func (r *Registry) Len() int { return len(r.paths) }

// Revision changes whenever the folder set changes. Savers compare it with
// the revision they last wrote.
func (r *Registry) Revision() uint64 { return r.rev }

// Paths returns every folder, sorted.
func (r *Registry) Paths() []string {
	out := make([]string, 0, len(r.paths))
	for p := range r.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Children returns the direct sub-folders of path, sorted.
func (r *Registry) Children(path string) []string {
	var out []string
	for p := range r.paths {
		if Parent(p) == path {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Create adds path and any missing ancestors, returning the newly created
// paths shallowest first.
func (r *Registry) Create(path string) []string {
	path = Clean(path)
	if path == "" {
		return nil
	}
	created := r.materialize(path)
	for _, p := range created {
		event.Emit(r.bus, event.FolderCreated{Path: p})
	}
	if len(created) > 0 {
		r.log.Debug("folder created", zap.String("path", path), zap.Int("materialized", len(created)))
	}
	return created
}

// Restore bulk-loads previously persisted paths.
func (r *Registry) Restore(paths []string) int {
	n := 0
	for _, p := range paths {
		n += len(r.Create(p))
	}
	return n
}

func (r *Registry) materialize(path string) []string {
	var created []string
	for _, p := range append(Ancestors(path), path) {
		if _, ok := r.paths[p]; ok {
			continue
		}
		r.paths[p] = struct{}{}
		r.rev++
		created = append(created, p)
	}
	return created
}

// Delete removes path. A folder with entities or sub-folders is only removed
// when cascade is set; its entities then move to the deleted folder's parent.
func (r *Registry) Delete(path string, cascade bool) error {
	path = Clean(path)
	if _, ok := r.paths[path]; !ok || path == "" {
		return fmt.Errorf("delete %q: %w", path, ErrFolderNotFound)
	}

	var entities []ecs.EntityID
	r.host.EachFoldered(func(id ecs.EntityID, p string) {
		if IsSelfOrDescendant(p, path) {
			entities = append(entities, id)
		}
	})
	subtree := r.subtree(path)
	if !cascade && (len(entities) > 0 || len(subtree) > 1) {
		return fmt.Errorf("delete %q: %w", path, ErrFolderNotEmpty)
	}

	dest := Parent(path)
	for _, id := range entities {
		r.host.MoveToFolder(id, dest)
	}
	for _, p := range subtree {
		delete(r.paths, p)
		r.rev++
		event.Emit(r.bus, event.FolderDeleted{Path: p})
	}
	r.log.Info("folder deleted",
		zap.String("path", path),
		zap.Int("folders", len(subtree)),
		zap.Int("moved_entities", len(entities)),
	)
	return nil
}

// subtree lists path and every known descendant, deepest first.
func (r *Registry) subtree(path string) []string {
	var out []string
	for p := range r.paths {
		if IsSelfOrDescendant(p, path) {
			out = append(out, p)
		}
	}
	sortDeepestFirst(out)
	return out
}

// Rename moves oldPath and everything filed under it to newPath by literal
// prefix substitution. The whole rewrite happens before any notification is
// observable, and a rejected rename changes nothing.
func (r *Registry) Rename(oldPath, newPath string) error {
	oldPath, newPath = Clean(oldPath), Clean(newPath)
	switch {
	case newPath == "":
		return fmt.Errorf("rename %q: empty destination: %w", oldPath, ErrInvalidReparent)
	case newPath == oldPath:
		return fmt.Errorf("rename %q: destination unchanged: %w", oldPath, ErrInvalidReparent)
	case IsDescendant(newPath, oldPath):
		return fmt.Errorf("rename %q to %q: folder cannot become a child of itself: %w", oldPath, newPath, ErrInvalidReparent)
	}
	if _, ok := r.paths[oldPath]; !ok {
		return fmt.Errorf("rename %q: %w", oldPath, ErrFolderNotFound)
	}

	moved := r.subtree(oldPath)
	// Shallowest first so creates and renames read top-down.
	for i, j := 0, len(moved)-1; i < j; i, j = i+1, j-1 {
		moved[i], moved[j] = moved[j], moved[i]
	}

	var entities []ecs.EntityID
	var entityDest []string
	r.host.EachFoldered(func(id ecs.EntityID, p string) {
		if dest, ok := Rebase(p, oldPath, newPath); ok {
			entities = append(entities, id)
			entityDest = append(entityDest, dest)
		}
	})

	// (a) destination chain, (b) rebased sub-folders.
	created := r.materialize(newPath)
	dests := make(map[string]struct{}, len(moved))
	for _, p := range moved {
		dest, _ := Rebase(p, oldPath, newPath)
		dests[dest] = struct{}{}
		created = append(created, r.materialize(dest)...)
	}
	// (c) vacate the old subtree. When newPath is an ancestor of oldPath a
	// rebased path can land on another old path; that one stays.
	var deleted []string
	for _, p := range moved {
		if _, reused := dests[p]; reused {
			continue
		}
		delete(r.paths, p)
		r.rev++
		deleted = append(deleted, p)
	}

	// (d) notifications: creates, renames, entity moves, deletes.
	for _, p := range created {
		event.Emit(r.bus, event.FolderCreated{Path: p})
	}
	for _, p := range moved {
		dest, _ := Rebase(p, oldPath, newPath)
		event.Emit(r.bus, event.FolderRenamed{OldPath: p, NewPath: dest})
	}
	for i, id := range entities {
		r.host.MoveToFolder(id, entityDest[i])
	}
	sortDeepestFirst(deleted)
	for _, p := range deleted {
		event.Emit(r.bus, event.FolderDeleted{Path: p})
	}

	r.log.Info("folder renamed",
		zap.String("from", oldPath),
		zap.String("to", newPath),
		zap.Int("folders", len(moved)),
		zap.Int("entities", len(entities)),
	)
	return nil
}

func sortDeepestFirst(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		di, dj := Depth(paths[i]), Depth(paths[j])
		if di != dj {
			return di > dj
		}
		return paths[i] < paths[j]
	})
}
