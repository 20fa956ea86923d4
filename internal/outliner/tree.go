package outliner

import (
	"fmt"
	"slices"

	"github.com/scenekit/outliner/internal/core/ecs"
)

// Tree holds the outliner items and their indices. It knows nothing about
// the world; the Outliner decides where items go.
type Tree struct {
	roots     map[ItemID]struct{}
	rootOrder []ItemID
	entities  map[ecs.EntityID]*EntityItem
	folders   map[string]*FolderItem
}

func newTree() *Tree {
	return &Tree{
		roots:    make(map[ItemID]struct{}),
		entities: make(map[ecs.EntityID]*EntityItem),
		folders:  make(map[string]*FolderItem),
	}
}

// Lookup resolves a key to its item, or nil.
func (t *Tree) Lookup(k ItemID) Item {
	switch {
	case k.IsEntity():
		if e, ok := t.entities[k.Entity]; ok {
			return e
		}
	case k.IsFolder():
		if f, ok := t.folders[k.Folder]; ok {
			return f
		}
	}
	return nil
}

func (t *Tree) Entity(id ecs.EntityID) (*EntityItem, bool) {
	e, ok := t.entities[id]
	return e, ok
}

func (t *Tree) Folder(path string) (*FolderItem, bool) {
	f, ok := t.folders[path]
	return f, ok
}

// Len returns the number of items in the tree.
func (t *Tree) Len() int { return len(t.entities) + len(t.folders) }

// Roots returns the root keys in their current order.
func (t *Tree) Roots() []ItemID { return slices.Clone(t.rootOrder) }

func (t *Tree) index(it Item) {
	switch v := it.(type) {
	case *EntityItem:
		t.entities[v.ID] = v
	case *FolderItem:
		t.folders[v.path] = v
	}
}

func (t *Tree) unindex(it Item) {
	switch v := it.(type) {
	case *EntityItem:
		delete(t.entities, v.ID)
	case *FolderItem:
		delete(t.folders, v.path)
	}
}

// link places an unlinked item under parent, or at the root for the zero key.
// The parent must already be in the tree.
func (t *Tree) link(it Item, parent ItemID) {
	n := it.state()
	k := it.Key()
	n.parent = parent
	if parent.IsZero() {
		if _, ok := t.roots[k]; !ok {
			t.roots[k] = struct{}{}
			t.rootOrder = append(t.rootOrder, k)
		}
		return
	}
	t.Lookup(parent).state().addChild(k)
}

// unlink detaches an item from its parent or from the root set and returns
// the key it was under.
func (t *Tree) unlink(it Item) ItemID {
	n := it.state()
	k := it.Key()
	parent := n.parent
	if parent.IsZero() {
		if _, ok := t.roots[k]; ok {
			delete(t.roots, k)
			t.rootOrder = slices.DeleteFunc(t.rootOrder, func(r ItemID) bool { return r == k })
		}
	} else if p := t.Lookup(parent); p != nil {
		p.state().removeChild(k)
	}
	n.parent = ItemID{}
	return parent
}

// reset empties the tree and hands back the old indices for reuse.
func (t *Tree) reset() (map[ecs.EntityID]*EntityItem, map[string]*FolderItem) {
	entities, folders := t.entities, t.folders
	t.roots = make(map[ItemID]struct{}, len(t.roots))
	t.rootOrder = t.rootOrder[:0]
	t.entities = make(map[ecs.EntityID]*EntityItem, len(entities))
	t.folders = make(map[string]*FolderItem, len(folders))
	return entities, folders
}

// Check verifies that indices, child sets and the root set agree: every item
// hangs under exactly one parent and every key resolves.
func (t *Tree) Check() error {
	if len(t.roots) != len(t.rootOrder) {
		return fmt.Errorf("root set has %d keys, root order %d", len(t.roots), len(t.rootOrder))
	}
	for _, k := range t.rootOrder {
		if _, ok := t.roots[k]; !ok {
			return fmt.Errorf("root order lists %s outside the root set", k)
		}
	}
	linked := make(map[ItemID]int, t.Len())
	for k := range t.roots {
		it := t.Lookup(k)
		if it == nil {
			return fmt.Errorf("root %s does not resolve", k)
		}
		if !it.state().parent.IsZero() {
			return fmt.Errorf("root %s has parent %s", k, it.state().parent)
		}
		linked[k]++
	}
	check := func(it Item) error {
		k := it.Key()
		for c := range it.state().children {
			child := t.Lookup(c)
			if child == nil {
				return fmt.Errorf("%s lists missing child %s", k, c)
			}
			if child.state().parent != k {
				return fmt.Errorf("%s lists child %s whose parent is %s", k, c, child.state().parent)
			}
			linked[c]++
		}
		return nil
	}
	for id, e := range t.entities {
		if e.ID != id {
			return fmt.Errorf("entity index %s holds item %s", id, e.ID)
		}
		if err := check(e); err != nil {
			return err
		}
	}
	for path, f := range t.folders {
		if f.path != path {
			return fmt.Errorf("folder index %q holds item %q", path, f.path)
		}
		if err := check(f); err != nil {
			return err
		}
	}
	for k, n := range linked {
		if n != 1 {
			return fmt.Errorf("%s is linked %d times", k, n)
		}
	}
	if len(linked) != t.Len() {
		return fmt.Errorf("%d items indexed, %d linked", t.Len(), len(linked))
	}
	return nil
}
