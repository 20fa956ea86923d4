package outliner

import (
	"fmt"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/folder"
)

// Row is one displayable line of the tree.
type Row struct {
	Key         ItemID
	Kind        Kind
	Label       string
	Class       string
	Depth       int
	FilteredOut bool
	Selected    bool
	Expanded    bool
	HasChildren bool
	Children    []Row
}

// RowFunc receives rows in display order.
type RowFunc func(r Row)

func (o *Outliner) row(it Item, depth int) Row {
	k := it.Key()
	r := Row{
		Key:         k,
		Kind:        it.Kind(),
		Depth:       depth,
		FilteredOut: it.FilteredOut(),
		Selected:    o.IsSelected(k),
		Expanded:    it.Expanded(),
		HasChildren: it.NumChildren() > 0,
	}
	if k.IsFolder() {
		r.Label = folder.Leaf(k.Folder)
	} else {
		r.Label = o.world.Label(k.Entity)
		r.Class = o.world.Class(k.Entity)
	}
	return r
}

// walk visits items depth-first in display order. fn returning false skips
// the children of that item; expandedOnly skips children of collapsed items.
func (o *Outliner) walk(keys []ItemID, depth int, expandedOnly bool, fn func(Item, int) bool) {
	for _, k := range keys {
		if o.staleKey(k) {
			continue
		}
		it := o.tree.Lookup(k)
		if !fn(it, depth) {
			continue
		}
		if expandedOnly && !it.Expanded() {
			continue
		}
		o.walk(o.sortedChildren(it.state()), depth+1, expandedOnly, fn)
	}
}

// VisibleTree returns the whole forest in display order, expanded or not.
func (o *Outliner) VisibleTree() []Row {
	return o.rows(o.tree.Roots(), 0)
}

func (o *Outliner) rows(keys []ItemID, depth int) []Row {
	out := make([]Row, 0, len(keys))
	for _, k := range keys {
		if o.staleKey(k) {
			continue
		}
		it := o.tree.Lookup(k)
		r := o.row(it, depth)
		if it.NumChildren() > 0 {
			r.Children = o.rows(append([]ItemID(nil), o.sortedChildren(it.state())...), depth+1)
		}
		out = append(out, r)
	}
	return out
}

// Children enumerates the direct children of one item, sorted. The zero key
// lists the roots.
func (o *Outliner) Children(k ItemID) []Row {
	if k.IsZero() {
		return o.rows1(o.tree.Roots(), 0)
	}
	it := o.tree.Lookup(k)
	if it == nil {
		return nil
	}
	depth := 0
	for p := it.Parent(); !p.IsZero(); {
		depth++
		pi := o.tree.Lookup(p)
		if pi == nil {
			break
		}
		p = pi.Parent()
	}
	return o.rows1(append([]ItemID(nil), o.sortedChildren(it.state())...), depth+1)
}

func (o *Outliner) rows1(keys []ItemID, depth int) []Row {
	out := make([]Row, 0, len(keys))
	for _, k := range keys {
		if o.staleKey(k) {
			continue
		}
		out = append(out, o.row(o.tree.Lookup(k), depth))
	}
	return out
}

// Visit renders the tree row by row, descending only into expanded items.
func (o *Outliner) Visit(fn RowFunc) {
	o.walk(o.tree.Roots(), 0, true, func(it Item, depth int) bool {
		fn(o.row(it, depth))
		return true
	})
}

// SetExpanded expands or collapses one item.
func (o *Outliner) SetExpanded(k ItemID, expanded bool) bool {
	it := o.tree.Lookup(k)
	if it == nil {
		return false
	}
	it.state().expanded = expanded
	return true
}

// ExpandAll expands every item in the tree.
func (o *Outliner) ExpandAll() {
	for _, e := range o.tree.entities {
		e.expanded = true
	}
	for _, f := range o.tree.folders {
		f.expanded = true
	}
}

// FilterStatus summarizes how much of the world the tree shows.
func (o *Outliner) FilterStatus() string {
	shown := 0
	for _, e := range o.tree.entities {
		if !e.filteredOut {
			shown++
		}
	}
	total := 0
	o.world.Entities(func(id ecs.EntityID) bool {
		if o.world.Displayable(id) {
			total++
		}
		return true
	})
	selected := len(o.sel.Selected())

	if !o.FilterActive() {
		if selected == 0 {
			return fmt.Sprintf("%d entities", total)
		}
		return fmt.Sprintf("%d entities (%d selected)", total, selected)
	}
	if shown == 0 {
		return fmt.Sprintf("No matching entities (%d total)", total)
	}
	if selected == 0 {
		return fmt.Sprintf("Showing %d of %d entities", shown, total)
	}
	return fmt.Sprintf("Showing %d of %d entities (%d selected)", shown, total, selected)
}
