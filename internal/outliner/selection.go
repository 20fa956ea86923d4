package outliner

import (
	"slices"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/core/event"
	"go.uber.org/zap"
)

// SelectedEntities returns the selected entity items in world selection order.
func (o *Outliner) SelectedEntities() []ecs.EntityID { return slices.Clone(o.selEntities) }

// SelectedFolders returns the folders the user selected in the tree.
func (o *Outliner) SelectedFolders() []string { return slices.Clone(o.selFolders) }

// IsSelected reports whether the row for k is selected.
func (o *Outliner) IsSelected(k ItemID) bool {
	if k.IsFolder() {
		return slices.Contains(o.selFolders, k.Folder)
	}
	return k.IsEntity() && slices.Contains(o.selEntities, k.Entity)
}

// SetTreeSelection is called when the user changes the selection in the tree.
// Entities go to the world selection in one batch, group entities standing
// for their members; folders stay local to the tree. In picker mode the first
// visible entity is reported instead.
func (o *Outliner) SetTreeSelection(keys []ItemID) {
	if o.syncing || o.state == Applying {
		o.log.Debug("tree selection dropped while synchronizing")
		return
	}
	o.syncing = true
	defer func() { o.syncing = false }()

	if o.opts.Mode == ModePicker {
		o.pick(keys)
		return
	}

	var entities []ecs.EntityID
	var folders []string
	for _, k := range keys {
		switch it := o.tree.Lookup(k); {
		case it == nil:
		case k.IsFolder():
			if !slices.Contains(folders, k.Folder) {
				folders = append(folders, k.Folder)
			}
		case o.world.Alive(k.Entity):
			entities = append(entities, k.Entity)
		}
	}
	o.selFolders = folders
	o.replaceWorldSelection(o.expandGroups(entities))

	if o.HasFilter(FilterOnlySelected) {
		o.FullRefresh()
	}
	o.deriveSelection()
	o.publishSelection()
}

func (o *Outliner) pick(keys []ItemID) {
	for _, k := range keys {
		if !k.IsEntity() {
			continue
		}
		it, ok := o.tree.entities[k.Entity]
		if !ok || it.filteredOut || !o.world.Displayable(k.Entity) {
			continue
		}
		o.log.Debug("entity picked", zap.Stringer("id", k.Entity))
		event.Publish(o.bus, EntityPicked{ID: k.Entity})
		return
	}
}

// expandGroups replaces group entities by their members, recursively,
// keeping first-seen order without duplicates.
func (o *Outliner) expandGroups(ids []ecs.EntityID) []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(ids))
	seen := make(map[ecs.EntityID]struct{}, len(ids))
	visiting := make(map[ecs.EntityID]struct{})
	var walk func(id ecs.EntityID)
	walk = func(id ecs.EntityID) {
		if members := o.world.GroupMembers(id); members != nil {
			if _, loop := visiting[id]; loop {
				return
			}
			visiting[id] = struct{}{}
			for _, m := range members {
				walk(m)
			}
			return
		}
		if _, dup := seen[id]; dup || !o.world.Alive(id) {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range ids {
		walk(id)
	}
	return out
}

// replaceWorldSelection swaps the world selection for target in one batch,
// unless it already holds exactly those entities.
func (o *Outliner) replaceWorldSelection(target []ecs.EntityID) bool {
	current := o.sel.Selected()
	if sameSet(current, target) {
		return false
	}
	o.sel.BeginBatch()
	o.sel.SelectNone()
	for _, id := range target {
		o.sel.Select(id)
	}
	o.sel.EndBatch()
	return true
}

func sameSet(a, b []ecs.EntityID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[ecs.EntityID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// OnWorldSelectionChanged mirrors the world selection into the tree.
func (o *Outliner) OnWorldSelectionChanged() {
	if o.syncing {
		return
	}
	if o.HasFilter(FilterOnlySelected) {
		o.FullRefresh()
	}
	o.syncFromWorld(true)
}

func (o *Outliner) syncFromWorld(scroll bool) {
	if o.syncing {
		return
	}
	o.syncing = true
	defer func() { o.syncing = false }()

	o.deriveSelection()
	o.publishSelection()
	if scroll && len(o.selEntities) > 0 {
		last := EntityKey(o.selEntities[len(o.selEntities)-1])
		event.Publish(o.bus, ItemScrolledIntoView{Key: last})
	}
}

// deriveSelection rebuilds the selected entity items from the world selection
// and drops selected folders that left the tree.
func (o *Outliner) deriveSelection() {
	o.selEntities = o.selEntities[:0]
	for _, id := range o.sel.Selected() {
		if _, ok := o.tree.entities[id]; ok && o.world.Alive(id) {
			o.selEntities = append(o.selEntities, id)
		}
	}
	o.selFolders = slices.DeleteFunc(o.selFolders, func(path string) bool {
		_, ok := o.tree.folders[path]
		return !ok
	})
}

func (o *Outliner) publishSelection() {
	event.Publish(o.bus, SelectionChanged{
		Entities: o.SelectedEntities(),
		Folders:  o.SelectedFolders(),
	})
}

// SelectFilterMatches selects in the world exactly the entities that pass
// every filter. Filtered-out ancestors are left out.
func (o *Outliner) SelectFilterMatches() int {
	if o.syncing || o.state == Applying {
		return 0
	}
	o.syncing = true
	defer func() { o.syncing = false }()

	var matches []ecs.EntityID
	o.walk(o.tree.rootOrder, 0, false, func(it Item, _ int) bool {
		if e, ok := it.(*EntityItem); ok && !e.filteredOut && o.world.Displayable(e.ID) {
			matches = append(matches, e.ID)
		}
		return true
	})
	o.selFolders = o.selFolders[:0]
	o.replaceWorldSelection(matches)
	o.deriveSelection()
	o.publishSelection()
	return len(matches)
}

// RequestRename marks an item for inline rename and asks the UI to scroll to
// it. The rename itself is requested once the row is reported in view.
func (o *Outliner) RequestRename(k ItemID) bool {
	it := o.tree.Lookup(k)
	if it == nil || it.FilteredOut() {
		return false
	}
	it.state().renameRequested = true
	event.Publish(o.bus, ItemScrolledIntoView{Key: k})
	return true
}

// NotifyScrolledIntoView is called by the UI when a row became visible.
func (o *Outliner) NotifyScrolledIntoView(k ItemID) {
	it := o.tree.Lookup(k)
	if it == nil || !it.RenameRequested() {
		return
	}
	it.state().renameRequested = false
	event.Publish(o.bus, RenameRequested{Key: k})
}
