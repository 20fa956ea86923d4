package outliner

import (
	"slices"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/core/event"
	"github.com/scenekit/outliner/internal/folder"
	"go.uber.org/zap"
)

// State is the refresh cycle state.
type State int

const (
	Idle State = iota
	PendingFull
	PendingIncremental
	Applying
)

func (s State) String() string {
	switch s {
	case PendingFull:
		return "pending-full"
	case PendingIncremental:
		return "pending-incremental"
	case Applying:
		return "applying"
	default:
		return "idle"
	}
}

type folderRename struct {
	oldPath string
	newPath string
}

// pending collects notifications between refreshes. Each list keeps arrival
// order; duplicates are harmless.
type pending struct {
	added          []ecs.EntityID
	foldersAdded   []string
	moved          []ecs.EntityID
	renamed        []folderRename
	refreshed      []ecs.EntityID
	removed        []ecs.EntityID
	foldersRemoved []string
}

func (p *pending) empty() bool {
	return len(p.added)+len(p.foldersAdded)+len(p.moved)+len(p.renamed)+
		len(p.refreshed)+len(p.removed)+len(p.foldersRemoved) == 0
}

// queue records a notification. It is dropped while applying, and not needed
// when a full rebuild is already due.
func (o *Outliner) queue(what string, fn func(p *pending)) {
	switch o.state {
	case Applying:
		o.log.Debug("notification dropped while applying", zap.String("kind", what))
		return
	case PendingFull:
		return
	}
	fn(&o.pending)
	o.state = PendingIncremental
}

func (o *Outliner) queueRemoval(id ecs.EntityID) {
	o.queue("implicit-remove", func(p *pending) { p.removed = append(p.removed, id) })
}

func (o *Outliner) OnEntityAdded(id ecs.EntityID) {
	o.queue("added", func(p *pending) { p.added = append(p.added, id) })
}

func (o *Outliner) OnEntityRemoved(id ecs.EntityID) {
	o.queue("removed", func(p *pending) { p.removed = append(p.removed, id) })
}

func (o *Outliner) OnEntityAttached(child, parent ecs.EntityID) {
	if child == parent {
		return
	}
	o.queue("attached", func(p *pending) { p.moved = append(p.moved, child) })
}

func (o *Outliner) OnEntityDetached(child, oldParent ecs.EntityID) {
	if child == oldParent {
		return
	}
	o.queue("detached", func(p *pending) { p.moved = append(p.moved, child) })
}

func (o *Outliner) OnEntityFolderChanged(id ecs.EntityID, _ string) {
	o.queue("folder-changed", func(p *pending) { p.moved = append(p.moved, id) })
}

// OnEntityChanged re-evaluates filters and sort position of one entity.
func (o *Outliner) OnEntityChanged(id ecs.EntityID) {
	o.queue("changed", func(p *pending) { p.refreshed = append(p.refreshed, id) })
}

func (o *Outliner) OnFolderCreated(path string) {
	o.queue("folder-created", func(p *pending) { p.foldersAdded = append(p.foldersAdded, path) })
}

func (o *Outliner) OnFolderDeleted(path string) {
	o.queue("folder-deleted", func(p *pending) { p.foldersRemoved = append(p.foldersRemoved, path) })
}

func (o *Outliner) OnFolderRenamed(oldPath, newPath string) {
	o.queue("folder-renamed", func(p *pending) {
		p.renamed = append(p.renamed, folderRename{oldPath: oldPath, newPath: newPath})
	})
}

// OnWorldReset schedules a full rebuild.
func (o *Outliner) OnWorldReset(reason string) {
	o.log.Info("world reset", zap.String("reason", reason))
	o.FullRefresh()
}

// FullRefresh schedules a rebuild from scratch on the next Refresh.
func (o *Outliner) FullRefresh() {
	if o.state == Applying {
		o.log.Debug("full refresh dropped while applying")
		return
	}
	o.state = PendingFull
	o.pending = pending{}
}

// Validate sweeps the tree for items whose entity is gone or no longer
// displayable and queues their removal. It returns how many were found.
func (o *Outliner) Validate() int {
	n := 0
	for id := range o.tree.entities {
		if !o.world.Displayable(id) {
			o.queueRemoval(id)
			n++
		}
	}
	if n > 0 {
		o.log.Debug("stale items queued", zap.Int("count", n))
	}
	return n
}

// Refresh applies whatever is pending. It reports whether the tree changed.
func (o *Outliner) Refresh() bool {
	if o.state != PendingFull && o.state != PendingIncremental {
		return false
	}
	full := o.state == PendingFull
	o.state = Applying

	var changed bool
	if full {
		o.rebuild()
		changed = true
	} else {
		changed = o.applyPending()
	}
	o.state = Idle
	if o.forceFull {
		o.forceFull = false
		o.state = PendingFull
	}

	if changed {
		o.RequestSort()
	}
	if full {
		o.syncFromWorld(false)
	}
	event.Publish(o.bus, TreeRefreshed{Full: full, Changed: changed})
	return changed
}

// rebuild discards the tree and recreates it from the world, reusing the
// previous items so identities survive.
func (o *Outliner) rebuild() {
	o.reuseEntities, o.reuseFolders = o.tree.reset()
	o.pending = pending{}

	o.world.Entities(func(id ecs.EntityID) bool {
		if o.passes(id) {
			o.placeEntity(id, true)
		}
		return true
	})
	for _, path := range o.folders.Paths() {
		if o.folderPasses(path) {
			o.ensureFolder(path)
		}
	}
	o.reuseEntities, o.reuseFolders = nil, nil
	o.log.Info("tree rebuilt",
		zap.Int("entities", len(o.tree.entities)),
		zap.Int("folders", len(o.tree.folders)),
	)
}

// applyPending replays queued notifications: folder renames, then additions,
// then reparents, then refreshes, then removals. Renames go first so a folder
// recreated under an old name in the same batch gets its own item.
func (o *Outliner) applyPending() bool {
	p := o.pending
	o.pending = pending{}
	if p.empty() {
		return false
	}
	changed := false

	for _, r := range p.renamed {
		changed = o.renameFolder(r.oldPath, r.newPath) || changed
	}

	for _, path := range p.foldersAdded {
		changed = o.addFolder(path) || changed
	}
	for _, id := range p.added {
		changed = o.addEntity(id) || changed
	}

	for _, id := range p.moved {
		changed = o.reparentEntity(id) || changed
	}

	for _, id := range p.refreshed {
		changed = o.refreshEntity(id) || changed
	}

	for _, id := range p.removed {
		changed = o.removeEntity(id) || changed
	}
	slices.SortStableFunc(p.foldersRemoved, func(a, b string) int {
		return folder.Depth(b) - folder.Depth(a)
	})
	for _, path := range p.foldersRemoved {
		if o.folders.Exists(path) {
			continue
		}
		changed = o.removeFolder(path) || changed
	}

	o.log.Debug("incremental refresh applied",
		zap.Int("added", len(p.added)+len(p.foldersAdded)),
		zap.Int("moved", len(p.moved)+len(p.renamed)),
		zap.Int("refreshed", len(p.refreshed)),
		zap.Int("removed", len(p.removed)+len(p.foldersRemoved)),
		zap.Bool("changed", changed),
	)
	return changed
}

// parentKeyFor is where an entity belongs: under its attachment parent in
// hierarchy mode, else in its folder, else at the root.
func (o *Outliner) parentKeyFor(id ecs.EntityID) ItemID {
	if o.opts.ShowHierarchy {
		if p, ok := o.world.Parent(id); ok && o.world.Displayable(p) {
			return EntityKey(p)
		}
	}
	if path := o.world.FolderPath(id); path != "" && o.folders.Exists(path) {
		return FolderKey(path)
	}
	return RootKey
}

func folderParentKey(path string) ItemID {
	if parent := folder.Parent(path); parent != "" {
		return FolderKey(parent)
	}
	return RootKey
}

func (o *Outliner) newEntityItem(id ecs.EntityID) *EntityItem {
	if e, ok := o.reuseEntities[id]; ok {
		e.reset()
		return e
	}
	return &EntityItem{ID: id}
}

func (o *Outliner) newFolderItem(path string) *FolderItem {
	if f, ok := o.reuseFolders[path]; ok {
		f.reset()
		return f
	}
	return &FolderItem{path: path}
}

// placeEntity inserts an entity with its ancestor chain. An entity already in
// the tree only has its filtered-out flag cleared when it now passes.
func (o *Outliner) placeEntity(id ecs.EntityID, passes bool) *EntityItem {
	if e, ok := o.tree.entities[id]; ok {
		if passes && e.filteredOut {
			e.filteredOut = false
		}
		return e
	}
	e := o.newEntityItem(id)
	e.filteredOut = !passes
	o.tree.index(e)
	parent := o.parentKeyFor(id)
	o.ensureParent(parent)
	o.tree.link(e, parent)
	return e
}

// ensureParent materializes the item behind k. Ancestors that fail the
// filters come in filtered out.
func (o *Outliner) ensureParent(k ItemID) {
	switch {
	case k.IsFolder():
		o.ensureFolder(k.Folder)
	case k.IsEntity():
		if _, ok := o.tree.entities[k.Entity]; !ok {
			o.placeEntity(k.Entity, o.passes(k.Entity))
		}
	}
}

func (o *Outliner) ensureFolder(path string) *FolderItem {
	if f, ok := o.tree.folders[path]; ok {
		return f
	}
	f := o.newFolderItem(path)
	f.filteredOut = !o.folderPasses(path)
	o.tree.index(f)
	parent := folderParentKey(path)
	o.ensureParent(parent)
	o.tree.link(f, parent)
	return f
}

func (o *Outliner) addEntity(id ecs.EntityID) bool {
	if _, ok := o.tree.entities[id]; ok {
		return o.refreshEntity(id)
	}
	if !o.passes(id) {
		// A parent that fails the filter still shows, dimmed, above
		// children already in the tree.
		if !o.world.Displayable(id) || !o.hasTreeChildren(id) {
			return false
		}
		o.placeEntity(id, false)
		o.adoptChildren(id)
		return true
	}
	o.placeEntity(id, true)
	o.adoptChildren(id)
	return true
}

// hasTreeChildren reports whether any entity in the tree is attached to id.
func (o *Outliner) hasTreeChildren(id ecs.EntityID) bool {
	if !o.opts.ShowHierarchy {
		return false
	}
	for cid := range o.tree.entities {
		if p, ok := o.world.Parent(cid); ok && p == id {
			return true
		}
	}
	return false
}

// adoptChildren moves attached entities that were shown elsewhere while id
// was missing from the tree back under it.
func (o *Outliner) adoptChildren(id ecs.EntityID) {
	if !o.opts.ShowHierarchy {
		return
	}
	var orphans []*EntityItem
	for cid, c := range o.tree.entities {
		if p, ok := o.world.Parent(cid); ok && p == id && c.parent != EntityKey(id) {
			orphans = append(orphans, c)
		}
	}
	for _, c := range orphans {
		if o.cyclic(c.Key(), EntityKey(id)) {
			continue
		}
		o.move(c, EntityKey(id))
	}
}

func (o *Outliner) addFolder(path string) bool {
	if !o.folders.Exists(path) || !o.folderPasses(path) {
		return false
	}
	if f, ok := o.tree.folders[path]; ok {
		if !f.filteredOut {
			return false
		}
		f.filteredOut = false
		return true
	}
	o.ensureFolder(path)
	return true
}

// reparentEntity moves an entity item to where the world now says it
// belongs. An entity not yet in the tree is treated as an addition.
func (o *Outliner) reparentEntity(id ecs.EntityID) bool {
	e, ok := o.tree.entities[id]
	if !ok {
		return o.addEntity(id)
	}
	if !o.world.Displayable(id) {
		return o.removeEntity(id)
	}
	parent := o.parentKeyFor(id)
	if parent == e.parent {
		return false
	}
	o.ensureParent(parent)
	if o.cyclic(e.Key(), parent) {
		return false
	}
	o.move(e, parent)
	return true
}

// cyclic reports whether linking k under parent would close a loop. That
// only happens while the tree lags the world inside one batch, so a rebuild
// is scheduled instead.
func (o *Outliner) cyclic(k, parent ItemID) bool {
	if parent != k && !o.isBelow(parent, k) {
		return false
	}
	o.log.Warn("reparent would create a cycle, rebuilding", zap.Stringer("item", k))
	o.forceFull = true
	return true
}

// isBelow reports whether k sits anywhere under ancestor in the tree.
func (o *Outliner) isBelow(k, ancestor ItemID) bool {
	for it := o.tree.Lookup(k); it != nil; {
		p := it.Parent()
		if p == ancestor {
			return true
		}
		if p.IsZero() {
			return false
		}
		it = o.tree.Lookup(p)
	}
	return false
}

// move relinks an item under parent and prunes the ancestors it left behind.
func (o *Outliner) move(it Item, parent ItemID) {
	old := o.tree.unlink(it)
	o.ensureParent(parent)
	o.tree.link(it, parent)
	o.prune(old)
}

// refreshEntity re-evaluates the filters for an entity whose searchable
// fields changed. The item keeps its identity.
func (o *Outliner) refreshEntity(id ecs.EntityID) bool {
	e, ok := o.tree.entities[id]
	if !ok {
		return o.addEntity(id)
	}
	if !o.world.Displayable(id) {
		return o.removeEntity(id)
	}
	o.invalidateParentOrder(e)
	if o.passes(id) {
		e.filteredOut = false
		return true
	}
	if len(e.children) > 0 {
		e.filteredOut = true
		return true
	}
	return o.removeEntity(id)
}

// invalidateParentOrder forces the sibling list of it to be re-sorted.
func (o *Outliner) invalidateParentOrder(it Item) {
	if p := o.tree.Lookup(it.Parent()); p != nil {
		p.state().sortGen = 0
	}
}

// removeEntity drops an entity item. Its children are placed again; they
// normally follow the entity's detach notifications, so this only catches
// stragglers.
func (o *Outliner) removeEntity(id ecs.EntityID) bool {
	e, ok := o.tree.entities[id]
	if !ok {
		return false
	}
	o.drop(e)
	return true
}

func (o *Outliner) removeFolder(path string) bool {
	f, ok := o.tree.folders[path]
	if !ok {
		return false
	}
	o.drop(f)
	o.selFolders = slices.DeleteFunc(o.selFolders, func(s string) bool { return s == path })
	return true
}

func (o *Outliner) drop(it Item) {
	parent := o.tree.unlink(it)
	o.tree.unindex(it)
	for c := range it.state().children {
		o.replace(c)
	}
	clear(it.state().children)
	if e, ok := it.(*EntityItem); ok {
		o.selEntities = slices.DeleteFunc(o.selEntities, func(s ecs.EntityID) bool { return s == e.ID })
	}
	o.prune(parent)
}

// replace puts an orphaned child back where it belongs.
func (o *Outliner) replace(k ItemID) {
	it := o.tree.Lookup(k)
	if it == nil {
		return
	}
	it.state().parent = RootKey
	var parent ItemID
	if k.IsEntity() {
		if !o.world.Displayable(k.Entity) {
			o.drop(it)
			return
		}
		parent = o.parentKeyFor(k.Entity)
	} else {
		if !o.folders.Exists(k.Folder) {
			o.drop(it)
			return
		}
		parent = folderParentKey(k.Folder)
	}
	o.ensureParent(parent)
	if o.cyclic(k, parent) {
		parent = RootKey
	}
	o.tree.link(it, parent)
}

// prune removes filtered-out ancestors left without children.
func (o *Outliner) prune(k ItemID) {
	for !k.IsZero() {
		it := o.tree.Lookup(k)
		if it == nil {
			return
		}
		n := it.state()
		if !n.filteredOut || len(n.children) > 0 {
			return
		}
		k = n.parent
		o.tree.unlink(it)
		o.tree.unindex(it)
	}
}

// renameFolder re-keys the folder item in place so its identity, expansion
// and children survive. Renaming onto an existing item merges the two.
func (o *Outliner) renameFolder(oldPath, newPath string) bool {
	f, ok := o.tree.folders[oldPath]
	if !ok {
		return o.addFolder(newPath)
	}
	if dst, ok := o.tree.folders[newPath]; ok && dst != f {
		for c := range f.children {
			if child := o.tree.Lookup(c); child != nil {
				child.state().parent = dst.Key()
				dst.addChild(c)
			}
		}
		clear(f.children)
		dst.filteredOut = !o.folderPasses(newPath)
		o.renameSelectedFolder(oldPath, newPath)
		o.removeFolder(oldPath)
		o.prune(dst.Key())
		return true
	}

	old := o.tree.unlink(f)
	o.tree.unindex(f)
	f.path = newPath
	f.filteredOut = !o.folderPasses(newPath)
	o.tree.index(f)
	for c := range f.children {
		if child := o.tree.Lookup(c); child != nil {
			child.state().parent = f.Key()
		}
	}
	parent := folderParentKey(newPath)
	o.ensureParent(parent)
	o.tree.link(f, parent)
	o.prune(old)
	o.renameSelectedFolder(oldPath, newPath)
	o.prune(f.Key())
	return true
}

func (o *Outliner) renameSelectedFolder(oldPath, newPath string) {
	i := slices.Index(o.selFolders, oldPath)
	if i < 0 {
		return
	}
	if slices.Contains(o.selFolders, newPath) {
		o.selFolders = slices.Delete(o.selFolders, i, i+1)
		return
	}
	o.selFolders[i] = newPath
}
