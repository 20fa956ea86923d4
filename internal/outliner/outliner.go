// Package outliner keeps a filtered, sorted tree of a world's folders and
// entities in step with the world. World notifications are queued and applied
// once per refresh, incrementally when possible. The outliner also validates
// and applies drag-and-drop moves and mirrors the world selection.
//
// An Outliner is driven from the editor goroutine only.
package outliner

import (
	"time"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/core/event"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Mode selects what a tree selection does.
type Mode int

const (
	// ModeBrowse mirrors the tree selection into the world selection.
	ModeBrowse Mode = iota
	// ModePicker reports the picked entity and leaves the world selection alone.
	ModePicker
)

// DefaultResortInterval bounds how often the root list is re-sorted while a
// simulation is running.
const DefaultResortInterval = time.Second

// Options configure an Outliner.
type Options struct {
	// ShowHierarchy nests attached entities under their attachment parent.
	// Otherwise entities are grouped by folder only.
	ShowHierarchy  bool
	Mode           Mode
	SortColumn     string
	SortDirection  Direction
	ResortInterval time.Duration
}

// Outliner is the tree view model of one world.
type Outliner struct {
	world   World
	folders Folders
	sel     Selection
	bus     *event.Bus
	log     *zap.Logger
	opts    Options

	tree    *Tree
	state   State
	pending pending
	// forceFull turns the end of an incremental apply into a pending rebuild.
	forceFull bool
	// reuse pools items of the previous tree during a full rebuild.
	reuseEntities map[ecs.EntityID]*EntityItem
	reuseFolders  map[string]*FolderItem

	text    textFilter
	filters []Filter

	columns    map[string]Column
	sortColumn Column
	sortDir    Direction
	sortGen    uint64
	fold       cases.Caser
	simulating bool
	sortDue    bool
	sinceSort  time.Duration

	selEntities []ecs.EntityID
	selFolders  []string
	syncing     bool
}

// New creates an outliner over world and subscribes it to the world's
// notifications on bus. The tree is empty until the first Refresh.
func New(world World, folders Folders, sel Selection, bus *event.Bus, log *zap.Logger, opts Options) *Outliner {
	if opts.ResortInterval <= 0 {
		opts.ResortInterval = DefaultResortInterval
	}
	o := &Outliner{
		world:   world,
		folders: folders,
		sel:     sel,
		bus:     bus,
		log:     log.Named("outliner"),
		opts:    opts,
		tree:    newTree(),
		state:   PendingFull,
		text:    newTextFilter(""),
		columns: make(map[string]Column),
		sortDir: opts.SortDirection,
		sortGen: 1,
		fold:    cases.Fold(),
	}
	o.RegisterColumn(LabelColumn())
	o.RegisterColumn(ClassColumn())
	o.sortColumn = o.columns[ColumnLabel]
	if c, ok := o.columns[opts.SortColumn]; ok {
		o.sortColumn = c
	}
	o.subscribe()
	return o
}

func (o *Outliner) subscribe() {
	event.Subscribe(o.bus, func(e event.EntityAdded) { o.OnEntityAdded(e.ID) })
	event.Subscribe(o.bus, func(e event.EntityRemoved) { o.OnEntityRemoved(e.ID) })
	event.Subscribe(o.bus, func(e event.EntityAttached) { o.OnEntityAttached(e.Child, e.Parent) })
	event.Subscribe(o.bus, func(e event.EntityDetached) { o.OnEntityDetached(e.Child, e.OldParent) })
	event.Subscribe(o.bus, func(e event.EntityFolderChanged) { o.OnEntityFolderChanged(e.ID, e.OldPath) })
	event.Subscribe(o.bus, func(e event.EntityLabelChanged) { o.OnEntityChanged(e.ID) })
	event.Subscribe(o.bus, func(e event.FolderCreated) { o.OnFolderCreated(e.Path) })
	event.Subscribe(o.bus, func(e event.FolderDeleted) { o.OnFolderDeleted(e.Path) })
	event.Subscribe(o.bus, func(e event.FolderRenamed) { o.OnFolderRenamed(e.OldPath, e.NewPath) })
	event.Subscribe(o.bus, func(event.WorldSelectionChanged) { o.OnWorldSelectionChanged() })
	event.Subscribe(o.bus, func(e event.WorldReset) { o.OnWorldReset(e.Reason) })
}

// Tree exposes the item model, mostly for inspection.
func (o *Outliner) Tree() *Tree { return o.tree }

// State returns where the outliner is in its refresh cycle.
func (o *Outliner) State() State { return o.state }

func (o *Outliner) Options() Options { return o.opts }

// Item resolves a key against the current tree.
func (o *Outliner) Item(k ItemID) (Item, bool) {
	it := o.tree.Lookup(k)
	return it, it != nil
}

// SetShowHierarchy switches between attachment nesting and folder-only
// grouping. It needs a full rebuild.
func (o *Outliner) SetShowHierarchy(show bool) {
	if o.opts.ShowHierarchy == show {
		return
	}
	o.opts.ShowHierarchy = show
	o.FullRefresh()
}

// SetMode switches between browsing and picking.
func (o *Outliner) SetMode(m Mode) { o.opts.Mode = m }
