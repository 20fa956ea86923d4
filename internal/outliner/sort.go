package outliner

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/folder"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Direction is the sort direction of the active column.
type Direction int

const (
	SortAscending Direction = iota
	SortDescending
	// SortNone orders by display name only.
	SortNone
)

func (d Direction) String() string {
	switch d {
	case SortDescending:
		return "descending"
	case SortNone:
		return "none"
	default:
		return "ascending"
	}
}

// ParseDirection accepts "asc", "ascending", "desc", "descending" and "none".
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return SortAscending, true
	case "desc", "descending":
		return SortDescending, true
	case "none":
		return SortNone, true
	}
	return SortAscending, false
}

// Built-in column ids.
const (
	ColumnLabel = "label"
	ColumnClass = "class"
)

// Column compares two entities. ok=false means the column has no opinion and
// the display name decides.
type Column interface {
	ID() string
	Compare(w World, a, b ecs.EntityID) (c int, ok bool)
}

type funcColumn struct {
	id string
	fn func(World, ecs.EntityID, ecs.EntityID) (int, bool)
}

func (c funcColumn) ID() string { return c.id }
func (c funcColumn) Compare(w World, a, b ecs.EntityID) (int, bool) {
	return c.fn(w, a, b)
}

// ColumnFunc adapts a comparison function to a Column.
func ColumnFunc(id string, fn func(World, ecs.EntityID, ecs.EntityID) (int, bool)) Column {
	return funcColumn{id: id, fn: fn}
}

// LabelColumn sorts by label. Ties fall through to the display name order.
func LabelColumn() Column {
	return ColumnFunc(ColumnLabel, func(World, ecs.EntityID, ecs.EntityID) (int, bool) {
		return 0, false
	})
}

// ClassColumn sorts by class name, case-folded.
func ClassColumn() Column {
	fold := cases.Fold()
	return ColumnFunc(ColumnClass, func(w World, a, b ecs.EntityID) (int, bool) {
		return strings.Compare(fold.String(w.Class(a)), fold.String(w.Class(b))), true
	})
}

// RegisterColumn makes a column available to SetSort. A column with the same
// id is replaced.
func (o *Outliner) RegisterColumn(c Column) {
	o.columns[c.ID()] = c
	if o.sortColumn != nil && o.sortColumn.ID() == c.ID() {
		o.sortColumn = c
		o.invalidateSort()
	}
}

// SetSort selects the active column and direction.
func (o *Outliner) SetSort(columnID string, dir Direction) error {
	c, ok := o.columns[columnID]
	if !ok {
		return columnError(columnID)
	}
	if c.ID() == o.sortColumn.ID() && dir == o.sortDir {
		return nil
	}
	o.sortColumn = c
	o.sortDir = dir
	o.invalidateSort()
	return nil
}

// Sort returns the active column id and direction.
func (o *Outliner) Sort() (string, Direction) { return o.sortColumn.ID(), o.sortDir }

// invalidateSort drops every cached child order and re-sorts the roots.
func (o *Outliner) invalidateSort() {
	o.sortGen++
	o.RequestSort()
}

// SetSimulating turns sort throttling on or off. Leaving simulation sorts
// right away if a sort was deferred.
func (o *Outliner) SetSimulating(on bool) {
	if o.simulating == on {
		return
	}
	o.simulating = on
	o.sinceSort = 0
	if !on && o.sortDue {
		o.sortRoots()
	}
}

// RequestSort sorts the root list now, or on a later TickSort while a
// simulation is running.
func (o *Outliner) RequestSort() {
	if o.simulating {
		o.sortDue = true
		return
	}
	o.sortRoots()
}

// TickSort advances the throttle timer. It reports whether the roots were
// sorted.
func (o *Outliner) TickSort(dt time.Duration) bool {
	if !o.simulating {
		return false
	}
	o.sinceSort += dt
	if !o.sortDue || o.sinceSort < o.opts.ResortInterval {
		return false
	}
	o.sortRoots()
	return true
}

func (o *Outliner) sortRoots() {
	o.sortDue = false
	o.sinceSort = 0
	slices.SortStableFunc(o.tree.rootOrder, o.compareKeys)
	o.log.Debug("roots sorted", zap.Int("roots", len(o.tree.rootOrder)))
}

// sortedChildren returns the children of n in display order, dropping keys
// that no longer resolve or whose entity died. The order is cached until the child set or the
// sort criteria change.
func (o *Outliner) sortedChildren(n *itemState) []ItemID {
	if n.sortGen == o.sortGen {
		return n.sorted
	}
	n.sorted = n.sorted[:0]
	for k := range n.children {
		if o.staleKey(k) {
			continue
		}
		n.sorted = append(n.sorted, k)
	}
	slices.SortStableFunc(n.sorted, o.compareKeys)
	n.sortGen = o.sortGen
	return n.sorted
}

// staleKey reports a key that cannot be shown. Dead entities are queued for
// removal; sorted caches containing them are rebuilt after that removal.
func (o *Outliner) staleKey(k ItemID) bool {
	if o.tree.Lookup(k) == nil {
		return true
	}
	if k.IsEntity() && !o.world.Alive(k.Entity) {
		o.log.Debug("stale entity item", zap.Stringer("id", k.Entity), zap.Error(ErrStaleReference))
		o.queueRemoval(k.Entity)
		return true
	}
	return false
}

// compareKeys orders two items: folders first, then the active column, then
// display name case-folded, then byte-wise, then by key.
func (o *Outliner) compareKeys(a, b ItemID) int {
	if af, bf := a.IsFolder(), b.IsFolder(); af != bf {
		if af {
			return -1
		}
		return 1
	}
	c := 0
	if o.sortDir != SortNone && a.IsEntity() && o.world.Alive(a.Entity) && o.world.Alive(b.Entity) {
		if v, ok := o.sortColumn.Compare(o.world, a.Entity, b.Entity); ok {
			c = v
		}
	}
	if c == 0 {
		c = o.compareNames(a, b)
	}
	if o.sortDir == SortDescending {
		c = -c
	}
	return c
}

func (o *Outliner) compareNames(a, b ItemID) int {
	na, nb := o.displayName(a), o.displayName(b)
	if c := strings.Compare(o.fold.String(na), o.fold.String(nb)); c != 0 {
		return c
	}
	if c := strings.Compare(na, nb); c != 0 {
		return c
	}
	if a.IsFolder() {
		return strings.Compare(a.Folder, b.Folder)
	}
	return cmp.Compare(a.Entity, b.Entity)
}

func (o *Outliner) displayName(k ItemID) string {
	if k.IsFolder() {
		return folder.Leaf(k.Folder)
	}
	if !o.world.Alive(k.Entity) {
		return ""
	}
	return o.world.Label(k.Entity)
}
