package outliner

import (
	"slices"
	"strings"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/folder"
	"golang.org/x/text/cases"
)

// Names of the built-in filters.
const (
	FilterOnlySelected  = "only-selected"
	FilterHideEphemeral = "hide-ephemeral"
)

// Filter is a boolean predicate over entities. Filters are combined with AND.
// Folders are judged by the text filter only.
type Filter interface {
	Name() string
	Passes(w World, id ecs.EntityID) bool
}

type funcFilter struct {
	name string
	fn   func(World, ecs.EntityID) bool
}

func (f funcFilter) Name() string                         { return f.name }
func (f funcFilter) Passes(w World, id ecs.EntityID) bool { return f.fn(w, id) }

// FilterFunc adapts a plain function to a named Filter.
func FilterFunc(name string, fn func(World, ecs.EntityID) bool) Filter {
	return funcFilter{name: name, fn: fn}
}

// OnlySelected passes entities in the world selection.
func OnlySelected(sel Selection) Filter {
	return FilterFunc(FilterOnlySelected, func(_ World, id ecs.EntityID) bool {
		return sel.IsSelected(id)
	})
}

// HideEphemeral drops transient entities.
func HideEphemeral() Filter {
	return FilterFunc(FilterHideEphemeral, func(w World, id ecs.EntityID) bool {
		return !w.Ephemeral(id)
	})
}

// textFilter matches whitespace-separated terms against case-folded strings.
// A term prefixed with '-' must match none of them.
type textFilter struct {
	raw  string
	want []string
	deny []string
	fold cases.Caser
}

func newTextFilter(raw string) textFilter {
	f := textFilter{raw: raw, fold: cases.Fold()}
	for _, term := range strings.Fields(raw) {
		if len(term) > 1 && term[0] == '-' {
			f.deny = append(f.deny, f.fold.String(term[1:]))
			continue
		}
		f.want = append(f.want, f.fold.String(term))
	}
	return f
}

func (f *textFilter) active() bool { return len(f.want)+len(f.deny) > 0 }

func (f *textFilter) matches(fields ...string) bool {
	if !f.active() {
		return true
	}
	folded := make([]string, len(fields))
	for i, s := range fields {
		folded[i] = f.fold.String(s)
	}
	contains := func(term string) bool {
		for _, s := range folded {
			if strings.Contains(s, term) {
				return true
			}
		}
		return false
	}
	for _, term := range f.want {
		if !contains(term) {
			return false
		}
	}
	for _, term := range f.deny {
		if contains(term) {
			return false
		}
	}
	return true
}

// FilterText returns the current search text.
func (o *Outliner) FilterText() string { return o.text.raw }

// SetFilterText replaces the search text and schedules a full rebuild.
func (o *Outliner) SetFilterText(text string) {
	if text == o.text.raw {
		return
	}
	o.text = newTextFilter(text)
	o.FullRefresh()
}

// AddFilter installs f, replacing a filter of the same name.
func (o *Outliner) AddFilter(f Filter) {
	if i := o.filterIndex(f.Name()); i >= 0 {
		o.filters[i] = f
	} else {
		o.filters = append(o.filters, f)
	}
	o.FullRefresh()
}

// RemoveFilter uninstalls the named filter. It reports whether one was found.
func (o *Outliner) RemoveFilter(name string) bool {
	i := o.filterIndex(name)
	if i < 0 {
		return false
	}
	o.filters = slices.Delete(o.filters, i, i+1)
	o.FullRefresh()
	return true
}

func (o *Outliner) HasFilter(name string) bool { return o.filterIndex(name) >= 0 }

// FilterNames lists installed filters in installation order.
func (o *Outliner) FilterNames() []string {
	names := make([]string, len(o.filters))
	for i, f := range o.filters {
		names[i] = f.Name()
	}
	return names
}

// FilterActive reports whether anything narrows the tree.
func (o *Outliner) FilterActive() bool { return o.text.active() || len(o.filters) > 0 }

func (o *Outliner) filterIndex(name string) int {
	return slices.IndexFunc(o.filters, func(f Filter) bool { return f.Name() == name })
}

// passes reports whether an entity belongs in the tree as a visible item.
func (o *Outliner) passes(id ecs.EntityID) bool {
	if !o.world.Displayable(id) {
		return false
	}
	if !o.text.matches(o.world.Label(id), o.world.Class(id)) {
		return false
	}
	for _, f := range o.filters {
		if !f.Passes(o.world, id) {
			return false
		}
	}
	return true
}

func (o *Outliner) folderPasses(path string) bool {
	return o.text.matches(folder.Leaf(path))
}
