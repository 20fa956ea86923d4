package outliner

import (
	"testing"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFilterTerms(t *testing.T) {
	tests := []struct {
		text   string
		fields []string
		want   bool
	}{
		{"", []string{"anything"}, true},
		{"lamp", []string{"Desk Lamp", "PointLight"}, true},
		{"LAMP", []string{"desk lamp"}, true},
		{"desk light", []string{"Desk Lamp", "PointLight"}, true},
		{"desk chair", []string{"Desk Lamp", "PointLight"}, false},
		{"-light", []string{"Desk Lamp", "PointLight"}, false},
		{"desk -chair", []string{"Desk Lamp", "PointLight"}, true},
		{"-", []string{"a-b"}, true},
	}
	for _, tt := range tests {
		f := newTextFilter(tt.text)
		assert.Equal(t, tt.want, f.matches(tt.fields...), "%q against %v", tt.text, tt.fields)
	}
}

func TestFilterKeepsAncestorsFilteredOut(t *testing.T) {
	f, _, _, _ := newSample(t)

	f.o.SetFilterText("cup")
	assert.Equal(t, PendingFull, f.o.State())
	f.settle()
	assert.Equal(t, lines(
		"(Table)",
		"  Cup",
	), f.outline())

	f.o.SetFilterText("light")
	f.settle()
	assert.Equal(t, lines(
		"[Lights]",
		"  ([Interior])",
		"    Lamp",
	), f.outline())

	f.o.SetFilterText("-lamp")
	f.settle()
	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
		"Table",
		"  Cup",
	), f.outline())
}

func TestFilteredTreeStaysConsistentIncrementally(t *testing.T) {
	f, table, cup, lamp := newSample(t)
	f.o.SetFilterText("lamp")
	f.settle()
	assert.Equal(t, lines(
		"([Lights])",
		"  ([Interior])",
		"    Lamp",
	), f.outline())

	// No longer matching: the item and its now empty ancestors go.
	require.NoError(t, f.world.SetLabel(lamp, "Bulb"))
	f.settle()
	assert.Equal(t, "", f.outline())
	f.requireMatchesRebuild()

	// A match below a non-matching parent brings the parent back filtered out.
	desk := f.spawn(scene.Spawn{Label: "Desk lamp", Parent: cup})
	f.settle()
	assert.Equal(t, lines(
		"(Table)",
		"  (Cup)",
		"    Desk lamp",
	), f.outline())
	f.requireMatchesRebuild()

	// The parent starts matching and stays, now visible.
	require.NoError(t, f.world.SetLabel(table, "Lamp table"))
	f.settle()
	assert.Equal(t, lines(
		"Lamp table",
		"  (Cup)",
		"    Desk lamp",
	), f.outline())
	f.requireMatchesRebuild()

	// Moving the match out prunes the filtered-out chain it left.
	require.NoError(t, f.world.Detach(desk))
	f.settle()
	assert.Equal(t, lines(
		"Desk lamp",
		"Lamp table",
	), f.outline())
	f.requireMatchesRebuild()
}

func TestBooleanFilters(t *testing.T) {
	f, _, cup, _ := newSample(t)
	f.spawn(scene.Spawn{Label: "Preview", Ephemeral: true})
	f.settle()
	_, ok := f.o.Tree().Entity(cup)
	require.True(t, ok)

	f.o.AddFilter(HideEphemeral())
	f.settle()
	assert.NotContains(t, f.outline(), "Preview")

	f.o.AddFilter(FilterFunc("no-cups", func(w World, id ecs.EntityID) bool {
		return w.Label(id) != "Cup"
	}))
	f.settle()
	assert.Equal(t, []string{FilterHideEphemeral, "no-cups"}, f.o.FilterNames())
	_, ok = f.o.Tree().Entity(cup)
	assert.False(t, ok)

	// Same name replaces.
	f.o.AddFilter(FilterFunc("no-cups", func(World, ecs.EntityID) bool { return true }))
	f.settle()
	assert.Len(t, f.o.FilterNames(), 2)
	_, ok = f.o.Tree().Entity(cup)
	assert.True(t, ok)

	assert.True(t, f.o.RemoveFilter(FilterHideEphemeral))
	assert.False(t, f.o.RemoveFilter(FilterHideEphemeral))
	f.settle()
	assert.Contains(t, f.outline(), "Preview")
}

func TestOnlySelectedFilterFollowsSelection(t *testing.T) {
	f, table, cup, _ := newSample(t)
	f.o.AddFilter(OnlySelected(f.world.Selection()))
	f.settle()
	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
	), f.outline())

	f.world.Selection().Select(cup)
	assert.Equal(t, PendingFull, f.o.State())
	f.settle()
	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
		"(Table)",
		"  Cup",
	), f.outline())
	assert.Equal(t, []ecs.EntityID{cup}, f.o.SelectedEntities())

	f.o.SetTreeSelection([]ItemID{EntityKey(table)})
	assert.Equal(t, PendingFull, f.o.State())
	f.settle()
	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
		"Table",
	), f.outline())
}

func TestFilterStatus(t *testing.T) {
	f, _, cup, _ := newSample(t)
	assert.Equal(t, "3 entities", f.o.FilterStatus())

	f.world.Selection().Select(cup)
	assert.Equal(t, "3 entities (1 selected)", f.o.FilterStatus())

	f.o.SetFilterText("cup")
	f.settle()
	assert.Equal(t, "Showing 1 of 3 entities (1 selected)", f.o.FilterStatus())

	f.world.Selection().SelectNone()
	assert.Equal(t, "Showing 1 of 3 entities", f.o.FilterStatus())

	f.o.SetFilterText("zzz")
	f.settle()
	assert.Equal(t, "No matching entities (3 total)", f.o.FilterStatus())
}
