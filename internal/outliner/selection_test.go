package outliner

import (
	"testing"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionRoundTrip(t *testing.T) {
	f, table, cup, lamp := newSample(t)
	rec := record(f.bus)
	sel := f.world.Selection()

	f.o.SetTreeSelection([]ItemID{EntityKey(table), EntityKey(lamp)})
	assert.ElementsMatch(t, []ecs.EntityID{table, lamp}, sel.Selected())
	assert.Equal(t, 1, rec.world, "one batched world change")
	assert.ElementsMatch(t, []ecs.EntityID{table, lamp}, f.o.SelectedEntities())

	// Same set again: the world is not touched.
	f.o.SetTreeSelection([]ItemID{EntityKey(lamp), EntityKey(table)})
	assert.Equal(t, 1, rec.world)

	sel.BeginBatch()
	sel.SelectNone()
	sel.Select(cup)
	sel.EndBatch()
	assert.Equal(t, []ecs.EntityID{cup}, f.o.SelectedEntities())
	require.NotEmpty(t, rec.selection)
	assert.Equal(t, []ecs.EntityID{cup}, rec.selection[len(rec.selection)-1].Entities)
	require.NotEmpty(t, rec.scrolled)
	assert.Equal(t, EntityKey(cup), rec.scrolled[len(rec.scrolled)-1].Key)

	rows := f.o.VisibleTree()
	require.Len(t, rows, 2)
	assert.True(t, rows[1].Children[0].Selected, "Cup row")
	assert.False(t, rows[1].Selected, "Table row")
}

func TestWorldSelectionLimitedToTree(t *testing.T) {
	f, table, _, _ := newSample(t)
	hidden := f.spawn(scene.Spawn{Label: "Hidden"})
	f.settle()
	require.NoError(t, f.world.SetHidden(hidden, true))
	f.settle()

	// Keys without a tree item are ignored.
	f.o.SetTreeSelection([]ItemID{EntityKey(table), EntityKey(hidden)})
	assert.Equal(t, []ecs.EntityID{table}, f.world.Selection().Selected())
	assert.Equal(t, []ecs.EntityID{table}, f.o.SelectedEntities())
}

func TestGroupSelectionExpandsToMembers(t *testing.T) {
	f, table, cup, lamp := newSample(t)
	inner := f.spawn(scene.Spawn{Label: "Inner", Members: []ecs.EntityID{cup, lamp}})
	outer := f.spawn(scene.Spawn{Label: "Outer", Members: []ecs.EntityID{table, inner, lamp}})
	f.settle()

	f.o.SetTreeSelection([]ItemID{EntityKey(outer)})
	assert.Equal(t, []ecs.EntityID{table, cup, lamp}, f.world.Selection().Selected())
	assert.False(t, f.world.Selection().IsSelected(outer))
	assert.False(t, f.world.Selection().IsSelected(inner))
}

func TestFolderSelectionIsTreeLocal(t *testing.T) {
	f, table, cup, _ := newSample(t)

	f.o.SetTreeSelection([]ItemID{FolderKey("Lights"), EntityKey(table)})
	assert.Equal(t, []string{"Lights"}, f.o.SelectedFolders())
	assert.Equal(t, []ecs.EntityID{table}, f.world.Selection().Selected())
	assert.True(t, f.o.IsSelected(FolderKey("Lights")))

	// Another panel changes the world selection; the folder stays selected.
	f.world.Selection().Select(cup)
	assert.Equal(t, []string{"Lights"}, f.o.SelectedFolders())
	assert.ElementsMatch(t, []ecs.EntityID{table, cup}, f.o.SelectedEntities())

	// Renaming the folder carries the selection along.
	require.NoError(t, f.world.Folders().Rename("Lights", "Environment"))
	f.settle()
	assert.Equal(t, []string{"Environment"}, f.o.SelectedFolders())

	require.NoError(t, f.world.Folders().Delete("Environment", true))
	f.settle()
	assert.Empty(t, f.o.SelectedFolders())
}

func TestPickerModeReportsInsteadOfSelecting(t *testing.T) {
	f, table, cup, _ := newSample(t)
	rec := record(f.bus)
	f.o.SetMode(ModePicker)
	f.o.SetFilterText("cup")
	f.settle()

	// Table is only an ancestor here and cannot be picked.
	f.o.SetTreeSelection([]ItemID{FolderKey("Lights"), EntityKey(table), EntityKey(cup)})
	require.Len(t, rec.picked, 1)
	assert.Equal(t, cup, rec.picked[0].ID)
	assert.Empty(t, f.world.Selection().Selected())
	assert.Zero(t, rec.world)
}

func TestSelectFilterMatches(t *testing.T) {
	f, _, cup, _ := newSample(t)
	saucer := f.spawn(scene.Spawn{Label: "Cup saucer", Parent: cup})
	f.settle()

	f.o.SetFilterText("saucer")
	f.settle()
	assert.Equal(t, 1, f.o.SelectFilterMatches())
	assert.Equal(t, []ecs.EntityID{saucer}, f.world.Selection().Selected())

	f.o.SetFilterText("cup")
	f.settle()
	assert.Equal(t, 2, f.o.SelectFilterMatches())
	assert.ElementsMatch(t, []ecs.EntityID{cup, saucer}, f.world.Selection().Selected())
}

func TestRenameRequestWaitsForScroll(t *testing.T) {
	f, _, cup, _ := newSample(t)
	rec := record(f.bus)

	require.True(t, f.o.RequestRename(EntityKey(cup)))
	require.Len(t, rec.scrolled, 1)
	assert.Equal(t, EntityKey(cup), rec.scrolled[0].Key)
	assert.Empty(t, rec.renames)
	item, _ := f.o.Item(EntityKey(cup))
	assert.True(t, item.RenameRequested())

	f.o.NotifyScrolledIntoView(EntityKey(cup))
	f.o.NotifyScrolledIntoView(EntityKey(cup))
	require.Len(t, rec.renames, 1)
	assert.Equal(t, EntityKey(cup), rec.renames[0].Key)
	assert.False(t, item.RenameRequested())

	assert.False(t, f.o.RequestRename(EntityKey(ecs.NewEntityID(99, 1))))
}

func TestVisitHonorsExpansion(t *testing.T) {
	f, table, _, _ := newSample(t)

	visit := func() []string {
		var out []string
		f.o.Visit(func(r Row) { out = append(out, r.Label) })
		return out
	}
	assert.Equal(t, []string{"Lights", "Table"}, visit())

	require.True(t, f.o.SetExpanded(EntityKey(table), true))
	assert.Equal(t, []string{"Lights", "Table", "Cup"}, visit())

	f.o.ExpandAll()
	assert.Equal(t, []string{"Lights", "Interior", "Lamp", "Table", "Cup"}, visit())
	assert.False(t, f.o.SetExpanded(FolderKey("Nope"), true))
}
