package outliner

import (
	"testing"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullRebuildPlacesEntities(t *testing.T) {
	f, _, _, _ := newSample(t)

	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
		"    Lamp",
		"Table",
		"  Cup",
	), f.outline())
	assert.Equal(t, Idle, f.o.State())
}

func TestFolderOnlyModeIgnoresAttachment(t *testing.T) {
	f := newFixture(t, Options{})
	table := f.spawn(scene.Spawn{Label: "Table"})
	f.spawn(scene.Spawn{Label: "Cup", Parent: table})
	f.spawn(scene.Spawn{Label: "Lamp", Folder: "Lights"})
	f.settle()

	assert.Equal(t, lines(
		"[Lights]",
		"  Lamp",
		"Cup",
		"Table",
	), f.outline())

	f.o.SetShowHierarchy(true)
	f.settle()
	assert.Equal(t, lines(
		"[Lights]",
		"  Lamp",
		"Table",
		"  Cup",
	), f.outline())
}

func TestRebuildIsIdempotent(t *testing.T) {
	f, table, cup, lamp := newSample(t)
	tree := f.o.Tree()

	before := map[ItemID]Item{}
	children := map[ItemID]int{}
	for _, k := range []ItemID{EntityKey(table), EntityKey(cup), EntityKey(lamp), FolderKey("Lights"), FolderKey("Lights/Interior")} {
		it := tree.Lookup(k)
		require.NotNil(t, it, k)
		before[k] = it
		children[k] = it.NumChildren()
	}
	outline := f.outline()

	for i := 0; i < 2; i++ {
		f.o.FullRefresh()
		f.settle()
	}

	assert.Equal(t, outline, f.outline())
	for k, it := range before {
		assert.Same(t, it, tree.Lookup(k), k)
		assert.Equal(t, children[k], tree.Lookup(k).NumChildren(), k)
		assert.Equal(t, it.Parent(), tree.Lookup(k).Parent(), k)
	}
}

func TestRenameFolderKeepsIdentity(t *testing.T) {
	f, _, _, lamp := newSample(t)
	rec := record(f.bus)
	lights, ok := f.o.Tree().Folder("Lights")
	require.True(t, ok)
	interior, _ := f.o.Tree().Folder("Lights/Interior")
	f.o.SetExpanded(lights.Key(), true)

	require.NoError(t, f.world.Folders().Rename("Lights", "Environment"))
	f.settle()

	assert.Equal(t, lines(
		"[Environment]",
		"  [Interior]",
		"    Lamp",
		"Table",
		"  Cup",
	), f.outline())
	assert.Equal(t, "Environment/Interior", f.world.FolderPath(lamp))
	assert.Equal(t, []string{"Environment", "Environment/Interior"}, f.world.Folders().Paths())

	env, ok := f.o.Tree().Folder("Environment")
	require.True(t, ok)
	assert.Same(t, lights, env)
	assert.True(t, env.Expanded())
	moved, _ := f.o.Tree().Folder("Environment/Interior")
	assert.Same(t, interior, moved)
	_, ok = f.o.Tree().Folder("Lights")
	assert.False(t, ok)

	require.Len(t, rec.refreshed, 1)
	assert.Equal(t, TreeRefreshed{Full: false, Changed: true}, rec.refreshed[0])
	f.requireMatchesRebuild()
}

func TestRenameOntoAncestorMergesItems(t *testing.T) {
	f := newFixture(t, Options{})
	deep := f.spawn(scene.Spawn{Label: "Deep", Folder: "A/B/B"})
	f.settle()

	require.NoError(t, f.world.Folders().Rename("A/B", "A"))
	f.settle()

	assert.Equal(t, "A/B", f.world.FolderPath(deep))
	assert.Equal(t, lines(
		"[A]",
		"  [B]",
		"    Deep",
	), f.outline())
	f.requireMatchesRebuild()
}

func TestIncrementalOrderAndNoopCycles(t *testing.T) {
	f, table, cup, _ := newSample(t)
	rec := record(f.bus)

	assert.False(t, f.o.Refresh(), "nothing pending")
	assert.Empty(t, rec.refreshed)

	// Added and attached in one cycle: the attach finds the item already placed.
	saucer := f.spawn(scene.Spawn{Label: "Saucer"})
	require.NoError(t, f.world.Attach(saucer, cup))
	assert.Equal(t, Idle, f.o.State(), "nothing delivered yet")
	f.bus.Flush(8)
	assert.Equal(t, PendingIncremental, f.o.State())
	f.settle()
	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
		"    Lamp",
		"Table",
		"  Cup",
		"    Saucer",
	), f.outline())

	// Added and destroyed in one cycle leaves no trace.
	ghost := f.spawn(scene.Spawn{Label: "Ghost"})
	require.NoError(t, f.world.Destroy(ghost))
	f.settle()
	_, ok := f.o.Tree().Entity(ghost)
	assert.False(t, ok)

	// A detach/attach back to the same parent is not a change.
	require.NoError(t, f.world.Detach(saucer))
	require.NoError(t, f.world.Attach(saucer, cup))
	f.bus.Flush(8)
	assert.False(t, f.o.Refresh())
	assert.Equal(t, TreeRefreshed{Changed: false}, rec.refreshed[len(rec.refreshed)-1])

	f.o.OnEntityAttached(table, table)
	assert.Equal(t, Idle, f.o.State(), "self attachment is ignored")
	f.requireMatchesRebuild()
}

func TestDestroyReplacesChildren(t *testing.T) {
	f, table, cup, _ := newSample(t)

	require.NoError(t, f.world.Destroy(table))
	f.settle()
	f.world.FlushDestroyed()

	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
		"    Lamp",
		"Cup",
	), f.outline())
	_, ok := f.o.Tree().Entity(table)
	assert.False(t, ok)
	_, ok = f.o.Tree().Entity(cup)
	assert.True(t, ok)
	f.requireMatchesRebuild()
}

func TestStaleHandleIsImplicitRemoval(t *testing.T) {
	f, table, _, _ := newSample(t)

	// The notifications are never delivered; only the handle dies.
	require.NoError(t, f.world.Destroy(table))
	f.world.FlushDestroyed()
	require.False(t, f.world.Alive(table))

	for _, r := range f.o.VisibleTree() {
		assert.NotEqual(t, EntityKey(table), r.Key)
	}
	assert.Equal(t, PendingIncremental, f.o.State())
	assert.Equal(t, 1, f.o.Validate())

	f.o.Refresh()
	require.NoError(t, f.o.Tree().Check())
	_, ok := f.o.Tree().Entity(table)
	assert.False(t, ok)
	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
		"    Lamp",
		"Cup",
	), f.outline())
}

func TestHiddenParentReleasesAndAdoptsChildren(t *testing.T) {
	f, table, _, _ := newSample(t)

	require.NoError(t, f.world.SetHidden(table, true))
	f.settle()
	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
		"    Lamp",
		"Cup",
	), f.outline())
	f.requireMatchesRebuild()

	require.NoError(t, f.world.SetHidden(table, false))
	f.settle()
	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
		"    Lamp",
		"Table",
		"  Cup",
	), f.outline())
	f.requireMatchesRebuild()
}

func TestFolderDeleteCascade(t *testing.T) {
	f, _, _, lamp := newSample(t)

	require.NoError(t, f.world.Folders().Delete("Lights", true))
	f.settle()

	assert.Equal(t, "", f.world.FolderPath(lamp))
	assert.Equal(t, lines(
		"Lamp",
		"Table",
		"  Cup",
	), f.outline())
	f.requireMatchesRebuild()
}

func TestEmptyFoldersAreShown(t *testing.T) {
	f, _, _, _ := newSample(t)

	f.world.Folders().Create("Props/Kitchen")
	f.settle()
	assert.Equal(t, lines(
		"[Lights]",
		"  [Interior]",
		"    Lamp",
		"[Props]",
		"  [Kitchen]",
		"Table",
		"  Cup",
	), f.outline())

	require.NoError(t, f.world.Folders().Delete("Props/Kitchen", false))
	f.settle()
	_, ok := f.o.Tree().Folder("Props/Kitchen")
	assert.False(t, ok)
	f.requireMatchesRebuild()
}

func TestNotificationsDroppedWhileApplying(t *testing.T) {
	f, _, _, _ := newSample(t)

	var late ecs.EntityID
	f.o.AddFilter(FilterFunc("reentrant", func(_ World, id ecs.EntityID) bool {
		f.o.OnEntityAdded(id)
		f.o.FullRefresh()
		late = id
		return true
	}))
	f.settle()

	require.False(t, late.IsZero(), "filter ran during the rebuild")
	assert.Equal(t, Idle, f.o.State())
}

func TestWorldResetRebuilds(t *testing.T) {
	f, _, _, _ := newSample(t)
	rec := record(f.bus)

	f.world.Reset("undo")
	f.bus.Flush(8)
	assert.Equal(t, PendingFull, f.o.State())
	f.o.Refresh()
	require.Len(t, rec.refreshed, 1)
	assert.True(t, rec.refreshed[0].Full)
}

func TestUnhiddenParentReturnsAboveMatchingChild(t *testing.T) {
	f := newFixture(t, Options{ShowHierarchy: true})
	table := f.spawn(scene.Spawn{Label: "table"})
	cup := f.spawn(scene.Spawn{Label: "cup", Parent: table})
	f.spawn(scene.Spawn{Label: "light", Parent: cup})
	f.o.SetFilterText("light")
	f.settle()
	require.Equal(t, lines(
		"(table)",
		"  (cup)",
		"    light",
	), f.outline())

	require.NoError(t, f.world.SetHidden(cup, true))
	f.settle()
	assert.Equal(t, "light", f.outline())
	f.requireMatchesRebuild()

	require.NoError(t, f.world.SetHidden(cup, false))
	f.settle()
	assert.Equal(t, lines(
		"(table)",
		"  (cup)",
		"    light",
	), f.outline())
	f.requireMatchesRebuild()

	// Destroying the grandparent leaves the dimmed parent at the root.
	require.NoError(t, f.world.Destroy(table))
	f.settle()
	assert.Equal(t, lines(
		"(cup)",
		"  light",
	), f.outline())
	f.requireMatchesRebuild()
}

func TestRecreatedFolderAfterRenameGetsOwnItem(t *testing.T) {
	f := newFixture(t, Options{})
	f.spawn(scene.Spawn{Label: "table", Folder: "Lights"})
	f.settle()

	require.NoError(t, f.world.Folders().Rename("Lights", "Env"))
	f.spawn(scene.Spawn{Label: "lamp", Folder: "Lights"})
	f.settle()

	assert.Equal(t, lines(
		"[Env]",
		"  table",
		"[Lights]",
		"  lamp",
	), f.outline())
	env, ok := f.o.Tree().Folder("Env")
	require.True(t, ok)
	lights, ok := f.o.Tree().Folder("Lights")
	require.True(t, ok)
	assert.NotSame(t, env, lights)
	f.requireMatchesRebuild()
}

func TestRenameMergeKeepsTargetFilterState(t *testing.T) {
	f := newFixture(t, Options{})
	f.spawn(scene.Spawn{Label: "lamp", Folder: "Lamps"})
	f.spawn(scene.Spawn{Label: "lamp", Folder: "Other"})
	f.world.Folders().Create("Lamps/Spare")
	f.o.SetFilterText("lamp")
	f.settle()
	require.Equal(t, lines(
		"[Lamps]",
		"  lamp",
		"([Other])",
		"  lamp",
	), f.outline())

	require.NoError(t, f.world.Folders().Rename("Lamps", "Other"))
	f.settle()
	assert.Equal(t, lines(
		"([Other])",
		"  lamp",
		"  lamp",
	), f.outline())
	other, ok := f.o.Tree().Folder("Other")
	require.True(t, ok)
	assert.True(t, other.FilteredOut())
	f.requireMatchesRebuild()
}
