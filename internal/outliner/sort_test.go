package outliner

import (
	"errors"
	"testing"
	"time"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootLabels(o *Outliner) []string {
	var out []string
	for _, r := range o.Children(RootKey) {
		out = append(out, r.Label)
	}
	return out
}

func newSortFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, Options{})
	f.spawn(scene.Spawn{Label: "banana", Class: "a"})
	f.spawn(scene.Spawn{Label: "Apple", Class: "b"})
	f.spawn(scene.Spawn{Label: "Cherry", Class: "c"})
	f.spawn(scene.Spawn{Label: "apple", Class: "a"})
	f.world.Folders().Create("Zeta")
	f.world.Folders().Create("alpha")
	f.settle()
	return f
}

func TestSortFoldersFirstThenNames(t *testing.T) {
	f := newSortFixture(t)
	assert.Equal(t, []string{"alpha", "Zeta", "Apple", "apple", "banana", "Cherry"}, rootLabels(f.o))

	require.NoError(t, f.o.SetSort(ColumnLabel, SortDescending))
	assert.Equal(t, []string{"Zeta", "alpha", "Cherry", "banana", "apple", "Apple"}, rootLabels(f.o))

	require.NoError(t, f.o.SetSort(ColumnLabel, SortNone))
	assert.Equal(t, []string{"alpha", "Zeta", "Apple", "apple", "banana", "Cherry"}, rootLabels(f.o))

	require.NoError(t, f.o.SetSort(ColumnClass, SortAscending))
	assert.Equal(t, []string{"alpha", "Zeta", "apple", "banana", "Apple", "Cherry"}, rootLabels(f.o))

	col, dir := f.o.Sort()
	assert.Equal(t, ColumnClass, col)
	assert.Equal(t, SortAscending, dir)
}

func TestCustomColumn(t *testing.T) {
	f := newFixture(t, Options{})
	f.spawn(scene.Spawn{Label: "ccc"})
	f.spawn(scene.Spawn{Label: "a"})
	f.spawn(scene.Spawn{Label: "bb"})
	f.settle()

	f.o.RegisterColumn(ColumnFunc("length", func(w World, a, b ecs.EntityID) (int, bool) {
		return len(w.Label(b)) - len(w.Label(a)), true
	}))
	require.NoError(t, f.o.SetSort("length", SortAscending))
	assert.Equal(t, []string{"ccc", "bb", "a"}, rootLabels(f.o))

	err := f.o.SetSort("missing", SortAscending)
	assert.True(t, errors.Is(err, ErrUnknownColumn))
	col, _ := f.o.Sort()
	assert.Equal(t, "length", col)
}

func TestChildrenSortedLazily(t *testing.T) {
	f := newFixture(t, Options{})
	f.spawn(scene.Spawn{Label: "b", Folder: "Props"})
	f.spawn(scene.Spawn{Label: "a", Folder: "Props"})
	f.world.Folders().Create("Props/Sub")
	f.settle()

	props, ok := f.o.Tree().Folder("Props")
	require.True(t, ok)
	assert.Zero(t, props.sortGen, "not enumerated yet")

	var labels []string
	for _, r := range f.o.Children(props.Key()) {
		labels = append(labels, r.Label)
		assert.Equal(t, 1, r.Depth)
	}
	assert.Equal(t, []string{"Sub", "a", "b"}, labels)
	assert.Equal(t, f.o.sortGen, props.sortGen)

	id, _ := f.world.Find("a")
	require.NoError(t, f.world.SetLabel(id, "c"))
	f.settle()
	labels = labels[:0]
	for _, r := range f.o.Children(props.Key()) {
		labels = append(labels, r.Label)
	}
	assert.Equal(t, []string{"Sub", "b", "c"}, labels)
}

func TestSortThrottledWhileSimulating(t *testing.T) {
	f := newFixture(t, Options{ResortInterval: time.Second})
	f.spawn(scene.Spawn{Label: "b"})
	f.spawn(scene.Spawn{Label: "c"})
	f.settle()

	f.o.SetSimulating(true)
	f.spawn(scene.Spawn{Label: "a"})
	f.settle()
	assert.Equal(t, []string{"b", "c", "a"}, rootLabels(f.o))

	assert.False(t, f.o.TickSort(500*time.Millisecond))
	assert.Equal(t, []string{"b", "c", "a"}, rootLabels(f.o))
	assert.True(t, f.o.TickSort(600*time.Millisecond))
	assert.Equal(t, []string{"a", "b", "c"}, rootLabels(f.o))

	// Nothing requested: the timer runs but does not sort.
	assert.False(t, f.o.TickSort(2*time.Second))

	f.spawn(scene.Spawn{Label: "0"})
	f.settle()
	assert.Equal(t, []string{"a", "b", "c", "0"}, rootLabels(f.o))
	f.o.SetSimulating(false)
	assert.Equal(t, []string{"0", "a", "b", "c"}, rootLabels(f.o))
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"":           SortAscending,
		"asc":        SortAscending,
		"Descending": SortDescending,
		"desc":       SortDescending,
		"none":       SortNone,
	} {
		got, ok := ParseDirection(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseDirection("sideways")
	assert.False(t, ok)
}
