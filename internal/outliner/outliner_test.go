package outliner

import (
	"strings"
	"testing"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/core/event"
	"github.com/scenekit/outliner/internal/folder"
	"github.com/scenekit/outliner/internal/scene"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	_ World      = (*scene.World)(nil)
	_ Transactor = (*scene.World)(nil)
	_ Folders    = (*folder.Registry)(nil)
	_ Selection  = (*scene.Selection)(nil)
)

type fixture struct {
	t     *testing.T
	bus   *event.Bus
	world *scene.World
	o     *Outliner
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	bus := event.NewBus()
	log := zaptest.NewLogger(t)
	w := scene.NewWorld("test", bus, log)
	return &fixture{
		t:     t,
		bus:   bus,
		world: w,
		o:     New(w, w.Folders(), w.Selection(), bus, log, opts),
	}
}

// newSample builds Table with Cup attached, and Lamp in Lights/Interior.
func newSample(t *testing.T) (*fixture, ecs.EntityID, ecs.EntityID, ecs.EntityID) {
	t.Helper()
	f := newFixture(t, Options{ShowHierarchy: true})
	table := f.spawn(scene.Spawn{Label: "Table", Class: "StaticMesh"})
	cup := f.spawn(scene.Spawn{Label: "Cup", Class: "StaticMesh", Parent: table})
	lamp := f.spawn(scene.Spawn{Label: "Lamp", Class: "PointLight", Folder: "Lights/Interior"})
	f.settle()
	return f, table, cup, lamp
}

func (f *fixture) spawn(s scene.Spawn) ecs.EntityID {
	f.t.Helper()
	id, err := f.world.Spawn(s)
	require.NoError(f.t, err)
	return id
}

// settle delivers queued world notifications and applies them.
func (f *fixture) settle() {
	f.t.Helper()
	f.bus.Flush(8)
	f.o.Refresh()
	require.NoError(f.t, f.o.Tree().Check())
}

// outline renders the tree one row per line: folders in brackets, filtered
// out rows in parentheses, two spaces per level.
func (f *fixture) outline() string {
	var b strings.Builder
	var render func(rows []Row)
	render = func(rows []Row) {
		for _, r := range rows {
			label := r.Label
			if r.Kind == KindFolder {
				label = "[" + label + "]"
			}
			if r.FilteredOut {
				label = "(" + label + ")"
			}
			b.WriteString(strings.Repeat("  ", r.Depth) + label + "\n")
			render(r.Children)
		}
	}
	render(f.o.VisibleTree())
	return strings.TrimSuffix(b.String(), "\n")
}

// requireMatchesRebuild checks that the incrementally maintained tree is the
// tree a full rebuild would produce.
func (f *fixture) requireMatchesRebuild() {
	f.t.Helper()
	incremental := f.outline()
	f.o.FullRefresh()
	f.settle()
	require.Equal(f.t, f.outline(), incremental)
}

func lines(s ...string) string { return strings.Join(s, "\n") }

type recorder struct {
	refreshed []TreeRefreshed
	selection []SelectionChanged
	scrolled  []ItemScrolledIntoView
	renames   []RenameRequested
	picked    []EntityPicked
	world     int
}

func record(bus *event.Bus) *recorder {
	r := &recorder{}
	event.Subscribe(bus, func(e TreeRefreshed) { r.refreshed = append(r.refreshed, e) })
	event.Subscribe(bus, func(e SelectionChanged) { r.selection = append(r.selection, e) })
	event.Subscribe(bus, func(e ItemScrolledIntoView) { r.scrolled = append(r.scrolled, e) })
	event.Subscribe(bus, func(e RenameRequested) { r.renames = append(r.renames, e) })
	event.Subscribe(bus, func(e EntityPicked) { r.picked = append(r.picked, e) })
	event.Subscribe(bus, func(event.WorldSelectionChanged) { r.world++ })
	return r
}
