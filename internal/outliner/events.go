package outliner

import "github.com/scenekit/outliner/internal/core/ecs"

// Events the outliner publishes on the bus. All are delivered synchronously
// with event.Publish.

// SelectionChanged carries the tree selection after it was reconciled with
// the world selection.
type SelectionChanged struct {
	Entities []ecs.EntityID
	Folders  []string
}

// ItemScrolledIntoView asks the UI to bring a row into view.
type ItemScrolledIntoView struct {
	Key ItemID
}

// RenameRequested asks the UI to open an inline rename editor on a row that
// is now in view.
type RenameRequested struct {
	Key ItemID
}

// TreeRefreshed follows every applied refresh cycle.
type TreeRefreshed struct {
	Full    bool
	Changed bool
}

// EntityPicked is published in picker mode instead of changing the selection.
type EntityPicked struct {
	ID ecs.EntityID
}
