package outliner

import "github.com/scenekit/outliner/internal/core/ecs"

// World is the read/write view of the editable world the outliner browses.
// The outliner never caches entity data; it asks the world every time.
type World interface {
	// Entities visits every live entity in a stable order until fn returns false.
	Entities(fn func(ecs.EntityID) bool)
	Alive(id ecs.EntityID) bool
	// Displayable is false for dead, dying, hidden or unlisted entities.
	Displayable(id ecs.EntityID) bool
	Label(id ecs.EntityID) string
	Class(id ecs.EntityID) string
	Ephemeral(id ecs.EntityID) bool
	Parent(id ecs.EntityID) (ecs.EntityID, bool)
	FolderPath(id ecs.EntityID) string
	// GroupMembers is non-nil only for group entities.
	GroupMembers(id ecs.EntityID) []ecs.EntityID

	// CanAttach returns a user-facing reason when child may not be attached
	// to parent.
	CanAttach(parent, child ecs.EntityID) error
	Attach(child, parent ecs.EntityID) error
	Detach(child ecs.EntityID) error
	SetFolderPath(id ecs.EntityID, path string) error
}

// Folders is the world's folder registry.
type Folders interface {
	Exists(path string) bool
	Paths() []string
	Rename(oldPath, newPath string) error
}

// Selection is the world-wide selection service.
type Selection interface {
	Selected() []ecs.EntityID
	IsSelected(id ecs.EntityID) bool
	BeginBatch()
	SelectNone()
	Select(id ecs.EntityID)
	EndBatch()
}

// Transactor is implemented by worlds that record undoable transactions.
type Transactor interface {
	BeginTransaction(desc string) func()
}
