package scene

import "github.com/scenekit/outliner/internal/core/ecs"

// Name is the user-facing identity of an entity.
type Name struct {
	Label string
	Class string
}

// Placement holds both hierarchies an entity can live in: its attachment
// parent and its virtual folder.
type Placement struct {
	Parent ecs.EntityID // zero = not attached
	Folder string
}

// Flags control editor visibility and editability.
type Flags struct {
	Hidden    bool // level not visible
	Unlisted  bool // never shown in browsers
	Ephemeral bool // transient, e.g. drag previews and spawned-at-play actors
	Locked    bool // attachment changes refused
	Dying     bool // destroyed, waiting for the cleanup flush
}

// Group is attached to group entities and lists their members.
type Group struct {
	Members []ecs.EntityID
}

// Spawn describes a new entity.
type Spawn struct {
	Label     string
	Class     string
	Folder    string
	Parent    ecs.EntityID
	Hidden    bool
	Unlisted  bool
	Ephemeral bool
	Locked    bool
	Members   []ecs.EntityID
}
