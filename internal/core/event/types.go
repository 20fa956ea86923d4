package event

import "github.com/scenekit/outliner/internal/core/ecs"

// World notifications. The world emits these into the bus; views such as the
// outliner subscribe and apply them on their next refresh.

type EntityAdded struct {
	ID ecs.EntityID
}

type EntityRemoved struct {
	ID ecs.EntityID
}

type EntityAttached struct {
	Child  ecs.EntityID
	Parent ecs.EntityID
}

type EntityDetached struct {
	Child     ecs.EntityID
	OldParent ecs.EntityID
}

type EntityFolderChanged struct {
	ID      ecs.EntityID
	OldPath string
}

// EntityLabelChanged covers any change to fields used for filtering or sorting.
type EntityLabelChanged struct {
	ID ecs.EntityID
}

type FolderCreated struct {
	Path string
}

type FolderDeleted struct {
	Path string
}

// FolderRenamed accompanies the create/delete pair of a rename so views can
// keep the identity of the renamed item.
type FolderRenamed struct {
	OldPath string
	NewPath string
}

// WorldSelectionChanged is published synchronously by the selection service.
type WorldSelectionChanged struct{}

// WorldReset asks every view to rebuild (undo, level streaming, world swap).
type WorldReset struct {
	Reason string
}
