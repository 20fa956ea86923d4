package outliner

import (
	"fmt"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/folder"
)

// ItemID identifies a tree item: an entity handle or a folder path. The zero
// value is the root.
type ItemID struct {
	Entity ecs.EntityID
	Folder string
}

func EntityKey(id ecs.EntityID) ItemID { return ItemID{Entity: id} }
func FolderKey(path string) ItemID     { return ItemID{Folder: path} }

// RootKey is the drop target for "move to root".
var RootKey = ItemID{}

func (k ItemID) IsZero() bool   { return k.Entity.IsZero() && k.Folder == "" }
func (k ItemID) IsFolder() bool { return k.Entity.IsZero() && k.Folder != "" }
func (k ItemID) IsEntity() bool { return !k.Entity.IsZero() }

func (k ItemID) String() string {
	switch {
	case k.IsEntity():
		return k.Entity.String()
	case k.IsFolder():
		return fmt.Sprintf("folder(%s)", k.Folder)
	default:
		return "root"
	}
}

// Kind tells entity rows from folder rows.
type Kind int

const (
	KindEntity Kind = iota
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "entity"
}

// Item is a node of the outliner tree.
type Item interface {
	Key() ItemID
	Kind() Kind
	// Parent is the zero key for root items.
	Parent() ItemID
	// FilteredOut items are kept only so a matching descendant has a path to
	// the root.
	FilteredOut() bool
	Visible() bool
	Expanded() bool
	RenameRequested() bool
	NumChildren() int

	state() *itemState
}

// itemState is the state shared by both item kinds. Children are held by key and
// resolved through the tree indices.
type itemState struct {
	parent          ItemID
	children        map[ItemID]struct{}
	filteredOut     bool
	expanded        bool
	renameRequested bool

	sorted  []ItemID
	sortGen uint64 // 0 = sorted children need rebuilding
}

func (n *itemState) Parent() ItemID        { return n.parent }
func (n *itemState) FilteredOut() bool     { return n.filteredOut }
func (n *itemState) Visible() bool         { return !n.filteredOut }
func (n *itemState) Expanded() bool        { return n.expanded }
func (n *itemState) RenameRequested() bool { return n.renameRequested }
func (n *itemState) NumChildren() int      { return len(n.children) }
func (n *itemState) state() *itemState     { return n }

// reset clears tree membership but keeps UI state across rebuilds.
func (n *itemState) reset() {
	n.parent = ItemID{}
	clear(n.children)
	n.filteredOut = false
	n.sorted = n.sorted[:0]
	n.sortGen = 0
}

func (n *itemState) addChild(k ItemID) {
	if n.children == nil {
		n.children = make(map[ItemID]struct{})
	}
	n.children[k] = struct{}{}
	n.sortGen = 0
}

func (n *itemState) removeChild(k ItemID) {
	if _, ok := n.children[k]; ok {
		delete(n.children, k)
		n.sortGen = 0
	}
}

// EntityItem represents one entity. It holds only the handle.
type EntityItem struct {
	itemState
	ID ecs.EntityID
}

func (e *EntityItem) Key() ItemID { return EntityKey(e.ID) }
func (e *EntityItem) Kind() Kind  { return KindEntity }

// FolderItem represents one folder path. Renames mutate the path in place.
type FolderItem struct {
	itemState
	path string
}

func (f *FolderItem) Key() ItemID  { return FolderKey(f.path) }
func (f *FolderItem) Kind() Kind   { return KindFolder }
func (f *FolderItem) Path() string { return f.path }
func (f *FolderItem) Name() string { return folder.Leaf(f.path) }
