package outliner

import (
	"errors"
	"fmt"
	"slices"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/folder"
	"go.uber.org/zap"
)

// Action is what an accepted drop will do.
type Action int

const (
	ActionReject Action = iota
	ActionAttach
	ActionAttachMultiple
	ActionDetach
	ActionDetachMultiple
	ActionMoveIntoFolder
	ActionMoveToRoot
)

func (a Action) String() string {
	switch a {
	case ActionAttach:
		return "attach"
	case ActionAttachMultiple:
		return "attach-multiple"
	case ActionDetach:
		return "detach"
	case ActionDetachMultiple:
		return "detach-multiple"
	case ActionMoveIntoFolder:
		return "move-into-folder"
	case ActionMoveToRoot:
		return "move-to-root"
	default:
		return "reject"
	}
}

// Payload is what is being dragged.
type Payload struct {
	Entities []ecs.EntityID
	Folders  []string
}

// PayloadOf splits item keys into a payload.
func PayloadOf(keys []ItemID) Payload {
	var p Payload
	for _, k := range keys {
		switch {
		case k.IsEntity():
			p.Entities = append(p.Entities, k.Entity)
		case k.IsFolder():
			p.Folders = append(p.Folders, k.Folder)
		}
	}
	return p
}

// Validation is the verdict on a drop. Entities and Folders are the parts of
// the payload the action applies to.
type Validation struct {
	Kind     Action
	Message  string
	Entities []ecs.EntityID
	Folders  []string
	// Mixed is set when some dragged entities are already attached to the
	// target and only the others will be attached.
	Mixed bool
	err   error
}

func (v Validation) Accepted() bool { return v.Kind != ActionReject }

// Err returns nil for an accepted drop and a *MoveError otherwise.
func (v Validation) Err() error {
	if v.Accepted() {
		return nil
	}
	return &MoveError{Kind: v.Kind, Message: v.Message, Err: v.err}
}

func reject(err error, format string, args ...any) Validation {
	return Validation{Kind: ActionReject, Message: fmt.Sprintf(format, args...), err: err}
}

// Validate decides what dropping p onto target would do. The zero target is
// the root. It has no side effects.
func Validate(w World, folders Folders, p Payload, target ItemID) Validation {
	entities := make([]ecs.EntityID, 0, len(p.Entities))
	for _, id := range p.Entities {
		if w.Displayable(id) && !slices.Contains(entities, id) {
			entities = append(entities, id)
		}
	}
	dragged := cleanFolders(folders, p.Folders)
	if len(entities) == 0 && len(dragged) == 0 {
		return reject(ErrInvalidReparent, "Nothing to move")
	}

	if target.IsEntity() {
		if len(dragged) > 0 {
			return reject(ErrInvalidReparent, "Cannot attach folders to %s", w.Label(target.Entity))
		}
		return validateAttach(w, entities, target.Entity)
	}

	dest := target.Folder
	if target.IsFolder() && !folders.Exists(dest) {
		return reject(ErrInvalidReparent, "Folder %s no longer exists", dest)
	}
	leaves := make(map[string]string, len(dragged))
	for _, path := range dragged {
		if folder.IsSelfOrDescendant(dest, path) {
			return reject(ErrInvalidReparent, "Cannot move %s: a folder cannot become a child of itself", path)
		}
		if folder.Parent(path) == dest {
			return reject(ErrInvalidReparent, "%s is already assigned here", folder.Leaf(path))
		}
		leaf := folder.Leaf(path)
		if folders.Exists(folder.Join(dest, leaf)) {
			return reject(ErrInvalidReparent, "A folder called %s already exists here", leaf)
		}
		if other, dup := leaves[leaf]; dup {
			return reject(ErrInvalidReparent, "Cannot move %s and %s: both are called %s", other, path, leaf)
		}
		leaves[leaf] = path
	}

	v := Validation{Kind: ActionMoveToRoot, Entities: entities, Folders: dragged}
	if dest == "" {
		v.Message = "Move to root"
	} else {
		v.Kind = ActionMoveIntoFolder
		v.Message = "Move into " + dest
	}
	return v
}

// cleanFolders normalizes dragged folder paths, drops unknown ones and drops
// folders whose ancestor is dragged too since they move along.
func cleanFolders(folders Folders, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = folder.Clean(p)
		if p != "" && folders.Exists(p) && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return slices.DeleteFunc(slices.Clone(out), func(p string) bool {
		for _, other := range out {
			if folder.IsDescendant(p, other) {
				return true
			}
		}
		return false
	})
}

func validateAttach(w World, entities []ecs.EntityID, parent ecs.EntityID) Validation {
	name := w.Label(parent)
	if !w.Displayable(parent) {
		return reject(ErrAttachmentRejected, "Cannot attach to an entity that no longer exists")
	}
	var unattached []ecs.EntityID
	for _, id := range entities {
		if p, ok := w.Parent(id); !ok || p != parent {
			unattached = append(unattached, id)
		}
	}

	if len(unattached) == 0 {
		if len(entities) == 1 {
			return Validation{Kind: ActionDetach, Entities: entities,
				Message: fmt.Sprintf("Detach %s from %s", w.Label(entities[0]), name)}
		}
		return Validation{Kind: ActionDetachMultiple, Entities: entities,
			Message: "Detach multiple entities from " + name}
	}

	for _, id := range unattached {
		if err := w.CanAttach(parent, id); err != nil {
			if len(entities) == 1 {
				return reject(ErrAttachmentRejected, "%s", err.Error())
			}
			return reject(ErrAttachmentRejected, "Cannot attach selected items to %s: %s: %s", name, w.Label(id), err.Error())
		}
	}

	v := Validation{Kind: ActionAttachMultiple, Entities: unattached,
		Message: "Attach multiple entities to " + name}
	if len(entities) == 1 {
		v.Kind = ActionAttach
		v.Message = fmt.Sprintf("Attach %s to %s", w.Label(entities[0]), name)
	}
	if n := len(entities) - len(unattached); n > 0 {
		v.Mixed = true
		v.Message += fmt.Sprintf(" (%d already attached)", n)
	}
	return v
}

// Apply performs an accepted drop inside a single transaction when the world
// records them.
func Apply(w World, folders Folders, target ItemID, v Validation) error {
	if !v.Accepted() {
		return v.Err()
	}
	if tx, ok := w.(Transactor); ok {
		end := tx.BeginTransaction("Move Items")
		defer end()
	}

	var errs []error
	switch v.Kind {
	case ActionAttach, ActionAttachMultiple:
		for _, id := range v.Entities {
			if err := w.Attach(id, target.Entity); err != nil {
				errs = append(errs, err)
			}
		}
	case ActionDetach, ActionDetachMultiple:
		for _, id := range v.Entities {
			if err := w.Detach(id); err != nil {
				errs = append(errs, err)
			}
		}
	case ActionMoveIntoFolder, ActionMoveToRoot:
		dest := target.Folder
		for _, id := range v.Entities {
			if _, attached := w.Parent(id); attached {
				if err := w.Detach(id); err != nil {
					errs = append(errs, err)
					continue
				}
			}
			if err := w.SetFolderPath(id, dest); err != nil {
				errs = append(errs, err)
			}
		}
		for _, path := range v.Folders {
			if err := folders.Rename(path, folder.Join(dest, folder.Leaf(path))); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("apply %s: %w", v.Kind, err)
	}
	return nil
}

// ValidateMove checks a drop of the given items onto target.
func (o *Outliner) ValidateMove(keys []ItemID, target ItemID) Validation {
	return Validate(o.world, o.folders, PayloadOf(keys), target)
}

// RequestMove validates and applies a drop. Rejections come back as
// *MoveError and leave the world untouched, including a drop that arrives
// while the tree is applying changes or synchronizing the selection.
func (o *Outliner) RequestMove(keys []ItemID, target ItemID) error {
	if o.state == Applying || o.syncing {
		o.log.Debug("move dropped while synchronizing")
		return &MoveError{
			Kind:    ActionReject,
			Message: "Cannot move items while the outliner is updating",
			Err:     ErrBusy,
		}
	}
	v := o.ValidateMove(keys, target)
	if !v.Accepted() {
		o.log.Debug("move rejected", zap.String("reason", v.Message))
		return v.Err()
	}
	if err := Apply(o.world, o.folders, target, v); err != nil {
		o.log.Warn("move failed, rebuilding", zap.Error(err))
		o.FullRefresh()
		return err
	}
	o.log.Info("items moved",
		zap.Stringer("action", v.Kind),
		zap.Stringer("target", target),
		zap.Int("entities", len(v.Entities)),
		zap.Int("folders", len(v.Folders)),
	)
	return nil
}
