package scene

import (
	"fmt"

	"github.com/scenekit/outliner/internal/core/ecs"
	"github.com/scenekit/outliner/internal/data"
	"go.uber.org/zap"
)

// Load spawns the entities of a scene description into the world. Entities are
// spawned first and attached afterwards so parents may be listed after their
// children.
func (w *World) Load(s *data.SceneFile) error {
	for _, path := range s.Folders {
		w.folders.Create(path)
	}

	ids := make(map[string]ecs.EntityID, len(s.Entities))
	for _, def := range s.Entities {
		id, err := w.Spawn(Spawn{
			Label:     def.Label,
			Class:     def.Class,
			Folder:    def.Folder,
			Hidden:    def.Hidden,
			Unlisted:  def.Unlisted,
			Ephemeral: def.Ephemeral,
			Locked:    def.Locked,
		})
		if err != nil {
			return fmt.Errorf("load %s: %w", s.Name, err)
		}
		ids[def.Label] = id
	}

	for _, def := range s.Entities {
		if len(def.Members) == 0 {
			continue
		}
		members := make([]ecs.EntityID, 0, len(def.Members))
		for _, m := range def.Members {
			members = append(members, ids[m])
		}
		w.groups.Set(ids[def.Label], &Group{Members: members})
	}

	for _, def := range s.Entities {
		if def.Parent == "" {
			continue
		}
		// Lock applies to interactive edits only.
		child := ids[def.Label]
		f, _ := w.flags.Get(child)
		locked := f.Locked
		f.Locked = false
		err := w.Attach(child, ids[def.Parent])
		f.Locked = locked
		if err != nil {
			return fmt.Errorf("load %s: attach %q to %q: %w", s.Name, def.Label, def.Parent, err)
		}
	}

	if len(s.Selected) > 0 {
		w.sel.BeginBatch()
		for _, label := range s.Selected {
			w.sel.Select(ids[label])
		}
		w.sel.EndBatch()
	}

	w.log.Info("scene loaded",
		zap.String("scene", s.Name),
		zap.Int("entities", len(s.Entities)),
		zap.Int("folders", w.folders.Len()),
	)
	return nil
}
