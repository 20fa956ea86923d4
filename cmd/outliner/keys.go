package main

import (
	"fmt"
	"strings"

	"github.com/scenekit/outliner/internal/outliner"
	"github.com/scenekit/outliner/internal/scene"
)

// parseKey resolves a command-line item reference. "/" is the root, a
// trailing slash names a folder, anything else is an entity label.
func parseKey(w *scene.World, ref string) (outliner.ItemID, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "" || ref == "/":
		return outliner.RootKey, nil
	case strings.HasSuffix(ref, "/"):
		return outliner.FolderKey(strings.TrimSuffix(ref, "/")), nil
	}
	id, ok := w.Find(ref)
	if !ok {
		return outliner.ItemID{}, fmt.Errorf("no entity labelled %q", ref)
	}
	return outliner.EntityKey(id), nil
}

func parseKeys(w *scene.World, refs []string) ([]outliner.ItemID, error) {
	keys := make([]outliner.ItemID, 0, len(refs))
	for _, r := range refs {
		k, err := parseKey(w, r)
		if err != nil {
			return nil, err
		}
		if k.IsZero() {
			return nil, fmt.Errorf("the root cannot be moved")
		}
		keys = append(keys, k)
	}
	return keys, nil
}
