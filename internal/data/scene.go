package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EntityDef is one entity of a scene description. Parent and Members refer to
// other entities by label.
type EntityDef struct {
	Label     string   `yaml:"label"`
	Class     string   `yaml:"class"`
	Parent    string   `yaml:"parent"`
	Folder    string   `yaml:"folder"`
	Members   []string `yaml:"members"`
	Hidden    bool     `yaml:"hidden"`
	Unlisted  bool     `yaml:"unlisted"`
	Ephemeral bool     `yaml:"ephemeral"`
	Locked    bool     `yaml:"locked"`
}

// SceneFile describes an editable world: its empty folders, its entities and
// the initial selection.
type SceneFile struct {
	Name     string      `yaml:"name"`
	Folders  []string    `yaml:"folders"`
	Entities []EntityDef `yaml:"entities"`
	Selected []string    `yaml:"selected"`

	byLabel map[string]int
}

// Entity returns the definition with the given label, or nil.
func (s *SceneFile) Entity(label string) *EntityDef {
	i, ok := s.byLabel[label]
	if !ok {
		return nil
	}
	return &s.Entities[i]
}

// Count returns the number of entity definitions.
func (s *SceneFile) Count() int {
	return len(s.Entities)
}

// --- YAML loading ---

// LoadScene reads a scene description from YAML.
func LoadScene(path string) (*SceneFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: read %s: %w", path, err)
	}
	s, err := ParseScene(raw)
	if err != nil {
		return nil, fmt.Errorf("scene: parse %s: %w", path, err)
	}
	return s, nil
}

// ParseScene decodes and checks a scene description. Labels must be unique and
// every label reference must resolve.
func ParseScene(raw []byte) (*SceneFile, error) {
	var s SceneFile
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	s.byLabel = make(map[string]int, len(s.Entities))
	for i := range s.Entities {
		e := &s.Entities[i]
		if e.Label == "" {
			return nil, fmt.Errorf("entity #%d has no label", i)
		}
		if _, dup := s.byLabel[e.Label]; dup {
			return nil, fmt.Errorf("duplicate entity label %q", e.Label)
		}
		s.byLabel[e.Label] = i
	}
	for _, e := range s.Entities {
		if e.Parent != "" {
			if _, ok := s.byLabel[e.Parent]; !ok {
				return nil, fmt.Errorf("entity %q: unknown parent %q", e.Label, e.Parent)
			}
		}
		for _, m := range e.Members {
			if _, ok := s.byLabel[m]; !ok {
				return nil, fmt.Errorf("entity %q: unknown member %q", e.Label, m)
			}
		}
	}
	for _, label := range s.Selected {
		if _, ok := s.byLabel[label]; !ok {
			return nil, fmt.Errorf("unknown selected entity %q", label)
		}
	}
	return &s, nil
}
