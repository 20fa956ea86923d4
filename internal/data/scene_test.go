package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScene = `
name: Sample
folders:
  - Empty/Nested
entities:
  - label: A
    class: StaticMesh
  - label: B
    class: PointLight
    parent: A
  - label: C
    class: SpotLight
    folder: Lights/Interior
  - label: Crowd
    class: Group
    members: [B, C]
selected: [C]
`

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScene), 0o644))

	s, err := LoadScene(path)
	require.NoError(t, err)

	assert.Equal(t, "Sample", s.Name)
	assert.Equal(t, 4, s.Count())
	assert.Equal(t, []string{"Empty/Nested"}, s.Folders)
	assert.Equal(t, []string{"C"}, s.Selected)

	b := s.Entity("B")
	require.NotNil(t, b)
	assert.Equal(t, "A", b.Parent)
	assert.Equal(t, "Lights/Interior", s.Entity("C").Folder)
	assert.Equal(t, []string{"B", "C"}, s.Entity("Crowd").Members)
	assert.Nil(t, s.Entity("missing"))
}

func TestParseSceneRejectsBadReferences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing label", "entities:\n  - class: X\n"},
		{"duplicate label", "entities:\n  - label: A\n  - label: A\n"},
		{"unknown parent", "entities:\n  - label: A\n    parent: Z\n"},
		{"unknown member", "entities:\n  - label: A\n    members: [Z]\n"},
		{"unknown selection", "entities:\n  - label: A\nselected: [Z]\n"},
		{"bad yaml", "entities: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScene([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadSceneMissingFile(t *testing.T) {
	_, err := LoadScene(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
