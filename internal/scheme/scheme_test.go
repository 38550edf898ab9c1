package scheme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolvesFixedIDs(t *testing.T) {
	r := NewRegistry()
	for _, id := range IDs {
		s, ok := r.Get(id)
		require.True(t, ok, "scheme %q must resolve", id)
		assert.Equal(t, id, s.ID)
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.Instruction)
		assert.NotEmpty(t, s.Color)
	}
	assert.Len(t, r.All(), len(IDs))
}

func TestToolBindings(t *testing.T) {
	r := NewRegistry()
	want := map[string]Tool{
		"vision": ToolNone,
		"intel":  ToolSearch,
		"entry":  ToolMaps,
		"design": ToolImage,
		"tech":   ToolNone,
	}
	for id, tool := range want {
		s, ok := r.Get(id)
		require.True(t, ok)
		assert.Equal(t, tool, s.Tool, "scheme %q", id)
	}
}

func TestGetUnknownID(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("warfare")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemes.yaml")
	content := `
- id: intel
  instruction: "Focus exclusively on competitor pricing."
- id: vision
  name: "North Star"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadFile(path))

	intel, _ := r.Get("intel")
	assert.Equal(t, "Focus exclusively on competitor pricing.", intel.Instruction)
	assert.Equal(t, ToolSearch, intel.Tool, "unset fields keep built-in values")

	vision, _ := r.Get("vision")
	assert.Equal(t, "North Star", vision.Name)
	assert.NotEmpty(t, vision.Instruction)

	assert.Len(t, r.All(), len(IDs), "overrides cannot add presets")
}

func TestLoadFileRejectsUnknownID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: warfare\n  name: nope\n"), 0o644))

	r := NewRegistry()
	assert.Error(t, r.LoadFile(path))
}

func TestLoadFileEmptyPathIsNoop(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.LoadFile(""))
}

func TestLoadFileMissingFile(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}
