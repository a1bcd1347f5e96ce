package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reqsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
model:
  path: model.json
modules:
  - name: demo
    uuid: mod-1
    external-id: demo-1
    snapshot: snapshots/demo.yaml
  - uuid: mod-2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "model.json", cfg.Model.Path)
	require.Len(t, cfg.Modules, 2)
	assert.Equal(t, "demo", cfg.Modules[0].Name)
	assert.Equal(t, "mod-1", cfg.Modules[0].UUID)
	assert.Equal(t, "demo-1", cfg.Modules[0].ExternalID)
	assert.Equal(t, "snapshots/demo.yaml", cfg.Modules[0].Snapshot)
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	_, err := Load(writeConfig(t, "modules:\n  - uuid: mod-1\n"))
	assert.ErrorContains(t, err, "model.path")

	_, err = Load(writeConfig(t, "model:\n  path: model.json\n"))
	assert.ErrorContains(t, err, "no modules")

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "demo", TrackerConfig{Name: "demo", UUID: "u"}.DisplayName())
	assert.Equal(t, "u", TrackerConfig{UUID: "u"}.DisplayName())
	assert.Equal(t, "x-1", TrackerConfig{ExternalID: "x-1"}.DisplayName())
}
