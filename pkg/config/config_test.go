package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "expanded")
	path := writeConfig(t, "name: ${SAMPLE_NAME}\n")

	s := sample{Limit: 5}
	require.NoError(t, Load(path, &s))
	assert.Equal(t, "expanded", s.Name)
	assert.Equal(t, 5, s.Limit, "default lost")
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeConfig(t, "limit: -1\n")
	var s sample
	err := Load(path, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "name: [unclosed\n")
	var s sample
	assert.Error(t, Load(path, &s))
}

func TestLoadOrDefault(t *testing.T) {
	s := sample{Name: "default"}
	loaded, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), &s)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, "default", s.Name)

	bad := sample{Limit: -3}
	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), &bad)
	assert.Error(t, err, "defaults should still be validated")

	path := writeConfig(t, "name: file\n")
	loaded, err = LoadOrDefault(path, &s)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "file", s.Name)
}
