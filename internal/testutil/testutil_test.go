package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectio-edu/lectio/internal/config"
	"github.com/lectio-edu/lectio/internal/content"
)

func TestSetupTestConfig(t *testing.T) {
	tmpDir := t.TempDir()
	got := SetupTestConfig(t, tmpDir)

	want := filepath.Join(tmpDir, "config.yml")
	assert.Equal(t, want, got)

	cfg, err := config.Load(got)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, filepath.Join(tmpDir, "lectio.db"), cfg.Database.DSN)
	assert.Equal(t, TestJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSetupTestConfigWithAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	tmpDir := t.TempDir()
	got := SetupTestConfigWithAPIKey(t, tmpDir)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fake-key-for-testing")
}

func TestCreateContentFile(t *testing.T) {
	path := CreateContentFile(t, t.TempDir(), BiologySubject())

	got, err := content.LoadYAML(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, BiologySubject(), got[0])
}
