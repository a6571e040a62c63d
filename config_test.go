package vkr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("demo")
	require.Equal(t, "demo", cfg.Title)
	require.Equal(t, 1280, cfg.Width)
	require.Equal(t, 720, cfg.Height)
	require.Equal(t, "assets", cfg.AssetDir)
	require.False(t, cfg.Validation)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	t.Run("partial file keeps defaults", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path,
			[]byte(`{"title":"windowed","validation":true}`), 0644))
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "windowed", cfg.Title)
		require.True(t, cfg.Validation)
		require.Equal(t, 1280, cfg.Width)
	})
	t.Run("explicit size", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path,
			[]byte(`{"width":800,"height":600,"asset_dir":"data"}`), 0644))
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, 800, cfg.Width)
		require.Equal(t, 600, cfg.Height)
		require.Equal(t, "data", cfg.AssetDir)
	})
	t.Run("rejects non-positive size", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{"width":-1}`), 0644))
		_, err := LoadConfig(path)
		require.Error(t, err)
	})
	t.Run("rejects malformed json", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{"width":`), 0644))
		_, err := LoadConfig(path)
		require.Error(t, err)
	})
	t.Run("rejects missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "nope.json"))
		require.Error(t, err)
	})
}

func TestConfigAsset(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig("demo")
	cfg.AssetDir = dir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tex.png"), []byte{1}, 0644))

	path, err := cfg.Asset("tex.png")
	require.NoError(t, err)
	require.Equal(t, dir+"/tex.png", path)

	_, err = cfg.Asset("missing.png")
	require.Error(t, err)
}
