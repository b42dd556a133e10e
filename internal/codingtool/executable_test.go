package codingtool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestLocateBinary_EnvOverrideTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeExecutable(t, dir, "mytool")
	t.Setenv("MYTOOL_PATH", path)

	got, err := LocateBinary("mytool", "MYTOOL_PATH", nil)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestLocateBinary_KnownDir(t *testing.T) {
	dir := t.TempDir()
	path := writeExecutable(t, dir, "mytool")

	got, err := LocateBinary("mytool", "", []string{dir})
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestLocateBinary_KnownDirExpandsHome(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "bin"), 0o755))
	path := writeExecutable(t, filepath.Join(home, "bin"), "mytool")
	t.Setenv("HOME", home)

	got, err := LocateBinary("mytool", "", []string{"~/bin"})
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestLocateBinary_FallsBackToPATH(t *testing.T) {
	dir := t.TempDir()
	path := writeExecutable(t, dir, "mytool")
	t.Setenv("PATH", dir)

	got, err := LocateBinary("mytool", "", nil)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestLocateBinary_NotFoundNamesCheckedLocations(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := LocateBinary("mytool", "", []string{"/nonexistent"})
	require.ErrorIs(t, err, ErrExecutableNotFound)
	assert.Contains(t, err.Error(), "mytool")
	assert.Contains(t, err.Error(), "/nonexistent/mytool")
}

func TestLocateBinary_SkipsNonExecutableFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mytool"), []byte("data"), 0o644))
	t.Setenv("PATH", t.TempDir())

	_, err := LocateBinary("mytool", "", []string{dir})
	assert.ErrorIs(t, err, ErrExecutableNotFound)
}
