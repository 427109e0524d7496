package fileutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"kharnish/budgie/internal/fileutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.csv")
	touch(t, testFile)

	assert.True(t, fileutils.FileExists(testFile))
	assert.False(t, fileutils.FileExists(filepath.Join(tmpDir, "nonexistent.csv")))
	assert.False(t, fileutils.FileExists(tmpDir))
}

func TestDirectoryExists(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.csv")
	touch(t, testFile)

	assert.True(t, fileutils.DirectoryExists(tmpDir))
	assert.False(t, fileutils.DirectoryExists(filepath.Join(tmpDir, "nonexistent")))
	assert.False(t, fileutils.DirectoryExists(testFile))
}

func TestListFilesWithExtension(t *testing.T) {
	tmpDir := t.TempDir()
	touch(t, filepath.Join(tmpDir, "b.csv"))
	touch(t, filepath.Join(tmpDir, "A.CSV"))
	touch(t, filepath.Join(tmpDir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "nested.csv"), 0750))

	files, err := fileutils.ListFilesWithExtension(tmpDir, ".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tmpDir, "A.CSV"), filepath.Join(tmpDir, "b.csv")}, files)

	_, err = fileutils.ListFilesWithExtension(filepath.Join(tmpDir, "missing"), ".csv")
	assert.Error(t, err)
}

func TestExpandInputs(t *testing.T) {
	tmpDir := t.TempDir()
	sub := filepath.Join(tmpDir, "exports")
	require.NoError(t, os.Mkdir(sub, 0750))
	touch(t, filepath.Join(sub, "2.csv"))
	touch(t, filepath.Join(sub, "1.csv"))
	single := filepath.Join(tmpDir, "card.csv")
	touch(t, single)

	got, err := fileutils.ExpandInputs([]string{single, sub, "missing.csv"}, ".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{single, filepath.Join(sub, "1.csv"), filepath.Join(sub, "2.csv"), "missing.csv"}, got)
}
