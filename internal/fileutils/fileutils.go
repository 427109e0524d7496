// Package fileutils provides the file lookups used by the commands.
package fileutils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileExists checks if a file exists and is not a directory
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirectoryExists checks if a directory exists
func DirectoryExists(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ListFilesWithExtension returns the files directly under dirPath whose
// extension matches, case-insensitively, sorted by name.
func ListFilesWithExtension(dirPath, extension string) ([]string, error) {
	if !DirectoryExists(dirPath) {
		return nil, fmt.Errorf("directory does not exist: %s", dirPath)
	}
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), extension) {
			continue
		}
		files = append(files, filepath.Join(dirPath, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ExpandInputs replaces every directory in paths by the files it holds with
// the given extension. Other paths are kept as given, in order.
func ExpandInputs(paths []string, extension string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if !DirectoryExists(p) {
			out = append(out, p)
			continue
		}
		files, err := ListFilesWithExtension(p, extension)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}
