// Package fsutil provides file system utility functions.
package fsutil

import (
	"os"
	"path/filepath"
	"sort"
)

// FileInDir reports whether the directory contains a regular file with the
// given name and returns its full path if so. It does not recurse.
func FileInDir(dir, name string) (string, bool) {
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// DirInDir reports whether the directory contains a subdirectory with the
// given name and returns its full path if so.
func DirInDir(dir, name string) (string, bool) {
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return path, true
}

// Subdirs returns the names of all immediate subdirectories of dir in
// sorted order. Sorting keeps sibling order stable across platforms.
func Subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Entries returns the names of all entries (files and directories) directly
// inside dir, sorted.
func Entries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// IsEmptyDir reports whether dir contains no entries at all.
func IsEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
