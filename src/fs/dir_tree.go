package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Filter decides whether a directory entry is listed.
type Filter func(entry os.DirEntry) bool

var documentExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
	".doc":      true,
}

// IsDocument reports whether name carries an extension the editor can open or import.
func IsDocument(name string) bool {
	return documentExtensions[strings.ToLower(filepath.Ext(name))]
}

// Documents lists directories and openable documents, hiding dot entries such as command logs.
func Documents(entry os.DirEntry) bool {
	if strings.HasPrefix(entry.Name(), ".") {
		return false
	}
	return entry.IsDir() || IsDocument(entry.Name())
}

// Tree renders a directory tree rooted at path.
func Tree(path string) (string, error) {
	return FilteredTree(path, nil)
}

// FilteredTree renders a directory tree listing only entries accepted by filter.
// A nil filter lists everything.
func FilteredTree(path string, filter Filter) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", path)
	}
	entries, err := readEntries(abs, filter)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}
	var lines []string
	for i, entry := range entries {
		last := i == len(entries)-1
		lines = append(lines, formatEntry(entry, abs, "", last, filter)...)
	}
	return strings.Join(lines, "\n"), nil
}

func formatEntry(entry os.DirEntry, parent, prefix string, last bool, filter Filter) []string {
	connector := "├── "
	nextPrefix := prefix + "│   "
	if last {
		connector = "└── "
		nextPrefix = prefix + "    "
	}
	name := entry.Name()
	if entry.IsDir() {
		name += "/"
	}
	lines := []string{prefix + connector + name}
	if entry.IsDir() {
		dir := filepath.Join(parent, entry.Name())
		childEntries, err := readEntries(dir, filter)
		if err != nil {
			return append(lines, fmt.Sprintf("%s└── <error: %v>", nextPrefix, err))
		}
		for i, child := range childEntries {
			childLast := i == len(childEntries)-1
			lines = append(lines, formatEntry(child, dir, nextPrefix, childLast, filter)...)
		}
	}
	return lines
}

func readEntries(path string, filter Filter) ([]os.DirEntry, error) {
	all, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	entries := all[:0]
	for _, entry := range all {
		if filter == nil || filter(entry) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() == entries[j].IsDir() {
			return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
		}
		return entries[i].IsDir()
	})
	return entries, nil
}
