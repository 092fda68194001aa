package vault

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// Entry is one record in a directory listing. Size is populated only
// for files; Depth only for recursive listings (segments between the
// entry and the listing root).
type Entry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	IsFile   bool   `json:"is_file"`
	Size     *int64 `json:"size"`
	Modified int64  `json:"modified"`
	Depth    int    `json:"depth,omitempty"`
}

// ListOptions controls a listing call.
type ListOptions struct {
	// Recursive enumerates every descendant instead of immediate children.
	Recursive bool
	// Pattern optionally filters recursive listings by a doublestar glob
	// matched against the path relative to the listing root.
	Pattern string
}

// List enumerates the directory at relative under root. Ordering is
// deterministic: flat listings sort directories before files, then
// case-insensitively by name; recursive listings sort by full relative
// path. Any enumeration error fails the whole call - no partial lists.
func (s *Service) List(root, relative string, opts ListOptions) ([]Entry, error) {
	abs, err := Confine(root, relative)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, NotFound("directory")
	}
	if !info.IsDir() {
		return nil, NotADirectory()
	}

	if opts.Recursive {
		return listRecursive(root, abs, opts.Pattern)
	}
	return listFlat(root, abs)
}

func listFlat(root, abs string) ([]Entry, error) {
	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, OperationFailed("failed to list directory", err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			return nil, OperationFailed("failed to list directory", err)
		}
		entries = append(entries, newEntry(root, filepath.Join(abs, d.Name()), info.IsDir(), info, 0))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

func listRecursive(root, abs, pattern string) ([]Entry, error) {
	var (
		mu      sync.Mutex
		entries []Entry
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, abs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == abs {
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		if pattern != "" {
			ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		depth := len(strings.Split(rel, string(os.PathSeparator)))

		mu.Lock()
		entries = append(entries, newEntry(root, path, d.IsDir(), info, depth))
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, OperationFailed("failed to list directory recursively", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func newEntry(root, abs string, isDir bool, info os.FileInfo, depth int) Entry {
	e := Entry{
		Name:     filepath.Base(abs),
		Path:     relativeTo(root, abs),
		IsDir:    isDir,
		IsFile:   !isDir,
		Modified: info.ModTime().Unix(),
		Depth:    depth,
	}
	if !isDir {
		size := info.Size()
		e.Size = &size
	}
	return e
}
