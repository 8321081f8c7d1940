package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileLister is the ordered set of documents available for annotation.
type FileLister struct {
	path  string
	ext   string
	isDir bool

	mu    sync.RWMutex
	files []string
}

// NewFileLister lists the files in path with extension ext. If path is a
// file, the lister holds just that file.
func NewFileLister(path, ext string) (*FileLister, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	l := &FileLister{path: path, ext: ext, isDir: info.IsDir()}
	if err := l.Refresh(); err != nil {
		return nil, err
	}
	return l, nil
}

// Refresh rescans the directory.
func (l *FileLister) Refresh() error {
	var files []string
	if l.isDir {
		matches, err := filepath.Glob(filepath.Join(l.path, "*"+l.ext))
		if err != nil {
			return fmt.Errorf("list %s: %w", l.path, err)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
				files = append(files, m)
			}
		}
		sort.Strings(files)
	} else {
		files = []string{l.path}
	}
	if len(files) == 0 {
		return fmt.Errorf("no files for directory %s with extension %s", l.path, l.ext)
	}

	l.mu.Lock()
	l.files = files
	l.mu.Unlock()
	return nil
}

// Dir is the directory holding the documents.
func (l *FileLister) Dir() string {
	if l.isDir {
		return l.path
	}
	return filepath.Dir(l.path)
}

func (l *FileLister) Ext() string { return l.ext }

func (l *FileLister) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.files)
}

// Filename returns the path of the index-th document.
func (l *FileLister) Filename(index int) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.files) {
		return "", false
	}
	return l.files[index], true
}

// IndexOf finds a document by exact path, then by substring.
func (l *FileLister) IndexOf(name string) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i, f := range l.files {
		if f == name {
			return i, true
		}
	}
	for i, f := range l.files {
		if strings.Contains(f, name) {
			return i, true
		}
	}
	return 0, false
}

func (l *FileLister) HasNext(index int) bool {
	return index+1 < l.Len()
}

func (l *FileLister) Contains(index int) bool {
	return index >= 0 && index < l.Len()
}

// Files returns a copy of the document paths.
func (l *FileLister) Files() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.files...)
}
