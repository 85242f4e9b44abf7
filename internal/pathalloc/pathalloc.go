// Package pathalloc picks collision-free destination paths.
//
// An Allocator is stateful: every path it hands out is reserved for the rest
// of its lifetime, so a batch of moves into the same directory never
// collides with itself even before the files land on disk. Create one per
// flatten run or organize batch.
package pathalloc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrExhausted   = errors.New("no free name found")
	ErrInvalidName = errors.New("invalid candidate name")
)

// Style selects how a collision suffix is rendered.
type Style int

const (
	// SuffixParenthesized renders "report (1).txt".
	SuffixParenthesized Style = iota
	// SuffixUnderscore renders "report_1.txt".
	SuffixUnderscore
)

func (s Style) format(stem string, ext string, n int) string {
	if s == SuffixUnderscore {
		return fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

// Prober answers existence questions about the target directory.
type Prober interface {
	Lstat(path string) (fs.FileInfo, error)
	ReadDir(path string) ([]fs.DirEntry, error)
}

type osProber struct{}

func (osProber) Lstat(path string) (fs.FileInfo, error)     { return os.Lstat(path) }
func (osProber) ReadDir(path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }

type Option func(*Allocator)

func WithStyle(style Style) Option {
	return func(a *Allocator) { a.style = style }
}

func WithProber(prober Prober) Option {
	return func(a *Allocator) {
		if prober != nil {
			a.prober = prober
		}
	}
}

type Allocator struct {
	mu       sync.Mutex
	style    Style
	prober   Prober
	reserved map[string]map[string]struct{}
}

func New(opts ...Option) *Allocator {
	a := &Allocator{
		style:    SuffixParenthesized,
		prober:   osProber{},
		reserved: make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Reserve marks name in dir as taken without touching the filesystem.
func (a *Allocator) Reserve(dir string, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reserveLocked(filepath.Clean(dir), name)
}

// Release drops a reservation, e.g. after the move it was made for failed.
func (a *Allocator) Release(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dir, name := filepath.Split(filepath.Clean(path))
	if names, ok := a.reserved[filepath.Clean(dir)]; ok {
		delete(names, name)
	}
}

// Allocate returns dir/name when that is free, otherwise the first free
// suffixed variant. The returned path is reserved.
func (a *Allocator) Allocate(dir string, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	dir = filepath.Clean(dir)
	if !a.takenLocked(dir, name) {
		a.reserveLocked(dir, name)
		return filepath.Join(dir, name), nil
	}

	stem, ext := SplitName(name)
	bound := len(a.reserved[dir]) + a.entryCount(dir) + 1
	for n := 1; n <= bound; n++ {
		candidate := a.style.format(stem, ext, n)
		if a.takenLocked(dir, candidate) {
			continue
		}
		a.reserveLocked(dir, candidate)
		return filepath.Join(dir, candidate), nil
	}

	return "", fmt.Errorf("%w for %q in %s after %d attempts", ErrExhausted, name, dir, bound)
}

func (a *Allocator) takenLocked(dir string, name string) bool {
	if _, ok := a.reserved[dir][name]; ok {
		return true
	}

	_, err := a.prober.Lstat(filepath.Join(dir, name))
	// anything but a clean "does not exist" counts as occupied
	return !errors.Is(err, fs.ErrNotExist)
}

func (a *Allocator) reserveLocked(dir string, name string) {
	names, ok := a.reserved[dir]
	if !ok {
		names = make(map[string]struct{})
		a.reserved[dir] = names
	}
	names[name] = struct{}{}
}

func (a *Allocator) entryCount(dir string) int {
	entries, err := a.prober.ReadDir(dir)
	if err != nil {
		return 0
	}
	return len(entries)
}

// SplitName splits a file name into stem and extension. Dotfiles such as
// ".bashrc" have no extension.
func SplitName(name string) (string, string) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		return name, ""
	}
	return stem, ext
}
