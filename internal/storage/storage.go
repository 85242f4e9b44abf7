package storage

import (
	"fmt"
	"io/fs"
	"os"
)

// FileSystem is the slice of filesystem behaviour the organizer services need.
type FileSystem interface {
	Resolve(clientPath string) (string, error)
	Stat(clientPath string) (fs.FileInfo, error)
	Lstat(clientPath string) (fs.FileInfo, error)
	ReadDir(clientPath string) ([]fs.DirEntry, error)
	MkdirAll(clientPath string, perm fs.FileMode) error
	Move(source string, destination string) error
	RemoveIfEmpty(clientPath string) (bool, error)
}

// Storage is the local-disk FileSystem. Every path goes through the guard.
type Storage struct {
	guard *PathGuard
}

var _ FileSystem = (*Storage)(nil)

func New(allowedRoots []string) (*Storage, error) {
	guard, err := NewPathGuard(allowedRoots)
	if err != nil {
		return nil, err
	}

	return &Storage{guard: guard}, nil
}

func (s *Storage) Resolve(clientPath string) (string, error) {
	return s.guard.Resolve(clientPath)
}

func (s *Storage) MkdirAll(clientPath string, perm fs.FileMode) error {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(resolved, perm); err != nil {
		return fmt.Errorf("mkdir %q: %w", clientPath, err)
	}

	return nil
}

func (s *Storage) Stat(clientPath string) (fs.FileInfo, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	return os.Stat(resolved)
}

func (s *Storage) Lstat(clientPath string) (fs.FileInfo, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	return os.Lstat(resolved)
}

func (s *Storage) ReadDir(clientPath string) ([]fs.DirEntry, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	return os.ReadDir(resolved)
}

// Move relocates a file, symlink or directory, creating the destination's
// parent and falling back to copy+remove across devices.
func (s *Storage) Move(source string, destination string) error {
	sourceResolved, err := s.Resolve(source)
	if err != nil {
		return err
	}

	destinationResolved, err := s.Resolve(destination)
	if err != nil {
		return err
	}

	if err := movePath(sourceResolved, destinationResolved); err != nil {
		return fmt.Errorf("move %q to %q: %w", source, destination, err)
	}

	return nil
}

// RemoveIfEmpty deletes a directory only when it has no entries left.
// A directory that is already gone reports (false, nil).
func (s *Storage) RemoveIfEmpty(clientPath string) (bool, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return false, err
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}

	if err := os.Remove(resolved); err != nil {
		return false, fmt.Errorf("remove %q: %w", clientPath, err)
	}

	return true, nil
}
