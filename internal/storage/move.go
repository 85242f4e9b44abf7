package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

func movePath(source string, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}

	if err := os.Rename(source, destination); err == nil {
		return nil
	} else if !isCrossDeviceRenameError(err) {
		return err
	}

	if err := copyPathRecursive(source, destination); err != nil {
		_ = os.RemoveAll(destination)
		return err
	}

	return os.RemoveAll(source)
}

func isCrossDeviceRenameError(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "cross-device")
}

func copyPathRecursive(source string, destination string) error {
	info, err := os.Lstat(source)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyEntry(source, destination, info)
	}

	if err := os.MkdirAll(destination, info.Mode().Perm()); err != nil {
		return err
	}

	return filepath.WalkDir(source, func(current string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(source, current)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		entryInfo, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}

		target := filepath.Join(destination, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, entryInfo.Mode().Perm())
		}

		return copyEntry(current, target, entryInfo)
	})
}

func copyEntry(source string, destination string, info os.FileInfo) error {
	if info.Mode()&os.ModeSymlink != 0 {
		link, err := os.Readlink(source)
		if err != nil {
			return err
		}
		return os.Symlink(link, destination)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("copy %s: not a regular file", source)
	}

	if err := copyFile(source, destination, info.Mode()); err != nil {
		return err
	}

	// copies carry the source mtime
	return os.Chtimes(destination, info.ModTime(), info.ModTime())
}

func copyFile(source string, destination string, mode os.FileMode) error {
	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}

	output, err := os.OpenFile(destination, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode.Perm())
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(output, input)
	closeErr := output.Close()
	if copyErr != nil {
		return copyErr
	}

	return closeErr
}
