package storage

import (
	"fmt"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"go-file-organizer/internal/model"
	"go-file-organizer/pkg/apierror"
)

// PathGuard turns caller-supplied paths into clean absolute paths and keeps
// them inside the configured roots. A guard without roots admits any path.
type PathGuard struct {
	roots []string
}

func NewPathGuard(roots []string) (*PathGuard, error) {
	guard := &PathGuard{}
	for _, root := range roots {
		if strings.TrimSpace(root) == "" {
			continue
		}

		rootAbs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve allowed root %q: %w", root, err)
		}
		guard.roots = append(guard.roots, filepath.Clean(rootAbs))
	}

	return guard, nil
}

func (g *PathGuard) Roots() []string {
	return append([]string(nil), g.roots...)
}

func (g *PathGuard) Resolve(clientPath string) (string, error) {
	trimmed := strings.TrimSpace(clientPath)
	if trimmed == "" {
		return "", apierror.Wrap(model.ErrInvalidInput, "BAD_REQUEST", "path is required", "", http.StatusBadRequest)
	}

	if strings.Contains(trimmed, "\x00") || hasControlCharacters(trimmed) {
		return "", apierror.Wrap(model.ErrInvalidInput, "INVALID_PATH", "path contains invalid characters", clientPath, http.StatusBadRequest)
	}

	resolved, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	resolved = filepath.Clean(resolved)

	if len(g.roots) == 0 {
		return resolved, nil
	}

	for _, root := range g.roots {
		if isWithinRoot(root, resolved) {
			return resolved, nil
		}
	}

	return "", apierror.Wrap(model.ErrPathNotAllowed, "PATH_NOT_ALLOWED", "path is outside the allowed roots", clientPath, http.StatusForbidden)
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	if runtime.GOOS == "windows" {
		rootAbs = strings.ToLower(rootAbs)
		candidateAbs = strings.ToLower(candidateAbs)
	}

	if candidateAbs == rootAbs {
		return true
	}

	rootWithSeparator := strings.TrimSuffix(rootAbs, string(filepath.Separator)) + string(filepath.Separator)
	return strings.HasPrefix(candidateAbs, rootWithSeparator)
}

// IsWithin reports whether candidate equals dir or lies below it.
func IsWithin(dir string, candidate string) bool {
	return isWithinRoot(filepath.Clean(dir), filepath.Clean(candidate))
}
