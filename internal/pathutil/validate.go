// Package pathutil keeps file writes requested over MCP inside the project.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/coevolve/internal/constants"
)

// exportsDirName holds exported networks under the data directory.
const exportsDirName = "exports"

// RedactPath shortens a path to .../<parent>/<basename> for error messages,
// e.g. "/home/user/.coevolve/runs.db" becomes ".../.coevolve/runs.db".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	base := filepath.Base(cleaned)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// ValidatePath checks that path resolves to a location inside one of
// allowedDirs. Symlinks are resolved on both sides, so a link inside an
// allowed directory cannot point a write elsewhere.
func ValidatePath(path string, allowedDirs []string) error {
	switch {
	case path == "":
		return fmt.Errorf("path validation failed: path is empty")
	case len(allowedDirs) == 0:
		return fmt.Errorf("path validation failed: no allowed directories configured")
	case strings.ContainsRune(path, '\x00'):
		return fmt.Errorf("path validation failed: path contains null byte")
	}

	target, err := resolve(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	for _, dir := range allowedDirs {
		if base, err := resolve(dir); err == nil && within(target, base) {
			return nil
		}
	}
	return fmt.Errorf("path validation failed: %q is outside allowed directories", RedactPath(target))
}

// resolve returns the absolute, symlink free form of path. Components that
// do not exist yet, such as a new export file, are kept as written.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path: %w", err)
	}

	var missing []string
	for dir := abs; ; {
		if real, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{real}, missing...)...), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("cannot resolve path: %s", RedactPath(abs))
		}
		missing = append([]string{filepath.Base(dir)}, missing...)
		dir = parent
	}
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ExportDir returns <projectRoot>/.coevolve/exports.
func ExportDir(projectRoot string) string {
	return filepath.Join(projectRoot, constants.DataDirName, exportsDirName)
}

// AllowedExportDirs returns the directories exports may be written to: the
// project root and ~/.coevolve/exports.
func AllowedExportDirs(projectRoot string) ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{
		projectRoot,
		filepath.Join(homeDir, constants.DataDirName, exportsDirName),
	}, nil
}

// ResolveExportPath maps a requested export file to an absolute path.
// Relative names are placed in ExportDir(projectRoot). The result must lie
// inside AllowedExportDirs.
func ResolveExportPath(projectRoot, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("path validation failed: path is empty")
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(ExportDir(projectRoot), path)
	}

	allowed, err := AllowedExportDirs(projectRoot)
	if err != nil {
		return "", err
	}
	if err := ValidatePath(path, allowed); err != nil {
		return "", err
	}
	return filepath.Abs(path)
}
