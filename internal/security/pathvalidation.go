// Package security guards the paths the sweep creates from configuration
// labels and archive member names.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SafeJoin joins an archive member name onto root and rejects names that
// would land outside root (absolute paths, ".." traversal).
func SafeJoin(root, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("absolute path %q not allowed", name)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root path: %w", err)
	}
	joined := filepath.Join(absRoot, filepath.FromSlash(name))

	rel, err := filepath.Rel(absRoot, joined)
	if err != nil {
		return "", fmt.Errorf("path is outside %s: %w", root, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %s attempts to escape %s", name, root)
	}
	return joined, nil
}

// ValidateLabel checks that a configuration label can be used as one
// underscore-separated component of a case directory or CSV name. Only ASCII
// letters, digits, '.', and '-' are accepted.
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("empty label")
	}
	if len(label) > 64 {
		return fmt.Errorf("label %q longer than 64 characters", label)
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '-':
		default:
			return fmt.Errorf("label %q contains %q; only letters, digits, '.' and '-' are allowed", label, r)
		}
	}
	if label == "." || label == ".." {
		return fmt.Errorf("label %q is not a valid path component", label)
	}
	return nil
}
